// Package k8sprovider implements providers.K8sProvider against a live
// Kubernetes API server via client-go, loading credentials the same way
// kubectl does: in-cluster config when running inside a pod, otherwise
// the kubeconfig clientcmd resolves from $KUBECONFIG or ~/.kube/config.
package k8sprovider

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Provider implements providers.K8sProvider against the typed client-go
// clientset.
type Provider struct {
	client kubernetes.Interface
}

// New builds a client-go clientset from the process's Kubernetes
// credentials. When inCluster is true it uses rest.InClusterConfig;
// otherwise it loads kubeconfigPath via clientcmd (empty path falls back
// to clientcmd's default loading rules, the same resolution kubectl
// itself uses).
func New(kubeconfigPath string, inCluster bool) (*Provider, error) {
	var cfg *rest.Config
	var err error
	if inCluster {
		cfg, err = rest.InClusterConfig()
	} else {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		if kubeconfigPath != "" {
			loadingRules.ExplicitPath = kubeconfigPath
		}
		cfg, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("load kubernetes config: %w", err)
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build kubernetes client: %w", err)
	}
	return &Provider{client: client}, nil
}

// NewFromClientset wraps an already-constructed clientset, for tests and
// for wiring a fake clientset in place of a live API server.
func NewFromClientset(client kubernetes.Interface) *Provider {
	return &Provider{client: client}
}

// PodInfo returns the raw pod spec/status as a generic map, matching the
// shape the evidence stage expects for K8sEvidence.PodInfo.
func (p *Provider) PodInfo(ctx context.Context, namespace, pod string) (map[string]any, error) {
	obj, err := p.client.CoreV1().Pods(namespace).Get(ctx, pod, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get pod %s/%s: %w", namespace, pod, err)
	}
	return map[string]any{
		"name":        obj.Name,
		"namespace":   obj.Namespace,
		"phase":       string(obj.Status.Phase),
		"node":        obj.Spec.NodeName,
		"start_time":  timeOrNil(obj.Status.StartTime),
		"containers":  containerStatuses(obj.Status.ContainerStatuses),
		"labels":      obj.Labels,
		"annotations": obj.Annotations,
	}, nil
}

// PodConditions returns the pod's status.conditions list.
func (p *Provider) PodConditions(ctx context.Context, namespace, pod string) ([]map[string]any, error) {
	obj, err := p.client.CoreV1().Pods(namespace).Get(ctx, pod, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get pod %s/%s: %w", namespace, pod, err)
	}
	out := make([]map[string]any, 0, len(obj.Status.Conditions))
	for _, c := range obj.Status.Conditions {
		out = append(out, map[string]any{
			"type":                string(c.Type),
			"status":              string(c.Status),
			"reason":              c.Reason,
			"message":             c.Message,
			"last_transition_time": c.LastTransitionTime.Time,
		})
	}
	return out, nil
}

// PodEvents returns the warning/normal events the API server has recorded
// against this pod, newest last (the order the Events API returns them).
func (p *Provider) PodEvents(ctx context.Context, namespace, pod string) ([]map[string]any, error) {
	fieldSelector := fmt.Sprintf("involvedObject.name=%s,involvedObject.namespace=%s", pod, namespace)
	list, err := p.client.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{FieldSelector: fieldSelector})
	if err != nil {
		return nil, fmt.Errorf("list events for pod %s/%s: %w", namespace, pod, err)
	}
	out := make([]map[string]any, 0, len(list.Items))
	for _, e := range list.Items {
		out = append(out, map[string]any{
			"type":           e.Type,
			"reason":         e.Reason,
			"message":        e.Message,
			"count":          e.Count,
			"first_timestamp": e.FirstTimestamp.Time,
			"last_timestamp":  e.LastTimestamp.Time,
		})
	}
	return out, nil
}

// ListPods lists pods in namespace matching selector's labels.
func (p *Provider) ListPods(ctx context.Context, namespace string, selector map[string]string) ([]map[string]any, error) {
	list, err := p.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: metav1.FormatLabelSelector(&metav1.LabelSelector{MatchLabels: selector}),
	})
	if err != nil {
		return nil, fmt.Errorf("list pods in %s: %w", namespace, err)
	}
	out := make([]map[string]any, 0, len(list.Items))
	for _, pod := range list.Items {
		out = append(out, map[string]any{
			"name":  pod.Name,
			"phase": string(pod.Status.Phase),
			"ready": podReady(&pod),
		})
	}
	return out, nil
}

// OwnerChain walks the pod's ownerReferences up to the owning workload,
// one hop at a time (Pod -> ReplicaSet -> Deployment, or Pod -> Job ->
// CronJob), returning each hop encountered.
func (p *Provider) OwnerChain(ctx context.Context, namespace, pod string) ([]map[string]any, error) {
	obj, err := p.client.CoreV1().Pods(namespace).Get(ctx, pod, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get pod %s/%s: %w", namespace, pod, err)
	}
	chain := make([]map[string]any, 0, len(obj.OwnerReferences))
	for _, ref := range obj.OwnerReferences {
		chain = append(chain, map[string]any{
			"kind": ref.Kind,
			"name": ref.Name,
		})
	}
	return chain, nil
}

// WorkloadRolloutStatus reports basic rollout health for a Deployment or
// StatefulSet: desired vs. ready vs. updated replica counts.
func (p *Provider) WorkloadRolloutStatus(ctx context.Context, namespace, kind, name string) (map[string]any, error) {
	switch kind {
	case "Deployment":
		obj, err := p.client.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, fmt.Errorf("get deployment %s/%s: %w", namespace, name, err)
		}
		return map[string]any{
			"desired_replicas": derefInt32(obj.Spec.Replicas),
			"ready_replicas":   obj.Status.ReadyReplicas,
			"updated_replicas": obj.Status.UpdatedReplicas,
			"conditions":       deploymentConditions(obj.Status.Conditions),
		}, nil
	case "StatefulSet":
		obj, err := p.client.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return nil, fmt.Errorf("get statefulset %s/%s: %w", namespace, name, err)
		}
		return map[string]any{
			"desired_replicas": derefInt32(obj.Spec.Replicas),
			"ready_replicas":   obj.Status.ReadyReplicas,
			"updated_replicas": obj.Status.UpdatedReplicas,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported workload kind %q", kind)
	}
}

func timeOrNil(t metav1.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Time
}

func containerStatuses(statuses []corev1.ContainerStatus) []map[string]any {
	out := make([]map[string]any, 0, len(statuses))
	for _, s := range statuses {
		entry := map[string]any{
			"name":          s.Name,
			"ready":         s.Ready,
			"restart_count": s.RestartCount,
			"image":         s.Image,
		}
		if s.State.Waiting != nil {
			entry["waiting_reason"] = s.State.Waiting.Reason
			entry["waiting_message"] = s.State.Waiting.Message
		}
		if s.State.Terminated != nil {
			entry["terminated_reason"] = s.State.Terminated.Reason
			entry["exit_code"] = s.State.Terminated.ExitCode
		}
		if s.LastTerminationState.Terminated != nil {
			entry["last_terminated_reason"] = s.LastTerminationState.Terminated.Reason
			entry["last_exit_code"] = s.LastTerminationState.Terminated.ExitCode
		}
		out = append(out, entry)
	}
	return out
}

func podReady(pod *corev1.Pod) bool {
	for _, c := range pod.Status.Conditions {
		if c.Type == corev1.PodReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

func deploymentConditions(conditions []appsv1.DeploymentCondition) []map[string]any {
	out := make([]map[string]any, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, map[string]any{
			"type":    string(c.Type),
			"status":  string(c.Status),
			"reason":  c.Reason,
			"message": c.Message,
		})
	}
	return out
}

func derefInt32(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
