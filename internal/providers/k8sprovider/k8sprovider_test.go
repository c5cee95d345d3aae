package k8sprovider

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPodInfoReturnsPhaseAndContainers(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "payments"},
		Spec:       corev1.PodSpec{NodeName: "node-1"},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: "api", Ready: true, RestartCount: 3},
			},
		},
	}
	client := fake.NewSimpleClientset(pod)
	p := NewFromClientset(client)

	info, err := p.PodInfo(context.Background(), "payments", "api-0")
	require.NoError(t, err)
	assert.Equal(t, "Running", info["phase"])
	assert.Equal(t, "node-1", info["node"])
}

func TestPodInfoPropagatesNotFound(t *testing.T) {
	client := fake.NewSimpleClientset()
	p := NewFromClientset(client)

	_, err := p.PodInfo(context.Background(), "payments", "missing")
	assert.Error(t, err)
}

func TestWorkloadRolloutStatusReadsDeployment(t *testing.T) {
	replicas := int32(3)
	dep := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "api", Namespace: "payments"},
		Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
		Status:     appsv1.DeploymentStatus{ReadyReplicas: 2, UpdatedReplicas: 3},
	}
	client := fake.NewSimpleClientset(dep)
	p := NewFromClientset(client)

	status, err := p.WorkloadRolloutStatus(context.Background(), "payments", "Deployment", "api")
	require.NoError(t, err)
	assert.Equal(t, int32(3), status["desired_replicas"])
	assert.Equal(t, int32(2), status["ready_replicas"])
}

func TestWorkloadRolloutStatusRejectsUnsupportedKind(t *testing.T) {
	client := fake.NewSimpleClientset()
	p := NewFromClientset(client)

	_, err := p.WorkloadRolloutStatus(context.Background(), "payments", "CronJob", "nightly")
	assert.Error(t, err)
}
