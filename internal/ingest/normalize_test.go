package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestTargetFromLabelsIgnoresScrapeMetadataForPodScopedAlerts(t *testing.T) {
	a := domain.NewAlertInstance("fp1", map[string]string{
		"alertname": "KubernetesPodNotHealthy",
		"namespace": "default",
		"pod":       "my-app-7f9c-abcde",
		"job":       "kube-state-metrics",
		"service":   "prometheus-kube-state-metrics",
		"instance":  "10.0.1.5:8080",
	}, nil, "", "", "", "firing", "firing")

	target := targetFromLabels(a, "test-cluster")

	assert.Equal(t, domain.TargetPod, target.TargetType)
	assert.Equal(t, "my-app-7f9c-abcde", target.Pod)
	assert.Empty(t, target.Job, "scrape-target job label must not be copied onto a pod-scoped target")
	assert.Empty(t, target.Service, "scrape-target service label must not be copied onto a pod-scoped target")
	assert.Empty(t, target.Instance, "scrape-target instance label must not be copied onto a pod-scoped target")
}

func TestTargetFromLabelsKubeJobFailedIgnoresScrapePodAndUsesJobName(t *testing.T) {
	a := domain.NewAlertInstance("fp2", map[string]string{
		"alertname": "KubeJobFailed",
		"namespace": "default",
		"job_name":  "my-data-job",
		"job":       "kube-state-metrics",
		"service":   "prometheus-kube-state-metrics",
		"instance":  "10.0.1.5:8080",
		"pod":       "prometheus-kube-state-metrics-abc123",
	}, nil, "", "", "", "firing", "firing")

	target := targetFromLabels(a, "test-cluster")

	assert.Equal(t, domain.TargetPod, target.TargetType)
	assert.Equal(t, "Job", target.WorkloadKind)
	assert.Equal(t, "my-data-job", target.WorkloadName)
	assert.Empty(t, target.Pod, "the pod label on a KubeJobFailed alert names the scrape pod, not a Job pod")
	assert.Empty(t, target.Job)
	assert.Empty(t, target.Service)
	assert.Empty(t, target.Instance)
	assert.Equal(t, "default", target.Namespace)
}

func TestTargetFromLabelsKubeJobFailedCaseInsensitiveAlertname(t *testing.T) {
	a := domain.NewAlertInstance("fp3", map[string]string{
		"alertname": "KUBEJOBFAILED",
		"namespace": "default",
		"job_name":  "my-job",
		"pod":       "prometheus-kube-state-metrics-xyz",
	}, nil, "", "", "", "firing", "firing")

	target := targetFromLabels(a, "test-cluster")

	assert.Equal(t, "Job", target.WorkloadKind)
	assert.Equal(t, "my-job", target.WorkloadName)
	assert.Empty(t, target.Pod)
}

func TestTargetFromLabelsKubeJobFailedWithoutJobNameKeepsPodPath(t *testing.T) {
	a := domain.NewAlertInstance("fp4", map[string]string{
		"alertname": "KubeJobFailed",
		"namespace": "default",
		"pod":       "some-pod",
	}, nil, "", "", "", "firing", "firing")

	target := targetFromLabels(a, "test-cluster")

	assert.Equal(t, "some-pod", target.Pod)
	assert.NotEqual(t, "Job", target.WorkloadKind)
}

func TestTargetFromLabelsNeverInfersPodFromInstance(t *testing.T) {
	a := domain.NewAlertInstance("fp5", map[string]string{
		"alertname": "TargetDown",
		"instance":  "ip-10-0-1-5.ec2.internal:9100",
	}, nil, "", "", "", "firing", "firing")

	target := targetFromLabels(a, "test-cluster")

	assert.Empty(t, target.Pod, "pod must never be guessed from instance")
}
