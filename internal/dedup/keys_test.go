package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestFingerprintKeyIsStableForIdenticalAlerts(t *testing.T) {
	now := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)
	labels := map[string]string{"alertname": "KubePodCrashLooping", "namespace": "payments"}
	a1 := domain.NewAlertInstance("fp1", labels, nil, "2026-07-29T09:55:00Z", "", "", "firing", "firing")
	a2 := domain.NewAlertInstance("fp1", labels, nil, "2026-07-29T09:56:00Z", "", "", "firing", "firing")

	k1 := FingerprintKey(a1, now)
	k2 := FingerprintKey(a2, now)

	assert.Equal(t, k1, k2)
	assert.Equal(t, "KubePodCrashLooping", k1.AlertName)
}

func TestFingerprintKeyDiffersOnDifferentFingerprint(t *testing.T) {
	now := time.Now()
	labels := map[string]string{"alertname": "KubePodCrashLooping"}
	a1 := domain.NewAlertInstance("fp1", labels, nil, "", "", "", "firing", "firing")
	a2 := domain.NewAlertInstance("fp2", labels, nil, "", "", "", "firing", "firing")

	require.NotEqual(t, FingerprintKey(a1, now), FingerprintKey(a2, now))
}

func TestRolloutWorkloadKeyCollapsesDifferentPods(t *testing.T) {
	labels := map[string]string{"alertname": "KubernetesPodNotHealthy"}
	a1 := domain.NewAlertInstance("fp1", labels, nil, "", "", "", "firing", "firing")
	a2 := domain.NewAlertInstance("fp2", labels, nil, "", "", "", "firing", "firing")

	target := domain.TargetRef{
		TargetType:   domain.TargetPod,
		Cluster:      "prod",
		Namespace:    "payments",
		WorkloadKind: "Deployment",
		WorkloadName: "checkout",
	}

	k1, ok1 := RolloutWorkloadKey(a1, target)
	k2, ok2 := RolloutWorkloadKey(a2, target)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, k1, k2)
}

func TestRolloutWorkloadKeyNotInClosedSet(t *testing.T) {
	labels := map[string]string{"alertname": "SomeUnrelatedAlert"}
	a := domain.NewAlertInstance("fp1", labels, nil, "", "", "", "firing", "firing")

	_, ok := RolloutWorkloadKey(a, domain.TargetRef{})
	assert.False(t, ok)
}

func TestRolloutWorkloadKeyIncludesContainerOnlyForOOM(t *testing.T) {
	labels := map[string]string{"alertname": "KubernetesContainerOomKiller"}
	a := domain.NewAlertInstance("fp1", labels, nil, "", "", "", "firing", "firing")

	target := domain.TargetRef{Cluster: "prod", Namespace: "ns", WorkloadKind: "Deployment", WorkloadName: "api"}
	kA, _ := RolloutWorkloadKey(a, target)

	target.Container = "sidecar"
	kB, _ := RolloutWorkloadKey(a, target)

	assert.NotEqual(t, kA, kB)
}
