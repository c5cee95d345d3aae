package triage

import (
	"strings"
	"testing"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/family"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInv(alertname string) *domain.Investigation {
	alert := domain.NewAlertInstance("fp", map[string]string{"alertname": alertname}, nil, "", "", "", "firing", "firing")
	return domain.NewInvestigation(alert, domain.TimeWindow{Window: "15m"})
}

func TestBaseDecisionFlagsMissingTargetIdentity(t *testing.T) {
	inv := newInv("KubePodCrashLooping")
	d := BaseDecision(inv)
	assert.Contains(t, d.Discriminators, discBlockedNoTargetIdentity)
	assert.Contains(t, d.Label, "blocked_no_target_identity")
}

func TestBaseDecisionScopeBucketing(t *testing.T) {
	inv := newInv("KubePodCrashLooping")
	inv.Target = domain.TargetRef{TargetType: domain.TargetPod, Namespace: "payments", Pod: "api-0"}
	firing := 12
	inv.Analysis.Noise.Prometheus = domain.PrometheusScope{Status: "ok", FiringInstances: &firing}
	d := BaseDecision(inv)
	assert.Contains(t, d.Label, "Multi")
}

func TestBaseDecisionFlagsJobPodsNotFoundWithTTLHint(t *testing.T) {
	inv := newInv("KubeJobFailed")
	inv.Target = domain.TargetRef{TargetType: domain.TargetPod, Namespace: "batch", WorkloadKind: "Job", WorkloadName: "nightly-export"}
	inv.Meta.BlockedMode = "job_pods_not_found"

	d := BaseDecision(inv)
	assert.Contains(t, d.Discriminators, discBlockedJobPodsNotFound)
	assert.Contains(t, d.Label, "blocked_job_pods_not_found")

	next := strings.Join(d.Next, "\n")
	assert.Contains(t, next, "kubectl -n batch describe job nightly-export")
	assert.Contains(t, next, "ttlSecondsAfterFinished")
}

func TestBaseDecisionFlagsPrometheusUnavailable(t *testing.T) {
	inv := newInv("KubePodCrashLooping")
	inv.Target = domain.TargetRef{TargetType: domain.TargetPod, Namespace: "payments", Pod: "api-0"}
	inv.Analysis.Noise.Prometheus = domain.PrometheusScope{Status: "unavailable"}
	d := BaseDecision(inv)
	assert.Contains(t, d.Discriminators, discBlockedPromUnavailable)
}

func TestFamilyEnrichmentReturnsNilForGeneric(t *testing.T) {
	inv := newInv("SomeCustomAlert")
	family.Set(inv, family.Generic, "default")
	assert.Nil(t, FamilyEnrichment(inv))
}

func TestFamilyEnrichmentMeta(t *testing.T) {
	inv := newInv("InfoInhibitor")
	family.Set(inv, family.Meta, "alertname")
	d := FamilyEnrichment(inv)
	require.NotNil(t, d)
	assert.Equal(t, "expected_inhibitor", d.Label)
}

func TestFamilyEnrichmentCrashloopUsesWaitingReason(t *testing.T) {
	inv := newInv("KubePodCrashLooping")
	inv.Target = domain.TargetRef{TargetType: domain.TargetPod, Namespace: "payments", Pod: "api-0", Container: "api"}
	family.Set(inv, family.Crashloop, "alertname")
	inv.Analysis.Features.K8s.WaitingReason = "CrashLoopBackOff"
	d := FamilyEnrichment(inv)
	require.NotNil(t, d)
	assert.Equal(t, "confirmed_crashloop", d.Label)
	assert.Contains(t, d.Next, "kubectl -n payments logs api-0 --previous")
}

func TestFamilyEnrichmentTargetDownPrefersInstanceLabel(t *testing.T) {
	inv := newInv("TargetDown")
	inv.Alert.Labels["instance"] = "10.0.0.5:9100"
	inv.Alert.Labels["job"] = "node-exporter"
	family.Set(inv, family.TargetDown, "alertname")
	d := FamilyEnrichment(inv)
	require.NotNil(t, d)
	assert.Equal(t, "suspected_single_endpoint_down", d.Label)
}
