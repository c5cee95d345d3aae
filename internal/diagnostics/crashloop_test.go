package diagnostics

import (
	"testing"

	"github.com/codeready-toolchain/tarka/internal/diagnostics/patterns"
	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crashloopInvestigation() *domain.Investigation {
	inv := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	inv.Meta.Family = "crashloop"
	inv.Target = domain.TargetRef{TargetType: domain.TargetPod, Namespace: "ns", Pod: "p1"}
	return inv
}

func TestCrashLoopAppliesOnFamilyOrWaitingReason(t *testing.T) {
	m := NewCrashLoopModule(patterns.All)

	inv := crashloopInvestigation()
	assert.True(t, m.Applies(inv))

	inv2 := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	inv2.Analysis.Features.K8s.WaitingReason = "CrashLoopBackOff"
	assert.True(t, m.Applies(inv2))

	inv3 := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	assert.False(t, m.Applies(inv3))
}

func TestCrashLoopExitCodeOOMTakesPriority(t *testing.T) {
	m := NewCrashLoopModule(patterns.All)
	inv := crashloopInvestigation()
	inv.Analysis.Features.K8s.OOMKilled = true
	inv.Evidence.Logs.ParsedErrors = []domain.ParsedLogError{{Message: "Connection refused to db-host"}}

	hyps := m.Diagnose(inv)
	require.Len(t, hyps, 1)
	assert.Equal(t, "crashloop_oom", hyps[0].HypothesisID)
	assert.Equal(t, 90, hyps[0].Confidence0To100)
}

func TestCrashLoopProbeFailureBeforeLogPatterns(t *testing.T) {
	m := NewCrashLoopModule(patterns.All)
	inv := crashloopInvestigation()
	inv.Meta.ProbeFailureType = "liveness"
	inv.Evidence.Logs.ParsedErrors = []domain.ParsedLogError{{Message: "Connection refused"}}

	hyps := m.Diagnose(inv)
	require.Len(t, hyps, 1)
	assert.Equal(t, "crashloop_liveness_probe", hyps[0].HypothesisID)
}

func TestCrashLoopMatchesLogPattern(t *testing.T) {
	m := NewCrashLoopModule(patterns.All)
	inv := crashloopInvestigation()
	inv.Evidence.Logs.ParsedErrors = []domain.ParsedLogError{
		{Message: "panic: dial tcp 10.0.0.5:5432: connect: connection refused"},
	}

	hyps := m.Diagnose(inv)
	require.NotEmpty(t, hyps)
	found := false
	for _, h := range hyps {
		if h.HypothesisID == "crashloop_dependency_connection" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCrashLoopFallsBackToGeneric(t *testing.T) {
	m := NewCrashLoopModule(patterns.All)
	inv := crashloopInvestigation()
	restarts := 4
	inv.Analysis.Features.K8s.RestartCount = &restarts

	hyps := m.Diagnose(inv)
	require.Len(t, hyps, 1)
	assert.Equal(t, "crashloop_generic", hyps[0].HypothesisID)
	assert.Equal(t, 30, hyps[0].Confidence0To100)
}
