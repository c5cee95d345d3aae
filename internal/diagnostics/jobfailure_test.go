package diagnostics

import (
	"testing"

	"github.com/codeready-toolchain/tarka/internal/diagnostics/patterns"
	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobInvestigation() *domain.Investigation {
	inv := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	inv.Target = domain.TargetRef{TargetType: domain.TargetWorkload, Namespace: "ns", WorkloadKind: "Job", WorkloadName: "nightly-export", Job: "nightly-export-28391"}
	return inv
}

func TestJobFailureAppliesOnWorkloadKind(t *testing.T) {
	m := NewJobFailureModule(patterns.All)
	assert.True(t, m.Applies(jobInvestigation()))

	other := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	other.Target = domain.TargetRef{TargetType: domain.TargetPod}
	assert.False(t, m.Applies(other))
}

func TestJobFailureNoLogsProducesGenericLowConfidence(t *testing.T) {
	m := NewJobFailureModule(patterns.All)
	hyps := m.Diagnose(jobInvestigation())
	require.Len(t, hyps, 1)
	assert.Equal(t, "job_failure_generic", hyps[0].HypothesisID)
	assert.Equal(t, 25, hyps[0].Confidence0To100)
}

func TestJobFailureS3AccessDeniedProposesAction(t *testing.T) {
	m := NewJobFailureModule(patterns.All)
	inv := jobInvestigation()
	inv.Evidence.Logs.ParsedErrors = []domain.ParsedLogError{
		{Message: "botocore.exceptions.ClientError: An error occurred (403) when calling the GetObject operation: Access Denied for bucket nightly-exports"},
	}

	hyps := m.Diagnose(inv)
	require.NotEmpty(t, hyps)
	require.Len(t, inv.Analysis.Actions, 1)
	assert.Equal(t, "iam_policy_attach", inv.Analysis.Actions[0].Kind)
	assert.True(t, inv.Analysis.Actions[0].RequiresApproval)
}

func TestJobFailureUnrecognizedPatternStillReturnsHypothesis(t *testing.T) {
	m := NewJobFailureModule(patterns.All)
	inv := jobInvestigation()
	inv.Evidence.Logs.ParsedErrors = []domain.ParsedLogError{{Message: "something entirely novel went wrong"}}

	hyps := m.Diagnose(inv)
	require.Len(t, hyps, 1)
	assert.Equal(t, "job_failure_generic", hyps[0].HypothesisID)
	assert.Equal(t, 35, hyps[0].Confidence0To100)
}
