package diagnostics

import (
	"testing"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	id           string
	applies      bool
	diagnosed    []domain.Hypothesis
	panicApplies bool
	panicDiag    bool
	collected    *bool
}

func (f *fakeModule) ID() string { return f.id }
func (f *fakeModule) Applies(inv *domain.Investigation) bool {
	if f.panicApplies {
		panic("boom")
	}
	return f.applies
}
func (f *fakeModule) Collect(inv *domain.Investigation) {
	if f.collected != nil {
		*f.collected = true
	}
}
func (f *fakeModule) Diagnose(inv *domain.Investigation) []domain.Hypothesis {
	if f.panicDiag {
		panic("boom-diag")
	}
	return f.diagnosed
}

func TestRegistryApplicableSkipsPanickingModule(t *testing.T) {
	inv := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	r := NewRegistry(
		&fakeModule{id: "a", applies: true},
		&fakeModule{id: "b", panicApplies: true},
	)

	applicable := r.Applicable(inv)
	require.Len(t, applicable, 1)
	assert.Equal(t, "a", applicable[0].ID())
	assert.NotEmpty(t, inv.Errors)
}

func TestRegistryRunSortsByConfidenceThenID(t *testing.T) {
	inv := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	r := NewRegistry(
		&fakeModule{id: "low", applies: true, diagnosed: []domain.Hypothesis{{HypothesisID: "z", Confidence0To100: 10}}},
		&fakeModule{id: "high", applies: true, diagnosed: []domain.Hypothesis{{HypothesisID: "a", Confidence0To100: 90}}},
		&fakeModule{id: "tie1", applies: true, diagnosed: []domain.Hypothesis{{HypothesisID: "tie_b", Confidence0To100: 50}}},
		&fakeModule{id: "tie2", applies: true, diagnosed: []domain.Hypothesis{{HypothesisID: "tie_a", Confidence0To100: 50}}},
	)

	r.Run(inv, false, nil)
	require.Len(t, inv.Analysis.Hypotheses, 4)
	assert.Equal(t, "a", inv.Analysis.Hypotheses[0].HypothesisID)
	assert.Equal(t, "tie_a", inv.Analysis.Hypotheses[1].HypothesisID)
	assert.Equal(t, "tie_b", inv.Analysis.Hypotheses[2].HypothesisID)
	assert.Equal(t, "z", inv.Analysis.Hypotheses[3].HypothesisID)
}

func TestRegistryRunCapsAtMaxHypotheses(t *testing.T) {
	inv := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	var hyps []domain.Hypothesis
	for i := 0; i < maxHypotheses+5; i++ {
		hyps = append(hyps, domain.Hypothesis{HypothesisID: string(rune('a' + i)), Confidence0To100: 50})
	}
	r := NewRegistry(&fakeModule{id: "many", applies: true, diagnosed: hyps})

	r.Run(inv, false, nil)
	assert.Len(t, inv.Analysis.Hypotheses, maxHypotheses)
}

func TestRegistryRunRecoversFromDiagnosePanic(t *testing.T) {
	inv := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	r := NewRegistry(&fakeModule{id: "boom", applies: true, panicDiag: true})

	assert.NotPanics(t, func() { r.Run(inv, false, nil) })
	assert.Empty(t, inv.Analysis.Hypotheses)
	assert.NotEmpty(t, inv.Errors)
}

func TestRegistryRunInvokesCollectOnlyWhenRequested(t *testing.T) {
	inv := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	collected := false
	r := NewRegistry(&fakeModule{id: "a", applies: true, collected: &collected})

	r.Run(inv, false, nil)
	assert.False(t, collected)

	r.Run(inv, true, nil)
	assert.True(t, collected)
}
