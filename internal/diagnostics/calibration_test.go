package diagnostics

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinder struct {
	cases []ResolvedCase
	err   error
}

func (f fakeFinder) FindSimilarResolved(ctx context.Context, inv *domain.Investigation, limit int) ([]ResolvedCase, error) {
	return f.cases, f.err
}

func TestMemoryCalibratorNoOpBelowMinCases(t *testing.T) {
	c := MemoryCalibrator{Finder: fakeFinder{cases: []ResolvedCase{{ResolutionCategory: "capacity"}}}}
	hyps := []domain.Hypothesis{{HypothesisID: "crashloop_oom", Confidence0To100: 50}}

	c.Calibrate(domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{}), hyps)
	assert.Equal(t, 50, hyps[0].Confidence0To100)
}

func TestMemoryCalibratorBoostsDominantCategory(t *testing.T) {
	cases := []ResolvedCase{
		{ResolutionCategory: "capacity"}, {ResolutionCategory: "capacity"}, {ResolutionCategory: "capacity"},
		{ResolutionCategory: "unknown"}, {ResolutionCategory: "unknown"},
	}
	c := MemoryCalibrator{Finder: fakeFinder{cases: cases}}
	hyps := []domain.Hypothesis{{HypothesisID: "crashloop_oom", Confidence0To100: 50}}

	c.Calibrate(domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{}), hyps)
	assert.Equal(t, 60, hyps[0].Confidence0To100)
	require.NotEmpty(t, hyps[0].Why)
	assert.Contains(t, hyps[0].SupportingRefs, "memory.similar_cases")
}

func TestMemoryCalibratorBigBoostAboveThreshold(t *testing.T) {
	cases := make([]ResolvedCase, 0, 10)
	for i := 0; i < 9; i++ {
		cases = append(cases, ResolvedCase{ResolutionCategory: "capacity"})
	}
	cases = append(cases, ResolvedCase{ResolutionCategory: "unknown"})
	c := MemoryCalibrator{Finder: fakeFinder{cases: cases}}
	hyps := []domain.Hypothesis{{HypothesisID: "crashloop_oom", Confidence0To100: 50}}

	c.Calibrate(domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{}), hyps)
	assert.Equal(t, 70, hyps[0].Confidence0To100)
}

func TestMemoryCalibratorNeverLowersConfidence(t *testing.T) {
	c := MemoryCalibrator{Finder: fakeFinder{cases: nil}}
	hyps := []domain.Hypothesis{{HypothesisID: "crashloop_oom", Confidence0To100: 50}}
	c.Calibrate(domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{}), hyps)
	assert.Equal(t, 50, hyps[0].Confidence0To100)
}
