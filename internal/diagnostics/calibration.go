package diagnostics

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// ResolvedCase is one historically resolved investigation used for
// confidence calibration: just enough to bucket it into a resolution
// category.
type ResolvedCase struct {
	ResolutionCategory string
}

// SimilarCaseFinder is the seam onto whatever historical-case store feeds
// calibration (the case index, or a richer similarity search on top of
// it). Finding no similar cases, or finding too few, is not an error.
type SimilarCaseFinder interface {
	FindSimilarResolved(ctx context.Context, inv *domain.Investigation, limit int) ([]ResolvedCase, error)
}

// Calibrator adjusts hypothesis confidence using historical outcomes.
type Calibrator interface {
	Calibrate(inv *domain.Investigation, hyps []domain.Hypothesis)
}

// hypothesisCategory maps universal-diagnostic hypothesis IDs to the coarse
// resolution categories tracked by historical case outcomes.
var hypothesisCategory = map[string]string{
	"crashloop_oom":                   "capacity",
	"crashloop_generic":               "unknown",
	"rollout_blocked_or_regression":   "k8s_rollout",
	"image_pull_failure":              "config",
	"job_failure_generic":             "unknown",
}

const (
	minSimilarCases   = 3
	boostThreshold    = 0.6
	bigBoostThreshold = 0.8
	smallBoost        = 10
	bigBoost          = 20
	similarCaseLimit  = 20
)

// MemoryCalibrator is the optional confidence-calibration hook: given
// enough similar historically-resolved cases dominated by one resolution
// category, it boosts (never lowers) matching hypotheses' confidence and
// appends an explicit why-bullet citing the evidence. It is a no-op when
// finder is nil or returns too few similar cases.
type MemoryCalibrator struct {
	Finder SimilarCaseFinder
}

// Calibrate implements Calibrator.
func (c MemoryCalibrator) Calibrate(inv *domain.Investigation, hyps []domain.Hypothesis) {
	if c.Finder == nil || len(hyps) == 0 {
		return
	}
	cases, err := c.Finder.FindSimilarResolved(context.Background(), inv, similarCaseLimit)
	if err != nil || len(cases) == 0 {
		return
	}

	counts := map[string]int{}
	total := 0
	for _, rc := range cases {
		cat := strings.ToLower(strings.TrimSpace(rc.ResolutionCategory))
		if cat == "" {
			continue
		}
		counts[cat]++
		total++
	}
	if total < minSimilarCases {
		return
	}

	for i := range hyps {
		cat, ok := hypothesisCategory[hyps[i].HypothesisID]
		if !ok {
			continue
		}
		n := counts[strings.ToLower(cat)]
		frac := float64(n) / float64(total)
		if n < 2 || frac < boostThreshold {
			continue
		}
		bump := smallBoost
		if frac >= bigBoostThreshold {
			bump = bigBoost
		}
		hyps[i].Confidence0To100 = clampConfidence(hyps[i].Confidence0To100 + bump)
		note := fmt.Sprintf("Memory: %d/%d similar resolved cases were categorized as `%s`.", n, total, cat)
		if !containsStr(hyps[i].Why, note) {
			hyps[i].Why = append(hyps[i].Why, note)
		}
		if !containsStr(hyps[i].SupportingRefs, "memory.similar_cases") {
			hyps[i].SupportingRefs = append(hyps[i].SupportingRefs, "memory.similar_cases")
		}
	}
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func containsStr(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
