package diagnostics

import (
	"fmt"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// rolloutCorrelationThreshold mirrors the threshold used to derive
// FeaturesChanges.RolloutWithinWindow in internal/features/changes.go; a
// module reasoning about rollouts should use the same cutoff the feature
// layer already used to set that flag.
const rolloutCorrelationThreshold = 0.5

// RolloutModule supplements the universal diagnostic set with a dedicated
// rollout/deployment-regression check: when a workload changed within (or
// shortly before) the incident window, that is frequently the root cause
// and deserves its own explicit, high-confidence hypothesis rather than
// being folded into the generic crashloop fallback.
type RolloutModule struct{}

// NewRolloutModule builds a RolloutModule.
func NewRolloutModule() *RolloutModule { return &RolloutModule{} }

// ID implements Module.
func (m *RolloutModule) ID() string { return "rollout_health" }

// Applies implements Module: fires whenever change correlation produced a
// timeline, regardless of alert family, since a recent rollout can explain
// almost any failure mode.
func (m *RolloutModule) Applies(inv *domain.Investigation) bool {
	return len(inv.Analysis.Change.Timeline) > 0
}

// Collect implements Module. Change correlation already ran as its own
// pipeline stage; this module only interprets its output.
func (m *RolloutModule) Collect(inv *domain.Investigation) {}

// Diagnose implements Module.
func (m *RolloutModule) Diagnose(inv *domain.Investigation) []domain.Hypothesis {
	cc := inv.Analysis.Change
	workload := inv.Target.WorkloadName
	if workload == "" {
		workload = "the owning workload"
	}

	if cc.Score >= rolloutCorrelationThreshold {
		return []domain.Hypothesis{{
			HypothesisID:     "rollout_blocked_or_regression",
			Title:            fmt.Sprintf("Recent rollout of %s correlates with the incident window", workload),
			Confidence0To100: rolloutConfidence(cc.Score),
			Why: []string{
				fmt.Sprintf("Change correlation score %.2f: %s", cc.Score, cc.Summary),
			},
			SupportingRefs: []string{"change.timeline", "change.score"},
			NextTests: []string{
				fmt.Sprintf("Diff the current and previous revision's pod template for %s (image tag, env vars, resource limits).", workload),
				"Check rollout status conditions for Progressing=False or a stalled ReplicaSet.",
			},
			ProposedActions: []string{
				fmt.Sprintf("Consider rolling back %s to its previous revision if the regression is confirmed.", workload),
			},
		}}
	}

	return []domain.Hypothesis{{
		HypothesisID:     "rollout_unlikely_cause",
		Title:            fmt.Sprintf("A change to %s occurred but does not correlate with the incident window", workload),
		Confidence0To100: 15,
		Why:              []string{fmt.Sprintf("Change correlation score %.2f is below the correlation threshold: %s", cc.Score, cc.Summary)},
		SupportingRefs:   []string{"change.timeline", "change.score"},
	}}
}

func rolloutConfidence(score float64) int {
	c := int(score * 100)
	if c < 0 {
		c = 0
	}
	if c > 95 {
		c = 95
	}
	return c
}
