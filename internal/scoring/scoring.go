// Package scoring implements deterministic feature-to-score scoring:
// starting from zero, adding fixed, explainable deltas per signal, and
// clamping to 0..100 on each of the impact/confidence/noise axes. Every
// delta is recorded in a breakdown so the score is always traceable back
// to the feature that produced it.
package scoring

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

type accumulator struct {
	breakdown []domain.ScoreBreakdownItem
	reasons   []string
}

func (a *accumulator) add(axis, code string, delta int, featureRef, why string) int {
	if delta == 0 {
		return 0
	}
	a.breakdown = append(a.breakdown, domain.ScoreBreakdownItem{
		Code: code, Axis: axis, Delta: float64(delta), FeatureRef: featureRef, Why: why,
	})
	if !containsStr(a.reasons, code) {
		a.reasons = append(a.reasons, code)
	}
	return delta
}

func (a *accumulator) addReason(code string) {
	if !containsStr(a.reasons, code) {
		a.reasons = append(a.reasons, code)
	}
}

func clamp0to100(v int) int {
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

// scoreFunc is the per-family scoring signature, mirroring the Python
// module's score_<family>(investigation, features) functions.
type scoreFunc func(inv *domain.Investigation) (domain.DeterministicScores, domain.DeterministicVerdict)

var familyScorers = map[string]scoreFunc{
	"crashloop":               scoreCrashloop,
	"pod_not_healthy":         scorePodNotHealthy,
	"cpu_throttling":          scoreCPUThrottling,
	"http_5xx":                scoreHTTP5xx,
	"oom_killed":              scoreOOMKilled,
	"memory_pressure":         scoreMemoryPressure,
	"meta":                    scoreMeta,
	"target_down":             scoreTargetDown,
	"k8s_rollout_health":      scoreK8sRolloutHealth,
	"observability_pipeline":  scoreObservabilityPipeline,
	"job_failed":              scoreJobFailed,
}

// ScoreInvestigation dispatches to the scorer registered for the
// investigation's detected family, falling back to a neutral
// "unsupported family" verdict when none is registered, then applies the
// cross-cutting postprocessing every family shares.
func ScoreInvestigation(inv *domain.Investigation) {
	fn, ok := familyScorers[inv.Meta.Family]
	if !ok {
		scores := domain.DeterministicScores{ReasonCodes: []string{"UNSUPPORTED_FAMILY"}}
		verdict := domain.DeterministicVerdict{
			Classification: domain.ClassInformational,
			PrimaryDriver:  "generic",
			OneLiner:       "No deterministic scoring profile exists for this alert family yet.",
			NextSteps:      []string{"Add a scoring profile for this alert family."},
		}
		inv.Analysis.Scores, inv.Analysis.Verdict = postprocessVerdict(inv, scores, verdict)
		return
	}
	scores, verdict := fn(inv)
	inv.Analysis.Scores, inv.Analysis.Verdict = postprocessVerdict(inv, scores, verdict)
}

// classify applies the shared classification state machine: artifact if
// confidence is too low to trust, noisy if the noise score dominates,
// actionable only when all three axes clear their bars, informational
// otherwise.
func classify(impact, confidence, noise int) domain.Classification {
	switch {
	case confidence < 40:
		return domain.ClassArtifact
	case noise >= 70:
		return domain.ClassNoisy
	case impact >= 60 && confidence >= 60 && noise <= 60:
		return domain.ClassActionable
	default:
		return domain.ClassInformational
	}
}

// classifyCPUThrottling applies cpu_throttling's own classification gates
// instead of the generic classify(): the family's artifact threshold is
// confidence<30 (not the shared <40) plus the extra condition that a
// not-reproduced throttling series (p95<=1.0, already penalized into
// confidence via THROTTLING_NOT_REPRODUCED) always forces artifact
// regardless of where confidence otherwise landed; and actionable requires
// the extra gate that the container is actually near its CPU limit, since
// high throttling with headroom to spare is rarely worth paging on.
func classifyCPUThrottling(impact, confidence, noise int, cpuNearLimit, notReproduced bool) domain.Classification {
	switch {
	case confidence < 30 || notReproduced:
		return domain.ClassArtifact
	case noise >= 70:
		return domain.ClassNoisy
	case impact >= 60 && confidence >= 60 && noise <= 60 && cpuNearLimit:
		return domain.ClassActionable
	default:
		return domain.ClassInformational
	}
}

// recoveredReasonCodes are reason codes implying the underlying symptom is
// no longer present (a contradiction pattern), distinguishing a
// "recovered/stale" artifact from a merely "low confidence" one.
var recoveredReasonCodes = map[string]bool{
	domain.ContradictionCrashloopReadyNoRestarts: true,
	domain.ContradictionTargetDownUpNone:         true,
	"ROLLOUT_CONTRADICTION_NO_FIRING":            true,
	"ROLLOUT_CONTRADICTION_HEALTHY_STATUS":       true,
}

// postprocessVerdict applies cross-cutting tweaks every family shares:
// splitting the artifact classification into recovered-vs-low-confidence,
// tipping off on-call about chronic noisy-but-informational alerts, and
// deriving severity from the three axes with a confidence/noise guardrail
// against over-claiming "critical".
func postprocessVerdict(inv *domain.Investigation, scores domain.DeterministicScores, verdict domain.DeterministicVerdict) (domain.DeterministicScores, domain.DeterministicVerdict) {
	acc := accumulator{reasons: scores.ReasonCodes}

	if verdict.Classification == domain.ClassArtifact {
		if containsStr(scores.ReasonCodes, "OOM_CORROBORATION_MISSING") {
			verdict.OneLiner = "OOM alert fired (derived from metrics), but the agent could not retrieve corroborating K8s evidence for the container/pod in this window (missing K8s context or stale window)."
			acc.addReason("ARTIFACT_LOW_CONFIDENCE")
		} else if anyReasonCode(scores.ReasonCodes, recoveredReasonCodes) {
			acc.addReason("ARTIFACT_RECOVERED")
			if !strings.HasPrefix(strings.ToLower(verdict.OneLiner), "recovered") {
				verdict.OneLiner = "Recovered/stale signal: " + verdict.OneLiner
			}
		} else {
			acc.addReason("ARTIFACT_LOW_CONFIDENCE")
			if !strings.HasPrefix(strings.ToLower(verdict.OneLiner), "low-confidence") {
				verdict.OneLiner = "Low-confidence attribution: " + verdict.OneLiner
			}
		}
		scores.ReasonCodes = acc.reasons
	}

	if inv.Analysis.Features.Quality.IsLongRunning && verdict.Classification == domain.ClassInformational {
		tip := "Alert is long-running and informational; consider adjusting threshold/window or adding an impact condition (e.g., require CPU near limit or correlate with errors/latency) to reduce chronic noise."
		if !containsStr(verdict.NextSteps, tip) {
			verdict.NextSteps = append(verdict.NextSteps, tip)
		}
	}

	sev := domain.SeverityInfo
	if verdict.Classification == domain.ClassActionable {
		sev = domain.SeverityWarning
		if scores.Confidence >= 70 && scores.Noise <= 40 && scores.Impact >= 85 {
			sev = domain.SeverityCritical
		}
		if scores.Confidence < 60 || scores.Noise > 60 {
			sev = domain.SeverityWarning
		}
	}
	verdict.Severity = sev

	return scores, verdict
}

func anyReasonCode(codes []string, set map[string]bool) bool {
	for _, c := range codes {
		if set[c] {
			return true
		}
	}
	return false
}

func fnum(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
