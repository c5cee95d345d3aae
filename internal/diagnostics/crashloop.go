package diagnostics

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// CrashLoopModule diagnoses pods stuck in CrashLoopBackOff through four
// layers, checked in order of specificity: the exit-code/terminated-reason
// signal, probe-failure events, log-pattern matches, and finally a generic
// fallback hypothesis so a crashlooping pod is never left unexplained.
type CrashLoopModule struct {
	Matcher LogPatternMatcher
}

// NewCrashLoopModule builds a CrashLoopModule backed by the given log
// pattern library (typically patterns.All).
func NewCrashLoopModule(library []LogPattern) *CrashLoopModule {
	return &CrashLoopModule{Matcher: LogPatternMatcher{Patterns: library}}
}

// ID implements Module.
func (m *CrashLoopModule) ID() string { return "crashloop" }

// Applies implements Module: fires for the crashloop family, or any pod
// whose top waiting reason is CrashLoopBackOff.
func (m *CrashLoopModule) Applies(inv *domain.Investigation) bool {
	if inv.Meta.Family == "crashloop" {
		return true
	}
	k8s := inv.Analysis.Features.K8s
	if k8s.WaitingReason == "CrashLoopBackOff" {
		return true
	}
	for _, r := range k8s.ContainerWaitingReasonsTop {
		if strings.Contains(r, "CrashLoopBackOff") {
			return true
		}
	}
	return false
}

// Collect implements Module. This module relies entirely on features and
// evidence already gathered by earlier stages; it gathers nothing further.
func (m *CrashLoopModule) Collect(inv *domain.Investigation) {}

// Diagnose implements Module.
func (m *CrashLoopModule) Diagnose(inv *domain.Investigation) []domain.Hypothesis {
	k8s := inv.Analysis.Features.K8s

	if h, ok := m.exitCodeHypothesis(inv, k8s); ok {
		return []domain.Hypothesis{h}
	}
	if h, ok := m.probeFailureHypothesis(inv); ok {
		return []domain.Hypothesis{h}
	}
	if hyps := m.logPatternHypotheses(inv); len(hyps) > 0 {
		return hyps
	}
	return []domain.Hypothesis{m.genericHypothesis(inv, k8s)}
}

func (m *CrashLoopModule) exitCodeHypothesis(inv *domain.Investigation, k8s domain.FeaturesK8s) (domain.Hypothesis, bool) {
	if k8s.OOMKilled {
		return domain.Hypothesis{
			HypothesisID:     "crashloop_oom",
			Title:            "Container killed by OOM killer (memory limit exceeded)",
			Confidence0To100: 90,
			Why: []string{
				fmt.Sprintf("Container %s/%s last terminated with OOMKilled.", inv.Target.Namespace, inv.Target.Pod),
			},
			SupportingRefs:  []string{"k8s.container_last_terminated_top"},
			NextTests:       []string{"Compare memory usage p95 against the container's configured memory limit."},
			ProposedActions: []string{"Raise the container's memory limit, or investigate a memory leak if usage has been trending up over recent deploys."},
		}, true
	}
	for _, reason := range k8s.ContainerLastTerminatedTop {
		if strings.Contains(reason, "Error") && !strings.Contains(reason, "OOM") {
			return domain.Hypothesis{
				HypothesisID:     "crashloop_nonzero_exit",
				Title:            "Application exits with a non-zero error code on startup",
				Confidence0To100: 60,
				Why:              []string{fmt.Sprintf("Last terminated reason: %s.", reason)},
				SupportingRefs:   []string{"k8s.container_last_terminated_top"},
				NextTests:        []string{"Check application logs immediately preceding the last termination for an unhandled exception or fatal error."},
			}, true
		}
	}
	return domain.Hypothesis{}, false
}

func (m *CrashLoopModule) probeFailureHypothesis(inv *domain.Investigation) (domain.Hypothesis, bool) {
	switch inv.Meta.ProbeFailureType {
	case "liveness":
		return domain.Hypothesis{
			HypothesisID:     "crashloop_liveness_probe",
			Title:            "Liveness probe failures are restarting an otherwise-healthy container",
			Confidence0To100: 70,
			Why:              []string{"Warning events indicate the liveness probe is failing, triggering container restarts."},
			SupportingRefs:   []string{"k8s.recent_event_reasons_top"},
			NextTests:        []string{"Check whether the probe's initialDelaySeconds/timeoutSeconds fit the application's actual startup and response time."},
			ProposedActions:  []string{"Loosen the liveness probe's timeout or initial delay if the application is simply slow to respond under load."},
		}, true
	case "readiness":
		return domain.Hypothesis{
			HypothesisID:     "crashloop_readiness_probe",
			Title:            "Readiness probe failures are keeping the container out of service without restarting it",
			Confidence0To100: 55,
			Why:              []string{"Warning events indicate the readiness probe is failing."},
			SupportingRefs:   []string{"k8s.recent_event_reasons_top"},
			NextTests:        []string{"Check the readiness endpoint's dependencies (database, cache) for availability."},
		}, true
	}
	return domain.Hypothesis{}, false
}

func (m *CrashLoopModule) logPatternHypotheses(inv *domain.Investigation) []domain.Hypothesis {
	messages := parsedErrorMessages(inv)
	if len(messages) == 0 {
		return nil
	}
	matches := m.Matcher.FindMatches(messages)
	hyps := make([]domain.Hypothesis, 0, len(matches))
	for _, mt := range matches {
		hyps = append(hyps, hypothesisFromMatch(mt))
	}
	return hyps
}

func (m *CrashLoopModule) genericHypothesis(inv *domain.Investigation, k8s domain.FeaturesK8s) domain.Hypothesis {
	restarts := 0
	if k8s.RestartCount != nil {
		restarts = *k8s.RestartCount
	}
	return domain.Hypothesis{
		HypothesisID:     "crashloop_generic",
		Title:            "Container is crash-looping; specific cause not yet determined from available evidence",
		Confidence0To100: 30,
		Why:              []string{fmt.Sprintf("Pod has restarted %d time(s) with no OOM signal, probe-failure event, or recognized log pattern.", restarts)},
		NextTests:        []string{"Pull the container's stdout/stderr from just before the last restart and inspect manually."},
	}
}

func hypothesisFromMatch(mt Match) domain.Hypothesis {
	why := mt.Pattern.Render(mt.Pattern.WhyTemplate, mt.Context)
	h := domain.Hypothesis{
		HypothesisID:     mt.Pattern.PatternID,
		Title:            mt.Pattern.Title,
		Confidence0To100: mt.Pattern.Confidence,
		Why:              []string{why},
		SupportingRefs:   []string{"logs.parsed_errors"},
	}
	for _, t := range mt.Pattern.NextTests {
		h.NextTests = append(h.NextTests, mt.Pattern.Render(t, mt.Context))
	}
	for _, r := range mt.Pattern.RemediationSteps {
		h.ProposedActions = append(h.ProposedActions, mt.Pattern.Render(r, mt.Context))
	}
	return h
}

func parsedErrorMessages(inv *domain.Investigation) []string {
	errs := inv.Evidence.Logs.ParsedErrors
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}
