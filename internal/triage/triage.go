// Package triage builds the base triage Decision (§4.5) and the
// family-specific enrichment Decision (§4.3 stage 11), both additive,
// deterministic, on-call-facing summaries grounded on the same evidence
// scoring consumes. Triage never replaces the family scoring verdict; it
// exists so a human reading the report gets a plain-language orientation
// before the numbers.
package triage

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/family"
)

// Discriminators, in the fixed priority order §4.5 specifies. Earlier
// entries take precedence when more than one condition holds.
const (
	discBlockedPromUnavailable  = "blocked_prometheus_unavailable"
	discBlockedNoTargetIdentity = "blocked_no_target_identity"
	discBlockedNoK8sContext     = "blocked_no_k8s_context"
	discBlockedJobPodsNotFound  = "blocked_job_pods_not_found"
	discLogsMissing             = "logs_missing"
	discBlockedNoScopeNoIdentity = "blocked_no_scope_no_identity"
)

// scopeBucket buckets the Prometheus firing-instance count into the fixed
// bins §4.5 names.
func scopeBucket(firing *int) string {
	if firing == nil {
		return "Scope=unknown"
	}
	n := *firing
	switch {
	case n <= 1:
		return "Single-instance"
	case n <= 5:
		return "Small"
	case n <= 20:
		return "Multi"
	case n <= 49:
		return "Broad"
	case n <= 100:
		return "Widespread"
	default:
		return "Massive"
	}
}

func impactBucket(n *domain.NoiseInsights) string {
	// Base triage has no scores yet (scoring runs after triage), so impact
	// here is a coarse evidence-presence heuristic, not the scored axis.
	if n.FlapScore >= 70 {
		return "l"
	}
	return "unknown"
}

// discriminators computes the fixed-priority-order discriminator list for
// an investigation's current evidence state.
func discriminators(inv *domain.Investigation) []string {
	var ds []string

	promBlocked := inv.Analysis.Noise.Prometheus.Status != "" && inv.Analysis.Noise.Prometheus.Status != "ok"
	if promBlocked {
		ds = append(ds, discBlockedPromUnavailable)
	}

	noIdentity := !inv.Target.HasIdentity()
	if noIdentity {
		ds = append(ds, discBlockedNoTargetIdentity)
	}

	noK8sContext := inv.Target.TargetType == domain.TargetPod && len(inv.Evidence.K8s.PodInfo) == 0
	if noK8sContext {
		ds = append(ds, discBlockedNoK8sContext)
	}

	if inv.Meta.BlockedMode == "job_pods_not_found" {
		ds = append(ds, discBlockedJobPodsNotFound)
	}

	logsAttempted := inv.Evidence.Logs.Status != "" || inv.Evidence.Logs.Backend != "" || inv.Evidence.Logs.Query != ""
	if logsAttempted && (inv.Evidence.Logs.Status == "empty" || inv.Evidence.Logs.Status == "unavailable") {
		ds = append(ds, discLogsMissing)
	}

	if noIdentity && inv.Analysis.Noise.Prometheus.FiringInstances == nil {
		ds = append(ds, discBlockedNoScopeNoIdentity)
	}

	return ds
}

// nextStepsForDiscriminator returns the scenario-driven diagnostic steps
// for one discriminator, PromQL first with a kubectl fallback.
func nextStepsForDiscriminator(d string, inv *domain.Investigation) []string {
	switch d {
	case discBlockedPromUnavailable:
		return []string{"Verify Prometheus/VictoriaMetrics query endpoint connectivity before trusting scope numbers."}
	case discBlockedNoTargetIdentity:
		alertname := ""
		if inv.Alert != nil {
			alertname = inv.Alert.AlertName()
		}
		return []string{
			fmt.Sprintf(`topk(10, count by (namespace, pod) (ALERTS{alertname=%q}))`, alertname),
			"Identify the affected namespace/pod from the alert's raw labels or Alertmanager UI before re-running evidence collection.",
		}
	case discBlockedNoK8sContext:
		return []string{
			fmt.Sprintf("kubectl -n %s describe pod %s", inv.Target.Namespace, inv.Target.Pod),
			"K8s API call failed or returned nothing; confirm the pod still exists and the investigator has RBAC to read it.",
		}
	case discBlockedJobPodsNotFound:
		return []string{
			fmt.Sprintf("kubectl -n %s describe job %s", inv.Target.Namespace, inv.Target.WorkloadName),
			"Job pods were TTL-deleted before collection; check kubectl get events --field-selector involvedObject.name=<job> or the Job's owning CronJob history.",
			"Check the Job's spec.ttlSecondsAfterFinished; a short TTL can delete completed pods before an investigation ever runs.",
		}
	case discLogsMissing:
		return []string{"Confirm the logs backend query selector matches the target; logs were attempted but returned none."}
	case discBlockedNoScopeNoIdentity:
		return []string{"Neither target identity nor Prometheus scope could be established; treat this report as low-confidence."}
	default:
		return nil
	}
}

// BaseDecision builds the base triage Decision (§4.5): a short label of
// the form "<scope> • Impact=<l> • <discriminators>", plus scenario-driven
// next steps for whichever discriminators are present.
func BaseDecision(inv *domain.Investigation) domain.Decision {
	ds := discriminators(inv)
	scope := scopeBucket(inv.Analysis.Noise.Prometheus.FiringInstances)
	impact := impactBucket(&inv.Analysis.Noise)

	label := fmt.Sprintf("%s • Impact=%s", scope, impact)
	if len(ds) > 0 {
		label += " • " + strings.Join(ds, ", ")
	}

	var why []string
	why = append(why, fmt.Sprintf("family=%s (source=%s)", family.Get(inv), inv.Meta.FamilySource))
	if inv.Target.HasIdentity() {
		why = append(why, fmt.Sprintf("target=%s", targetSummary(inv.Target)))
	}

	var next []string
	for _, d := range ds {
		next = append(next, nextStepsForDiscriminator(d, inv)...)
	}
	if len(next) == 0 {
		next = append(next, "No blocking discriminators; proceed to family-specific enrichment below.")
	}

	return domain.Decision{
		Label:          label,
		Why:            take(why, 10),
		Next:           take(next, 10),
		Discriminators: ds,
	}
}

func targetSummary(t domain.TargetRef) string {
	switch t.TargetType {
	case domain.TargetPod:
		if t.Container != "" {
			return fmt.Sprintf("%s/%s/%s", t.Namespace, t.Pod, t.Container)
		}
		return fmt.Sprintf("%s/%s", t.Namespace, t.Pod)
	case domain.TargetWorkload:
		return fmt.Sprintf("%s/%s/%s", t.Namespace, t.WorkloadKind, t.WorkloadName)
	case domain.TargetService:
		return fmt.Sprintf("%s/%s", t.Namespace, t.Service)
	case domain.TargetNode:
		return t.Instance
	case domain.TargetCluster:
		return t.Cluster
	default:
		return "unknown"
	}
}

func take[T any](xs []T, n int) []T {
	if len(xs) <= n {
		return xs
	}
	return xs[:n]
}
