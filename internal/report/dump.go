package report

import (
	"encoding/json"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// DumpMode selects how much of an Investigation a JSON dump exposes.
type DumpMode string

// Dump modes.
const (
	// DumpAnalysis is the small, stable, explainable view persisted
	// alongside the Markdown report and returned by `--dump-json analysis`.
	DumpAnalysis DumpMode = "analysis"
	// DumpInvestigation is the full raw object, for debugging only.
	DumpInvestigation DumpMode = "investigation"
)

func clean(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case nil:
			continue
		case string:
			if vv == "" {
				continue
			}
		case []string:
			if len(vv) == 0 {
				continue
			}
		case map[string]any:
			if len(vv) == 0 {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// alertLabelViews splits raw alert labels into the affected-target identity
// (core) and scrape/metric-source metadata (source), so a report reader
// never confuses kube-state-metrics scrape labels for the thing that's
// actually broken.
func alertLabelViews(inv *domain.Investigation) (core, source map[string]any) {
	labels := inv.Alert.Labels
	if labels == nil {
		labels = map[string]string{}
	}

	core = map[string]any{
		"alertname":   labels["alertname"],
		"severity":    labels["severity"],
		"cluster":     firstNonEmpty(inv.Target.Cluster, labels["cluster"]),
		"target_type": string(inv.Target.TargetType),
	}

	switch inv.Target.TargetType {
	case domain.TargetPod:
		core["namespace"] = firstNonEmpty(inv.Target.Namespace, labels["namespace"])
		core["pod"] = firstNonEmpty(inv.Target.Pod, labels["pod"], labels["pod_name"])
		core["container"] = inv.Target.Container
		core["workload_kind"] = inv.Target.WorkloadKind
		core["workload_name"] = inv.Target.WorkloadName
	case domain.TargetService:
		core["namespace"] = firstNonEmpty(inv.Target.Namespace, labels["namespace"])
		core["service"] = firstNonEmpty(inv.Target.Service, labels["service"])
	case domain.TargetNode:
		core["instance"] = firstNonEmpty(inv.Target.Instance, labels["instance"])
	case domain.TargetCluster:
		core["cluster"] = firstNonEmpty(inv.Target.Cluster, labels["cluster"])
	}

	source = map[string]any{}
	if inv.Target.TargetType == domain.TargetPod {
		for _, k := range []string{"job", "service", "instance", "endpoint", "prometheus"} {
			if v := labels[k]; v != "" {
				source[k] = v
			}
		}
		if raw := labels["container"]; raw != "" && (inv.Target.Container == "" || raw != inv.Target.Container) {
			source["scrape_container"] = raw
		}
	}

	return clean(core), clean(source)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringMapToAny(m map[string]string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// toAnalysisDict builds the `analysis` dump mode's JSON-shaped map.
func toAnalysisDict(inv *domain.Investigation) map[string]any {
	coreLabels, sourceLabels := alertLabelViews(inv)

	labelsCompact := map[string]any{}
	for k, v := range inv.Alert.Labels {
		labelsCompact[k] = v
	}
	if inv.Target.TargetType == domain.TargetPod && len(sourceLabels) > 0 {
		for _, k := range []string{"job", "service", "instance", "endpoint", "prometheus"} {
			delete(labelsCompact, k)
		}
		if _, ok := sourceLabels["scrape_container"]; ok {
			delete(labelsCompact, "container")
		}
	}

	logsDump := map[string]any{
		"status":        inv.Evidence.Logs.Status,
		"reason":        inv.Evidence.Logs.Reason,
		"count":         len(inv.Evidence.Logs.Raw),
		"parsed_errors": inv.Evidence.Logs.ParsedErrors,
	}

	var githubDump map[string]any
	if inv.Evidence.GitHub.Repo != nil {
		githubDump = map[string]any{
			"repo": inv.Evidence.GitHub.Repo,
		}
	}

	return map[string]any{
		"alert": map[string]any{
			"fingerprint":      inv.Alert.Fingerprint,
			"labels":           labelsCompact,
			"core_labels":      coreLabels,
			"source_labels":    sourceLabels,
			"annotations":      stringMapToAny(inv.Alert.Annotations),
			"starts_at":        inv.Alert.StartsAt,
			"ends_at":          inv.Alert.EndsAt,
			"state":            inv.Alert.State,
			"normalized_state": inv.Alert.NormState,
			"ends_at_kind":     inv.Alert.EndsAtKind,
		},
		"target":      inv.Target,
		"time_window": inv.Window,
		"evidence": map[string]any{
			"logs":   logsDump,
			"github": githubDump,
		},
		"analysis": map[string]any{
			"features":   inv.Analysis.Features,
			"scores":     inv.Analysis.Scores,
			"verdict":    inv.Analysis.Verdict,
			"change":     inv.Analysis.Change,
			"noise":      inv.Analysis.Noise,
			"decision":   inv.Analysis.Decision,
			"enrichment": inv.Analysis.Enrichment,
			"hypotheses": inv.Analysis.Hypotheses,
			"capacity":   inv.Analysis.Capacity,
			"actions":    inv.Analysis.Actions,
			"rca":        inv.Analysis.RCA,
			"llm":        inv.Analysis.LLM,
		},
		"errors": inv.Errors,
	}
}

// Dump marshals inv as indented JSON in the given mode. DumpInvestigation
// marshals the full Investigation verbatim; DumpAnalysis produces the
// compact, on-call-facing view persisted alongside the Markdown report.
func Dump(inv *domain.Investigation, mode DumpMode) ([]byte, error) {
	if mode == DumpInvestigation {
		return json.MarshalIndent(inv, "", "  ")
	}
	return json.MarshalIndent(toAnalysisDict(inv), "", "  ")
}
