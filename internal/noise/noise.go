// Package noise computes read-only, deterministic signals about how noisy
// an alert is likely to be: missing correlation labels, ephemeral-label
// cardinality hints, and a best-effort flap score derived from Prometheus
// ALERTS/ALERTS_FOR_STATE series. It never blocks an investigation — every
// failure degrades to a status field rather than an error return.
package noise

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/providers"
)

// ephemeralLabels are high-cardinality per-instance labels that make poor
// grouping/dedup keys.
var ephemeralLabels = map[string]bool{
	"pod": true, "pod_name": true, "instance": true, "endpoint": true,
	"container": true, "container_name": true, "uid": true, "node": true, "ip": true,
}

// correlationLabels are the stable dimensions worth keeping in a suggested
// group-by key, in priority order.
var correlationLabels = []string{"cluster", "namespace", "service", "job", "app", "deployment", "statefulset", "daemonset"}

const defaultLookback = "24h"

// Analyze populates inv.Analysis.Noise from the alert's label shape and a
// best-effort Prometheus ALERTS query. It never returns an error — any
// Prometheus failure is recorded as Prometheus.Status="unavailable" and the
// run continues with label-shape insights alone.
func Analyze(ctx context.Context, prom providers.PrometheusProvider, inv *domain.Investigation) {
	labels := inv.Alert.Labels
	missing := missingLabels(labels)
	ephemeral := ephemeralPresent(labels)
	groupBy := suggestedGroupBy(labels)

	ns := firstNonEmptyLabel(labels, "namespace", "Namespace")
	cluster := labels["cluster"]
	selector := buildSelector(labels["alertname"], ns, cluster)

	scope := queryPrometheusScope(ctx, prom, selector, inv.Window)

	flapScore := 0
	if scope.Flaps != nil && *scope.Flaps > 0 {
		flapScore = clamp(int(math.Round(float64(*scope.Flaps)*20)), 0, 100)
	}

	var recs []string
	if len(missing) > 0 {
		recs = append(recs, "Add missing labels (namespace/pod/container) in the alert rule labels/annotations or via relabeling so investigations can correlate evidence.")
		if contains(missing, "container") {
			recs = append(recs, "For this rule, include `container` in the rule label set and aggregation (e.g., `sum by(container,pod,namespace)`), and ensure Alertmanager routing/grouping includes `container` so investigations can pinpoint the right container.")
		}
	}

	inv.Analysis.Noise = domain.NoiseInsights{
		MissingCriticalLabels: missing,
		EphemeralLabels:       ephemeral,
		SuggestedGroupBy:      groupBy,
		Prometheus:            scope,
		FlapScore:             flapScore,
		Recommendations:       recs,
	}
}

// Postprocess runs after feature extraction: if the alert is missing a
// `container` label but the metrics projection inferred one (the
// top-throttled container), mark it inferred instead of leaving the
// recommendation sounding like the investigation is blocked.
func Postprocess(inv *domain.Investigation) {
	n := &inv.Analysis.Noise
	top := inv.Analysis.Features.Metrics.ThrottlingTopCont
	if top == nil || !contains(n.MissingCriticalLabels, "container") {
		return
	}
	inferred := map[string]bool{}
	for _, v := range n.InferredLabels {
		inferred[v] = true
	}
	inferred["container"] = true
	n.InferredLabels = sortedKeys(inferred)
	n.Recommendations = []string{
		fmt.Sprintf("Container label is missing on the alert; the agent inferred it as `%s` from metrics.", top.Container),
		"Include `container` in the rule label set and aggregation (e.g., `sum by(container,pod,namespace)`), and ensure Alertmanager routing/grouping includes `container`.",
	}
}

func missingLabels(labels map[string]string) []string {
	var missing []string
	if firstNonEmptyLabel(labels, "namespace", "Namespace") == "" {
		missing = append(missing, "namespace")
	}
	if firstNonEmptyLabel(labels, "pod") == "" {
		missing = append(missing, "pod")
	}
	if firstNonEmptyLabel(labels, "container", "Container", "container_name") == "" {
		missing = append(missing, "container")
	}
	return missing
}

func ephemeralPresent(labels map[string]string) []string {
	var out []string
	for k := range labels {
		if ephemeralLabels[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func suggestedGroupBy(labels map[string]string) []string {
	group := []string{"alertname"}
	for _, k := range correlationLabels {
		if labels[k] != "" {
			group = append(group, k)
		}
	}
	if labels["namespace"] != "" && !contains(group, "namespace") {
		group = append(group, "namespace")
	}
	return group
}

func buildSelector(alertname, namespace, cluster string) string {
	var parts []string
	if alertname != "" {
		parts = append(parts, fmt.Sprintf(`alertname="%s"`, alertname))
	}
	if namespace != "" {
		parts = append(parts, fmt.Sprintf(`namespace="%s"`, namespace))
	}
	if cluster != "" {
		parts = append(parts, fmt.Sprintf(`cluster="%s"`, cluster))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func queryPrometheusScope(ctx context.Context, prom providers.PrometheusProvider, selector string, window domain.TimeWindow) domain.PrometheusScope {
	if prom == nil {
		return domain.PrometheusScope{Status: "skipped"}
	}

	active, errActive := scalarQuery(ctx, prom, fmt.Sprintf("count(ALERTS%s)", selector), window)
	firingSel := withAlertstate(selector, "firing")
	firing, errFiring := scalarQuery(ctx, prom, fmt.Sprintf("count(ALERTS%s)", firingSel), window)
	flaps, errFlaps := scalarQuery(ctx, prom, fmt.Sprintf("max(resets(ALERTS_FOR_STATE%s[%s]))", firingSel, defaultLookback), window)

	if errActive != nil && errFiring != nil && errFlaps != nil {
		return domain.PrometheusScope{Status: "unavailable"}
	}

	scope := domain.PrometheusScope{Status: "ok"}
	if active != nil {
		v := int(*active)
		scope.ActiveInstances = &v
	}
	if firing != nil {
		v := int(*firing)
		scope.FiringInstances = &v
	}
	if flaps != nil {
		v := int(*flaps)
		scope.Flaps = &v
	}
	return scope
}

func withAlertstate(selector, state string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(selector, "{"), "}")
	if inner == "" {
		return fmt.Sprintf(`{alertstate="%s"}`, state)
	}
	return fmt.Sprintf(`{%s,alertstate="%s"}`, inner, state)
}

func scalarQuery(ctx context.Context, prom providers.PrometheusProvider, query string, window domain.TimeWindow) (*float64, error) {
	series, err := prom.InstantQuery(ctx, query, window.EndTime)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 || len(series[0].Values) == 0 {
		return nil, nil
	}
	pair := series[0].Values[len(series[0].Values)-1]
	if len(pair) != 2 {
		return nil, nil
	}
	f, ok := pair[1].(float64)
	if !ok {
		if s, ok := pair[1].(string); ok {
			var parsed float64
			if _, err := fmt.Sscanf(s, "%g", &parsed); err == nil {
				return &parsed, nil
			}
		}
		return nil, nil
	}
	return &f, nil
}

func firstNonEmptyLabel(labels map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := labels[k]; v != "" {
			return v
		}
	}
	return ""
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
