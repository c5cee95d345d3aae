// Package capacity produces best-effort rightsizing hints: for the
// workload's containers, compare observed p95 CPU/memory usage against
// their configured requests and flag significant over- or
// under-provisioning. Entirely optional — a Prometheus failure degrades to
// an empty report rather than failing the investigation.
package capacity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/features"
	"github.com/codeready-toolchain/tarka/internal/providers"
)

// rangeStep is the sampling resolution used for the capacity usage lookback.
const rangeStep = 60 * time.Second

// A container is flagged over-requested when p95 usage sits below this
// fraction of its request, and under-requested above this fraction of its
// limit (approaching OOM/throttling risk with no usage-based headroom).
const (
	overRequestRatio  = 0.3
	underRequestRatio = 0.9
	topN              = 10
)

// Analyze populates inv.Analysis.Capacity for the owning workload's
// containers. Never returns an error; a Prometheus failure yields an empty
// CapacityReport.
func Analyze(ctx context.Context, prom providers.PrometheusProvider, inv *domain.Investigation) {
	if prom == nil || inv.Target.Namespace == "" {
		return
	}

	cpuUsage, err := prom.RangeQuery(ctx, cpuUsageQuery(inv.Target), inv.Window, rangeStep)
	if err != nil {
		inv.AddError("capacity", err)
		return
	}
	memUsage, err := prom.RangeQuery(ctx, memUsageQuery(inv.Target), inv.Window, rangeStep)
	if err != nil {
		inv.AddError("capacity", err)
		return
	}
	cpuRequests, err := prom.InstantQuery(ctx, requestQuery(inv.Target, "cpu"), inv.Window.EndTime)
	if err != nil {
		inv.AddError("capacity", err)
		return
	}
	memRequests, err := prom.InstantQuery(ctx, requestQuery(inv.Target, "memory"), inv.Window.EndTime)
	if err != nil {
		inv.AddError("capacity", err)
		return
	}

	var rows []domain.RightsizingRow
	rows = append(rows, rightsizingRows("cpu", cpuUsage, cpuRequests)...)
	rows = append(rows, rightsizingRows("memory", memUsage, memRequests)...)

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Container < rows[j].Container })
	if len(rows) > topN {
		rows = rows[:topN]
	}

	var recs []string
	for _, r := range rows {
		recs = append(recs, r.Recommendation)
	}

	inv.Analysis.Capacity = domain.CapacityReport{Recommendations: recs, Rightsizing: rows}
}

func rightsizingRows(resource string, usage, requests []domain.PromSeries) []domain.RightsizingRow {
	requestByContainer := make(map[string]float64)
	for _, s := range requests {
		c := s.Metric["container"]
		if c == "" {
			continue
		}
		if vals := features.SeriesValues(s); len(vals) > 0 {
			requestByContainer[c] = vals[len(vals)-1]
		}
	}

	var rows []domain.RightsizingRow
	for _, s := range usage {
		c := s.Metric["container"]
		if c == "" {
			continue
		}
		req, ok := requestByContainer[c]
		if !ok || req <= 0 {
			continue
		}
		p95, ok := features.Percentile(features.SeriesValues(s), 95)
		if !ok {
			continue
		}
		ratio := p95 / req
		var rec string
		switch {
		case ratio <= overRequestRatio:
			rec = fmt.Sprintf("%s %s request looks over-provisioned: p95 usage is %.0f%% of the request.", c, resource, ratio*100)
		case ratio >= underRequestRatio:
			rec = fmt.Sprintf("%s %s request looks under-provisioned: p95 usage is %.0f%% of the request.", c, resource, ratio*100)
		default:
			continue
		}
		rows = append(rows, domain.RightsizingRow{
			Container:      c,
			Resource:       resource,
			CurrentRequest: fmt.Sprintf("%g", req),
			ObservedP95:    p95,
			Recommendation: rec,
		})
	}
	return rows
}

func cpuUsageQuery(target domain.TargetRef) string {
	return fmt.Sprintf(`rate(container_cpu_usage_seconds_total{namespace="%s",pod=~"%s.*"}[5m])`, target.Namespace, workloadPrefix(target))
}

func memUsageQuery(target domain.TargetRef) string {
	return fmt.Sprintf(`container_memory_working_set_bytes{namespace="%s",pod=~"%s.*"}`, target.Namespace, workloadPrefix(target))
}

func requestQuery(target domain.TargetRef, resource string) string {
	return fmt.Sprintf(`kube_pod_container_resource_requests{namespace="%s",pod=~"%s.*",resource="%s"}`, target.Namespace, workloadPrefix(target), resource)
}

func workloadPrefix(target domain.TargetRef) string {
	if target.WorkloadName != "" {
		return target.WorkloadName
	}
	return target.Pod
}
