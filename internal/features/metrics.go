package features

import (
	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Near-limit thresholds: a container is considered near its CPU limit once
// usage/limit crosses 0.8, and near its memory limit once it crosses 0.9.
// Memory gets a tighter threshold because an OOM kill is immediate and
// unrecoverable, where CPU throttling degrades gracefully.
const (
	cpuNearLimitThreshold    = 0.8
	memoryNearLimitThreshold = 0.9
)

// Metrics projects MetricsEvidence into FeaturesMetrics: p95s for
// throttling/CPU/memory/HTTP 5xx across all returned series, plus the
// single top-ratio container for CPU and memory and throttling.
func Metrics(ev domain.MetricsEvidence) domain.FeaturesMetrics {
	var out domain.FeaturesMetrics

	if p95, ok := Percentile(AllValues(ev.Throttling), 95); ok {
		out.ThrottlingP95 = &p95
	}
	if p95, ok := Percentile(AllValues(ev.CPU), 95); ok {
		out.CPUP95 = &p95
		if p95 >= cpuNearLimitThreshold {
			out.CPUNearLimit = true
		}
	}
	if p95, ok := Percentile(AllValues(ev.Memory), 95); ok {
		out.MemoryP95 = &p95
		if p95 >= memoryNearLimitThreshold {
			out.MemoryNearLimit = true
		}
	}
	if p95, ok := Percentile(AllValues(ev.HTTP5xx), 95); ok {
		out.HTTP5xxRateP95 = &p95
	}

	out.ThrottlingTopCont = topContainerRatio(ev.Throttling)
	out.CPUTopCont = topContainerRatio(ev.CPU)
	out.MemoryTopCont = topContainerRatio(ev.Memory)

	return out
}

// topContainerRatio finds, among the series with a "container" label, the
// one whose own p95 is highest, and reports it as a ContainerRatio. Series
// without a container label (cluster/pod aggregates) are ignored here since
// the point is to single out which specific container is driving a signal.
func topContainerRatio(series []domain.PromSeries) *domain.ContainerRatio {
	var best *domain.ContainerRatio
	for _, s := range series {
		container := s.Metric["container"]
		if container == "" {
			continue
		}
		p95, ok := Percentile(SeriesValues(s), 95)
		if !ok {
			continue
		}
		if best == nil || p95 > best.P95 {
			best = &domain.ContainerRatio{Container: container, P95: p95, Ratio: p95}
		}
	}
	return best
}
