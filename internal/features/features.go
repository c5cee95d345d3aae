package features

import "github.com/codeready-toolchain/tarka/internal/domain"

// Compute projects an investigation's evidence (plus the change-correlation
// result produced by the separate change-correlation stage) into
// DerivedFeatures. It is the single entry point the pipeline calls; family
// detection must already have populated inv.Meta.Family by this point.
func Compute(inv *domain.Investigation, cc domain.ChangeCorrelation) domain.DerivedFeatures {
	k8s := K8s(inv.Evidence.K8s, inv.Target)
	k8s.RestartRate5mMax = restartRateMax(inv.Evidence.Metrics.Restarts, inv.Target.Container)

	metrics := Metrics(inv.Evidence.Metrics)
	logs := Logs(inv.Evidence.Logs)
	changes := Changes(cc, inv.Target)
	quality := Quality(inv, inv.Meta.Family, k8s, metrics, logs)

	return domain.DerivedFeatures{
		K8s:     k8s,
		Metrics: metrics,
		Logs:    logs,
		Changes: changes,
		Quality: quality,
	}
}

func restartRateMax(series []domain.PromSeries, container string) *float64 {
	var max float64
	found := false
	for _, s := range series {
		if container != "" && s.Metric["container"] != "" && s.Metric["container"] != container {
			continue
		}
		for _, v := range SeriesValues(s) {
			if !found || v > max {
				max = v
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	return &max
}
