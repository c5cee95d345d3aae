package features

import (
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Families where namespace/pod labels are load-bearing for target
// resolution, so their absence is scored as low evidence quality rather
// than merely "missing metrics".
var podScopedFamilies = map[string]bool{
	"crashloop":       true,
	"pod_not_healthy": true,
	"cpu_throttling":  true,
}

// Long-running/recently-started thresholds, in hours.
const (
	longRunningHours     = 72.0
	recentlyStartedHours = 1.0
	throttlingHighPct    = 25.0
	throttlingLowRatio   = 0.2
)

// Quality derives FeaturesQuality from the investigation's alert/evidence
// plus the already-computed k8s/metrics/logs feature projections.
func Quality(inv *domain.Investigation, family string, k8s domain.FeaturesK8s, metrics domain.FeaturesMetrics, logs domain.FeaturesLogs) domain.FeaturesQuality {
	var missing []string
	labels := inv.Alert.Labels
	missingLabelKeys := false

	if podScopedFamilies[family] {
		if firstNonEmptyLabel(labels, "namespace", "Namespace") == "" {
			missing = append(missing, "labels.namespace")
			missingLabelKeys = true
		}
		if firstNonEmptyLabel(labels, "pod", "pod_name", "podName") == "" {
			missing = append(missing, "labels.pod")
			missingLabelKeys = true
		}
	}
	if len(inv.Evidence.K8s.PodInfo) == 0 {
		missing = append(missing, "k8s.pod_info")
	}
	if logs.Status == "" || logs.Status == "unavailable" {
		missing = append(missing, "logs")
	}
	if len(inv.Evidence.Metrics.CPU) == 0 {
		missing = append(missing, "metrics.cpu")
	}
	if len(inv.Evidence.Metrics.Restarts) == 0 {
		missing = append(missing, "metrics.restarts")
	}

	var flags []string
	switch family {
	case "crashloop":
		if k8s.Ready != nil && *k8s.Ready && k8s.RestartRate5mMax != nil && *k8s.RestartRate5mMax <= 0 {
			flags = append(flags, domain.ContradictionCrashloopReadyNoRestarts)
		}
	case "cpu_throttling":
		if throttlingHighUsageLowFlag(metrics) {
			flags = append(flags, domain.ContradictionThrottlingHighUsageLow)
		}
	}

	var ageHours float64
	var hasAge bool
	if starts, err := time.Parse(time.RFC3339, inv.Alert.StartsAt); err == nil {
		ageHours = inv.Window.EndTime.Sub(starts).Hours()
		if ageHours < 0 {
			ageHours = 0
		}
		hasAge = true
	}

	quality := domain.QualityHigh
	if len(missing) >= 2 {
		quality = domain.QualityMedium
	}
	if len(missing) >= 4 {
		quality = domain.QualityLow
	}
	if missingLabelKeys {
		quality = domain.QualityLow
	}

	return domain.FeaturesQuality{
		EvidenceQuality:    quality,
		MissingInputs:      missing,
		ContradictionFlags: flags,
		AlertAgeHours:      ageHours,
		IsLongRunning:      hasAge && ageHours >= longRunningHours,
		IsRecentlyStarted:  hasAge && ageHours <= recentlyStartedHours,
	}
}

func throttlingHighUsageLowFlag(metrics domain.FeaturesMetrics) bool {
	if metrics.ThrottlingP95 == nil || *metrics.ThrottlingP95 <= throttlingHighPct {
		return false
	}
	ratio, ok := cpuUsageLimitRatio(metrics)
	return ok && ratio < throttlingLowRatio
}

func cpuUsageLimitRatio(metrics domain.FeaturesMetrics) (float64, bool) {
	if metrics.ThrottlingTopCont != nil {
		return metrics.ThrottlingTopCont.Ratio, true
	}
	if metrics.CPUTopCont != nil {
		return metrics.CPUTopCont.Ratio, true
	}
	return 0, false
}

func firstNonEmptyLabel(labels map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := labels[k]; v != "" {
			return v
		}
	}
	return ""
}
