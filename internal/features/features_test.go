package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestComputeFillsRestartRateFromMetrics(t *testing.T) {
	inv := baseInvestigation(t, map[string]string{"alertname": "KubePodCrashLooping", "namespace": "prod", "pod": "web-1"}, "2026-07-29T09:55:00Z", time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC))
	inv.Target = domain.TargetRef{Container: "app"}
	inv.Evidence.Metrics.Restarts = []domain.PromSeries{series("app", 0, 1, 2)}
	inv.Meta.Family = "crashloop"

	out := Compute(inv, domain.ChangeCorrelation{})

	require.NotNil(t, out.K8s.RestartRate5mMax)
	assert.Equal(t, float64(2), *out.K8s.RestartRate5mMax)
}

func TestComputeEndToEnd(t *testing.T) {
	inv := baseInvestigation(t, map[string]string{"alertname": "KubeCPUThrottlingHigh", "namespace": "prod", "pod": "web-1"}, "2026-07-29T09:00:00Z", time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC))
	inv.Evidence.Metrics.CPU = []domain.PromSeries{series("app", 0.85, 0.9)}
	inv.Meta.Family = "cpu_throttling"

	out := Compute(inv, domain.ChangeCorrelation{Score: 0.9, Timeline: []domain.ChangeEvent{{Timestamp: "2026-07-29T08:50:00Z"}}})

	assert.True(t, out.Metrics.CPUNearLimit)
	assert.True(t, out.Changes.RolloutWithinWindow)
	assert.Equal(t, "2026-07-29T08:50:00Z", out.Changes.LastChangeTS)
}
