package noise

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

type fakeProm struct {
	responses map[string][]domain.PromSeries
	err       error
}

func (f *fakeProm) InstantQuery(ctx context.Context, query string, at time.Time) ([]domain.PromSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[query], nil
}

func (f *fakeProm) RangeQuery(ctx context.Context, query string, window domain.TimeWindow, step time.Duration) ([]domain.PromSeries, error) {
	return nil, nil
}

func scalarSeries(v float64) []domain.PromSeries {
	return []domain.PromSeries{{Values: [][2]any{{1700000000.0, v}}}}
}

func TestAnalyzeFlagsMissingLabels(t *testing.T) {
	inv := domain.NewInvestigation(domain.NewAlertInstance("fp1", map[string]string{"alertname": "KubePodCrashLooping"}, nil, "", "", "", "firing", "firing"), domain.TimeWindow{EndTime: time.Now()})

	Analyze(context.Background(), nil, inv)

	n := inv.Analysis.Noise
	assert.Contains(t, n.MissingCriticalLabels, "namespace")
	assert.Contains(t, n.MissingCriticalLabels, "pod")
	assert.Contains(t, n.MissingCriticalLabels, "container")
	assert.Equal(t, "skipped", n.Prometheus.Status)
	require.Len(t, n.Recommendations, 2)
}

func TestAnalyzeComputesFlapScore(t *testing.T) {
	labels := map[string]string{"alertname": "KubePodCrashLooping", "namespace": "prod", "pod": "web-1", "container": "app"}
	inv := domain.NewInvestigation(domain.NewAlertInstance("fp1", labels, nil, "", "", "", "firing", "firing"), domain.TimeWindow{EndTime: time.Now()})

	prom := &fakeProm{responses: map[string][]domain.PromSeries{
		`count(ALERTS{alertname="KubePodCrashLooping",namespace="prod"})`:                                     scalarSeries(1),
		`count(ALERTS{alertname="KubePodCrashLooping",namespace="prod",alertstate="firing"})`:                 scalarSeries(1),
		`max(resets(ALERTS_FOR_STATE{alertname="KubePodCrashLooping",namespace="prod",alertstate="firing"}[24h]))`: scalarSeries(3),
	}}

	Analyze(context.Background(), prom, inv)

	n := inv.Analysis.Noise
	assert.Empty(t, n.MissingCriticalLabels)
	assert.Equal(t, "ok", n.Prometheus.Status)
	require.NotNil(t, n.Prometheus.Flaps)
	assert.Equal(t, 3, *n.Prometheus.Flaps)
	assert.Equal(t, 60, n.FlapScore)
}

func TestPostprocessInfersContainerFromMetrics(t *testing.T) {
	inv := domain.NewInvestigation(domain.NewAlertInstance("fp1", map[string]string{"alertname": "KubeCPUThrottlingHigh"}, nil, "", "", "", "firing", "firing"), domain.TimeWindow{EndTime: time.Now()})
	inv.Analysis.Noise.MissingCriticalLabels = []string{"container"}
	inv.Analysis.Features.Metrics.ThrottlingTopCont = &domain.ContainerRatio{Container: "worker", P95: 60, Ratio: 0.6}

	Postprocess(inv)

	assert.Contains(t, inv.Analysis.Noise.InferredLabels, "container")
	assert.Contains(t, inv.Analysis.Noise.Recommendations[0], "worker")
}
