package capacity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

type fakeProm struct {
	ranges   map[string][]domain.PromSeries
	instants map[string][]domain.PromSeries
}

func (f *fakeProm) InstantQuery(ctx context.Context, query string, at time.Time) ([]domain.PromSeries, error) {
	return f.instants[query], nil
}

func (f *fakeProm) RangeQuery(ctx context.Context, query string, window domain.TimeWindow, step time.Duration) ([]domain.PromSeries, error) {
	return f.ranges[query], nil
}

func usageSeries(container string, vals ...float64) domain.PromSeries {
	s := domain.PromSeries{Metric: map[string]string{"container": container}}
	for i, v := range vals {
		s.Values = append(s.Values, [2]any{float64(1700000000 + i), v})
	}
	return s
}

func TestAnalyzeFlagsOverProvisionedContainer(t *testing.T) {
	inv := domain.NewInvestigation(domain.NewAlertInstance("fp1", map[string]string{"alertname": "A"}, nil, "", "", "", "firing", "firing"), domain.TimeWindow{EndTime: time.Now()})
	inv.Target = domain.TargetRef{Namespace: "ns1", WorkloadName: "demo"}

	cpuUsageQ := cpuUsageQuery(inv.Target)
	cpuReqQ := requestQuery(inv.Target, "cpu")

	prom := &fakeProm{
		ranges: map[string][]domain.PromSeries{
			cpuUsageQ: {usageSeries("c1", 0.003, 0.003, 0.003)},
		},
		instants: map[string][]domain.PromSeries{
			cpuReqQ: {usageSeries("c1", 0.3)},
		},
	}

	Analyze(context.Background(), prom, inv)

	require.Len(t, inv.Analysis.Capacity.Rightsizing, 1)
	row := inv.Analysis.Capacity.Rightsizing[0]
	assert.Equal(t, "c1", row.Container)
	assert.Equal(t, "cpu", row.Resource)
	assert.Contains(t, row.Recommendation, "over-provisioned")
}

func TestAnalyzeSkipsWithoutNamespace(t *testing.T) {
	inv := domain.NewInvestigation(domain.NewAlertInstance("fp1", map[string]string{"alertname": "A"}, nil, "", "", "", "firing", "firing"), domain.TimeWindow{EndTime: time.Now()})

	Analyze(context.Background(), &fakeProm{}, inv)

	assert.Empty(t, inv.Analysis.Capacity.Rightsizing)
}
