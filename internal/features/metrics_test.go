package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func series(container string, values ...float64) domain.PromSeries {
	s := domain.PromSeries{Metric: map[string]string{}}
	if container != "" {
		s.Metric["container"] = container
	}
	for i, v := range values {
		s.Values = append(s.Values, [2]any{float64(1700000000 + i), v})
	}
	return s
}

func TestMetricsNearLimitFlags(t *testing.T) {
	ev := domain.MetricsEvidence{
		CPU:    []domain.PromSeries{series("app", 0.5, 0.85, 0.9)},
		Memory: []domain.PromSeries{series("app", 0.5, 0.6)},
	}
	f := Metrics(ev)
	require.NotNil(t, f.CPUP95)
	assert.True(t, f.CPUNearLimit)
	assert.False(t, f.MemoryNearLimit)
}

func TestMetricsTopContainerRatio(t *testing.T) {
	ev := domain.MetricsEvidence{
		CPU: []domain.PromSeries{
			series("a", 0.1, 0.2),
			series("b", 0.9, 0.95),
		},
	}
	f := Metrics(ev)
	require.NotNil(t, f.CPUTopCont)
	assert.Equal(t, "b", f.CPUTopCont.Container)
}
