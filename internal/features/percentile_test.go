package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestPercentileNearestRank(t *testing.T) {
	p95, ok := Percentile([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 95)
	assert.True(t, ok)
	assert.Equal(t, float64(10), p95)
}

func TestPercentileEmpty(t *testing.T) {
	_, ok := Percentile(nil, 95)
	assert.False(t, ok)
}

func TestSeriesValuesSkipsUnparseable(t *testing.T) {
	series := domain.PromSeries{Values: [][2]any{{1700000000.0, "1.5"}, {1700000001.0, "not-a-number"}, {1700000002.0, 2.5}}}
	vals := SeriesValues(series)
	assert.Equal(t, []float64{1.5, 2.5}, vals)
}
