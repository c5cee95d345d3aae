// Package features projects permissive Evidence into the strict,
// deterministic DerivedFeatures the scoring and enrichment stages consume.
// Every function here must be a pure function of its inputs: given
// identical evidence, it must return byte-identical features.
package features

import (
	"sort"
	"strconv"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Percentile computes the p-th percentile (0..100) of values using the
// nearest-rank method on a sorted copy: index = ceil(p/100 * n) - 1,
// clamped to [0, n-1]. This avoids interpolation so the result is always
// one of the observed samples, matching the deterministic-by-construction
// requirement on every derived feature.
func Percentile(values []float64, p float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int((p/100)*float64(len(sorted))+0.999999) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx], true
}

// SeriesValues extracts the float sample values out of a PromSeries,
// skipping any value that cannot be parsed as a float64.
func SeriesValues(series domain.PromSeries) []float64 {
	out := make([]float64, 0, len(series.Values))
	for _, pair := range series.Values {
		if len(pair) != 2 {
			continue
		}
		if f, ok := toFloat(pair[1]); ok {
			out = append(out, f)
		}
	}
	return out
}

// AllValues flattens every series' values into one slice.
func AllValues(series []domain.PromSeries) []float64 {
	var out []float64
	for _, s := range series {
		out = append(out, SeriesValues(s)...)
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
