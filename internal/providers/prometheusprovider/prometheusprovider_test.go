package prometheusprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestInstantQueryParsesVectorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "vector",
				"result": [
					{"metric": {"pod": "api-0"}, "value": [1700000000, "0.5"]}
				]
			}
		}`))
	}))
	defer server.Close()

	p, err := New(server.URL)
	require.NoError(t, err)

	series, err := p.InstantQuery(context.TODO(), `up{pod="api-0"}`, time.Now())
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "api-0", series[0].Metric["pod"])
	assert.Equal(t, "0.5", series[0].Values[0][1])
}

func TestRangeQueryParsesMatrixResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "matrix",
				"result": [
					{"metric": {"pod": "api-0"}, "values": [[1700000000, "1"], [1700000060, "2"]]}
				]
			}
		}`))
	}))
	defer server.Close()

	p, err := New(server.URL)
	require.NoError(t, err)

	window := domain.TimeWindow{StartTime: time.Now().Add(-time.Hour), EndTime: time.Now()}
	series, err := p.RangeQuery(context.TODO(), "up", window, time.Minute)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Len(t, series[0].Values, 2)
}
