package logsprovider

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

func TestQueryParsesLokiStreams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "streams",
				"result": [
					{"stream": {"container": "api"}, "values": [["1700000000000000000", "panic: oom"]]}
				]
			}
		}`))
	}))
	defer server.Close()

	p := New(server.URL)
	window := domain.TimeWindow{StartTime: time.Now().Add(-time.Hour), EndTime: time.Now()}
	ev, err := p.Query(context.Background(), `{namespace="payments"}`, window)
	require.NoError(t, err)
	assert.Equal(t, "ok", ev.Status)
	require.Len(t, ev.Raw, 1)
	assert.Equal(t, "panic: oom", ev.Raw[0].Message)
	assert.Equal(t, "api", ev.Raw[0].Labels["container"])
}

func TestQueryDegradesWhenBaseURLUnset(t *testing.T) {
	p := New("")
	window := domain.TimeWindow{StartTime: time.Now().Add(-time.Hour), EndTime: time.Now()}
	ev, err := p.Query(context.Background(), "{}", window)
	require.NoError(t, err)
	assert.Equal(t, "unavailable", ev.Status)
}

func TestQueryDegradesOnNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := New(server.URL)
	window := domain.TimeWindow{StartTime: time.Now().Add(-time.Hour), EndTime: time.Now()}
	ev, err := p.Query(context.Background(), "{}", window)
	require.NoError(t, err)
	assert.Equal(t, "unavailable", ev.Status)
}
