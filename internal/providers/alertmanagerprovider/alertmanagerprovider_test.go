package alertmanagerprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

func TestFetchActiveAlertsParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"labels": {"alertname": "KubePodCrashLooping", "namespace": "payments", "pod": "api-0"},
				"annotations": {"summary": "crash looping"},
				"startsAt": "2026-07-29T00:00:00Z",
				"endsAt": "0001-01-01T00:00:00Z",
				"fingerprint": "abc123",
				"status": {"state": "active"}
			}
		]`))
	}))
	defer server.Close()

	p := New(server.URL)
	alerts, err := p.FetchActiveAlerts(context.Background(), map[string]string{"namespace": "payments"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "KubePodCrashLooping", alerts[0].Labels["alertname"])
	assert.Equal(t, "abc123", alerts[0].Fingerprint)
}

func TestExtractPodInfoFromAlertRequiresNamespaceAndPod(t *testing.T) {
	p := New("http://unused")

	alert := domain.NewAlertInstance("fp", map[string]string{"alertname": "TargetDown", "instance": "10.0.0.1:9100"}, nil, "", "", "", "firing", "firing")
	_, _, ok := p.ExtractPodInfoFromAlert(alert)
	assert.False(t, ok, "must not infer a pod from the instance label")

	alert2 := domain.NewAlertInstance("fp2", map[string]string{"namespace": "payments", "pod": "api-0"}, nil, "", "", "", "firing", "firing")
	ns, pod, ok := p.ExtractPodInfoFromAlert(alert2)
	assert.True(t, ok)
	assert.Equal(t, "payments", ns)
	assert.Equal(t, "api-0", pod)
}
