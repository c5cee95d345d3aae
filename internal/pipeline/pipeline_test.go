package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/config"
	"github.com/codeready-toolchain/tarka/internal/diagnostics"
	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/queue"
)

type fakeK8s struct{}

func (fakeK8s) PodInfo(ctx context.Context, ns, pod string) (map[string]any, error) {
	return map[string]any{"phase": "Running"}, nil
}
func (fakeK8s) PodConditions(ctx context.Context, ns, pod string) ([]map[string]any, error) {
	return nil, nil
}
func (fakeK8s) PodEvents(ctx context.Context, ns, pod string) ([]map[string]any, error) {
	return nil, nil
}
func (fakeK8s) ListPods(ctx context.Context, ns string, selector map[string]string) ([]map[string]any, error) {
	return nil, nil
}
func (fakeK8s) OwnerChain(ctx context.Context, ns, pod string) ([]map[string]any, error) {
	return nil, nil
}
func (fakeK8s) WorkloadRolloutStatus(ctx context.Context, ns, kind, name string) (map[string]any, error) {
	return nil, nil
}

type fakeProm struct{}

func (fakeProm) InstantQuery(ctx context.Context, query string, at time.Time) ([]domain.PromSeries, error) {
	return nil, nil
}
func (fakeProm) RangeQuery(ctx context.Context, query string, window domain.TimeWindow, step time.Duration) ([]domain.PromSeries, error) {
	return nil, nil
}

type fakeLogs struct{}

func (fakeLogs) Query(ctx context.Context, query string, window domain.TimeWindow) (domain.LogsEvidence, error) {
	return domain.LogsEvidence{Status: "empty"}, nil
}

type fakeStore struct {
	markdown map[string]string
	jsonBody map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{markdown: map[string]string{}, jsonBody: map[string][]byte{}}
}
func (f *fakeStore) Head(ctx context.Context, key string) (bool, time.Time, error) {
	return false, time.Time{}, nil
}
func (f *fakeStore) PutMarkdown(ctx context.Context, key, body string) error {
	f.markdown[key] = body
	return nil
}
func (f *fakeStore) PutJSON(ctx context.Context, key string, body []byte) error {
	f.jsonBody[key] = body
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		ClusterName: "test",
		Investigation: config.InvestigationConfig{
			Window: 15 * time.Minute,
		},
	}
}

func newJob(alertname string) *queue.Job {
	alert := domain.NewAlertInstance("fp-1", map[string]string{"alertname": alertname, "namespace": "payments"}, nil, "", "", "", "firing", "firing")
	return &queue.Job{
		ID:        alertname + "/deadbeef",
		Alertname: alertname,
		Alert:     alert,
		Target: domain.TargetRef{
			TargetType: domain.TargetPod,
			Namespace:  "payments",
			Pod:        "api-0",
			Container:  "api",
		},
	}
}

func TestExecuteAcksAndPersistsReportAndAnalysis(t *testing.T) {
	store := newFakeStore()
	p := New(testConfig(), Providers{K8s: fakeK8s{}, Prom: fakeProm{}, Logs: fakeLogs{}}, store, nil, nil, nil)

	result := p.Execute(context.Background(), newJob("KubePodCrashLooping"))

	require.Equal(t, queue.DispositionAck, result.Disposition)
	require.NoError(t, result.Err)
	assert.Len(t, store.markdown, 1)
	assert.Len(t, store.jsonBody, 1)
	for k := range store.markdown {
		assert.Equal(t, "KubePodCrashLooping/deadbeef.md", k)
	}
}

func TestExecuteDetectsFamilyBeforeScoring(t *testing.T) {
	store := newFakeStore()
	reg := diagnostics.NewRegistry()
	p := New(testConfig(), Providers{K8s: fakeK8s{}, Prom: fakeProm{}, Logs: fakeLogs{}}, store, nil, reg, nil)

	job := newJob("KubePodCrashLooping")
	result := p.Execute(context.Background(), job)

	require.Equal(t, queue.DispositionAck, result.Disposition)
	require.Len(t, store.jsonBody, 1)
}

func TestExecuteNaksOnPersistFailure(t *testing.T) {
	p := New(testConfig(), Providers{}, failingStore{}, nil, nil, nil)

	result := p.Execute(context.Background(), newJob("TargetDown"))

	assert.Equal(t, queue.DispositionNak, result.Disposition)
	assert.Error(t, result.Err)
}

type failingStore struct{}

func (failingStore) Head(ctx context.Context, key string) (bool, time.Time, error) {
	return false, time.Time{}, nil
}
func (failingStore) PutMarkdown(ctx context.Context, key, body string) error {
	return assert.AnError
}
func (failingStore) PutJSON(ctx context.Context, key string, body []byte) error {
	return assert.AnError
}

func TestDedupHashFromJobIDSplitsOnAlertnamePrefix(t *testing.T) {
	assert.Equal(t, "abc123", dedupHashFromJobID("KubePodCrashLooping/abc123", "KubePodCrashLooping"))
}

func TestDedupHashFromJobIDFallsBackToRawIDWithoutPrefix(t *testing.T) {
	assert.Equal(t, "opaque-id", dedupHashFromJobID("opaque-id", "SomeOtherAlert"))
}
