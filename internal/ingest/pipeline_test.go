package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/internal/config"
	"github.com/codeready-toolchain/tarka/internal/domain"
)

type fakeStore struct {
	exists       map[string]time.Time
	headErr      error
}

func (f *fakeStore) Head(_ context.Context, key string) (bool, time.Time, error) {
	if f.headErr != nil {
		return false, time.Time{}, f.headErr
	}
	t, ok := f.exists[key]
	return ok, t, nil
}
func (f *fakeStore) PutMarkdown(context.Context, string, string) error { return nil }
func (f *fakeStore) PutJSON(context.Context, string, []byte) error     { return nil }

type fakeEnqueuer struct {
	published []string
	err       error
}

func (f *fakeEnqueuer) Publish(_ context.Context, id string, _ *domain.AlertInstance, _ domain.TargetRef) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, id)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		ClusterName: "test",
		Freshness:   config.FreshnessConfig{DefaultTTL: time.Hour, RolloutTTL: 4 * time.Hour},
	}
}

func firingAlert(fingerprint, alertname string) *domain.AlertInstance {
	return domain.NewAlertInstance(fingerprint, map[string]string{"alertname": alertname, "namespace": "payments"}, nil, "", "", "", "firing", "firing")
}

func resolvedAlert(fingerprint, alertname string) *domain.AlertInstance {
	now := time.Now().UTC().Format(time.RFC3339)
	return domain.NewAlertInstance(fingerprint, map[string]string{"alertname": alertname}, nil, "", now, "", "resolved", "resolved")
}

func TestIngestSkipsResolvedAlerts(t *testing.T) {
	p := NewPipeline(&fakeStore{exists: map[string]time.Time{}}, &fakeEnqueuer{}, testConfig())
	stats, err := p.Ingest(context.Background(), []*domain.AlertInstance{resolvedAlert("fp1", "KubePodCrashLooping")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedResolved)
	assert.Equal(t, 0, stats.ProcessedFiring)
}

func TestIngestEnqueuesNewFiringAlert(t *testing.T) {
	enq := &fakeEnqueuer{}
	p := NewPipeline(&fakeStore{exists: map[string]time.Time{}}, enq, testConfig())
	stats, err := p.Ingest(context.Background(), []*domain.AlertInstance{firingAlert("fp1", "KubePodCrashLooping")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ProcessedFiring)
	assert.Equal(t, 1, stats.StoredNew)
	assert.Len(t, enq.published, 1)
}

func TestIngestSkipsAllowlistMiss(t *testing.T) {
	cfg := testConfig()
	cfg.AlertnameAllow = []string{"KubeJobFailed"}
	p := NewPipeline(&fakeStore{exists: map[string]time.Time{}}, &fakeEnqueuer{}, cfg)
	stats, err := p.Ingest(context.Background(), []*domain.AlertInstance{firingAlert("fp1", "KubePodCrashLooping")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedAllowlist)
}

func TestIngestSkipsFreshExistingReport(t *testing.T) {
	key := dedupKeyForTest(t, firingAlert("fp1", "KubePodCrashLooping"))
	store := &fakeStore{exists: map[string]time.Time{
		"KubePodCrashLooping/" + key + ".md": time.Now(),
	}}
	p := NewPipeline(store, &fakeEnqueuer{}, testConfig())
	stats, err := p.Ingest(context.Background(), []*domain.AlertInstance{firingAlert("fp1", "KubePodCrashLooping")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedDuplicate)
	assert.Equal(t, 0, stats.StoredNew)
}

func TestIngestDedupesWithinBatch(t *testing.T) {
	enq := &fakeEnqueuer{}
	p := NewPipeline(&fakeStore{exists: map[string]time.Time{}}, enq, testConfig())
	a := firingAlert("fp1", "KubePodCrashLooping")
	stats, err := p.Ingest(context.Background(), []*domain.AlertInstance{a, a})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StoredNew)
	assert.Equal(t, 1, stats.SkippedDuplicate)
}

func TestIngestProceedsOnHeadErrorInsteadOfDroppingAlert(t *testing.T) {
	enq := &fakeEnqueuer{}
	store := &fakeStore{exists: map[string]time.Time{}, headErr: errors.New("transient 500 from object store")}
	p := NewPipeline(store, enq, testConfig())
	stats, err := p.Ingest(context.Background(), []*domain.AlertInstance{firingAlert("fp1", "KubePodCrashLooping")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.StoredNew)
	assert.Len(t, enq.published, 1)
}

func TestIngestFailsRequestWhenPublishFails(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("queue unreachable")}
	p := NewPipeline(&fakeStore{exists: map[string]time.Time{}}, enq, testConfig())
	stats, err := p.Ingest(context.Background(), []*domain.AlertInstance{firingAlert("fp1", "KubePodCrashLooping")})
	require.Error(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 0, stats.StoredNew)
	assert.Empty(t, enq.published)
}

func dedupKeyForTest(t *testing.T, a *domain.AlertInstance) string {
	t.Helper()
	p := NewPipeline(nil, nil, testConfig())
	k, _ := p.dedupKey(a, targetFromLabels(a, "test"), time.Now())
	return k.Hash
}
