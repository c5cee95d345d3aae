package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarka/ent"
	"github.com/codeready-toolchain/tarka/ent/alertjob"
	"github.com/codeready-toolchain/tarka/internal/config"
	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/testutil"
)

type stubInvestigator struct {
	result *ExecutionResult
	calls  int
}

func (s *stubInvestigator) Execute(context.Context, *Job) *ExecutionResult {
	s.calls++
	return s.result
}

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		Concurrency:       1,
		FetchBatch:        1,
		FetchInterval:     50 * time.Millisecond,
		InProgressTimeout: 5 * time.Second,
		MaxDeliver:        3,
		HeartbeatInterval: 100 * time.Millisecond,
	}
}

func publishTestJob(t *testing.T, pub *Publisher, id string) {
	t.Helper()
	alert := domain.NewAlertInstance("fp1", map[string]string{"alertname": "KubePodCrashLooping"}, nil, "", "", "", "firing", "firing")
	require.NoError(t, pub.Publish(context.Background(), id, alert, domain.TargetRef{}))
}

func TestWorkerAcksSuccessfulJob(t *testing.T) {
	client := testutil.SetupTestDatabase(t)
	pub := NewPublisher(client)
	publishTestJob(t, pub, "KubePodCrashLooping/abc")

	inv := &stubInvestigator{result: &ExecutionResult{Disposition: DispositionAck}}
	w := NewWorker("w1", "pod1", client, testQueueConfig(), inv)

	job, row, err := w.claimNextJob(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "KubePodCrashLooping", job.Alertname)

	result := w.execute(context.Background(), job)
	require.NoError(t, w.disposition(context.Background(), row, job, result))

	got, err := client.AlertJob.Get(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, alertjob.StatusCompleted, got.Status)
}

func TestWorkerNaksFailedJobBelowMaxDeliver(t *testing.T) {
	client := testutil.SetupTestDatabase(t)
	pub := NewPublisher(client)
	publishTestJob(t, pub, "KubePodCrashLooping/def")

	inv := &stubInvestigator{result: &ExecutionResult{Disposition: DispositionNak, Err: fmt.Errorf("boom")}}
	w := NewWorker("w1", "pod1", client, testQueueConfig(), inv)

	job, row, err := w.claimNextJob(context.Background())
	require.NoError(t, err)

	result := w.execute(context.Background(), job)
	require.NoError(t, w.disposition(context.Background(), row, job, result))

	got, err := client.AlertJob.Get(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, alertjob.StatusPending, got.Status)
	assert.True(t, got.AvailableAt.After(time.Now()))
}

func TestWorkerMovesToDeadLetterAtMaxDeliver(t *testing.T) {
	client := testutil.SetupTestDatabase(t)
	pub := NewPublisher(client)
	publishTestJob(t, pub, "KubePodCrashLooping/ghi")

	cfg := testQueueConfig()
	inv := &stubInvestigator{result: &ExecutionResult{Disposition: DispositionNak, Err: fmt.Errorf("boom")}}
	w := NewWorker("w1", "pod1", client, cfg, inv)

	var lastJob *Job
	var claimed *Job
	var claimedRow *ent.AlertJob
	for i := 0; i < cfg.MaxDeliver; i++ {
		j, r, err := w.claimNextJob(context.Background())
		require.NoError(t, err)
		claimed, claimedRow = j, r
		res := w.execute(context.Background(), j)
		require.NoError(t, w.disposition(context.Background(), r, j, res))
		if i < cfg.MaxDeliver-1 {
			require.NoError(t, client.AlertJob.UpdateOneID(r.ID).SetAvailableAt(time.Now()).Exec(context.Background()))
		}
	}
	lastJob = claimed

	got, err := client.AlertJob.Get(context.Background(), claimedRow.ID)
	require.NoError(t, err)
	assert.Equal(t, alertjob.StatusDeadLetter, got.Status)
	assert.Equal(t, cfg.MaxDeliver, lastJob.DeliveryCount)
}
