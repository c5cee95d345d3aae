package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"entgo.io/ent/dialect/sql"

	"github.com/codeready-toolchain/tarka/ent"
	"github.com/codeready-toolchain/tarka/ent/alertjob"
	"github.com/codeready-toolchain/tarka/internal/config"
	"github.com/codeready-toolchain/tarka/internal/domain"
)

// WorkerStatus is a worker's current activity state.
type WorkerStatus string

// Worker status constants.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// Worker polls for and processes AlertJob rows.
type Worker struct {
	id           string
	podID        string
	client       *ent.Client
	cfg          config.QueueConfig
	investigator Investigator
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup

	mu            sync.RWMutex
	status        WorkerStatus
	currentJobID  string
	jobsProcessed int
	lastActivity  time.Time
}

// NewWorker creates a queue worker.
func NewWorker(id, podID string, client *ent.Client, cfg config.QueueConfig, investigator Investigator) *Worker {
	return &Worker{
		id:           id,
		podID:        podID,
		client:       client,
		cfg:          cfg,
		investigator: investigator,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker's polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for its current job to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health reports this worker's current state.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:            w.id,
		Status:        string(w.status),
		CurrentJobID:  w.currentJobID,
		JobsProcessed: w.jobsProcessed,
		LastActivity:  w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	log := slog.With("worker_id", w.id, "pod_id", w.podID)
	log.Info("worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoJobsAvailable) || errors.Is(err, ErrAtCapacity) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("error processing job", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollInterval jitters the base fetch interval so many workers polling in
// lockstep don't all hit the database on the same tick.
func (w *Worker) pollInterval() time.Duration {
	base := w.cfg.FetchInterval
	if base <= 0 {
		base = 2 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base / 2)))
	return base + jitter
}

func (w *Worker) pollAndProcess(ctx context.Context) error {
	job, entJob, err := w.claimNextJob(ctx)
	if err != nil {
		return err
	}

	log := slog.With("job_id", job.ID, "worker_id", w.id, "delivery_count", job.DeliveryCount)
	log.Info("job claimed")

	w.setStatus(WorkerStatusWorking, job.ID)
	defer w.setStatus(WorkerStatusIdle, "")

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.InProgressTimeout)
	defer cancel()

	heartbeatCtx, cancelHeartbeat := context.WithCancel(jobCtx)
	go w.runHeartbeat(heartbeatCtx, entJob.ID)

	result := w.execute(jobCtx, job)
	cancelHeartbeat()

	if err := w.disposition(context.Background(), entJob, job, result); err != nil {
		log.Error("failed to apply disposition", "error", err)
		return err
	}

	w.mu.Lock()
	w.jobsProcessed++
	w.mu.Unlock()
	log.Info("job processing complete", "disposition", result.Disposition)
	return nil
}

// execute runs the investigator, converting a panic into a nak so one
// investigation's bug can never wedge the worker loop.
func (w *Worker) execute(ctx context.Context, job *Job) (result *ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &ExecutionResult{Disposition: DispositionNak, Err: fmt.Errorf("investigator panic: %v", r)}
		}
	}()
	result = w.investigator.Execute(ctx, job)
	if result == nil {
		result = &ExecutionResult{Disposition: DispositionNak, Err: fmt.Errorf("investigator returned nil result")}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && result.Err == nil {
		result = &ExecutionResult{Disposition: DispositionNak, Err: fmt.Errorf("job timed out after %v", w.cfg.InProgressTimeout)}
	}
	return result
}

// claimNextJob atomically claims the oldest eligible pending job using
// FOR UPDATE SKIP LOCKED so concurrent workers never double-claim.
func (w *Worker) claimNextJob(ctx context.Context) (*Job, *ent.AlertJob, error) {
	tx, err := w.client.Tx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	row, err := tx.AlertJob.Query().
		Where(
			alertjob.StatusEQ(alertjob.StatusPending),
			alertjob.AvailableAtLTE(now),
		).
		Order(ent.Asc(alertjob.FieldCreatedAt)).
		Limit(1).
		ForUpdate(sql.WithLockAction(sql.SkipLocked)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil, ErrNoJobsAvailable
		}
		return nil, nil, fmt.Errorf("query pending job: %w", err)
	}

	row, err = row.Update().
		SetStatus(alertjob.StatusInProgress).
		SetPodID(w.podID).
		SetStartedAt(now).
		SetLastHeartbeatAt(now).
		AddDeliveryCount(1).
		Save(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("claim job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit claim: %w", err)
	}

	job, err := JobFromRow(row)
	if err != nil {
		return nil, nil, fmt.Errorf("decode claimed job: %w", err)
	}
	return job, row, nil
}

// JobFromRow decodes a persisted AlertJob row into the in-memory Job shape
// the Investigator consumes. Exported so cmd/tarka's run-job subcommand can
// reuse the same decode path outside the normal claim loop.
func JobFromRow(row *ent.AlertJob) (*Job, error) {
	var alert domain.AlertInstance
	if err := json.Unmarshal([]byte(row.AlertData), &alert); err != nil {
		return nil, fmt.Errorf("unmarshal alert_data: %w", err)
	}
	var target domain.TargetRef
	if row.TargetData != "" {
		if err := json.Unmarshal([]byte(row.TargetData), &target); err != nil {
			return nil, fmt.Errorf("unmarshal target_data: %w", err)
		}
	}
	return &Job{
		ID:            row.ID,
		Alertname:     row.Alertname,
		Alert:         &alert,
		Target:        target,
		DeliveryCount: row.DeliveryCount,
	}, nil
}

func (w *Worker) runHeartbeat(ctx context.Context, jobID string) {
	interval := w.cfg.HeartbeatInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.client.AlertJob.UpdateOneID(jobID).
				SetLastHeartbeatAt(time.Now()).
				Exec(ctx); err != nil {
				slog.Warn("heartbeat update failed", "job_id", jobID, "error", err)
			}
		}
	}
}

// disposition applies ack/nak/DLQ semantics: a nil Err acks (job
// completed); a non-nil Err either nak's the job back to pending with a
// backoff delay, or — once delivery_count has reached max_deliver — moves
// it to dead_letter so one permanently failing alert can't spin forever.
func (w *Worker) disposition(ctx context.Context, row *ent.AlertJob, job *Job, result *ExecutionResult) error {
	now := time.Now()

	if result.Err == nil {
		return w.client.AlertJob.UpdateOneID(row.ID).
			SetStatus(alertjob.StatusCompleted).
			SetCompletedAt(now).
			Exec(ctx)
	}

	update := w.client.AlertJob.UpdateOneID(row.ID).
		SetLastError(result.Err.Error())

	if job.DeliveryCount >= w.cfg.MaxDeliver {
		return update.
			SetStatus(alertjob.StatusDeadLetter).
			SetCompletedAt(now).
			Exec(ctx)
	}

	return update.
		SetStatus(alertjob.StatusPending).
		SetAvailableAt(now.Add(nakBackoff(job.DeliveryCount))).
		Exec(ctx)
}

// nakBackoff grows the redelivery delay with delivery_count, capped at 5
// minutes, so a transient upstream outage doesn't hammer providers.
func nakBackoff(deliveryCount int) time.Duration {
	d := time.Duration(deliveryCount) * 10 * time.Second
	const maxBackoff = 5 * time.Minute
	if d > maxBackoff {
		return maxBackoff
	}
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func (w *Worker) setStatus(status WorkerStatus, jobID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentJobID = jobID
	w.lastActivity = time.Now()
}
