// Package queue implements the durable at-least-once job queue (C4):
// Postgres-backed claim/heartbeat/ack/nak/DLQ semantics standing in for a
// JetStream-shaped durable queue, since no example repo in the retrieved
// corpus imports a NATS client. The claim idiom (FOR UPDATE SKIP LOCKED
// plus a heartbeat goroutine) is carried over from the teacher's session
// queue, generalized from AlertSession to AlertJob.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// Sentinel errors for queue operations.
var (
	// ErrNoJobsAvailable indicates no claimable job was found.
	ErrNoJobsAvailable = errors.New("no jobs available")

	// ErrAtCapacity indicates the configured concurrency limit is in use.
	ErrAtCapacity = errors.New("at capacity")
)

// Job is one claimed unit of work.
type Job struct {
	ID            string
	Alertname     string
	Alert         *domain.AlertInstance
	Target        domain.TargetRef
	DeliveryCount int
}

// Disposition is what the worker should do with a job once Investigator.Execute returns.
type Disposition string

// Job dispositions.
const (
	DispositionAck Disposition = "ack"
	DispositionNak Disposition = "nak"
)

// ExecutionResult is the terminal state Investigator.Execute returns. The
// investigator owns the entire investigation lifecycle (evidence
// collection, scoring, report persistence); the worker only handles
// claiming, heartbeat, and the ack/nak/DLQ disposition. Investigation is
// populated even on success, so a caller that bypasses the durable queue
// (cmd/tarka's investigate and run-job commands) can render or dump it
// directly instead of re-reading back from object storage.
type ExecutionResult struct {
	Disposition   Disposition
	Err           error
	Investigation *domain.Investigation
}

// Investigator runs one investigation end to end for a claimed job.
type Investigator interface {
	Execute(ctx context.Context, job *Job) *ExecutionResult
}

// PoolHealth reports the worker pool's aggregate health.
type PoolHealth struct {
	IsHealthy     bool           `json:"is_healthy"`
	DBReachable   bool           `json:"db_reachable"`
	DBError       string         `json:"db_error,omitempty"`
	PodID         string         `json:"pod_id"`
	ActiveWorkers int            `json:"active_workers"`
	TotalWorkers  int            `json:"total_workers"`
	QueueDepth    int            `json:"queue_depth"`
	WorkerStats   []WorkerHealth `json:"worker_stats"`
}

// WorkerHealth reports one worker's health.
type WorkerHealth struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	CurrentJobID  string    `json:"current_job_id,omitempty"`
	JobsProcessed int       `json:"jobs_processed"`
	LastActivity  time.Time `json:"last_activity"`
}
