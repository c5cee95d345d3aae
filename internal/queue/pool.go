package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/tarka/ent"
	"github.com/codeready-toolchain/tarka/ent/alertjob"
	"github.com/codeready-toolchain/tarka/internal/config"
)

// Pool manages a fixed-size set of Workers sharing one Postgres-backed
// queue, the durable-queue counterpart of the teacher's session worker
// pool.
type Pool struct {
	podID        string
	client       *ent.Client
	cfg          config.QueueConfig
	investigator Investigator
	workers      []*Worker
	stopOnce     sync.Once
	started      bool
}

// NewPool creates a worker pool bound to client with cfg.Concurrency workers.
func NewPool(podID string, client *ent.Client, cfg config.QueueConfig, investigator Investigator) *Pool {
	return &Pool{
		podID:        podID,
		client:       client,
		cfg:          cfg,
		investigator: investigator,
		workers:      make([]*Worker, 0, cfg.Concurrency),
	}
}

// Start spawns cfg.Concurrency worker goroutines. Safe to call once;
// subsequent calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	if p.started {
		slog.Warn("worker pool already started, ignoring duplicate Start call", "pod_id", p.podID)
		return
	}
	p.started = true
	slog.Info("starting worker pool", "pod_id", p.podID, "concurrency", p.cfg.Concurrency)
	for i := 0; i < p.cfg.Concurrency; i++ {
		id := fmt.Sprintf("%s-worker-%d", p.podID, i)
		w := NewWorker(id, p.podID, p.client, p.cfg, p.investigator)
		p.workers = append(p.workers, w)
		w.Start(ctx)
	}
}

// Stop signals every worker to stop and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	slog.Info("stopping worker pool")
	for _, w := range p.workers {
		w.Stop()
	}
	slog.Info("worker pool stopped")
}

// Health reports aggregate pool health, including queue depth.
func (p *Pool) Health(ctx context.Context) *PoolHealth {
	depth, err := p.client.AlertJob.Query().
		Where(alertjob.StatusEQ(alertjob.StatusPending)).
		Count(ctx)

	health := &PoolHealth{
		PodID:         p.podID,
		TotalWorkers:  len(p.workers),
		DBReachable:   err == nil,
		QueueDepth:    depth,
		IsHealthy:     err == nil,
	}
	if err != nil {
		health.DBError = err.Error()
	}
	active := 0
	for _, w := range p.workers {
		wh := w.Health()
		health.WorkerStats = append(health.WorkerStats, wh)
		if wh.Status == string(WorkerStatusWorking) {
			active++
		}
	}
	health.ActiveWorkers = active
	return health
}
