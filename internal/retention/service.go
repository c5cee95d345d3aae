// Package retention periodically prunes case and queue rows that have
// aged past their configured TTL, so the database doesn't grow unbounded
// for a long-running deployment.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/tarka/ent"
	"github.com/codeready-toolchain/tarka/ent/alertjob"
	"github.com/codeready-toolchain/tarka/ent/caserecord"
	"github.com/codeready-toolchain/tarka/internal/config"
)

// Service runs the background retention loop:
//   - deletes closed CaseRecord rows older than CaseRetention
//   - deletes completed/dead_letter AlertJob rows older than JobRetention
//
// Both deletes are idempotent and safe to run from multiple pods.
type Service struct {
	cfg    config.RetentionConfig
	client *ent.Client

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService wraps an ent client as a retention Service.
func NewService(cfg config.RetentionConfig, client *ent.Client) *Service {
	return &Service{cfg: cfg, client: client}
}

// Start launches the background retention loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("retention service started",
		"case_retention", s.cfg.CaseRetention, "job_retention", s.cfg.JobRetention, "interval", s.cfg.Interval)
}

// Stop signals the retention loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("retention service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	interval := s.cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.pruneClosedCases(ctx)
	s.pruneFinishedJobs(ctx)
}

func (s *Service) pruneClosedCases(ctx context.Context) {
	if s.cfg.CaseRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.cfg.CaseRetention)
	count, err := s.client.CaseRecord.Delete().
		Where(
			caserecord.StatusEQ(caserecord.StatusClosed),
			caserecord.UpdatedAtLT(cutoff),
		).
		Exec(ctx)
	if err != nil {
		slog.Error("retention: prune closed cases failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: pruned closed cases", "count", count)
	}
}

func (s *Service) pruneFinishedJobs(ctx context.Context) {
	if s.cfg.JobRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.cfg.JobRetention)
	count, err := s.client.AlertJob.Delete().
		Where(
			alertjob.StatusIn(alertjob.StatusCompleted, alertjob.StatusDeadLetter),
			alertjob.CreatedAtLT(cutoff),
		).
		Exec(ctx)
	if err != nil {
		slog.Error("retention: prune finished jobs failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: pruned finished jobs", "count", count)
	}
}
