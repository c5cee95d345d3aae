package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/tarka/internal/config"
	"github.com/codeready-toolchain/tarka/internal/dedup"
	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/providers"
	"github.com/codeready-toolchain/tarka/internal/storage"
)

// Enqueuer is the seam onto the durable queue. Publish must be idempotent
// on id: republishing the same id is a no-op, not a duplicate job.
type Enqueuer interface {
	Publish(ctx context.Context, id string, alert *domain.AlertInstance, target domain.TargetRef) error
}

// Pipeline implements the ingest-time freshness gate and in-batch dedup
// described in spec.md §4.1: resolved alerts are dropped, allowlist misses
// are dropped, and an alert whose dedup key already has a fresh report in
// the object store is skipped without enqueueing a new investigation.
type Pipeline struct {
	store    providers.ObjectStore
	enqueue  Enqueuer
	cfg      *config.Config
	now      func() time.Time
	logger   *slog.Logger
}

// NewPipeline wires the ingest pipeline's collaborators.
func NewPipeline(store providers.ObjectStore, enqueue Enqueuer, cfg *config.Config) *Pipeline {
	return &Pipeline{
		store:   store,
		enqueue: enqueue,
		cfg:     cfg,
		now:     time.Now,
		logger:  slog.Default().With("component", "ingest.pipeline"),
	}
}

// Ingest processes one webhook batch, applying the firing/resolved,
// allowlist, and freshness gates before enqueueing the survivors. A
// non-nil return means the HTTP request should fail so Alertmanager
// retries the whole payload; publishing is idempotent on the dedup key, so
// a retry re-derives the same keys and only re-enqueues what didn't
// already land.
func (p *Pipeline) Ingest(ctx context.Context, alerts []*domain.AlertInstance) (Stats, error) {
	stats := Stats{Received: len(alerts)}
	seen := make(map[string]bool, len(alerts))
	var firstPublishErr error

	for _, a := range alerts {
		if !a.IsFiring() {
			stats.SkippedResolved++
			continue
		}
		alertname := a.AlertName()
		if !p.cfg.Allowed(alertname) {
			stats.SkippedAllowlist++
			continue
		}

		now := p.now()
		target := targetFromLabels(a, p.cfg.ClusterName)
		key, ttl := p.dedupKey(a, target, now)

		if seen[key.String()] {
			stats.SkippedDuplicate++
			continue
		}

		exists, lastModified, err := p.store.Head(ctx, storage.ReportKey(alertname, key.Hash))
		if err != nil {
			// Not a clean "does not exist": treat as unknown and proceed
			// rather than drop the alert. Writes are idempotent on key
			// collision, so the worst case is a redundant investigation,
			// never a silently skipped one.
			stats.Errors++
			p.logger.Warn("freshness check failed; proceeding as not-yet-investigated", "alertname", alertname, "error", err)
			exists = false
		}
		if exists && now.Sub(lastModified) < ttl {
			stats.SkippedDuplicate++
			continue
		}

		if err := p.enqueue.Publish(ctx, key.String(), a, target); err != nil {
			stats.Errors++
			p.logger.Error("publish failed", "alertname", alertname, "error", err)
			if firstPublishErr == nil {
				firstPublishErr = fmt.Errorf("publish %s: %w", alertname, err)
			}
			continue
		}

		seen[key.String()] = true
		stats.ProcessedFiring++
		stats.StoredNew++
	}

	return stats, firstPublishErr
}

// dedupKey picks the rollout-workload key when the alertname is in the
// closed collapsing set, falling back to the per-fingerprint key, and
// returns the freshness TTL appropriate to which key kind was used.
func (p *Pipeline) dedupKey(a *domain.AlertInstance, target domain.TargetRef, now time.Time) (dedup.Key, time.Duration) {
	if k, ok := dedup.RolloutWorkloadKey(a, target); ok {
		return k, p.cfg.Freshness.RolloutTTL
	}
	return dedup.FingerprintKey(a, now), p.cfg.Freshness.DefaultTTL
}
