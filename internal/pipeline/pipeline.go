// Package pipeline implements the investigation pipeline (C5): the
// queue.Investigator that turns one claimed Job into a scored, reported
// Investigation by running the fixed stage order spec.md §4.3 describes.
// Every stage after evidence collection is pure and deterministic given
// the same Investigation; only evidence collection talks to the outside
// world, and it does so best-effort, recording failures via
// Investigation.AddError rather than aborting the run — a partial report
// beats no report.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/codeready-toolchain/tarka/internal/capacity"
	"github.com/codeready-toolchain/tarka/internal/caseindex"
	"github.com/codeready-toolchain/tarka/internal/changes"
	"github.com/codeready-toolchain/tarka/internal/config"
	"github.com/codeready-toolchain/tarka/internal/diagnostics"
	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/family"
	"github.com/codeready-toolchain/tarka/internal/features"
	"github.com/codeready-toolchain/tarka/internal/noise"
	"github.com/codeready-toolchain/tarka/internal/providers"
	"github.com/codeready-toolchain/tarka/internal/queue"
	"github.com/codeready-toolchain/tarka/internal/report"
	"github.com/codeready-toolchain/tarka/internal/scoring"
	"github.com/codeready-toolchain/tarka/internal/storage"
	"github.com/codeready-toolchain/tarka/internal/triage"
)

// Providers bundles the evidence-collection seams the pipeline consumes.
// Any field may be nil: evidence collection for that source is then
// skipped rather than failing the run, the same graceful-degradation
// contract [[noise]] and [[capacity]] already apply to a nil/failing
// Prometheus provider.
type Providers struct {
	K8s    providers.K8sProvider
	Prom   providers.PrometheusProvider
	Logs   providers.LogsProvider
	AWS    providers.AWSProvider
	GitHub providers.GitHubProvider
}

// Pipeline implements queue.Investigator, owning one investigation's
// entire lifecycle from claimed Job to persisted report.
type Pipeline struct {
	cfg        *config.Config
	providers  Providers
	store      providers.ObjectStore
	caseIndex  providers.CaseIndexer
	registry   *diagnostics.Registry
	calibrator diagnostics.Calibrator
	now        func() time.Time
	logger     *slog.Logger
}

// New wires the investigation pipeline's collaborators. calibrator may be
// nil, which [[diagnostics]]'s Registry.Run treats as no calibration.
func New(cfg *config.Config, p Providers, store providers.ObjectStore, caseIndex providers.CaseIndexer, registry *diagnostics.Registry, calibrator diagnostics.Calibrator) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		providers:  p,
		store:      store,
		caseIndex:  caseIndex,
		registry:   registry,
		calibrator: calibrator,
		now:        time.Now,
		logger:     slog.Default().With("component", "pipeline"),
	}
}

// Execute runs one investigation end to end. It always returns a
// disposition: DispositionNak only for errors a redelivery could plausibly
// fix (persisting the report); every stage up through scoring degrades
// gracefully instead of failing the job, since an incomplete-but-persisted
// report is more useful to an on-call reader than a retried job that hits
// the same unreachable provider again.
func (p *Pipeline) Execute(ctx context.Context, job *queue.Job) *queue.ExecutionResult {
	now := p.now()
	window := domain.WindowEndingNow(p.cfg.Investigation.Window, now)
	inv := domain.NewInvestigation(job.Alert, window)
	inv.Target = job.Target

	family.DetectForInvestigation(inv)

	p.collectEvidence(ctx, inv)

	noise.Analyze(ctx, p.providers.Prom, inv)

	changes.Analyze(inv)
	inv.Analysis.Features = features.Compute(inv, inv.Analysis.Change)
	noise.Postprocess(inv)

	capacity.Analyze(ctx, p.providers.Prom, inv)

	inv.Analysis.Decision = triage.BaseDecision(inv)
	if enrichment := triage.FamilyEnrichment(inv); enrichment != nil {
		inv.Analysis.Enrichment = *enrichment
	}

	if p.registry != nil {
		p.registry.Run(inv, true, p.calibrator)
	}

	scoring.ScoreInvestigation(inv)

	if err := p.persist(ctx, job, inv, now); err != nil {
		p.logger.Error("persist failed", "job_id", job.ID, "error", err)
		return &queue.ExecutionResult{Disposition: queue.DispositionNak, Err: err, Investigation: inv}
	}

	return &queue.ExecutionResult{Disposition: queue.DispositionAck, Investigation: inv}
}

// collectEvidence runs the best-effort, target-shape-driven evidence
// collection stage (§4.3 stage 3). Each source degrades independently.
func (p *Pipeline) collectEvidence(ctx context.Context, inv *domain.Investigation) {
	collectK8s(ctx, p.providers.K8s, inv)
	collectMetrics(ctx, p.providers.Prom, inv)
	collectLogs(ctx, p.providers.Logs, inv)
	collectAWS(ctx, p.providers.AWS, inv)
	collectGitHub(ctx, p.providers.GitHub, inv, inv.Window.StartTime)
}

// persist renders the report, dumps the raw analysis JSON, writes both to
// object storage under the dedup-key-derived report/analysis keys, and
// indexes the run into the case store. A failure anywhere here is the one
// class of error this pipeline naks: nothing was durably recorded.
func (p *Pipeline) persist(ctx context.Context, job *queue.Job, inv *domain.Investigation, now time.Time) error {
	dedupHash := dedupHashFromJobID(job.ID, job.Alertname)

	md := report.Render(inv, now)
	if err := p.store.PutMarkdown(ctx, storage.ReportKey(job.Alertname, dedupHash), md); err != nil {
		return err
	}

	analysisJSON, err := report.Dump(inv, report.DumpAnalysis)
	if err != nil {
		return err
	}
	if err := p.store.PutJSON(ctx, storage.AnalysisKey(job.Alertname, dedupHash), analysisJSON); err != nil {
		return err
	}

	if p.caseIndex != nil {
		key := caseindex.CaseKey(caseindex.InputFromInvestigation(inv), now)
		if _, _, _, err := p.caseIndex.IndexIncidentRun(ctx, key, inv); err != nil {
			p.logger.Warn("case index write failed", "job_id", job.ID, "error", err)
		}
	}

	return nil
}

// dedupHashFromJobID recovers the dedup key's hash half from the queue
// job's id, which [[ingest]] always publishes as "<alertname>/<hash>"
// (dedup.Key.String()) — recomputing the dedup key here would risk
// drifting from whichever key variant (fingerprint vs. rollout-workload)
// ingest actually chose.
func dedupHashFromJobID(jobID, alertname string) string {
	prefix := alertname + "/"
	if strings.HasPrefix(jobID, prefix) {
		return jobID[len(prefix):]
	}
	return jobID
}
