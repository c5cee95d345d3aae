package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codeready-toolchain/tarka/ent"
	"github.com/codeready-toolchain/tarka/internal/caseindex"
	"github.com/codeready-toolchain/tarka/internal/config"
	"github.com/codeready-toolchain/tarka/internal/db"
	"github.com/codeready-toolchain/tarka/internal/diagnostics"
	"github.com/codeready-toolchain/tarka/internal/diagnostics/patterns"
	"github.com/codeready-toolchain/tarka/internal/logging"
	"github.com/codeready-toolchain/tarka/internal/metrics"
	"github.com/codeready-toolchain/tarka/internal/pipeline"
	"github.com/codeready-toolchain/tarka/internal/providers"
	"github.com/codeready-toolchain/tarka/internal/providers/alertmanagerprovider"
	"github.com/codeready-toolchain/tarka/internal/providers/awsprovider"
	"github.com/codeready-toolchain/tarka/internal/providers/githubprovider"
	"github.com/codeready-toolchain/tarka/internal/providers/k8sprovider"
	"github.com/codeready-toolchain/tarka/internal/providers/logsprovider"
	"github.com/codeready-toolchain/tarka/internal/providers/prometheusprovider"
	"github.com/codeready-toolchain/tarka/internal/report"
	"github.com/codeready-toolchain/tarka/internal/storage"
)

// app bundles every collaborator a subcommand might need, built once from
// config so serve/worker/investigate/run-job/list don't each reimplement
// provider and storage construction.
type app struct {
	cfg        *config.Config
	store      providers.ObjectStore
	dbClient   *ent.Client
	pipeline   *pipeline.Pipeline
	metrics    *metrics.Metrics
	alertmgr   *alertmanagerprovider.Provider
	logger     *slog.Logger
}

// buildApp loads configuration, opens every best-effort provider and
// storage backend, and wires the investigation pipeline. A provider whose
// endpoint isn't configured is left nil, letting evidence collection
// degrade per source rather than failing startup.
func buildApp(ctx context.Context, openDB bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat)
	logger := slog.Default()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build object store: %w", err)
	}

	var dbClient *ent.Client
	if openDB {
		dbClient, err = db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
	}

	p := buildProviders(ctx, cfg, logger)

	reg := diagnostics.NewRegistry(
		diagnostics.NewCrashLoopModule(patterns.All),
		diagnostics.NewJobFailureModule(patterns.All),
		diagnostics.NewRolloutModule(),
	)

	var caseIndexer providers.CaseIndexer
	if dbClient != nil {
		caseIndexer = caseindex.NewIndex(dbClient)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	pl := pipeline.New(cfg, p, store, caseIndexer, reg, nil)

	return &app{
		cfg:      cfg,
		store:    store,
		dbClient: dbClient,
		pipeline: pl,
		metrics:  m,
		alertmgr: alertmanagerprovider.New(cfg.Providers.AlertmanagerURL),
		logger:   logger,
	}, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (providers.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3Store(ctx, cfg.Storage.S3Bucket, cfg.Storage.KeyPrefix)
	default:
		return storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.KeyPrefix), nil
	}
}

func buildProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) pipeline.Providers {
	var p pipeline.Providers

	k8s, err := k8sprovider.New(cfg.Providers.KubeconfigPath, cfg.Providers.InClusterK8s)
	if err != nil {
		logger.Warn("kubernetes provider unavailable; k8s evidence will be skipped", "error", err)
	} else {
		p.K8s = k8s
	}

	if cfg.Providers.PrometheusURL != "" {
		prom, err := prometheusprovider.New(cfg.Providers.PrometheusURL)
		if err != nil {
			logger.Warn("prometheus provider unavailable; metrics evidence will be skipped", "error", err)
		} else {
			p.Prom = prom
		}
	}

	p.Logs = logsprovider.New(cfg.Providers.LokiURL)

	if cfg.Providers.AWSRegion != "" {
		aws, err := awsprovider.New(ctx, cfg.Providers.AWSRegion)
		if err != nil {
			logger.Warn("aws provider unavailable; aws evidence will be skipped", "error", err)
		} else {
			p.AWS = aws
		}
	}

	p.GitHub = githubprovider.New(cfg.Providers.GitHubToken)

	return p
}

func (a *app) Close() {
	if a.dbClient != nil {
		_ = a.dbClient.Close()
	}
}

// dumpMode validates the --dump-json flag shared by investigate and
// run-job, returning "" when JSON dumping wasn't requested (the normal,
// report-to-object-storage path).
func dumpMode(flag string) (report.DumpMode, error) {
	switch flag {
	case "":
		return "", nil
	case string(report.DumpAnalysis):
		return report.DumpAnalysis, nil
	case string(report.DumpInvestigation):
		return report.DumpInvestigation, nil
	default:
		return "", fmt.Errorf("--dump-json must be %q or %q, got %q", report.DumpAnalysis, report.DumpInvestigation, flag)
	}
}
