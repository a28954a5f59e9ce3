package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	claimengine "recoup/contexts/filing-core/claim-engine"
	"recoup/contexts/filing-core/claim-engine/adapters/marketplaceapi"
	postgresadapter "recoup/contexts/filing-core/claim-engine/adapters/postgres"
	"recoup/contexts/filing-core/claim-engine/application/gates"
	"recoup/contexts/filing-core/claim-engine/application/pacing"
	"recoup/contexts/filing-core/claim-engine/application/quota"
	"recoup/contexts/filing-core/claim-engine/application/workers"
	"recoup/contexts/filing-core/claim-engine/ports"
	"recoup/internal/platform/config"
	"recoup/internal/platform/db"
	"recoup/internal/platform/httpserver"
	"recoup/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres       *db.Postgres
	filingJob      *workers.FilingJob
	statusPollJob  workers.StatusPollJob
	outboxRelay    workers.OutboxRelay
	filingInterval time.Duration
	pollInterval   time.Duration
	outboxInterval time.Duration
	logger         *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	module := buildModule(cfg, pg, logger)
	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := buildModule(cfg, pg, logger)

	return &WorkerApp{
		postgres:      pg,
		filingJob:     module.FilingJob,
		statusPollJob: module.StatusPollJob,
		outboxRelay: workers.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		filingInterval: cfg.FilingPassInterval,
		pollInterval:   cfg.PollPassInterval,
		outboxInterval: cfg.OutboxInterval,
		logger:         logger,
	}, nil
}

func buildModule(cfg config.Config, pg *db.Postgres, logger *slog.Logger) claimengine.Module {
	repo := postgresadapter.NewRepository(pg.DB, logger)

	var flags ports.FeatureFlags = repo
	if cfg.AutofileOverride {
		flags = forcedFlags{}
	}

	return claimengine.NewModule(claimengine.Dependencies{
		Claims:          repo,
		Submissions:     repo,
		Evidence:        repo,
		Shipments:       repo,
		Finance:         repo,
		Flags:           flags,
		Filing:          marketplaceapi.New(cfg.MarketplaceBaseURL, cfg.MarketplaceToken, logger),
		Outbox:          repo,
		Clock:           postgresadapter.SystemClock{},
		IDGen:           postgresadapter.UUIDGenerator{},
		SubmissionPacer: pacing.NewSubmissionPacer(logger),
		PollPacer:       pacing.NewPollPacer(logger),
		GateConfig: gates.Config{
			MinFilingThreshold: cfg.MinFilingThreshold,
			HighValueThreshold: cfg.HighValueThreshold,
			AmountVariance:     cfg.AmountVariance,
		},
		QuotaConfig: quota.Config{
			MaxPerRun:          cfg.MaxFilingsPerRun,
			MaxPerHour:         cfg.MaxFilingsPerHour,
			MaxPerSellerPerDay: cfg.MaxFilingsPerSellerDay,
		},
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
}

// forcedFlags bypasses the feature_flags table for local runs.
type forcedFlags struct{}

func (forcedFlags) AutofileEnabled(_ context.Context) (bool, error) {
	return true, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	filingTicker := time.NewTicker(w.filingInterval)
	defer filingTicker.Stop()
	pollTicker := time.NewTicker(w.pollInterval)
	defer pollTicker.Stop()
	outboxTicker := time.NewTicker(w.outboxInterval)
	defer outboxTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"filing_interval", w.filingInterval.String(),
		"poll_interval", w.pollInterval.String(),
	)

	// Kick a filing pass on startup rather than waiting a full interval.
	w.runFilingPass(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-filingTicker.C:
			w.runFilingPass(ctx)
		case <-pollTicker.C:
			if err := w.statusPollJob.RunOnce(ctx); err != nil {
				w.logger.Error("status poll pass failed",
					"event", "status_poll_pass_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		case <-outboxTicker.C:
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				w.logger.Error("outbox relay pass failed",
					"event", "outbox_relay_pass_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
	}
}

func (w *WorkerApp) runFilingPass(ctx context.Context) {
	if err := w.filingJob.RunOnce(ctx); err != nil {
		w.logger.Error("filing pass failed",
			"event", "filing_pass_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
