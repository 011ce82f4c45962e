package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	votecontract "gavel/contexts/governance/vote-contract"
	httpadapter "gavel/contexts/governance/vote-contract/adapters/http"
	"gavel/contexts/governance/vote-contract/adapters/memory"
	postgresadapter "gavel/contexts/governance/vote-contract/adapters/postgres"
	workerapp "gavel/contexts/governance/vote-contract/application/workers"
	"gavel/contexts/governance/vote-contract/ports"
	"gavel/internal/platform/config"
	"gavel/internal/platform/db"
	"gavel/internal/platform/httpserver"
	"gavel/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	relayEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var oracle ports.BalanceOracle
	if strings.TrimSpace(cfg.TokenLedgerURL) != "" {
		oracle = httpadapter.NewLedgerClient(cfg.TokenLedgerURL)
	} else {
		oracle = memory.NewTokenLedger()
	}

	var (
		pg     *db.Postgres
		module votecontract.Module
	)
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.Migrate(); err != nil {
			return nil, err
		}
		module = votecontract.NewModule(votecontract.Dependencies{
			State:  repo,
			Caller: httpadapter.ContextCallerResolver{},
			Oracle: oracle,
			Clock:  postgresadapter.SystemClock{},
			IDGen:  postgresadapter.UUIDGenerator{},
			Logger: logger,
		})
	} else {
		store := memory.NewStore()
		module = votecontract.NewModule(votecontract.Dependencies{
			State:  store,
			Caller: httpadapter.ContextCallerResolver{},
			Oracle: oracle,
			Clock:  store,
			IDGen:  store,
			Logger: logger,
		})
		logger.Warn("running without postgres, state is in-process only",
			"event", "bootstrap_memory_state",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

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

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			Topic:     cfg.OutboxTopic,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
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
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"relay_enabled", w.relayEnabled,
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.relayEnabled {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
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
