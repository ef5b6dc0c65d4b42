package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	prizeservice "prizeforge/contexts/prize-lifecycle/prize-service"
	postgresadapter "prizeforge/contexts/prize-lifecycle/prize-service/adapters/postgres"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/strategy"
	"prizeforge/contexts/prize-lifecycle/prize-service/domain/values"
	"prizeforge/internal/platform/config"
	"prizeforge/internal/platform/db"
	"prizeforge/internal/platform/httpserver"
	"prizeforge/internal/platform/identity"
	"prizeforge/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 10 * time.Second

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	bus      *messaging.Kafka
	module   prizeservice.Module
	// inProcess runs the relay and projector inside the API when there is no
	// database for a separate worker to share.
	inProcess    bool
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	bus          *messaging.Kafka
	module       prizeservice.Module
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	app := &APIApp{
		bus:          bus,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Warn("POSTGRES_DSN is empty, prizes are kept in memory",
			"event", "bootstrap_api_in_memory",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		app.module, err = buildInMemory(cfg, bus, logger)
		app.inProcess = true
	} else {
		app.postgres, err = db.Connect(ctx, cfg.PostgresDSN, db.Options{}, logger)
		if err == nil {
			app.module, err = buildPostgres(cfg, app.postgres, bus, logger)
		}
	}
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.server = httpserver.New(app.module, identity.NewAuthenticator(cfg.JWTSecret), logger, normalizeAddr(cfg.HTTPPort))
	return app, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN, db.Options{}, logger)
	if err != nil {
		return nil, err
	}
	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	module, err := buildPostgres(cfg, pg, bus, logger)
	if err != nil {
		_ = bus.Close()
		_ = pg.Close()
		return nil, err
	}
	return &WorkerApp{
		postgres:     pg,
		bus:          bus,
		module:       module,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}, nil
}

func buildPostgres(cfg config.Config, pg *db.Postgres, bus *messaging.Kafka, logger *slog.Logger) (prizeservice.Module, error) {
	if err := postgresadapter.Migrate(pg.DB); err != nil {
		return prizeservice.Module{}, err
	}
	scheme := values.PlainScheme{}
	repo := postgresadapter.NewRepository(pg.DB, scheme, logger)
	return prizeservice.NewModule(prizeservice.Dependencies{
		Prizes:           repo,
		Treasury:         postgresadapter.NewTreasury(pg.DB, scheme, logger),
		Idempotency:      repo,
		Outbox:           repo,
		Activity:         repo,
		Dedup:            repo,
		Publisher:        bus,
		Subscriber:       bus,
		Clock:            postgresadapter.SystemClock{},
		IDGenerator:      postgresadapter.UUIDGenerator{},
		Scheme:           scheme,
		Strategies:       strategy.DefaultRegistry(),
		IdempotencyTTL:   cfg.IdempotencyTTL,
		DefaultStrategy:  cfg.DefaultStrategy,
		OutboxBatchSize:  cfg.OutboxBatchSize,
		DisableProjector: !cfg.EnableActivityProjector,
		Logger:           logger,
	})
}

func buildInMemory(cfg config.Config, bus *messaging.Kafka, logger *slog.Logger) (prizeservice.Module, error) {
	module := prizeservice.NewInMemoryModule(logger)
	if cfg.DefaultStrategy != "" {
		if _, err := module.Manager.Strategies.Resolve(cfg.DefaultStrategy); err != nil {
			return prizeservice.Module{}, fmt.Errorf("DEFAULT_STRATEGY: %w", err)
		}
		module.Manager.DefaultStrategy = cfg.DefaultStrategy
	}
	module.Manager.IdempotencyTTL = cfg.IdempotencyTTL
	module.Handler.Manager = module.Manager
	module.Relay.Publisher = bus
	module.Relay.BatchSize = cfg.OutboxBatchSize
	module.Projector.Subscriber = bus
	module.Projector.Disabled = !cfg.EnableActivityProjector
	return module, nil
}

// Run serves HTTP until ctx is done, then shuts the server down.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"in_process_workers", a.inProcess,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	if a.inProcess {
		if err := a.module.Projector.Start(groupCtx); err != nil {
			return err
		}
		group.Go(func() error {
			return a.module.Relay.Run(groupCtx, a.pollInterval)
		})
	}
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

// Run starts the activity projector and relays the outbox until ctx is done.
func (w *WorkerApp) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if err := w.module.Projector.Start(groupCtx); err != nil {
		return err
	}
	group.Go(func() error {
		return w.module.Relay.Run(groupCtx, w.pollInterval)
	})

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.bus != nil {
		errs = append(errs, w.bus.Close())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
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
