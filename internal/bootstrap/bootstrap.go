// Package bootstrap assembles the shared runtime every command needs: the
// database pool, repositories, provider registry and the bulk service.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"bulkgen/internal/adapter/repo"
	"bulkgen/internal/bulk"
	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/infra/credentials"
	"bulkgen/internal/providers/image"
	"bulkgen/internal/providers/imagefx"
	"bulkgen/internal/providers/whisk"
	"bulkgen/internal/queue"
)

type Runtime struct {
	Config     *infra.Config
	Logger     infra.Logger
	Pool       *pgxpool.Pool
	SQL        *infra.SQLRunner
	Bulks      *repo.BulkRepositoryPG
	Jobs       *repo.JobRepositoryPG
	Settings   *credentials.Store
	Generators image.Registry
}

// Open connects the database, optionally migrating first, and wires the repositories.
func Open(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Runtime, error) {
	if cfg.MigrateOnStart {
		if err := infra.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
	}
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner := infra.NewSQLRunner(pool, logger)
	return &Runtime{
		Config:     cfg,
		Logger:     logger,
		Pool:       pool,
		SQL:        runner,
		Bulks:      repo.NewBulkRepository(runner),
		Jobs:       repo.NewJobRepository(runner),
		Settings:   credentials.NewStore(runner),
		Generators: Generators(cfg, logger),
	}, nil
}

// Generators builds the provider registry with one shared HTTP client.
func Generators(cfg *infra.Config, logger infra.Logger) image.Registry {
	client := image.NewHTTPClient(cfg.ProviderTimeout)
	return image.Registry{
		domain.ProviderWhisk: whisk.NewClient(whisk.Options{
			BaseURL:        cfg.WhiskBaseURL,
			HTTPClient:     client,
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		}),
		domain.ProviderImageFX: imagefx.NewClient(imagefx.Options{
			BaseURL:        cfg.ImageFXBaseURL,
			HTTPClient:     client,
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		}),
	}
}

func (rt *Runtime) Service(dispatcher queue.Dispatcher) *bulk.Service {
	return bulk.NewService(bulk.Deps{
		Bulks:      rt.Bulks,
		Jobs:       rt.Jobs,
		Settings:   rt.Settings,
		Generators: rt.Generators,
		Dispatcher: dispatcher,
		Logger:     rt.Logger,
	})
}

func (rt *Runtime) Executor() *bulk.Executor {
	return bulk.NewExecutor(bulk.ExecutorDeps{
		Jobs:       rt.Jobs,
		Bulks:      rt.Bulks,
		Settings:   rt.Settings,
		Generators: rt.Generators,
		Logger:     rt.Logger,
	})
}

// OpenQueue connects the configured broker.
func (rt *Runtime) OpenQueue() (queue.Queue, error) {
	q, err := queue.Open(rt.Config, rt.Logger)
	if err != nil {
		return nil, fmt.Errorf("open %s queue: %w", rt.Config.QueueBackend, err)
	}
	return q, nil
}

func (rt *Runtime) Close() {
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}
