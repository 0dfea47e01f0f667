package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bulkgen/internal/bootstrap"
	"bulkgen/internal/infra"
	"bulkgen/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	if cfg.QueueBackend == infra.QueueBackendMemory {
		logger.Fatal().Msg("worker: the memory queue cannot be shared across processes, run the api instead")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer rt.Close()

	q, err := rt.OpenQueue()
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: queue connection failed")
	}
	defer q.Close()

	pool := worker.NewPool(q, rt.Executor(), cfg.WorkerConcurrency, logger)
	sweeper := worker.NewSweeper(rt.Service(q), cfg.RecoveryInterval, cfg.RecoveryOlderThan, logger)

	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("worker: sweeper stopped")
		}
	}()

	logger.Info().
		Str("queue", cfg.QueueBackend).
		Int("concurrency", cfg.WorkerConcurrency).
		Dur("recovery_interval", cfg.RecoveryInterval).
		Msg("worker: started")
	if err := pool.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker: pool stopped")
	}
	logger.Info().Msg("worker: stopped")
}
