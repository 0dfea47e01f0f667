package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bulkgen/internal/bootstrap"
	"bulkgen/internal/http/handlers"
	httpapi "bulkgen/internal/http/httpapi"
	"bulkgen/internal/infra"
	"bulkgen/internal/infra/geoip"
	"bulkgen/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer rt.Close()

	q, err := rt.OpenQueue()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open queue")
	}
	defer q.Close()

	svc := rt.Service(q)

	// The memory queue only lives in this process, so the API runs the workers itself.
	workersDone := make(chan struct{})
	if cfg.QueueBackend == infra.QueueBackendMemory {
		pool := worker.NewPool(q, rt.Executor(), cfg.WorkerConcurrency, logger)
		sweeper := worker.NewSweeper(svc, cfg.RecoveryInterval, cfg.RecoveryOlderThan, logger)
		go func() {
			defer close(workersDone)
			go func() { _ = sweeper.Run(ctx) }()
			if err := pool.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("embedded worker pool stopped")
			}
		}()
	} else {
		close(workersDone)
	}

	var locator geoip.Locator
	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		locator = resolver
	}

	router := httpapi.NewRouter(handlers.NewApp(svc, logger), httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Locator:         locator,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("queue", cfg.QueueBackend).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("embedded workers still running at shutdown")
	}
	logger.Info().Msg("server stopped")
}
