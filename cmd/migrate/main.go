package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bulkgen/internal/infra"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration instead of applying pending ones")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv, "migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *down {
		err = infra.MigrateDown(ctx, cfg.DatabaseURL, logger)
	} else {
		err = infra.Migrate(ctx, cfg.DatabaseURL, logger)
	}
	if err != nil {
		logger.Error().Err(err).Bool("down", *down).Msg("migration failed")
		os.Exit(1)
	}
}
