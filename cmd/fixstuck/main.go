package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bulkgen/internal/bootstrap"
	"bulkgen/internal/bulk"
	"bulkgen/internal/infra"
)

func main() {
	var (
		bulkID         int64
		all            bool
		olderThan      int
		includePending bool
	)
	flag.Int64Var(&bulkID, "bulk-id", 0, "recover a single bulk request")
	flag.BoolVar(&all, "all", false, "recover every bulk request")
	flag.IntVar(&olderThan, "older-than", int(bulk.DefaultOlderThan/time.Minute), "minutes a job must be untouched to count as stuck")
	flag.BoolVar(&includePending, "include-pending", false, "also re-dispatch pending jobs that never started")
	flag.Parse()

	if (bulkID > 0) == all {
		fmt.Fprintln(os.Stderr, "fixstuck: pass exactly one of -bulk-id N or -all")
		os.Exit(2)
	}
	if olderThan <= 0 || olderThan > 30*24*60 {
		fmt.Fprintln(os.Stderr, "fixstuck: -older-than must be between 1 and 43200 minutes")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixstuck: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv, "fixstuck")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("fixstuck: db connection failed")
	}
	defer rt.Close()

	q, err := rt.OpenQueue()
	if err != nil {
		logger.Fatal().Err(err).Msg("fixstuck: queue connection failed")
	}
	defer q.Close()
	if cfg.QueueBackend == infra.QueueBackendMemory {
		logger.Warn().Msg("fixstuck: memory queue has no consumer here, reset jobs wait for the api sweeper")
	}

	opts := bulk.RecoverOptions{
		OlderThan:      time.Duration(olderThan) * time.Minute,
		IncludePending: includePending,
	}
	if bulkID > 0 {
		opts.BulkID = &bulkID
	}
	res, err := rt.Service(q).RecoverStuck(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixstuck: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("selected=%d reset=%d dispatched=%d\n", res.Selected, res.Reset, res.Dispatched)
}
