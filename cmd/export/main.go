package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bulkgen/internal/bootstrap"
	"bulkgen/internal/infra"
	"bulkgen/internal/storage"
	"bulkgen/pkg/zip"
)

func main() {
	idsFlag := flag.String("ids", "", "comma separated bulk request ids to export")
	name := flag.String("name", "", "archive file name inside the storage directory (defaults to the generated name)")
	flag.Parse()

	ids, err := parseIDs(*idsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv, "export")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("export: db connection failed")
	}
	defer rt.Close()

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("export: failed to configure storage")
	}

	archive, err := rt.Service(nil).Archive(ctx, ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	key := archive.Filename
	if *name != "" {
		key = *name
	}

	up, err := store.Create(ctx, "exports/"+key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	if err := zip.Write(up, archive.Entries); err != nil {
		up.Abort()
		fmt.Fprintf(os.Stderr, "export: write archive: %v\n", err)
		os.Exit(1)
	}
	if err := up.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	path := up.Path()
	logger.Info().Str("path", path).Int("images", archive.Images).Int("skipped", archive.Skipped).Msg("export: archive written")
	fmt.Println(path)
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("-ids is required")
	}
	return ids, nil
}
