package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/infra/credentials"
)

func main() {
	var (
		providerFlag string
		tokenFlag    string
		projectFlag  string
	)
	flag.StringVar(&providerFlag, "provider", string(domain.ProviderWhisk), "provider to configure (whisk or imagefx)")
	flag.StringVar(&tokenFlag, "token", "", "bearer token (falls back to <PROVIDER>_AUTH_TOKEN)")
	flag.StringVar(&projectFlag, "project", "", "project id (falls back to <PROVIDER>_PROJECT_ID)")
	flag.Parse()

	_ = godotenv.Load()

	provider, err := domain.ParseProvider(providerFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}
	envPrefix := strings.ToUpper(string(provider))

	token := strings.TrimSpace(tokenFlag)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(envPrefix + "_AUTH_TOKEN"))
	}
	project := strings.TrimSpace(projectFlag)
	if project == "" {
		project = strings.TrimSpace(os.Getenv(envPrefix + "_PROJECT_ID"))
	}

	settings := &domain.ProviderSettings{Provider: provider, AuthToken: token, ProjectID: project}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v (use flags or %s_* environment variables)\n", err, envPrefix)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger(os.Getenv("APP_ENV"), "providerkey").With().Str("provider", string(provider)).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if err := store.Save(ctx, settings); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s settings: %v\n", provider, err)
		os.Exit(1)
	}
	fmt.Printf("%s settings stored (updated %s)\n", provider, settings.UpdatedAt.Format(time.RFC3339))
}
