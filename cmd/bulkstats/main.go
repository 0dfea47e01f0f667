package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"bulkgen/internal/bootstrap"
	"bulkgen/internal/bulk"
	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
)

func main() {
	bulkID := flag.Int64("bulk-id", 0, "show one bulk request in detail; omit to list every request")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bulkstats: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv, "bulkstats")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bulkstats: db connection failed")
	}
	defer rt.Close()

	// Read-only: nothing is scheduled.
	svc := rt.Service(nil)
	if *bulkID > 0 {
		report, err := svc.Status(ctx, *bulkID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bulkstats: %v\n", err)
			os.Exit(1)
		}
		printReport(os.Stdout, report)
		return
	}

	items, err := svc.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bulkstats: %v\n", err)
		os.Exit(1)
	}
	totals, err := svc.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bulkstats: %v\n", err)
		os.Exit(1)
	}
	printList(os.Stdout, items, totals)
}

func printReport(w io.Writer, report *bulk.StatusReport) {
	b := report.BulkRequest
	fmt.Fprintf(w, "bulk request %d %q provider=%s status=%s\n", b.ID, b.Title, b.Provider, b.Status)
	printCounts(w, report.Counts)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tJOB\tSTATUS\tIMAGE\tUPDATED\tPROMPT")
	for _, job := range report.Jobs {
		fmt.Fprintf(tw, "%03d\t%d\t%s\t%t\t%s\t%s\n",
			job.Sequence, job.ID, job.Status, job.HasImage, job.UpdatedAt.Format(time.RFC3339), truncate(job.PromptText, 60))
	}
	tw.Flush()
}

func printList(w io.Writer, items []domain.BulkSummary, totals domain.StatusCounts) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPROVIDER\tTOTAL\tDONE\tFAILED\tRUNNING\tPENDING\tTITLE")
	for _, item := range items {
		c := item.Counts
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			item.ID, item.Status, item.Provider, c.Total, c.Completed, c.Failed, c.Processing, c.Pending, truncate(item.Title, 40))
	}
	tw.Flush()
	fmt.Fprintln(w, "all requests:")
	printCounts(w, totals)
}

func printCounts(w io.Writer, c domain.StatusCounts) {
	fmt.Fprintf(w, "  total=%d completed=%d failed=%d processing=%d pending=%d\n",
		c.Total, c.Completed, c.Failed, c.Processing, c.Pending)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
