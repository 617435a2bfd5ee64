package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"keeling-pipeline/internal/config"
	"keeling-pipeline/internal/pipeline"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("keeling-cleaner", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)
	defer logger.Sync()

	ctx := context.Background()
	runner := pipeline.NewRunner(cfg.Pipeline, logger, metrics.NewCollector("keeling"))

	report, err := runner.Clean(ctx)
	if err != nil {
		logger.Fatal(ctx, "[CLEANER_ERROR] Cleaning failed", logging.Fields{
			"source": cfg.Pipeline.Path(config.MonthlyFile),
			"kind":   pipeline.ErrorKind(err),
		}, err)
	}

	fmt.Printf("Rows read:    %d\n", report.TotalRows)
	fmt.Printf("Rows kept:    %d\n", report.KeptRows)
	fmt.Printf("Rows dropped: %d\n", report.DroppedRows())

	reasons := make([]string, 0, len(report.Dropped))
	for reason := range report.Dropped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Printf("  - %-14s %d\n", reason, report.Dropped[reason])
	}
	fmt.Printf("Written to %s\n", cfg.Pipeline.Path(config.CleanFile))
}
