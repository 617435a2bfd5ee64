package main

import (
	"context"
	"fmt"
	"os"

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

	logger := logging.NewStructuredLogger("keeling-visualizer", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)
	defer logger.Sync()

	ctx := context.Background()
	runner := pipeline.NewRunner(cfg.Pipeline, logger, metrics.NewCollector("keeling"))

	report, err := runner.Visualize(ctx)
	if err != nil {
		logger.Fatal(ctx, "[VISUALIZER_ERROR] Rendering failed", logging.Fields{
			"data_dir": cfg.Pipeline.DataDir,
			"kind":     pipeline.ErrorKind(err),
		}, err)
	}

	for _, path := range report.Rendered {
		fmt.Printf("Saved   %s\n", path)
	}
	for _, path := range report.Skipped {
		fmt.Printf("Skipped %s (historical data unavailable)\n", path)
	}
}
