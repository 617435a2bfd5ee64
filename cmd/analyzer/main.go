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

	logger := logging.NewStructuredLogger("keeling-analyzer", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)
	defer logger.Sync()

	ctx := context.Background()
	runner := pipeline.NewRunner(cfg.Pipeline, logger, metrics.NewCollector("keeling"))

	if _, err := runner.Analyze(ctx, os.Stdout); err != nil {
		logger.Fatal(ctx, "[ANALYZER_ERROR] Analysis failed", logging.Fields{
			"source": cfg.Pipeline.Path(config.CleanFile),
			"kind":   pipeline.ErrorKind(err),
		}, err)
	}
}
