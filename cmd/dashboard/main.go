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

	logger := logging.NewStructuredLogger("keeling-dashboard", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)
	defer logger.Sync()

	ctx := context.Background()
	runner := pipeline.NewRunner(cfg.Pipeline, logger, metrics.NewCollector("keeling"))

	if err := runner.Dashboard(ctx); err != nil {
		logger.Fatal(ctx, "[DASHBOARD_ERROR] Dashboard generation failed", logging.Fields{
			"output": cfg.Pipeline.Path(config.DashboardFile),
			"kind":   pipeline.ErrorKind(err),
		}, err)
	}

	fmt.Printf("Dashboard written to %s\n", cfg.Pipeline.Path(config.DashboardFile))
}
