package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

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

	logger := logging.NewStructuredLogger("keeling-pipeline", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(cfg.Pipeline, logger, metrics.NewCollector("keeling"))

	if err := runner.RunAll(ctx, os.Stdout); err != nil {
		logger.Fatal(ctx, "[PIPELINE_ERROR] Pipeline failed", logging.Fields{
			"kind":      pipeline.ErrorKind(err),
			"transient": pipeline.IsTransient(err),
		}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("PIPELINE COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Dashboard: %s\n", cfg.Pipeline.Path(config.DashboardFile))
}
