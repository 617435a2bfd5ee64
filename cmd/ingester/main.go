package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"keeling-pipeline/internal/config"
	"keeling-pipeline/internal/pipeline"
	"keeling-pipeline/internal/repository"
	"keeling-pipeline/internal/services"
	"keeling-pipeline/pkg/database"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

func main() {
	// Parse command-line flags
	batchSize := flag.Int("batch-size", 0, "Number of records per upsert batch (default from configuration)")
	calculateStats := flag.Bool("calculate-stats", false, "Recalculate decade statistics from the stored annual aggregates after ingestion")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *batchSize <= 0 {
		*batchSize = cfg.Pipeline.IngestBatchSize
	}

	logger := logging.NewStructuredLogger("keeling-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting pipeline output ingestion", logging.Fields{
		"version":         "1.0.0",
		"data_dir":        cfg.Pipeline.DataDir,
		"batch_size":      *batchSize,
		"calculate_stats": *calculateStats,
	})

	metricsCollector := metrics.NewCollector("keeling_ingester")

	db, err := database.NewPostgresDB(ctx, cfg.Database.Postgres(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	co2Repo := repository.NewCO2Repository(db, logger, metricsCollector)

	ingestionService := services.NewIngestionService(co2Repo, logger, metricsCollector)
	statsService := services.NewStatisticsService(co2Repo, logger, metricsCollector)
	runner := pipeline.NewRunner(cfg.Pipeline, logger, metricsCollector)

	result, err := ingestionService.IngestOutputs(ctx, runner.IngestionFiles(), *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Files:        %d\n", result.TotalFiles)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Printf("Failed Records:     %d\n", result.FailedRecords)
	fmt.Printf("Duration:           %v\n", result.Duration)
	if seconds := result.Duration.Seconds(); seconds > 0 {
		fmt.Printf("Records/Second:     %.2f\n", float64(result.SuccessfulRecords)/seconds)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for _, errMsg := range result.Errors {
			fmt.Printf("  - %s\n", errMsg)
		}
	}

	if *calculateStats {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Println("CALCULATING DECADE STATISTICS")
		fmt.Println(strings.Repeat("=", 80))

		decades, err := statsService.RecalculateDecades(ctx)
		if err != nil {
			logger.Error(ctx, "[STATS_ERROR] Statistics calculation failed", logging.Fields{}, err)
			fmt.Printf("Statistics calculation failed: %v\n", err)
		} else {
			for _, d := range decades {
				fmt.Printf("  %s  mean %.2f ppm  growth %s ppm/yr\n", d.Label(), d.CO2Mean, d.GrowthMean)
			}
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
	})
}
