package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"keeling-pipeline/internal/config"
	"keeling-pipeline/migrations"
	"keeling-pipeline/pkg/database"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	schema, err := migrations.Schema(*direction)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read migration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("keeling-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx := context.Background()
	dbConfig := cfg.Database.Postgres()
	dbConfig.PoolInterval = 0

	db, err := database.NewPostgresDB(ctx, dbConfig, logger, metrics.NewCollector("keeling_migrate"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("Connected to database successfully")
	fmt.Printf("Running migration: 001_create_schema.%s.sql\n", *direction)

	if _, err := db.ExecContext(ctx, "migrate_"+*direction, schema); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		db.Close()
		os.Exit(1)
	}

	fmt.Println("Migration completed successfully")
}
