package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keeling-pipeline/internal/config"
	"keeling-pipeline/internal/handlers"
	"keeling-pipeline/internal/pipeline"
	"keeling-pipeline/internal/repository"
	"keeling-pipeline/internal/services"
	"keeling-pipeline/pkg/database"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("keeling-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting Keeling Curve API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"store":       cfg.Server.Store,
		"data_dir":    cfg.Pipeline.DataDir,
	})

	metricsCollector := metrics.NewCollector("keeling_api")
	runner := pipeline.NewRunner(cfg.Pipeline, logger, metricsCollector)

	var co2Repo repository.CO2Repository
	switch cfg.Server.Store {
	case config.StoreFiles:
		memRepo := repository.NewMemoryRepository()
		ingestion := services.NewIngestionService(memRepo, logger, metricsCollector)
		if _, err := ingestion.IngestOutputs(ctx, runner.IngestionFiles(), cfg.Pipeline.IngestBatchSize); err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load pipeline outputs", logging.Fields{
				"data_dir": cfg.Pipeline.DataDir,
			}, err)
		}
		co2Repo = memRepo
	default:
		db, err := database.NewPostgresDB(ctx, cfg.Database.Postgres(), logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{
				"db_host": cfg.Database.Host,
				"db_name": cfg.Database.Database,
			}, err)
		}
		defer db.Close()
		co2Repo = repository.NewCO2Repository(db, logger, metricsCollector)
	}

	// Initialize services
	co2Service := services.NewCO2Service(co2Repo, logger, metricsCollector)
	statsService := services.NewStatisticsService(co2Repo, logger, metricsCollector)

	// Initialize handlers
	co2Handler := handlers.NewCO2Handler(co2Service, statsService, cfg.Pipeline.Path(config.DashboardFile), logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.AccessLog(logger))
	co2Handler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
