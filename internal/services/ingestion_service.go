package services

import (
	"context"
	"fmt"
	"time"

	"keeling-pipeline/internal/datafile"
	"keeling-pipeline/internal/repository"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// IngestionService loads the pipeline's CSV outputs into the database
type IngestionService struct {
	repo    repository.CO2Repository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionFiles names the CSV outputs to load
type IngestionFiles struct {
	Clean         string
	Decomposition string
	Growth        string
	Decades       string
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	Table             string
	TotalRecords      int
	SuccessfulRecords int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.CO2Repository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestOutputs loads every output file. A failing file is recorded and the rest are
// still loaded; an error is returned only when nothing could be loaded.
func (s *IngestionService) IngestOutputs(ctx context.Context, files IngestionFiles, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()
	if batchSize <= 0 {
		batchSize = 500
	}

	s.logger.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	result := &IngestionResult{Errors: make([]string, 0)}

	loaders := []struct {
		path string
		load func(ctx context.Context, path string, batchSize int) (*FileIngestionResult, error)
	}{
		{files.Clean, s.ingestMonthly},
		{files.Decomposition, s.ingestDecomposition},
		{files.Growth, s.ingestAnnual},
		{files.Decades, s.ingestDecades},
	}

	for _, loader := range loaders {
		if loader.path == "" {
			continue
		}
		result.TotalFiles++

		fileResult, err := loader.load(ctx, loader.path, batchSize)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to ingest %s: %v", loader.path, err))
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": loader.path,
				"stage":     "FILE_PROCESSING",
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.TotalRecords - fileResult.SuccessfulRecords

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested successfully", logging.Fields{
			"file_path":          loader.path,
			"table":              fileResult.Table,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"stage":              "FILE_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	if result.TotalFiles > 0 && len(result.Errors) == result.TotalFiles {
		return result, fmt.Errorf("no output file could be ingested: %s", result.Errors[0])
	}

	s.logger.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// inBatches calls insert for consecutive [from, to) windows of at most size rows
func inBatches(n, size int, insert func(from, to int) error) (int, error) {
	done := 0
	for from := 0; from < n; from += size {
		to := from + size
		if to > n {
			to = n
		}
		if err := insert(from, to); err != nil {
			return done, fmt.Errorf("failed to insert batch: %w", err)
		}
		done = to
	}
	return done, nil
}

func (s *IngestionService) ingestMonthly(ctx context.Context, path string, batchSize int) (*FileIngestionResult, error) {
	ds, err := datafile.ReadClean(path)
	if err != nil {
		return nil, err
	}
	n, err := inBatches(ds.Len(), batchSize, func(from, to int) error {
		return s.repo.UpsertMonthly(ctx, ds.Records[from:to])
	})
	if err != nil {
		return nil, err
	}
	return &FileIngestionResult{Table: "co2_monthly", TotalRecords: ds.Len(), SuccessfulRecords: n}, nil
}

func (s *IngestionService) ingestDecomposition(ctx context.Context, path string, batchSize int) (*FileIngestionResult, error) {
	records, err := datafile.ReadDecomposition(path)
	if err != nil {
		return nil, err
	}
	n, err := inBatches(len(records), batchSize, func(from, to int) error {
		return s.repo.UpsertDecomposition(ctx, records[from:to])
	})
	if err != nil {
		return nil, err
	}
	return &FileIngestionResult{Table: "co2_decomposition", TotalRecords: len(records), SuccessfulRecords: n}, nil
}

func (s *IngestionService) ingestAnnual(ctx context.Context, path string, batchSize int) (*FileIngestionResult, error) {
	annual, err := datafile.ReadGrowth(path)
	if err != nil {
		return nil, err
	}
	n, err := inBatches(len(annual), batchSize, func(from, to int) error {
		return s.repo.UpsertAnnual(ctx, annual[from:to])
	})
	if err != nil {
		return nil, err
	}
	return &FileIngestionResult{Table: "co2_annual", TotalRecords: len(annual), SuccessfulRecords: n}, nil
}

func (s *IngestionService) ingestDecades(ctx context.Context, path string, batchSize int) (*FileIngestionResult, error) {
	decades, err := datafile.ReadDecades(path)
	if err != nil {
		return nil, err
	}
	n, err := inBatches(len(decades), batchSize, func(from, to int) error {
		return s.repo.UpsertDecades(ctx, decades[from:to])
	})
	if err != nil {
		return nil, err
	}
	return &FileIngestionResult{Table: "co2_decades", TotalRecords: len(decades), SuccessfulRecords: n}, nil
}
