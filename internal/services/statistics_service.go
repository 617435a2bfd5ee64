package services

import (
	"context"
	"fmt"
	"time"

	"keeling-pipeline/internal/analysis"
	"keeling-pipeline/internal/models"
	"keeling-pipeline/internal/repository"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// allRows is the page size used to read a whole table
const allRows = 100000

// StatisticsService serves and recalculates the stored annual and decade statistics
type StatisticsService struct {
	repo    repository.CO2Repository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(repo repository.CO2Repository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// RecalculateDecades rebuilds the decade summaries from the stored annual aggregates
func (s *StatisticsService) RecalculateDecades(ctx context.Context) ([]*models.DecadeSummary, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[STATS_CALC_START] Starting decade statistics calculation", logging.Fields{
		"stage": "INITIALIZATION",
	})

	annual, _, err := s.repo.GetAnnual(ctx, repository.YearFilter{Limit: allRows})
	if err != nil {
		return nil, fmt.Errorf("failed to load annual aggregates: %w", err)
	}

	decades := analysis.DecadeSummaries(annual)
	if err := s.repo.UpsertDecades(ctx, decades); err != nil {
		return nil, fmt.Errorf("failed to save decade summaries: %w", err)
	}

	duration := time.Since(startTime)
	s.metrics.StatsCalculationDuration.Observe(duration.Seconds())

	s.logger.Info(ctx, "[STATS_CALC_COMPLETE] Decade statistics calculated", logging.Fields{
		"years":            len(annual),
		"decades":          len(decades),
		"duration_seconds": duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return decades, nil
}

// GetAnnual retrieves annual aggregates with filtering
func (s *StatisticsService) GetAnnual(ctx context.Context, filter repository.YearFilter) ([]*models.AnnualAggregate, int, error) {
	return s.repo.GetAnnual(ctx, filter)
}

// GetAnnualByYear retrieves the aggregate of one year
func (s *StatisticsService) GetAnnualByYear(ctx context.Context, year int) (*models.AnnualAggregate, error) {
	return s.repo.GetAnnualByYear(ctx, year)
}

// GetDecades retrieves every decade summary
func (s *StatisticsService) GetDecades(ctx context.Context) ([]*models.DecadeSummary, error) {
	return s.repo.GetDecades(ctx)
}
