package services

import (
	"context"

	"keeling-pipeline/internal/models"
	"keeling-pipeline/internal/repository"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// CO2Service serves the stored monthly series
type CO2Service struct {
	repo    repository.CO2Repository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewCO2Service creates a new CO2 service
func NewCO2Service(repo repository.CO2Repository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CO2Service {
	return &CO2Service{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetMonthly retrieves clean monthly records with filtering
func (s *CO2Service) GetMonthly(ctx context.Context, filter repository.DateFilter) ([]*models.CO2Record, int, error) {
	return s.repo.GetMonthly(ctx, filter)
}

// GetDecomposition retrieves decomposition rows with filtering
func (s *CO2Service) GetDecomposition(ctx context.Context, filter repository.DateFilter) ([]*models.DecompositionRecord, int, error) {
	return s.repo.GetDecomposition(ctx, filter)
}

// HealthCheck reports whether the store is reachable
func (s *CO2Service) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
