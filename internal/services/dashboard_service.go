package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"keeling-pipeline/internal/dashboard"
	"keeling-pipeline/internal/datafile"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// DashboardFiles names the inputs and the output of the dashboard stage
type DashboardFiles struct {
	Clean         string
	Decomposition string
	Growth        string
	Decades       string
	Historical    string
	Output        string
}

// DashboardService renders the interactive HTML dashboard
type DashboardService struct {
	charts  *VisualizationService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardService {
	return &DashboardService{
		charts:  NewVisualizationService(logger, metricsCollector),
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// Build reads the analyzer outputs and writes the dashboard
func (s *DashboardService) Build(ctx context.Context, files DashboardFiles) error {
	startTime := time.Now()

	s.logger.Info(ctx, "[DASHBOARD_START] Building dashboard", logging.Fields{
		"output": files.Output,
	})

	ds, err := datafile.ReadClean(files.Clean)
	if err != nil {
		return fmt.Errorf("failed to load clean data: %w", err)
	}
	decomposition, err := datafile.ReadDecomposition(files.Decomposition)
	if err != nil {
		return fmt.Errorf("failed to load decomposition: %w", err)
	}
	annual, err := datafile.ReadGrowth(files.Growth)
	if err != nil {
		return fmt.Errorf("failed to load growth rates: %w", err)
	}
	decades, err := datafile.ReadDecades(files.Decades)
	if err != nil {
		return fmt.Errorf("failed to load decade summaries: %w", err)
	}
	view, err := s.charts.LoadHistorical(ctx, files.Historical)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = dashboard.Render(&buf, dashboard.Input{
		Clean:         ds,
		Decomposition: decomposition,
		Annual:        annual,
		Decades:       decades,
		Historical:    view,
		Generated:     s.now(),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(files.Output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(files.Output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write dashboard: %w", err)
	}

	s.metrics.RecordChart(filepath.Base(files.Output), true)
	s.logger.Info(ctx, "[DASHBOARD_COMPLETE] Dashboard written", logging.Fields{
		"output":      files.Output,
		"bytes":       buf.Len(),
		"historical":  view != nil,
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return nil
}
