package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"keeling-pipeline/internal/analysis"
	"keeling-pipeline/internal/charts"
	"keeling-pipeline/internal/datafile"
	"keeling-pipeline/internal/models"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// VisualizationFiles names the inputs and chart outputs of the visualizer stage
type VisualizationFiles struct {
	Clean         string
	Decomposition string
	Growth        string
	Historical    string

	FullChart          string
	SeasonalChart      string
	DecadesChart       string
	DecompositionChart string
	GrowthChart        string
	HistoricalChart    string
}

// ChartReport lists the charts written and skipped by one run
type ChartReport struct {
	Rendered []string
	Skipped  []string
}

// VisualizationService renders the static charts
type VisualizationService struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewVisualizationService creates a new visualization service
func NewVisualizationService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *VisualizationService {
	return &VisualizationService{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// RenderCharts draws every chart. A missing or unusable historical file skips only the
// historical chart; any other failure aborts.
func (s *VisualizationService) RenderCharts(ctx context.Context, files VisualizationFiles) (*ChartReport, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[VISUALIZE_START] Rendering charts", logging.Fields{
		"clean":         files.Clean,
		"decomposition": files.Decomposition,
		"growth":        files.Growth,
	})

	ds, err := datafile.ReadClean(files.Clean)
	if err != nil {
		return nil, fmt.Errorf("failed to load clean data: %w", err)
	}
	decomposition, err := datafile.ReadDecomposition(files.Decomposition)
	if err != nil {
		return nil, fmt.Errorf("failed to load decomposition: %w", err)
	}
	annual, err := datafile.ReadGrowth(files.Growth)
	if err != nil {
		return nil, fmt.Errorf("failed to load growth rates: %w", err)
	}

	report := &ChartReport{}
	render := func(path string, draw func() error) error {
		name := filepath.Base(path)
		if err := draw(); err != nil {
			s.metrics.RecordStageError("visualize", name)
			return fmt.Errorf("failed to render %s: %w", name, err)
		}
		s.metrics.RecordChart(name, true)
		report.Rendered = append(report.Rendered, path)
		s.logger.Info(ctx, "[VISUALIZE_CHART] Chart saved", logging.Fields{"path": path})
		return nil
	}

	steps := []struct {
		path string
		draw func() error
	}{
		{files.FullChart, func() error { return charts.Full(files.FullChart, ds) }},
		{files.SeasonalChart, func() error {
			return charts.Seasonal(files.SeasonalChart, analysis.MonthlyClimatology(ds.Records))
		}},
		{files.DecadesChart, func() error {
			return charts.Decades(files.DecadesChart, analysis.DecadeCycles(ds.Records))
		}},
		{files.DecompositionChart, func() error { return charts.Decomposition(files.DecompositionChart, decomposition) }},
		{files.GrowthChart, func() error { return charts.Growth(files.GrowthChart, annual) }},
	}
	for _, step := range steps {
		if err := render(step.path, step.draw); err != nil {
			return nil, err
		}
	}

	view, err := s.LoadHistorical(ctx, files.Historical)
	if err != nil {
		return nil, err
	}
	if view == nil {
		s.metrics.RecordChart(filepath.Base(files.HistoricalChart), false)
		report.Skipped = append(report.Skipped, files.HistoricalChart)
	} else if err := render(files.HistoricalChart, func() error { return charts.Historical(files.HistoricalChart, view) }); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[VISUALIZE_COMPLETE] Charts rendered", logging.Fields{
		"rendered":    len(report.Rendered),
		"skipped":     len(report.Skipped),
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return report, nil
}

// LoadHistorical reads and splits the historical record. It returns a nil view with a
// nil error when the file is absent or unusable, after logging a warning.
func (s *VisualizationService) LoadHistorical(ctx context.Context, path string) (*analysis.HistoricalView, error) {
	view, err := loadHistorical(path)
	var missing *models.MissingInputError
	if errors.As(err, &missing) {
		s.logger.Warn(ctx, "[VISUALIZE_HISTORICAL_SKIPPED] Historical data unavailable", logging.Fields{
			"path":   missing.Path,
			"reason": missing.Reason,
		})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load historical data: %w", err)
	}
	return view, nil
}

func loadHistorical(path string) (*analysis.HistoricalView, error) {
	points, err := datafile.ReadHistorical(path)
	if err != nil {
		return nil, err
	}
	return analysis.SplitHistorical(path, points)
}
