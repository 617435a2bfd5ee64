package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"keeling-pipeline/internal/analysis"
	"keeling-pipeline/internal/datafile"
	"keeling-pipeline/internal/models"
	"keeling-pipeline/internal/report"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// AnalysisFiles names the input and output files of the analysis stage
type AnalysisFiles struct {
	Clean         string
	Decomposition string
	Growth        string
	Decades       string
	Workbook      string
}

// AnalysisService runs the statistical analysis over the clean dataset
type AnalysisService struct {
	period  int
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAnalysisService creates a new analysis service using the given decomposition period
func NewAnalysisService(period int, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalysisService {
	if period < 2 {
		period = analysis.DefaultPeriod
	}
	return &AnalysisService{
		period:  period,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Analyze computes every derived series of a clean dataset
func (s *AnalysisService) Analyze(ctx context.Context, ds *models.CleanDataset) (*models.AnalysisResult, error) {
	timer := s.metrics.NewTimer(s.metrics.StatsCalculationDuration)

	result, err := analysis.Analyze(ds, s.period)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	duration := timer.ObserveDuration()
	s.logger.Info(ctx, "[ANALYZE_COMPUTED] Statistics computed", logging.Fields{
		"records":         ds.Len(),
		"years":           len(result.Annual),
		"decades":         len(result.Decades),
		"slope_per_year":  result.Linear.SlopePerYear,
		"r_squared":       result.Linear.RSquared,
		"residual_normal": result.Normality.IsNormal,
		"duration_ms":     duration.Milliseconds(),
	})

	return result, nil
}

// AnalyzeFiles reads the clean CSV, writes the derived CSVs and workbook, and prints
// the text report to out
func (s *AnalysisService) AnalyzeFiles(ctx context.Context, files AnalysisFiles, out io.Writer) (*models.AnalysisResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[ANALYZE_START] Loading clean data", logging.Fields{
		"source": files.Clean,
		"period": s.period,
	})

	ds, err := datafile.ReadClean(files.Clean)
	if err != nil {
		return nil, fmt.Errorf("failed to load clean data: %w", err)
	}

	result, err := s.Analyze(ctx, ds)
	if err != nil {
		return nil, err
	}

	if err := datafile.WriteDecomposition(files.Decomposition, result.Decomposition); err != nil {
		return nil, fmt.Errorf("failed to write decomposition: %w", err)
	}
	if err := datafile.WriteGrowth(files.Growth, result.Annual); err != nil {
		return nil, fmt.Errorf("failed to write growth rates: %w", err)
	}
	if err := datafile.WriteDecades(files.Decades, result.Decades); err != nil {
		return nil, fmt.Errorf("failed to write decade summaries: %w", err)
	}
	if files.Workbook != "" {
		if err := report.WriteWorkbook(files.Workbook, result); err != nil {
			return nil, fmt.Errorf("failed to write workbook: %w", err)
		}
	}

	if out != nil {
		if err := report.WriteText(out, result); err != nil {
			return nil, fmt.Errorf("failed to print report: %w", err)
		}
	}

	s.logger.Info(ctx, "[ANALYZE_COMPLETE] Analysis outputs written", logging.Fields{
		"decomposition": files.Decomposition,
		"growth":        files.Growth,
		"decades":       files.Decades,
		"workbook":      files.Workbook,
		"duration_ms":   time.Since(startTime).Milliseconds(),
	})

	return result, nil
}
