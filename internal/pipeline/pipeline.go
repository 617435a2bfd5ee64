// Package pipeline wires the stage services to the configured file layout and runs
// them in order. Every stage reads and writes only files under the data directory.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"keeling-pipeline/internal/config"
	"keeling-pipeline/internal/models"
	"keeling-pipeline/internal/services"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// Stage names used in logs and metrics
const (
	StageFetch     = "fetch"
	StageClean     = "clean"
	StageAnalyze   = "analyze"
	StageVisualize = "visualize"
	StageDashboard = "dashboard"
)

// Runner runs the pipeline stages against one data directory
type Runner struct {
	cfg       config.PipelineConfig
	fetcher   *services.FetchService
	cleaner   *services.CleaningService
	analyzer  *services.AnalysisService
	charts    *services.VisualizationService
	dashboard *services.DashboardService
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewRunner creates a runner for the given pipeline configuration
func NewRunner(cfg config.PipelineConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Runner {
	return &Runner{
		cfg:       cfg,
		fetcher:   services.NewFetchService(cfg.FetchTimeout, logger, metricsCollector),
		cleaner:   services.NewCleaningService(logger, metricsCollector),
		analyzer:  services.NewAnalysisService(cfg.DecompositionPeriod, logger, metricsCollector),
		charts:    services.NewVisualizationService(logger, metricsCollector),
		dashboard: services.NewDashboardService(logger, metricsCollector),
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// Fetch downloads the monthly record, then the historical record. Only the monthly
// download is required; a failed historical download is logged and the existing file,
// if any, is kept.
func (r *Runner) Fetch(ctx context.Context) error {
	return r.stage(ctx, StageFetch, func() error {
		if _, err := r.fetcher.Download(ctx, r.cfg.MonthlyURL, r.cfg.Path(config.MonthlyFile)); err != nil {
			return err
		}

		if r.cfg.HistoricalURL == "" {
			return nil
		}
		if _, err := r.fetcher.Download(ctx, r.cfg.HistoricalURL, r.cfg.Path(config.HistoricalFile)); err != nil {
			r.logger.Warn(ctx, "[FETCH_HISTORICAL_FAILED] Historical download failed, continuing without it", logging.Fields{
				"url":   r.cfg.HistoricalURL,
				"error": err.Error(),
			})
		}
		return nil
	})
}

// Clean normalizes the monthly record into the clean CSV
func (r *Runner) Clean(ctx context.Context) (*services.CleanReport, error) {
	var report *services.CleanReport
	err := r.stage(ctx, StageClean, func() error {
		var err error
		report, err = r.cleaner.CleanFile(ctx, r.cfg.Path(config.MonthlyFile), r.cfg.Path(config.CleanFile))
		return err
	})
	return report, err
}

// Analyze writes the derived CSVs and workbook and prints the text report to out
func (r *Runner) Analyze(ctx context.Context, out io.Writer) (*models.AnalysisResult, error) {
	var result *models.AnalysisResult
	err := r.stage(ctx, StageAnalyze, func() error {
		var err error
		result, err = r.analyzer.AnalyzeFiles(ctx, r.AnalysisFiles(), out)
		return err
	})
	return result, err
}

// Visualize renders the static charts
func (r *Runner) Visualize(ctx context.Context) (*services.ChartReport, error) {
	var report *services.ChartReport
	err := r.stage(ctx, StageVisualize, func() error {
		var err error
		report, err = r.charts.RenderCharts(ctx, r.VisualizationFiles())
		return err
	})
	return report, err
}

// Dashboard writes the interactive HTML dashboard
func (r *Runner) Dashboard(ctx context.Context) error {
	return r.stage(ctx, StageDashboard, func() error {
		return r.dashboard.Build(ctx, r.DashboardFiles())
	})
}

// RunAll runs every stage in order and stops at the first failing stage
func (r *Runner) RunAll(ctx context.Context, out io.Writer) error {
	r.logger.Info(ctx, "[PIPELINE_START] Running all stages", logging.Fields{
		"data_dir": r.cfg.DataDir,
	})

	if err := r.Fetch(ctx); err != nil {
		return err
	}
	if _, err := r.Clean(ctx); err != nil {
		return err
	}
	if _, err := r.Analyze(ctx, out); err != nil {
		return err
	}
	if _, err := r.Visualize(ctx); err != nil {
		return err
	}
	if err := r.Dashboard(ctx); err != nil {
		return err
	}

	r.logger.Info(ctx, "[PIPELINE_COMPLETE] All stages finished", logging.Fields{
		"data_dir":  r.cfg.DataDir,
		"dashboard": r.cfg.Path(config.DashboardFile),
	})
	return nil
}

// AnalysisFiles returns the analyzer's file layout
func (r *Runner) AnalysisFiles() services.AnalysisFiles {
	return services.AnalysisFiles{
		Clean:         r.cfg.Path(config.CleanFile),
		Decomposition: r.cfg.Path(config.DecompositionFile),
		Growth:        r.cfg.Path(config.GrowthFile),
		Decades:       r.cfg.Path(config.DecadesFile),
		Workbook:      r.cfg.Path(config.ReportWorkbook),
	}
}

// VisualizationFiles returns the visualizer's file layout
func (r *Runner) VisualizationFiles() services.VisualizationFiles {
	return services.VisualizationFiles{
		Clean:              r.cfg.Path(config.CleanFile),
		Decomposition:      r.cfg.Path(config.DecompositionFile),
		Growth:             r.cfg.Path(config.GrowthFile),
		Historical:         r.cfg.Path(config.HistoricalFile),
		FullChart:          r.cfg.Path(config.FullChart),
		SeasonalChart:      r.cfg.Path(config.SeasonalChart),
		DecadesChart:       r.cfg.Path(config.DecadesChart),
		DecompositionChart: r.cfg.Path(config.DecompositionChart),
		GrowthChart:        r.cfg.Path(config.GrowthChart),
		HistoricalChart:    r.cfg.Path(config.HistoricalChart),
	}
}

// DashboardFiles returns the dashboard's file layout
func (r *Runner) DashboardFiles() services.DashboardFiles {
	return services.DashboardFiles{
		Clean:         r.cfg.Path(config.CleanFile),
		Decomposition: r.cfg.Path(config.DecompositionFile),
		Growth:        r.cfg.Path(config.GrowthFile),
		Decades:       r.cfg.Path(config.DecadesFile),
		Historical:    r.cfg.Path(config.HistoricalFile),
		Output:        r.cfg.Path(config.DashboardFile),
	}
}

// IngestionFiles returns the outputs loaded by the ingester
func (r *Runner) IngestionFiles() services.IngestionFiles {
	return services.IngestionFiles{
		Clean:         r.cfg.Path(config.CleanFile),
		Decomposition: r.cfg.Path(config.DecompositionFile),
		Growth:        r.cfg.Path(config.GrowthFile),
		Decades:       r.cfg.Path(config.DecadesFile),
	}
}

// stage times fn and labels its failure
func (r *Runner) stage(ctx context.Context, name string, fn func() error) error {
	timer := r.metrics.StageTimer(name)
	err := fn()
	duration := timer.ObserveDuration()

	if err != nil {
		r.metrics.RecordStageError(name, ErrorKind(err))
		r.logger.Error(ctx, "[STAGE_FAILED] Stage failed", logging.Fields{
			"stage":       name,
			"error_kind":  ErrorKind(err),
			"duration_ms": duration.Milliseconds(),
		}, err)
		return fmt.Errorf("%s stage failed: %w", name, err)
	}

	r.logger.Debug(ctx, "[STAGE_COMPLETE] Stage finished", logging.Fields{
		"stage":       name,
		"duration_ms": duration.Milliseconds(),
	})
	return nil
}
