package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// Pipeline Metrics
	StageDuration       *prometheus.HistogramVec
	StageErrorsTotal    *prometheus.CounterVec
	FetchBytesTotal     *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	FetchErrorsTotal    *prometheus.CounterVec
	CleanRowsTotal      *prometheus.CounterVec
	CleanDroppedTotal   *prometheus.CounterVec
	ChartsRenderedTotal *prometheus.CounterVec
	ChartsSkippedTotal  *prometheus.CounterVec

	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Ingestion Metrics
	IngestionRecordsTotal *prometheus.CounterVec
	IngestionDuration     prometheus.Histogram
	IngestionErrorsTotal  *prometheus.CounterVec
	IngestionBatchSize    prometheus.Histogram

	// Database Metrics
	DBQueryDuration  *prometheus.HistogramVec
	DBConnectionPool *prometheus.GaugeVec
	DBErrorsTotal    *prometheus.CounterVec

	// Statistics Metrics
	StatsCalculationDuration prometheus.Histogram
}

// NewCollector creates a new metrics collector registered on the default registry
func NewCollector(namespace string) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a new metrics collector registered on reg
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),

		StageErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_errors_total",
				Help:      "Total number of failed pipeline stages by stage and error type",
			},
			[]string{"stage", "error_type"},
		),

		FetchBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_bytes_total",
				Help:      "Total number of bytes downloaded by source",
			},
			[]string{"source"},
		),

		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Download duration in seconds by source",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),

		FetchErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_errors_total",
				Help:      "Total number of failed downloads by source and error type",
			},
			[]string{"source", "error_type"},
		),

		CleanRowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clean_rows_total",
				Help:      "Total number of rows seen by the cleaner by outcome",
			},
			[]string{"outcome"}, // "read", "kept"
		),

		CleanDroppedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clean_rows_dropped_total",
				Help:      "Total number of rows dropped by the cleaner by reason",
			},
			[]string{"reason"},
		),

		ChartsRenderedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "charts_rendered_total",
				Help:      "Total number of charts written by chart name",
			},
			[]string{"chart"},
		),

		ChartsSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "charts_skipped_total",
				Help:      "Total number of charts skipped for missing optional input",
			},
			[]string{"chart"},
		),

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by type",
			},
			[]string{"error_type", "endpoint"},
		),

		IngestionRecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestion_records_processed_total",
				Help:      "Total number of records ingested by table",
			},
			[]string{"table"},
		),

		IngestionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingestion_duration_seconds",
				Help:      "Duration of ingestion operations in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),

		IngestionErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestion_errors_total",
				Help:      "Total number of ingestion errors by type",
			},
			[]string{"error_type"},
		),

		IngestionBatchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingestion_batch_size",
				Help:      "Number of records per batch during ingestion",
				Buckets:   []float64{10, 50, 100, 250, 500, 1000},
			},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds by query type",
				Buckets:   []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5},
			},
			[]string{"query_type"},
		),

		DBConnectionPool: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"state"}, // "in_use", "idle", "total"
		),

		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_errors_total",
				Help:      "Total number of database errors by type",
			},
			[]string{"error_type"},
		),

		StatsCalculationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stats_calculation_duration_seconds",
				Help:      "Duration of analysis calculations in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// StageTimer starts timing a pipeline stage
func (c *Collector) StageTimer(stage string) *Timer {
	return c.NewTimer(c.StageDuration.WithLabelValues(stage))
}

// RecordStageError increments the stage failure counter
func (c *Collector) RecordStageError(stage, errorType string) {
	c.StageErrorsTotal.WithLabelValues(stage, errorType).Inc()
}

// RecordFetch records a completed download
func (c *Collector) RecordFetch(source string, bytes int64, duration time.Duration) {
	c.FetchBytesTotal.WithLabelValues(source).Add(float64(bytes))
	c.FetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordFetchError increments the download failure counter
func (c *Collector) RecordFetchError(source, errorType string) {
	c.FetchErrorsTotal.WithLabelValues(source, errorType).Inc()
}

// RecordCleanRows records the cleaner's row counts
func (c *Collector) RecordCleanRows(read, kept int, dropped map[string]int) {
	c.CleanRowsTotal.WithLabelValues("read").Add(float64(read))
	c.CleanRowsTotal.WithLabelValues("kept").Add(float64(kept))
	for reason, n := range dropped {
		c.CleanDroppedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordChart increments the rendered or skipped chart counter
func (c *Collector) RecordChart(chart string, rendered bool) {
	if rendered {
		c.ChartsRenderedTotal.WithLabelValues(chart).Inc()
		return
	}
	c.ChartsSkippedTotal.WithLabelValues(chart).Inc()
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordIngestionError increments ingestion error counter
func (c *Collector) RecordIngestionError(errorType string) {
	c.IngestionErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordDBError increments database error counter
func (c *Collector) RecordDBError(errorType string) {
	c.DBErrorsTotal.WithLabelValues(errorType).Inc()
}

// UpdateDBConnectionPool updates database connection pool metrics
func (c *Collector) UpdateDBConnectionPool(inUse, idle, total int) {
	c.DBConnectionPool.WithLabelValues("in_use").Set(float64(inUse))
	c.DBConnectionPool.WithLabelValues("idle").Set(float64(idle))
	c.DBConnectionPool.WithLabelValues("total").Set(float64(total))
}
