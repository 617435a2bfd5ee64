package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"keeling-pipeline/internal/models"
	"keeling-pipeline/pkg/database"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// CO2Repository provides data access for the pipeline outputs
type CO2Repository interface {
	// Write operations; every one is an idempotent upsert
	UpsertMonthly(ctx context.Context, records []*models.CO2Record) error
	UpsertDecomposition(ctx context.Context, records []*models.DecompositionRecord) error
	UpsertAnnual(ctx context.Context, annual []*models.AnnualAggregate) error
	UpsertDecades(ctx context.Context, decades []*models.DecadeSummary) error

	// Read operations
	GetMonthly(ctx context.Context, filter DateFilter) ([]*models.CO2Record, int, error)
	GetDecomposition(ctx context.Context, filter DateFilter) ([]*models.DecompositionRecord, int, error)
	GetAnnual(ctx context.Context, filter YearFilter) ([]*models.AnnualAggregate, int, error)
	GetAnnualByYear(ctx context.Context, year int) (*models.AnnualAggregate, error)
	GetDecades(ctx context.Context) ([]*models.DecadeSummary, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// DateFilter defines filters for querying monthly series
type DateFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// YearFilter defines filters for querying annual series
type YearFilter struct {
	StartYear *int
	EndYear   *int
	Limit     int
	Offset    int
}

// co2Repository implements CO2Repository
type co2Repository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewCO2Repository creates a new CO2 repository
func NewCO2Repository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) CO2Repository {
	return &co2Repository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const upsertMonthlyQuery = `
	INSERT INTO co2_monthly (measurement_date, year, month, co2_ppm, co2_adjusted_ppm, co2_fit_ppm)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (measurement_date) DO UPDATE SET
		year = EXCLUDED.year,
		month = EXCLUDED.month,
		co2_ppm = EXCLUDED.co2_ppm,
		co2_adjusted_ppm = EXCLUDED.co2_adjusted_ppm,
		co2_fit_ppm = EXCLUDED.co2_fit_ppm
`

// UpsertMonthly writes clean monthly records in a single transaction
func (r *co2Repository) UpsertMonthly(ctx context.Context, records []*models.CO2Record) error {
	err := r.upsert(ctx, "co2_monthly", upsertMonthlyQuery, len(records), func(i int) []interface{} {
		rec := records[i]
		return []interface{}{rec.Date, rec.Year, rec.Month, rec.CO2, rec.CO2Adjusted, rec.CO2Fit}
	})
	if err != nil {
		return fmt.Errorf("failed to upsert monthly records: %w", err)
	}
	return nil
}

const upsertDecompositionQuery = `
	INSERT INTO co2_decomposition (
		measurement_date, observed_ppm, trend_ppm, seasonal_ppm, residual_ppm,
		detrended_ppm, deseasonalized_ppm
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (measurement_date) DO UPDATE SET
		observed_ppm = EXCLUDED.observed_ppm,
		trend_ppm = EXCLUDED.trend_ppm,
		seasonal_ppm = EXCLUDED.seasonal_ppm,
		residual_ppm = EXCLUDED.residual_ppm,
		detrended_ppm = EXCLUDED.detrended_ppm,
		deseasonalized_ppm = EXCLUDED.deseasonalized_ppm
`

// UpsertDecomposition writes decomposition rows in a single transaction
func (r *co2Repository) UpsertDecomposition(ctx context.Context, records []*models.DecompositionRecord) error {
	err := r.upsert(ctx, "co2_decomposition", upsertDecompositionQuery, len(records), func(i int) []interface{} {
		d := records[i]
		return []interface{}{d.Date, d.Observed, d.Trend, d.Seasonal, d.Residual, d.Detrended, d.Deseasonalized}
	})
	if err != nil {
		return fmt.Errorf("failed to upsert decomposition: %w", err)
	}
	return nil
}

const upsertAnnualQuery = `
	INSERT INTO co2_annual (
		year, co2_mean_ppm, growth_rate, acceleration, growth_rate_smooth, acceleration_smooth
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (year) DO UPDATE SET
		co2_mean_ppm = EXCLUDED.co2_mean_ppm,
		growth_rate = EXCLUDED.growth_rate,
		acceleration = EXCLUDED.acceleration,
		growth_rate_smooth = EXCLUDED.growth_rate_smooth,
		acceleration_smooth = EXCLUDED.acceleration_smooth
`

// UpsertAnnual writes annual aggregates in a single transaction
func (r *co2Repository) UpsertAnnual(ctx context.Context, annual []*models.AnnualAggregate) error {
	err := r.upsert(ctx, "co2_annual", upsertAnnualQuery, len(annual), func(i int) []interface{} {
		a := annual[i]
		return []interface{}{a.Year, a.CO2, a.GrowthRate, a.Acceleration, a.GrowthRateSmooth, a.AccelerationSmooth}
	})
	if err != nil {
		return fmt.Errorf("failed to upsert annual aggregates: %w", err)
	}
	return nil
}

const upsertDecadesQuery = `
	INSERT INTO co2_decades (decade, co2_mean_ppm, co2_min_ppm, co2_max_ppm, growth_mean, growth_std)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (decade) DO UPDATE SET
		co2_mean_ppm = EXCLUDED.co2_mean_ppm,
		co2_min_ppm = EXCLUDED.co2_min_ppm,
		co2_max_ppm = EXCLUDED.co2_max_ppm,
		growth_mean = EXCLUDED.growth_mean,
		growth_std = EXCLUDED.growth_std
`

// UpsertDecades writes decade summaries in a single transaction
func (r *co2Repository) UpsertDecades(ctx context.Context, decades []*models.DecadeSummary) error {
	err := r.upsert(ctx, "co2_decades", upsertDecadesQuery, len(decades), func(i int) []interface{} {
		d := decades[i]
		return []interface{}{d.Decade, d.CO2Mean, d.CO2Min, d.CO2Max, d.GrowthMean, d.GrowthStd}
	})
	if err != nil {
		return fmt.Errorf("failed to upsert decade summaries: %w", err)
	}
	return nil
}

func (r *co2Repository) upsert(ctx context.Context, table, query string, rows int, args func(i int) []interface{}) error {
	if rows == 0 {
		return nil
	}

	timer := time.Now()
	if err := r.db.ExecBatch(ctx, "upsert_"+table, query, rows, args); err != nil {
		return err
	}

	r.metrics.IngestionBatchSize.Observe(float64(rows))
	r.metrics.IngestionRecordsTotal.WithLabelValues(table).Add(float64(rows))
	r.logger.Debug(ctx, "[REPO_BATCH_UPSERT] Batch upsert completed", logging.Fields{
		"table":       table,
		"count":       rows,
		"duration_ms": time.Since(timer).Milliseconds(),
	})
	return nil
}

// GetMonthly retrieves monthly records in date order with filtering and pagination
func (r *co2Repository) GetMonthly(ctx context.Context, filter DateFilter) ([]*models.CO2Record, int, error) {
	query := `
		SELECT measurement_date, year, month, co2_ppm, co2_adjusted_ppm, co2_fit_ppm
		FROM co2_monthly
		WHERE 1=1
	`
	query, args := dateRange(query, filter)

	total, err := r.count(ctx, "count_monthly", query, args)
	if err != nil {
		return nil, 0, err
	}

	query, args = paginate(query+" ORDER BY measurement_date", args, filter.Limit, filter.Offset)

	var records []*models.CO2Record
	if err := r.db.SelectContext(ctx, "get_monthly", &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get monthly records: %w", err)
	}

	return records, total, nil
}

// GetDecomposition retrieves decomposition rows in date order with filtering and pagination
func (r *co2Repository) GetDecomposition(ctx context.Context, filter DateFilter) ([]*models.DecompositionRecord, int, error) {
	query := `
		SELECT measurement_date, observed_ppm, trend_ppm, seasonal_ppm, residual_ppm,
		       detrended_ppm, deseasonalized_ppm
		FROM co2_decomposition
		WHERE 1=1
	`
	query, args := dateRange(query, filter)

	total, err := r.count(ctx, "count_decomposition", query, args)
	if err != nil {
		return nil, 0, err
	}

	query, args = paginate(query+" ORDER BY measurement_date", args, filter.Limit, filter.Offset)

	var records []*models.DecompositionRecord
	if err := r.db.SelectContext(ctx, "get_decomposition", &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get decomposition: %w", err)
	}

	return records, total, nil
}

// GetAnnual retrieves annual aggregates in year order with filtering and pagination
func (r *co2Repository) GetAnnual(ctx context.Context, filter YearFilter) ([]*models.AnnualAggregate, int, error) {
	query := `
		SELECT year, co2_mean_ppm, growth_rate, acceleration, growth_rate_smooth, acceleration_smooth
		FROM co2_annual
		WHERE 1=1
	`
	args := []interface{}{}
	if filter.StartYear != nil {
		args = append(args, *filter.StartYear)
		query += fmt.Sprintf(" AND year >= $%d", len(args))
	}
	if filter.EndYear != nil {
		args = append(args, *filter.EndYear)
		query += fmt.Sprintf(" AND year <= $%d", len(args))
	}

	total, err := r.count(ctx, "count_annual", query, args)
	if err != nil {
		return nil, 0, err
	}

	query, args = paginate(query+" ORDER BY year", args, filter.Limit, filter.Offset)

	var annual []*models.AnnualAggregate
	if err := r.db.SelectContext(ctx, "get_annual", &annual, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get annual aggregates: %w", err)
	}

	return annual, total, nil
}

// GetAnnualByYear retrieves the aggregate of one year
func (r *co2Repository) GetAnnualByYear(ctx context.Context, year int) (*models.AnnualAggregate, error) {
	query := `
		SELECT year, co2_mean_ppm, growth_rate, acceleration, growth_rate_smooth, acceleration_smooth
		FROM co2_annual
		WHERE year = $1
	`

	var annual models.AnnualAggregate
	err := r.db.GetContext(ctx, "get_annual_by_year", &annual, query, year)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "annual_aggregate", ID: strconv.Itoa(year)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get annual aggregate: %w", err)
	}

	return &annual, nil
}

// GetDecades retrieves every decade summary, oldest first
func (r *co2Repository) GetDecades(ctx context.Context) ([]*models.DecadeSummary, error) {
	query := `
		SELECT decade, co2_mean_ppm, co2_min_ppm, co2_max_ppm, growth_mean, growth_std
		FROM co2_decades
		ORDER BY decade
	`

	var decades []*models.DecadeSummary
	if err := r.db.SelectContext(ctx, "get_decades", &decades, query); err != nil {
		return nil, fmt.Errorf("failed to get decade summaries: %w", err)
	}

	return decades, nil
}

// HealthCheck performs a repository health check
func (r *co2Repository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func (r *co2Repository) count(ctx context.Context, queryType, query string, args []interface{}) (int, error) {
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var total int
	if err := r.db.GetContext(ctx, queryType, &total, countQuery, args...); err != nil {
		return 0, fmt.Errorf("failed to %s: %w", queryType, err)
	}
	return total, nil
}

func dateRange(query string, filter DateFilter) (string, []interface{}) {
	args := []interface{}{}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND measurement_date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND measurement_date <= $%d", len(args))
	}
	return query, args
}

func paginate(query string, args []interface{}, limit, offset int) (string, []interface{}) {
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	return query, append(args, limit, offset)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsTransient returns false as a missing resource will not appear on retry
func (e *NotFoundError) IsTransient() bool {
	return false
}
