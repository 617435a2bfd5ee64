package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// MissingSentinel is the value the Scripps files use for an absent measurement
const MissingSentinel = -99.99

// NullFloat is a float64 that is undefined when NaN.
// It renders as JSON null and SQL NULL so derived series can carry gaps.
type NullFloat float64

// Undefined returns an undefined NullFloat
func Undefined() NullFloat {
	return NullFloat(math.NaN())
}

// Valid reports whether the value is defined
func (f NullFloat) Valid() bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// Float64 returns the raw value (NaN when undefined)
func (f NullFloat) Float64() float64 {
	return float64(f)
}

// String formats the value for CSV cells; undefined values are empty
func (f NullFloat) String() string {
	if !f.Valid() {
		return ""
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler
func (f NullFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON implements json.Unmarshaler
func (f *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullFloat(v)
	return nil
}

// Value implements driver.Valuer
func (f NullFloat) Value() (driver.Value, error) {
	if !f.Valid() {
		return nil, nil
	}
	return float64(f), nil
}

// Scan implements sql.Scanner
func (f *NullFloat) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = Undefined()
	case float64:
		*f = NullFloat(v)
	case float32:
		*f = NullFloat(v)
	case int64:
		*f = NullFloat(v)
	case []byte:
		parsed, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return fmt.Errorf("scan NullFloat: %w", err)
		}
		*f = NullFloat(parsed)
	default:
		return fmt.Errorf("scan NullFloat: unsupported type %T", src)
	}
	return nil
}

// RawMeasurement represents a single row of the fetched monthly file.
// Numeric fields are already parsed; sentinel and unparsable cells are undefined.
type RawMeasurement struct {
	Line        int
	Year        NullFloat
	Month       NullFloat
	CO2         NullFloat
	CO2Adjusted NullFloat
	CO2Fit      NullFloat
}

// ToRecord converts a raw row to a clean record.
// Rows missing year, month or co2 are rejected with a ValidationError.
func (r *RawMeasurement) ToRecord() (*CO2Record, error) {
	if !r.Year.Valid() || r.Year != NullFloat(math.Trunc(float64(r.Year))) {
		return nil, &ValidationError{Field: "year", Value: r.Year.String(), Message: "missing or non-integral year"}
	}

	if !r.CO2.Valid() {
		return nil, &ValidationError{Field: "co2", Value: r.CO2.String(), Message: "missing co2 value"}
	}

	if !r.Month.Valid() || r.Month != NullFloat(math.Trunc(float64(r.Month))) || r.Month < 1 || r.Month > 12 {
		return nil, &ValidationError{Field: "month", Value: r.Month.String(), Message: "month must be an integer between 1 and 12"}
	}

	year := int(r.Year)
	month := int(r.Month)

	return &CO2Record{
		Date:        time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		Year:        year,
		Month:       month,
		CO2:         float64(r.CO2),
		CO2Adjusted: r.CO2Adjusted,
		CO2Fit:      r.CO2Fit,
	}, nil
}

// CO2Record represents one clean monthly observation
type CO2Record struct {
	Date        time.Time `json:"date" db:"measurement_date"`
	Year        int       `json:"year" db:"year"`
	Month       int       `json:"month" db:"month"`
	CO2         float64   `json:"co2" db:"co2_ppm"`
	CO2Adjusted NullFloat `json:"co2_adjusted" db:"co2_adjusted_ppm"`
	CO2Fit      NullFloat `json:"co2_fit" db:"co2_fit_ppm"`
}

// DecimalYear returns the record position as a fractional year
func (r *CO2Record) DecimalYear() float64 {
	return float64(r.Year) + float64(r.Month-1)/12.0
}

// CleanDataset is the output of the cleaning stage
type CleanDataset struct {
	Records     []*CO2Record
	HasAdjusted bool
	HasFit      bool
}

// Len returns the number of clean records
func (d *CleanDataset) Len() int {
	return len(d.Records)
}

// CO2Values returns the co2 column
func (d *CleanDataset) CO2Values() []float64 {
	values := make([]float64, len(d.Records))
	for i, r := range d.Records {
		values[i] = r.CO2
	}
	return values
}

// Dates returns the date column
func (d *CleanDataset) Dates() []time.Time {
	dates := make([]time.Time, len(d.Records))
	for i, r := range d.Records {
		dates[i] = r.Date
	}
	return dates
}

// AnnualAggregate represents one year of the growth analysis
type AnnualAggregate struct {
	Year               int       `json:"year" db:"year"`
	CO2                float64   `json:"co2" db:"co2_mean_ppm"`
	GrowthRate         NullFloat `json:"growth_rate" db:"growth_rate"`
	Acceleration       NullFloat `json:"acceleration" db:"acceleration"`
	GrowthRateSmooth   NullFloat `json:"growth_rate_smooth" db:"growth_rate_smooth"`
	AccelerationSmooth NullFloat `json:"acceleration_smooth" db:"acceleration_smooth"`
}

// DecompositionRecord represents one month of the seasonal decomposition
type DecompositionRecord struct {
	Date           time.Time `json:"date" db:"measurement_date"`
	Observed       float64   `json:"observed" db:"observed_ppm"`
	Trend          NullFloat `json:"trend" db:"trend_ppm"`
	Seasonal       NullFloat `json:"seasonal" db:"seasonal_ppm"`
	Residual       NullFloat `json:"residual" db:"residual_ppm"`
	Detrended      NullFloat `json:"detrended" db:"detrended_ppm"`
	Deseasonalized NullFloat `json:"deseasonalized" db:"deseasonalized_ppm"`
}

// DecadeSummary represents aggregate statistics for one decade
type DecadeSummary struct {
	Decade     int       `json:"decade" db:"decade"`
	CO2Mean    float64   `json:"co2_mean" db:"co2_mean_ppm"`
	CO2Min     float64   `json:"co2_min" db:"co2_min_ppm"`
	CO2Max     float64   `json:"co2_max" db:"co2_max_ppm"`
	GrowthMean NullFloat `json:"growth_mean" db:"growth_mean"`
	GrowthStd  NullFloat `json:"growth_std" db:"growth_std"`
}

// Label returns the decade name, e.g. "1960s"
func (d *DecadeSummary) Label() string {
	return fmt.Sprintf("%ds", d.Decade)
}

// DecadeOf returns the decade bucket of a year: 10*floor(year/10)
func DecadeOf(year int) int {
	q := year / 10
	if year%10 != 0 && year < 0 {
		q--
	}
	return q * 10
}

// HistoricalPoint represents one sample of the merged ice core record
type HistoricalPoint struct {
	Year float64 `json:"year"`
	CO2  float64 `json:"co2"`
}

// LinearTrend is an ordinary least squares fit of co2 against elapsed time
type LinearTrend struct {
	SlopePerYear  float64 `json:"slope_ppm_per_year"`
	Intercept     float64 `json:"intercept_ppm"`
	RSquared      float64 `json:"r_squared"`
	StdErrPerYear float64 `json:"std_err_ppm_per_year"`
	Observations  int     `json:"observations"`
}

// QuadraticTrend is a least squares quadratic fit of co2 against elapsed time
type QuadraticTrend struct {
	// Coefficients of a*t^2 + b*t + c with t in years since the first observation
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	// Curvature is the second derivative in ppm/year²
	Curvature float64 `json:"curvature_ppm_per_year2"`
}

// NormalityResult is the outcome of the omnibus normality test on residuals
type NormalityResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	IsNormal  bool    `json:"is_normal"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	N         int     `json:"n"`
}

// Summary collects the headline numbers of an analysis run
type Summary struct {
	StartYear          int     `json:"start_year"`
	EndYear            int     `json:"end_year"`
	Measurements       int     `json:"measurements"`
	CO2Start           float64 `json:"co2_start"`
	CO2End             float64 `json:"co2_end"`
	TotalIncrease      float64 `json:"total_increase"`
	PercentIncrease    float64 `json:"percent_increase"`
	RecentGrowth       float64 `json:"recent_growth"`
	RecentAcceleration float64 `json:"recent_acceleration"`
	SeasonalAmplitude  float64 `json:"seasonal_amplitude"`
	TrendVariance      float64 `json:"trend_variance"`
	SeasonalVariance   float64 `json:"seasonal_variance"`
	ResidualVariance   float64 `json:"residual_variance"`
}

// AnalysisResult bundles every output of the analysis stage
type AnalysisResult struct {
	Summary       *Summary
	Annual        []*AnnualAggregate
	Decomposition []*DecompositionRecord
	Decades       []*DecadeSummary
	Linear        *LinearTrend
	Quadratic     *QuadraticTrend
	Normality     *NormalityResult
}
