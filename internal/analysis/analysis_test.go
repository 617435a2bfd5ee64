package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"keeling-pipeline/internal/models"
)

func record(year, month int, co2 float64) *models.CO2Record {
	return &models.CO2Record{
		Date:        time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		Year:        year,
		Month:       month,
		CO2:         co2,
		CO2Adjusted: models.Undefined(),
		CO2Fit:      models.Undefined(),
	}
}

// monthlySeries builds n consecutive months from January 2000
func monthlySeries(n int, value func(i int) float64) ([]time.Time, []float64) {
	dates := make([]time.Time, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		values[i] = value(i)
	}
	return dates, values
}

func noise(i int) float64 {
	v := math.Sin(float64(i)*12.9898) * 43758.5453
	return (v - math.Floor(v)) - 0.5
}

func TestAnnualGrowth(t *testing.T) {
	records := []*models.CO2Record{
		record(1960, 1, 315), record(1960, 2, 317),
		record(1961, 1, 317),
		record(1962, 6, 319),
	}

	annual := AnnualGrowth(records)
	require.Len(t, annual, 3)

	assert.Equal(t, 1960, annual[0].Year)
	assert.Equal(t, 316.0, annual[0].CO2)
	assert.False(t, annual[0].GrowthRate.Valid())
	assert.False(t, annual[0].Acceleration.Valid())

	assert.Equal(t, models.NullFloat(1), annual[1].GrowthRate)
	assert.False(t, annual[1].Acceleration.Valid())

	assert.Equal(t, models.NullFloat(2), annual[2].GrowthRate)
	assert.Equal(t, models.NullFloat(1), annual[2].Acceleration)

	for _, a := range annual {
		assert.False(t, a.GrowthRateSmooth.Valid())
		assert.False(t, a.AccelerationSmooth.Valid())
	}
}

func TestAnnualGrowth_GapYear(t *testing.T) {
	annual := AnnualGrowth([]*models.CO2Record{
		record(1960, 1, 316), record(1961, 1, 317), record(1963, 1, 320), record(1964, 1, 322),
	})
	require.Len(t, annual, 4)

	assert.Equal(t, models.NullFloat(1), annual[1].GrowthRate)
	assert.False(t, annual[2].GrowthRate.Valid(), "1962 is absent")
	assert.Equal(t, models.NullFloat(2), annual[3].GrowthRate)
	assert.False(t, annual[3].Acceleration.Valid())
}

func TestAnnualGrowth_Smoothing(t *testing.T) {
	var records []*models.CO2Record
	for i := 0; i < 10; i++ {
		records = append(records, record(1970+i, 1, 320+float64(i*i)))
	}

	annual := AnnualGrowth(records)
	require.Len(t, annual, 10)

	// growth(Y) = 2i-1, defined from index 1
	for i := 0; i < 3; i++ {
		assert.False(t, annual[i].GrowthRateSmooth.Valid(), "index %d", i)
	}
	assert.InDelta(t, 5.0, annual[3].GrowthRateSmooth.Float64(), 1e-9)
	assert.False(t, annual[8].GrowthRateSmooth.Valid())

	// acceleration is constant 2 from index 2
	assert.InDelta(t, 2.0, annual[4].AccelerationSmooth.Float64(), 1e-9)
	assert.False(t, annual[3].AccelerationSmooth.Valid())
}

func TestRollingMean(t *testing.T) {
	values := []models.NullFloat{1, 2, 3, 4, 5, 6, 7}
	out := RollingMean(values, 5)
	assert.False(t, out[0].Valid())
	assert.False(t, out[1].Valid())
	assert.Equal(t, models.NullFloat(3), out[2])
	assert.Equal(t, models.NullFloat(5), out[4])
	assert.False(t, out[5].Valid())

	values[3] = models.Undefined()
	out = RollingMean(values, 5)
	for i := range out {
		assert.False(t, out[i].Valid(), "index %d", i)
	}
}

func TestDecompose(t *testing.T) {
	n := 60
	dates, values := monthlySeries(n, func(i int) float64 {
		return 300 + 0.1*float64(i) + 3*math.Sin(2*math.Pi*float64(i)/12)
	})

	records, err := Decompose(dates, values, 12)
	require.NoError(t, err)
	require.Len(t, records, n)

	for i, r := range records {
		require.True(t, r.Trend.Valid(), "trend %d", i)
		assert.InDelta(t, r.Observed, r.Trend.Float64()+r.Seasonal.Float64()+r.Residual.Float64(), 1e-9)
		assert.InDelta(t, 300+0.1*float64(i), r.Trend.Float64(), 1e-9, "trend %d", i)
		assert.InDelta(t, 0, r.Residual.Float64(), 1e-9, "residual %d", i)
		assert.InDelta(t, r.Observed-r.Trend.Float64(), r.Detrended.Float64(), 1e-12)
		assert.InDelta(t, r.Observed-r.Seasonal.Float64(), r.Deseasonalized.Float64(), 1e-12)
		if i+12 < n {
			assert.InDelta(t, r.Seasonal.Float64(), records[i+12].Seasonal.Float64(), 1e-12)
		}
	}
	assert.InDelta(t, 3.0, records[3].Seasonal.Float64(), 1e-9)
	assert.Equal(t, dates[10], records[10].Date)
}

func TestDecompose_CurvedTrendEdges(t *testing.T) {
	n := 48
	dates, values := monthlySeries(n, func(i int) float64 {
		x := float64(i)
		return 300 + 0.1*x + 0.002*x*x + 3*math.Sin(2*math.Pi*x/12)
	})

	records, err := Decompose(dates, values, 12)
	require.NoError(t, err)

	// Edges come from lines fitted over the first 12 defined trend values and over
	// the 12 defined values before the last one.
	trend := map[int]float64{
		0:  299.7836666666667,
		5:  300.51366666666667,
		6:  300.69633333333337,
		41: 307.4863333333334,
		42: 307.66366666666664,
		47: 308.8536666666667,
	}
	for i, want := range trend {
		assert.InDelta(t, want, records[i].Trend.Float64(), 1e-9, "trend %d", i)
	}

	assert.InDelta(t, 0.019416666666652798, records[0].Seasonal.Float64(), 1e-9)
	assert.InDelta(t, 2.9894166666666515, records[3].Seasonal.Float64(), 1e-9)
	assert.InDelta(t, -2.991583333333343, records[9].Seasonal.Float64(), 1e-9)
	assert.InDelta(t, 0.19691666666664295, records[0].Residual.Float64(), 1e-9)
	assert.InDelta(t, 0.23291666666664423, records[47].Residual.Float64(), 1e-9)
}

func TestDecompose_InsufficientData(t *testing.T) {
	dates, values := monthlySeries(23, func(i int) float64 { return float64(i) })

	_, err := Decompose(dates, values, 12)
	var insufficient *models.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 24, insufficient.Required)
	assert.Equal(t, 23, insufficient.Got)
}

func TestFitLinearTrend(t *testing.T) {
	dates, _ := monthlySeries(120, func(int) float64 { return 0 })
	days := ElapsedDays(dates)
	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = 315 + 2*d/DaysPerYear
	}

	fit, err := FitLinearTrend(dates, values)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fit.SlopePerYear, 1e-9)
	assert.InDelta(t, 315.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-9)
	assert.InDelta(t, 0.0, fit.StdErrPerYear, 1e-6)
	assert.Equal(t, 120, fit.Observations)

	_, err = FitLinearTrend(dates[:2], values[:2])
	assert.Error(t, err)
}

func TestFitQuadraticTrend(t *testing.T) {
	dates, _ := monthlySeries(240, func(int) float64 { return 0 })
	days := ElapsedDays(dates)
	values := make([]float64, len(days))
	for i, d := range days {
		yr := d / DaysPerYear
		values[i] = 315 + 0.8*yr + 0.0125*yr*yr
	}

	fit, err := FitQuadraticTrend(dates, values)
	require.NoError(t, err)
	assert.InDelta(t, 0.0125, fit.A, 1e-8)
	assert.InDelta(t, 0.8, fit.B, 1e-7)
	assert.InDelta(t, 315.0, fit.C, 1e-6)
	assert.InDelta(t, 0.025, fit.Curvature, 1e-8)
}

func TestNormalTest(t *testing.T) {
	t.Run("too few values", func(t *testing.T) {
		_, err := NormalTest([]float64{1, 2, 3, 4, 5, 6, 7, math.NaN()})
		var insufficient *models.InsufficientDataError
		assert.True(t, errors.As(err, &insufficient))
	})

	t.Run("normal quantiles", func(t *testing.T) {
		n := 500
		x := make([]float64, n)
		for i := range x {
			x[i] = distuv.UnitNormal.Quantile((float64(i) + 0.5) / float64(n))
		}
		res, err := NormalTest(x)
		require.NoError(t, err)
		assert.True(t, res.IsNormal, "p = %v", res.PValue)
		assert.Equal(t, n, res.N)
		assert.InDelta(t, 0, res.Mean, 1e-9)
	})

	t.Run("fixed sample", func(t *testing.T) {
		x := []float64{
			0.42, -1.31, 0.87, 2.15, -0.26, 0.09, -0.74, 1.48, 0.33, -2.02,
			0.61, -0.15, 1.12, -0.58, 0.27, 3.40, -0.91, 0.05, 0.78, -1.27,
		}
		res, err := NormalTest(x)
		require.NoError(t, err)
		assert.InDelta(t, 2.9861129497566044, res.Statistic, 1e-9)
		assert.InDelta(t, 0.2246848613278407, res.PValue, 1e-9)
		assert.True(t, res.IsNormal)
		assert.Equal(t, 20, res.N)
	})

	t.Run("skewed values", func(t *testing.T) {
		x := make([]float64, 100)
		for i := range x {
			x[i] = math.Exp(6 * float64(i) / 100)
		}
		res, err := NormalTest(x)
		require.NoError(t, err)
		assert.False(t, res.IsNormal)
		assert.Less(t, res.PValue, 0.01)
		assert.Greater(t, res.Statistic, 0.0)
	})
}

func TestDecadeSummaries(t *testing.T) {
	annual := AnnualGrowth([]*models.CO2Record{
		record(1958, 1, 315), record(1959, 1, 316), record(1960, 1, 317), record(1961, 1, 318.5),
	})

	decades := DecadeSummaries(annual)
	require.Len(t, decades, 2)

	assert.Equal(t, 1950, decades[0].Decade)
	assert.Equal(t, 315.5, decades[0].CO2Mean)
	assert.Equal(t, 315.0, decades[0].CO2Min)
	assert.Equal(t, 316.0, decades[0].CO2Max)
	assert.Equal(t, models.NullFloat(1), decades[0].GrowthMean)
	assert.False(t, decades[0].GrowthStd.Valid())

	assert.Equal(t, 1960, decades[1].Decade)
	assert.Equal(t, 317.75, decades[1].CO2Mean)
	assert.Equal(t, models.NullFloat(1.25), decades[1].GrowthMean)
	assert.Equal(t, models.NullFloat(0.35), decades[1].GrowthStd)
	assert.Equal(t, "1960s", decades[1].Label())
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.24, Round(1.2449, 2))
	assert.Equal(t, -0.5, Round(-0.499, 2))
	assert.Equal(t, 0.12, Round(0.125, 2))
	assert.Equal(t, 0.38, Round(0.375, 2))
	assert.Equal(t, 2.0, Round(2.5, 0))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestMonthlyClimatology(t *testing.T) {
	stats := MonthlyClimatology([]*models.CO2Record{
		record(1960, 1, 310), record(1961, 1, 312), record(1960, 2, 311),
	})
	require.Len(t, stats, 12)

	assert.Equal(t, 1, stats[0].Month)
	assert.InDelta(t, 311, stats[0].Mean.Float64(), 1e-9)
	assert.InDelta(t, math.Sqrt2, stats[0].Std.Float64(), 1e-9)
	assert.Equal(t, 2, stats[0].Count)

	assert.InDelta(t, 311, stats[1].Mean.Float64(), 1e-9)
	assert.False(t, stats[1].Std.Valid())

	assert.False(t, stats[2].Mean.Valid())
	assert.Equal(t, 0, stats[2].Count)
}

func TestDecadeCycles(t *testing.T) {
	cycles := DecadeCycles([]*models.CO2Record{
		record(1961, 3, 318), record(1958, 3, 315), record(1959, 3, 317), record(1959, 4, 318),
	})
	require.Len(t, cycles, 2)

	assert.Equal(t, 1950, cycles[0].Decade)
	assert.Equal(t, 3, cycles[0].Count)
	assert.InDelta(t, 316, cycles[0].Monthly[2].Float64(), 1e-9)
	assert.InDelta(t, 318, cycles[0].Monthly[3].Float64(), 1e-9)
	assert.False(t, cycles[0].Monthly[0].Valid())

	assert.Equal(t, 1960, cycles[1].Decade)
	assert.InDelta(t, 318, cycles[1].Monthly[2].Float64(), 1e-9)
}

func TestAnalyze(t *testing.T) {
	var records []*models.CO2Record
	for i := 0; i < 15*12; i++ {
		year, month := 1990+i/12, i%12+1
		v := 350 + 0.15*float64(i) + 3*math.Sin(2*math.Pi*float64(i)/12) + noise(i)
		records = append(records, record(year, month, v))
	}

	result, err := Analyze(&models.CleanDataset{Records: records}, 12)
	require.NoError(t, err)

	assert.Len(t, result.Annual, 15)
	assert.Len(t, result.Decomposition, len(records))
	assert.Len(t, result.Decades, 2)
	assert.InDelta(t, 1.8, result.Linear.SlopePerYear, 0.05)
	assert.Greater(t, result.Linear.RSquared, 0.9)
	assert.Equal(t, len(records), result.Normality.N)

	s := result.Summary
	assert.Equal(t, 1990, s.StartYear)
	assert.Equal(t, 2004, s.EndYear)
	assert.Equal(t, len(records), s.Measurements)
	assert.InDelta(t, s.CO2End-s.CO2Start, s.TotalIncrease, 1e-12)
	assert.InDelta(t, 1.8, s.RecentGrowth, 0.1)
	assert.InDelta(t, 6, s.SeasonalAmplitude, 0.5)
	assert.False(t, math.IsNaN(s.RecentAcceleration))
}

func TestAnalyze_Empty(t *testing.T) {
	_, err := Analyze(&models.CleanDataset{}, 12)
	var insufficient *models.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}

func TestSplitHistorical(t *testing.T) {
	points := []models.HistoricalPoint{
		{Year: 1, CO2: 278.0},
		{Year: 1000, CO2: 279.5},
		{Year: 1957, CO2: 312.0},
		{Year: 1958, CO2: 315.3},
		{Year: 2023, CO2: 421.1},
		{Year: 2022, CO2: 418.5},
	}

	view, err := SplitHistorical("co2_historical.csv", points)
	require.NoError(t, err)

	assert.Len(t, view.IceCore, 3)
	assert.Len(t, view.Modern, 3)
	assert.Equal(t, 418.5, view.Current, "last sample in file order")
	assert.Equal(t, 2022, view.Span)
}

func TestSplitHistoricalNeedsBothParts(t *testing.T) {
	_, err := SplitHistorical("co2_historical.csv", []models.HistoricalPoint{{Year: 1990, CO2: 354}})

	var missing *models.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "co2_historical.csv", missing.Path)
}
