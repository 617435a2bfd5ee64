package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"keeling-pipeline/internal/models"
)

// RecentYears is the number of trailing years behind the recent growth figures
const RecentYears = 10

// Summarize collects the headline numbers of a run
func Summarize(records []*models.CO2Record, annual []*models.AnnualAggregate, decomposition []*models.DecompositionRecord) *models.Summary {
	s := &models.Summary{Measurements: len(records)}
	if len(annual) == 0 {
		return s
	}

	first, last := annual[0], annual[len(annual)-1]
	s.StartYear = first.Year
	s.EndYear = last.Year
	s.CO2Start = first.CO2
	s.CO2End = last.CO2
	s.TotalIncrease = last.CO2 - first.CO2
	s.PercentIncrease = (last.CO2/first.CO2 - 1) * 100

	growth := make([]models.NullFloat, len(annual))
	accelSmooth := make([]models.NullFloat, len(annual))
	for i, a := range annual {
		growth[i] = a.GrowthRate
		accelSmooth[i] = a.AccelerationSmooth
	}
	tail := growth
	if len(tail) > RecentYears {
		tail = tail[len(tail)-RecentYears:]
	}
	s.RecentGrowth = meanDefined(tail)
	s.RecentAcceleration = meanDefined(lastDefined(accelSmooth, RecentYears))

	var trend, seasonal, residual []float64
	for _, d := range decomposition {
		if d.Trend.Valid() {
			trend = append(trend, d.Trend.Float64())
		}
		if d.Seasonal.Valid() {
			seasonal = append(seasonal, d.Seasonal.Float64())
		}
		if d.Residual.Valid() {
			residual = append(residual, d.Residual.Float64())
		}
	}
	if len(seasonal) > 0 {
		s.SeasonalAmplitude = floats.Max(seasonal) - floats.Min(seasonal)
	}
	s.TrendVariance = sampleVariance(trend)
	s.SeasonalVariance = sampleVariance(seasonal)
	s.ResidualVariance = sampleVariance(residual)

	return s
}

func sampleVariance(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Variance(x, nil)
}

// Analyze runs every routine of the analyzer stage over a clean dataset
func Analyze(ds *models.CleanDataset, period int) (*models.AnalysisResult, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, &models.InsufficientDataError{Operation: "analysis", Required: 1, Got: 0}
	}

	dates := ds.Dates()
	values := ds.CO2Values()

	annual := AnnualGrowth(ds.Records)

	decomposition, err := Decompose(dates, values, period)
	if err != nil {
		return nil, err
	}

	residuals := make([]float64, 0, len(decomposition))
	for _, d := range decomposition {
		residuals = append(residuals, d.Residual.Float64())
	}
	normality, err := NormalTest(residuals)
	if err != nil {
		return nil, err
	}

	linear, err := FitLinearTrend(dates, values)
	if err != nil {
		return nil, err
	}
	quadratic, err := FitQuadraticTrend(dates, values)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisResult{
		Summary:       Summarize(ds.Records, annual, decomposition),
		Annual:        annual,
		Decomposition: decomposition,
		Decades:       DecadeSummaries(annual),
		Linear:        linear,
		Quadratic:     quadratic,
		Normality:     normality,
	}, nil
}
