package analysis

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"keeling-pipeline/internal/models"
)

// DaysPerYear converts elapsed days to years
const DaysPerYear = 365.25

// ElapsedDays returns the whole days between each date and the first one
func ElapsedDays(dates []time.Time) []float64 {
	days := make([]float64, len(dates))
	if len(dates) == 0 {
		return days
	}
	origin := dates[0]
	for i, d := range dates {
		days[i] = math.Floor(d.Sub(origin).Hours() / 24)
	}
	return days
}

// FitLinearTrend regresses values on elapsed days since the first date.
// Slope and standard error are reported per year.
func FitLinearTrend(dates []time.Time, values []float64) (*models.LinearTrend, error) {
	n := len(values)
	if n < 3 || len(dates) != n {
		return nil, &models.InsufficientDataError{Operation: "linear trend", Required: 3, Got: n}
	}

	x := ElapsedDays(dates)
	alpha, beta := stat.LinearRegression(x, values, nil, false)
	r2 := stat.RSquared(x, values, nil, alpha, beta)

	meanX := stat.Mean(x, nil)
	ssRes, sxx := 0.0, 0.0
	for i := range x {
		res := values[i] - (alpha + beta*x[i])
		ssRes += res * res
		sxx += (x[i] - meanX) * (x[i] - meanX)
	}
	if sxx == 0 {
		return nil, fmt.Errorf("linear trend: all observations share one date")
	}
	stdErr := math.Sqrt(ssRes / float64(n-2) / sxx)

	return &models.LinearTrend{
		SlopePerYear:  beta * DaysPerYear,
		Intercept:     alpha,
		RSquared:      r2,
		StdErrPerYear: stdErr * DaysPerYear,
		Observations:  n,
	}, nil
}

// FitQuadraticTrend fits a*t² + b*t + c with t in years since the first date.
// Curvature is the second derivative 2a in ppm/year².
func FitQuadraticTrend(dates []time.Time, values []float64) (*models.QuadraticTrend, error) {
	n := len(values)
	if n < 3 || len(dates) != n {
		return nil, &models.InsufficientDataError{Operation: "quadratic trend", Required: 3, Got: n}
	}

	days := ElapsedDays(dates)
	design := mat.NewDense(n, 3, nil)
	for i, d := range days {
		t := d / DaysPerYear
		design.Set(i, 0, t*t)
		design.Set(i, 1, t)
		design.Set(i, 2, 1)
	}
	target := mat.NewVecDense(n, append([]float64(nil), values...))

	var coef mat.VecDense
	if err := coef.SolveVec(design, target); err != nil {
		return nil, fmt.Errorf("quadratic trend: %w", err)
	}

	a := coef.AtVec(0)
	return &models.QuadraticTrend{
		A:         a,
		B:         coef.AtVec(1),
		C:         coef.AtVec(2),
		Curvature: 2 * a,
	}, nil
}
