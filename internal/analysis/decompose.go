package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"keeling-pipeline/internal/models"
)

// DefaultPeriod is the seasonal period of a monthly series
const DefaultPeriod = 12

// Decompose performs additive seasonal decomposition: observed = trend + seasonal + residual.
//
// The trend is a centered moving average (2xperiod for even periods) whose undefined
// edges are filled by least squares lines fitted over the nearest period defined trend
// values. The seasonal component is the per-phase mean of the detrended series, shifted
// to zero mean and tiled over the series. Phases are positional: phase = index mod period.
func Decompose(dates []time.Time, observed []float64, period int) ([]*models.DecompositionRecord, error) {
	n := len(observed)
	if period < 2 {
		period = DefaultPeriod
	}
	if n < 2*period {
		return nil, &models.InsufficientDataError{Operation: "seasonal decomposition", Required: 2 * period, Got: n}
	}

	trend := movingAverageTrend(observed, period)
	extrapolateTrend(trend, period)

	detrended := make([]float64, n)
	for i := range observed {
		detrended[i] = observed[i] - trend[i]
	}

	pattern := seasonalPattern(detrended, period)

	records := make([]*models.DecompositionRecord, n)
	for i := range observed {
		seasonal := pattern[i%period]
		records[i] = &models.DecompositionRecord{
			Date:           dates[i],
			Observed:       observed[i],
			Trend:          models.NullFloat(trend[i]),
			Seasonal:       models.NullFloat(seasonal),
			Residual:       models.NullFloat(detrended[i] - seasonal),
			Detrended:      models.NullFloat(detrended[i]),
			Deseasonalized: models.NullFloat(observed[i] - seasonal),
		}
	}
	return records, nil
}

// movingAverageTrend returns the centered moving average, NaN where the window
// does not fit.
func movingAverageTrend(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	if period%2 == 0 {
		for i := half; i < n-half; i++ {
			sum := 0.5*values[i-half] + 0.5*values[i+half]
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	} else {
		for i := half; i < n-half; i++ {
			sum := 0.0
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(period)
		}
	}
	return trend
}

// extrapolateTrend fills the NaN edges of trend in place. The front is extended
// with the line fitted over [front, front+points), the back with the line fitted
// over [back-points, back).
func extrapolateTrend(trend []float64, points int) {
	front, back := -1, -1
	for i, v := range trend {
		if !math.IsNaN(v) {
			if front < 0 {
				front = i
			}
			back = i
		}
	}
	if front < 0 || front == back {
		return
	}

	frontLast := min(front+points, back)
	alpha, beta := fitLine(trend, front, frontLast)
	for i := 0; i < front; i++ {
		trend[i] = alpha + beta*float64(i)
	}

	backFirst := max(back-points, front)
	alpha, beta = fitLine(trend, backFirst, back)
	for i := back + 1; i < len(trend); i++ {
		trend[i] = alpha + beta*float64(i)
	}
}

// fitLine regresses trend[from:to] on its positions
func fitLine(trend []float64, from, to int) (alpha, beta float64) {
	xs := make([]float64, 0, to-from)
	ys := make([]float64, 0, to-from)
	for i := from; i < to; i++ {
		xs = append(xs, float64(i))
		ys = append(ys, trend[i])
	}
	return stat.LinearRegression(xs, ys, nil, false)
}

// seasonalPattern averages each phase of the detrended series, skipping NaN,
// and centres the pattern on zero.
func seasonalPattern(detrended []float64, period int) []float64 {
	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, v := range detrended {
		if math.IsNaN(v) {
			continue
		}
		pattern[i%period] += v
		counts[i%period]++
	}
	for p := range pattern {
		if counts[p] > 0 {
			pattern[p] /= float64(counts[p])
		} else {
			pattern[p] = math.NaN()
		}
	}

	mean := stat.Mean(pattern, nil)
	for p := range pattern {
		pattern[p] -= mean
	}
	return pattern
}
