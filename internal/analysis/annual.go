package analysis

import (
	"math"
	"sort"

	"keeling-pipeline/internal/models"
)

// SmoothingWindow is the width of the centered moving average over annual series
const SmoothingWindow = 5

// AnnualMeans returns the mean co2 of every distinct year, in ascending year order
func AnnualMeans(records []*models.CO2Record) (years []int, means []float64) {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range records {
		sums[r.Year] += r.CO2
		counts[r.Year]++
	}

	years = make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)

	means = make([]float64, len(years))
	for i, y := range years {
		means[i] = sums[y] / float64(counts[y])
	}
	return years, means
}

// AnnualGrowth computes one aggregate per distinct year.
// growth(Y) = mean(Y) - mean(Y-1) and is undefined when Y-1 has no records;
// acceleration(Y) = growth(Y) - growth(Y-1) under the same rule.
func AnnualGrowth(records []*models.CO2Record) []*models.AnnualAggregate {
	years, means := AnnualMeans(records)

	annual := make([]*models.AnnualAggregate, len(years))
	growth := make([]models.NullFloat, len(years))
	accel := make([]models.NullFloat, len(years))

	for i, y := range years {
		growth[i] = models.Undefined()
		accel[i] = models.Undefined()
		if i > 0 && years[i-1] == y-1 {
			growth[i] = models.NullFloat(means[i] - means[i-1])
		}
	}
	for i, y := range years {
		if i > 0 && years[i-1] == y-1 && growth[i].Valid() && growth[i-1].Valid() {
			accel[i] = growth[i] - growth[i-1]
		}
	}

	growthSmooth := RollingMean(growth, SmoothingWindow)
	accelSmooth := RollingMean(accel, SmoothingWindow)

	for i, y := range years {
		annual[i] = &models.AnnualAggregate{
			Year:               y,
			CO2:                means[i],
			GrowthRate:         growth[i],
			Acceleration:       accel[i],
			GrowthRateSmooth:   growthSmooth[i],
			AccelerationSmooth: accelSmooth[i],
		}
	}
	return annual
}

// RollingMean returns the centered moving average of an odd-width window.
// A position is defined only when every value in its window exists and is defined.
func RollingMean(values []models.NullFloat, window int) []models.NullFloat {
	out := make([]models.NullFloat, len(values))
	half := window / 2

	for i := range values {
		out[i] = models.Undefined()
		if i-half < 0 || i+half >= len(values) {
			continue
		}

		sum := 0.0
		defined := true
		for j := i - half; j <= i+half; j++ {
			if !values[j].Valid() {
				defined = false
				break
			}
			sum += values[j].Float64()
		}
		if defined {
			out[i] = models.NullFloat(sum / float64(window))
		}
	}
	return out
}

// meanDefined averages the defined values, NaN when there are none
func meanDefined(values []models.NullFloat) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if v.Valid() {
			sum += v.Float64()
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// lastDefined returns up to n of the trailing defined values
func lastDefined(values []models.NullFloat, n int) []models.NullFloat {
	out := make([]models.NullFloat, 0, n)
	for i := len(values) - 1; i >= 0 && len(out) < n; i-- {
		if values[i].Valid() {
			out = append(out, values[i])
		}
	}
	return out
}
