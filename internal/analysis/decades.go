package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"keeling-pipeline/internal/models"
)

// DecadeSummaries groups annual aggregates by decade. co2 statistics are taken over
// annual means; growth statistics over the defined growth rates (sample standard
// deviation). Values are rounded to 2 decimals.
func DecadeSummaries(annual []*models.AnnualAggregate) []*models.DecadeSummary {
	co2ByDecade := make(map[int][]float64)
	growthByDecade := make(map[int][]float64)

	for _, a := range annual {
		d := models.DecadeOf(a.Year)
		co2ByDecade[d] = append(co2ByDecade[d], a.CO2)
		if a.GrowthRate.Valid() {
			growthByDecade[d] = append(growthByDecade[d], a.GrowthRate.Float64())
		}
	}

	decades := make([]int, 0, len(co2ByDecade))
	for d := range co2ByDecade {
		decades = append(decades, d)
	}
	sort.Ints(decades)

	summaries := make([]*models.DecadeSummary, 0, len(decades))
	for _, d := range decades {
		co2 := co2ByDecade[d]
		growth := growthByDecade[d]

		s := &models.DecadeSummary{
			Decade:     d,
			CO2Mean:    Round(stat.Mean(co2, nil), 2),
			CO2Min:     Round(floats.Min(co2), 2),
			CO2Max:     Round(floats.Max(co2), 2),
			GrowthMean: models.Undefined(),
			GrowthStd:  models.Undefined(),
		}
		if len(growth) > 0 {
			s.GrowthMean = models.NullFloat(Round(stat.Mean(growth, nil), 2))
		}
		if len(growth) > 1 {
			s.GrowthStd = models.NullFloat(Round(stat.StdDev(growth, nil), 2))
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// Round rounds v to the given number of decimals, halves to even
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*scale) / scale
}
