// Package report renders analysis results for people: a plain text report and an
// xlsx workbook.
package report

import (
	"fmt"
	"io"
	"strings"

	"keeling-pipeline/internal/models"
)

const ruleWidth = 70

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) section(title string) {
	t.printf("%s\n%s\n", title, strings.Repeat("-", ruleWidth))
}

// WriteText writes the analysis report: basic statistics, growth and acceleration,
// per-decade growth, decomposition variances, residual analysis and trend fits.
func WriteText(w io.Writer, result *models.AnalysisResult) error {
	t := &textWriter{w: w}
	s := result.Summary

	t.printf("%s\nKEELING CURVE TIME SERIES ANALYSIS\n%s\n\n", strings.Repeat("=", ruleWidth), strings.Repeat("=", ruleWidth))

	t.section("BASIC STATISTICS")
	t.printf("Date range:         %d - %d\n", s.StartYear, s.EndYear)
	t.printf("Total measurements: %d\n", s.Measurements)
	t.printf("CO2 start:          %.2f ppm (%d)\n", s.CO2Start, s.StartYear)
	t.printf("CO2 latest:         %.2f ppm (%d)\n", s.CO2End, s.EndYear)
	t.printf("Total increase:     %.2f ppm\n", s.TotalIncrease)
	t.printf("Percent increase:   %.1f%%\n\n", s.PercentIncrease)

	t.section("GROWTH RATE & ACCELERATION")
	t.printf("Recent growth rate (last 10y):  %.2f ppm/year\n", s.RecentGrowth)
	t.printf("Recent acceleration (last 10y): %.3f ppm/year²\n\n", s.RecentAcceleration)
	t.printf("Growth rate by decade:\n")
	for _, d := range result.Decades {
		if !d.GrowthMean.Valid() {
			continue
		}
		std := "n/a"
		if d.GrowthStd.Valid() {
			std = fmt.Sprintf("%.2f", d.GrowthStd.Float64())
		}
		t.printf("  %s: %+.2f ± %s ppm/year\n", d.Label(), d.GrowthMean.Float64(), std)
	}
	t.printf("\n")

	t.section("SEASONAL DECOMPOSITION")
	t.printf("Seasonal amplitude: %.2f ppm\n", s.SeasonalAmplitude)
	t.printf("Trend variance:     %.2f\n", s.TrendVariance)
	t.printf("Seasonal variance:  %.2f\n", s.SeasonalVariance)
	t.printf("Residual variance:  %.2f\n\n", s.ResidualVariance)

	if n := result.Normality; n != nil {
		t.section("RESIDUAL ANALYSIS")
		t.printf("Residual mean:          %.4f ppm\n", n.Mean)
		t.printf("Residual std dev:       %.2f ppm\n", n.StdDev)
		t.printf("Normality test p-value: %.4f\n", n.PValue)
		t.printf("Residuals normal:       %s\n\n", yesNo(n.IsNormal))
	}

	t.section("TREND ANALYSIS")
	if l := result.Linear; l != nil {
		t.printf("Linear trend:           %.4f ppm/year\n", l.SlopePerYear)
		t.printf("R² (goodness of fit):   %.4f\n", l.RSquared)
		t.printf("Standard error:         %.4f ppm/year\n", l.StdErrPerYear)
	}
	if q := result.Quadratic; q != nil {
		t.printf("Quadratic acceleration: %.6f ppm/year²\n", q.Curvature)
	}
	t.printf("\n")

	return t.err
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
