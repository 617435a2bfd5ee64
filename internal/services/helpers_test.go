package services

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("keeling-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

func testCollector() *metrics.Collector {
	return metrics.NewCollectorWithRegistry("keeling_test", prometheus.NewRegistry())
}

// rawMonthly renders a Scripps-style monthly file: quoted comment lines, a two line
// header, a rising trend with a seasonal cycle, and sentinel months in the first year
func rawMonthly(startYear, years int) string {
	var b strings.Builder
	b.WriteString("\" Atmospheric CO2 concentrations (ppm) derived from in situ air measurements\n")
	b.WriteString("\" at Mauna Loa Observatory, Hawaii\n")
	b.WriteString("  Yr, Mn,     Date,      CO2, seasonally,        fit\n")
	b.WriteString("    ,   ,    Excel,    [ppm], adjusted [ppm], [ppm]\n")

	for y := 0; y < years; y++ {
		for m := 1; m <= 12; m++ {
			t := float64(y) + float64(m-1)/12
			trend := 315 + 0.8*t + 0.012*t*t
			season := 3 * math.Sin(2*math.Pi*float64(m-1)/12)
			co2 := fmt.Sprintf("%.2f", trend+season)
			adjusted := fmt.Sprintf("%.2f", trend)
			if y == 0 && m <= 2 {
				co2, adjusted = "-99.99", "-99.99"
			}
			fmt.Fprintf(&b, "%4d, %2d, %8d, %s, %s, %.2f\n", startYear+y, m, 21000+y*365+m*30, co2, adjusted, trend)
		}
	}
	return b.String()
}

func writeRawMonthly(t *testing.T, dir string, startYear, years int) string {
	t.Helper()
	path := filepath.Join(dir, "co2_monthly.csv")
	require.NoError(t, os.WriteFile(path, []byte(rawMonthly(startYear, years)), 0o644))
	return path
}

// rawHistorical renders a merged ice core file spanning both sides of 1958
func rawHistorical() string {
	var b strings.Builder
	b.WriteString("\" Merged ice core and Mauna Loa record\n")
	b.WriteString("sample_year, CO2 (ppm)\n")
	for year := 1; year < 1958; year += 50 {
		fmt.Fprintf(&b, "%d, %.1f\n", year, 278+float64(year%7))
	}
	for year := 1958; year <= 2020; year++ {
		fmt.Fprintf(&b, "%d, %.2f\n", year, 315+1.5*float64(year-1958))
	}
	return b.String()
}
