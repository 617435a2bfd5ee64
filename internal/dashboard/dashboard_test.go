package dashboard

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeling-pipeline/internal/analysis"
	"keeling-pipeline/internal/models"
)

func testInput(t *testing.T, years int) Input {
	t.Helper()
	ds := &models.CleanDataset{}
	for y := 0; y < years; y++ {
		for m := 1; m <= 12; m++ {
			tt := float64(y) + float64(m-1)/12
			ds.Records = append(ds.Records, &models.CO2Record{
				Date:        time.Date(1958+y, time.Month(m), 1, 0, 0, 0, 0, time.UTC),
				Year:        1958 + y,
				Month:       m,
				CO2:         315 + 0.8*tt + 0.02*tt*tt + 3*math.Cos(2*math.Pi*float64(m-5)/12),
				CO2Adjusted: models.Undefined(),
				CO2Fit:      models.Undefined(),
			})
		}
	}

	result, err := analysis.Analyze(ds, analysis.DefaultPeriod)
	require.NoError(t, err)

	return Input{
		Clean:         ds,
		Decomposition: result.Decomposition,
		Annual:        result.Annual,
		Decades:       result.Decades,
		Generated:     time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderWithoutHistorical(t *testing.T) {
	in := testInput(t, 30)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, in))
	html := buf.String()

	assert.Contains(t, html, PlotlyCDN)
	assert.Contains(t, html, "Interactive Analysis of Atmospheric CO₂ (1958–1987)")
	assert.Contains(t, html, "Executive Summary")
	assert.Contains(t, html, "Interactive dashboard generated 2026-10-16")
	for _, id := range []string{"overview-plot", "decomposition-plot", "growth-plot", "decades-plot", "seasonal-plot"} {
		assert.Contains(t, html, id)
	}
	assert.NotContains(t, html, "historical-plot")
	assert.Equal(t, 1, strings.Count(html, "Figure not available"))
	assert.Contains(t, html, "1960s:")
	assert.Contains(t, html, "Critical Finding")
}

func TestRenderWithHistorical(t *testing.T) {
	in := testInput(t, 20)
	view, err := analysis.SplitHistorical("hist.csv", []models.HistoricalPoint{
		{Year: 0, CO2: 278},
		{Year: 1800, CO2: 283},
		{Year: 1960, CO2: 317},
		{Year: 2000, CO2: 369.5},
	})
	require.NoError(t, err)
	in.Historical = view

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, in))

	assert.Contains(t, buf.String(), "historical-plot")
	assert.NotContains(t, buf.String(), "Figure not available")
	assert.Contains(t, buf.String(), "2,000 Years of Atmospheric CO₂")
}

func TestRenderRejectsEmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Input{Clean: &models.CleanDataset{}})

	var insufficient *models.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)
}

func TestFigureJSONEncodesUndefinedAsNull(t *testing.T) {
	annual := []*models.AnnualAggregate{
		{Year: 1960, CO2: 316, GrowthRate: models.Undefined(), Acceleration: models.Undefined(), GrowthRateSmooth: models.Undefined(), AccelerationSmooth: models.Undefined()},
		{Year: 1961, CO2: 317, GrowthRate: 1, Acceleration: models.Undefined(), GrowthRateSmooth: models.Undefined(), AccelerationSmooth: models.Undefined()},
	}

	data, err := GrowthFigure(annual).JSON()
	require.NoError(t, err)

	var decoded struct {
		Data []struct {
			Y []*float64 `json:"y"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	require.Len(t, decoded.Data, 4)
	assert.Nil(t, decoded.Data[0].Y[0])
	require.NotNil(t, decoded.Data[0].Y[1])
	assert.Equal(t, 1.0, *decoded.Data[0].Y[1])
}

func TestDecadeFigureSkipsUndefinedGrowth(t *testing.T) {
	fig := DecadeFigure([]*models.DecadeSummary{
		{Decade: 1950, CO2Mean: 315, GrowthMean: models.Undefined(), GrowthStd: models.Undefined()},
		{Decade: 1960, CO2Mean: 320, GrowthMean: 0.85, GrowthStd: 0.3},
		{Decade: 2020, CO2Mean: 418, GrowthMean: 2.5, GrowthStd: 0.2},
	})

	require.Len(t, fig.Data, 1)
	assert.Equal(t, []string{"1960s", "2020s"}, fig.Data[0]["x"])
	title := fig.Layout["title"].(map[string]interface{})["text"].(string)
	assert.Contains(t, title, "0.85 ppm/yr (1960s) to 2.50 ppm/yr (2020s)")
}

func TestSeasonalFigureLegendOnlyForFirstAndLastDecade(t *testing.T) {
	in := testInput(t, 32)
	cycles := analysis.DecadeCycles(in.Clean.Records)
	require.Len(t, cycles, 4)

	fig := SeasonalFigure(analysis.MonthlyClimatology(in.Clean.Records), cycles)

	// the bar trace plus one line per decade with more than a year of records
	require.Len(t, fig.Data, 5)
	var legends []string
	for _, tr := range fig.Data[1:] {
		if tr["showlegend"] == true {
			legends = append(legends, tr["name"].(string))
		}
	}
	assert.Equal(t, []string{"1950s", "1980s"}, legends)
}
