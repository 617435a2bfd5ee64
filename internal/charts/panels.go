package charts

import (
	"image/color"

	"gonum.org/v1/plot"

	"keeling-pipeline/internal/models"
)

// Decomposition stacks the observed, trend, seasonal and residual components
func Decomposition(path string, records []*models.DecompositionRecord) error {
	if len(records) == 0 {
		return &models.InsufficientDataError{Operation: "decomposition chart", Required: 1, Got: 0}
	}

	n := len(records)
	x := make([]float64, n)
	observed := make([]models.NullFloat, n)
	trend := make([]models.NullFloat, n)
	seasonal := make([]models.NullFloat, n)
	residual := make([]models.NullFloat, n)
	for i, r := range records {
		x[i] = float64(r.Date.Year()) + float64(r.Date.Month()-1)/12
		observed[i] = models.NullFloat(r.Observed)
		trend[i] = r.Trend
		seasonal[i] = r.Seasonal
		residual[i] = r.Residual
	}

	panels := []struct {
		title  string
		values []models.NullFloat
		width  float64
		color  color.Color
	}{
		{"Observed", observed, 0.8, blue},
		{"Trend", trend, 1.5, red},
		{"Seasonal", seasonal, 0.8, green},
		{"Residual", residual, 0.6, gray},
	}

	plots := make([]*plot.Plot, 0, len(panels))
	for i, panel := range panels {
		xLabel := ""
		if i == len(panels)-1 {
			xLabel = "Year"
		}
		p := newPlot(panel.title, xLabel, "ppm")
		if err := addSeries(p, "", x, panel.values, lineStyle(panel.color, panel.width)); err != nil {
			return err
		}
		if panel.title == "Residual" {
			addHLine(p, "", 0, black, true)
		}
		plots = append(plots, p)
	}

	return savePanels(path, wideWidth, plots...)
}

// Growth plots annual growth rate and acceleration, each with its five-year smooth
func Growth(path string, annual []*models.AnnualAggregate) error {
	if len(annual) == 0 {
		return &models.InsufficientDataError{Operation: "growth chart", Required: 1, Got: 0}
	}

	n := len(annual)
	x := make([]float64, n)
	growth := make([]models.NullFloat, n)
	growthSmooth := make([]models.NullFloat, n)
	accel := make([]models.NullFloat, n)
	accelSmooth := make([]models.NullFloat, n)
	for i, a := range annual {
		x[i] = float64(a.Year)
		growth[i] = a.GrowthRate
		growthSmooth[i] = a.GrowthRateSmooth
		accel[i] = a.Acceleration
		accelSmooth[i] = a.AccelerationSmooth
	}

	growthPlot := newPlot("Annual CO₂ Growth Rate", "", "ppm/year")
	growthPlot.Legend.Top = true
	growthPlot.Legend.Left = true
	if err := addSeries(growthPlot, "Annual", x, growth, lineStyle(fade(orange, 0x80), 1)); err != nil {
		return err
	}
	if err := addSeries(growthPlot, "5-year average", x, growthSmooth, lineStyle(orange, 2.5)); err != nil {
		return err
	}
	addHLine(growthPlot, "", 0, black, true)

	accelPlot := newPlot("Growth Acceleration", "Year", "ppm/year²")
	accelPlot.Legend.Top = true
	accelPlot.Legend.Left = true
	if err := addSeries(accelPlot, "Annual", x, accel, lineStyle(fade(purple, 0x80), 1)); err != nil {
		return err
	}
	if err := addSeries(accelPlot, "5-year average", x, accelSmooth, lineStyle(purple, 2.5)); err != nil {
		return err
	}
	addHLine(accelPlot, "", 0, black, true)

	return savePanels(path, wideWidth, growthPlot, accelPlot)
}
