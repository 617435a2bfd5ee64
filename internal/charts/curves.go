package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"keeling-pipeline/internal/analysis"
	"keeling-pipeline/internal/models"
)

// Full plots the monthly series with the fitted trend overlaid when the source had one
func Full(path string, ds *models.CleanDataset) error {
	if ds.Len() == 0 {
		return &models.InsufficientDataError{Operation: "full curve chart", Required: 1, Got: 0}
	}

	x := make([]float64, ds.Len())
	co2 := make([]models.NullFloat, ds.Len())
	fit := make([]models.NullFloat, ds.Len())
	for i, r := range ds.Records {
		x[i] = r.DecimalYear()
		co2[i] = models.NullFloat(r.CO2)
		fit[i] = r.CO2Fit
	}

	p := newPlot("The Keeling Curve — Atmospheric CO₂ at Mauna Loa", "Year", "CO₂ Concentration (ppm)")
	p.Legend.Top = true
	p.Legend.Left = true

	if err := addSeries(p, "Monthly average", x, co2, lineStyle(fade(blue, 0xcc), 0.8)); err != nil {
		return err
	}
	if ds.HasFit {
		if err := addSeries(p, "Trend (fit)", x, fit, lineStyle(red, 1.5)); err != nil {
			return err
		}
	}

	return save(p, path, wideWidth, wideHeight)
}

// Seasonal draws the mean co2 of each calendar month as bars. Months without
// records are left out.
func Seasonal(path string, months []analysis.MonthStat) error {
	values, labels := seasonalBars(months)
	if len(values) == 0 {
		return &models.InsufficientDataError{Operation: "seasonal chart", Required: 1, Got: 0}
	}
	low := floats.Min(values)

	p := newPlot("Average Seasonal CO₂ Cycle", "Month", "Average CO₂ (ppm)")

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = fade(green, 0xb3)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.Y.Min = math.Floor(low) - 2

	return save(p, path, narrowWidth, narrowHeight)
}

// seasonalBars returns the defined monthly means with their month labels
func seasonalBars(months []analysis.MonthStat) (plotter.Values, []string) {
	var values plotter.Values
	var labels []string
	for _, m := range months {
		if !m.Mean.Valid() || m.Month < 1 || m.Month > len(analysis.MonthLabels) {
			continue
		}
		values = append(values, m.Mean.Float64())
		labels = append(labels, analysis.MonthLabels[m.Month-1])
	}
	return values, labels
}

// Decades draws the mean seasonal cycle of every decade. Colours follow the reversed
// viridis ramp and only the earliest and latest decades are labelled.
func Decades(path string, cycles []analysis.DecadeCycle) error {
	if len(cycles) == 0 {
		return &models.InsufficientDataError{Operation: "decade chart", Required: 1, Got: 0}
	}

	p := newPlot("CO₂ Seasonal Cycle by Decade", "Month", "CO₂ (ppm)")
	p.Legend.Top = true
	p.Legend.Left = true

	x := make([]float64, 12)
	for i := range x {
		x[i] = float64(i)
	}

	last := len(cycles) - 1
	for i, c := range cycles {
		style := lineStyle(fade(ViridisReversed(i, len(cycles)), 0x80), 1)
		label := ""
		switch i {
		case 0:
			style = lineStyle(ViridisReversed(i, len(cycles)), 2.5)
			style.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
			label = fmt.Sprintf("%ds avg", c.Decade)
		case last:
			style = lineStyle(ViridisReversed(i, len(cycles)), 2.5)
			label = fmt.Sprintf("%ds avg", c.Decade)
		}
		if err := addSeries(p, label, x, c.Monthly[:], style); err != nil {
			return err
		}
	}
	p.NominalX(analysis.MonthLabels...)

	return save(p, path, wideWidth, wideHeight)
}

// Historical plots the ice core record against the direct measurements with
// reference lines at the pre-industrial and current levels
func Historical(path string, view *analysis.HistoricalView) error {
	p := newPlot(fmt.Sprintf("%s Years of Atmospheric CO₂", GroupThousands(view.Span)), "Year", "CO₂ Concentration (ppm)")
	p.Legend.Top = true
	p.Legend.Left = true

	if err := addPoints(p, "Ice Core Records", view.IceCore, lineStyle(blue, 2)); err != nil {
		return err
	}
	if err := addPoints(p, "Direct Measurements", view.Modern, lineStyle(red, 3)); err != nil {
		return err
	}
	addHLine(p, "Pre-industrial (~280 ppm)", analysis.PreIndustrialPPM, green, true)
	addHLine(p, fmt.Sprintf("Current (~%.0f ppm)", view.Current), view.Current, red, true)

	return save(p, path, wideWidth, wideHeight)
}

func addPoints(p *plot.Plot, label string, points []models.HistoricalPoint, style draw.LineStyle) error {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.Year, Y: pt.CO2}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("failed to build %q line: %w", label, err)
	}
	line.LineStyle = style
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

// GroupThousands formats n with comma separators
func GroupThousands(n int) string {
	s := fmt.Sprint(n)
	if n < 0 {
		return "-" + GroupThousands(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
