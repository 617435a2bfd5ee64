package dashboard

import (
	"encoding/json"
	"fmt"
	"image/color"

	"keeling-pipeline/internal/analysis"
	"keeling-pipeline/internal/charts"
	"keeling-pipeline/internal/datafile"
	"keeling-pipeline/internal/models"
)

// Trace is one Plotly trace; keys follow the plotly.js schema
type Trace map[string]interface{}

// Figure is a Plotly figure rendered client-side with Plotly.newPlot
type Figure struct {
	ID     string                 `json:"-"`
	Data   []Trace                `json:"data"`
	Layout map[string]interface{} `json:"layout"`
}

// JSON returns the figure as a plotly.js argument object
func (f *Figure) JSON() (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to encode figure %s: %w", f.ID, err)
	}
	return string(data), nil
}

const textColor = "#2c3e50"

var legendStyle = map[string]interface{}{
	"yanchor":     "top",
	"y":           0.99,
	"xanchor":     "left",
	"x":           0.01,
	"bgcolor":     "rgba(255,255,255,0.8)",
	"bordercolor": "#bdc3c7",
	"borderwidth": 1,
}

func baseLayout(title, subtitle string, height int) map[string]interface{} {
	return map[string]interface{}{
		"title": map[string]interface{}{
			"text":    fmt.Sprintf("%s<br><sub>%s</sub>", title, subtitle),
			"x":       0.5,
			"xanchor": "center",
			"font":    map[string]interface{}{"size": 24, "color": textColor},
		},
		"height":    height,
		"template":  "plotly_white",
		"hovermode": "x unified",
		"font":      map[string]interface{}{"family": "Arial, sans-serif", "size": 12, "color": textColor},
	}
}

func legendAt(xanchor string, x float64) map[string]interface{} {
	legend := make(map[string]interface{}, len(legendStyle))
	for k, v := range legendStyle {
		legend[k] = v
	}
	legend["xanchor"] = xanchor
	legend["x"] = x
	return legend
}

func axisTitle(text string) map[string]interface{} {
	return map[string]interface{}{"title": map[string]interface{}{"text": text}}
}

func line(c string, width float64) map[string]interface{} {
	return map[string]interface{}{"color": c, "width": width}
}

// zeroLine is a dashed horizontal shape at y=0 on the given axes
func zeroLine(xref, yref string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "line",
		"xref":    xref + " domain",
		"yref":    yref,
		"x0":      0,
		"x1":      1,
		"y0":      0,
		"y1":      0,
		"opacity": 0.5,
		"line":    map[string]interface{}{"color": "gray", "dash": "dash"},
	}
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// OverviewFigure plots the monthly observations with the deseasonalized and trend series
func OverviewFigure(ds *models.CleanDataset, decomposition []*models.DecompositionRecord) *Figure {
	dates := make([]string, ds.Len())
	co2 := make([]float64, ds.Len())
	for i, r := range ds.Records {
		dates[i] = r.Date.Format(datafile.DateLayout)
		co2[i] = r.CO2
	}

	dDates, deseasonalized, trend := make([]string, len(decomposition)), make([]models.NullFloat, len(decomposition)), make([]models.NullFloat, len(decomposition))
	for i, d := range decomposition {
		dDates[i] = d.Date.Format(datafile.DateLayout)
		deseasonalized[i] = d.Deseasonalized
		trend[i] = d.Trend
	}

	layout := baseLayout("Atmospheric CO₂ at Mauna Loa Observatory", "Observed, Trend, and Deseasonalized Components", 500)
	layout["xaxis"] = axisTitle("Year")
	layout["yaxis"] = axisTitle("CO₂ Concentration (ppm)")
	layout["legend"] = legendAt("left", 0.01)

	return &Figure{
		ID: "overview",
		Data: []Trace{
			{
				"type": "scatter", "mode": "lines", "name": "Monthly Observations",
				"x": dates, "y": co2, "opacity": 0.5, "line": line("#3498db", 1),
				"hovertemplate": "%{x|%Y-%m}<br>CO₂: %{y:.2f} ppm<extra></extra>",
			},
			{
				"type": "scatter", "mode": "lines", "name": "Deseasonalized",
				"x": dDates, "y": deseasonalized, "opacity": 0.8, "line": line("#2ecc71", 2),
				"hovertemplate": "%{x|%Y-%m}<br>Deseasonalized: %{y:.2f} ppm<extra></extra>",
			},
			{
				"type": "scatter", "mode": "lines", "name": "Trend Component",
				"x": dDates, "y": trend, "line": line("#e74c3c", 3),
				"hovertemplate": "%{x|%Y-%m}<br>Trend: %{y:.2f} ppm<extra></extra>",
			},
		},
		Layout: layout,
	}
}

// DecompositionFigure stacks the four decomposition components on a shared x axis
func DecompositionFigure(decomposition []*models.DecompositionRecord) *Figure {
	n := len(decomposition)
	dates := make([]string, n)
	observed := make([]float64, n)
	trend, seasonal, residual := make([]models.NullFloat, n), make([]models.NullFloat, n), make([]models.NullFloat, n)
	for i, d := range decomposition {
		dates[i] = d.Date.Format(datafile.DateLayout)
		observed[i] = d.Observed
		trend[i] = d.Trend
		seasonal[i] = d.Seasonal
		residual[i] = d.Residual
	}

	hover := "%{x|%Y-%m}<br>%{y:.2f} ppm<extra></extra>"
	layout := baseLayout("Seasonal Decomposition of CO₂ Time Series", "Observed = Trend + Seasonal + Residual", 800)
	layout["showlegend"] = false
	layout["grid"] = map[string]interface{}{"rows": 4, "columns": 1, "pattern": "coupled", "ygap": 0.25}
	layout["xaxis"] = axisTitle("Year")
	for i, name := range []string{"Observed", "Trend", "Seasonal", "Residual"} {
		key := "yaxis"
		if i > 0 {
			key = fmt.Sprintf("yaxis%d", i+1)
		}
		layout[key] = axisTitle(name + " (ppm)")
	}
	layout["shapes"] = []interface{}{zeroLine("x", "y3"), zeroLine("x", "y4")}

	return &Figure{
		ID: "decomposition",
		Data: []Trace{
			{"type": "scatter", "mode": "lines", "name": "Observed", "x": dates, "y": observed, "yaxis": "y", "line": line("#3498db", 1.5), "hovertemplate": hover},
			{"type": "scatter", "mode": "lines", "name": "Trend", "x": dates, "y": trend, "yaxis": "y2", "line": line("#e74c3c", 2), "hovertemplate": hover},
			{"type": "scatter", "mode": "lines", "name": "Seasonal", "x": dates, "y": seasonal, "yaxis": "y3", "line": line("#2ecc71", 1.5), "hovertemplate": hover},
			{"type": "scatter", "mode": "lines", "name": "Residual", "x": dates, "y": residual, "yaxis": "y4", "line": line("#f39c12", 1), "hovertemplate": hover},
		},
		Layout: layout,
	}
}

// GrowthFigure plots growth rate and acceleration, each with its five-year smooth
func GrowthFigure(annual []*models.AnnualAggregate) *Figure {
	n := len(annual)
	years := make([]int, n)
	growth, growthSmooth := make([]models.NullFloat, n), make([]models.NullFloat, n)
	accel, accelSmooth := make([]models.NullFloat, n), make([]models.NullFloat, n)
	for i, a := range annual {
		years[i] = a.Year
		growth[i] = a.GrowthRate
		growthSmooth[i] = a.GrowthRateSmooth
		accel[i] = a.Acceleration
		accelSmooth[i] = a.AccelerationSmooth
	}

	layout := baseLayout("CO₂ Growth Rate and Acceleration Over Time", "First and Second Derivatives Show Worsening Trend", 700)
	layout["grid"] = map[string]interface{}{"rows": 2, "columns": 1, "pattern": "coupled", "ygap": 0.2}
	layout["xaxis"] = axisTitle("Year")
	layout["yaxis"] = axisTitle("Growth Rate (ppm/year)")
	layout["yaxis2"] = axisTitle("Acceleration (ppm/year²)")
	layout["legend"] = legendAt("right", 0.99)
	layout["shapes"] = []interface{}{zeroLine("x", "y"), zeroLine("x", "y2")}

	return &Figure{
		ID: "growth",
		Data: []Trace{
			{
				"type": "scatter", "mode": "lines", "name": "Annual", "x": years, "y": growth, "yaxis": "y",
				"opacity": 0.3, "line": line("#3498db", 1),
				"hovertemplate": "%{x}<br>Growth: %{y:.2f} ppm/yr<extra></extra>",
			},
			{
				"type": "scatter", "mode": "lines", "name": "5-Year Average", "x": years, "y": growthSmooth, "yaxis": "y",
				"line":          line("#e74c3c", 3),
				"hovertemplate": "%{x}<br>Growth (5yr avg): %{y:.2f} ppm/yr<extra></extra>",
			},
			{
				"type": "scatter", "mode": "lines", "name": "Annual", "x": years, "y": accel, "yaxis": "y2",
				"opacity": 0.3, "showlegend": false, "line": line("#2ecc71", 1),
				"hovertemplate": "%{x}<br>Acceleration: %{y:.3f} ppm/yr²<extra></extra>",
			},
			{
				"type": "scatter", "mode": "lines", "name": "5-Year Average", "x": years, "y": accelSmooth, "yaxis": "y2",
				"showlegend": false, "line": line("#f39c12", 3),
				"hovertemplate": "%{x}<br>Acceleration (5yr avg): %{y:.3f} ppm/yr²<extra></extra>",
			},
		},
		Layout: layout,
	}
}

// DecadeFigure draws the mean annual growth of each decade with its standard deviation.
// Decades without a defined mean growth are left out.
func DecadeFigure(decades []*models.DecadeSummary) *Figure {
	var labels []string
	var means, stds []models.NullFloat
	for _, d := range decades {
		if !d.GrowthMean.Valid() {
			continue
		}
		labels = append(labels, d.Label())
		means = append(means, d.GrowthMean)
		stds = append(stds, d.GrowthStd)
	}

	subtitle := "Average annual increase within each decade"
	if len(means) > 1 {
		subtitle = fmt.Sprintf("Acceleration from %.2f ppm/yr (%s) to %.2f ppm/yr (%s)",
			means[0].Float64(), labels[0], means[len(means)-1].Float64(), labels[len(labels)-1])
	}

	layout := baseLayout("CO₂ Growth Rate by Decade", subtitle, 500)
	layout["hovermode"] = "closest"
	layout["xaxis"] = axisTitle("Decade")
	layout["yaxis"] = axisTitle("Average Growth Rate (ppm/year)")

	return &Figure{
		ID: "decades",
		Data: []Trace{
			{
				"type": "bar", "x": labels, "y": means,
				"error_y": map[string]interface{}{"type": "data", "array": stds},
				"marker": map[string]interface{}{
					"color":      means,
					"colorscale": "Reds",
					"showscale":  true,
					"colorbar":   map[string]interface{}{"title": map[string]interface{}{"text": "ppm/yr"}},
					"line":       line("#c0392b", 1.5),
				},
				"hovertemplate": "%{x}<br>Growth: %{y:.2f} ± %{error_y.array:.2f} ppm/yr<extra></extra>",
			},
		},
		Layout: layout,
	}
}

// minDecadeRecords is the number of monthly records a decade needs to be drawn
const minDecadeRecords = 12

// SeasonalFigure shows the average seasonal cycle with monthly standard deviations
// next to the mean cycle of every decade
func SeasonalFigure(months []analysis.MonthStat, cycles []analysis.DecadeCycle) *Figure {
	means, stds := make([]models.NullFloat, len(months)), make([]models.NullFloat, len(months))
	for i, m := range months {
		means[i] = m.Mean
		stds[i] = m.Std
	}

	traces := []Trace{
		{
			"type": "bar", "name": "Average", "x": analysis.MonthLabels, "y": means,
			"xaxis": "x", "yaxis": "y",
			"error_y": map[string]interface{}{"type": "data", "array": stds},
			"marker":  map[string]interface{}{"color": "#2ecc71", "line": line("#27ae60", 1.5)},
			"hovertemplate": "%{x}<br>Avg CO₂: %{y:.2f} ppm<br>Std: %{error_y.array:.2f} ppm<extra></extra>",
		},
	}

	monthNumbers := make([]int, 12)
	for i := range monthNumbers {
		monthNumbers[i] = i + 1
	}
	for i, c := range cycles {
		if c.Count <= minDecadeRecords {
			continue
		}
		emphasised := i == 0 || i == len(cycles)-1
		width, opacity := 1.5, 0.3
		if emphasised {
			width, opacity = 3, 1.0
		}
		traces = append(traces, Trace{
			"type": "scatter", "mode": "lines", "name": fmt.Sprintf("%ds", c.Decade),
			"x": monthNumbers, "y": c.Monthly[:], "xaxis": "x2", "yaxis": "y2",
			"line": line(hexColor(charts.ViridisReversed(i, len(cycles))), width), "opacity": opacity,
			"showlegend":    emphasised,
			"hovertemplate": fmt.Sprintf("%ds<br>Month: %%{x}<br>CO₂: %%{y:.2f} ppm<extra></extra>", c.Decade),
		})
	}

	layout := baseLayout("Seasonal Cycle Analysis", "Northern Hemisphere Growing Season Drives Annual Oscillation", 500)
	layout["hovermode"] = "closest"
	layout["showlegend"] = true
	layout["grid"] = map[string]interface{}{"rows": 1, "columns": 2, "pattern": "independent", "xgap": 0.12}
	layout["xaxis"] = axisTitle("Month")
	layout["yaxis"] = axisTitle("CO₂ (ppm)")
	layout["xaxis2"] = map[string]interface{}{
		"title":    map[string]interface{}{"text": "Month"},
		"tickmode": "array",
		"tickvals": monthNumbers,
		"ticktext": analysis.MonthLabels,
	}
	layout["yaxis2"] = axisTitle("CO₂ (ppm)")
	layout["legend"] = legendAt("right", 0.99)

	return &Figure{ID: "seasonal", Data: traces, Layout: layout}
}

// HistoricalFigure plots the ice core record against direct measurements
func HistoricalFigure(view *analysis.HistoricalView) *Figure {
	split := func(points []models.HistoricalPoint) ([]float64, []float64) {
		x, y := make([]float64, len(points)), make([]float64, len(points))
		for i, p := range points {
			x[i], y[i] = p.Year, p.CO2
		}
		return x, y
	}
	iceX, iceY := split(view.IceCore)
	modX, modY := split(view.Modern)

	hover := "Year: %{x:.0f}<br>CO₂: %{y:.1f} ppm<extra></extra>"
	refLine := func(y float64, c string) map[string]interface{} {
		return map[string]interface{}{
			"type": "line", "xref": "x domain", "yref": "y", "x0": 0, "x1": 1, "y0": y, "y1": y,
			"line": map[string]interface{}{"color": c, "width": 2, "dash": "dash"},
		}
	}
	refLabel := func(y float64, text string) map[string]interface{} {
		return map[string]interface{}{
			"xref": "x domain", "yref": "y", "x": 1, "y": y, "xanchor": "left",
			"text": text, "showarrow": false,
		}
	}

	layout := baseLayout(fmt.Sprintf("%s Years of Atmospheric CO₂", charts.GroupThousands(view.Span)),
		"Ice Core Records + Modern Measurements from Mauna Loa", 500)
	layout["xaxis"] = axisTitle("Year")
	layout["yaxis"] = axisTitle("CO₂ Concentration (ppm)")
	layout["legend"] = legendAt("left", 0.01)
	layout["shapes"] = []interface{}{
		refLine(analysis.PreIndustrialPPM, "#2ecc71"),
		refLine(view.Current, "#e74c3c"),
	}
	layout["annotations"] = []interface{}{
		refLabel(analysis.PreIndustrialPPM, "Pre-industrial (~280 ppm)"),
		refLabel(view.Current, fmt.Sprintf("Current (~%.0f ppm)", view.Current)),
	}

	return &Figure{
		ID: "historical",
		Data: []Trace{
			{"type": "scatter", "mode": "lines", "name": "Ice Core Records", "x": iceX, "y": iceY, "line": line("#3498db", 2), "hovertemplate": hover},
			{"type": "scatter", "mode": "lines", "name": "Direct Measurements", "x": modX, "y": modY, "line": line("#e74c3c", 3), "hovertemplate": hover},
		},
		Layout: layout,
	}
}
