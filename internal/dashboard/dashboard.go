// Package dashboard renders the self-contained interactive HTML report.
//
// Figures are serialised as Plotly JSON and drawn in the browser by plotly.js loaded
// from its CDN; styles are inline so the file can be opened from disk.
package dashboard

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"keeling-pipeline/internal/analysis"
	"keeling-pipeline/internal/models"
)

// PlotlyCDN is the plotly.js bundle the dashboard loads
const PlotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// Input gathers everything the dashboard draws. Historical may be nil.
type Input struct {
	Clean         *models.CleanDataset
	Decomposition []*models.DecompositionRecord
	Annual        []*models.AnnualAggregate
	Decades       []*models.DecadeSummary
	Historical    *analysis.HistoricalView
	Generated     time.Time
}

type renderedFigure struct {
	ID   string
	JSON template.JS
}

type decadeFinding struct {
	Label  string
	Growth string
}

type page struct {
	PlotlyCDN          string
	Summary            *models.Summary
	FirstDecade        *models.DecadeSummary
	GrowthMultiple     float64
	Decades            []decadeFinding
	AbovePreIndustrial float64
	Figures            map[string]*renderedFigure
	Generated          string
}

// Figures builds every dashboard figure; the historical one only when its view is present
func Figures(in Input) []*Figure {
	figures := []*Figure{
		OverviewFigure(in.Clean, in.Decomposition),
		DecompositionFigure(in.Decomposition),
		GrowthFigure(in.Annual),
		DecadeFigure(in.Decades),
		SeasonalFigure(analysis.MonthlyClimatology(in.Clean.Records), analysis.DecadeCycles(in.Clean.Records)),
	}
	if in.Historical != nil {
		figures = append(figures, HistoricalFigure(in.Historical))
	}
	return figures
}

// Render writes the dashboard HTML to w
func Render(w io.Writer, in Input) error {
	if in.Clean == nil || in.Clean.Len() == 0 {
		return &models.InsufficientDataError{Operation: "dashboard", Required: 1, Got: 0}
	}

	p := &page{
		PlotlyCDN: PlotlyCDN,
		Summary:   analysis.Summarize(in.Clean.Records, in.Annual, in.Decomposition),
		Figures:   make(map[string]*renderedFigure),
		Generated: in.Generated.Format("2006-01-02"),
	}
	p.AbovePreIndustrial = (p.Summary.CO2End/analysis.PreIndustrialPPM - 1) * 100

	for _, d := range in.Decades {
		if !d.GrowthMean.Valid() {
			continue
		}
		if p.FirstDecade == nil {
			p.FirstDecade = d
		}
		p.Decades = append(p.Decades, decadeFinding{
			Label:  d.Label(),
			Growth: fmt.Sprintf("%.2f", d.GrowthMean.Float64()),
		})
	}
	if p.FirstDecade != nil && p.FirstDecade.GrowthMean > 0 {
		p.GrowthMultiple = p.Summary.RecentGrowth / p.FirstDecade.GrowthMean.Float64()
	}

	for _, fig := range Figures(in) {
		data, err := fig.JSON()
		if err != nil {
			return err
		}
		p.Figures[fig.ID] = &renderedFigure{ID: fig.ID + "-plot", JSON: template.JS(data)}
	}

	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}
