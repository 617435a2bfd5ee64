package analysis

import (
	"math"

	"keeling-pipeline/internal/models"
)

const (
	// ModernRecordStart is the first year of direct measurements at Mauna Loa
	ModernRecordStart = 1958
	// PreIndustrialPPM is the pre-industrial reference level
	PreIndustrialPPM = 280.0
)

// HistoricalView splits the merged ice core record at ModernRecordStart
type HistoricalView struct {
	IceCore []models.HistoricalPoint
	Modern  []models.HistoricalPoint
	// Current is the last modern sample in file order
	Current float64
	// Span is the latest modern year minus the earliest ice core year
	Span int
}

// SplitHistorical separates ice core samples from direct measurements. Both parts must
// be non-empty; otherwise a MissingInputError names path.
func SplitHistorical(path string, points []models.HistoricalPoint) (*HistoricalView, error) {
	view := &HistoricalView{}
	earliest, latest := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if p.Year < ModernRecordStart {
			view.IceCore = append(view.IceCore, p)
			earliest = math.Min(earliest, p.Year)
			continue
		}
		view.Modern = append(view.Modern, p)
		latest = math.Max(latest, p.Year)
	}

	if len(view.IceCore) == 0 || len(view.Modern) == 0 {
		return nil, &models.MissingInputError{Path: path, Reason: "record lacks ice core or modern samples"}
	}

	view.Current = view.Modern[len(view.Modern)-1].CO2
	view.Span = int(latest - earliest)
	return view, nil
}
