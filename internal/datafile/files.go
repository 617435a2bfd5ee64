package datafile

import (
	"fmt"
	"os"
	"strings"

	"keeling-pipeline/internal/models"
)

// Column names of the exchange files
var (
	CleanColumns         = []string{"date", "year", "month", "co2", "co2_adjusted", "co2_fit"}
	DecompositionColumns = []string{"date", "observed", "trend", "seasonal", "residual", "detrended", "deseasonalized"}
	GrowthColumns        = []string{"year", "co2", "growth_rate", "acceleration", "growth_rate_smooth", "acceleration_smooth"}
	DecadeColumns        = []string{"decade", "co2_mean", "co2_min", "co2_max", "growth_mean", "growth_std"}
)

// WriteClean writes the normalized dataset. Optional columns are written only when
// the source provided them.
func WriteClean(path string, ds *models.CleanDataset) error {
	header := []string{"date", "year", "month", "co2"}
	if ds.HasAdjusted {
		header = append(header, "co2_adjusted")
	}
	if ds.HasFit {
		header = append(header, "co2_fit")
	}

	rows := make([][]string, 0, len(ds.Records))
	for _, r := range ds.Records {
		row := []string{formatDate(r.Date), fmt.Sprint(r.Year), fmt.Sprint(r.Month), formatFloat(r.CO2)}
		if ds.HasAdjusted {
			row = append(row, r.CO2Adjusted.String())
		}
		if ds.HasFit {
			row = append(row, r.CO2Fit.String())
		}
		rows = append(rows, row)
	}

	return writeFile(path, header, rows)
}

// ReadClean loads a normalized dataset written by WriteClean
func ReadClean(path string) (*models.CleanDataset, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	idx, err := t.Require("date", "co2")
	if err != nil {
		return nil, err
	}
	dateCol, co2Col := idx[0], idx[1]
	yearCol, monthCol := t.Column("year"), t.Column("month")
	adjCol, fitCol := t.Column("co2_adjusted"), t.Column("co2_fit")

	ds := &models.CleanDataset{
		Records:     make([]*models.CO2Record, 0, len(t.Rows)),
		HasAdjusted: adjCol >= 0,
		HasFit:      fitCol >= 0,
	}

	for n, row := range t.Rows {
		date, err := parseDate(Cell(row, dateCol))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid date: %w", path, n+2, err)
		}
		co2 := ParseFloat(Cell(row, co2Col))
		if !co2.Valid() {
			return nil, fmt.Errorf("%s row %d: missing co2", path, n+2)
		}

		rec := &models.CO2Record{
			Date:        date,
			Year:        date.Year(),
			Month:       int(date.Month()),
			CO2:         co2.Float64(),
			CO2Adjusted: ParseFloat(Cell(row, adjCol)),
			CO2Fit:      ParseFloat(Cell(row, fitCol)),
		}
		if yearCol >= 0 {
			if y, err := parseInt(Cell(row, yearCol)); err == nil {
				rec.Year = y
			}
		}
		if monthCol >= 0 {
			if m, err := parseInt(Cell(row, monthCol)); err == nil {
				rec.Month = m
			}
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

// WriteDecomposition writes the seasonal decomposition series
func WriteDecomposition(path string, records []*models.DecompositionRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			formatDate(r.Date),
			formatFloat(r.Observed),
			r.Trend.String(),
			r.Seasonal.String(),
			r.Residual.String(),
			r.Detrended.String(),
			r.Deseasonalized.String(),
		})
	}
	return writeFile(path, DecompositionColumns, rows)
}

// ReadDecomposition loads a file written by WriteDecomposition
func ReadDecomposition(path string) ([]*models.DecompositionRecord, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	idx, err := t.Require(DecompositionColumns...)
	if err != nil {
		return nil, err
	}

	records := make([]*models.DecompositionRecord, 0, len(t.Rows))
	for n, row := range t.Rows {
		date, err := parseDate(Cell(row, idx[0]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid date: %w", path, n+2, err)
		}
		records = append(records, &models.DecompositionRecord{
			Date:           date,
			Observed:       ParseFloat(Cell(row, idx[1])).Float64(),
			Trend:          ParseFloat(Cell(row, idx[2])),
			Seasonal:       ParseFloat(Cell(row, idx[3])),
			Residual:       ParseFloat(Cell(row, idx[4])),
			Detrended:      ParseFloat(Cell(row, idx[5])),
			Deseasonalized: ParseFloat(Cell(row, idx[6])),
		})
	}
	return records, nil
}

// WriteGrowth writes the annual growth series
func WriteGrowth(path string, annual []*models.AnnualAggregate) error {
	rows := make([][]string, 0, len(annual))
	for _, a := range annual {
		rows = append(rows, []string{
			fmt.Sprint(a.Year),
			formatFloat(a.CO2),
			a.GrowthRate.String(),
			a.Acceleration.String(),
			a.GrowthRateSmooth.String(),
			a.AccelerationSmooth.String(),
		})
	}
	return writeFile(path, GrowthColumns, rows)
}

// ReadGrowth loads a file written by WriteGrowth
func ReadGrowth(path string) ([]*models.AnnualAggregate, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	idx, err := t.Require(GrowthColumns...)
	if err != nil {
		return nil, err
	}

	annual := make([]*models.AnnualAggregate, 0, len(t.Rows))
	for n, row := range t.Rows {
		year, err := parseInt(Cell(row, idx[0]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid year: %w", path, n+2, err)
		}
		annual = append(annual, &models.AnnualAggregate{
			Year:               year,
			CO2:                ParseFloat(Cell(row, idx[1])).Float64(),
			GrowthRate:         ParseFloat(Cell(row, idx[2])),
			Acceleration:       ParseFloat(Cell(row, idx[3])),
			GrowthRateSmooth:   ParseFloat(Cell(row, idx[4])),
			AccelerationSmooth: ParseFloat(Cell(row, idx[5])),
		})
	}
	return annual, nil
}

// WriteDecades writes the per-decade summary
func WriteDecades(path string, decades []*models.DecadeSummary) error {
	rows := make([][]string, 0, len(decades))
	for _, d := range decades {
		rows = append(rows, []string{
			fmt.Sprint(d.Decade),
			formatFloat(d.CO2Mean),
			formatFloat(d.CO2Min),
			formatFloat(d.CO2Max),
			d.GrowthMean.String(),
			d.GrowthStd.String(),
		})
	}
	return writeFile(path, DecadeColumns, rows)
}

// ReadDecades loads a file written by WriteDecades
func ReadDecades(path string) ([]*models.DecadeSummary, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	idx, err := t.Require(DecadeColumns...)
	if err != nil {
		return nil, err
	}

	decades := make([]*models.DecadeSummary, 0, len(t.Rows))
	for n, row := range t.Rows {
		decade, err := parseInt(Cell(row, idx[0]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid decade: %w", path, n+2, err)
		}
		decades = append(decades, &models.DecadeSummary{
			Decade:     decade,
			CO2Mean:    ParseFloat(Cell(row, idx[1])).Float64(),
			CO2Min:     ParseFloat(Cell(row, idx[2])).Float64(),
			CO2Max:     ParseFloat(Cell(row, idx[3])).Float64(),
			GrowthMean: ParseFloat(Cell(row, idx[4])),
			GrowthStd:  ParseFloat(Cell(row, idx[5])),
		})
	}
	return decades, nil
}

var historicalYearKeywords = []string{"year", "age", "yr", "date", "sample"}

// ReadHistorical loads the merged ice core record. The year column is the first whose
// name contains any of year, age, yr, date or sample; the co2 column is the first
// containing co2 but not age. An absent file or unmatched header is a MissingInputError.
func ReadHistorical(path string) ([]models.HistoricalPoint, error) {
	file, err := os.Open(path)
	if err != nil {
		if IsNotExist(err) {
			return nil, &models.MissingInputError{Path: path, Reason: "file not found"}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	t, err := ReadCommented(file)
	if err != nil {
		return nil, &models.MissingInputError{Path: path, Reason: err.Error()}
	}

	co2Col, yearCol := -1, -1
	for i, name := range t.Header {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "co2") && !strings.Contains(lower, "age") {
			co2Col = i
			break
		}
	}
	for i, name := range t.Header {
		lower := strings.ToLower(name)
		if containsAny(lower, historicalYearKeywords) {
			yearCol = i
			break
		}
	}
	if co2Col < 0 || yearCol < 0 {
		return nil, &models.MissingInputError{
			Path:   path,
			Reason: fmt.Sprintf("no year or co2 column in header %v", t.Header),
		}
	}

	points := make([]models.HistoricalPoint, 0, len(t.Rows))
	for _, row := range t.Rows {
		year := ParseFloat(Cell(row, yearCol))
		co2 := ParseFloat(Cell(row, co2Col))
		if !year.Valid() || !co2.Valid() {
			continue
		}
		points = append(points, models.HistoricalPoint{Year: year.Float64(), CO2: co2.Float64()})
	}
	return points, nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
