package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"keeling-pipeline/internal/datafile"
	"keeling-pipeline/internal/models"
)

// Workbook sheet names
const (
	SummarySheet       = "Summary"
	GrowthSheet        = "Growth"
	DecadesSheet       = "Decades"
	DecompositionSheet = "Decomposition"
)

// WriteWorkbook saves the analysis as an xlsx workbook with one sheet per table.
// Undefined values are left as blank cells.
func WriteWorkbook(path string, result *models.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSummarySheet(f, result); err != nil {
		return err
	}

	growthRows := make([][]interface{}, 0, len(result.Annual))
	for _, a := range result.Annual {
		growthRows = append(growthRows, []interface{}{
			a.Year, a.CO2, a.GrowthRate, a.Acceleration, a.GrowthRateSmooth, a.AccelerationSmooth,
		})
	}
	if err := writeTable(f, GrowthSheet, datafile.GrowthColumns, growthRows); err != nil {
		return err
	}

	decadeRows := make([][]interface{}, 0, len(result.Decades))
	for _, d := range result.Decades {
		decadeRows = append(decadeRows, []interface{}{
			d.Label(), d.CO2Mean, d.CO2Min, d.CO2Max, d.GrowthMean, d.GrowthStd,
		})
	}
	if err := writeTable(f, DecadesSheet, datafile.DecadeColumns, decadeRows); err != nil {
		return err
	}

	decompRows := make([][]interface{}, 0, len(result.Decomposition))
	for _, d := range result.Decomposition {
		decompRows = append(decompRows, []interface{}{
			d.Date.Format(datafile.DateLayout), d.Observed, d.Trend, d.Seasonal, d.Residual, d.Detrended, d.Deseasonalized,
		})
	}
	if err := writeTable(f, DecompositionSheet, datafile.DecompositionColumns, decompRows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result *models.AnalysisResult) error {
	s := result.Summary
	rows := [][]interface{}{
		{"Metric", "Value", "Unit"},
		{"Start year", s.StartYear, ""},
		{"End year", s.EndYear, ""},
		{"Measurements", s.Measurements, ""},
		{"CO2 start", s.CO2Start, "ppm"},
		{"CO2 latest", s.CO2End, "ppm"},
		{"Total increase", s.TotalIncrease, "ppm"},
		{"Percent increase", s.PercentIncrease, "%"},
		{"Recent growth (last 10y)", s.RecentGrowth, "ppm/year"},
		{"Recent acceleration (last 10y)", s.RecentAcceleration, "ppm/year²"},
		{"Seasonal amplitude", s.SeasonalAmplitude, "ppm"},
		{"Trend variance", s.TrendVariance, ""},
		{"Seasonal variance", s.SeasonalVariance, ""},
		{"Residual variance", s.ResidualVariance, ""},
	}
	if l := result.Linear; l != nil {
		rows = append(rows,
			[]interface{}{"Linear trend", l.SlopePerYear, "ppm/year"},
			[]interface{}{"Linear R²", l.RSquared, ""},
			[]interface{}{"Linear standard error", l.StdErrPerYear, "ppm/year"},
		)
	}
	if q := result.Quadratic; q != nil {
		rows = append(rows, []interface{}{"Quadratic acceleration", q.Curvature, "ppm/year²"})
	}
	if n := result.Normality; n != nil {
		rows = append(rows,
			[]interface{}{"Residual mean", n.Mean, "ppm"},
			[]interface{}{"Residual std dev", n.StdDev, "ppm"},
			[]interface{}{"Normality p-value", n.PValue, ""},
			[]interface{}{"Residuals normal", yesNo(n.IsNormal), ""},
		)
	}

	for i, row := range rows {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 32)
}

func writeTable(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := setRow(f, sheet, 1, headerRow); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 16)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		v = cellValue(v)
		if v == nil {
			continue
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// cellValue unwraps NullFloat and drops undefined numbers
func cellValue(v interface{}) interface{} {
	switch x := v.(type) {
	case models.NullFloat:
		if !x.Valid() {
			return nil
		}
		return x.Float64()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	}
	return v
}
