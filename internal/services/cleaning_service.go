package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"keeling-pipeline/internal/datafile"
	"keeling-pipeline/internal/models"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// Drop reasons reported by the cleaner
const (
	DropMissingYear  = "missing_year"
	DropMissingCO2   = "missing_co2"
	DropInvalidMonth = "invalid_month"
	DropDuplicate    = "duplicate"
)

// columnKeyword maps a header substring to a canonical column name
type columnKeyword struct {
	keyword   string
	canonical string
}

// columnVocabulary is checked in order; the first keyword contained in a header wins
var columnVocabulary = []columnKeyword{
	{"yr", "year"},
	{"year", "year"},
	{"mn", "month"},
	{"month", "month"},
	{"co2", "co2"},
	{"seasonally", "co2_adjusted"},
	{"fit", "co2_fit"},
}

// CanonicalColumn returns the canonical name for a raw header, or "" when no keyword matches
func CanonicalColumn(header string) string {
	lower := strings.ToLower(strings.TrimSpace(header))
	for _, kw := range columnVocabulary {
		if strings.Contains(lower, kw.keyword) {
			return kw.canonical
		}
	}
	return ""
}

// ResolveColumns maps canonical names to header positions. When several headers
// resolve to the same name the earliest keeps it.
func ResolveColumns(header []string) map[string]int {
	resolved := make(map[string]int)
	for i, name := range header {
		canonical := CanonicalColumn(name)
		if canonical == "" {
			continue
		}
		if _, taken := resolved[canonical]; !taken {
			resolved[canonical] = i
		}
	}
	return resolved
}

// CleanReport summarises one cleaning run
type CleanReport struct {
	TotalRows int
	KeptRows  int
	Dropped   map[string]int
	Columns   map[string]string
}

// DroppedRows returns the total number of rows removed
func (r *CleanReport) DroppedRows() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// CleaningService turns the raw monthly file into the clean dataset
type CleaningService struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewCleaningService creates a new cleaning service
func NewCleaningService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CleaningService {
	return &CleaningService{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Clean parses raw monthly CSV text into chronologically sorted clean records
func (s *CleaningService) Clean(ctx context.Context, r io.Reader) (*models.CleanDataset, *CleanReport, error) {
	table, err := datafile.ReadCommented(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse raw data: %w", err)
	}

	columns := ResolveColumns(table.Header)
	if missing := missingColumns(columns, "year", "month", "co2"); len(missing) > 0 {
		return nil, nil, &models.SchemaError{Path: table.Path, Missing: missing, Columns: table.Header}
	}

	report := &CleanReport{
		TotalRows: len(table.Rows),
		Dropped:   make(map[string]int),
		Columns:   make(map[string]string, len(columns)),
	}
	for canonical, i := range columns {
		report.Columns[canonical] = table.Header[i]
	}

	adjustedCol, hasAdjusted := columns["co2_adjusted"]
	fitCol, hasFit := columns["co2_fit"]
	if !hasAdjusted {
		adjustedCol = -1
	}
	if !hasFit {
		fitCol = -1
	}

	records := make([]*models.CO2Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		raw := &models.RawMeasurement{
			Line:        i + 2,
			Year:        datafile.ParseFloat(datafile.Cell(row, columns["year"])),
			Month:       datafile.ParseFloat(datafile.Cell(row, columns["month"])),
			CO2:         datafile.ParseFloat(datafile.Cell(row, columns["co2"])),
			CO2Adjusted: datafile.ParseFloat(datafile.Cell(row, adjustedCol)),
			CO2Fit:      datafile.ParseFloat(datafile.Cell(row, fitCol)),
		}

		record, err := raw.ToRecord()
		if err != nil {
			reason := dropReason(err)
			report.Dropped[reason]++
			s.logger.Debug(ctx, "[CLEAN_DROP] Row dropped", logging.Fields{
				"line":   raw.Line,
				"reason": reason,
			})
			continue
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Date.Before(records[b].Date)
	})

	deduped := records[:0]
	for _, record := range records {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(record.Date) {
			report.Dropped[DropDuplicate]++
			continue
		}
		deduped = append(deduped, record)
	}
	report.KeptRows = len(deduped)

	s.metrics.RecordCleanRows(report.TotalRows, report.KeptRows, report.Dropped)

	return &models.CleanDataset{
		Records:     deduped,
		HasAdjusted: hasAdjusted,
		HasFit:      hasFit,
	}, report, nil
}

// CleanFile cleans the raw file at src and writes the clean CSV to dest
func (s *CleaningService) CleanFile(ctx context.Context, src, dest string) (*CleanReport, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[CLEAN_START] Cleaning raw data", logging.Fields{
		"source": src,
		"dest":   dest,
	})

	file, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw data: %w", err)
	}
	defer file.Close()

	ds, report, err := s.Clean(ctx, file)
	if err != nil {
		var schemaErr *models.SchemaError
		if errors.As(err, &schemaErr) {
			schemaErr.Path = src
		}
		return nil, err
	}

	if err := datafile.WriteClean(dest, ds); err != nil {
		return nil, fmt.Errorf("failed to write clean data: %w", err)
	}

	fields := logging.Fields{
		"source":      src,
		"dest":        dest,
		"total_rows":  report.TotalRows,
		"kept_rows":   report.KeptRows,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}
	for reason, n := range report.Dropped {
		fields["dropped_"+reason] = n
	}
	if ds.Len() > 0 {
		fields["first_date"] = ds.Records[0].Date.Format(datafile.DateLayout)
		fields["last_date"] = ds.Records[ds.Len()-1].Date.Format(datafile.DateLayout)
	}
	s.logger.Info(ctx, "[CLEAN_COMPLETE] Clean data written", fields)

	return report, nil
}

func missingColumns(columns map[string]int, names ...string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func dropReason(err error) string {
	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		return "invalid"
	}
	switch validationErr.Field {
	case "year":
		return DropMissingYear
	case "co2":
		return DropMissingCO2
	default:
		return DropInvalidMonth
	}
}
