package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeling-pipeline/internal/datafile"
	"keeling-pipeline/internal/models"
)

func TestCanonicalColumn(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Yr", "year"},
		{"  YEAR ", "year"},
		{"Mn", "month"},
		{"Month", "month"},
		{"CO2", "co2"},
		{"seasonally adjusted", "co2_adjusted"},
		{"fit", "co2_fit"},
		{"Date", ""},
		{"Excel", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalColumn(tt.header))
		})
	}
}

func TestResolveColumnsFirstMatchWins(t *testing.T) {
	columns := ResolveColumns([]string{"Yr", "Mn", "CO2", "seasonally", "fit", "CO2 filled"})

	assert.Equal(t, 0, columns["year"])
	assert.Equal(t, 1, columns["month"])
	assert.Equal(t, 2, columns["co2"])
	assert.Equal(t, 3, columns["co2_adjusted"])
	assert.Equal(t, 4, columns["co2_fit"])
}

func TestCleanDropsSentinelRows(t *testing.T) {
	svc := NewCleaningService(testLogger(), testCollector())

	raw := "Yr,Mn,CO2\n1959,1,315.62\n1959,2,-99.99\n1959,3,317.30\n"
	ds, report, err := svc.Clean(context.Background(), strings.NewReader(raw))
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, time.Date(1959, 1, 1, 0, 0, 0, 0, time.UTC), ds.Records[0].Date)
	assert.Equal(t, 315.62, ds.Records[0].CO2)
	assert.Equal(t, time.Date(1959, 3, 1, 0, 0, 0, 0, time.UTC), ds.Records[1].Date)
	assert.Equal(t, 317.30, ds.Records[1].CO2)

	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 2, report.KeptRows)
	assert.Equal(t, 1, report.Dropped[DropMissingCO2])
	assert.False(t, ds.HasAdjusted)
	assert.False(t, ds.HasFit)
}

func TestCleanSortsAndDeduplicates(t *testing.T) {
	svc := NewCleaningService(testLogger(), testCollector())

	raw := strings.Join([]string{
		"year,month,co2,fit",
		"1960,3,317.1,316.9",
		"1960,1,316.0,315.8",
		"1960,3,999.0,999.0",
		"1960,13,316.5,316.4",
		",2,316.2,316.1",
		"1960,2,abc,316.2",
	}, "\n")

	ds, report, err := svc.Clean(context.Background(), strings.NewReader(raw))
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 1, ds.Records[0].Month)
	assert.Equal(t, 3, ds.Records[1].Month)
	assert.Equal(t, 317.1, ds.Records[1].CO2, "earliest row of a duplicated month is kept")
	assert.True(t, ds.HasFit)

	assert.Equal(t, 1, report.Dropped[DropDuplicate])
	assert.Equal(t, 1, report.Dropped[DropInvalidMonth])
	assert.Equal(t, 1, report.Dropped[DropMissingYear])
	assert.Equal(t, 1, report.Dropped[DropMissingCO2])
	assert.Equal(t, 4, report.DroppedRows())
}

func TestCleanSchemaError(t *testing.T) {
	svc := NewCleaningService(testLogger(), testCollector())

	_, _, err := svc.Clean(context.Background(), strings.NewReader("station,value\nmlo,315\n"))

	var schemaErr *models.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.ElementsMatch(t, []string{"year", "month", "co2"}, schemaErr.Missing)
}

func TestCleanFile(t *testing.T) {
	dir := t.TempDir()
	src := writeRawMonthly(t, dir, 1958, 3)
	dest := filepath.Join(dir, "out", "co2_clean.csv")

	svc := NewCleaningService(testLogger(), testCollector())
	report, err := svc.CleanFile(context.Background(), src, dest)
	require.NoError(t, err)

	assert.Equal(t, 37, report.TotalRows)
	assert.Equal(t, 34, report.KeptRows)
	assert.Equal(t, 1, report.Dropped[DropMissingYear])
	assert.Equal(t, 2, report.Dropped[DropMissingCO2])
	assert.Equal(t, "CO2", report.Columns["co2"])

	ds, err := datafile.ReadClean(dest)
	require.NoError(t, err)
	assert.Equal(t, 34, ds.Len())
	assert.True(t, ds.HasAdjusted)
	assert.True(t, ds.HasFit)
	assert.Equal(t, time.Date(1958, 3, 1, 0, 0, 0, 0, time.UTC), ds.Records[0].Date)
}

func TestCleanFileSchemaErrorCarriesPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "co2_monthly.csv")
	require.NoError(t, os.WriteFile(src, []byte("a,b\n1,2\n"), 0o644))

	svc := NewCleaningService(testLogger(), testCollector())
	_, err := svc.CleanFile(context.Background(), src, filepath.Join(dir, "co2_clean.csv"))

	var schemaErr *models.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, src, schemaErr.Path)
	assert.NoFileExists(t, filepath.Join(dir, "co2_clean.csv"))
}
