package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeling-pipeline/internal/models"
)

func TestMemoryRepositoryUpsertReplaces(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	date := time.Date(1960, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertMonthly(ctx, []*models.CO2Record{{Date: date, Year: 1960, Month: 3, CO2: 316.0}}))
	require.NoError(t, repo.UpsertMonthly(ctx, []*models.CO2Record{{Date: date, Year: 1960, Month: 3, CO2: 317.5}}))

	records, total, err := repo.GetMonthly(ctx, DateFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 317.5, records[0].CO2)
}

func TestMemoryRepositoryAnnualFilter(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var annual []*models.AnnualAggregate
	for year := 1990; year < 2000; year++ {
		annual = append(annual, &models.AnnualAggregate{Year: year, CO2: float64(year) / 6})
	}
	require.NoError(t, repo.UpsertAnnual(ctx, annual))

	start, end := 1992, 1997
	got, total, err := repo.GetAnnual(ctx, YearFilter{StartYear: &start, EndYear: &end, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, got, 2)
	assert.Equal(t, 1994, got[0].Year)
	assert.Equal(t, 1995, got[1].Year)

	got, _, err = repo.GetAnnual(ctx, YearFilter{Limit: 3, Offset: -200})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1990, got[0].Year)

	got, _, err = repo.GetAnnual(ctx, YearFilter{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = repo.GetAnnualByYear(ctx, 1850)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
