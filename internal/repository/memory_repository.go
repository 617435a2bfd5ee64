package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"keeling-pipeline/internal/models"
)

// MemoryRepository is a CO2Repository held in maps, used where no database is available
type MemoryRepository struct {
	mu            sync.RWMutex
	monthly       map[time.Time]*models.CO2Record
	decomposition map[time.Time]*models.DecompositionRecord
	annual        map[int]*models.AnnualAggregate
	decades       map[int]*models.DecadeSummary

	// HealthErr is returned by HealthCheck when set
	HealthErr error
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		monthly:       make(map[time.Time]*models.CO2Record),
		decomposition: make(map[time.Time]*models.DecompositionRecord),
		annual:        make(map[int]*models.AnnualAggregate),
		decades:       make(map[int]*models.DecadeSummary),
	}
}

// UpsertMonthly implements CO2Repository
func (m *MemoryRepository) UpsertMonthly(_ context.Context, records []*models.CO2Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		rec := *r
		m.monthly[r.Date] = &rec
	}
	return nil
}

// UpsertDecomposition implements CO2Repository
func (m *MemoryRepository) UpsertDecomposition(_ context.Context, records []*models.DecompositionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		rec := *r
		m.decomposition[r.Date] = &rec
	}
	return nil
}

// UpsertAnnual implements CO2Repository
func (m *MemoryRepository) UpsertAnnual(_ context.Context, annual []*models.AnnualAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range annual {
		agg := *a
		m.annual[a.Year] = &agg
	}
	return nil
}

// UpsertDecades implements CO2Repository
func (m *MemoryRepository) UpsertDecades(_ context.Context, decades []*models.DecadeSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range decades {
		summary := *d
		m.decades[d.Decade] = &summary
	}
	return nil
}

// GetMonthly implements CO2Repository
func (m *MemoryRepository) GetMonthly(_ context.Context, filter DateFilter) ([]*models.CO2Record, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.CO2Record
	for date, r := range m.monthly {
		if inDateRange(date, filter) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return page(out, filter.Limit, filter.Offset), len(out), nil
}

// GetDecomposition implements CO2Repository
func (m *MemoryRepository) GetDecomposition(_ context.Context, filter DateFilter) ([]*models.DecompositionRecord, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.DecompositionRecord
	for date, r := range m.decomposition {
		if inDateRange(date, filter) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return page(out, filter.Limit, filter.Offset), len(out), nil
}

// GetAnnual implements CO2Repository
func (m *MemoryRepository) GetAnnual(_ context.Context, filter YearFilter) ([]*models.AnnualAggregate, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.AnnualAggregate
	for year, a := range m.annual {
		if filter.StartYear != nil && year < *filter.StartYear {
			continue
		}
		if filter.EndYear != nil && year > *filter.EndYear {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return page(out, filter.Limit, filter.Offset), len(out), nil
}

// GetAnnualByYear implements CO2Repository
func (m *MemoryRepository) GetAnnualByYear(_ context.Context, year int) (*models.AnnualAggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.annual[year]
	if !ok {
		return nil, &NotFoundError{Resource: "annual_aggregate", ID: strconv.Itoa(year)}
	}
	return a, nil
}

// GetDecades implements CO2Repository
func (m *MemoryRepository) GetDecades(_ context.Context) ([]*models.DecadeSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.DecadeSummary, 0, len(m.decades))
	for _, d := range m.decades {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Decade < out[j].Decade })
	return out, nil
}

// HealthCheck implements CO2Repository
func (m *MemoryRepository) HealthCheck(_ context.Context) error {
	return m.HealthErr
}

func inDateRange(date time.Time, filter DateFilter) bool {
	if filter.StartDate != nil && date.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && date.After(*filter.EndDate) {
		return false
	}
	return true
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
