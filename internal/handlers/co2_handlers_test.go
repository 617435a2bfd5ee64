package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeling-pipeline/internal/models"
	"keeling-pipeline/internal/repository"
	"keeling-pipeline/internal/services"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

type fixture struct {
	repo      *repository.MemoryRepository
	router    *mux.Router
	dashboard string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logging.NewStructuredLogger("keeling-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	collector := metrics.NewCollectorWithRegistry("keeling_test", prometheus.NewRegistry())

	repo := repository.NewMemoryRepository()
	ctx := context.Background()

	var monthly []*models.CO2Record
	for year := 2000; year <= 2001; year++ {
		for month := 1; month <= 12; month++ {
			monthly = append(monthly, &models.CO2Record{
				Date:        time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
				Year:        year,
				Month:       month,
				CO2:         370 + float64(year-2000)*2 + float64(month)/10,
				CO2Adjusted: models.Undefined(),
				CO2Fit:      models.Undefined(),
			})
		}
	}
	require.NoError(t, repo.UpsertMonthly(ctx, monthly))
	require.NoError(t, repo.UpsertAnnual(ctx, []*models.AnnualAggregate{
		{Year: 2000, CO2: 370.6, GrowthRate: models.Undefined(), Acceleration: models.Undefined(), GrowthRateSmooth: models.Undefined(), AccelerationSmooth: models.Undefined()},
		{Year: 2001, CO2: 372.6, GrowthRate: 2, Acceleration: models.Undefined(), GrowthRateSmooth: models.Undefined(), AccelerationSmooth: models.Undefined()},
	}))
	require.NoError(t, repo.UpsertDecades(ctx, []*models.DecadeSummary{
		{Decade: 2000, CO2Mean: 371.6, CO2Min: 370.6, CO2Max: 372.6, GrowthMean: 2, GrowthStd: models.Undefined()},
	}))

	dashboard := filepath.Join(t.TempDir(), "keeling_dashboard.html")
	handler := NewCO2Handler(
		services.NewCO2Service(repo, logger, collector),
		services.NewStatisticsService(repo, logger, collector),
		dashboard,
		logger,
		collector,
	)

	router := mux.NewRouter()
	router.Use(RequestID)
	handler.RegisterRoutes(router)

	return &fixture{repo: repo, router: router, dashboard: dashboard}
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetMonthlyPagination(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/co2/monthly?page=2&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []models.CO2Record `json:"data"`
		Total      int                `json:"total"`
		Page       int                `json:"page"`
		Limit      int                `json:"limit"`
		TotalPages int                `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 24, body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 10, body.Limit)
	assert.Equal(t, 3, body.TotalPages)
	require.Len(t, body.Data, 10)
	assert.Equal(t, 2000, body.Data[0].Year)
	assert.Equal(t, 11, body.Data[0].Month)
	assert.False(t, body.Data[0].CO2Fit.Valid())
}

func TestPaginationOutOfRange(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{
		"/api/co2/monthly?page=9223372036854775807",
		"/api/co2/decomposition?page=9223372036854775807&limit=10",
		"/api/co2/annual?page=9223372036854775807",
	} {
		rec := f.get(t, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec := f.get(t, "/api/co2/monthly?page=1000")
	require.Equal(t, http.StatusOK, rec.Code)

	var body PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 24, body.Total)
	assert.Empty(t, body.Data)
}

func TestGetMonthlyDateFilter(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/co2/monthly?start_date=2001-01-01&end_date=2001-03-01")
	require.Equal(t, http.StatusOK, rec.Code)

	var body PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
}

func TestGetMonthlyInvalidDate(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/co2/monthly?start_date=01/2001")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.Contains(t, body.Message, "start_date")
}

func TestGetAnnual(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/co2/annual?start_year=2001")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"growth_rate":2`)
	assert.NotContains(t, rec.Body.String(), `"year":2000`)

	rec = f.get(t, "/api/co2/annual?end_year=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAnnualByYear(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/co2/annual/2000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"growth_rate":null`)

	rec = f.get(t, "/api/co2/annual/1900")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDecades(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/co2/decades")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/dashboard")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(f.dashboard, []byte("<html>keeling</html>"), 0o644))
	rec = f.get(t, "/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<html>keeling</html>", rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	f.repo.HealthErr = errors.New("connection refused")
	rec = f.get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRequestID(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/health")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestOpenAPISpec(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/docs/openapi.json")
	require.Equal(t, http.StatusOK, rec.Code)

	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)
	for _, path := range []string{"/api/co2/monthly", "/api/co2/annual/{year}", "/api/co2/decades", "/dashboard"} {
		assert.Contains(t, paths, path)
	}
}

func TestSwaggerUI(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/docs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Keeling Curve API</h1>")
	assert.Contains(t, body, "seasonal decomposition")
	assert.Contains(t, body, `href="/dashboard"`)
	assert.Contains(t, body, `href="/api/docs/openapi.json"`)
	assert.Contains(t, body, "swagger-ui-dist@5.10.0")
}
