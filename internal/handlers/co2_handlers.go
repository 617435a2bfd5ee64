package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"keeling-pipeline/internal/repository"
	"keeling-pipeline/internal/services"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// CO2Handler handles the CO2 API endpoints
type CO2Handler struct {
	co2Service    *services.CO2Service
	statsService  *services.StatisticsService
	dashboardPath string
	logger        *logging.StructuredLogger
	metrics       *metrics.Collector
}

// NewCO2Handler creates a new CO2 handler.
// dashboardPath is the generated HTML dashboard served at /dashboard.
func NewCO2Handler(
	co2Service *services.CO2Service,
	statsService *services.StatisticsService,
	dashboardPath string,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *CO2Handler {
	return &CO2Handler{
		co2Service:    co2Service,
		statsService:  statsService,
		dashboardPath: dashboardPath,
		logger:        logger,
		metrics:       metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// ListResponse represents an unpaginated API response
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// parsePagination reads page and limit, falling back to the defaults on bad input.
// A page whose offset does not fit in an int is rejected.
func parsePagination(r *http.Request) (page, limit int, err error) {
	page = 1
	limit = defaultLimit

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= maxLimit {
		limit = l
	}
	if page-1 > math.MaxInt/limit {
		return 0, 0, errors.New("page out of range")
	}
	return page, limit, nil
}

// parseDateFilter builds a DateFilter from start_date and end_date
func parseDateFilter(r *http.Request, limit, offset int) (repository.DateFilter, error) {
	filter := repository.DateFilter{Limit: limit, Offset: offset}

	if s := r.URL.Query().Get("start_date"); s != "" {
		startDate, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, errors.New("invalid start_date format, expected YYYY-MM-DD")
		}
		filter.StartDate = &startDate
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		endDate, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, errors.New("invalid end_date format, expected YYYY-MM-DD")
		}
		filter.EndDate = &endDate
	}

	return filter, nil
}

// GetMonthly handles GET /api/co2/monthly
func (h *CO2Handler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/co2/monthly").Observe(duration.Seconds())
	}()

	page, limit, err := parsePagination(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	filter, err := parseDateFilter(r, limit, (page-1)*limit)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	records, total, err := h.co2Service.GetMonthly(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_MONTHLY_ERROR] Failed to get monthly records", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/co2/monthly")
		h.sendError(w, r, "failed to retrieve monthly records", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/co2/monthly", "GET", "200")
	h.sendJSON(w, paginated(records, total, page, limit), http.StatusOK)
}

// GetDecomposition handles GET /api/co2/decomposition
func (h *CO2Handler) GetDecomposition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/co2/decomposition").Observe(duration.Seconds())
	}()

	page, limit, err := parsePagination(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	filter, err := parseDateFilter(r, limit, (page-1)*limit)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	records, total, err := h.co2Service.GetDecomposition(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_DECOMPOSITION_ERROR] Failed to get decomposition", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/co2/decomposition")
		h.sendError(w, r, "failed to retrieve decomposition", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/co2/decomposition", "GET", "200")
	h.sendJSON(w, paginated(records, total, page, limit), http.StatusOK)
}

// GetAnnual handles GET /api/co2/annual
func (h *CO2Handler) GetAnnual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/co2/annual").Observe(duration.Seconds())
	}()

	page, limit, err := parsePagination(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	filter := repository.YearFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if s := r.URL.Query().Get("start_year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			h.sendError(w, r, "invalid start_year, expected integer", http.StatusBadRequest)
			return
		}
		filter.StartYear = &year
	}

	if s := r.URL.Query().Get("end_year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			h.sendError(w, r, "invalid end_year, expected integer", http.StatusBadRequest)
			return
		}
		filter.EndYear = &year
	}

	annual, total, err := h.statsService.GetAnnual(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_ANNUAL_ERROR] Failed to get annual aggregates", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/co2/annual")
		h.sendError(w, r, "failed to retrieve annual aggregates", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/co2/annual", "GET", "200")
	h.sendJSON(w, paginated(annual, total, page, limit), http.StatusOK)
}

// GetAnnualByYear handles GET /api/co2/annual/{year}
func (h *CO2Handler) GetAnnualByYear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/co2/annual/{year}").Observe(duration.Seconds())
	}()

	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
		return
	}

	annual, err := h.statsService.GetAnnualByYear(ctx, year)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.sendError(w, r, notFound.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_GET_ANNUAL_YEAR_ERROR] Failed to get annual aggregate", logging.Fields{
			"year": year,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/co2/annual/{year}")
		h.sendError(w, r, "failed to retrieve annual aggregate", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/co2/annual/{year}", "GET", "200")
	h.sendJSON(w, annual, http.StatusOK)
}

// GetDecades handles GET /api/co2/decades
func (h *CO2Handler) GetDecades(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/co2/decades").Observe(duration.Seconds())
	}()

	decades, err := h.statsService.GetDecades(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_DECADES_ERROR] Failed to get decade summaries", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/co2/decades")
		h.sendError(w, r, "failed to retrieve decade summaries", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/co2/decades", "GET", "200")
	h.sendJSON(w, ListResponse{Data: decades, Total: len(decades)}, http.StatusOK)
}

// Dashboard handles GET /dashboard by serving the last generated dashboard file
func (h *CO2Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := os.ReadFile(h.dashboardPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.sendError(w, r, "dashboard has not been generated yet", http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_DASHBOARD_ERROR] Failed to read dashboard", logging.Fields{
			"path": h.dashboardPath,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/dashboard")
		h.sendError(w, r, "failed to read dashboard", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/dashboard", "GET", "200")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

// HealthCheck handles GET /health
func (h *CO2Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.co2Service.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK_FAILED] Store unreachable", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		status["error"] = err.Error()
		h.sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

func paginated(data interface{}, total, page, limit int) PaginatedResponse {
	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

// sendJSON sends a JSON response
func (h *CO2Handler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *CO2Handler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all CO2 API routes
func (h *CO2Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/co2/monthly", h.GetMonthly).Methods("GET")
	router.HandleFunc("/api/co2/decomposition", h.GetDecomposition).Methods("GET")
	router.HandleFunc("/api/co2/annual", h.GetAnnual).Methods("GET")
	router.HandleFunc("/api/co2/annual/{year:-?[0-9]+}", h.GetAnnualByYear).Methods("GET")
	router.HandleFunc("/api/co2/decades", h.GetDecades).Methods("GET")
	router.HandleFunc("/dashboard", h.Dashboard).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
}
