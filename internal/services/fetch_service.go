package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"keeling-pipeline/internal/models"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

// FetchService downloads source files over HTTP
type FetchService struct {
	client  *http.Client
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewFetchService creates a new fetch service whose requests are bounded by timeout
func NewFetchService(timeout time.Duration, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *FetchService {
	return &FetchService{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Download GETs url and replaces dest with the response body. The body is written to
// a temp file next to dest and renamed, so a failed download leaves dest untouched.
// Transport failures and non-2xx responses return a *models.NetworkError.
func (s *FetchService) Download(ctx context.Context, url, dest string) (int64, error) {
	source := filepath.Base(dest)
	startTime := time.Now()

	s.logger.Info(ctx, "[FETCH_START] Downloading file", logging.Fields{
		"url":  url,
		"dest": dest,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		s.metrics.RecordFetchError(source, "request")
		return 0, &models.NetworkError{URL: url, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.RecordFetchError(source, "transport")
		return 0, &models.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.metrics.RecordFetchError(source, "status_"+strconv.Itoa(resp.StatusCode))
		return 0, &models.NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	n, err := writeAtomically(dest, resp.Body)
	if err != nil {
		var netErr *models.NetworkError
		if errors.As(err, &netErr) {
			netErr.URL = url
		}
		s.metrics.RecordFetchError(source, "write")
		return 0, err
	}

	duration := time.Since(startTime)
	s.metrics.RecordFetch(source, n, duration)

	s.logger.Info(ctx, "[FETCH_COMPLETE] File downloaded", logging.Fields{
		"url":         url,
		"dest":        dest,
		"bytes":       n,
		"duration_ms": duration.Milliseconds(),
	})

	return n, nil
}

// writeAtomically copies body into a temp file in dest's directory and renames it over dest.
// A read error on body is a transport failure and comes back as a *models.NetworkError.
func writeAtomically(dest string, body io.Reader) (n int64, err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	n, err = io.Copy(tmp, &bodyReader{body})
	if err != nil {
		var readErr *bodyReadError
		if errors.As(err, &readErr) {
			return 0, &models.NetworkError{Err: readErr.err}
		}
		return 0, fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("failed to move download into %s: %w", dest, err)
	}
	return n, nil
}

type bodyReadError struct{ err error }

func (e *bodyReadError) Error() string { return e.err.Error() }

// bodyReader tags read errors so they are told apart from write errors
type bodyReader struct{ r io.Reader }

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		return n, &bodyReadError{err}
	}
	return n, err
}
