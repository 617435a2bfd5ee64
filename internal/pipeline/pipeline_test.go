package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeling-pipeline/internal/config"
	"keeling-pipeline/internal/models"
	"keeling-pipeline/pkg/logging"
	"keeling-pipeline/pkg/metrics"
)

func monthlyBody(years int) string {
	var b strings.Builder
	b.WriteString("\" Monthly values are in ppm\n")
	b.WriteString("Yr,Mn,CO2,seasonally adjusted,fit\n")
	for y := 0; y < years; y++ {
		for m := 1; m <= 12; m++ {
			t := float64(y) + float64(m-1)/12
			trend := 315 + 0.9*t + 0.01*t*t
			fmt.Fprintf(&b, "%d,%d,%.2f,%.2f,%.2f\n", 1958+y, m, trend+2.8*math.Cos(2*math.Pi*float64(m)/12), trend, trend)
		}
	}
	return b.String()
}

func newTestRunner(t *testing.T, monthlyURL, historicalURL string) (*Runner, config.PipelineConfig, *metrics.Collector) {
	t.Helper()

	logger := logging.NewStructuredLogger("keeling-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	collector := metrics.NewCollectorWithRegistry("keeling_test", prometheus.NewRegistry())

	cfg := config.PipelineConfig{
		MonthlyURL:          monthlyURL,
		HistoricalURL:       historicalURL,
		DataDir:             t.TempDir(),
		FetchTimeout:        5 * time.Second,
		DecompositionPeriod: 12,
		IngestBatchSize:     100,
	}
	return NewRunner(cfg, logger, collector), cfg, collector
}

func TestRunAllWithoutHistorical(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/monthly.csv" {
			io.WriteString(w, monthlyBody(25))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	runner, cfg, collector := newTestRunner(t, server.URL+"/monthly.csv", server.URL+"/historical.csv")

	var out bytes.Buffer
	require.NoError(t, runner.RunAll(context.Background(), &out))

	for _, name := range []string{
		config.MonthlyFile,
		config.CleanFile,
		config.DecompositionFile,
		config.GrowthFile,
		config.DecadesFile,
		config.ReportWorkbook,
		config.FullChart,
		config.SeasonalChart,
		config.DecadesChart,
		config.DecompositionChart,
		config.GrowthChart,
		config.DashboardFile,
	} {
		assert.FileExists(t, cfg.Path(name))
	}
	assert.NoFileExists(t, cfg.Path(config.HistoricalFile))
	assert.NoFileExists(t, cfg.Path(config.HistoricalChart))
	assert.NotEmpty(t, out.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ChartsSkippedTotal.WithLabelValues(config.HistoricalChart)))
}

func TestRunAllStopsOnFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	runner, cfg, collector := newTestRunner(t, server.URL+"/monthly.csv", "")

	err := runner.RunAll(context.Background(), io.Discard)

	var netErr *models.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, IsTransient(err))
	assert.Equal(t, "network", ErrorKind(err))
	assert.NoFileExists(t, cfg.Path(config.CleanFile))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StageErrorsTotal.WithLabelValues(StageFetch, "network")))
}

func TestCleanSchemaFailure(t *testing.T) {
	runner, cfg, _ := newTestRunner(t, "http://unused.invalid", "")
	require.NoError(t, os.WriteFile(cfg.Path(config.MonthlyFile), []byte("station,value\nmlo,1\n"), 0o644))

	_, err := runner.Clean(context.Background())

	var schemaErr *models.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "schema", ErrorKind(err))
	assert.False(t, IsTransient(err))
}

func TestAnalyzeTooShort(t *testing.T) {
	runner, cfg, _ := newTestRunner(t, "http://unused.invalid", "")
	require.NoError(t, os.WriteFile(cfg.Path(config.MonthlyFile), []byte(monthlyBody(1)), 0o644))

	_, err := runner.Clean(context.Background())
	require.NoError(t, err)

	_, err = runner.Analyze(context.Background(), nil)
	assert.Equal(t, "insufficient_data", ErrorKind(err))
}

func TestAnalyzeReportSeparateFromLogs(t *testing.T) {
	runner, cfg, _ := newTestRunner(t, "http://unused.invalid", "")
	var logs bytes.Buffer
	runner.logger.SetLevel(logging.DebugLevel)
	runner.logger.SetOutput(&logs)

	require.NoError(t, os.WriteFile(cfg.Path(config.MonthlyFile), []byte(monthlyBody(25)), 0o644))
	_, err := runner.Clean(context.Background())
	require.NoError(t, err)

	var report bytes.Buffer
	_, err = runner.Analyze(context.Background(), &report)
	require.NoError(t, err)

	assert.NotEmpty(t, report.String())
	assert.NotContains(t, report.String(), `"level"`)
	assert.Contains(t, logs.String(), `"level"`)
}

func TestFileLayout(t *testing.T) {
	runner, cfg, _ := newTestRunner(t, "http://unused.invalid", "")

	assert.Equal(t, filepath.Join(cfg.DataDir, config.CleanFile), runner.AnalysisFiles().Clean)
	assert.Equal(t, filepath.Join(cfg.DataDir, config.HistoricalFile), runner.VisualizationFiles().Historical)
	assert.Equal(t, filepath.Join(cfg.DataDir, config.DashboardFile), runner.DashboardFiles().Output)
	assert.Equal(t, filepath.Join(cfg.DataDir, config.DecadesFile), runner.IngestionFiles().Decades)
}
