package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeling-pipeline/internal/models"
)

func TestDownloadWritesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Yr,Mn,CO2\n1959,1,315.62\n"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "data", "co2_monthly.csv")
	svc := NewFetchService(5*time.Second, testLogger(), testCollector())

	n, err := svc.Download(context.Background(), server.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(24), n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "Yr,Mn,CO2\n1959,1,315.62\n", string(data))
}

func TestDownloadNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "co2_monthly.csv")
	svc := NewFetchService(5*time.Second, testLogger(), testCollector())

	_, err := svc.Download(context.Background(), server.URL, dest)

	var netErr *models.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
	assert.False(t, netErr.IsTransient())
	assert.NoFileExists(t, dest)
}

func TestDownloadUnreachableLeavesFilesAlone(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	dir := t.TempDir()
	svc := NewFetchService(2*time.Second, testLogger(), testCollector())

	fresh := filepath.Join(dir, "fresh.csv")
	_, err := svc.Download(context.Background(), url, fresh)
	var netErr *models.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.IsTransient())
	assert.NoFileExists(t, fresh)

	existing := filepath.Join(dir, "existing.csv")
	require.NoError(t, os.WriteFile(existing, []byte("previous download"), 0o644))
	_, err = svc.Download(context.Background(), url, existing)
	require.ErrorAs(t, err, &netErr)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "previous download", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestDownloadHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	svc := NewFetchService(50*time.Millisecond, testLogger(), testCollector())
	_, err := svc.Download(context.Background(), server.URL, filepath.Join(t.TempDir(), "slow.csv"))

	var netErr *models.NetworkError
	assert.ErrorAs(t, err, &netErr)
}
