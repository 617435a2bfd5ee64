package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestCollector() *Collector {
	return NewCollectorWithRegistry("keeling_test", prometheus.NewRegistry())
}

func TestRecordCleanRows(t *testing.T) {
	c := newTestCollector()

	c.RecordCleanRows(10, 7, map[string]int{"missing_co2": 2, "duplicate": 1})

	assert.Equal(t, 10.0, testutil.ToFloat64(c.CleanRowsTotal.WithLabelValues("read")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.CleanRowsTotal.WithLabelValues("kept")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.CleanDroppedTotal.WithLabelValues("missing_co2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CleanDroppedTotal.WithLabelValues("duplicate")))
}

func TestRecordFetchAndCharts(t *testing.T) {
	c := newTestCollector()

	c.RecordFetch("monthly", 2048, 150*time.Millisecond)
	c.RecordFetchError("historical", "status_404")
	c.RecordChart("full", true)
	c.RecordChart("historical", false)

	assert.Equal(t, 2048.0, testutil.ToFloat64(c.FetchBytesTotal.WithLabelValues("monthly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FetchErrorsTotal.WithLabelValues("historical", "status_404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ChartsRenderedTotal.WithLabelValues("full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ChartsSkippedTotal.WithLabelValues("historical")))
}

func TestTimer(t *testing.T) {
	c := newTestCollector()

	timer := c.StageTimer("clean")
	d := timer.ObserveDuration()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.StageDuration))
}

func TestUpdateDBConnectionPool(t *testing.T) {
	c := newTestCollector()

	c.UpdateDBConnectionPool(2, 3, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("in_use")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("total")))
}

func TestNewCollectorWithRegistry_Isolated(t *testing.T) {
	assert.NotPanics(t, func() {
		newTestCollector()
		newTestCollector()
	})
}
