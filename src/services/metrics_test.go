package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/username/stationetl/src/models"
)

func TestMetricsObservePipeline(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObservePipeline(&models.FileResult{
		Category: models.CategoryOrdered,
		Counters: models.Counters{Elaborated: 5, Modified: 3, Skipped: 1, Errored: 1},
		Duration: 20 * time.Millisecond,
	})
	m.FileRouted(models.CategoryOrdered, "ok")
	m.FileRouted(models.CategoryOrdered, "ok")

	if got := testutil.ToFloat64(m.rows.WithLabelValues("ORDINATO", "modified")); got != 3 {
		t.Errorf("modified rows = %v", got)
	}
	if got := testutil.ToFloat64(m.files.WithLabelValues("ORDINATO", "ok")); got != 2 {
		t.Errorf("ok files = %v", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("duration series = %d", n)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.FileRouted(models.CategoryUnknown, "error")
	m.ObservePipeline(&models.FileResult{})
}
