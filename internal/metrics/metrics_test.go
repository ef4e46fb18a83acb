package metrics

import (
	"errors"
	"testing"
	"time"

	"asset-lifecycle-go/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())
	finished := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

	var ok models.BatchResult
	ok.Succeed("a", "A", "done")
	ok.Skip("b", "B", "no change")
	m.ObserveRun("recalculate-book-values", ok, time.Second, finished)

	var bad models.BatchResult
	bad.Fail("c", "C", errors.New("boom"))
	m.ObserveRun("recalculate-book-values", bad, time.Second, finished.Add(time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("recalculate-book-values", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("recalculate-book-values", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobItems.WithLabelValues("recalculate-book-values", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobItems.WithLabelValues("recalculate-book-values", "failed")))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(m.LastSuccess.WithLabelValues("recalculate-book-values")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRun("x", models.BatchResult{}, 0, time.Now())
	m.ObserveNotRun("x", OutcomeLocked)
}
