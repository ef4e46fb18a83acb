package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct{}

func (stubRunner) RunNow(_ context.Context, name string) (models.BatchResult, error) {
	if name != "transition-statuses" {
		return models.BatchResult{}, scheduler.ErrUnknownJob
	}
	result := models.BatchResult{Operation: name}
	result.Succeed("a-1", "Laptop", "New -> Functional")
	return result, nil
}

func TestHealthz(t *testing.T) {
	router := NewRouter(prometheus.NewRegistry(), func(context.Context) error { return nil }, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	router = NewRouter(prometheus.NewRegistry(), func(context.Context) error { return errors.New("db down") }, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "db down")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "ops_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	rec := httptest.NewRecorder()
	NewRouter(reg, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ops_test_total 1"))
}

func TestRunJob(t *testing.T) {
	router := NewRouter(prometheus.NewRegistry(), nil, stubRunner{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/transition-statuses/run", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"succeeded":1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/nope/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
