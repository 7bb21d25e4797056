package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.ClockEvent("clocked_in", nil)
	m.Settlement("overtime", "settled")
	m.OutboxReplay(errors.New("boom"))
	m.BatchRun("finalize", nil)
	m.LinesFinalized(3)
	m.JobRun("replay", time.Now(), nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.Settlement("overtime", "settled")
	m.Settlement("overtime", "settled")
	m.Settlement("leave", "anomaly")
	m.LinesFinalized(4)
	m.ClockEvent("clocked_out", errors.New("no open record"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.settlements.WithLabelValues("overtime", "settled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("leave", "anomaly")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.finalizedLines))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clockEvents.WithLabelValues("clocked_out", "failure")))
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/employees/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/metrics", m.Handler().ServeHTTP)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/employees/abc", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/employees/{id}", "404")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "payroll_http_requests_total")
}
