package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the engine. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	clockEvents     *prometheus.CounterVec
	settlements     *prometheus.CounterVec
	outboxReplays   *prometheus.CounterVec
	batchRuns       *prometheus.CounterVec
	finalizedLines  prometheus.Counter
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payroll_http_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		clockEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_clock_events_total",
			Help: "Clock-in and clock-out attempts by result.",
		}, []string{"type", "result"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_settlements_total",
			Help: "Settlement attempts by request kind and outcome.",
		}, []string{"kind", "outcome"}),
		outboxReplays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_outbox_replays_total",
			Help: "Attendance events replayed from the outbox by result.",
		}, []string{"result"}),
		batchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_batch_runs_total",
			Help: "Payroll batch operations by operation and result.",
		}, []string{"operation", "result"}),
		finalizedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payroll_finalized_lines_total",
			Help: "Payroll lines committed as finalized.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_job_runs_total",
			Help: "Scheduled job runs by job and status.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payroll_job_duration_seconds",
			Help:    "Scheduled job duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration, m.clockEvents, m.settlements,
		m.outboxReplays, m.batchRuns, m.finalizedLines, m.jobRuns, m.jobDuration,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request counts and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ClockEvent(eventType string, err error) {
	if m == nil {
		return
	}
	m.clockEvents.WithLabelValues(eventType, result(err)).Inc()
}

func (m *Metrics) Settlement(kind, outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) OutboxReplay(err error) {
	if m == nil {
		return
	}
	m.outboxReplays.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) BatchRun(operation string, err error) {
	if m == nil {
		return
	}
	m.batchRuns.WithLabelValues(operation, result(err)).Inc()
}

func (m *Metrics) LinesFinalized(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.finalizedLines.Add(float64(n))
}

// JobRun records one scheduled job execution.
func (m *Metrics) JobRun(job string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result(err)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
