package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the status engine jobs and the change-feed dispatcher.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	rowsProcessed   prometheus.Counter
	rowsFailed      prometheus.Counter
	queueFlushes    *prometheus.CounterVec
	broadcastErrors prometheus.Counter
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "status_engine_job_duration_seconds",
		Help:    "Duration of status engine job runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	rowsProcessed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_rows_processed_total",
		Help: "Change log rows processed successfully",
	})

	rowsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_rows_failed_total",
		Help: "Change log rows whose handler failed",
	})

	queueFlushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_queue_flushes_total",
		Help: "Debounce queue flushes per entity type",
	}, []string{"entity"})

	broadcastErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_broadcast_errors_total",
		Help: "Failed room broadcasts",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, jobDuration, rowsProcessed, rowsFailed, queueFlushes, broadcastErrors, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		jobDuration:     jobDuration,
		rowsProcessed:   rowsProcessed,
		rowsFailed:      rowsFailed,
		queueFlushes:    queueFlushes,
		broadcastErrors: broadcastErrors,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveJobRun records one status engine job execution.
func (m *MetricsService) ObserveJobRun(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordRowProcessed counts a successfully handled change log row.
func (m *MetricsService) RecordRowProcessed() {
	if m != nil {
		m.rowsProcessed.Inc()
	}
}

// RecordRowFailed counts a change log row whose handler failed.
func (m *MetricsService) RecordRowFailed() {
	if m != nil {
		m.rowsFailed.Inc()
	}
}

// RecordQueueFlush counts a debounce queue flush for an entity type.
func (m *MetricsService) RecordQueueFlush(entity string) {
	if m != nil {
		m.queueFlushes.WithLabelValues(entity).Inc()
	}
}

// RecordBroadcastError counts a failed room broadcast.
func (m *MetricsService) RecordBroadcastError() {
	if m != nil {
		m.broadcastErrors.Inc()
	}
}
