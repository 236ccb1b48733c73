package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	materializeDuration *prometheus.HistogramVec
	eventsRendered      *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "week_view_cache_hits_total",
		Help: "Total week view cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "week_view_cache_misses_total",
		Help: "Total week view cache misses",
	})

	materializeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calendar_materialize_duration_seconds",
		Help:    "Duration of calendar materialization passes",
		Buckets: prometheus.DefBuckets,
	}, []string{"view"})

	eventsRendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_events_rendered_total",
		Help: "Total calendar events rendered per view",
	}, []string{"view"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, materializeDuration, eventsRendered, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		materializeDuration: materializeDuration,
		eventsRendered:      eventsRendered,
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

// RecordCacheOperation records a week view cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveMaterialization records a materialization pass for one view.
func (m *MetricsService) ObserveMaterialization(view string, events int, duration time.Duration) {
	if m == nil {
		return
	}
	m.materializeDuration.WithLabelValues(view).Observe(duration.Seconds())
	m.eventsRendered.WithLabelValues(view).Add(float64(events))
}
