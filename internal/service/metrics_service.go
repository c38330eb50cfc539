package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storeOps        *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	syncTriggers    *prometheus.CounterVec
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

	storeOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_operations_total",
		Help: "Total key-value store operations",
	}, []string{"op"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_emitted_total",
		Help: "Total notification emissions by kind",
	}, []string{"kind"})

	syncTriggers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_triggers_total",
		Help: "Change-signal watcher triggers by source",
	}, []string{"source"})

	registry.MustRegister(requestDuration, requestTotal, storeOps, notifications, syncTriggers)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storeOps:        storeOps,
		notifications:   notifications,
		syncTriggers:    syncTriggers,
	}
}

// Handler exposes the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one handled request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveStoreOp counts a key-value store operation.
func (s *MetricsService) ObserveStoreOp(op string) {
	s.storeOps.WithLabelValues(op).Inc()
}

// ObserveNotification counts an emission by kind.
func (s *MetricsService) ObserveNotification(kind string) {
	s.notifications.WithLabelValues(kind).Inc()
}

// ObserveSyncTrigger counts a watcher trigger by source.
func (s *MetricsService) ObserveSyncTrigger(source string) {
	s.syncTriggers.WithLabelValues(source).Inc()
}
