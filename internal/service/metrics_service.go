package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and keeps counters for the JSON snapshot.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	capacityRejections prometheus.Counter
	notifications      *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	committedCount       uint64
	rejectedCount        uint64
	capacityCount        uint64
	publishedCount       uint64
	publishFailedCount   uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
}

// NewMetricsService registers the collectors.
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

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarship_application_transitions_total",
		Help: "Application lifecycle actions by outcome",
	}, []string{"action", "from", "to", "outcome"})

	capacityRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scholarship_capacity_rejections_total",
		Help: "Approvals refused because no slot remained",
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarship_notifications_total",
		Help: "Notification events handed to the delivery channel",
	}, []string{"type", "result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitions, capacityRejections, notifications,
		cacheLatency, cacheWrite, cacheHitRatio, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		transitions:        transitions,
		capacityRejections: capacityRejections,
		notifications:      notifications,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
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
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordTransition counts one lifecycle action attempt.
func (m *MetricsService) RecordTransition(action, from, to, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, from, to, outcome).Inc()
	if outcome == "committed" {
		atomic.AddUint64(&m.committedCount, 1)
		return
	}
	atomic.AddUint64(&m.rejectedCount, 1)
}

// RecordCapacityRejection counts an approval refused for lack of slots.
func (m *MetricsService) RecordCapacityRejection() {
	if m == nil {
		return
	}
	m.capacityRejections.Inc()
	atomic.AddUint64(&m.capacityCount, 1)
}

// RecordNotification counts a publish attempt.
func (m *MetricsService) RecordNotification(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "published"
	if !ok {
		result = "failed"
		atomic.AddUint64(&m.publishFailedCount, 1)
	} else {
		atomic.AddUint64(&m.publishedCount, 1)
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() models.WorkflowMetricsSnapshot {
	if m == nil {
		return models.WorkflowMetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(atomic.LoadUint64(&m.requestDurationTotal)) / float64(requests) / float64(time.Millisecond)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return models.WorkflowMetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		TransitionsCommitted:     atomic.LoadUint64(&m.committedCount),
		TransitionsRejected:      atomic.LoadUint64(&m.rejectedCount),
		CapacityRejections:       atomic.LoadUint64(&m.capacityCount),
		NotificationsPublished:   atomic.LoadUint64(&m.publishedCount),
		NotificationsFailed:      atomic.LoadUint64(&m.publishFailedCount),
		CacheHitRatio:            ratio,
		CacheHits:                hits,
		CacheMisses:              misses,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
