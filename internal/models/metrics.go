package models

import "time"

// WorkflowMetricsSnapshot is the JSON summary served next to the Prometheus endpoint.
type WorkflowMetricsSnapshot struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	TransitionsCommitted     uint64            `json:"transitions_committed"`
	TransitionsRejected      uint64            `json:"transitions_rejected"`
	CapacityRejections       uint64            `json:"capacity_rejections"`
	NotificationsPublished   uint64            `json:"notifications_published"`
	NotificationsFailed      uint64            `json:"notifications_failed"`
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	Goroutines               int               `json:"goroutines"`
	Extra                    map[string]string `json:"extra,omitempty"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
