package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/pkg/jobs"
)

type notificationPublisher interface {
	Publish(ctx context.Context, event models.NotificationEvent) error
}

type notificationMetrics interface {
	RecordNotification(kind string, ok bool)
}

// NotificationConfig tunes the delivery hand-off.
type NotificationConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NotificationService emits workflow events without blocking the caller.
// Events go through a worker queue; when the queue is not running or is full
// the event is published inline.
type NotificationService struct {
	publisher notificationPublisher
	metrics   notificationMetrics
	queue     *jobs.Queue[models.NotificationEvent]
	enabled   bool
	logger    *zap.Logger
}

// NewNotificationService constructs the service. metrics may be nil.
func NewNotificationService(publisher notificationPublisher, metrics notificationMetrics, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{
		publisher: publisher,
		metrics:   metrics,
		enabled:   cfg.Enabled,
		logger:    logger,
	}
	svc.queue = jobs.New[models.NotificationEvent]("notifications", svc.handle, jobs.Config{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop flushes queued events.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Emit implements NotificationEmitter.
func (s *NotificationService) Emit(ctx context.Context, event models.NotificationEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if !s.enabled {
		s.logger.Debug("notification skipped", zap.String("type", string(event.Type)), zap.String("application_id", event.ApplicationID))
		return
	}
	if s.queue.Running() {
		err := s.queue.Submit(event.ID, event)
		if err == nil {
			return
		}
		s.logger.Warn("notification queue rejected event, publishing inline", zap.String("event_id", event.ID), zap.Error(err))
	}
	if err := s.handle(ctx, jobs.Job[models.NotificationEvent]{ID: event.ID, Payload: event}); err != nil {
		s.logger.Error("failed to publish notification", zap.String("event_id", event.ID), zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job[models.NotificationEvent]) error {
	err := s.publisher.Publish(ctx, job.Payload)
	if s.metrics != nil {
		s.metrics.RecordNotification(string(job.Payload.Type), err == nil)
	}
	return err
}
