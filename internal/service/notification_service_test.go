package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/models"
)

type publisherStub struct {
	mu       sync.Mutex
	events   []models.NotificationEvent
	failures int
}

func (p *publisherStub) Publish(ctx context.Context, event models.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("redis unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *publisherStub) published() []models.NotificationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.NotificationEvent(nil), p.events...)
}

func TestNotificationEmitInlineWhenNotStarted(t *testing.T) {
	publisher := &publisherStub{}
	metrics := NewMetricsService()
	svc := NewNotificationService(publisher, metrics, NotificationConfig{Enabled: true, Workers: 1}, nil)

	svc.Emit(context.Background(), models.NotificationEvent{Type: models.NotificationSubmission, ApplicationID: "app-1"})

	events := publisher.published()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].OccurredAt.IsZero())
	assert.Equal(t, uint64(1), metrics.Snapshot().NotificationsPublished)
}

func TestNotificationQueueRetriesAndFlushesOnStop(t *testing.T) {
	publisher := &publisherStub{failures: 1}
	metrics := NewMetricsService()
	svc := NewNotificationService(publisher, metrics, NotificationConfig{Enabled: true, Workers: 2, MaxRetries: 3, RetryDelay: time.Millisecond}, nil)
	svc.Start(context.Background())

	for i := 0; i < 5; i++ {
		svc.Emit(context.Background(), models.NotificationEvent{Type: models.NotificationStatusChange, ApplicationID: "app-1"})
	}
	require.Eventually(t, func() bool { return len(publisher.published()) == 5 }, time.Second, 5*time.Millisecond)
	svc.Stop()

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(5), snapshot.NotificationsPublished)
	assert.Equal(t, uint64(1), snapshot.NotificationsFailed)
}

func TestNotificationDisabledDropsEvents(t *testing.T) {
	publisher := &publisherStub{}
	svc := NewNotificationService(publisher, nil, NotificationConfig{Enabled: false}, nil)
	svc.Start(context.Background())
	svc.Emit(context.Background(), models.NotificationEvent{Type: models.NotificationSubmission})
	svc.Stop()
	assert.Empty(t, publisher.published())
}
