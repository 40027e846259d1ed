package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// NotificationPublisher hands notification events to the delivery service over
// Redis Pub/Sub. Delivery itself happens outside this API.
type NotificationPublisher struct {
	client  *redis.Client
	channel string
}

// NewNotificationPublisher constructs a publisher for channel.
func NewNotificationPublisher(client *redis.Client, channel string) *NotificationPublisher {
	if channel == "" {
		channel = "scholarships:notifications"
	}
	return &NotificationPublisher{client: client, channel: channel}
}

// Publish sends one event. Without a Redis client it is a no-op.
func (p *NotificationPublisher) Publish(ctx context.Context, event models.NotificationEvent) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", event.ID, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification %s: %w", event.ID, err)
	}
	return nil
}
