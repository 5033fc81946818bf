package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mediagate/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventType represents the type of event
type EventType string

const (
	EventEntitlementRevoked  EventType = "entitlement.revoked"
	EventResourceUnpublished EventType = "resource.unpublished"
)

// Event is one revocation notice fanned out across gate instances. A
// player's push connection may live on a different instance than the
// one that observed the revocation; the bus bridges that gap.
type Event struct {
	Type       EventType          `json:"type"`
	InstanceID string             `json:"instance_id"`
	Timestamp  time.Time          `json:"timestamp"`
	ResourceID domain.ResourceID  `json:"resource_id,omitempty"`
	Principal  domain.PrincipalID `json:"principal,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// EventBus provides event publishing and subscription for coordination
type EventBus struct {
	client     *redis.Client
	instanceID string
	logger     *zap.SugaredLogger
	pubsub     *redis.PubSub
	channels   []string
}

// NewEventBus creates a new event bus
func NewEventBus(
	client *redis.Client,
	instanceID string,
	logger *zap.SugaredLogger,
) *EventBus {
	return &EventBus{
		client:     client,
		instanceID: instanceID,
		logger:     logger,
		channels:   []string{"mediagate:events"},
	}
}

// Publish publishes an event to the event bus
func (eb *EventBus) Publish(ctx context.Context, event *Event) error {
	event.InstanceID = eb.instanceID
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := eb.channels[0]
	if err := eb.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	eb.logger.Debugw("published event",
		"type", event.Type,
		"resource_id", event.ResourceID,
	)

	return nil
}

// Subscribe subscribes to events and calls handler for each event
func (eb *EventBus) Subscribe(ctx context.Context, handler func(*Event) error) error {
	if eb.pubsub != nil {
		return fmt.Errorf("already subscribed")
	}

	eb.pubsub = eb.client.Subscribe(ctx, eb.channels...)
	defer eb.pubsub.Close()

	ch := eb.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-ch:
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				eb.logger.Warnw("failed to unmarshal event",
					"error", err,
					"payload", msg.Payload,
				)
				continue
			}

			// Skip events from this instance
			if event.InstanceID == eb.instanceID {
				continue
			}

			if err := handler(&event); err != nil {
				eb.logger.Warnw("error handling event",
					"type", event.Type,
					"error", err,
				)
			}
		}
	}
}

// PublishEntitlementRevoked tells every instance that a principal lost
// access to a resource mid-playback.
func (eb *EventBus) PublishEntitlementRevoked(ctx context.Context, resourceID domain.ResourceID, principal domain.PrincipalID, reason string) error {
	return eb.Publish(ctx, &Event{
		Type:       EventEntitlementRevoked,
		ResourceID: resourceID,
		Principal:  principal,
		Reason:     reason,
	})
}

// PublishResourceUnpublished tells every instance that a resource left
// the servable state and all playback of it must stop.
func (eb *EventBus) PublishResourceUnpublished(ctx context.Context, resourceID domain.ResourceID) error {
	return eb.Publish(ctx, &Event{
		Type:       EventResourceUnpublished,
		ResourceID: resourceID,
		Reason:     "unpublished",
	})
}

// Close closes the event bus
func (eb *EventBus) Close() error {
	if eb.pubsub != nil {
		return eb.pubsub.Close()
	}
	return nil
}
