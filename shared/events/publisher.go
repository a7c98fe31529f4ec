package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// defaultMaxLen caps each stream so unconsumed lifecycle events cannot grow
// Redis memory without bound. Trimming is approximate.
const defaultMaxLen = 100_000

// Publisher appends events to Redis streams. The JSON-encoded Event goes in
// the "event" field; "type" is duplicated for XRANGE inspection.
type Publisher struct {
	client redis.Cmdable
	maxLen int64
}

func NewPublisher(client redis.Cmdable) *Publisher {
	return &Publisher{client: client, maxLen: defaultMaxLen}
}

// NewEvent stamps data with a fresh ID and the current time.
func NewEvent(eventType string, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	event := NewEvent(eventType, data)
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event": eventJSON,
			"type":  eventType,
		},
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event to %s: %w", eventType, stream, err)
	}
	return nil
}

// DecodeData re-marshals the loosely typed event payload into dst.
func DecodeData(event Event, dst any) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event.Type, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", event.Type, err)
	}
	return nil
}
