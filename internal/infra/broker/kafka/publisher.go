package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventPublisher turns application events into JSON records on a topic
// derived from the event name: "request.accepted" lands on
// "<prefix>request.accepted".
type EventPublisher struct {
	Producer    *Producer
	TopicPrefix string
}

type envelope struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func (p *EventPublisher) Publish(ctx context.Context, event, key string, payload any) error {
	if p == nil || p.Producer == nil {
		return nil
	}
	body, err := json.Marshal(envelope{Event: event, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event, err)
	}
	topic := p.TopicPrefix + strings.ToLower(event)
	return p.Producer.Publish(ctx, topic, key, body, map[string]string{"event": event})
}
