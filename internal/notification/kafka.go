package notification

import (
	"context"
	"encoding/json"
	"fmt"
)

// KafkaPublisher writes events straight to a topic, keyed by group so a
// group's events stay ordered. Deployments with Postgres publish through the
// outbox and Relay instead.
type KafkaPublisher struct {
	sink Sink
}

func NewKafkaPublisher(sink Sink) *KafkaPublisher {
	return &KafkaPublisher{sink: sink}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	return p.sink.Produce(ctx, event.GroupID.String(), body, map[string]string{"event_type": string(event.Kind)})
}
