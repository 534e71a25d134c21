// Package notify publishes audio-created events to NATS after successful
// synthesis, so downstream consumers can react to new artifacts without
// polling the store.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Publisher emits one event per synthesized artifact.
type Publisher struct {
	natsConnection *nats.Conn
	subject        string
}

// NewPublisher creates a publisher for the given subject.
func NewPublisher(natsConnection *nats.Conn, subject string) *Publisher {
	return &Publisher{
		natsConnection: natsConnection,
		subject:        subject,
	}
}

// AudioCreated publishes an AudioChunkCreatedEvent for the artifact under
// audioKey. Each event carries a fresh workflow and event id; this service
// has no multi-step workflows to correlate.
func (p *Publisher) AudioCreated(audioKey string) error {
	event := &events.AudioChunkCreatedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
			UserID:     "",
			TenantID:   "",
		},
		AudioKey:   audioKey,
		PageNumber: 0,
		TotalPages: 0,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audio created event: %w", err)
	}

	err = p.natsConnection.Publish(p.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish audio created event for '%s': %w", audioKey, err)
	}

	return nil
}
