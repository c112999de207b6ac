package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/linkcut/linkcut/internal/app/model"
	"github.com/nats-io/nats.go"
)

// ClickPublisher publishes click events to NATS JetStream. The redirect
// handler fires it from a goroutine after the response is already on its way,
// so a publish failure can never block or fail a redirect.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click event publisher.
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// Publish stamps the event with an ID and timestamp and hands it to the
// stream.
func (p *ClickPublisher) Publish(event model.ClickEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.ClickedAt.IsZero() {
		event.ClickedAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data)
	return err
}
