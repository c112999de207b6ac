package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linkcut/linkcut/internal/app/model"
	"github.com/linkcut/linkcut/internal/app/repository"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ClickConsumer drains click events from JetStream, appends them to the click
// log and fires the per-link counter increment. Processing is at-least-once;
// a click counted twice after a redelivery is accepted, clicks are a metric,
// not a ledger.
type ClickConsumer struct {
	js       nats.JetStreamContext
	logger   *zap.Logger
	links    repository.LinkRepository
	clicks   repository.ClickEventRepository
	stopChan chan struct{}
}

// NewClickConsumer creates a new click event consumer.
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, links repository.LinkRepository, clicks repository.ClickEventRepository) *ClickConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickConsumer{
		js:       js,
		logger:   logger,
		links:    links,
		clicks:   clicks,
		stopChan: make(chan struct{}),
	}
}

// Start ensures the stream and durable consumer exist and begins consuming.
func (c *ClickConsumer) Start() error {
	if _, err := c.js.StreamInfo(model.ClickStreamName); err != nil {
		if _, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		}); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	if _, err := c.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName); err != nil {
		if _, err = c.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		}); err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

// Stop ends the consume loop after the in-flight fetch completes.
func (c *ClickConsumer) Stop() {
	close(c.stopChan)
}

func (c *ClickConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		select {
		case <-c.stopChan:
			c.logger.Info("click consumer stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			c.logger.Error("failed to fetch click events", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg)
		}
	}
}

func (c *ClickConsumer) handle(ctx context.Context, msg *nats.Msg) {
	var event model.ClickEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logger.Error("failed to unmarshal click event", zap.Error(err))
		// Malformed payloads never become valid; drop instead of redelivering.
		msg.Ack()
		return
	}

	link, err := c.links.FindByShortCode(ctx, event.ShortCode)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			// The link was deactivated between the redirect and this
			// point. Losing the click is accepted.
			c.logger.Debug("dropping click for unresolvable link",
				zap.String("short_code", event.ShortCode))
			msg.Ack()
			return
		}
		c.logger.Error("failed to load link for click event",
			zap.String("short_code", event.ShortCode), zap.Error(err))
		msg.Nak()
		return
	}

	event.LinkID = link.ID

	if err := c.clicks.Create(ctx, &event); err != nil {
		c.logger.Error("failed to store click event",
			zap.String("id", event.ID),
			zap.String("short_code", event.ShortCode),
			zap.Error(err))
		msg.Nak()
		return
	}

	if err := c.links.IncrementClickCount(ctx, link.ID); err != nil {
		// The event row is already written; redelivering would double it.
		// Log and move on.
		c.logger.Error("failed to increment click count",
			zap.String("link_id", link.ID), zap.Error(err))
	}

	c.logger.Debug("click event stored",
		zap.String("id", event.ID),
		zap.String("short_code", event.ShortCode),
		zap.String("device_type", event.DeviceType),
		zap.String("browser", event.Browser),
	)

	msg.Ack()
}
