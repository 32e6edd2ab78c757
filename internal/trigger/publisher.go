package trigger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes triggers to the refresh topic.
type Publisher struct {
	w MessageWriter
}

// NewPublisher connects a publisher to topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return NewPublisherWith(kafka.NewWriter(kafka.WriterConfig{
		Brokers:     brokers,
		Topic:       topic,
		MaxAttempts: 3,
	}))
}

// NewPublisherWith wraps an existing writer.
func NewPublisherWith(w MessageWriter) *Publisher {
	return &Publisher{w: w}
}

// Publish sends t keyed by its ID.
func (p *Publisher) Publish(ctx context.Context, t Trigger) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trigger: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(t.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "reason", Value: []byte(t.Reason)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish trigger %s: %w", t.ID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
