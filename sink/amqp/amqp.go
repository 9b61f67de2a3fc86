// Package amqp provides an Event/Log Sink publishing events to a RabbitMQ
// queue so external consumers (dashboards, persistence workers) can subscribe
// to the audit stream. Combine it with sink.Multi to keep an in-process copy.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hupe1980/agentbridge/core"
)

// Config describes the broker connection.
type Config struct {
	URL        string
	Queue      string
	Durable    bool
	AutoDelete bool
}

// Sink publishes every recorded event as a JSON message.
type Sink struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// New dials the broker and declares the queue.
func New(cfg Config) (*Sink, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url is required")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "agentbridge.events"
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, cfg.Durable, cfg.AutoDelete, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return &Sink{conn: conn, ch: ch, queue: queue}, nil
}

// Record implements core.Sink.
func (s *Sink) Record(ev core.Event) error {
	if s == nil || s.ch == nil {
		return errors.New("amqp sink not initialized")
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return s.ch.PublishWithContext(context.Background(), "", s.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   ev.ID,
		Timestamp:   ev.Timestamp,
		Body:        body,
	})
}

// Close releases the channel and connection.
func (s *Sink) Close() error {
	var errs []error
	if s.ch != nil {
		errs = append(errs, s.ch.Close())
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}
