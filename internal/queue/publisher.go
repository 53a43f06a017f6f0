package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	// BookingConfirmedQueue receives BookingConfirmedEvent messages.
	BookingConfirmedQueue = "booking.confirmed"
	// SlotReleaseQueue receives SlotReleaseEvent messages.
	SlotReleaseQueue = "slot.release"
)

// Publisher writes domain events to RabbitMQ. Each publish dials its own
// connection so a broken broker never wedges the request path; errors are
// logged and returned so callers can treat publishing as best effort.
type Publisher struct {
	url string
	log zerolog.Logger
}

// NewPublisher returns a Publisher for the given broker URL.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log.With().Str("component", "queue-publisher").Logger()}
}

// BookingConfirmed publishes a BookingConfirmedEvent.
func (p *Publisher) BookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
	return p.publish(ctx, BookingConfirmedQueue, ev)
}

// SlotReleaseRequested publishes a SlotReleaseEvent.
func (p *Publisher) SlotReleaseRequested(ctx context.Context, ev SlotReleaseEvent) error {
	return p.publish(ctx, SlotReleaseQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, ev any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error().Err(err).Str("queue", queueName).Msg("dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error().Err(err).Str("queue", queueName).Msg("channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.log.Error().Err(err).Str("queue", queueName).Msg("queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Str("queue", queueName).Msg("marshal event failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		p.log.Error().Err(err).Str("queue", queueName).Msg("publish failed")
		return err
	}
	return nil
}
