package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/digicoders-git/PATHOLOGY-BACKEND/internal/repository"
)

// Releaser frees a booked slot. The slot.release consumer retries through
// this until the release sticks.
type Releaser interface {
	ReleaseSlot(ctx context.Context, slotID uint64) error
}

// Consumer runs the background workers for both queues. Each worker owns
// its own connection with a reconnect loop, so a broker outage only
// pauses processing.
type Consumer struct {
	url string
	rel Releaser
	log zerolog.Logger
}

// NewConsumer returns a Consumer for the given broker URL.
func NewConsumer(url string, rel Releaser, log zerolog.Logger) *Consumer {
	return &Consumer{url: url, rel: rel, log: log.With().Str("component", "queue-consumer").Logger()}
}

// Start launches both workers. It returns immediately; the workers run
// until the process exits.
func (c *Consumer) Start() {
	go c.run(BookingConfirmedQueue, c.handleBookingConfirmed)
	go c.run(SlotReleaseQueue, c.handleSlotRelease)
}

// run dials, consumes and reconnects forever with capped backoff.
func (c *Consumer) run(queueName string, handle func([]byte) error) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn().Err(err).Str("queue", queueName).
				Dur("retry_in", backoff).Msg("broker dial failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(conn, queueName, handle); err != nil {
			c.log.Warn().Err(err).Str("queue", queueName).Msg("consume loop ended, reconnecting")
		}
		_ = conn.Close()
		time.Sleep(2 * time.Second)
	}
}

func (c *Consumer) consumeLoop(conn *amqp.Connection, queueName string, handle func([]byte) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handle(d.Body); err != nil {
			c.log.Error().Err(err).Str("queue", queueName).Msg("handle message failed")
			// Requeue release retries; drop unparseable confirmations.
			requeue := queueName == SlotReleaseQueue
			_ = d.Nack(false, requeue)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handleBookingConfirmed appends a one-line record to logs/booking.log.
func (c *Consumer) handleBookingConfirmed(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "booking.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Booking confirmed | code=%s | booking_id=%d | patient_id=%d | lab_id=%d | date=%s | slot=%s-%s | amount=%.2f | mode=%s\n",
		ev.ConfirmedAt, ev.BookingCode, ev.BookingID, ev.PatientID, ev.LabID,
		ev.BookingDate, ev.StartTime, ev.EndTime, ev.Amount, ev.PaymentMode)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// handleSlotRelease retries the slot release that failed inline after a
// cancellation. A missing slot is treated as done.
func (c *Consumer) handleSlotRelease(body []byte) error {
	var ev SlotReleaseEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.rel.ReleaseSlot(ctx, ev.SlotID); err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			c.log.Warn().Uint64("slot_id", ev.SlotID).Msg("release requested for missing slot, dropping")
			return nil
		}
		return fmt.Errorf("release slot %d: %w", ev.SlotID, err)
	}
	c.log.Info().Uint64("slot_id", ev.SlotID).Uint64("booking_id", ev.BookingID).
		Msg("released slot from retry queue")
	return nil
}
