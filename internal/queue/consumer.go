package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BroadcastHandler runs one broadcast request.
type BroadcastHandler func(ctx context.Context, ev BroadcastRequestedEvent) error

// Consumer drains the broadcast.requested queue one message at a time.
type Consumer struct {
	url    string
	handle BroadcastHandler
}

// NewConsumer returns a Consumer passing each request to handle.
func NewConsumer(url string, handle BroadcastHandler) *Consumer {
	return &Consumer{url: url, handle: handle}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential back-off (1s doubling up to 30s) whenever
// the dial fails or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("broadcast-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !wait(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("broadcast-consumer: consume loop ended: %v; reconnecting", err)
		if !wait(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// one broadcast in flight at a time
	if err := ch.Qos(1, 0, false); err != nil {
		log.Printf("broadcast-consumer: set QoS failed: %v", err)
	}
	if _, err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(BroadcastQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

// deliver acks before running: a broadcast interrupted by a crash is not
// replayed, so nobody gets the announcement twice.
func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	ev, err := DecodeBroadcastRequested(d.Body)
	if err != nil {
		log.Printf("broadcast-consumer: dropping message: %v", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
	if err := c.handle(ctx, ev); err != nil {
		log.Printf("broadcast-consumer: broadcast from %d failed: %v", ev.RequestedBy, err)
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
