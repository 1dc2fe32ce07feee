package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivered event. A returned error requeues the
// message once; a second failure drops it.
type Handler func(ctx context.Context, e Event) error

// Consumer drains the progress queue with a pool of workers
type Consumer struct {
	conn       *Connection
	handler    Handler
	workers    int
	prefetch   int
	timeout    time.Duration
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int           // Number of concurrent workers
	Prefetch int           // Unacknowledged messages per worker
	Timeout  time.Duration // Per-event handler deadline
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  2,
		Prefetch: 1,
		Timeout:  10 * time.Second,
	}
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler Handler, cfg ConsumerConfig) *Consumer {
	def := DefaultConsumerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	return &Consumer{
		conn:     conn,
		handler:  handler,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		timeout:  cfg.Timeout,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	if err := ch.Qos(c.prefetch*c.workers, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.conn.Queue(),
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting progress consumer", "queue", c.conn.Queue(), "workers", c.workers)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	return nil
}

// worker processes messages from the queue
func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("worker stopping", "worker_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Debug("message channel closed", "worker_id", id)
				return
			}
			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage handles a single delivery and settles it exactly once
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	var e Event
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		slog.Error("failed to unmarshal event", "worker_id", workerID, "error", err)
		// Malformed messages never succeed; drop them
		_ = msg.Reject(false)
		return
	}

	eventCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := c.handler(eventCtx, e); err != nil {
		requeue := !msg.Redelivered
		slog.Error("event handler failed",
			"worker_id", workerID,
			"event_id", e.ID,
			"type", e.Type,
			"requeue", requeue,
			"error", err,
		)
		if err := msg.Nack(false, requeue); err != nil {
			slog.Error("failed to nack message", "event_id", e.ID, "error", err)
		}
		return
	}

	slog.Debug("event handled",
		"worker_id", workerID,
		"event_id", e.ID,
		"type", e.Type,
		"duration", time.Since(start),
	)
	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message", "event_id", e.ID, "error", err)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}
