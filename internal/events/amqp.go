package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Defaults for the progress exchange and its durable queue
const (
	DefaultExchange = "crucible.events"
	DefaultQueue    = "crucible.progress"
)

// AMQPConfig holds RabbitMQ connection settings
type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// Connection manages the RabbitMQ connection with automatic reconnection
type Connection struct {
	cfg        AMQPConfig
	conn       *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closed     bool
	reconnects int
}

// NewConnection dials RabbitMQ and declares the progress topology
func NewConnection(cfg AMQPConfig) (*Connection, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	c := &Connection{cfg: cfg}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	c.conn, err = amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := c.declareTopology(); err != nil {
		c.channel.Close()
		c.conn.Close()
		return err
	}

	go c.handleReconnect()

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.cfg.URL), "exchange", c.cfg.Exchange)
	return nil
}

// declareTopology creates a topic exchange and binds the progress queue to
// every event type
func (c *Connection) declareTopology() error {
	err := c.channel.ExchangeDeclare(
		c.cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := c.channel.QueueBind(c.cfg.Queue, "#", c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

func (c *Connection) handleReconnect() {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	err := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if err == nil {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	slog.Warn("RabbitMQ connection closed, attempting to reconnect",
		"error", err,
		"reconnects", c.reconnects,
	)

	for i := 0; i < 10; i++ {
		c.reconnects++
		backoff := min(time.Duration(1<<i)*time.Second, 30*time.Second)
		time.Sleep(backoff)

		if err := c.connect(); err != nil {
			slog.Error("reconnection failed", "error", err, "attempt", i+1)
			continue
		}
		slog.Info("reconnected to RabbitMQ", "attempts", i+1)
		return
	}
	slog.Error("failed to reconnect to RabbitMQ after 10 attempts")
}

// Close closes the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected checks if the connection is active
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Channel returns the current channel. It changes after a reconnect.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Queue returns the name of the durable progress queue
func (c *Connection) Queue() string {
	return c.cfg.Queue
}

// PublishJSON publishes a JSON message to the exchange with a routing key
func (c *Connection) PublishJSON(ctx context.Context, routingKey string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	return ch.PublishWithContext(
		ctx,
		c.cfg.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// AMQPPublisher publishes events to RabbitMQ, routed by event type
type AMQPPublisher struct {
	conn *Connection
}

// Ensure AMQPPublisher implements Publisher
var _ Publisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher creates a publisher over an open connection
func NewAMQPPublisher(conn *Connection) *AMQPPublisher {
	return &AMQPPublisher{conn: conn}
}

// Publish implements Publisher
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	if err := p.conn.PublishJSON(ctx, string(e.Type), e); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.Type, err)
	}
	slog.Debug("published event", "type", e.Type, "id", e.ID, "topic_id", e.TopicID, "badge_id", e.BadgeID)
	return nil
}

// Close closes the underlying connection
func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

// sanitizeURL removes the password from a URL for logging
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if len(raw) > 20 {
			return raw[:20] + "..."
		}
		return raw
	}
	return u.Redacted()
}
