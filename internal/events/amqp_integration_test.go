//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/felixgeelhaar/crucible/internal/events"
)

func setupRabbitMQ(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)
	return amqpURL
}

func TestIntegration_PublishAndConsume(t *testing.T) {
	amqpURL := setupRabbitMQ(t)

	conn, err := events.NewConnection(events.AMQPConfig{URL: amqpURL})
	require.NoError(t, err)
	assert.True(t, conn.IsConnected())

	publisher := events.NewAMQPPublisher(conn)
	defer publisher.Close()

	e := events.NewEvent(events.TypeTopicPassed, time.Now().UTC())
	e.TopicID = "prompt-anatomy"
	e.Score = 85
	require.NoError(t, publisher.Publish(context.Background(), e))

	raw, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	defer raw.Close()
	ch, err := raw.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var msg amqp.Delivery
	require.Eventually(t, func() bool {
		var ok bool
		msg, ok, err = ch.Get(events.DefaultQueue, true)
		return err == nil && ok
	}, 10*time.Second, 100*time.Millisecond)

	assert.Equal(t, "topic.passed", msg.RoutingKey)
	var got events.Event
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "prompt-anatomy", got.TopicID)
}

func TestIntegration_InvalidURL(t *testing.T) {
	_, err := events.NewConnection(events.AMQPConfig{URL: "amqp://invalid:5672"})
	assert.Error(t, err)
}

func TestIntegration_ConsumerReceivesPublished(t *testing.T) {
	amqpURL := setupRabbitMQ(t)

	conn, err := events.NewConnection(events.AMQPConfig{URL: amqpURL, Queue: "crucible.test"})
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan events.Event, 1)
	consumer := events.NewConsumer(conn, func(_ context.Context, e events.Event) error {
		received <- e
		return nil
	}, events.DefaultConsumerConfig())
	require.NoError(t, consumer.Start(context.Background()))
	defer consumer.Stop()

	e := events.NewEvent(events.TypeBadgeEarned, time.Now().UTC())
	e.BadgeID = "first-certification"
	require.NoError(t, events.NewAMQPPublisher(conn).Publish(context.Background(), e))

	select {
	case got := <-received:
		assert.Equal(t, e.ID, got.ID)
		assert.Equal(t, "first-certification", got.BadgeID)
	case <-time.After(10 * time.Second):
		t.Fatal("event not consumed")
	}
}
