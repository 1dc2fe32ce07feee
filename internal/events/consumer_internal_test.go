package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAcknowledger records how each delivery was settled
type fakeAcknowledger struct {
	mu       sync.Mutex
	acked    []uint64
	nacked   []uint64
	requeued []bool
	rejected []uint64
}

func (f *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, tag)
	f.requeued = append(f.requeued, requeue)
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, tag)
	return nil
}

func delivery(t *testing.T, ack amqp.Acknowledger, tag uint64, e Event, redelivered bool) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: body, Redelivered: redelivered}
}

func TestNewConsumer_Defaults(t *testing.T) {
	c := NewConsumer(nil, nil, ConsumerConfig{})
	def := DefaultConsumerConfig()
	assert.Equal(t, def.Workers, c.workers)
	assert.Equal(t, def.Prefetch, c.prefetch)
	assert.Equal(t, def.Timeout, c.timeout)

	c = NewConsumer(nil, nil, ConsumerConfig{Workers: 7, Prefetch: 3, Timeout: time.Second})
	assert.Equal(t, 7, c.workers)
	assert.Equal(t, 3, c.prefetch)
}

func TestProcessMessage_AcksHandledEvent(t *testing.T) {
	ack := &fakeAcknowledger{}
	var got Event
	c := NewConsumer(nil, func(ctx context.Context, e Event) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		got = e
		return nil
	}, ConsumerConfig{})

	e := NewEvent(TypeTopicPassed, time.Now().UTC())
	e.TopicID = "prompt-anatomy"
	c.processMessage(context.Background(), 0, delivery(t, ack, 1, e, false))

	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "prompt-anatomy", got.TopicID)
	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Empty(t, ack.nacked)
}

func TestProcessMessage_RejectsMalformed(t *testing.T) {
	ack := &fakeAcknowledger{}
	called := false
	c := NewConsumer(nil, func(context.Context, Event) error {
		called = true
		return nil
	}, ConsumerConfig{})

	c.processMessage(context.Background(), 0, amqp.Delivery{Acknowledger: ack, DeliveryTag: 9, Body: []byte("{oops")})

	assert.False(t, called)
	assert.Equal(t, []uint64{9}, ack.rejected)
	assert.Empty(t, ack.acked)
}

func TestProcessMessage_RequeuesOnce(t *testing.T) {
	ack := &fakeAcknowledger{}
	c := NewConsumer(nil, func(context.Context, Event) error {
		return errors.New("downstream unavailable")
	}, ConsumerConfig{})

	e := NewEvent(TypeBadgeEarned, time.Now().UTC())
	c.processMessage(context.Background(), 0, delivery(t, ack, 1, e, false))
	c.processMessage(context.Background(), 0, delivery(t, ack, 2, e, true))

	assert.Equal(t, []uint64{1, 2}, ack.nacked)
	assert.Equal(t, []bool{true, false}, ack.requeued)
	assert.Empty(t, ack.acked)
}

func TestWorker_StopsOnClosedChannel(t *testing.T) {
	ack := &fakeAcknowledger{}
	var mu sync.Mutex
	var seen []string
	c := NewConsumer(nil, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.TopicID)
		return nil
	}, ConsumerConfig{Workers: 1})

	msgs := make(chan amqp.Delivery, 3)
	for i, id := range []string{"a", "b", "c"} {
		e := NewEvent(TypeTopicPassed, time.Now().UTC())
		e.TopicID = id
		msgs <- delivery(t, ack, uint64(i+1), e, false)
	}
	close(msgs)

	c.wg.Add(1)
	c.worker(context.Background(), 0, msgs)

	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Len(t, ack.acked, 3)
}
