package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/log"
)

type fakePublisher struct {
	err   error
	calls int
	last  amqp091.Publishing
	key   string
}

func (f *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	f.calls++
	f.last = msg
	f.key = key
	return f.err
}

func TestPublishWalletEvent(t *testing.T) {
	pub := &fakePublisher{}
	c := newClient(pub, "wallet", "wallet_events", log.Discard())

	ev := NewWalletEvent(TransactionCreated, "u1", "t1")
	require.NoError(t, c.PublishWalletEvent(context.Background(), ev))

	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, "wallet_events", pub.key)
	assert.Equal(t, amqp091.Persistent, pub.last.DeliveryMode)
	assert.Equal(t, string(TransactionCreated), pub.last.Type)

	got, err := WalletEventFromJSON(pub.last.Body)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "t1", got.EntityID)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	c := newClient(pub, "wallet", "wallet_events", log.Discard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := c.PublishWalletEvent(ctx, NewWalletEvent(TransactionCreated, "u1", "t1"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, gobreaker.StateOpen, c.breaker.State())

	err := c.PublishWalletEvent(ctx, NewWalletEvent(TransactionCreated, "u1", "t1"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, pub.calls, "open breaker must not reach the broker")
}

func TestWalletEventFromJSON(t *testing.T) {
	_, err := WalletEventFromJSON([]byte(`{"type":"transaction.created"}`))
	assert.Error(t, err)
	_, err = WalletEventFromJSON([]byte(`not json`))
	assert.Error(t, err)
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}
func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestDispatch(t *testing.T) {
	body, err := NewWalletEvent(RecurringCreated, "u1", "r1").ToJSON()
	require.NoError(t, err)

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		handlerErr  error
		wantAck     bool
		wantRequeue bool
	}{
		{name: "handled", body: body, wantAck: true},
		{name: "poison message dropped", body: []byte("{"), wantAck: false, wantRequeue: false},
		{name: "handler failure requeued once", body: body, handlerErr: errors.New("db down"), wantRequeue: true},
		{name: "redelivered failure dropped", body: body, redelivered: true, handlerErr: errors.New("db down"), wantRequeue: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			c := newClient(&fakePublisher{}, "wallet", "wallet_events", log.Discard())
			var seen *WalletEvent
			c.dispatch(context.Background(),
				amqp091.Delivery{Acknowledger: ack, Body: tt.body, Redelivered: tt.redelivered},
				func(_ context.Context, ev *WalletEvent) error { seen = ev; return tt.handlerErr })

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeued)
			if string(tt.body) != "{" {
				require.NotNil(t, seen)
				assert.Equal(t, "u1", seen.UserID)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, Backoff(tt.attempt))
		})
	}
}
