package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/amqp"
	"wallet/internal/log"
)

type fakeConsumer struct {
	consumed chan struct{}
	closed   atomic.Bool
	err      error
}

func (f *fakeConsumer) ConsumeWalletEvents(ctx context.Context, handler amqp.Handler) error {
	close(f.consumed)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeConsumer) Close() error {
	f.closed.Store(true)
	return nil
}

func TestReconnector_RetriesUntilConnected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &fakeConsumer{consumed: make(chan struct{})}
	var dials atomic.Int32
	var waits []int

	r := &Reconnector{
		Dial: func() (Consumer, error) {
			if dials.Add(1) < 3 {
				return nil, errors.New("connection refused")
			}
			return consumer, nil
		},
		Handler: func(context.Context, *amqp.WalletEvent) error { return nil },
		Backoff: func(attempt int) time.Duration {
			waits = append(waits, attempt)
			return time.Millisecond
		},
		Logger: log.Discard(),
	}

	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	select {
	case <-consumer.consumed:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never attached")
	}
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(3), dials.Load())
	assert.Equal(t, []int{0, 1}, waits)
	assert.True(t, consumer.closed.Load())
}

func TestReconnector_RedialsAfterChannelClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &fakeConsumer{consumed: make(chan struct{}), err: amqp.ErrChannelClosed}
	second := &fakeConsumer{consumed: make(chan struct{})}
	var dials atomic.Int32

	r := &Reconnector{
		Dial: func() (Consumer, error) {
			if dials.Add(1) == 1 {
				return first, nil
			}
			return second, nil
		},
		Backoff: func(int) time.Duration { return time.Millisecond },
	}

	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	select {
	case <-second.consumed:
	case <-time.After(2 * time.Second):
		t.Fatal("did not redial")
	}
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)
	assert.True(t, first.closed.Load())
}

func TestReconnector_StopsWhenCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconnector{
		Dial: func() (Consumer, error) {
			cancel()
			return nil, errors.New("down")
		},
		Backoff: func(int) time.Duration { return time.Hour },
	}

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run blocked in backoff after cancel")
	}
}
