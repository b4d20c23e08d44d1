package worker

import (
	"context"
	"time"

	"wallet/internal/amqp"
	"wallet/internal/log"
)

// Consumer is one broker connection delivering wallet events.
type Consumer interface {
	ConsumeWalletEvents(ctx context.Context, handler amqp.Handler) error
	Close() error
}

// DialFunc opens a fresh broker connection.
type DialFunc func() (Consumer, error)

// Reconnector keeps a consumer attached to the broker until its context
// ends, dialing again with backoff whenever the connection drops.
type Reconnector struct {
	Dial    DialFunc
	Handler amqp.Handler
	Backoff func(attempt int) time.Duration
	Logger  *log.Logger
}

// Run blocks until ctx is done.
func (r *Reconnector) Run(ctx context.Context) error {
	backoff := r.Backoff
	if backoff == nil {
		backoff = amqp.Backoff
	}
	logger := r.Logger
	if logger == nil {
		logger = log.Discard()
	}

	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c, err := r.Dial()
		if err == nil {
			attempt = 0
			err = c.ConsumeWalletEvents(ctx, r.Handler)
			_ = c.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		wait := backoff(attempt)
		attempt++
		logger.WarnContext(ctx, "Broker connection lost, reconnecting",
			log.FieldOperation, log.OpConsume,
			log.FieldError, err,
			"attempt", attempt,
			"retry_in", wait.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
