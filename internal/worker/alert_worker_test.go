package worker

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/amqp"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/services"
	"wallet/internal/storage/memory"
)

type stubEvaluator struct {
	calls []string
	hits  []services.Hit
	err   error
}

func (s *stubEvaluator) Evaluate(_ context.Context, userID string) ([]services.Hit, error) {
	s.calls = append(s.calls, userID)
	return s.hits, s.err
}

func bufferLogger(buf *bytes.Buffer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = buf
	cfg.Format = "json"
	return log.New(cfg)
}

func TestHandleWalletEventLogsHits(t *testing.T) {
	var buf bytes.Buffer
	eval := &stubEvaluator{hits: []services.Hit{{
		Alert:    core.Alert{ID: "a1", AlertType: core.SpendingThreshold, ThresholdAmount: decimal.NewFromInt(100)},
		Observed: decimal.NewFromInt(110),
	}}}
	w := NewAlertWorker(eval, memory.New(), nil, bufferLogger(&buf))

	err := w.HandleWalletEvent(context.Background(), amqp.NewWalletEvent(amqp.TransactionCreated, "alice", "t1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, eval.calls)
	assert.Contains(t, buf.String(), `"alert_id":"a1"`)
	assert.Contains(t, buf.String(), `"observed":"110.00"`)
}

func TestHandleWalletEventPropagatesErrors(t *testing.T) {
	eval := &stubEvaluator{err: errors.New("store unavailable")}
	w := NewAlertWorker(eval, memory.New(), nil, log.Discard())

	err := w.HandleWalletEvent(context.Background(), amqp.NewWalletEvent(amqp.TransactionDeleted, "alice", "t1"))
	assert.ErrorContains(t, err, "store unavailable")
}

func TestStartupSweepVisitsEveryUser(t *testing.T) {
	ctx := context.Background()
	users := memory.New()
	for _, u := range []core.User{
		{ID: "u1", Name: "Ann", Email: "ann@example.com"},
		{ID: "u2", Name: "Ben", Email: "ben@example.com"},
	} {
		_, err := users.CreateUser(ctx, u)
		require.NoError(t, err)
	}
	eval := &stubEvaluator{}
	w := NewAlertWorker(eval, users, nil, log.Discard())

	require.NoError(t, w.StartupSweep(ctx))
	assert.Equal(t, []string{"u1", "u2"}, eval.calls)
}
