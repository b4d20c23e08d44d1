package worker

import (
	"context"
	"fmt"

	"wallet/internal/amqp"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/ports"
	"wallet/internal/services"
)

// Evaluator reports the alerts a user has exceeded.
type Evaluator interface {
	Evaluate(ctx context.Context, userID string) ([]services.Hit, error)
}

// AlertWorker re-evaluates a user's alerts whenever their spending changes.
type AlertWorker struct {
	evaluator Evaluator
	users     ports.UserRepository
	metrics   *metrics.Metrics
	logger    *log.Logger
}

func NewAlertWorker(evaluator Evaluator, users ports.UserRepository, m *metrics.Metrics, logger *log.Logger) *AlertWorker {
	return &AlertWorker{
		evaluator: evaluator,
		users:     users,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleWalletEvent is the amqp.Handler for wallet events. A returned error
// asks the broker to redeliver once.
func (w *AlertWorker) HandleWalletEvent(ctx context.Context, ev *amqp.WalletEvent) error {
	w.logger.DebugContext(ctx, "Processing wallet event",
		log.FieldEventType, ev.Type,
		log.FieldUserID, ev.UserID,
		log.FieldEntityID, ev.EntityID)

	_, err := w.evaluate(ctx, ev.UserID)
	w.metrics.EventConsumed(err)
	return err
}

// StartupSweep evaluates every registered user once. It catches up on
// events published while the worker was down.
func (w *AlertWorker) StartupSweep(ctx context.Context) error {
	users, err := w.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	total, failed := 0, 0
	for _, u := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := w.evaluate(ctx, u.ID)
		if err != nil {
			failed++
			continue
		}
		total += n
	}

	w.logger.InfoContext(ctx, "Startup alert sweep completed",
		"users", len(users),
		"triggered", total,
		"errors", failed)
	return nil
}

func (w *AlertWorker) evaluate(ctx context.Context, userID string) (int, error) {
	hits, err := w.evaluator.Evaluate(ctx, userID)
	if err != nil {
		w.logger.ErrorContext(ctx, "Alert evaluation failed",
			log.FieldUserID, userID,
			log.FieldError, err)
		return 0, fmt.Errorf("evaluate alerts for %s: %w", userID, err)
	}
	for _, h := range hits {
		w.logger.WarnContext(ctx, "Spending alert triggered",
			log.FieldUserID, userID,
			log.FieldAlertID, h.Alert.ID,
			"alert_type", h.Alert.AlertType,
			"threshold", h.Alert.ThresholdAmount.StringFixed(2),
			"observed", h.Observed.StringFixed(2))
	}
	return len(hits), nil
}
