package services

import (
	"context"
	"fmt"

	"wallet/internal/amqp"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/ports"
)

// EventPublisher hands wallet events to the broker.
type EventPublisher interface {
	PublishWalletEvent(ctx context.Context, ev *amqp.WalletEvent) error
}

type ledgerStore interface {
	ports.TransactionRepository
	ports.RecurringExpenseRepository
	ports.AlertRepository
}

// Ledger validates writes that change a user's spending picture, stores
// them and announces them to the alert worker. Publishing is best effort: a
// stored write is never failed because the broker is unavailable.
type Ledger struct {
	store     ledgerStore
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *log.Logger
}

// NewLedger accepts a nil publisher, in which case events are skipped.
func NewLedger(store ledgerStore, publisher EventPublisher, m *metrics.Metrics, logger *log.Logger) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

func (l *Ledger) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := t.Normalized()
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := l.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	l.publish(ctx, amqp.TransactionCreated, created.UserID, created.ID)
	return created, nil
}

func (l *Ledger) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		return core.Transaction{}, core.Invalid("id", core.ErrMissingField)
	}
	t, err := t.Normalized()
	if err != nil {
		return core.Transaction{}, err
	}
	updated, err := l.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	l.publish(ctx, amqp.TransactionUpdated, updated.UserID, updated.ID)
	return updated, nil
}

func (l *Ledger) DeleteTransaction(ctx context.Context, userID, id string) error {
	if id == "" {
		return core.Invalid("id", core.ErrMissingField)
	}
	if err := l.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	l.publish(ctx, amqp.TransactionDeleted, userID, id)
	return nil
}

func (l *Ledger) CreateRecurringExpense(ctx context.Context, r core.RecurringExpense) (core.RecurringExpense, error) {
	if err := r.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	created, err := l.store.CreateRecurringExpense(ctx, r)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("create recurring expense: %w", err)
	}
	l.publish(ctx, amqp.RecurringCreated, created.UserID, created.ID)
	return created, nil
}

func (l *Ledger) DeleteRecurringExpense(ctx context.Context, userID, id string) error {
	if id == "" {
		return core.Invalid("id", core.ErrMissingField)
	}
	if err := l.store.DeleteRecurringExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	l.publish(ctx, amqp.RecurringDeleted, userID, id)
	return nil
}

// CreateAlert stores the alert with its triggers; an alert is evaluated
// immediately after creation.
func (l *Ledger) CreateAlert(ctx context.Context, a core.Alert, expenseIDs []string) (core.Alert, error) {
	if err := a.Validate(); err != nil {
		return core.Alert{}, err
	}
	created, err := l.store.CreateAlert(ctx, a, expenseIDs)
	if err != nil {
		return core.Alert{}, fmt.Errorf("create alert: %w", err)
	}
	l.publish(ctx, amqp.AlertCreated, created.UserID, created.ID)
	return created, nil
}

func (l *Ledger) DeleteAlert(ctx context.Context, userID, id string) error {
	if id == "" {
		return core.Invalid("id", core.ErrMissingField)
	}
	if err := l.store.DeleteAlert(ctx, userID, id); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return nil
}

func (l *Ledger) publish(ctx context.Context, typ amqp.EventType, userID, entityID string) {
	if l.publisher == nil {
		l.logger.DebugContext(ctx, "Event publisher not configured, skipping event",
			log.FieldEventType, typ)
		return
	}
	err := l.publisher.PublishWalletEvent(ctx, amqp.NewWalletEvent(typ, userID, entityID))
	l.metrics.EventPublished(string(typ), err)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to publish wallet event",
			log.FieldEventType, typ,
			log.FieldUserID, userID,
			log.FieldEntityID, entityID,
			log.FieldError, err)
	}
}
