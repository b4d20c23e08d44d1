package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/analytics"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/ports"
)

type alertStore interface {
	ports.AlertRepository
	ports.TransactionRepository
	ports.RecurringExpenseRepository
}

// Hit is an alert whose threshold was exceeded.
type Hit struct {
	Alert    core.Alert
	Observed decimal.Decimal
}

// AlertEvaluator checks a user's alerts against their recent spending.
type AlertEvaluator struct {
	store   alertStore
	window  analytics.Window
	metrics *metrics.Metrics
	logger  *log.Logger
	now     func() time.Time
}

func NewAlertEvaluator(store alertStore, window analytics.Window, m *metrics.Metrics, logger *log.Logger) *AlertEvaluator {
	return &AlertEvaluator{
		store:   store,
		window:  window,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentAlerts),
		now:     time.Now,
	}
}

// Evaluate returns every alert of userID whose observed amount is strictly
// greater than its threshold.
//
// A spending_threshold alert compares the outflow total of the evaluation
// window. A recurring_total alert compares the monthly equivalent of its
// triggered recurring expenses, or of all the user's recurring expenses when
// it has no triggers.
func (e *AlertEvaluator) Evaluate(ctx context.Context, userID string) ([]Hit, error) {
	alerts, err := e.store.ListAlerts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	if len(alerts) == 0 {
		return nil, nil
	}

	var (
		spending  *decimal.Decimal
		recurring *decimal.Decimal
		hits      []Hit
	)
	for _, a := range alerts {
		var observed decimal.Decimal
		switch a.AlertType {
		case core.SpendingThreshold:
			if spending == nil {
				s, err := e.windowOutflow(ctx, userID)
				if err != nil {
					return nil, err
				}
				spending = &s
			}
			observed = *spending
		case core.RecurringTotal:
			if len(a.Triggers) > 0 {
				observed = MonthlyTotal(a.Triggers)
				break
			}
			if recurring == nil {
				rs, err := e.store.ListRecurringExpenses(ctx, userID)
				if err != nil {
					return nil, fmt.Errorf("list recurring expenses: %w", err)
				}
				r := MonthlyTotal(rs)
				recurring = &r
			}
			observed = *recurring
		default:
			e.logger.WarnContext(ctx, "Skipping alert with unknown type",
				log.FieldAlertID, a.ID, "alert_type", a.AlertType)
			continue
		}
		if observed.GreaterThan(a.ThresholdAmount) {
			hits = append(hits, Hit{Alert: a, Observed: observed})
			e.metrics.AlertTriggered(string(a.AlertType))
		}
	}
	return hits, nil
}

func (e *AlertEvaluator) windowOutflow(ctx context.Context, userID string) (decimal.Decimal, error) {
	txs, err := e.store.ListTransactions(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list transactions: %w", err)
	}
	inWindow := analytics.FilterWindow(txs, e.now(), e.window)
	return analytics.CategoryTotals(inWindow).Sum(), nil
}
