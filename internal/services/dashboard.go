package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/ports"
)

// Dashboard collection names, also the keys of Overview.Errors.
const (
	CollectionAccounts    = "accounts"
	CollectionInvestments = "investments"
	CollectionGoals       = "savings_goals"
	CollectionRecurring   = "recurring_expenses"
	CollectionAlerts      = "alerts"
)

type dashboardStore interface {
	ports.AccountRepository
	ports.InvestmentRepository
	ports.SavingsGoalRepository
	ports.RecurringExpenseRepository
	ports.AlertRepository
}

// Overview is everything the dashboard shows. A collection that failed to
// load is empty and has an entry in Errors.
type Overview struct {
	Accounts          []core.Account          `json:"accounts"`
	Investments       []core.Investment       `json:"investments"`
	SavingsGoals      []core.SavingsGoal      `json:"savings_goals"`
	RecurringExpenses []core.RecurringExpense `json:"recurring_expenses"`
	Alerts            []core.Alert            `json:"alerts"`
	Errors            map[string]string       `json:"errors,omitempty"`
}

type DashboardService struct {
	store  dashboardStore
	logger *log.Logger
}

func NewDashboardService(store dashboardStore, logger *log.Logger) *DashboardService {
	return &DashboardService{store: store, logger: logger}
}

// Load fetches the five collections in parallel. One failing collection
// never cancels the others.
func (s *DashboardService) Load(ctx context.Context, userID string) Overview {
	var (
		ov   Overview
		errs [5]error
		g    errgroup.Group
	)

	g.Go(func() error {
		ov.Accounts, errs[0] = s.store.ListAccounts(ctx, userID)
		return nil
	})
	g.Go(func() error {
		ov.Investments, errs[1] = s.store.ListInvestments(ctx, userID)
		return nil
	})
	g.Go(func() error {
		ov.SavingsGoals, errs[2] = s.store.ListSavingsGoals(ctx, userID)
		return nil
	})
	g.Go(func() error {
		ov.RecurringExpenses, errs[3] = s.store.ListRecurringExpenses(ctx, userID)
		return nil
	})
	g.Go(func() error {
		ov.Alerts, errs[4] = s.store.ListAlerts(ctx, userID)
		return nil
	})
	_ = g.Wait()

	names := [5]string{CollectionAccounts, CollectionInvestments, CollectionGoals, CollectionRecurring, CollectionAlerts}
	for i, err := range errs {
		if err == nil {
			continue
		}
		if ov.Errors == nil {
			ov.Errors = make(map[string]string)
		}
		ov.Errors[names[i]] = "failed to load " + names[i]
		s.logger.ErrorContext(ctx, "Dashboard collection failed",
			log.FieldEntity, names[i],
			log.FieldUserID, userID,
			log.FieldError, err)
	}

	if ov.Accounts == nil {
		ov.Accounts = []core.Account{}
	}
	if ov.Investments == nil {
		ov.Investments = []core.Investment{}
	}
	if ov.SavingsGoals == nil {
		ov.SavingsGoals = []core.SavingsGoal{}
	}
	if ov.RecurringExpenses == nil {
		ov.RecurringExpenses = []core.RecurringExpense{}
	}
	if ov.Alerts == nil {
		ov.Alerts = []core.Alert{}
	}
	return ov
}
