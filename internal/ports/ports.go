// Package ports declares the storage contracts the services and handlers
// depend on. Every owned-entity method is scoped by userID; an update or
// delete that matches no row of that user returns core.ErrNotFound.
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

type (
	AccountRepository interface {
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		GetAccount(ctx context.Context, userID, id string) (core.Account, error)
		// CreateAccount writes the account and its optional bank profile atomically.
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		// UpdateAccount replaces type and balance; a non-nil Bank replaces the profile.
		UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
		DeleteAccount(ctx context.Context, userID, id string) error
	}

	TransactionRepository interface {
		// ListTransactions returns the user's transactions newest first, with
		// category and account (and its bank) joined when present.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	RecurringExpenseRepository interface {
		ListRecurringExpenses(ctx context.Context, userID string) ([]core.RecurringExpense, error)
		CreateRecurringExpense(ctx context.Context, r core.RecurringExpense) (core.RecurringExpense, error)
		DeleteRecurringExpense(ctx context.Context, userID, id string) error
	}

	SavingsGoalRepository interface {
		ListSavingsGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
		CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		UpdateSavingsGoal(ctx context.Context, userID, id string, patch GoalPatch) (core.SavingsGoal, error)
	}

	InvestmentRepository interface {
		ListInvestments(ctx context.Context, userID string) ([]core.Investment, error)
		CreateInvestment(ctx context.Context, i core.Investment) (core.Investment, error)
	}

	AlertRepository interface {
		ListAlerts(ctx context.Context, userID string) ([]core.Alert, error)
		// CreateAlert writes the alert and one trigger per expense id in a single
		// transaction. Every expense must belong to the alert's user.
		CreateAlert(ctx context.Context, a core.Alert, expenseIDs []string) (core.Alert, error)
		DeleteAlert(ctx context.Context, userID, id string) error
	}

	UserRepository interface {
		ListUsers(ctx context.Context) ([]core.User, error)
		CreateUser(ctx context.Context, u core.User) (core.User, error)
	}

	// Store is the full data access layer.
	Store interface {
		AccountRepository
		TransactionRepository
		CategoryReader
		RecurringExpenseRepository
		SavingsGoalRepository
		InvestmentRepository
		AlertRepository
		UserRepository
		Ping(ctx context.Context) error
		Close() error
	}
)

// GoalPatch carries the savings goal fields a PATCH may change. Nil fields
// are left as they are.
type GoalPatch struct {
	CurrentAmount *decimal.Decimal
	Status        *core.GoalStatus
}

// Empty reports whether the patch changes nothing.
func (p GoalPatch) Empty() bool {
	return p.CurrentAmount == nil && p.Status == nil
}
