// Package memory is an in-process implementation of ports.Store used by
// tests and DATA_BACKEND=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wallet/internal/core"
	"wallet/internal/ports"
)

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	categories   []core.Category
	users        []core.User
	accounts     []core.Account
	transactions []core.Transaction
	recurring    []core.RecurringExpense
	goals        []core.SavingsGoal
	investments  []core.Investment
	alerts       []core.Alert
	triggers     map[string][]string // alert id -> expense ids
}

var _ ports.Store = (*Store)(nil)

// New returns a store seeded with the default categories.
func New() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		categories: core.DefaultCategories(),
		triggers:   map[string][]string{},
	}
}

// WithClock replaces the timestamp source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]core.Category(nil), s.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) category(id string) *core.Category {
	for i := range s.categories {
		if s.categories[i].ID == id {
			c := s.categories[i]
			return &c
		}
	}
	return nil
}

// Accounts

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, cloneAccount(a))
		}
	}
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, userID, id string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.accountIndex(userID, id)
	if i < 0 {
		return core.Account{}, core.ErrNotFound
	}
	return cloneAccount(s.accounts[i]), nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	a.ID = uuid.NewString()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Bank != nil {
		b := *a.Bank
		b.ID, b.AccountID = uuid.NewString(), a.ID
		a.Bank = &b
	}
	s.accounts = append(s.accounts, a)
	return cloneAccount(a), nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(a.UserID, a.ID)
	if i < 0 {
		return core.Account{}, core.ErrNotFound
	}
	cur := s.accounts[i]
	cur.Type, cur.Balance, cur.UpdatedAt = a.Type, a.Balance, s.now()
	if a.Bank != nil {
		b := *a.Bank
		b.AccountID = cur.ID
		if cur.Bank != nil {
			b.ID = cur.Bank.ID
		} else {
			b.ID = uuid.NewString()
		}
		cur.Bank = &b
	}
	s.accounts[i] = cur
	return cloneAccount(cur), nil
}

func (s *Store) DeleteAccount(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(userID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	for j := range s.transactions {
		if s.transactions[j].AccountID == id {
			s.transactions[j].AccountID = ""
		}
	}
	return nil
}

func (s *Store) accountIndex(userID, id string) int {
	for i, a := range s.accounts {
		if a.ID == id && a.UserID == userID {
			return i
		}
	}
	return -1
}

func cloneAccount(a core.Account) core.Account {
	if a.Bank != nil {
		b := *a.Bank
		a.Bank = &b
	}
	return a
}

// Transactions

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		t := s.transactions[i]
		if t.UserID != userID {
			continue
		}
		out = append(out, s.joinTransaction(t))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *Store) joinTransaction(t core.Transaction) core.Transaction {
	t.Category = s.category(t.CategoryID)
	t.Account = nil
	if i := s.accountIndex(t.UserID, t.AccountID); i >= 0 {
		a := cloneAccount(s.accounts[i])
		t.Account = &a
	}
	return t
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := t.Normalized()
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(t.UserID, t.AccountID, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()
	t.Category, t.Account = nil, nil
	s.transactions = append(s.transactions, t)
	return s.joinTransaction(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := t.Normalized()
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.transactions {
		if cur.ID != t.ID || cur.UserID != t.UserID {
			continue
		}
		if err := s.checkRefs(t.UserID, t.AccountID, t.CategoryID); err != nil {
			return core.Transaction{}, err
		}
		t.Category, t.Account = nil, nil
		s.transactions[i] = t
		return s.joinTransaction(t), nil
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) checkRefs(userID, accountID, categoryID string) error {
	if accountID != "" && s.accountIndex(userID, accountID) < 0 {
		return core.Invalid("accountId", core.ErrNotFound)
	}
	if categoryID != "" && s.category(categoryID) == nil {
		return core.Invalid("categoryId", core.ErrNotFound)
	}
	return nil
}

// Recurring expenses

func (s *Store) ListRecurringExpenses(_ context.Context, userID string) ([]core.RecurringExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.RecurringExpense
	for _, r := range s.recurring {
		if r.UserID == userID {
			r.Category = s.category(r.CategoryID)
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) CreateRecurringExpense(_ context.Context, r core.RecurringExpense) (core.RecurringExpense, error) {
	if err := r.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(r.UserID, "", r.CategoryID); err != nil {
		return core.RecurringExpense{}, err
	}
	r.ID, r.CreatedAt = uuid.NewString(), s.now()
	r.Amount = r.Amount.Round(2)
	r.Category = nil
	s.recurring = append(s.recurring, r)
	r.Category = s.category(r.CategoryID)
	return r, nil
}

func (s *Store) DeleteRecurringExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.recurring {
		if r.ID == id && r.UserID == userID {
			s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
			for alertID, ids := range s.triggers {
				s.triggers[alertID] = without(ids, id)
			}
			return nil
		}
	}
	return core.ErrNotFound
}

func without(ids []string, drop string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

// Savings goals

func (s *Store) ListSavingsGoals(_ context.Context, userID string) ([]core.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.SavingsGoal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) CreateSavingsGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if g.Deadline != "" {
		g.Deadline, _ = core.NormalizeDate(g.Deadline)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID, g.CreatedAt = uuid.NewString(), s.now()
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) UpdateSavingsGoal(_ context.Context, userID, id string, patch ports.GoalPatch) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID != id || g.UserID != userID {
			continue
		}
		if patch.CurrentAmount != nil {
			g.CurrentAmount = *patch.CurrentAmount
		}
		if patch.Status != nil {
			g.Status = *patch.Status
		}
		if err := g.Validate(); err != nil {
			return core.SavingsGoal{}, err
		}
		s.goals[i] = g
		return g, nil
	}
	return core.SavingsGoal{}, core.ErrNotFound
}

// Investments

func (s *Store) ListInvestments(_ context.Context, userID string) ([]core.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Investment
	for _, inv := range s.investments {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *Store) CreateInvestment(_ context.Context, inv core.Investment) (core.Investment, error) {
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	inv.PurchaseDate, _ = core.NormalizeDate(inv.PurchaseDate)
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID, inv.CreatedAt = uuid.NewString(), s.now()
	s.investments = append(s.investments, inv)
	return inv, nil
}

// Alerts

func (s *Store) ListAlerts(_ context.Context, userID string) ([]core.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Alert
	for _, a := range s.alerts {
		if a.UserID != userID {
			continue
		}
		a.Triggers = []core.RecurringExpense{}
		for _, expenseID := range s.triggers[a.ID] {
			for _, r := range s.recurring {
				if r.ID == expenseID {
					r.Category = s.category(r.CategoryID)
					a.Triggers = append(a.Triggers, r)
				}
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) CreateAlert(_ context.Context, a core.Alert, expenseIDs []string) (core.Alert, error) {
	if err := a.Validate(); err != nil {
		return core.Alert{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	triggers := make([]core.RecurringExpense, 0, len(expenseIDs))
	linked := make([]string, 0, len(expenseIDs))
	seen := map[string]bool{}
	for _, expenseID := range expenseIDs {
		if seen[expenseID] {
			continue
		}
		seen[expenseID] = true
		linked = append(linked, expenseID)
		found := false
		for _, r := range s.recurring {
			if r.ID == expenseID && r.UserID == a.UserID {
				r.Category = s.category(r.CategoryID)
				triggers = append(triggers, r)
				found = true
				break
			}
		}
		if !found {
			return core.Alert{}, core.Invalid("expenseIds", core.ErrNotFound)
		}
	}
	a.ID, a.CreatedAt = uuid.NewString(), s.now()
	a.Triggers = nil
	s.alerts = append(s.alerts, a)
	s.triggers[a.ID] = linked
	a.Triggers = triggers
	return a, nil
}

func (s *Store) DeleteAlert(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.alerts {
		if a.ID == id && a.UserID == userID {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			delete(s.triggers, id)
			return nil
		}
	}
	return core.ErrNotFound
}

// Users

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.User(nil), s.users...), nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, core.Invalid("email", core.ErrDuplicateEmail)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now()
	s.users = append(s.users, u)
	return u, nil
}
