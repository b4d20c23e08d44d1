// Package storagetest holds the behaviour every ports.Store implementation
// must share. Implementations call Run from their own tests.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
	"wallet/internal/ports"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s got %s", want, got}, msgAndArgs...)...)
}

// Factory returns an empty store. A nil now keeps the store's own clock.
type Factory func(t *testing.T, now func() time.Time) ports.Store

// Run exercises newStore against the data access contract.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s ports.Store)
	}{
		{"categories are seeded", testCategories},
		{"account round trip with bank", testAccountRoundTrip},
		{"account update replaces bank", testAccountUpdate},
		{"account ownership", testAccountOwnership},
		{"transaction joins and normalisation", testTransactionJoins},
		{"transaction ownership", testTransactionOwnership},
		{"transactions newest first", testTransactionOrder},
		{"deleting an account detaches transactions", testDeleteAccountDetaches},
		{"alert triggers are atomic", testAlertTriggers},
		{"savings goal patch", testSavingsGoalPatch},
		{"investments round trip", testInvestments},
		{"users round trip", testUsers},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t, nil))
		})
	}

	clocked := []struct {
		name string
		fn   func(t *testing.T, s ports.Store, clock *Clock)
	}{
		{"lists keep sub-second creation order", testSubSecondOrder},
		{"same-day transactions newest first", testTransactionTieBreak},
	}
	for _, tc := range clocked {
		t.Run(tc.name, func(t *testing.T) {
			clock := NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
			tc.fn(t, newStore(t, clock.Now), clock)
		})
	}
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock { return &Clock{now: start} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func testSubSecondOrder(t *testing.T, s ports.Store, clock *Clock) {
	ctx := context.Background()
	base := clock.Now()
	// Variable-width fractions would sort these three in reverse.
	offsets := []time.Duration{0, 500 * time.Millisecond, 520 * time.Millisecond}

	var accounts, goals, investments, recurring, alerts []string
	for _, off := range offsets {
		clock.Set(base.Add(off))
		a, err := s.CreateAccount(ctx, core.Account{UserID: alice, Type: core.Saving, Balance: dec("1")})
		require.NoError(t, err)
		accounts = append(accounts, a.ID)

		g, err := s.CreateSavingsGoal(ctx, core.SavingsGoal{UserID: alice, Name: "Goal", TargetAmount: dec("10"), Status: core.GoalActive})
		require.NoError(t, err)
		goals = append(goals, g.ID)

		inv, err := s.CreateInvestment(ctx, core.Investment{UserID: alice, Amount: dec("10"), PurchaseDate: "2024-01-01"})
		require.NoError(t, err)
		investments = append(investments, inv.ID)

		re, err := s.CreateRecurringExpense(ctx, core.RecurringExpense{UserID: alice, Frequency: core.Monthly, Amount: dec("5")})
		require.NoError(t, err)
		recurring = append(recurring, re.ID)

		al, err := s.CreateAlert(ctx, core.Alert{UserID: alice, ThresholdAmount: dec("100"), AlertType: core.SpendingThreshold}, nil)
		require.NoError(t, err)
		alerts = append(alerts, al.ID)
	}

	accountList, err := s.ListAccounts(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, accounts, idsOf(accountList, func(a core.Account) string { return a.ID }))

	goalList, err := s.ListSavingsGoals(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, goals, idsOf(goalList, func(g core.SavingsGoal) string { return g.ID }))

	invList, err := s.ListInvestments(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, investments, idsOf(invList, func(i core.Investment) string { return i.ID }))

	recList, err := s.ListRecurringExpenses(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, recurring, idsOf(recList, func(r core.RecurringExpense) string { return r.ID }))

	alertList, err := s.ListAlerts(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, alerts, idsOf(alertList, func(a core.Alert) string { return a.ID }))

	require.Len(t, accountList, 3)
	assert.True(t, accountList[1].CreatedAt.Equal(base.Add(500*time.Millisecond)), accountList[1].CreatedAt)
}

func testTransactionTieBreak(t *testing.T, s ports.Store, clock *Clock) {
	ctx := context.Background()
	base := clock.Now()
	offsets := []time.Duration{0, 500 * time.Millisecond, 520 * time.Millisecond}
	for i, desc := range []string{"first", "second", "third"} {
		clock.Set(base.Add(offsets[i]))
		_, err := s.CreateTransaction(ctx, core.Transaction{UserID: alice, Date: "2024-03-01", Description: desc, Amount: dec("1")})
		require.NoError(t, err)
	}
	list, err := s.ListTransactions(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"},
		idsOf(list, func(tx core.Transaction) string { return tx.Description }))
}

func idsOf[T any](xs []T, key func(T) string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		out = append(out, key(x))
	}
	return out
}

func testCategories(t *testing.T, s ports.Store) {
	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, len(core.DefaultCategories()))
	names := map[string]bool{}
	for _, c := range cats {
		names[c.Name] = true
	}
	assert.True(t, names["Subscriptions"])
	assert.True(t, names["Groceries"])
}

func testAccountRoundTrip(t *testing.T, s ports.Store) {
	ctx := context.Background()
	created, err := s.CreateAccount(ctx, core.Account{
		UserID:  alice,
		Type:    core.Chequing,
		Balance: dec("1250.75"),
		Bank:    &core.Bank{Name: "RBC", Branch: "Main", Address: "1 King St"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	require.NotNil(t, created.Bank)

	list, err := s.ListAccounts(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, alice, got.UserID)
	assert.Equal(t, core.Chequing, got.Type)
	assertAmount(t, "1250.75", got.Balance)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.Bank)
	assert.Equal(t, "RBC", got.Bank.Name)
	assert.Equal(t, "Main", got.Bank.Branch)
	assert.Equal(t, "1 King St", got.Bank.Address)
	assert.Equal(t, created.ID, got.Bank.AccountID)

	_, err = s.CreateAccount(ctx, core.Account{UserID: alice, Type: "PIGGY"})
	assert.True(t, core.IsValidation(err))
}

func testAccountUpdate(t *testing.T, s ports.Store) {
	ctx := context.Background()
	a, err := s.CreateAccount(ctx, core.Account{UserID: alice, Type: core.Saving, Balance: dec("10")})
	require.NoError(t, err)
	assert.Nil(t, a.Bank)

	a.Type = core.TFSA
	a.Balance = dec("-3.5")
	a.Bank = &core.Bank{Name: "TD"}
	updated, err := s.UpdateAccount(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, core.TFSA, updated.Type)
	assertAmount(t, "-3.5", updated.Balance)
	require.NotNil(t, updated.Bank)
	assert.Equal(t, "TD", updated.Bank.Name)

	updated.Bank = &core.Bank{Name: "BMO", Branch: "Queen"}
	again, err := s.UpdateAccount(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, "BMO", again.Bank.Name)

	got, err := s.GetAccount(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Queen", got.Bank.Branch)
}

func testAccountOwnership(t *testing.T, s ports.Store) {
	ctx := context.Background()
	a, err := s.CreateAccount(ctx, core.Account{UserID: alice, Type: core.Chequing, Balance: dec("5")})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteAccount(ctx, bob, a.ID), core.ErrNotFound)
	_, err = s.UpdateAccount(ctx, core.Account{ID: a.ID, UserID: bob, Type: core.Saving})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.GetAccount(ctx, bob, a.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := s.ListAccounts(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1, "the row must survive a foreign delete")
	assert.Equal(t, core.Chequing, list[0].Type)

	others, err := s.ListAccounts(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, others)

	require.NoError(t, s.DeleteAccount(ctx, alice, a.ID))
	assert.ErrorIs(t, s.DeleteAccount(ctx, alice, a.ID), core.ErrNotFound)
}

func testTransactionJoins(t *testing.T, s ports.Store) {
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, core.Account{UserID: alice, Type: core.CreditCard, Bank: &core.Bank{Name: "Amex"}})
	require.NoError(t, err)

	netflix, err := s.CreateTransaction(ctx, core.Transaction{
		UserID: alice, AccountID: acct.ID, CategoryID: "subscriptions",
		Date: "2024-03-01", Description: "Netflix", Amount: dec("-15.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.Debit, netflix.Direction)
	assertAmount(t, "15.99", netflix.Amount)

	_, err = s.CreateTransaction(ctx, core.Transaction{
		UserID: alice, Date: "2024-03-02T09:30:00Z", Description: "Cash", Amount: dec("20"), Direction: core.Credit,
	})
	require.NoError(t, err)

	list, err := s.ListTransactions(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)

	cash, nf := list[0], list[1]
	assert.Equal(t, "2024-03-02", cash.Date)
	assert.Nil(t, cash.Category)
	assert.Nil(t, cash.Account)

	assert.Equal(t, netflix.ID, nf.ID)
	assert.Equal(t, "2024-03-01", nf.Date)
	assert.Equal(t, "Netflix", nf.Description)
	assert.Equal(t, core.Debit, nf.Direction)
	assertAmount(t, "15.99", nf.Amount)
	require.NotNil(t, nf.Category)
	assert.Equal(t, "Subscriptions", nf.Category.Name)
	require.NotNil(t, nf.Account)
	assert.Equal(t, core.CreditCard, nf.Account.Type)
	require.NotNil(t, nf.Account.Bank)
	assert.Equal(t, "Amex", nf.Account.Bank.Name)

	_, err = s.CreateTransaction(ctx, core.Transaction{
		UserID: alice, CategoryID: "no-such-category", Date: "2024-03-01", Description: "x", Amount: dec("1"),
	})
	assert.True(t, core.IsValidation(err))

	_, err = s.CreateTransaction(ctx, core.Transaction{UserID: alice, Date: "yesterday", Description: "x", Amount: dec("1")})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func testTransactionOwnership(t *testing.T, s ports.Store) {
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, core.Account{UserID: alice, Type: core.Chequing})
	require.NoError(t, err)

	_, err = s.CreateTransaction(ctx, core.Transaction{
		UserID: bob, AccountID: acct.ID, Date: "2024-03-01", Description: "sneaky", Amount: dec("1"),
	})
	assert.True(t, core.IsValidation(err), "bob cannot book against alice's account")

	tx, err := s.CreateTransaction(ctx, core.Transaction{UserID: alice, Date: "2024-03-01", Description: "Rent", Amount: dec("-900")})
	require.NoError(t, err)

	tx.UserID = bob
	_, err = s.UpdateTransaction(ctx, tx)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, bob, tx.ID), core.ErrNotFound)

	tx.UserID = alice
	tx.Description = "Rent (March)"
	tx.Amount = dec("950")
	tx.Direction = core.Debit
	updated, err := s.UpdateTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "Rent (March)", updated.Description)
	assertAmount(t, "950", updated.Amount)

	require.NoError(t, s.DeleteTransaction(ctx, alice, tx.ID))
	list, err := s.ListTransactions(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testTransactionOrder(t *testing.T, s ports.Store) {
	ctx := context.Background()
	for _, d := range []string{"2024-01-05", "2024-03-01", "2024-02-10"} {
		_, err := s.CreateTransaction(ctx, core.Transaction{UserID: alice, Date: d, Description: d, Amount: dec("1")})
		require.NoError(t, err)
	}
	list, err := s.ListTransactions(ctx, alice)
	require.NoError(t, err)
	var dates []string
	for _, tx := range list {
		dates = append(dates, tx.Date)
	}
	assert.Equal(t, []string{"2024-03-01", "2024-02-10", "2024-01-05"}, dates)
}

func testDeleteAccountDetaches(t *testing.T, s ports.Store) {
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, core.Account{UserID: alice, Type: core.Chequing, Bank: &core.Bank{Name: "RBC"}})
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, core.Transaction{UserID: alice, AccountID: acct.ID, Date: "2024-03-01", Description: "Coffee", Amount: dec("-4")})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, alice, acct.ID))

	list, err := s.ListTransactions(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Account)
	assert.Empty(t, list[0].AccountID)
}

func testAlertTriggers(t *testing.T, s ports.Store) {
	ctx := context.Background()
	gym, err := s.CreateRecurringExpense(ctx, core.RecurringExpense{UserID: alice, CategoryID: "health", Frequency: core.Monthly, Amount: dec("45")})
	require.NoError(t, err)
	require.NotNil(t, gym.Category)
	assert.Equal(t, "Health", gym.Category.Name)
	bobs, err := s.CreateRecurringExpense(ctx, core.RecurringExpense{UserID: bob, Frequency: core.Weekly, Amount: dec("10")})
	require.NoError(t, err)

	_, err = s.CreateAlert(ctx, core.Alert{UserID: alice, ThresholdAmount: dec("100"), AlertType: core.RecurringTotal},
		[]string{gym.ID, bobs.ID})
	assert.True(t, core.IsValidation(err))

	alerts, err := s.ListAlerts(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, alerts, "a failed trigger write must not leave the alert behind")

	created, err := s.CreateAlert(ctx, core.Alert{UserID: alice, ThresholdAmount: dec("100"), AlertType: core.RecurringTotal},
		[]string{gym.ID, gym.ID})
	require.NoError(t, err)
	require.Len(t, created.Triggers, 1, "repeated expense ids link once")

	alerts, err = s.ListAlerts(ctx, alice)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, created.ID, alerts[0].ID)
	assertAmount(t, "100", alerts[0].ThresholdAmount)
	require.Len(t, alerts[0].Triggers, 1)
	assert.Equal(t, gym.ID, alerts[0].Triggers[0].ID)
	assertAmount(t, "45", alerts[0].Triggers[0].Amount)

	require.NoError(t, s.DeleteRecurringExpense(ctx, alice, gym.ID))
	alerts, err = s.ListAlerts(ctx, alice)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Empty(t, alerts[0].Triggers)

	assert.ErrorIs(t, s.DeleteAlert(ctx, bob, created.ID), core.ErrNotFound)
	require.NoError(t, s.DeleteAlert(ctx, alice, created.ID))
	assert.ErrorIs(t, s.DeleteRecurringExpense(ctx, alice, bobs.ID), core.ErrNotFound)
}

func testSavingsGoalPatch(t *testing.T, s ports.Store) {
	ctx := context.Background()
	g, err := s.CreateSavingsGoal(ctx, core.SavingsGoal{UserID: alice, Name: "Japan", TargetAmount: dec("5000"), Deadline: "2025-06-01"})
	require.NoError(t, err)
	assert.Equal(t, core.GoalActive, g.Status)

	amount := dec("1200.50")
	status := core.GoalPaused
	updated, err := s.UpdateSavingsGoal(ctx, alice, g.ID, ports.GoalPatch{CurrentAmount: &amount, Status: &status})
	require.NoError(t, err)
	assertAmount(t, "1200.5", updated.CurrentAmount)
	assert.Equal(t, core.GoalPaused, updated.Status)

	_, err = s.UpdateSavingsGoal(ctx, bob, g.ID, ports.GoalPatch{Status: &status})
	assert.ErrorIs(t, err, core.ErrNotFound)

	bad := core.GoalStatus("abandoned")
	_, err = s.UpdateSavingsGoal(ctx, alice, g.ID, ports.GoalPatch{Status: &bad})
	assert.True(t, core.IsValidation(err))

	goals, err := s.ListSavingsGoals(ctx, alice)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Japan", goals[0].Name)
	assert.Equal(t, "2025-06-01", goals[0].Deadline)
	assertAmount(t, "5000", goals[0].TargetAmount)
	assertAmount(t, "1200.5", goals[0].CurrentAmount)
	assert.Equal(t, core.GoalPaused, goals[0].Status)
}

func testInvestments(t *testing.T, s ports.Store) {
	ctx := context.Background()
	created, err := s.CreateInvestment(ctx, core.Investment{UserID: alice, Amount: dec("2500"), PurchaseDate: "2024-01-15", ExpectedReturn: dec("6.5")})
	require.NoError(t, err)

	list, err := s.ListInvestments(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "2024-01-15", list[0].PurchaseDate)
	assertAmount(t, "2500", list[0].Amount)
	assertAmount(t, "6.5", list[0].ExpectedReturn)
	assert.True(t, created.CreatedAt.Equal(list[0].CreatedAt))

	none, err := s.ListInvestments(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testUsers(t *testing.T, s ports.Store) {
	ctx := context.Background()
	u, err := s.CreateUser(ctx, core.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "h", PhoneNumber: "555"})
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, u.Role)

	_, err = s.CreateUser(ctx, core.User{Name: "Root", Email: "root@example.com", Role: core.RoleAdmin})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, core.User{Name: "Ada Again", Email: "ada@example.com"})
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)
	assert.True(t, core.IsValidation(err))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, u.ID, users[0].ID)
	assert.Equal(t, "555", users[0].PhoneNumber)
	assert.Equal(t, core.RoleAdmin, users[1].Role)
}
