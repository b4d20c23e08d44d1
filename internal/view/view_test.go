package view

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/analytics"
	"wallet/internal/core"
)

func TestCurrency(t *testing.T) {
	cases := map[string]string{
		"0":          "$0.00",
		"15.99":      "$15.99",
		"-15.99":     "-$15.99",
		"1234.56":    "$1,234.56",
		"1234567.8":  "$1,234,567.80",
		"-0.001":     "$0.00",
		"1000000000": "$1,000,000,000.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, Currency(decimal.RequireFromString(in)), in)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "62.5%", Percent(62.5))
	assert.Equal(t, "100.0%", Percent(100))
	assert.Equal(t, "33.3%", Percent(100.0/3))
	assert.Equal(t, "0.0%", Percent(0))
}

func TestBreakdownRowsPreserveOrder(t *testing.T) {
	rows := BreakdownRows([]analytics.Entry{
		{Category: "Rent", Total: decimal.NewFromInt(1500), Percent: 62.5},
		{Category: "Dining", Total: decimal.NewFromInt(900), Percent: 37.5},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, BreakdownRow{Category: "Rent", Total: "$1,500.00", Percent: "62.5%", Share: 62.5}, rows[0])
	assert.Equal(t, "Dining", rows[1].Category)
}

func TestTransactionRows(t *testing.T) {
	rows := TransactionRows([]core.Transaction{
		{
			ID: "t1", Date: "2024-03-01", Description: "Netflix",
			Amount: decimal.RequireFromString("15.99"), Direction: core.Debit,
			Category: &core.Category{Name: "Subscriptions", Color: "purple"},
			Account:  &core.Account{Type: core.CreditCard, Bank: &core.Bank{Name: "RBC"}},
		},
		{
			ID: "t2", Date: "2024-03-02", Description: "Paycheck",
			Amount: decimal.NewFromInt(2400), Direction: core.Credit,
		},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "-$15.99", rows[0].Amount)
	assert.True(t, rows[0].Outflow)
	assert.Equal(t, Badge{Name: "Subscriptions", Color: "purple"}, rows[0].Category)
	assert.Equal(t, "Credit Card · RBC", rows[0].Account)
	assert.Equal(t, "/ui/transactions/form?id=t1", rows[0].EditURL)

	assert.Equal(t, "$2,400.00", rows[1].Amount)
	assert.False(t, rows[1].Outflow)
	assert.Equal(t, core.UncategorizedName, rows[1].Category.Name)
	assert.Equal(t, "", rows[1].Account)
}

func TestAccountRows(t *testing.T) {
	rows := AccountRows([]core.Account{
		{ID: "a1", Type: core.Chequing, Balance: decimal.RequireFromString("-20.5"), Bank: &core.Bank{Name: "TD", Branch: "King St"}},
		{ID: "a2", Type: core.TFSA, Balance: decimal.NewFromInt(100)},
	})
	assert.Equal(t, "Chequing · TD", rows[0].Label)
	assert.Equal(t, "-$20.50", rows[0].Balance)
	assert.True(t, rows[0].Negative)
	assert.Equal(t, "King St", rows[0].Branch)
	assert.Equal(t, "TFSA", rows[1].Label)
}

func TestEditorHappyPath(t *testing.T) {
	var e Editor[core.Account]
	assert.Equal(t, Idle, e.State())

	acct := &core.Account{ID: "a1"}
	require.NoError(t, e.Open(acct))
	assert.Equal(t, Editing, e.State())
	assert.False(t, e.IsNew())

	require.NoError(t, e.Submit())
	assert.Equal(t, Submitting, e.State())
	require.NoError(t, e.Succeed())
	assert.Equal(t, Idle, e.State())
	assert.Nil(t, e.Target())
}

func TestEditorFailureReturnsToEditing(t *testing.T) {
	var e Editor[core.Account]
	require.NoError(t, e.Open(nil))
	assert.True(t, e.IsNew())
	require.NoError(t, e.Submit())

	boom := errors.New("balance: required")
	require.NoError(t, e.Fail(boom))
	assert.Equal(t, Editing, e.State())
	assert.Equal(t, boom, e.Err())

	require.NoError(t, e.Submit())
	require.NoError(t, e.Succeed())
	assert.NoError(t, e.Err())
}

func TestEditorIllegalTransitions(t *testing.T) {
	var e Editor[core.User]
	assert.ErrorIs(t, e.Submit(), ErrInvalidTransition)
	assert.ErrorIs(t, e.Succeed(), ErrInvalidTransition)
	assert.ErrorIs(t, e.Fail(errors.New("x")), ErrInvalidTransition)

	require.NoError(t, e.Open(nil))
	assert.ErrorIs(t, e.Open(nil), ErrInvalidTransition)
	_, err := e.ConfirmDelete(true)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	e.Cancel()
	ok, err := e.ConfirmDelete(false)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = e.ConfirmDelete(true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Idle, e.State())
}

func TestDailyRows(t *testing.T) {
	days := []analytics.DayTotal{
		{Date: "2024-03-05", Inflow: decimal.Zero, Outflow: decimal.RequireFromString("50")},
		{Date: "2024-03-15", Inflow: decimal.RequireFromString("200"), Outflow: decimal.Zero},
	}
	rows := DailyRows(days)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-05", rows[0].Date)
	assert.Equal(t, "$50.00", rows[0].Expenses)
	assert.Equal(t, "$0.00", rows[0].Income)
	assert.InDelta(t, 25.0, rows[0].ExpenseShare, 1e-9)
	assert.InDelta(t, 100.0, rows[1].IncomeShare, 1e-9)

	assert.Empty(t, DailyRows(nil))
}
