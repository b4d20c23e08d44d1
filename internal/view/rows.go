package view

import (
	"net/url"

	"github.com/shopspring/decimal"

	"wallet/internal/analytics"
	"wallet/internal/core"
)

// BreakdownRow is one rendered line of the category breakdown.
type BreakdownRow struct {
	Category string
	Total    string
	Percent  string
	Share    float64 // 0..100, drives the bar width
}

// BreakdownRows renders entries in the order given.
func BreakdownRows(entries []analytics.Entry) []BreakdownRow {
	rows := make([]BreakdownRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, BreakdownRow{
			Category: e.Category,
			Total:    Currency(e.Total),
			Percent:  Percent(e.Percent),
			Share:    e.Percent,
		})
	}
	return rows
}

// DayRow is one day of the income and expense series.
type DayRow struct {
	Date         string
	Income       string
	Expenses     string
	IncomeShare  float64 // 0..100 of the busiest day
	ExpenseShare float64
}

// DailyRows renders days in the order given. Shares are scaled against the
// largest single inflow or outflow so the bars stay comparable.
func DailyRows(days []analytics.DayTotal) []DayRow {
	peak := decimal.Zero
	for _, d := range days {
		peak = decimal.Max(peak, d.Inflow, d.Outflow)
	}
	rows := make([]DayRow, 0, len(days))
	for _, d := range days {
		rows = append(rows, DayRow{
			Date:         d.Date,
			Income:       Currency(d.Inflow),
			Expenses:     Currency(d.Outflow),
			IncomeShare:  share(d.Inflow, peak),
			ExpenseShare: share(d.Outflow, peak),
		})
	}
	return rows
}

func share(v, peak decimal.Decimal) float64 {
	if !peak.IsPositive() {
		return 0
	}
	f, _ := v.Div(peak).Mul(decimal.NewFromInt(100)).Float64()
	return f
}

// Badge is a category label with its colour token.
type Badge struct {
	Name  string
	Color string
}

// TransactionRow is one rendered line of the transaction table.
type TransactionRow struct {
	ID          string
	Date        string
	Description string
	Category    Badge
	Amount      string
	Outflow     bool
	Account     string
	EditURL     string
	DeleteURL   string
}

const defaultBadgeColor = "gray"

// TransactionRows renders txs in the order given. Outflows carry a minus sign.
func TransactionRows(txs []core.Transaction) []TransactionRow {
	rows := make([]TransactionRow, 0, len(txs))
	for _, t := range txs {
		badge := Badge{Name: core.UncategorizedName, Color: defaultBadgeColor}
		if t.Category != nil {
			badge = Badge{Name: t.Category.Name, Color: t.Category.Color}
			if badge.Color == "" {
				badge.Color = defaultBadgeColor
			}
		}
		id := url.QueryEscape(t.ID)
		rows = append(rows, TransactionRow{
			ID:          t.ID,
			Date:        t.Date,
			Description: t.Description,
			Category:    badge,
			Amount:      Currency(core.Signed(t.Amount, direction(t))),
			Outflow:     t.IsOutflow(),
			Account:     AccountLabel(t.Account),
			EditURL:     "/ui/transactions/form?id=" + id,
			DeleteURL:   "/ui/transactions?id=" + id,
		})
	}
	return rows
}

func direction(t core.Transaction) core.Direction {
	if t.IsOutflow() {
		return core.Debit
	}
	return core.Credit
}

// AccountLabel names an account by type and, when known, its bank.
func AccountLabel(a *core.Account) string {
	if a == nil {
		return ""
	}
	label := a.Type.Label()
	if a.Bank != nil && a.Bank.Name != "" {
		label += " · " + a.Bank.Name
	}
	return label
}

// AccountRow is one rendered line of the accounts list.
type AccountRow struct {
	ID        string
	Label     string
	Balance   string
	Negative  bool
	Branch    string
	EditURL   string
	DeleteURL string
}

func AccountRows(accounts []core.Account) []AccountRow {
	rows := make([]AccountRow, 0, len(accounts))
	for _, a := range accounts {
		row := AccountRow{
			ID:        a.ID,
			Label:     AccountLabel(&a),
			Balance:   Currency(a.Balance),
			Negative:  a.Balance.IsNegative(),
			EditURL:   "/ui/accounts/form?id=" + url.QueryEscape(a.ID),
			DeleteURL: "/ui/accounts?id=" + url.QueryEscape(a.ID),
		}
		if a.Bank != nil {
			row.Branch = a.Bank.Branch
		}
		rows = append(rows, row)
	}
	return rows
}
