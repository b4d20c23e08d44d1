package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// Totals maps a category name to its summed outflow magnitude.
type Totals map[string]decimal.Decimal

// CategoryTotals sums the absolute amount of every outflow in txs by
// category name. Inflows are ignored.
func CategoryTotals(txs []core.Transaction) Totals {
	totals := make(Totals)
	for _, t := range txs {
		if !t.IsOutflow() {
			continue
		}
		name := t.CategoryName()
		if name == "" {
			name = core.UncategorizedName
		}
		totals[name] = totals[name].Add(t.Amount.Abs())
	}
	return totals
}

// Sum is the overall outflow across all categories.
func (t Totals) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range t {
		sum = sum.Add(v)
	}
	return sum
}

// Entry is one row of a breakdown.
type Entry struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Percent  float64         `json:"percentage"`
}

// Breakdown is the sorted category share of outflows.
type Breakdown struct {
	Entries []Entry
	Total   decimal.Decimal
}

// NewBreakdown orders totals by amount descending, then by name, and
// attaches each share of the overall total. With no outflows every share is 0.
func NewBreakdown(totals Totals) Breakdown {
	overall := totals.Sum()
	entries := make([]Entry, 0, len(totals))
	for name, total := range totals {
		e := Entry{Category: name, Total: total}
		if overall.IsPositive() {
			e.Percent = total.Div(overall).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].Total.Cmp(entries[j].Total); c != 0 {
			return c > 0
		}
		return entries[i].Category < entries[j].Category
	})
	return Breakdown{Entries: entries, Total: overall}
}
