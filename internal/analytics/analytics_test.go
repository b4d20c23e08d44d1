package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
)

var (
	ref           = time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)
	groceries     = &core.Category{ID: "groceries", Name: "Groceries"}
	subscriptions = &core.Category{ID: "subscriptions", Name: "Subscriptions"}
	income        = &core.Category{ID: "income", Name: "Income"}
	dining        = &core.Category{ID: "dining", Name: "Dining"}
)

func tx(date, desc, amount string, dir core.Direction, cat *core.Category) core.Transaction {
	return core.Transaction{
		ID:          desc + date,
		Date:        date,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Direction:   dir,
		Category:    cat,
	}
}

func TestParseWindow(t *testing.T) {
	for _, in := range []string{"7d", "30d", "90d", "30D"} {
		_, err := ParseWindow(in)
		assert.NoError(t, err, in)
	}
	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, w)

	_, err = ParseWindow("1y")
	assert.Error(t, err)

	assert.Equal(t, 7, Window7d.Days())
	assert.Equal(t, 30, Window30d.Days())
	assert.Equal(t, 90, Window90d.Days())
}

func TestFilterWindowBoundsInclusive(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-31", "on reference", "1", core.Debit, nil),
		tx("2024-03-24", "first day of 7d", "1", core.Debit, nil),
		tx("2024-03-23", "one before 7d", "1", core.Debit, nil),
		tx("2024-04-01", "future", "1", core.Debit, nil),
		tx("2024-03-31T23:59:00-07:00", "timestamp", "1", core.Debit, nil),
	}
	got := FilterWindow(txs, ref, Window7d)
	var names []string
	for _, t := range got {
		names = append(names, t.Description)
	}
	assert.Equal(t, []string{"on reference", "first day of 7d", "timestamp"}, names)
}

func TestFilterWindowDropsMalformedDates(t *testing.T) {
	txs := []core.Transaction{
		tx("garbage", "bad", "100", core.Debit, groceries),
		tx("", "empty", "100", core.Debit, groceries),
		tx("2024-03-30", "good", "5", core.Debit, groceries),
	}
	r := Build(txs, ref, Window30d, Query{})
	require.Len(t, r.Windowed, 1)
	assert.Equal(t, "5", r.Total.String())
}

func TestFilterWindowMonotonic(t *testing.T) {
	var txs []core.Transaction
	for i := 0; i < 120; i += 3 {
		txs = append(txs, tx(ref.AddDate(0, 0, -i).Format(core.DateLayout), "t", "1", core.Debit, nil))
	}
	n7 := len(FilterWindow(txs, ref, Window7d))
	n30 := len(FilterWindow(txs, ref, Window30d))
	n90 := len(FilterWindow(txs, ref, Window90d))
	assert.LessOrEqual(t, n7, n30)
	assert.LessOrEqual(t, n30, n90)
	assert.Equal(t, 3, n7)
	assert.Equal(t, 31, n90)
}

func TestNetflixAndPaycheck(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-31", "Netflix", "-15.99", "", subscriptions),
		tx("2024-03-31", "Paycheck", "2400", core.Credit, income),
	}
	r := Build(txs, ref, Window30d, Query{Category: AllCategories})
	require.Len(t, r.Breakdown, 1)
	assert.Equal(t, "Subscriptions", r.Breakdown[0].Category)
	assert.Equal(t, "15.99", r.Breakdown[0].Total.String())
	assert.InDelta(t, 100.0, r.Breakdown[0].Percent, 1e-9)
	assert.Equal(t, "15.99", r.Total.String())
	assert.Len(t, r.Transactions, 2)
}

func TestSameCategoryAggregates(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-20", "market", "20", core.Debit, groceries),
		tx("2024-03-21", "market", "30", core.Debit, groceries),
	}
	b := NewBreakdown(CategoryTotals(FilterWindow(txs, ref, Window30d)))
	require.Len(t, b.Entries, 1)
	assert.Equal(t, "50", b.Entries[0].Total.String())
	assert.InDelta(t, 100.0, b.Entries[0].Percent, 1e-9)
}

func TestBreakdownOrderingAndShares(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-20", "a", "10", core.Debit, dining),
		tx("2024-03-20", "b", "10", core.Debit, groceries),
		tx("2024-03-20", "c", "-30", "", subscriptions),
		tx("2024-03-20", "d", "7.5", core.Debit, nil),
		tx("2024-03-20", "salary", "1000", core.Credit, income),
	}
	b := NewBreakdown(CategoryTotals(txs))

	var order []string
	sumPct := 0.0
	sumTotals := decimal.Zero
	for _, e := range b.Entries {
		order = append(order, e.Category)
		sumPct += e.Percent
		sumTotals = sumTotals.Add(e.Total)
	}
	assert.Equal(t, []string{"Subscriptions", "Dining", "Groceries", core.UncategorizedName}, order)
	assert.InDelta(t, 100.0, sumPct, 1e-6)
	assert.True(t, sumTotals.Equal(b.Total))
	assert.Equal(t, "57.5", b.Total.String())
}

func TestBreakdownEmpty(t *testing.T) {
	b := NewBreakdown(CategoryTotals([]core.Transaction{
		tx("2024-03-20", "salary", "1000", core.Credit, income),
	}))
	assert.Empty(t, b.Entries)
	assert.True(t, b.Total.IsZero())

	b = NewBreakdown(Totals{"Dining": decimal.Zero})
	require.Len(t, b.Entries, 1)
	assert.Equal(t, 0.0, b.Entries[0].Percent)
	assert.False(t, math.IsNaN(b.Entries[0].Percent))
}

func TestSearch(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-20", "Whole Foods", "20", core.Debit, groceries),
		tx("2024-03-21", "Netflix", "15.99", core.Debit, subscriptions),
		tx("2024-03-22", "Sushi", "40", core.Debit, dining),
		tx("2024-03-23", "Cash", "5", core.Debit, nil),
	}
	cases := []struct {
		name string
		q    Query
		want []string
	}{
		{"empty term passes everything", Query{}, []string{"Whole Foods", "Netflix", "Sushi", "Cash"}},
		{"all sentinel is a no-op", Query{Category: AllCategories}, []string{"Whole Foods", "Netflix", "Sushi", "Cash"}},
		{"description substring ignores case", Query{Term: "NETF"}, []string{"Netflix"}},
		{"category name substring", Query{Term: "grocer"}, []string{"Whole Foods"}},
		{"no match", Query{Term: "rent"}, nil},
		{"exact category", Query{Category: "Dining"}, []string{"Sushi"}},
		{"category is case sensitive", Query{Category: "dining"}, nil},
		{"both predicates", Query{Term: "o", Category: "Groceries"}, []string{"Whole Foods"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, r := range Search(txs, tc.q) {
				got = append(got, r.Description)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTotalsIgnoreSearch(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-20", "Whole Foods", "20", core.Debit, groceries),
		tx("2024-03-21", "Sushi", "40", core.Debit, dining),
	}
	r := Build(txs, ref, Window30d, Query{Term: "sushi"})
	assert.Len(t, r.Transactions, 1)
	assert.Len(t, r.Breakdown, 2)
	assert.Equal(t, "60", r.Total.String())
	assert.Equal(t, "2024-03-31", r.Reference)
}

func TestSearchUsers(t *testing.T) {
	users := []core.User{
		{ID: "a1b2", Name: "Ada Lovelace", Email: "ada@example.com"},
		{ID: "c3d4", Name: "Grace Hopper", Email: "grace@navy.mil"},
	}
	assert.Len(t, SearchUsers(users, ""), 2)
	assert.Equal(t, "c3d4", SearchUsers(users, "NAVY")[0].ID)
	assert.Equal(t, "a1b2", SearchUsers(users, "lovelace")[0].ID)
	assert.Equal(t, "c3d4", SearchUsers(users, "C3")[0].ID)
	assert.Empty(t, SearchUsers(users, "turing"))
}

func TestDaily(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-30", "coffee", "4.50", core.Debit, dining),
		tx("2024-03-05", "market", "60", core.Debit, groceries),
		tx("2024-03-30T18:00:00Z", "refund", "10", core.Credit, nil),
		tx("2024-03-15", "paycheck", "1000", core.Credit, income),
		tx("2024-03-05", "bakery", "-5.50", "", groceries),
		tx("2024-01-01", "too old", "99", core.Debit, groceries),
		tx("someday", "broken", "1", core.Debit, nil),
	}
	r := Build(txs, ref, Window30d, Query{Category: AllCategories})

	require.Len(t, r.Daily, 3)
	assert.Equal(t, []string{"2024-03-05", "2024-03-15", "2024-03-30"},
		[]string{r.Daily[0].Date, r.Daily[1].Date, r.Daily[2].Date})
	assert.Equal(t, "65.5", r.Daily[0].Outflow.String())
	assert.True(t, r.Daily[0].Inflow.IsZero())
	assert.Equal(t, "1000", r.Daily[1].Inflow.String())
	assert.Equal(t, "4.5", r.Daily[2].Outflow.String())
	assert.Equal(t, "10", r.Daily[2].Inflow.String())

	outflow := decimal.Zero
	for _, d := range r.Daily {
		outflow = outflow.Add(d.Outflow)
	}
	assert.True(t, r.Total.Equal(outflow), "daily outflow %s vs total %s", outflow, r.Total)
}

func TestDailyEmpty(t *testing.T) {
	assert.Empty(t, Daily(nil))
}
