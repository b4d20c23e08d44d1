package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// Report is everything the transactions screen shows for one request.
// The breakdown always covers the whole window; Transactions is the searched
// subset of that window.
type Report struct {
	Window       Window             `json:"window"`
	Reference    string             `json:"reference"`
	Total        decimal.Decimal    `json:"total"`
	Breakdown    []Entry            `json:"breakdown"`
	Daily        []DayTotal         `json:"daily"`
	Transactions []core.Transaction `json:"transactions"`
	Windowed     []core.Transaction `json:"-"`
}

// Build runs the window filter, the category aggregation, the daily series
// and the search.
func Build(txs []core.Transaction, ref time.Time, w Window, q Query) Report {
	windowed := FilterWindow(txs, ref, w)
	b := NewBreakdown(CategoryTotals(windowed))
	return Report{
		Window:       w,
		Reference:    core.CalendarDay(ref).Format(core.DateLayout),
		Total:        b.Total,
		Breakdown:    b.Entries,
		Daily:        Daily(windowed),
		Transactions: Search(windowed, q),
		Windowed:     windowed,
	}
}
