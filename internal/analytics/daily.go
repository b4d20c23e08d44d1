package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// DayTotal is the money that moved on one calendar day.
type DayTotal struct {
	Date    string          `json:"date"`
	Inflow  decimal.Decimal `json:"income"`
	Outflow decimal.Decimal `json:"expenses"`
}

// Daily buckets txs by calendar date, oldest day first. Only days with at
// least one transaction appear. Rows whose date cannot be parsed are skipped.
func Daily(txs []core.Transaction) []DayTotal {
	byDay := make(map[string]*DayTotal)
	for _, t := range txs {
		d, err := core.ParseDate(t.Date)
		if err != nil {
			continue
		}
		key := d.Format(core.DateLayout)
		day, ok := byDay[key]
		if !ok {
			day = &DayTotal{Date: key, Inflow: decimal.Zero, Outflow: decimal.Zero}
			byDay[key] = day
		}
		if t.IsOutflow() {
			day.Outflow = day.Outflow.Add(t.Amount.Abs())
		} else {
			day.Inflow = day.Inflow.Add(t.Amount.Abs())
		}
	}

	out := make([]DayTotal, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
