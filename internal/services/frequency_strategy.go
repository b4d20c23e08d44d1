// This file holds the per-frequency strategies that turn a recurring
// expense amount into its monthly equivalent.

package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

// MonthlyConverter converts an amount charged once per period into the
// amount it costs per month.
type MonthlyConverter interface {
	Monthly(amount decimal.Decimal) decimal.Decimal
}

// perYear spreads a charge that happens n times a year over 12 months.
type perYear int64

func (n perYear) Monthly(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(n))).Div(decimal.NewFromInt(12))
}

var frequencyStrategies = map[core.Frequency]MonthlyConverter{
	core.Daily:    perYear(365),
	core.Weekly:   perYear(52),
	core.Biweekly: perYear(26),
	core.Monthly:  perYear(12),
	core.Yearly:   perYear(1),
}

// GetMonthlyConverter returns the strategy for a frequency.
func GetMonthlyConverter(f core.Frequency) (MonthlyConverter, error) {
	c, ok := frequencyStrategies[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %q", f)
	}
	return c, nil
}

// MonthlyEquivalent returns the monthly cost of r rounded to cents.
func MonthlyEquivalent(r core.RecurringExpense) (decimal.Decimal, error) {
	c, err := GetMonthlyConverter(r.Frequency)
	if err != nil {
		return decimal.Zero, err
	}
	return c.Monthly(r.Amount).Round(2), nil
}

// MonthlyTotal sums the monthly equivalents of rs, skipping rows with an
// unknown frequency.
func MonthlyTotal(rs []core.RecurringExpense) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rs {
		m, err := MonthlyEquivalent(r)
		if err != nil {
			continue
		}
		total = total.Add(m)
	}
	return total
}
