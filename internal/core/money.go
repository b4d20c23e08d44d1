// Package core provides the wallet domain types and the amount and date
// rules shared by every layer.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string to an amount rounded to
// cents. Both dot (12.34) and comma (12,34) separators are accepted and the
// third decimal place rounds half away from zero. The sign is preserved.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// NormalizeAmount settles the sign convention at the storage boundary.
// An explicit direction wins; without one a negative amount is an outflow
// and anything else an inflow. The returned magnitude is never negative.
func NormalizeAmount(amount decimal.Decimal, dir Direction) (decimal.Decimal, Direction, error) {
	switch dir {
	case Credit, Debit:
	case "":
		if amount.IsNegative() {
			dir = Debit
		} else {
			dir = Credit
		}
	default:
		return decimal.Zero, "", ErrInvalidDirection
	}
	return amount.Abs().Round(2), dir, nil
}

// Signed returns the amount with outflows negated.
func Signed(amount decimal.Decimal, dir Direction) decimal.Decimal {
	if dir == Debit {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}
