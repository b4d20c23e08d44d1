// Package view maps analytics output and stored records onto the rows the
// templates render. It derives nothing new.
package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Currency formats d as dollars with thousands separators, e.g. -$1,234.56.
func Currency(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		// beyond int64: fall back to the unseparated digits
		return sign(d) + "$" + fixed
	}
	return sign(d) + "$" + humanize.Comma(n) + "." + cents
}

// Percent formats a share with one decimal place, e.g. "62.5%".
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func sign(d decimal.Decimal) string {
	if d.Round(2).IsNegative() {
		return "-"
	}
	return ""
}
