// Package analytics derives the windowed transaction view, the per-category
// outflow breakdown and the searched table rows from a raw transaction list.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"wallet/internal/core"
)

// Window is the trailing span of days a view is scoped to.
type Window string

const (
	Window7d  Window = "7d"
	Window30d Window = "30d"
	Window90d Window = "90d"

	DefaultWindow = Window30d
)

// Windows lists the selectable windows in display order.
func Windows() []Window {
	return []Window{Window7d, Window30d, Window90d}
}

// ParseWindow accepts 7d, 30d or 90d. An empty string selects DefaultWindow.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return DefaultWindow, nil
	case Window7d, Window30d, Window90d:
		return w, nil
	default:
		return "", fmt.Errorf("unknown range %q: want 7d, 30d or 90d", s)
	}
}

// Days returns the window length in days.
func (w Window) Days() int {
	switch w {
	case Window7d:
		return 7
	case Window90d:
		return 90
	default:
		return 30
	}
}

// Bounds returns the first and last calendar day covered by the window
// ending on ref. Both ends are inclusive.
func (w Window) Bounds(ref time.Time) (time.Time, time.Time) {
	end := core.CalendarDay(ref)
	return end.AddDate(0, 0, -w.Days()), end
}

// FilterWindow keeps every transaction dated within the window ending on ref,
// preserving input order. Rows whose date cannot be parsed are dropped.
func FilterWindow(txs []core.Transaction, ref time.Time, w Window) []core.Transaction {
	start, end := w.Bounds(ref)
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		d, err := core.ParseDate(t.Date)
		if err != nil {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}
