package analytics

import (
	"strings"

	"wallet/internal/core"
)

// AllCategories is the category filter value that matches every row.
const AllCategories = "all"

// Query narrows the table view. Both predicates must pass.
type Query struct {
	Term     string
	Category string
}

func (q Query) matches(t core.Transaction) bool {
	if q.Category != "" && q.Category != AllCategories && t.CategoryName() != q.Category {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(q.Term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Description), term) ||
		strings.Contains(strings.ToLower(t.CategoryName()), term)
}

// Search returns the rows of txs matching q in their original order.
func Search(txs []core.Transaction, q Query) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if q.matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// SearchUsers matches term case-insensitively against name, email or id.
func SearchUsers(users []core.User, term string) []core.User {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return users
	}
	out := make([]core.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), term) ||
			strings.Contains(strings.ToLower(u.Email), term) ||
			strings.Contains(strings.ToLower(u.ID), term) {
			out = append(out, u)
		}
	}
	return out
}
