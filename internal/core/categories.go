package core

// DefaultCategories is the seeded category set. The SQL migrations insert
// the same rows.
func DefaultCategories() []Category {
	return []Category{
		{ID: "groceries", Name: "Groceries", Color: "green"},
		{ID: "dining", Name: "Dining", Color: "orange"},
		{ID: "subscriptions", Name: "Subscriptions", Color: "purple"},
		{ID: "transport", Name: "Transport", Color: "blue"},
		{ID: "utilities", Name: "Utilities", Color: "yellow"},
		{ID: "shopping", Name: "Shopping", Color: "pink"},
		{ID: "entertainment", Name: "Entertainment", Color: "red"},
		{ID: "health", Name: "Health", Color: "teal"},
		{ID: "income", Name: "Income", Color: "emerald"},
		{ID: "other", Name: "Other", Color: "gray"},
	}
}
