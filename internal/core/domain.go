package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Credit Direction = "CREDIT"
	Debit  Direction = "DEBIT"
)

const (
	Chequing   AccountType = "CHEQUING"
	Saving     AccountType = "SAVING"
	CreditCard AccountType = "CREDIT_CARD"
	TFSA       AccountType = "TFSA"
	FHSA       AccountType = "FHSA"
	RRSP       AccountType = "RRSP"
)

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
	Yearly   Frequency = "yearly"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
)

const (
	SpendingThreshold AlertType = "spending_threshold"
	RecurringTotal    AlertType = "recurring_total"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UncategorizedName labels outflows that carry no category.
const UncategorizedName = "Uncategorized"

type (
	Direction   string
	AccountType string
	Frequency   string
	GoalStatus  string
	AlertType   string
	Role        string

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		PhoneNumber  string    `json:"phone_number,omitempty"`
		Role         Role      `json:"role"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	Bank struct {
		ID        string `json:"id"`
		AccountID string `json:"financial_account_id"`
		Name      string `json:"name"`
		Branch    string `json:"branch,omitempty"`
		Address   string `json:"address,omitempty"`
	}

	Account struct {
		ID        string          `json:"id"`
		UserID    string          `json:"user_id"`
		Type      AccountType     `json:"type"`
		Balance   decimal.Decimal `json:"balance"`
		CreatedAt time.Time       `json:"created_at"`
		UpdatedAt time.Time       `json:"updated_at"`
		Bank      *Bank           `json:"bank,omitempty"`
	}

	// Transaction is a single ledger entry. Amount is always a non-negative
	// magnitude; Direction says which way the money moved.
	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		AccountID   string          `json:"account_id,omitempty"`
		CategoryID  string          `json:"category_id,omitempty"`
		Date        string          `json:"transaction_date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Direction   Direction       `json:"direction"`
		Category    *Category       `json:"category,omitempty"`
		Account     *Account        `json:"account,omitempty"`
	}

	RecurringExpense struct {
		ID         string          `json:"id"`
		UserID     string          `json:"user_id"`
		CategoryID string          `json:"category_id,omitempty"`
		Frequency  Frequency       `json:"frequency"`
		Amount     decimal.Decimal `json:"amount"`
		Category   *Category       `json:"category,omitempty"`
		CreatedAt  time.Time       `json:"created_at"`
	}

	SavingsGoal struct {
		ID            string          `json:"id"`
		UserID        string          `json:"user_id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		Deadline      string          `json:"deadline,omitempty"`
		Status        GoalStatus      `json:"status"`
		CreatedAt     time.Time       `json:"created_at"`
	}

	Investment struct {
		ID             string          `json:"id"`
		UserID         string          `json:"user_id"`
		Amount         decimal.Decimal `json:"amount"`
		PurchaseDate   string          `json:"purchase_date"`
		ExpectedReturn decimal.Decimal `json:"expected_return"`
		CreatedAt      time.Time       `json:"created_at"`
	}

	Alert struct {
		ID              string             `json:"id"`
		UserID          string             `json:"user_id"`
		ThresholdAmount decimal.Decimal    `json:"threshold_amount"`
		AlertType       AlertType          `json:"alert_type"`
		Triggers        []RecurringExpense `json:"triggers"`
		CreatedAt       time.Time          `json:"created_at"`
	}
)

func init() {
	// Amounts travel as JSON numbers, matching what API clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// CategoryName returns the joined category name or "" when the row has none.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

// IsOutflow reports whether the transaction took money out of an account.
// Rows without a direction fall back to the sign of the amount.
func (t Transaction) IsOutflow() bool {
	if t.Direction == "" {
		return t.Amount.IsNegative()
	}
	return t.Direction == Debit
}

func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

func (t AccountType) Valid() bool {
	switch t {
	case Chequing, Saving, CreditCard, TFSA, FHSA, RRSP:
		return true
	}
	return false
}

// Label renders the account type for people, e.g. CREDIT_CARD -> "Credit Card".
func (t AccountType) Label() string {
	switch t {
	case TFSA, FHSA, RRSP:
		return string(t)
	}
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Yearly:
		return true
	}
	return false
}

func (s GoalStatus) Valid() bool {
	return s == GoalActive || s == GoalCompleted || s == GoalPaused
}

func (a AlertType) Valid() bool {
	return a == SpendingThreshold || a == RecurringTotal
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// AccountTypes lists every account type in display order.
func AccountTypes() []AccountType {
	return []AccountType{Chequing, Saving, CreditCard, TFSA, FHSA, RRSP}
}

// Frequencies lists every recurring expense frequency.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Biweekly, Monthly, Yearly}
}
