package core

import (
	"strings"
)

const maxDescription = 200

func (a Account) Validate() error {
	if !a.Type.Valid() {
		return Invalid("type", ErrInvalidType)
	}
	if a.Bank != nil && strings.TrimSpace(a.Bank.Name) == "" {
		return Invalid("bank.name", ErrEmptyName)
	}
	return nil
}

// Normalized applies the amount and date conventions and validates the result.
func (t Transaction) Normalized() (Transaction, error) {
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return t, Invalid("description", ErrEmptyDescription)
	}
	if len(desc) > maxDescription {
		return t, Invalid("description", ErrDescriptionLength)
	}
	date, err := NormalizeDate(t.Date)
	if err != nil {
		return t, Invalid("transactionDate", err)
	}
	amount, dir, err := NormalizeAmount(t.Amount, t.Direction)
	if err != nil {
		return t, Invalid("direction", err)
	}
	t.Description = desc
	t.Date = date
	t.Amount = amount
	t.Direction = dir
	return t, nil
}

func (r RecurringExpense) Validate() error {
	if !r.Frequency.Valid() {
		return Invalid("frequency", ErrInvalidFrequency)
	}
	if !r.Amount.IsPositive() {
		return Invalid("amount", ErrInvalidAmount)
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if !g.TargetAmount.IsPositive() {
		return Invalid("targetAmount", ErrInvalidAmount)
	}
	if g.CurrentAmount.IsNegative() {
		return Invalid("currentAmount", ErrNegativeAmount)
	}
	if !g.Status.Valid() {
		return Invalid("status", ErrInvalidStatus)
	}
	if g.Deadline != "" {
		if _, err := ParseDate(g.Deadline); err != nil {
			return Invalid("deadline", err)
		}
	}
	return nil
}

func (i Investment) Validate() error {
	if !i.Amount.IsPositive() {
		return Invalid("amount", ErrInvalidAmount)
	}
	if _, err := ParseDate(i.PurchaseDate); err != nil {
		return Invalid("purchaseDate", err)
	}
	return nil
}

func (a Alert) Validate() error {
	if !a.ThresholdAmount.IsPositive() {
		return Invalid("thresholdAmount", ErrInvalidAmount)
	}
	if !a.AlertType.Valid() {
		return Invalid("alertType", ErrInvalidAlertType)
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	email := strings.TrimSpace(u.Email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return Invalid("email", ErrInvalidEmail)
	}
	if !u.Role.Valid() {
		return Invalid("role", ErrInvalidRole)
	}
	return nil
}
