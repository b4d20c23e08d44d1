package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/ports"
)

// Recurring expenses

const selectRecurring = `
SELECT r.id, r.user_id, COALESCE(r.category_id, ''), r.frequency, r.amount, r.created_at,
       c.id, c.name, c.color
FROM recurring_expenses r
LEFT JOIN categories c ON c.id = r.category_id`

func scanRecurring(row rowScanner, extra ...any) (core.RecurringExpense, error) {
	var re core.RecurringExpense
	var freq string
	var catID, catName, catColor sql.NullString
	dest := append(extra, &re.ID, &re.UserID, &re.CategoryID, &freq, &re.Amount, timestamp{&re.CreatedAt},
		&catID, &catName, &catColor)
	if err := row.Scan(dest...); err != nil {
		return core.RecurringExpense{}, err
	}
	re.Frequency = core.Frequency(freq)
	if !re.Frequency.Valid() {
		return core.RecurringExpense{}, invalidRecord("recurring expense", "frequency", freq)
	}
	if catID.Valid {
		re.Category = &core.Category{ID: catID.String, Name: catName.String, Color: catColor.String}
	}
	return re, nil
}

func (r *Repository) ListRecurringExpenses(ctx context.Context, userID string) ([]core.RecurringExpense, error) {
	rows, err := r.conn().query(ctx, selectRecurring+` WHERE r.user_id = ? ORDER BY r.created_at, r.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	defer rows.Close()
	var out []core.RecurringExpense
	for rows.Next() {
		re, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		out = append(out, re)
	}
	return out, rows.Err()
}

func (r *Repository) CreateRecurringExpense(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	if err := re.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	re.ID = uuid.NewString()
	err := r.inTx(ctx, func(c conn) error {
		if err := checkRefs(ctx, c, re.UserID, "", re.CategoryID); err != nil {
			return err
		}
		if _, err := c.exec(ctx,
			`INSERT INTO recurring_expenses (id, user_id, category_id, frequency, amount, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			re.ID, re.UserID, nullable(re.CategoryID), string(re.Frequency), re.Amount.Round(2), formatTime(r.now())); err != nil {
			return fmt.Errorf("insert recurring expense: %w", err)
		}
		created, err := scanRecurring(c.queryRow(ctx, selectRecurring+` WHERE r.id = ?`, re.ID))
		re = created
		return err
	})
	if err != nil {
		return core.RecurringExpense{}, err
	}
	r.logWrite(ctx, log.OpCreate, "recurring_expense", re.ID, re.UserID)
	return re, nil
}

func (r *Repository) DeleteRecurringExpense(ctx context.Context, userID, id string) error {
	err := r.inTx(ctx, func(c conn) error {
		if err := c.execOne(ctx, `DELETE FROM recurring_expenses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return notFound(err)
		}
		if _, err := c.exec(ctx, `DELETE FROM alert_triggers WHERE expense_id = ?`, id); err != nil {
			return fmt.Errorf("delete alert triggers: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logWrite(ctx, log.OpDelete, "recurring_expense", id, userID)
	return nil
}

// Savings goals

const selectGoals = `
SELECT id, user_id, name, target_amount, current_amount, deadline, status, created_at
FROM savings_goals
WHERE user_id = ?`

func scanGoal(row rowScanner) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	var status string
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
		calendarDate{&g.Deadline}, &status, timestamp{&g.CreatedAt}); err != nil {
		return core.SavingsGoal{}, err
	}
	g.Status = core.GoalStatus(status)
	if !g.Status.Valid() {
		return core.SavingsGoal{}, invalidRecord("savings goal", "status", status)
	}
	return g, nil
}

func (r *Repository) ListSavingsGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.conn().query(ctx, selectGoals+` ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()
	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if g.Deadline != "" {
		g.Deadline, _ = core.NormalizeDate(g.Deadline)
	}
	g.ID = uuid.NewString()
	g.CreatedAt = r.now()
	g.TargetAmount, g.CurrentAmount = g.TargetAmount.Round(2), g.CurrentAmount.Round(2)
	if _, err := r.conn().exec(ctx,
		`INSERT INTO savings_goals (id, user_id, name, target_amount, current_amount, deadline, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, nullable(g.Deadline), string(g.Status),
		formatTime(g.CreatedAt)); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert savings goal: %w", err)
	}
	r.logWrite(ctx, log.OpCreate, "savings_goal", g.ID, g.UserID)
	return g, nil
}

func (r *Repository) UpdateSavingsGoal(ctx context.Context, userID, id string, patch ports.GoalPatch) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	err := r.inTx(ctx, func(c conn) error {
		cur, err := scanGoal(c.queryRow(ctx, selectGoals+` AND id = ?`, userID, id))
		if err != nil {
			return notFound(err)
		}
		if patch.CurrentAmount != nil {
			cur.CurrentAmount = patch.CurrentAmount.Round(2)
		}
		if patch.Status != nil {
			cur.Status = *patch.Status
		}
		if err := cur.Validate(); err != nil {
			return err
		}
		if err := c.execOne(ctx,
			`UPDATE savings_goals SET current_amount = ?, status = ? WHERE id = ? AND user_id = ?`,
			cur.CurrentAmount, string(cur.Status), id, userID); err != nil {
			return notFound(err)
		}
		g = cur
		return nil
	})
	if err != nil {
		return core.SavingsGoal{}, err
	}
	r.logWrite(ctx, log.OpUpdate, "savings_goal", id, userID)
	return g, nil
}

// Investments

func (r *Repository) ListInvestments(ctx context.Context, userID string) ([]core.Investment, error) {
	rows, err := r.conn().query(ctx,
		`SELECT id, user_id, amount, purchase_date, expected_return, created_at
		 FROM investments WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()
	var out []core.Investment
	for rows.Next() {
		var inv core.Investment
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Amount, calendarDate{&inv.PurchaseDate},
			&inv.ExpectedReturn, timestamp{&inv.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repository) CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	inv.PurchaseDate, _ = core.NormalizeDate(inv.PurchaseDate)
	inv.ID = uuid.NewString()
	inv.CreatedAt = r.now()
	inv.Amount = inv.Amount.Round(2)
	if _, err := r.conn().exec(ctx,
		`INSERT INTO investments (id, user_id, amount, purchase_date, expected_return, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.UserID, inv.Amount, inv.PurchaseDate, inv.ExpectedReturn, formatTime(inv.CreatedAt)); err != nil {
		return core.Investment{}, fmt.Errorf("insert investment: %w", err)
	}
	r.logWrite(ctx, log.OpCreate, "investment", inv.ID, inv.UserID)
	return inv, nil
}

// Alerts

func (r *Repository) ListAlerts(ctx context.Context, userID string) ([]core.Alert, error) {
	c := r.conn()
	rows, err := c.query(ctx,
		`SELECT id, user_id, threshold_amount, alert_type, created_at
		 FROM alerts WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	var out []core.Alert
	index := map[string]int{}
	for rows.Next() {
		var a core.Alert
		var typ string
		if err := rows.Scan(&a.ID, &a.UserID, &a.ThresholdAmount, &typ, timestamp{&a.CreatedAt}); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.AlertType = core.AlertType(typ)
		if !a.AlertType.Valid() {
			rows.Close()
			return nil, invalidRecord("alert", "type", typ)
		}
		a.Triggers = []core.RecurringExpense{}
		index[a.ID] = len(out)
		out = append(out, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	triggers, err := c.query(ctx, `
SELECT tr.alert_id, r.id, r.user_id, COALESCE(r.category_id, ''), r.frequency, r.amount, r.created_at,
       c.id, c.name, c.color
FROM alert_triggers tr
JOIN alerts al ON al.id = tr.alert_id
JOIN recurring_expenses r ON r.id = tr.expense_id
LEFT JOIN categories c ON c.id = r.category_id
WHERE al.user_id = ?
ORDER BY r.created_at, r.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list alert triggers: %w", err)
	}
	defer triggers.Close()
	for triggers.Next() {
		var alertID string
		re, err := scanRecurring(triggers, &alertID)
		if err != nil {
			return nil, fmt.Errorf("scan alert trigger: %w", err)
		}
		if i, ok := index[alertID]; ok {
			out[i].Triggers = append(out[i].Triggers, re)
		}
	}
	return out, triggers.Err()
}

func (r *Repository) CreateAlert(ctx context.Context, a core.Alert, expenseIDs []string) (core.Alert, error) {
	if err := a.Validate(); err != nil {
		return core.Alert{}, err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = r.now()
	a.ThresholdAmount = a.ThresholdAmount.Round(2)
	a.Triggers = []core.RecurringExpense{}
	err := r.inTx(ctx, func(c conn) error {
		if _, err := c.exec(ctx,
			`INSERT INTO alerts (id, user_id, threshold_amount, alert_type, created_at) VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.UserID, a.ThresholdAmount, string(a.AlertType), formatTime(a.CreatedAt)); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
		seen := map[string]bool{}
		for _, expenseID := range expenseIDs {
			if seen[expenseID] {
				continue
			}
			seen[expenseID] = true
			// Only the alert owner's expenses can be linked.
			err := c.execOne(ctx,
				`INSERT INTO alert_triggers (alert_id, expense_id)
				 SELECT CAST(? AS TEXT), id FROM recurring_expenses WHERE id = ? AND user_id = ?`,
				a.ID, expenseID, a.UserID)
			if err == errNoRows {
				return core.Invalid("expenseIds", core.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("insert alert trigger: %w", err)
			}
			re, err := scanRecurring(c.queryRow(ctx, selectRecurring+` WHERE r.id = ?`, expenseID))
			if err != nil {
				return fmt.Errorf("read alert trigger: %w", err)
			}
			a.Triggers = append(a.Triggers, re)
		}
		return nil
	})
	if err != nil {
		return core.Alert{}, err
	}
	r.logWrite(ctx, log.OpCreate, "alert", a.ID, a.UserID)
	return a, nil
}

func (r *Repository) DeleteAlert(ctx context.Context, userID, id string) error {
	err := r.inTx(ctx, func(c conn) error {
		if err := c.execOne(ctx, `DELETE FROM alerts WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return notFound(err)
		}
		if _, err := c.exec(ctx, `DELETE FROM alert_triggers WHERE alert_id = ?`, id); err != nil {
			return fmt.Errorf("delete alert triggers: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logWrite(ctx, log.OpDelete, "alert", id, userID)
	return nil
}
