package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/log"
)

const selectTransactions = `
SELECT t.id, t.user_id, COALESCE(t.account_id, ''), COALESCE(t.category_id, ''),
       t.transaction_date, t.description, t.amount, t.direction,
       c.id, c.name, c.color,
       a.id, a.type, a.balance, a.created_at, a.updated_at,
       b.id, b.name, b.branch, b.address
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
LEFT JOIN financial_accounts a ON a.id = t.account_id AND a.user_id = t.user_id
LEFT JOIN banks b ON b.financial_account_id = a.id
WHERE t.user_id = ?`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var dir string
	var catID, catName, catColor sql.NullString
	var acctID, acctType sql.NullString
	var acctBalance decimal.NullDecimal
	var acctCreated, acctUpdated time.Time
	var bankID, bankName, bankBranch, bankAddress sql.NullString

	if err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID,
		calendarDate{&t.Date}, &t.Description, &t.Amount, &dir,
		&catID, &catName, &catColor,
		&acctID, &acctType, &acctBalance, timestamp{&acctCreated}, timestamp{&acctUpdated},
		&bankID, &bankName, &bankBranch, &bankAddress); err != nil {
		return core.Transaction{}, err
	}

	t.Direction = core.Direction(dir)
	if !t.Direction.Valid() {
		return core.Transaction{}, invalidRecord("transaction", "direction", dir)
	}
	if catID.Valid {
		t.Category = &core.Category{ID: catID.String, Name: catName.String, Color: catColor.String}
	}
	if acctID.Valid {
		a := &core.Account{
			ID:        acctID.String,
			UserID:    t.UserID,
			Type:      core.AccountType(acctType.String),
			Balance:   decimalOrZero(acctBalance),
			CreatedAt: acctCreated,
			UpdatedAt: acctUpdated,
		}
		if !a.Type.Valid() {
			return core.Transaction{}, invalidRecord("account", "type", acctType.String)
		}
		if bankID.Valid {
			a.Bank = &core.Bank{ID: bankID.String, AccountID: a.ID, Name: bankName.String, Branch: bankBranch.String, Address: bankAddress.String}
		}
		t.Account = a
	}
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.conn().query(ctx, selectTransactions+` ORDER BY t.transaction_date DESC, t.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func getTransaction(ctx context.Context, c conn, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(c.queryRow(ctx, selectTransactions+` AND t.id = ?`, userID, id))
	if err != nil {
		return core.Transaction{}, notFound(err)
	}
	return t, nil
}

// checkRefs rejects references to another user's account or to an unknown category.
func checkRefs(ctx context.Context, c conn, userID, accountID, categoryID string) error {
	var one int
	if accountID != "" {
		err := c.queryRow(ctx, `SELECT 1 FROM financial_accounts WHERE id = ? AND user_id = ?`, accountID, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return core.Invalid("accountId", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check account: %w", err)
		}
	}
	if categoryID != "" {
		err := c.queryRow(ctx, `SELECT 1 FROM categories WHERE id = ?`, categoryID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return core.Invalid("categoryId", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
	}
	return nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := t.Normalized()
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()
	err = r.inTx(ctx, func(c conn) error {
		if err := checkRefs(ctx, c, t.UserID, t.AccountID, t.CategoryID); err != nil {
			return err
		}
		if _, err := c.exec(ctx,
			`INSERT INTO transactions (id, user_id, account_id, category_id, transaction_date, description, amount, direction, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.UserID, nullable(t.AccountID), nullable(t.CategoryID), t.Date, t.Description,
			t.Amount, string(t.Direction), formatTime(r.now())); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		created, err := getTransaction(ctx, c, t.UserID, t.ID)
		t = created
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	r.logWrite(ctx, log.OpCreate, "transaction", t.ID, t.UserID)
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := t.Normalized()
	if err != nil {
		return core.Transaction{}, err
	}
	err = r.inTx(ctx, func(c conn) error {
		if err := checkRefs(ctx, c, t.UserID, t.AccountID, t.CategoryID); err != nil {
			return err
		}
		err := c.execOne(ctx,
			`UPDATE transactions
			 SET account_id = ?, category_id = ?, transaction_date = ?, description = ?, amount = ?, direction = ?
			 WHERE id = ? AND user_id = ?`,
			nullable(t.AccountID), nullable(t.CategoryID), t.Date, t.Description, t.Amount, string(t.Direction),
			t.ID, t.UserID)
		if err != nil {
			return notFound(err)
		}
		updated, err := getTransaction(ctx, c, t.UserID, t.ID)
		t = updated
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	r.logWrite(ctx, log.OpUpdate, "transaction", t.ID, t.UserID)
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := r.conn().execOne(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return notFound(err)
	}
	r.logWrite(ctx, log.OpDelete, "transaction", id, userID)
	return nil
}
