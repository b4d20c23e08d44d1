package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wallet/internal/core"
	"wallet/internal/log"
)

const selectAccounts = `
SELECT a.id, a.user_id, a.type, a.balance, a.created_at, a.updated_at,
       b.id, b.name, b.branch, b.address
FROM financial_accounts a
LEFT JOIN banks b ON b.financial_account_id = a.id
WHERE a.user_id = ?`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var typ string
	var bankID, name, branch, address sql.NullString
	if err := row.Scan(&a.ID, &a.UserID, &typ, &a.Balance,
		timestamp{&a.CreatedAt}, timestamp{&a.UpdatedAt},
		&bankID, &name, &branch, &address); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	if !a.Type.Valid() {
		return core.Account{}, invalidRecord("account", "type", typ)
	}
	if bankID.Valid {
		a.Bank = &core.Bank{ID: bankID.String, AccountID: a.ID, Name: name.String, Branch: branch.String, Address: address.String}
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.conn().query(ctx, selectAccounts+` ORDER BY a.created_at, a.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	return getAccount(ctx, r.conn(), userID, id)
}

func getAccount(ctx context.Context, c conn, userID, id string) (core.Account, error) {
	a, err := scanAccount(c.queryRow(ctx, selectAccounts+` AND a.id = ?`, userID, id))
	if err != nil {
		return core.Account{}, notFound(err)
	}
	return a, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.ID = uuid.NewString()
	now := formatTime(r.now())
	err := r.inTx(ctx, func(c conn) error {
		if _, err := c.exec(ctx,
			`INSERT INTO financial_accounts (id, user_id, type, balance, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.UserID, string(a.Type), a.Balance.Round(2), now, now); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		if a.Bank != nil {
			if err := insertBank(ctx, c, a.ID, *a.Bank); err != nil {
				return err
			}
		}
		created, err := getAccount(ctx, c, a.UserID, a.ID)
		a = created
		return err
	})
	if err != nil {
		return core.Account{}, err
	}
	r.logWrite(ctx, log.OpCreate, "account", a.ID, a.UserID)
	return a, nil
}

func insertBank(ctx context.Context, c conn, accountID string, b core.Bank) error {
	if _, err := c.exec(ctx,
		`INSERT INTO banks (id, financial_account_id, name, branch, address) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), accountID, b.Name, b.Branch, b.Address); err != nil {
		return fmt.Errorf("insert bank: %w", err)
	}
	return nil
}

func (r *Repository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	err := r.inTx(ctx, func(c conn) error {
		err := c.execOne(ctx,
			`UPDATE financial_accounts SET type = ?, balance = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			string(a.Type), a.Balance.Round(2), formatTime(r.now()), a.ID, a.UserID)
		if err != nil {
			return notFound(err)
		}
		if b := a.Bank; b != nil {
			err := c.execOne(ctx,
				`UPDATE banks SET name = ?, branch = ?, address = ? WHERE financial_account_id = ?`,
				b.Name, b.Branch, b.Address, a.ID)
			if err == errNoRows {
				err = insertBank(ctx, c, a.ID, *b)
			}
			if err != nil {
				return fmt.Errorf("write bank: %w", err)
			}
		}
		updated, err := getAccount(ctx, c, a.UserID, a.ID)
		a = updated
		return err
	})
	if err != nil {
		return core.Account{}, err
	}
	r.logWrite(ctx, log.OpUpdate, "account", a.ID, a.UserID)
	return a, nil
}

func (r *Repository) DeleteAccount(ctx context.Context, userID, id string) error {
	err := r.inTx(ctx, func(c conn) error {
		if err := c.execOne(ctx, `DELETE FROM financial_accounts WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return notFound(err)
		}
		if _, err := c.exec(ctx, `DELETE FROM banks WHERE financial_account_id = ?`, id); err != nil {
			return fmt.Errorf("delete bank: %w", err)
		}
		if _, err := c.exec(ctx, `UPDATE transactions SET account_id = NULL WHERE account_id = ?`, id); err != nil {
			return fmt.Errorf("detach transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logWrite(ctx, log.OpDelete, "account", id, userID)
	return nil
}

// decimalOrZero unwraps a nullable joined amount.
func decimalOrZero(d decimal.NullDecimal) decimal.Decimal {
	if d.Valid {
		return d.Decimal
	}
	return decimal.Zero
}
