package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wallet/internal/core"
	"wallet/internal/log"
)

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.conn().query(ctx, `SELECT id, name, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.conn().query(ctx,
		`SELECT id, name, email, password_hash, phone_number, role, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []core.User
	for rows.Next() {
		var u core.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PhoneNumber, &role, timestamp{&u.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = core.Role(role)
		if !u.Role.Valid() {
			return nil, invalidRecord("user", "role", role)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = r.now()
	if _, err := r.conn().exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, phone_number, role, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.PhoneNumber, string(u.Role), formatTime(u.CreatedAt)); err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.Invalid("email", core.ErrDuplicateEmail)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	r.logWrite(ctx, log.OpCreate, "user", u.ID, u.ID)
	return u, nil
}
