// Package storage is the SQL data access layer. One Repository serves both
// SQLite (modernc.org/sqlite) and PostgreSQL (github.com/lib/pq); schemas are
// embedded and applied with golang-migrate on open.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"wallet/internal/log"
	"wallet/internal/ports"
)

type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger
	now     func() time.Time
}

var _ ports.Store = (*Repository)(nil)

// NewSQLiteRepository opens (creating if needed) the database file at path.
func NewSQLiteRepository(ctx context.Context, path string, logger *log.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(ctx, SQLite, sqliteDSN(path), logger)
}

// NewPostgresRepository connects to the database named by url.
func NewPostgresRepository(ctx context.Context, url string, logger *log.Logger) (*Repository, error) {
	return Open(ctx, Postgres, url, logger)
}

// Open connects, pings and migrates.
func Open(ctx context.Context, dialect Dialect, dsn string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// One writer at a time; transactions hold the only connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, err
	}
	logger = logger.WithComponent(log.ComponentStorage)
	logger.Info("Database ready", "dialect", string(dialect))
	return &Repository{
		db:      db,
		dialect: dialect,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}, nil
}

// WithClock replaces the timestamp source. Timestamps keep microsecond
// precision.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = func() time.Time { return now().UTC().Truncate(time.Microsecond) }
	return r
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) conn() conn {
	return conn{q: r.db, dialect: r.dialect}
}

// inTx runs fn inside one transaction, rolling back on any error.
func (r *Repository) inTx(ctx context.Context, fn func(c conn) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(conn{q: tx, dialect: r.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.WarnContext(ctx, "Rollback failed", log.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) logWrite(ctx context.Context, op, entity, id, userID string) {
	r.logger.DebugContext(ctx, "Row written",
		log.NewFields().WithOperation(op).WithEntity(entity, id).WithUser(userID).ToSlice()...)
}
