package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/log"
	"wallet/internal/ports"
	"wallet/internal/storage/storagetest"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallet.db")
	r, err := NewSQLiteRepository(context.Background(), path, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, now func() time.Time) ports.Store {
		r := newTestRepository(t)
		if now != nil {
			r.WithClock(now)
		}
		return r
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.db")
	first, err := NewSQLiteRepository(context.Background(), path, log.Discard())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteRepository(context.Background(), path, log.Discard())
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Ping(context.Background()))
}

func TestRebind(t *testing.T) {
	q := `SELECT 1 FROM t WHERE a = ? AND b = ? OR c IN (?, ?)`
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, `SELECT 1 FROM t WHERE a = $1 AND b = $2 OR c IN ($3, $4)`, Postgres.rebind(q))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("/tmp/x.db"))
	assert.Equal(t, "file:mem.db?mode=memory", sqliteDSN("file:mem.db?mode=memory"))
}
