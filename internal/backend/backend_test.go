package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/config"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/storage/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "postgres",
		DatabaseURL:  "postgres://wallet@localhost/wallet",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "wallet",
		AMQPQueue:    "wallet_events",
	}
	bc, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, PostgresBackend, bc.Type)
	assert.Equal(t, cfg.DatabaseURL, bc.DatabaseURL)
	assert.Equal(t, "wallet_events", bc.AMQPQueue)

	_, err = FromAppConfig(&config.Config{DataBackend: "mongo"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite needs path", Config{Type: SQLiteBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "wallet.db"}, false},
		{"postgres needs url", Config{Type: PostgresBackend}, true},
		{"amqp needs queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "wallet"}, true},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "sqlite", "postgres"}, GetBackendTypeStrings())
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	assert.IsType(t, &memory.Store{}, res.Store)
	assert.Nil(t, res.AMQP)
	assert.Nil(t, res.Publisher())
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wallet.db")

	res, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)

	require.NoError(t, res.Store.Ping(ctx))
	cats, err := res.Store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(core.DefaultCategories()))

	assert.NoError(t, res.Cleanup())
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: PostgresBackend})
	assert.Error(t, err)
}
