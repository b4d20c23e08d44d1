package backend

import (
	"context"

	"wallet/internal/amqp"
	"wallet/internal/ports"
	"wallet/internal/services"
)

// CleanupFunc releases what a backend opened.
type CleanupFunc func() error

// Result is a ready store plus the broker client when one is connected.
type Result struct {
	Store   ports.Store
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns the event publisher for the ledger, or nil when no
// broker is connected. A nil *amqp.Client must not leak into the interface.
func (r *Result) Publisher() services.EventPublisher {
	if r == nil || r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Optional event broker
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
