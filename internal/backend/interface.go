package backend

import (
	"context"

	"paisa/internal/amqp"
	"paisa/internal/ledger"
)

// Stores bundles the ledger ports a backend provides.
type Stores struct {
	Transactions ledger.TransactionStore
	Budgets      ledger.BudgetStore
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the stores, the optional AMQP client and an
// optional cleanup function
type Result struct {
	Stores  Stores
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the ledger stores for the configured
	// backend type.
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// AMQP change events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory backend demo seed
	Seed      bool
	SeedCount int
}

// Type represents the type of backend
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
