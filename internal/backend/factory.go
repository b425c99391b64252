// Package backend wires the configured storage backend, optional AMQP
// client and demo data into the ledger ports the services consume.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"paisa/internal/amqp"
	"paisa/internal/ledger/memory"
	"paisa/internal/seed"
	"paisa/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	amqpClient := f.connectAMQP(config)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &Result{
		Stores: Stores{
			Transactions: repo.Transactions(),
			Budgets:      repo.Budgets(),
		},
		AMQP:    amqpClient,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	txns := memory.NewTransactionStore()
	budgets := memory.NewBudgetStore()

	if config.Seed {
		if err := seed.Populate(ctx, txns, config.SeedCount); err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
		f.logger.Info("Seeded demo transactions", "count", config.SeedCount)
	}

	amqpClient := f.connectAMQP(config)

	f.logger.Info("Initialized memory backend",
		"seeded", config.Seed,
		"amqp_enabled", amqpClient != nil)

	return &Result{
		Stores: Stores{
			Transactions: txns,
			Budgets:      budgets,
		},
		AMQP:    amqpClient,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

// connectAMQP initializes the optional AMQP client. A broker outage
// must not keep the service from starting.
func (f *DefaultFactory) connectAMQP(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		return nil
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
