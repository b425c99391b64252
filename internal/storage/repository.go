// Package storage is the SQLite implementation of the ledger ports,
// for deployments that want the ledger to survive restarts. The
// engines are unaware of it; they see the same snapshots the memory
// backend produces.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// The single-writer model: one connection, so mutations serialize
	// at the pool.
	db.SetMaxOpenConns(1)

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Transactions returns the transaction store backed by this database.
func (r *Repository) Transactions() *TransactionStore {
	return &TransactionStore{db: r.db, now: time.Now}
}

// Budgets returns the budget store backed by this database.
func (r *Repository) Budgets() *BudgetStore {
	return &BudgetStore{db: r.db, now: time.Now}
}
