// Package ledger defines the storage ports the engines and handlers
// depend on. Adapters live in ledger/memory and internal/storage.
package ledger

import (
	"context"

	"paisa/internal/core"
)

// TransactionStore is the canonical transaction collection. Mutations
// are serialized by the implementation; reads return copies, so a
// snapshot stays valid while the store keeps changing.
type TransactionStore interface {
	Create(ctx context.Context, n core.NewTransaction) (core.Transaction, error)
	Get(ctx context.Context, id string) (core.Transaction, error)
	Patch(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error)

	// SoftDelete, Restore and HardDelete are best-effort over the id
	// list: unknown ids are skipped and the returned count holds only
	// the rows actually transitioned (or removed).
	SoftDelete(ctx context.Context, ids []string) (int, error)
	Restore(ctx context.Context, ids []string) (int, error)
	HardDelete(ctx context.Context, ids []string) (int, error)

	// BulkPatch applies the same patch to every existing id.
	BulkPatch(ctx context.Context, ids []string, p core.TransactionPatch) (int, error)

	// Snapshot returns every transaction, trashed included, in store
	// insertion order.
	Snapshot(ctx context.Context) ([]core.Transaction, error)
}

// BudgetStore holds per-month budget configurations.
type BudgetStore interface {
	// Get reports the configured budget for a month; ok is false when
	// the month was never configured.
	Get(ctx context.Context, month core.MonthKey) (core.BudgetConfig, bool, error)

	// GetOrCreate returns the month's budget, creating it with lazy
	// defaults on first access.
	GetOrCreate(ctx context.Context, month core.MonthKey) (core.BudgetConfig, error)

	Create(ctx context.Context, cfg core.BudgetConfig) (core.BudgetConfig, error)
	Patch(ctx context.Context, month core.MonthKey, p core.BudgetPatch) (core.BudgetConfig, error)

	// Reset discards the month's configuration and installs the reset
	// defaults under a fresh id.
	Reset(ctx context.Context, month core.MonthKey) (core.BudgetConfig, error)

	// CloneMonth copies the source month's configuration into target
	// with a new id and timestamps. Missing source is a not-found
	// error.
	CloneMonth(ctx context.Context, source, target core.MonthKey) (core.BudgetConfig, error)

	// Months lists every configured month, most recent first.
	Months(ctx context.Context) ([]core.MonthKey, error)
}
