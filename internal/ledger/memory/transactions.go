// Package memory implements the ledger ports with in-process maps.
// This is the default backend: the engines only ever see snapshots,
// so a plain mutex around the maps is enough for the single-writer
// model.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"paisa/internal/core"
)

// TransactionStore keeps transactions in insertion order. All reads
// hand out copies.
type TransactionStore struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*core.Transaction
	now   func() time.Time
}

// NewTransactionStore creates an empty store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		byID: make(map[string]*core.Transaction),
		now:  time.Now,
	}
}

// NewTransactionStoreWithClock creates a store with a fixed clock for
// tests.
func NewTransactionStoreWithClock(now func() time.Time) *TransactionStore {
	s := NewTransactionStore()
	s.now = now
	return s
}

func (s *TransactionStore) Create(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	if err := n.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	tx := core.Transaction{
		ID:            uuid.NewString(),
		Title:         n.Title,
		Category:      n.Category,
		Amount:        n.Amount,
		Timestamp:     n.Timestamp.UTC(),
		PaymentMethod: n.PaymentMethod,
		ReceiptURL:    n.ReceiptURL,
		Status:        core.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.byID[tx.ID] = &tx
	s.order = append(s.order, tx.ID)

	return tx.Clone(), nil
}

func (s *TransactionStore) Get(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byID[id]
	if !ok {
		return core.Transaction{}, core.NewNotFoundError("transaction %s not found", id)
	}
	return tx.Clone(), nil
}

func (s *TransactionStore) Patch(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byID[id]
	if !ok {
		return core.Transaction{}, core.NewNotFoundError("transaction %s not found", id)
	}
	p.Apply(tx, s.now().UTC())
	return tx.Clone(), nil
}

// SoftDelete trashes the given ids. Only Active rows transition and
// count; already-trashed and unknown ids are skipped.
func (s *TransactionStore) SoftDelete(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	count := 0
	for _, id := range ids {
		tx, ok := s.byID[id]
		if !ok || tx.Status != core.StatusActive {
			continue
		}
		at := now
		tx.Status = core.StatusTrashed
		tx.DeletedAt = &at
		tx.UpdatedAt = now
		count++
	}
	return count, nil
}

// Restore reactivates trashed ids. Only Trashed rows transition.
func (s *TransactionStore) Restore(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	count := 0
	for _, id := range ids {
		tx, ok := s.byID[id]
		if !ok || tx.Status != core.StatusTrashed {
			continue
		}
		tx.Status = core.StatusActive
		tx.DeletedAt = nil
		tx.UpdatedAt = now
		count++
	}
	return count, nil
}

// HardDelete removes rows permanently, regardless of status.
func (s *TransactionStore) HardDelete(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok || removed[id] {
			continue
		}
		delete(s.byID, id)
		removed[id] = true
	}
	if len(removed) > 0 {
		kept := s.order[:0]
		for _, id := range s.order {
			if !removed[id] {
				kept = append(kept, id)
			}
		}
		s.order = kept
	}
	return len(removed), nil
}

func (s *TransactionStore) BulkPatch(ctx context.Context, ids []string, p core.TransactionPatch) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	count := 0
	for _, id := range ids {
		tx, ok := s.byID[id]
		if !ok {
			continue
		}
		p.Apply(tx, now)
		count++
	}
	return count, nil
}

func (s *TransactionStore) Snapshot(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.order))
	for _, id := range s.order {
		if tx, ok := s.byID[id]; ok {
			out = append(out, tx.Clone())
		}
	}
	return out, nil
}
