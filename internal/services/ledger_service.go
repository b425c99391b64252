// Package services orchestrates stores, engines, events and caching
// behind the HTTP handlers.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"paisa/internal/amqp"
	"paisa/internal/cache"
	"paisa/internal/core"
	"paisa/internal/detect"
	"paisa/internal/ledger"
	"paisa/internal/query"
)

// LedgerService owns transaction operations: every mutation goes
// through here so cache invalidation and change events stay in one
// place.
type LedgerService struct {
	store      ledger.TransactionStore
	amqpClient *amqp.Client
	views      *cache.LRUCache[core.BudgetDTO]
}

func NewLedgerService(store ledger.TransactionStore, amqpClient *amqp.Client, views *cache.LRUCache[core.BudgetDTO]) *LedgerService {
	return &LedgerService{
		store:      store,
		amqpClient: amqpClient,
		views:      views,
	}
}

func (s *LedgerService) Create(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	tx, err := s.store.Create(ctx, n)
	if err != nil {
		return core.Transaction{}, err
	}

	month := core.MonthKeyOf(tx.Timestamp)
	s.views.Delete(string(month))
	s.publish(ctx, amqp.NewExpenseChanged(month, 1))
	return tx, nil
}

func (s *LedgerService) Patch(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	tx, err := s.store.Patch(ctx, id, p)
	if err != nil {
		return core.Transaction{}, err
	}

	// A timestamp patch can move the row across months; drop every
	// cached view rather than track both ends.
	s.views.Purge()
	s.publish(ctx, amqp.NewExpenseChanged(core.MonthKeyOf(tx.Timestamp), 1))
	return tx, nil
}

func (s *LedgerService) SoftDelete(ctx context.Context, ids []string) (int, error) {
	count, err := s.store.SoftDelete(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.noteBulkChange(ctx, count)
	return count, nil
}

func (s *LedgerService) Restore(ctx context.Context, ids []string) (int, error) {
	count, err := s.store.Restore(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.noteBulkChange(ctx, count)
	return count, nil
}

func (s *LedgerService) HardDelete(ctx context.Context, ids []string) (int, error) {
	count, err := s.store.HardDelete(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.noteBulkChange(ctx, count)
	return count, nil
}

func (s *LedgerService) BulkPatch(ctx context.Context, ids []string, p core.TransactionPatch) (int, error) {
	count, err := s.store.BulkPatch(ctx, ids, p)
	if err != nil {
		return 0, err
	}
	s.noteBulkChange(ctx, count)
	return count, nil
}

// SoftDeleteByFilter trashes everything matching the filter except
// the excluded ids.
func (s *LedgerService) SoftDeleteByFilter(ctx context.Context, spec query.FilterSpec, excludeIDs []string) (int, error) {
	ids, err := s.matchWithout(ctx, spec, excludeIDs)
	if err != nil {
		return 0, err
	}
	return s.SoftDelete(ctx, ids)
}

// BulkPatchByFilter patches everything matching the filter except the
// excluded ids.
func (s *LedgerService) BulkPatchByFilter(ctx context.Context, spec query.FilterSpec, excludeIDs []string, p core.TransactionPatch) (int, error) {
	ids, err := s.matchWithout(ctx, spec, excludeIDs)
	if err != nil {
		return 0, err
	}
	return s.BulkPatch(ctx, ids, p)
}

func (s *LedgerService) matchWithout(ctx context.Context, spec query.FilterSpec, excludeIDs []string) ([]string, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := query.MatchIDs(snapshot, spec)
	if err != nil {
		return nil, err
	}
	if len(excludeIDs) == 0 {
		return ids, nil
	}
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	kept := ids[:0]
	for _, id := range ids {
		if !excluded[id] {
			kept = append(kept, id)
		}
	}
	return kept, nil
}

// Query runs the filter pipeline over the current snapshot.
func (s *LedgerService) Query(ctx context.Context, spec query.FilterSpec) (query.Result, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return query.Result{}, err
	}
	return query.Apply(snapshot, spec)
}

// Trash lists trashed rows, optionally filtered by a title search,
// newest deletion first.
func (s *LedgerService) Trash(ctx context.Context, search string, page, limit int) (query.Result, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return query.Result{}, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	rows := make([]core.Transaction, 0)
	for _, tx := range snapshot {
		if tx.Status != core.StatusTrashed {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(tx.Title), needle) {
			continue
		}
		rows = append(rows, tx)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		var ti, tj int64
		if rows[i].DeletedAt != nil {
			ti = rows[i].DeletedAt.UnixNano()
		}
		if rows[j].DeletedAt != nil {
			tj = rows[j].DeletedAt.UnixNano()
		}
		return ti > tj
	})

	total := len(rows)
	limit = core.Clamp(limit, query.MinLimit, query.MaxLimit)
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return query.Result{Rows: []core.Transaction{}, Total: total}, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return query.Result{Rows: rows[start:end], Total: total}, nil
}

// Duplicates runs the duplicate heuristic over the current snapshot.
func (s *LedgerService) Duplicates(ctx context.Context) ([]detect.DuplicatePair, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return detect.Duplicates(snapshot), nil
}

// Recurring runs the recurring-payment heuristic over the current
// snapshot.
func (s *LedgerService) Recurring(ctx context.Context) ([]detect.RecurringItem, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return detect.Recurring(snapshot), nil
}

func (s *LedgerService) noteBulkChange(ctx context.Context, count int) {
	if count == 0 {
		return
	}
	// Bulk operations may touch several months; drop all cached views.
	s.views.Purge()
	s.publish(ctx, amqp.NewExpenseChanged("", count))
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.ChangeEvent) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishChange(ctx, event); err != nil {
		// Mutations are already committed; the event is advisory.
		slog.ErrorContext(ctx, "Failed to publish change event",
			"kind", event.Kind, "error", err)
	}
}

// Store exposes the underlying port for read-only collaborators.
func (s *LedgerService) Store() ledger.TransactionStore {
	return s.store
}

// Close releases the AMQP connection if one is attached.
func (s *LedgerService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp: %w", err)
		}
	}
	return nil
}
