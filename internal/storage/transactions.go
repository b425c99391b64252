package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"paisa/internal/core"
)

// TransactionStore implements ledger.TransactionStore on SQLite.
// Insertion order is rowid order.
type TransactionStore struct {
	db  *sql.DB
	now func() time.Time
}

const txColumns = `id, title, category, amount, ts, payment_method, receipt_url, status, deleted_at, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t                core.Transaction
		ts, created, upd string
		deleted          sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.Category, &t.Amount, &ts, &t.PaymentMethod,
		&t.ReceiptURL, &t.Status, &deleted, &created, &upd)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return core.Transaction{}, fmt.Errorf("parse ts: %w", err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, upd); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if deleted.Valid {
		at, err := time.Parse(time.RFC3339Nano, deleted.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse deleted_at: %w", err)
		}
		t.DeletedAt = &at
	}
	return t, nil
}

func (s *TransactionStore) Create(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	if err := n.Validate(); err != nil {
		return core.Transaction{}, err
	}

	now := s.now().UTC()
	t := core.Transaction{
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (`+txColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		t.ID, t.Title, t.Category, t.Amount, t.Timestamp.Format(time.RFC3339Nano),
		t.PaymentMethod, t.ReceiptURL, t.Status,
		t.CreatedAt.Format(time.RFC3339Nano), t.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (s *TransactionStore) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NewNotFoundError("transaction %s not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *TransactionStore) Patch(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	p.Apply(&t, s.now().UTC())

	_, err = s.db.ExecContext(ctx,
		`UPDATE transactions SET title = ?, category = ?, amount = ?, ts = ?,
		 payment_method = ?, receipt_url = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Category, t.Amount, t.Timestamp.Format(time.RFC3339Nano),
		t.PaymentMethod, t.ReceiptURL, t.UpdatedAt.Format(time.RFC3339Nano), t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return t, nil
}

func (s *TransactionStore) SoftDelete(ctx context.Context, ids []string) (int, error) {
	now := s.now().UTC().Format(time.RFC3339Nano)
	count := 0
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx,
			`UPDATE transactions SET status = ?, deleted_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			core.StatusTrashed, now, now, id, core.StatusActive)
		if err != nil {
			return count, fmt.Errorf("soft-delete %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		count += int(n)
	}
	return count, nil
}

func (s *TransactionStore) Restore(ctx context.Context, ids []string) (int, error) {
	now := s.now().UTC().Format(time.RFC3339Nano)
	count := 0
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx,
			`UPDATE transactions SET status = ?, deleted_at = NULL, updated_at = ?
			 WHERE id = ? AND status = ?`,
			core.StatusActive, now, id, core.StatusTrashed)
		if err != nil {
			return count, fmt.Errorf("restore %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		count += int(n)
	}
	return count, nil
}

func (s *TransactionStore) HardDelete(ctx context.Context, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return count, fmt.Errorf("hard-delete %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		count += int(n)
	}
	return count, nil
}

func (s *TransactionStore) BulkPatch(ctx context.Context, ids []string, p core.TransactionPatch) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		if _, err := s.Patch(ctx, id, p); err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *TransactionStore) Snapshot(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("snapshot transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
