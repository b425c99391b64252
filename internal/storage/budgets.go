package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"paisa/internal/core"
	"paisa/internal/ledger/memory"
)

// BudgetStore implements ledger.BudgetStore on SQLite. Category
// limits are stored as a JSON object per month.
type BudgetStore struct {
	db  *sql.DB
	now func() time.Time
}

const budgetColumns = `month, id, total_limit, mode, rollover_unused, currency, category_limits, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (core.BudgetConfig, error) {
	var (
		cfg          core.BudgetConfig
		rollover     int
		limitsJSON   string
		created, upd string
	)
	err := row.Scan(&cfg.Month, &cfg.ID, &cfg.TotalLimit, &cfg.Mode, &rollover,
		&cfg.Currency, &limitsJSON, &created, &upd)
	if err != nil {
		return core.BudgetConfig{}, err
	}
	cfg.RolloverUnused = rollover != 0
	if err := json.Unmarshal([]byte(limitsJSON), &cfg.CategoryLimits); err != nil {
		return core.BudgetConfig{}, fmt.Errorf("parse category limits: %w", err)
	}
	if cfg.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return core.BudgetConfig{}, fmt.Errorf("parse created_at: %w", err)
	}
	if cfg.UpdatedAt, err = time.Parse(time.RFC3339Nano, upd); err != nil {
		return core.BudgetConfig{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return cfg, nil
}

func (s *BudgetStore) upsert(ctx context.Context, cfg core.BudgetConfig) error {
	limits := cfg.CategoryLimits
	if limits == nil {
		limits = map[string]int{}
	}
	limitsJSON, err := json.Marshal(limits)
	if err != nil {
		return fmt.Errorf("marshal category limits: %w", err)
	}
	rollover := 0
	if cfg.RolloverUnused {
		rollover = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(month) DO UPDATE SET
		   id = excluded.id, total_limit = excluded.total_limit, mode = excluded.mode,
		   rollover_unused = excluded.rollover_unused, currency = excluded.currency,
		   category_limits = excluded.category_limits, created_at = excluded.created_at,
		   updated_at = excluded.updated_at`,
		cfg.Month, cfg.ID, cfg.TotalLimit, cfg.Mode, rollover, cfg.Currency,
		string(limitsJSON), cfg.CreatedAt.Format(time.RFC3339Nano), cfg.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

func (s *BudgetStore) Get(ctx context.Context, month core.MonthKey) (core.BudgetConfig, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE month = ?`, month)
	cfg, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetConfig{}, false, nil
	}
	if err != nil {
		return core.BudgetConfig{}, false, fmt.Errorf("get budget: %w", err)
	}
	return cfg, true, nil
}

func (s *BudgetStore) GetOrCreate(ctx context.Context, month core.MonthKey) (core.BudgetConfig, error) {
	cfg, ok, err := s.Get(ctx, month)
	if err != nil {
		return core.BudgetConfig{}, err
	}
	if ok {
		return cfg, nil
	}

	now := s.now().UTC()
	cfg = core.BudgetConfig{
		ID:             uuid.NewString(),
		Month:          month,
		TotalLimit:     memory.DefaultTotalLimit,
		Mode:           core.ModeFlexible,
		RolloverUnused: false,
		Currency:       memory.DefaultCurrency,
		CategoryLimits: map[string]int{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.upsert(ctx, cfg); err != nil {
		return core.BudgetConfig{}, err
	}
	return cfg, nil
}

func (s *BudgetStore) Create(ctx context.Context, cfg core.BudgetConfig) (core.BudgetConfig, error) {
	if cfg.TotalLimit < 0 {
		return core.BudgetConfig{}, core.NewValidationError("totalLimit cannot be negative")
	}
	if !core.ValidBudgetMode(cfg.Mode) {
		return core.BudgetConfig{}, core.NewValidationError("unknown budget mode %q", cfg.Mode)
	}

	now := s.now().UTC()
	stored := cfg.Clone()
	stored.ID = uuid.NewString()
	if stored.Currency == "" {
		stored.Currency = memory.DefaultCurrency
	}
	if stored.CategoryLimits == nil {
		stored.CategoryLimits = map[string]int{}
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if err := s.upsert(ctx, stored); err != nil {
		return core.BudgetConfig{}, err
	}
	return stored, nil
}

func (s *BudgetStore) Patch(ctx context.Context, month core.MonthKey, p core.BudgetPatch) (core.BudgetConfig, error) {
	if err := p.Validate(); err != nil {
		return core.BudgetConfig{}, err
	}

	cfg, ok, err := s.Get(ctx, month)
	if err != nil {
		return core.BudgetConfig{}, err
	}
	if !ok {
		return core.BudgetConfig{}, core.NewNotFoundError("no budget for month %s", month)
	}

	p.Apply(&cfg, s.now().UTC())
	if err := s.upsert(ctx, cfg); err != nil {
		return core.BudgetConfig{}, err
	}
	return cfg, nil
}

func (s *BudgetStore) Reset(ctx context.Context, month core.MonthKey) (core.BudgetConfig, error) {
	now := s.now().UTC()
	cfg := core.BudgetConfig{
		ID:             uuid.NewString(),
		Month:          month,
		TotalLimit:     memory.ResetTotalLimit,
		Mode:           core.ModeStrict,
		RolloverUnused: true,
		Currency:       memory.DefaultCurrency,
		CategoryLimits: map[string]int{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.upsert(ctx, cfg); err != nil {
		return core.BudgetConfig{}, err
	}
	return cfg, nil
}

func (s *BudgetStore) CloneMonth(ctx context.Context, source, target core.MonthKey) (core.BudgetConfig, error) {
	src, ok, err := s.Get(ctx, source)
	if err != nil {
		return core.BudgetConfig{}, err
	}
	if !ok {
		return core.BudgetConfig{}, core.NewNotFoundError("no budget for month %s", source)
	}

	now := s.now().UTC()
	cloned := src.Clone()
	cloned.ID = uuid.NewString()
	cloned.Month = target
	cloned.CreatedAt = now
	cloned.UpdatedAt = now
	if err := s.upsert(ctx, cloned); err != nil {
		return core.BudgetConfig{}, err
	}
	return cloned, nil
}

func (s *BudgetStore) Months(ctx context.Context) ([]core.MonthKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT month FROM budgets ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list budget months: %w", err)
	}
	defer rows.Close()

	var months []core.MonthKey
	for rows.Next() {
		var m core.MonthKey
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}
