package services

import (
	"context"
	"log/slog"

	"paisa/internal/amqp"
	"paisa/internal/budget"
	"paisa/internal/cache"
	"paisa/internal/core"
	"paisa/internal/ledger"
)

// BudgetService derives and mutates per-month budget views. Derived
// views are cached per month; the ledger service shares the same
// cache and drops entries when transactions change.
type BudgetService struct {
	budgets    ledger.BudgetStore
	txns       ledger.TransactionStore
	engine     *budget.Engine
	amqpClient *amqp.Client
	views      *cache.LRUCache[core.BudgetDTO]
}

func NewBudgetService(budgets ledger.BudgetStore, txns ledger.TransactionStore, engine *budget.Engine, amqpClient *amqp.Client, views *cache.LRUCache[core.BudgetDTO]) *BudgetService {
	return &BudgetService{
		budgets:    budgets,
		txns:       txns,
		engine:     engine,
		amqpClient: amqpClient,
		views:      views,
	}
}

func (s *BudgetService) derive(ctx context.Context, cfg core.BudgetConfig) (core.BudgetDTO, error) {
	snapshot, err := s.txns.Snapshot(ctx)
	if err != nil {
		return core.BudgetDTO{}, err
	}
	dto := s.engine.Derive(cfg, snapshot)
	s.views.Set(string(cfg.Month), dto)
	return dto, nil
}

// View returns the derived view for a configured month; ok is false
// when the month has no budget yet.
func (s *BudgetService) View(ctx context.Context, month core.MonthKey) (core.BudgetDTO, bool, error) {
	if dto, hit := s.views.Get(string(month)); hit {
		return dto, true, nil
	}

	cfg, ok, err := s.budgets.Get(ctx, month)
	if err != nil || !ok {
		return core.BudgetDTO{}, false, err
	}
	dto, err := s.derive(ctx, cfg)
	if err != nil {
		return core.BudgetDTO{}, false, err
	}
	return dto, true, nil
}

// Create upserts a month's configuration and returns the fresh view.
func (s *BudgetService) Create(ctx context.Context, cfg core.BudgetConfig) (core.BudgetDTO, error) {
	stored, err := s.budgets.Create(ctx, cfg)
	if err != nil {
		return core.BudgetDTO{}, err
	}
	s.changed(ctx, stored.Month)
	return s.derive(ctx, stored)
}

func (s *BudgetService) Patch(ctx context.Context, month core.MonthKey, p core.BudgetPatch) (core.BudgetDTO, error) {
	cfg, err := s.budgets.Patch(ctx, month, p)
	if err != nil {
		return core.BudgetDTO{}, err
	}
	s.changed(ctx, month)
	return s.derive(ctx, cfg)
}

func (s *BudgetService) Reset(ctx context.Context, month core.MonthKey) (core.BudgetDTO, error) {
	cfg, err := s.budgets.Reset(ctx, month)
	if err != nil {
		return core.BudgetDTO{}, err
	}
	s.changed(ctx, month)
	return s.derive(ctx, cfg)
}

func (s *BudgetService) Clone(ctx context.Context, source, target core.MonthKey) (core.BudgetDTO, error) {
	cfg, err := s.budgets.CloneMonth(ctx, source, target)
	if err != nil {
		return core.BudgetDTO{}, err
	}
	s.changed(ctx, target)
	return s.derive(ctx, cfg)
}

// WhatIf simulates a scenario against the month's view. The month is
// created with defaults if it was never configured; the stored config
// is never modified.
func (s *BudgetService) WhatIf(ctx context.Context, month core.MonthKey, scenario core.WhatIfScenario) (core.BudgetDTO, error) {
	cfg, err := s.budgets.GetOrCreate(ctx, month)
	if err != nil {
		return core.BudgetDTO{}, err
	}
	snapshot, err := s.txns.Snapshot(ctx)
	if err != nil {
		return core.BudgetDTO{}, err
	}
	base := s.engine.Derive(cfg, snapshot)
	return s.engine.Simulate(base, scenario)
}

// Months lists every configured month, most recent first.
func (s *BudgetService) Months(ctx context.Context) ([]core.MonthKey, error) {
	return s.budgets.Months(ctx)
}

// Budgets exposes the underlying port for collaborators like the
// dashboard.
func (s *BudgetService) Budgets() ledger.BudgetStore {
	return s.budgets
}

func (s *BudgetService) changed(ctx context.Context, month core.MonthKey) {
	s.views.Delete(string(month))
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishChange(ctx, amqp.NewBudgetChanged(month)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget change", "month", month, "error", err)
	}
}
