package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"paisa/internal/core"
)

// Defaults for the two creation paths. A month touched for the first
// time gets the lazy defaults; an explicit reset installs the stricter
// reset defaults.
const (
	DefaultTotalLimit = 60000
	ResetTotalLimit   = 25000
	DefaultCurrency   = "INR"
)

// BudgetStore keeps one BudgetConfig per month key.
type BudgetStore struct {
	mu      sync.Mutex
	byMonth map[core.MonthKey]*core.BudgetConfig
	now     func() time.Time
}

// NewBudgetStore creates an empty store.
func NewBudgetStore() *BudgetStore {
	return &BudgetStore{
		byMonth: make(map[core.MonthKey]*core.BudgetConfig),
		now:     time.Now,
	}
}

// NewBudgetStoreWithClock creates a store with a fixed clock for tests.
func NewBudgetStoreWithClock(now func() time.Time) *BudgetStore {
	s := NewBudgetStore()
	s.now = now
	return s
}

func defaultConfig(month core.MonthKey, now time.Time) core.BudgetConfig {
	return core.BudgetConfig{
		ID:             uuid.NewString(),
		Month:          month,
		TotalLimit:     DefaultTotalLimit,
		Mode:           core.ModeFlexible,
		RolloverUnused: false,
		Currency:       DefaultCurrency,
		CategoryLimits: map[string]int{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func resetConfig(month core.MonthKey, now time.Time) core.BudgetConfig {
	return core.BudgetConfig{
		ID:             uuid.NewString(),
		Month:          month,
		TotalLimit:     ResetTotalLimit,
		Mode:           core.ModeStrict,
		RolloverUnused: true,
		Currency:       DefaultCurrency,
		CategoryLimits: map[string]int{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *BudgetStore) Get(ctx context.Context, month core.MonthKey) (core.BudgetConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.byMonth[month]
	if !ok {
		return core.BudgetConfig{}, false, nil
	}
	return cfg.Clone(), true, nil
}

func (s *BudgetStore) GetOrCreate(ctx context.Context, month core.MonthKey) (core.BudgetConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg, ok := s.byMonth[month]; ok {
		return cfg.Clone(), nil
	}
	cfg := defaultConfig(month, s.now().UTC())
	s.byMonth[month] = &cfg
	return cfg.Clone(), nil
}

// Create upserts the given configuration under its month key. Caller
// fields win; id and timestamps are always assigned here.
func (s *BudgetStore) Create(ctx context.Context, cfg core.BudgetConfig) (core.BudgetConfig, error) {
	if cfg.TotalLimit < 0 {
		return core.BudgetConfig{}, core.NewValidationError("totalLimit cannot be negative")
	}
	if !core.ValidBudgetMode(cfg.Mode) {
		return core.BudgetConfig{}, core.NewValidationError("unknown budget mode %q", cfg.Mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	stored := cfg.Clone()
	stored.ID = uuid.NewString()
	if stored.Currency == "" {
		stored.Currency = DefaultCurrency
	}
	if stored.CategoryLimits == nil {
		stored.CategoryLimits = map[string]int{}
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.byMonth[stored.Month] = &stored
	return stored.Clone(), nil
}

func (s *BudgetStore) Patch(ctx context.Context, month core.MonthKey, p core.BudgetPatch) (core.BudgetConfig, error) {
	if err := p.Validate(); err != nil {
		return core.BudgetConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.byMonth[month]
	if !ok {
		return core.BudgetConfig{}, core.NewNotFoundError("no budget for month %s", month)
	}
	p.Apply(cfg, s.now().UTC())
	return cfg.Clone(), nil
}

func (s *BudgetStore) Reset(ctx context.Context, month core.MonthKey) (core.BudgetConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := resetConfig(month, s.now().UTC())
	s.byMonth[month] = &cfg
	return cfg.Clone(), nil
}

func (s *BudgetStore) CloneMonth(ctx context.Context, source, target core.MonthKey) (core.BudgetConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.byMonth[source]
	if !ok {
		return core.BudgetConfig{}, core.NewNotFoundError("no budget for month %s", source)
	}

	now := s.now().UTC()
	cloned := src.Clone()
	cloned.ID = uuid.NewString()
	cloned.Month = target
	cloned.CreatedAt = now
	cloned.UpdatedAt = now
	s.byMonth[target] = &cloned
	return cloned.Clone(), nil
}

func (s *BudgetStore) Months(ctx context.Context) ([]core.MonthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	months := make([]core.MonthKey, 0, len(s.byMonth))
	for m := range s.byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] > months[j] })
	return months, nil
}
