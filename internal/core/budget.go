package core

import "time"

const (
	ModeStrict   BudgetMode = "STRICT"
	ModeFlexible BudgetMode = "FLEXIBLE"
	ModeSavings  BudgetMode = "SAVINGS"
)

const (
	ChangeTotalLimit    ChangeKind = "TOTAL_LIMIT"
	ChangeCategoryLimit ChangeKind = "CATEGORY_LIMIT"
	ChangeMode          ChangeKind = "MODE"
)

type (
	BudgetMode string

	ChangeKind string

	// BudgetConfig is the stored per-month configuration everything
	// else is derived from.
	BudgetConfig struct {
		ID             string         `json:"id"`
		Month          MonthKey       `json:"month"`
		TotalLimit     int            `json:"totalLimit"`
		Mode           BudgetMode     `json:"mode"`
		RolloverUnused bool           `json:"rolloverUnused"`
		Currency       string         `json:"currency"`
		CategoryLimits map[string]int `json:"categoryLimits"`
		CreatedAt      time.Time      `json:"createdAt"`
		UpdatedAt      time.Time      `json:"updatedAt"`
	}

	// BudgetPatch is a partial update of a BudgetConfig.
	BudgetPatch struct {
		TotalLimit     *int           `json:"totalLimit"`
		Mode           *BudgetMode    `json:"mode"`
		RolloverUnused *bool          `json:"rolloverUnused"`
		Currency       *string        `json:"currency"`
		CategoryLimits map[string]int `json:"categoryLimits"`
	}

	// CategoryBudget is one derived per-category row.
	CategoryBudget struct {
		Category    string   `json:"category"`
		Limit       int      `json:"limit"`
		Spent       int      `json:"spent"`
		Remaining   int      `json:"remaining"`
		PercentUsed int      `json:"percentUsed"`
		Severity    Severity `json:"severity"`
	}

	Summary struct {
		TotalLimit     int `json:"totalLimit"`
		TotalSpent     int `json:"totalSpent"`
		Remaining      int `json:"remaining"`
		PercentUsed    int `json:"percentUsed"`
		DaysInMonth    int `json:"daysInMonth"`
		DaysRemaining  int `json:"daysRemaining"`
		DailyAllowance int `json:"dailyAllowance"`
	}

	Health struct {
		Score   int      `json:"score"`
		Label   string   `json:"label"`
		Reasons []string `json:"reasons"`
	}

	Forecast struct {
		RiskCategory      string     `json:"riskCategory"`
		RiskPercent       int        `json:"riskPercent"`
		ProjectedRunoutAt *time.Time `json:"projectedRunoutAt"`
		Note              string     `json:"note"`
	}

	Suggestion struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		ImpactAmount int    `json:"impactAmount"`
		Action       string `json:"action"`
	}

	UsagePoint struct {
		Day        int `json:"day"`
		Spent      int `json:"spent"`
		BudgetLine int `json:"budgetLine"`
	}

	HeatCell struct {
		Day      int      `json:"day"`
		Value    int      `json:"value"`
		Severity Severity `json:"severity"`
	}

	HistoryMonth struct {
		Month       MonthKey `json:"month"`
		Limit       int      `json:"limit"`
		Spent       int      `json:"spent"`
		HealthScore int      `json:"healthScore"`
		Overspent   bool     `json:"overspent"`
	}

	// BudgetDTO is the full derived aggregate for one month.
	BudgetDTO struct {
		Config      BudgetConfig     `json:"config"`
		Summary     Summary          `json:"summary"`
		Health      Health           `json:"health"`
		Forecast    Forecast         `json:"forecast"`
		Suggestions []Suggestion     `json:"suggestions"`
		Categories  []CategoryBudget `json:"categories"`
		UsageSeries []UsagePoint     `json:"usageSeries"`
		Heatmap     []HeatCell       `json:"heatmap"`
		History     []HistoryMonth   `json:"history"`
	}

	// WhatIfChange is one step of a what-if scenario; Category is
	// only meaningful for CATEGORY_LIMIT, Mode for MODE.
	WhatIfChange struct {
		Kind     ChangeKind `json:"kind"`
		Category string     `json:"category,omitempty"`
		Value    int        `json:"value,omitempty"`
		Mode     BudgetMode `json:"mode,omitempty"`
	}

	WhatIfScenario struct {
		Changes []WhatIfChange `json:"changes"`
	}
)

// ValidBudgetMode reports whether m is a known mode.
func ValidBudgetMode(m BudgetMode) bool {
	switch m {
	case ModeStrict, ModeFlexible, ModeSavings:
		return true
	}
	return false
}

// Clone returns a deep copy of the config.
func (c BudgetConfig) Clone() BudgetConfig {
	if c.CategoryLimits != nil {
		limits := make(map[string]int, len(c.CategoryLimits))
		for k, v := range c.CategoryLimits {
			limits[k] = v
		}
		c.CategoryLimits = limits
	}
	return c
}

func (p BudgetPatch) Validate() error {
	if p.TotalLimit != nil && *p.TotalLimit < 0 {
		return NewValidationError("totalLimit cannot be negative")
	}
	if p.Mode != nil && !ValidBudgetMode(*p.Mode) {
		return NewValidationError("unknown budget mode %q", *p.Mode)
	}
	for cat, limit := range p.CategoryLimits {
		if cat == "" {
			return NewValidationError("category limit with empty category")
		}
		if limit < 0 {
			return NewValidationError("category limit for %q cannot be negative", cat)
		}
	}
	return nil
}

// Apply copies the set fields onto c and bumps UpdatedAt. Category
// limits are merged key by key, not replaced wholesale.
func (p BudgetPatch) Apply(c *BudgetConfig, now time.Time) {
	if p.TotalLimit != nil {
		c.TotalLimit = *p.TotalLimit
	}
	if p.Mode != nil {
		c.Mode = *p.Mode
	}
	if p.RolloverUnused != nil {
		c.RolloverUnused = *p.RolloverUnused
	}
	if p.Currency != nil {
		c.Currency = *p.Currency
	}
	if len(p.CategoryLimits) > 0 {
		if c.CategoryLimits == nil {
			c.CategoryLimits = make(map[string]int, len(p.CategoryLimits))
		}
		for cat, limit := range p.CategoryLimits {
			c.CategoryLimits[cat] = limit
		}
	}
	c.UpdatedAt = now
}

// Clone returns a deep copy of the DTO.
func (d BudgetDTO) Clone() BudgetDTO {
	out := d
	out.Config = d.Config.Clone()
	out.Health.Reasons = append([]string(nil), d.Health.Reasons...)
	if d.Forecast.ProjectedRunoutAt != nil {
		at := *d.Forecast.ProjectedRunoutAt
		out.Forecast.ProjectedRunoutAt = &at
	}
	out.Suggestions = append([]Suggestion(nil), d.Suggestions...)
	out.Categories = append([]CategoryBudget(nil), d.Categories...)
	out.UsageSeries = append([]UsagePoint(nil), d.UsageSeries...)
	out.Heatmap = append([]HeatCell(nil), d.Heatmap...)
	out.History = append([]HistoryMonth(nil), d.History...)
	return out
}

func (s WhatIfScenario) Validate() error {
	if len(s.Changes) == 0 {
		return NewValidationError("scenario has no changes")
	}
	for i, ch := range s.Changes {
		switch ch.Kind {
		case ChangeTotalLimit:
		case ChangeCategoryLimit:
			if ch.Category == "" {
				return NewValidationError("change %d: CATEGORY_LIMIT needs a category", i)
			}
		case ChangeMode:
			if !ValidBudgetMode(ch.Mode) {
				return NewValidationError("change %d: unknown budget mode %q", i, ch.Mode)
			}
		default:
			return NewValidationError("change %d: unknown change kind %q", i, ch.Kind)
		}
	}
	return nil
}
