// Package budget derives the full per-month budget view (summary,
// health, forecast, suggestions, usage series, heatmap, history) from
// a budget configuration and a ledger snapshot.
package budget

import (
	"fmt"
	"sort"
	"time"

	"paisa/internal/core"
)

const (
	historyMonths   = 6
	runoutOffsetDay = 6
	maxSuggestions  = 4
)

// Engine derives budget views. The zero value is not usable; call
// NewEngine, then override Projection, ReferenceDay or Now for tests.
type Engine struct {
	Projection   ProjectionFunc
	ReferenceDay ReferenceDayFunc
	Now          func() time.Time
}

// NewEngine returns an engine with the default deterministic
// projection and reference-day rules.
func NewEngine() *Engine {
	return &Engine{
		Projection:   HashProjection,
		ReferenceDay: DefaultReferenceDay,
		Now:          time.Now,
	}
}

// SpentByCategory sums active transactions of the configured month by
// category.
func SpentByCategory(month core.MonthKey, snapshot []core.Transaction) map[string]int {
	spent := make(map[string]int)
	for _, tx := range snapshot {
		if !tx.Active() || !month.Contains(tx.Timestamp) {
			continue
		}
		spent[tx.Category] += tx.Amount
	}
	return spent
}

// categoryRows builds the derived per-category rows: the union of
// configured limits and categories seen in the month's transactions,
// sorted by name. A category without a configured limit gets an even
// share of the total limit.
func categoryRows(cfg core.BudgetConfig, spent map[string]int) []core.CategoryBudget {
	names := make(map[string]bool, len(cfg.CategoryLimits)+len(spent))
	for cat := range cfg.CategoryLimits {
		names[cat] = true
	}
	for cat := range spent {
		names[cat] = true
	}

	ordered := make([]string, 0, len(names))
	for cat := range names {
		ordered = append(ordered, cat)
	}
	sort.Strings(ordered)

	fallback := core.Round(float64(cfg.TotalLimit) / float64(max(1, len(ordered))))
	rows := make([]core.CategoryBudget, 0, len(ordered))
	for _, cat := range ordered {
		limit, ok := cfg.CategoryLimits[cat]
		if !ok {
			limit = fallback
		}
		rows = append(rows, categoryRow(cat, limit, spent[cat]))
	}
	return rows
}

func categoryRow(category string, limit, spent int) core.CategoryBudget {
	pct := core.Pct(spent, limit)
	return core.CategoryBudget{
		Category:    category,
		Limit:       limit,
		Spent:       spent,
		Remaining:   limit - spent,
		PercentUsed: pct,
		Severity:    core.SeverityFromPct(pct),
	}
}

func (e *Engine) computeSummary(cfg core.BudgetConfig, totalSpent int, now time.Time) core.Summary {
	days := cfg.Month.Days()
	refDay := e.ReferenceDay(cfg.Month, now)
	remaining := cfg.TotalLimit - totalSpent
	daysRemaining := days - refDay

	var allowance int
	if daysRemaining > 0 {
		allowance = core.Round(float64(remaining) / float64(daysRemaining))
	} else {
		allowance = remaining
	}
	if allowance < 0 {
		allowance = 0
	}

	return core.Summary{
		TotalLimit:     cfg.TotalLimit,
		TotalSpent:     totalSpent,
		Remaining:      remaining,
		PercentUsed:    core.Pct(totalSpent, cfg.TotalLimit),
		DaysInMonth:    days,
		DaysRemaining:  daysRemaining,
		DailyAllowance: allowance,
	}
}

func computeHealth(s core.Summary) core.Health {
	score := 100 - s.PercentUsed
	if score < 0 {
		score = 0
	}

	var label string
	switch {
	case score >= 70:
		label = "Great"
	case score >= 50:
		label = "Good"
	case score >= 30:
		label = "At Risk"
	default:
		label = "Critical"
	}

	var reasons []string
	if s.PercentUsed >= 90 {
		reasons = append(reasons, "You have used 90%+ of this month's budget.")
	}
	if s.DailyAllowance < 300 {
		reasons = append(reasons, "Daily spending allowance is running low.")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Spending is within a healthy range.")
	}

	return core.Health{Score: score, Label: label, Reasons: reasons}
}

func (e *Engine) computeForecast(s core.Summary, categories []core.CategoryBudget, now time.Time) core.Forecast {
	f := core.Forecast{Note: "No immediate budget risk detected."}
	for _, row := range categories {
		if row.PercentUsed > f.RiskPercent || f.RiskCategory == "" {
			f.RiskCategory = row.Category
			f.RiskPercent = row.PercentUsed
		}
	}

	if s.PercentUsed >= 85 {
		runout := now.UTC().AddDate(0, 0, runoutOffsetDay)
		f.ProjectedRunoutAt = &runout
		f.Note = fmt.Sprintf("At the current burn rate the budget runs out around %s.", runout.Format("Jan 2"))
	}
	if f.RiskCategory != "" && f.RiskPercent >= 100 {
		f.Note = fmt.Sprintf("%s is already over its limit.", f.RiskCategory)
	}
	return f
}

func computeSuggestions(s core.Summary, categories []core.CategoryBudget, mode core.BudgetMode) []core.Suggestion {
	var out []core.Suggestion

	var top *core.CategoryBudget
	for i := range categories {
		if top == nil || categories[i].Spent > top.Spent {
			top = &categories[i]
		}
	}
	if top != nil {
		out = append(out, core.Suggestion{
			ID:           "tighten-top-category",
			Title:        fmt.Sprintf("Tighten %s by 10%%", top.Category),
			Description:  fmt.Sprintf("%s is your biggest spend this month. Lowering its limit keeps the total in check.", top.Category),
			ImpactAmount: core.Round(float64(top.Limit) * 0.1),
			Action:       "TUNE_LIMITS",
		})
	}
	if mode != core.ModeSavings {
		out = append(out, core.Suggestion{
			ID:           "switch-savings-mode",
			Title:        "Switch to SAVINGS mode",
			Description:  "Savings mode adds guardrails before discretionary spends.",
			ImpactAmount: 1500,
			Action:       "ENABLE_GUARDRAIL",
		})
	}
	if s.DailyAllowance < 400 {
		out = append(out, core.Suggestion{
			ID:           "reallocate-underused",
			Title:        "Reallocate from underused categories",
			Description:  "Move unspent limit into the categories you actually use.",
			ImpactAmount: 800,
			Action:       "APPLY_REALLOCATE",
		})
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func (e *Engine) buildUsageSeries(month core.MonthKey, totalLimit, totalSpent int) []core.UsagePoint {
	days := month.Days()
	points := make([]core.UsagePoint, 0, days)
	acc := 0
	for day := 1; day <= days; day++ {
		frac := float64(day) / float64(days)
		target := core.Round(float64(totalSpent) * frac)
		wobble := core.Round(e.Projection(month, day) * 0.03 * float64(totalSpent))
		if target+wobble > acc {
			acc = target + wobble
		}
		spent := acc
		if spent < 0 {
			spent = 0
		}
		points = append(points, core.UsagePoint{
			Day:        day,
			Spent:      spent,
			BudgetLine: core.Round(float64(totalLimit) * frac),
		})
	}
	return points
}

func (e *Engine) buildHeatmap(month core.MonthKey, totalSpent int) []core.HeatCell {
	days := month.Days()
	base := float64(totalSpent) / float64(days)
	cells := make([]core.HeatCell, 0, days)
	for day := 1; day <= days; day++ {
		value := core.Round(base + base*0.4*e.Projection(month, day))
		if value < 0 {
			value = 0
		}
		// Severity grades against the fractional base; rounding it
		// first flips boundary days.
		pct := 0
		if base > 0 {
			pct = core.Clamp(core.Round(float64(value)/base*100), 0, 100)
		}
		cells = append(cells, core.HeatCell{
			Day:      day,
			Value:    value,
			Severity: core.SeverityFromPct(pct),
		})
	}
	return cells
}

func buildHistory(month core.MonthKey, totalLimit, totalSpent, healthScore int) []core.HistoryMonth {
	out := make([]core.HistoryMonth, 0, historyMonths)
	for i := historyMonths - 1; i >= 0; i-- {
		limit := core.Round(float64(totalLimit) * (0.95 + float64(i)*0.01))
		spent := core.Round(float64(totalSpent) * (0.9 + float64(i)*0.02))
		out = append(out, core.HistoryMonth{
			Month:       month.AddMonths(-i),
			Limit:       limit,
			Spent:       spent,
			HealthScore: core.Clamp(healthScore+(i-2)*4, 0, 100),
			Overspent:   spent > limit,
		})
	}
	return out
}

// derive completes a DTO from a config and already-built category
// rows. Simulation re-enters here after mutating a copy.
func (e *Engine) derive(cfg core.BudgetConfig, categories []core.CategoryBudget) core.BudgetDTO {
	now := e.Now()
	totalSpent := 0
	for _, row := range categories {
		totalSpent += row.Spent
	}

	summary := e.computeSummary(cfg, totalSpent, now)
	health := computeHealth(summary)

	return core.BudgetDTO{
		Config:      cfg,
		Summary:     summary,
		Health:      health,
		Forecast:    e.computeForecast(summary, categories, now),
		Suggestions: computeSuggestions(summary, categories, cfg.Mode),
		Categories:  categories,
		UsageSeries: e.buildUsageSeries(cfg.Month, cfg.TotalLimit, totalSpent),
		Heatmap:     e.buildHeatmap(cfg.Month, totalSpent),
		History:     buildHistory(cfg.Month, cfg.TotalLimit, totalSpent, health.Score),
	}
}

// Derive builds the full budget view for the config's month from a
// ledger snapshot.
func (e *Engine) Derive(cfg core.BudgetConfig, snapshot []core.Transaction) core.BudgetDTO {
	spent := SpentByCategory(cfg.Month, snapshot)
	return e.derive(cfg.Clone(), categoryRows(cfg, spent))
}
