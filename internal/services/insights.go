package services

import (
	"context"
	"sort"
	"strings"

	"paisa/internal/core"
)

type (
	// NameAmount is one aggregation bucket.
	NameAmount struct {
		Name   string `json:"name"`
		Amount int    `json:"amount"`
	}

	// DayAmount is one point of a daily spend trend.
	DayAmount struct {
		Date   string `json:"date"`
		Amount int    `json:"amount"`
	}

	// MonthInsights aggregates one month's active transactions.
	MonthInsights struct {
		Month        core.MonthKey `json:"month"`
		TotalSpent   int           `json:"totalSpent"`
		Count        int           `json:"count"`
		ByCategory   []NameAmount  `json:"byCategory"`
		ByMethod     []NameAmount  `json:"byMethod"`
		TopMerchants []NameAmount  `json:"topMerchants"`
	}

	// Dashboard is the front-page view for one month.
	Dashboard struct {
		MonthSpend      int                `json:"monthSpend"`
		MonthBudget     int                `json:"monthBudget"`
		SavingsEstimate int                `json:"savingsEstimate"`
		BiggestCategory string             `json:"biggestCategory"`
		Trend           []DayAmount        `json:"trend"`
		Categories      []NameAmount       `json:"categories"`
		Recent          []core.Transaction `json:"recent"`
	}
)

const (
	topMerchants       = 5
	dashboardTopGroups = 8
	dashboardRecent    = 5
)

func sortBuckets(m map[string]int) []NameAmount {
	out := make([]NameAmount, 0, len(m))
	for name, amount := range m {
		out = append(out, NameAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func monthActive(snapshot []core.Transaction, month core.MonthKey) []core.Transaction {
	rows := make([]core.Transaction, 0)
	for _, tx := range snapshot {
		if tx.Active() && month.Contains(tx.Timestamp) {
			rows = append(rows, tx)
		}
	}
	return rows
}

// Insights aggregates the month's spending by category, payment
// method and merchant.
func (s *LedgerService) Insights(ctx context.Context, month core.MonthKey) (MonthInsights, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return MonthInsights{}, err
	}
	rows := monthActive(snapshot, month)

	byCategory := make(map[string]int)
	byMethod := make(map[string]int)
	byMerchant := make(map[string]int)
	total := 0
	for _, tx := range rows {
		total += tx.Amount
		byCategory[tx.Category] += tx.Amount
		byMethod[string(tx.PaymentMethod)] += tx.Amount
		byMerchant[strings.TrimSpace(tx.Title)] += tx.Amount
	}

	merchants := sortBuckets(byMerchant)
	if len(merchants) > topMerchants {
		merchants = merchants[:topMerchants]
	}

	return MonthInsights{
		Month:        month,
		TotalSpent:   total,
		Count:        len(rows),
		ByCategory:   sortBuckets(byCategory),
		ByMethod:     sortBuckets(byMethod),
		TopMerchants: merchants,
	}, nil
}

// Dashboard assembles the front-page view: month totals against the
// budget limit, a daily trend, the top categories and the most recent
// transactions.
func (s *BudgetService) Dashboard(ctx context.Context, month core.MonthKey) (Dashboard, error) {
	cfg, err := s.budgets.GetOrCreate(ctx, month)
	if err != nil {
		return Dashboard{}, err
	}
	snapshot, err := s.txns.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	rows := monthActive(snapshot, month)

	byCategory := make(map[string]int)
	byDay := make(map[string]int)
	spend := 0
	for _, tx := range rows {
		spend += tx.Amount
		byCategory[tx.Category] += tx.Amount
		byDay[tx.Timestamp.UTC().Format("2006-01-02")] += tx.Amount
	}

	trend := make([]DayAmount, 0, len(byDay))
	for date, amount := range byDay {
		trend = append(trend, DayAmount{Date: date, Amount: amount})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })

	categories := sortBuckets(byCategory)
	biggest := "—"
	if len(categories) > 0 {
		biggest = categories[0].Name
	}
	if len(categories) > dashboardTopGroups {
		categories = categories[:dashboardTopGroups]
	}

	recent := append([]core.Transaction(nil), rows...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > dashboardRecent {
		recent = recent[:dashboardRecent]
	}

	savings := cfg.TotalLimit - spend
	if savings < 0 {
		savings = 0
	}

	return Dashboard{
		MonthSpend:      spend,
		MonthBudget:     cfg.TotalLimit,
		SavingsEstimate: savings,
		BiggestCategory: biggest,
		Trend:           trend,
		Categories:      categories,
		Recent:          recent,
	}, nil
}
