package detect

import (
	"sort"
	"strings"
	"time"

	"paisa/internal/core"
)

const (
	recurringMinCount = 3
	maxRecurringItems = 8
	nextDueOffsetDays = 30
)

// RecurringItem is a payment that shows up repeatedly under the same
// title and payment method.
type RecurringItem struct {
	Title         string             `json:"title"`
	PaymentMethod core.PaymentMethod `json:"paymentMethod"`
	Count         int                `json:"count"`
	AvgAmount     int                `json:"avgAmount"`
	Cadence       string             `json:"cadence"`
	LastSeen      time.Time          `json:"lastSeen"`
	NextDue       time.Time          `json:"nextDue"`
}

type recurringKey struct {
	title  string
	method core.PaymentMethod
}

// Recurring groups active transactions by (lowercased title, payment
// method) and reports groups of three or more, sorted by title then
// method, capped at 8.
func Recurring(snapshot []core.Transaction) []RecurringItem {
	type group struct {
		display  string
		method   core.PaymentMethod
		total    int
		count    int
		lastSeen time.Time
	}

	groups := make(map[recurringKey]*group)
	for _, tx := range snapshot {
		if !tx.Active() {
			continue
		}
		key := recurringKey{title: strings.ToLower(tx.Title), method: tx.PaymentMethod}
		g, ok := groups[key]
		if !ok {
			g = &group{display: tx.Title, method: tx.PaymentMethod}
			groups[key] = g
		}
		g.total += tx.Amount
		g.count++
		ts := tx.Timestamp.UTC()
		if ts.After(g.lastSeen) {
			g.lastSeen = ts
		}
	}

	items := make([]RecurringItem, 0, len(groups))
	for _, g := range groups {
		if g.count < recurringMinCount {
			continue
		}
		items = append(items, RecurringItem{
			Title:         g.display,
			PaymentMethod: g.method,
			Count:         g.count,
			AvgAmount:     core.Round(float64(g.total) / float64(g.count)),
			Cadence:       "Monthly",
			LastSeen:      g.lastSeen,
			NextDue:       g.lastSeen.AddDate(0, 0, nextDueOffsetDays),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		ti, tj := strings.ToLower(items[i].Title), strings.ToLower(items[j].Title)
		if ti != tj {
			return ti < tj
		}
		return items[i].PaymentMethod < items[j].PaymentMethod
	})

	if len(items) > maxRecurringItems {
		items = items[:maxRecurringItems]
	}
	return items
}
