package detect

import (
	"fmt"
	"testing"
	"time"

	"paisa/internal/core"
)

func cardTx(id, title string, amount int, ts time.Time) core.Transaction {
	t := tx(id, title, amount, ts)
	t.PaymentMethod = core.MethodCard
	return t
}

func TestRecurringNetflix(t *testing.T) {
	snapshot := []core.Transaction{
		cardTx("a", "Netflix", 649, time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)),
		cardTx("b", "Netflix", 649, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)),
		cardTx("c", "Netflix", 651, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)),
	}

	items := Recurring(snapshot)
	if len(items) != 1 {
		t.Fatalf("items = %d, want exactly 1", len(items))
	}
	got := items[0]
	if got.Title != "Netflix" || got.PaymentMethod != core.MethodCard {
		t.Errorf("item key = %s/%s", got.Title, got.PaymentMethod)
	}
	if got.Count != 3 {
		t.Errorf("count = %d, want 3", got.Count)
	}
	// mean(649, 649, 651) = 649.67, rounded.
	if got.AvgAmount != 650 {
		t.Errorf("avgAmount = %d, want 650", got.AvgAmount)
	}
	if got.Cadence != "Monthly" {
		t.Errorf("cadence = %q", got.Cadence)
	}
	lastSeen := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	if !got.LastSeen.Equal(lastSeen) {
		t.Errorf("lastSeen = %v, want %v", got.LastSeen, lastSeen)
	}
	if !got.NextDue.Equal(lastSeen.AddDate(0, 0, 30)) {
		t.Errorf("nextDue = %v, want lastSeen+30d", got.NextDue)
	}
}

func TestRecurringGroupKey(t *testing.T) {
	ts := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	// Same title, different payment methods: two groups of 2, neither
	// reaches the threshold.
	snapshot := []core.Transaction{
		cardTx("a", "Spotify", 119, ts),
		cardTx("b", "Spotify", 119, ts.AddDate(0, 1, 0)),
		tx("c", "Spotify", 119, ts),
		tx("d", "Spotify", 119, ts.AddDate(0, 1, 0)),
	}
	if items := Recurring(snapshot); len(items) != 0 {
		t.Errorf("items = %v, want none below threshold", items)
	}

	// Title matching is case-insensitive.
	snapshot = []core.Transaction{
		cardTx("a", "netflix", 649, ts),
		cardTx("b", "Netflix", 649, ts.AddDate(0, 1, 0)),
		cardTx("c", "NETFLIX", 649, ts.AddDate(0, 2, 0)),
	}
	if items := Recurring(snapshot); len(items) != 1 {
		t.Errorf("case-insensitive grouping failed: %v", items)
	}
}

func TestRecurringSortedAndCapped(t *testing.T) {
	ts := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	var snapshot []core.Transaction
	for g := 0; g < 10; g++ {
		title := fmt.Sprintf("Sub %02d", 9-g) // insert in reverse order
		for i := 0; i < 3; i++ {
			snapshot = append(snapshot, cardTx(fmt.Sprintf("%d-%d", g, i), title, 100, ts.AddDate(0, i, 0)))
		}
	}

	items := Recurring(snapshot)
	if len(items) != 8 {
		t.Fatalf("items = %d, want capped at 8", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Title > items[i].Title {
			t.Fatalf("items not sorted: %q before %q", items[i-1].Title, items[i].Title)
		}
	}
	if items[0].Title != "Sub 00" {
		t.Errorf("first item = %q, want Sub 00", items[0].Title)
	}
}
