// Package seed fills the memory backend with a deterministic demo
// ledger so every boot serves identical data.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"paisa/internal/core"
	"paisa/internal/ledger"
)

// A fixed source keeps the generated ledger identical across runs.
const randSeed = 20260201

var categories = []string{
	"Food & Dining",
	"Transport",
	"Shopping",
	"Bills",
	"Entertainment",
	"Health",
	"Rent",
	"Groceries",
}

var methods = []core.PaymentMethod{
	core.MethodUPI,
	core.MethodCard,
	core.MethodNetBanking,
	core.MethodCash,
}

var titlePools = map[string][]string{
	"Food & Dining": {"Swiggy", "Zomato", "Cafe", "Restaurant"},
	"Transport":     {"Metro", "Fuel", "Uber", "Auto"},
	"Shopping":      {"Amazon", "Myntra", "Flipkart", "Store"},
	"Bills":         {"Electricity", "Wifi", "Mobile Recharge", "Gas"},
	"Health":        {"Pharmacy", "Doctor", "Protein", "Lab Test"},
	"Entertainment": {"Movie", "OTT", "Games", "Event"},
	"Groceries":     {"BigBasket", "DMart", "Local Store"},
	"Rent":          {"House Rent"},
}

// Generate produces count demo transactions for the year 2026, newest
// first.
func Generate(count int) []core.NewTransaction {
	rng := rand.New(rand.NewSource(randSeed))
	randInt := func(min, max int) int {
		return rng.Intn(max-min+1) + min
	}

	out := make([]core.NewTransaction, 0, count)
	for i := 0; i < count; i++ {
		month := randInt(1, 12)
		day := randInt(1, 28)
		hour := randInt(0, 23)
		min := randInt(0, 59)

		category := categories[randInt(0, len(categories)-1)]
		method := methods[randInt(0, len(methods)-1)]

		var amount int
		switch category {
		case "Rent":
			amount = randInt(8000, 22000)
		case "Bills":
			amount = randInt(500, 3500)
		default:
			amount = randInt(80, 3500)
		}

		pool := titlePools[category]
		title := pool[randInt(0, len(pool)-1)]

		out = append(out, core.NewTransaction{
			Title:         title,
			Category:      category,
			Amount:        amount,
			Timestamp:     time.Date(2026, time.Month(month), day, hour, min, 0, 0, time.UTC),
			PaymentMethod: method,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Populate inserts count generated transactions into the store.
func Populate(ctx context.Context, store ledger.TransactionStore, count int) error {
	for _, n := range Generate(count) {
		if _, err := store.Create(ctx, n); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
	}
	return nil
}
