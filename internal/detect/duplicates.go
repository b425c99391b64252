// Package detect holds the duplicate-pair and recurring-payment
// heuristics over ledger snapshots.
package detect

import (
	"strings"

	"paisa/internal/core"
)

const (
	// The scan only looks at a bounded prefix of the ledger, which
	// keeps the pairwise comparison cheap even at the cap.
	duplicateScanLimit   = 120
	maxDuplicatePairs    = 12
	duplicateConfidence  = 0.86
	duplicateReasonMatch = "same day, same amount, similar title"
)

// DuplicatePair is one suspected duplicate: two transactions on the
// same calendar day with the same amount and near-identical titles.
type DuplicatePair struct {
	First      core.Transaction `json:"first"`
	Second     core.Transaction `json:"second"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason"`
}

// Duplicates scans the first 120 active transactions in store order
// and reports up to 12 suspected pairs. Pairs are emitted in pairwise
// scan order: every pair led by an earlier row precedes any pair led
// by a later one, so the cap always keeps the earliest-led pairs.
func Duplicates(snapshot []core.Transaction) []DuplicatePair {
	scanned := make([]core.Transaction, 0, duplicateScanLimit)
	for _, tx := range snapshot {
		if !tx.Active() {
			continue
		}
		scanned = append(scanned, tx)
		if len(scanned) == duplicateScanLimit {
			break
		}
	}

	days := make([]string, len(scanned))
	for i, tx := range scanned {
		days[i] = tx.Timestamp.UTC().Format("2006-01-02")
	}

	var pairs []DuplicatePair
	for i := range scanned {
		for j := i + 1; j < len(scanned); j++ {
			if days[i] != days[j] || scanned[i].Amount != scanned[j].Amount {
				continue
			}
			if !similarTitle(scanned[i].Title, scanned[j].Title) {
				continue
			}
			pairs = append(pairs, DuplicatePair{
				First:      scanned[i],
				Second:     scanned[j],
				Confidence: duplicateConfidence,
				Reason:     duplicateReasonMatch,
			})
			if len(pairs) == maxDuplicatePairs {
				return pairs
			}
		}
	}
	return pairs
}

// similarTitle reports containment in either direction, ignoring case.
func similarTitle(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
