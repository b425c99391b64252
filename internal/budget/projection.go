package budget

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"paisa/internal/core"
)

// ProjectionFunc supplies the per-day deviation in [-1, 1] used by the
// usage series and heatmap. It must be deterministic so derived views
// are reproducible for a fixed ledger.
type ProjectionFunc func(month core.MonthKey, day int) float64

// HashProjection is the default projection: an FNV-1a hash of
// month+day scaled into [-1, 1].
func HashProjection(month core.MonthKey, day int) float64 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", month, day)
	return float64(h.Sum32())/float64(math.MaxUint32)*2 - 1
}

// ReferenceDayFunc decides which day of the month "today" is when
// computing days-remaining figures.
type ReferenceDayFunc func(month core.MonthKey, now time.Time) int

// DefaultReferenceDay uses the real calendar day for the current
// month and pins every other month to day 18, so historical and
// future months produce stable demo numbers.
func DefaultReferenceDay(month core.MonthKey, now time.Time) int {
	days := month.Days()
	if core.MonthKeyOf(now) == month {
		day := now.UTC().Day()
		if day > days {
			return days
		}
		return day
	}
	if days < 18 {
		return days
	}
	return 18
}
