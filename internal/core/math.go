package core

import "math"

// Clamp bounds v to the closed interval [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds half away from zero to the nearest integer.
func Round(v float64) int {
	return int(math.Round(v))
}

// Pct returns used as a percentage of total, rounded and clamped to
// [0, 100]. A zero total always yields 0.
func Pct(used, total int) int {
	if total == 0 {
		return 0
	}
	return Clamp(Round(float64(used)/float64(total)*100), 0, 100)
}

// Severity grades a utilization percentage.
type Severity string

const (
	SeverityOK     Severity = "OK"
	SeverityWarn   Severity = "WARN"
	SeverityDanger Severity = "DANGER"
)

// SeverityFromPct maps a percentage to a severity band.
func SeverityFromPct(p int) Severity {
	switch {
	case p >= 100:
		return SeverityDanger
	case p >= 75:
		return SeverityWarn
	default:
		return SeverityOK
	}
}
