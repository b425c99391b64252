package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// ParseMonthKey validates and normalizes a month key. A single-digit
// month is padded ("2026-3" becomes "2026-03").
func ParseMonthKey(s string) (MonthKey, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return "", NewValidationError("invalid month %q, want YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 || len(parts[0]) != 4 {
		return "", NewValidationError("invalid month %q, want YYYY-MM", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return "", NewValidationError("invalid month %q, want YYYY-MM", s)
	}
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month)), nil
}

// MonthKeyOf returns the month key of the instant t in UTC.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.UTC().Format("2006-01"))
}

// Year returns the year component of the key.
func (m MonthKey) Year() int {
	y, _ := strconv.Atoi(string(m)[:4])
	return y
}

// Month returns the month component of the key (1..12).
func (m MonthKey) Month() int {
	mo, _ := strconv.Atoi(string(m)[5:])
	return mo
}

// Days returns the number of calendar days in the month.
func (m MonthKey) Days() int {
	return time.Date(m.Year(), time.Month(m.Month())+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// First returns midnight UTC of the first day of the month.
func (m MonthKey) First() time.Time {
	return time.Date(m.Year(), time.Month(m.Month()), 1, 0, 0, 0, 0, time.UTC)
}

// Last returns the last instant of the month (exclusive upper bound is
// First of the next month; Last is the final nanosecond before it).
func (m MonthKey) Last() time.Time {
	return m.AddMonths(1).First().Add(-time.Nanosecond)
}

// AddMonths returns the key shifted by n calendar months.
func (m MonthKey) AddMonths(n int) MonthKey {
	t := time.Date(m.Year(), time.Month(m.Month()+n), 1, 0, 0, 0, 0, time.UTC)
	return MonthKeyOf(t)
}

// Contains reports whether the instant t falls inside the month (UTC).
func (m MonthKey) Contains(t time.Time) bool {
	return MonthKeyOf(t) == m
}

// QuarterMonths expands a quarter key "YYYY-Qn" into its three month
// keys. Malformed input is a validation error.
func QuarterMonths(s string) ([]MonthKey, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 || len(parts[1]) != 2 || (parts[1][0] != 'Q' && parts[1][0] != 'q') {
		return nil, NewValidationError("invalid quarter %q, want YYYY-Qn", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return nil, NewValidationError("invalid quarter %q, want YYYY-Qn", s)
	}
	q := int(parts[1][1] - '0')
	if q < 1 || q > 4 {
		return nil, NewValidationError("invalid quarter %q, want YYYY-Qn", s)
	}
	first := (q-1)*3 + 1
	keys := make([]MonthKey, 0, 3)
	for i := 0; i < 3; i++ {
		keys = append(keys, MonthKey(fmt.Sprintf("%04d-%02d", year, first+i)))
	}
	return keys, nil
}
