// Package query filters, sorts and paginates ledger snapshots. Every
// function here is pure over the snapshot it is handed.
package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"paisa/internal/core"
)

const (
	TimeframeMonth   Timeframe = "month"
	TimeframeQuarter Timeframe = "quarter"
	TimeframeYear    Timeframe = "year"
	TimeframeRange   Timeframe = "range"
	TimeframeAll     Timeframe = "all"
)

const (
	SortDate    SortField = "date"
	SortAmount  SortField = "amount"
	SortTitle   SortField = "title"
	SortCat     SortField = "category"
	SortMethod  SortField = "paymentMethod"
	OrderAsc    SortOrder = "asc"
	OrderDesc   SortOrder = "desc"
	AllSentinel           = "All"
)

const (
	MinLimit = 10
	MaxLimit = 100
)

type (
	Timeframe string
	SortField string
	SortOrder string

	// FilterSpec describes one query. Zero values mean "no filter";
	// Category and PaymentMethod additionally treat "All" as no
	// filter.
	FilterSpec struct {
		Timeframe     Timeframe
		Month         string
		Quarter       string
		Year          int
		From          time.Time
		To            time.Time
		Search        string
		Category      string
		PaymentMethod string
		SortField     SortField
		SortOrder     SortOrder
		Page          int
		Limit         int
	}

	// Result is one page of matches plus the unpaginated match count.
	Result struct {
		Rows  []core.Transaction `json:"rows"`
		Total int                `json:"total"`
	}
)

// Fingerprint is a stable identity of the filtering part of the spec
// (sort and pagination excluded). Selections are only valid for the
// fingerprint they were made under.
func (s FilterSpec) Fingerprint() string {
	var b strings.Builder
	for _, part := range []string{
		string(s.Timeframe), s.Month, s.Quarter, strconv.Itoa(s.Year),
		s.From.UTC().Format(time.RFC3339), s.To.UTC().Format(time.RFC3339),
		s.Search, s.Category, s.PaymentMethod,
	} {
		b.WriteString(part)
		b.WriteByte('|')
	}
	return b.String()
}

// timeframePredicate compiles the timeframe part of the spec into a
// per-row predicate. Malformed month and quarter keys are validation
// errors, not silent fallthrough.
func timeframePredicate(s FilterSpec) (func(core.Transaction) bool, error) {
	switch s.Timeframe {
	case TimeframeMonth:
		key, err := core.ParseMonthKey(s.Month)
		if err != nil {
			return nil, err
		}
		return func(t core.Transaction) bool { return key.Contains(t.Timestamp) }, nil
	case TimeframeQuarter:
		keys, err := core.QuarterMonths(s.Quarter)
		if err != nil {
			return nil, err
		}
		return func(t core.Transaction) bool {
			k := core.MonthKeyOf(t.Timestamp)
			for _, key := range keys {
				if k == key {
					return true
				}
			}
			return false
		}, nil
	case TimeframeYear:
		if s.Year < 1 {
			return nil, core.NewValidationError("invalid year %d", s.Year)
		}
		return func(t core.Transaction) bool { return t.Timestamp.UTC().Year() == s.Year }, nil
	case TimeframeRange:
		if s.From.IsZero() || s.To.IsZero() {
			return nil, core.NewValidationError("range timeframe needs from and to")
		}
		if s.To.Before(s.From) {
			return nil, core.NewValidationError("range end precedes start")
		}
		from, to := s.From.UTC(), s.To.UTC()
		return func(t core.Transaction) bool {
			ts := t.Timestamp.UTC()
			return !ts.Before(from) && !ts.After(to)
		}, nil
	case TimeframeAll, "":
		return func(core.Transaction) bool { return true }, nil
	}
	return nil, core.NewValidationError("unknown timeframe %q", s.Timeframe)
}

func matches(s FilterSpec, t core.Transaction) bool {
	if search := strings.ToLower(strings.TrimSpace(s.Search)); search != "" {
		if !strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Category), search) &&
			!strings.Contains(strings.ToLower(string(t.PaymentMethod)), search) {
			return false
		}
	}
	if s.Category != "" && s.Category != AllSentinel && t.Category != s.Category {
		return false
	}
	if s.PaymentMethod != "" && s.PaymentMethod != AllSentinel && string(t.PaymentMethod) != s.PaymentMethod {
		return false
	}
	return true
}

func sortRows(rows []core.Transaction, field SortField, order SortOrder) {
	desc := order == OrderDesc
	less := func(i, j int) bool {
		var cmp int
		switch field {
		case SortAmount:
			cmp = rows[i].Amount - rows[j].Amount
		case SortTitle:
			cmp = strings.Compare(strings.ToLower(rows[i].Title), strings.ToLower(rows[j].Title))
		case SortCat:
			cmp = strings.Compare(strings.ToLower(rows[i].Category), strings.ToLower(rows[j].Category))
		case SortMethod:
			cmp = strings.Compare(strings.ToLower(string(rows[i].PaymentMethod)), strings.ToLower(string(rows[j].PaymentMethod)))
		default: // SortDate
			switch {
			case rows[i].Timestamp.Before(rows[j].Timestamp):
				cmp = -1
			case rows[i].Timestamp.After(rows[j].Timestamp):
				cmp = 1
			}
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	}
	sort.SliceStable(rows, less)
}

// match runs the filter pipeline without pagination.
func match(snapshot []core.Transaction, s FilterSpec) ([]core.Transaction, error) {
	inFrame, err := timeframePredicate(s)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(snapshot))
	for _, t := range snapshot {
		if !inFrame(t) || !t.Active() || !matches(s, t) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Apply runs the full pipeline: timeframe, active-only, search, exact
// filters, stable sort, page slice. Limit is clamped to [10, 100] and
// page to at least 1.
func Apply(snapshot []core.Transaction, s FilterSpec) (Result, error) {
	rows, err := match(snapshot, s)
	if err != nil {
		return Result{}, err
	}

	sortRows(rows, s.SortField, s.SortOrder)

	total := len(rows)
	limit := core.Clamp(s.Limit, MinLimit, MaxLimit)
	page := s.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return Result{Rows: []core.Transaction{}, Total: total}, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return Result{Rows: rows[start:end], Total: total}, nil
}

// MatchIDs returns the ids of every row matching the spec, ignoring
// sort and pagination. Used by filter-scoped bulk operations.
func MatchIDs(snapshot []core.Transaction, s FilterSpec) ([]string, error) {
	rows, err := match(snapshot, s)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, t := range rows {
		ids[i] = t.ID
	}
	return ids, nil
}
