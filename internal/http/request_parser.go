package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"paisa/internal/core"
	"paisa/internal/query"
)

// maxBodyBytes caps request bodies; nothing this API accepts is big.
const maxBodyBytes = 1 << 20

// defaultLimit is the page size when the request does not name one.
const defaultLimit = 25

// decodeJSON reads the request body into dst, rejecting unknown
// fields and trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

func intParam(q url.Values, key string) int {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// parseTimeParam accepts RFC3339 or a plain date. A plain date used
// as a range end covers the whole day.
func parseTimeParam(v string, endOfDay bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, core.NewValidationError("invalid time %q", v)
	}
	if endOfDay {
		ts = ts.Add(24*time.Hour - time.Nanosecond)
	}
	return ts.UTC(), nil
}

// parseFilterSpec builds a query spec from URL parameters. Unset sort
// and pagination parameters fall back to newest-first, 25 per page.
// Semantic validation (month format, range order) happens in the
// query engine.
func parseFilterSpec(q url.Values) (query.FilterSpec, error) {
	from, err := parseTimeParam(q.Get("from"), false)
	if err != nil {
		return query.FilterSpec{}, err
	}
	to, err := parseTimeParam(q.Get("to"), true)
	if err != nil {
		return query.FilterSpec{}, err
	}

	order := query.SortOrder(strings.TrimSpace(q.Get("sortOrder")))
	if order == "" {
		order = query.OrderDesc
	}
	limit := intParam(q, "limit")
	if limit == 0 {
		limit = defaultLimit
	}

	return query.FilterSpec{
		Timeframe:     query.Timeframe(strings.TrimSpace(q.Get("timeframe"))),
		Month:         strings.TrimSpace(q.Get("month")),
		Quarter:       strings.TrimSpace(q.Get("quarter")),
		Year:          intParam(q, "year"),
		From:          from,
		To:            to,
		Search:        strings.TrimSpace(q.Get("search")),
		Category:      strings.TrimSpace(q.Get("category")),
		PaymentMethod: strings.TrimSpace(q.Get("paymentMethod")),
		SortField:     query.SortField(strings.TrimSpace(q.Get("sort"))),
		SortOrder:     order,
		Page:          intParam(q, "page"),
		Limit:         limit,
	}, nil
}

// filterParams is the JSON body form of a filter, used by
// filter-scoped bulk operations.
type filterParams struct {
	Timeframe     string `json:"timeframe"`
	Month         string `json:"month"`
	Quarter       string `json:"quarter"`
	Year          int    `json:"year"`
	From          string `json:"from"`
	To            string `json:"to"`
	Search        string `json:"search"`
	Category      string `json:"category"`
	PaymentMethod string `json:"paymentMethod"`
}

func (p filterParams) spec() (query.FilterSpec, error) {
	from, err := parseTimeParam(p.From, false)
	if err != nil {
		return query.FilterSpec{}, err
	}
	to, err := parseTimeParam(p.To, true)
	if err != nil {
		return query.FilterSpec{}, err
	}
	return query.FilterSpec{
		Timeframe:     query.Timeframe(p.Timeframe),
		Month:         p.Month,
		Quarter:       p.Quarter,
		Year:          p.Year,
		From:          from,
		To:            to,
		Search:        p.Search,
		Category:      p.Category,
		PaymentMethod: p.PaymentMethod,
	}, nil
}

type (
	idsPayload struct {
		IDs []string `json:"ids"`
	}

	bulkUpdatePayload struct {
		IDs   []string              `json:"ids"`
		Patch core.TransactionPatch `json:"patch"`
	}

	filterScopePayload struct {
		Filter     filterParams `json:"filter"`
		ExcludeIDs []string     `json:"excludeIds"`
	}

	filterUpdatePayload struct {
		Filter     filterParams          `json:"filter"`
		ExcludeIDs []string              `json:"excludeIds"`
		Patch      core.TransactionPatch `json:"patch"`
	}

	clonePayload struct {
		Target string `json:"target"`
	}

	whatIfPayload struct {
		Month    string              `json:"month"`
		Scenario core.WhatIfScenario `json:"scenario"`
	}
)
