package http

import (
	"net/http"
	"time"

	"paisa/internal/core"
)

// monthParam reads the month query parameter, defaulting to the
// current month when absent.
func monthParam(r *http.Request) (core.MonthKey, error) {
	v := r.URL.Query().Get("month")
	if v == "" {
		return core.MonthKeyOf(time.Now()), nil
	}
	return core.ParseMonthKey(v)
}

// monthPath reads and validates the month path segment.
func monthPath(r *http.Request) (core.MonthKey, error) {
	return core.ParseMonthKey(r.PathValue("month"))
}

func (s *Server) handleBudgetMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.budgets.Months(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": months})
}

// handleGetBudget returns {"budget": null} for a month that was
// never configured; asking is not an error.
func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := monthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dto, ok, err := s.budgets.View(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"budget": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": dto})
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var cfg core.BudgetConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	month, err := core.ParseMonthKey(string(cfg.Month))
	if err != nil {
		writeError(w, r, err)
		return
	}
	cfg.Month = month
	dto, err := s.budgets.Create(r.Context(), cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"budget": dto})
}

func (s *Server) handlePatchBudget(w http.ResponseWriter, r *http.Request) {
	month, err := monthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p core.BudgetPatch
	if err := decodeJSON(r, &p); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	dto, err := s.budgets.Patch(r.Context(), month, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": dto})
}

func (s *Server) handleCloneBudget(w http.ResponseWriter, r *http.Request) {
	source, err := monthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body clonePayload
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	target, err := core.ParseMonthKey(body.Target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dto, err := s.budgets.Clone(r.Context(), source, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": dto})
}

func (s *Server) handleResetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := monthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dto, err := s.budgets.Reset(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": dto})
}

func (s *Server) handleWhatIf(w http.ResponseWriter, r *http.Request) {
	var body whatIfPayload
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	month, err := core.ParseMonthKey(body.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dto, err := s.budgets.WhatIf(r.Context(), month, body.Scenario)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": dto})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dash, err := s.budgets.Dashboard(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
