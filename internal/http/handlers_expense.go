package http

import (
	"context"
	"net/http"

	"paisa/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.Query(r.Context(), spec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var n core.NewTransaction
	if err := decodeJSON(r, &n); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	tx, err := s.ledger.Create(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handlePatchExpense(w http.ResponseWriter, r *http.Request) {
	var p core.TransactionPatch
	if err := decodeJSON(r, &p); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	tx, err := s.ledger.Patch(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// countResponse is the wire shape of every bulk operation result.
type countResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

func (s *Server) handleSoftDelete(w http.ResponseWriter, r *http.Request) {
	s.handleIDsOp(w, r, s.ledger.SoftDelete)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	s.handleIDsOp(w, r, s.ledger.Restore)
}

func (s *Server) handleHardDelete(w http.ResponseWriter, r *http.Request) {
	s.handleIDsOp(w, r, s.ledger.HardDelete)
}

func (s *Server) handleIDsOp(w http.ResponseWriter, r *http.Request, op func(context.Context, []string) (int, error)) {
	var body idsPayload
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if len(body.IDs) == 0 {
		writeBadRequest(w, "ids is required")
		return
	}
	count, err := op(r.Context(), body.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{OK: true, Count: count})
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var body bulkUpdatePayload
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if len(body.IDs) == 0 {
		writeBadRequest(w, "ids is required")
		return
	}
	count, err := s.ledger.BulkPatch(r.Context(), body.IDs, body.Patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{OK: true, Count: count})
}

func (s *Server) handleSoftDeleteByFilter(w http.ResponseWriter, r *http.Request) {
	var body filterScopePayload
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	spec, err := body.Filter.spec()
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := s.ledger.SoftDeleteByFilter(r.Context(), spec, body.ExcludeIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{OK: true, Count: count})
}

func (s *Server) handleBulkUpdateByFilter(w http.ResponseWriter, r *http.Request) {
	var body filterUpdatePayload
	if err := decodeJSON(r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	spec, err := body.Filter.spec()
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := s.ledger.BulkPatchByFilter(r.Context(), spec, body.ExcludeIDs, body.Patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{OK: true, Count: count})
}

func (s *Server) handleTrash(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.ledger.Trash(r.Context(), q.Get("search"), intParam(q, "page"), intParam(q, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	items, err := s.ledger.Recurring(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.ledger.Duplicates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pairs": pairs})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ins, err := s.ledger.Insights(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}
