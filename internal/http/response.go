package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"paisa/internal/core"
)

// errorEnvelope is the wire shape of every error response.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain error kinds to status codes. Anything that
// is neither a validation nor a not-found error is a 500 and the
// message is not leaked to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorEnvelope{
			Error: errorBody{Kind: "validation", Message: err.Error()},
		})
	case core.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorEnvelope{
			Error: errorBody{Kind: "not_found", Message: err.Error()},
		})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{
			Error: errorBody{Kind: "internal", Message: "internal server error"},
		})
	}
}

// writeBadRequest reports a malformed request without a domain error.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{
		Error: errorBody{Kind: "validation", Message: message},
	})
}
