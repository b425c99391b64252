// Package http exposes the ledger and budget services as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"paisa/internal/services"
)

type Server struct {
	http.Server
	ledger      *services.LedgerService
	budgets     *services.BudgetService
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, budgets *services.BudgetService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:      ledger,
		budgets:     budgets,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /expenses", s.with(s.handleListExpenses))
	mux.HandleFunc("POST /expenses", s.with(s.handleCreateExpense))
	mux.HandleFunc("PATCH /expenses/{id}", s.with(s.handlePatchExpense))
	mux.HandleFunc("POST /expenses/soft-delete", s.with(s.handleSoftDelete))
	mux.HandleFunc("POST /expenses/soft-delete/filter", s.with(s.handleSoftDeleteByFilter))
	mux.HandleFunc("POST /expenses/restore", s.with(s.handleRestore))
	mux.HandleFunc("POST /expenses/hard-delete", s.with(s.handleHardDelete))
	mux.HandleFunc("POST /expenses/bulk-update", s.with(s.handleBulkUpdate))
	mux.HandleFunc("POST /expenses/bulk-update/filter", s.with(s.handleBulkUpdateByFilter))
	mux.HandleFunc("GET /expenses/trash", s.with(s.handleTrash))
	mux.HandleFunc("GET /expenses/recurring", s.with(s.handleRecurring))
	mux.HandleFunc("GET /expenses/cleanup/duplicates", s.with(s.handleDuplicates))
	mux.HandleFunc("GET /expenses/insights", s.with(s.handleInsights))

	mux.HandleFunc("GET /dashboard", s.with(s.handleDashboard))

	mux.HandleFunc("GET /budgets/months", s.with(s.handleBudgetMonths))
	mux.HandleFunc("GET /budgets/{month}", s.with(s.handleGetBudget))
	mux.HandleFunc("POST /budgets", s.with(s.handleCreateBudget))
	mux.HandleFunc("PATCH /budgets/{month}", s.with(s.handlePatchBudget))
	mux.HandleFunc("POST /budgets/{month}/clone", s.with(s.handleCloneBudget))
	mux.HandleFunc("POST /budgets/{month}/reset", s.with(s.handleResetBudget))
	mux.HandleFunc("POST /budgets/what-if", s.with(s.handleWhatIf))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// with adds security headers, rate limiting and request logging.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Rate limit mutations only; reads are cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorEnvelope{
				Error: errorBody{Kind: "rate_limited", Message: "rate limit exceeded, try again later"},
			})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
