package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"paisa/internal/budget"
	"paisa/internal/cache"
	"paisa/internal/core"
	"paisa/internal/ledger/memory"
	"paisa/internal/query"
	"paisa/internal/services"
)

func newTestServer(t *testing.T) (*Server, *services.LedgerService, *services.BudgetService) {
	t.Helper()
	views := cache.NewLRUCache[core.BudgetDTO](32, time.Minute)
	txns := memory.NewTransactionStore()
	budgets := memory.NewBudgetStore()
	engine := budget.NewEngine()
	engine.Now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	ls := services.NewLedgerService(txns, nil, views)
	bs := services.NewBudgetService(budgets, txns, engine, nil, views)
	srv := NewServer(":0", ls, bs)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, ls, bs
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func seedMany(t *testing.T, ls *services.LedgerService, n int) []core.Transaction {
	t.Helper()
	out := make([]core.Transaction, 0, n)
	for i := 0; i < n; i++ {
		tx, err := ls.Create(context.Background(), core.NewTransaction{
			Title:         fmt.Sprintf("Item %03d", i),
			Category:      "Food & Dining",
			Amount:        100 + i,
			Timestamp:     time.Date(2026, 2, 1+i%28, 12, 0, 0, 0, time.UTC),
			PaymentMethod: core.MethodUPI,
		})
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		out = append(out, tx)
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}
}

func TestListExpensesPagination(t *testing.T) {
	srv, ls, _ := newTestServer(t)
	seedMany(t, ls, 57)

	var res query.Result
	rr := doJSON(t, srv, http.MethodGet, "/expenses?timeframe=month&month=2026-02&limit=25&page=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Total != 57 {
		t.Errorf("total = %d, want 57", res.Total)
	}
	if len(res.Rows) != 7 {
		t.Errorf("page 3 rows = %d, want 7", len(res.Rows))
	}
}

func TestListExpensesDefaultOrderAndLimit(t *testing.T) {
	srv, ls, _ := newTestServer(t)
	seedMany(t, ls, 30)

	rr := doJSON(t, srv, http.MethodGet, "/expenses", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var res query.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Total != 30 {
		t.Errorf("total = %d, want 30", res.Total)
	}
	if len(res.Rows) != 25 {
		t.Fatalf("default page = %d rows, want 25", len(res.Rows))
	}
	// Newest-first without an explicit sortOrder.
	if res.Rows[0].Title != "Item 027" {
		t.Errorf("first row = %q, want the newest seed", res.Rows[0].Title)
	}
	for i := 1; i < len(res.Rows); i++ {
		if res.Rows[i].Timestamp.After(res.Rows[i-1].Timestamp) {
			t.Fatalf("rows not newest-first at index %d", i)
		}
	}
}

func TestListExpensesBadMonth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/expenses?timeframe=month&month=02-2026", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var env errorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Kind != "validation" {
		t.Errorf("kind = %q, want validation", env.Error.Kind)
	}
}

func TestCreateExpense(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/expenses",
		`{"title":"Swiggy","category":"Food & Dining","amount":450,"timestamp":"2026-02-01T12:00:00Z","paymentMethod":"UPI"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var tx core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.ID == "" || tx.Status != core.StatusActive {
		t.Errorf("created = %+v", tx)
	}

	rr = doJSON(t, srv, http.MethodPost, "/expenses",
		`{"title":"","category":"Food & Dining","amount":450,"timestamp":"2026-02-01T12:00:00Z","paymentMethod":"UPI"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty title status = %d, want 400", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/expenses", "")
	if rr.Code != http.StatusOK {
		t.Errorf("wrong-method check broke GET: %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodDelete, "/expenses", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /expenses status = %d, want 405", rr.Code)
	}
}

func TestPatchExpenseNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPatch, "/expenses/nope", `{"amount":900}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestSoftDeleteRestoreRoundTrip(t *testing.T) {
	srv, ls, _ := newTestServer(t)
	rows := seedMany(t, ls, 3)

	body := fmt.Sprintf(`{"ids":["%s","%s"]}`, rows[0].ID, rows[1].ID)
	rr := doJSON(t, srv, http.MethodPost, "/expenses/soft-delete", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("soft-delete status = %d body=%s", rr.Code, rr.Body.String())
	}
	var count countResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &count); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !count.OK || count.Count != 2 {
		t.Errorf("count = %+v, want ok with 2", count)
	}

	rr = doJSON(t, srv, http.MethodGet, "/expenses/trash", "")
	var trash query.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &trash); err != nil {
		t.Fatalf("unmarshal trash: %v", err)
	}
	if trash.Total != 2 {
		t.Errorf("trash total = %d, want 2", trash.Total)
	}

	rr = doJSON(t, srv, http.MethodPost, "/expenses/restore", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("restore status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/expenses?timeframe=month&month=2026-02", "")
	var res query.Result
	_ = json.Unmarshal(rr.Body.Bytes(), &res)
	if res.Total != 3 {
		t.Errorf("total after restore = %d, want 3", res.Total)
	}
}

func TestSoftDeleteByFilterWithExclusions(t *testing.T) {
	srv, ls, _ := newTestServer(t)
	rows := seedMany(t, ls, 5)

	body := fmt.Sprintf(`{"filter":{"timeframe":"month","month":"2026-02"},"excludeIds":["%s"]}`, rows[4].ID)
	rr := doJSON(t, srv, http.MethodPost, "/expenses/soft-delete/filter", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var count countResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &count)
	if count.Count != 4 {
		t.Errorf("count = %d, want 4", count.Count)
	}

	rr = doJSON(t, srv, http.MethodGet, "/expenses?timeframe=month&month=2026-02", "")
	var res query.Result
	_ = json.Unmarshal(rr.Body.Bytes(), &res)
	if res.Total != 1 || res.Rows[0].ID != rows[4].ID {
		t.Errorf("survivor = %+v, want only the excluded row", res)
	}
}

func TestBulkUpdateCategory(t *testing.T) {
	srv, ls, _ := newTestServer(t)
	rows := seedMany(t, ls, 2)

	body := fmt.Sprintf(`{"ids":["%s","%s"],"patch":{"category":"Travel"}}`, rows[0].ID, rows[1].ID)
	rr := doJSON(t, srv, http.MethodPost, "/expenses/bulk-update", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/expenses?timeframe=month&month=2026-02&category=Travel", "")
	var res query.Result
	_ = json.Unmarshal(rr.Body.Bytes(), &res)
	if res.Total != 2 {
		t.Errorf("travel rows = %d, want 2", res.Total)
	}
}

func TestGetBudgetNullForUnsetMonth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/budgets/2026-02", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body struct {
		Budget *core.BudgetDTO `json:"budget"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Budget != nil {
		t.Errorf("budget = %+v, want null", body.Budget)
	}
}

func TestBudgetLifecycle(t *testing.T) {
	srv, ls, _ := newTestServer(t)
	seedMany(t, ls, 3)

	rr := doJSON(t, srv, http.MethodPost, "/budgets",
		`{"month":"2026-02","totalLimit":60000,"mode":"FLEXIBLE","categoryLimits":{"Food & Dining":10000}}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/budgets/2026-02", "")
	var view struct {
		Budget *core.BudgetDTO `json:"budget"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if view.Budget == nil || view.Budget.Config.TotalLimit != 60000 {
		t.Fatalf("view = %+v", view.Budget)
	}

	rr = doJSON(t, srv, http.MethodPatch, "/budgets/2026-02", `{"totalLimit":45000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status = %d", rr.Code)
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &view)
	if view.Budget.Config.TotalLimit != 45000 {
		t.Errorf("patched limit = %d, want 45000", view.Budget.Config.TotalLimit)
	}

	rr = doJSON(t, srv, http.MethodPost, "/budgets/2026-02/clone", `{"target":"2026-03"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("clone status = %d body=%s", rr.Code, rr.Body.String())
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &view)
	if view.Budget.Config.Month != "2026-03" || view.Budget.Config.TotalLimit != 45000 {
		t.Errorf("clone = %+v", view.Budget.Config)
	}

	rr = doJSON(t, srv, http.MethodPost, "/budgets/2026-02/reset", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rr.Code)
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &view)
	if view.Budget.Config.TotalLimit != memory.ResetTotalLimit {
		t.Errorf("reset limit = %d, want %d", view.Budget.Config.TotalLimit, memory.ResetTotalLimit)
	}

	rr = doJSON(t, srv, http.MethodGet, "/budgets/months", "")
	var months struct {
		Months []core.MonthKey `json:"months"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &months)
	if len(months.Months) != 2 || months.Months[0] != "2026-03" {
		t.Errorf("months = %v, want [2026-03 2026-02]", months.Months)
	}
}

func TestWhatIfDoesNotPersist(t *testing.T) {
	srv, ls, bs := newTestServer(t)
	seedMany(t, ls, 1)

	rr := doJSON(t, srv, http.MethodPost, "/budgets/what-if",
		`{"month":"2026-02","scenario":{"changes":[{"kind":"TOTAL_LIMIT","value":1000}]}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var view struct {
		Budget *core.BudgetDTO `json:"budget"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &view)
	if view.Budget.Config.TotalLimit != 1000 {
		t.Errorf("simulated limit = %d, want 1000", view.Budget.Config.TotalLimit)
	}

	stored, ok, err := bs.Budgets().Get(context.Background(), "2026-02")
	if err != nil || !ok {
		t.Fatalf("stored: ok=%v err=%v", ok, err)
	}
	if stored.TotalLimit != memory.DefaultTotalLimit {
		t.Errorf("stored limit = %d, want untouched default", stored.TotalLimit)
	}

	rr = doJSON(t, srv, http.MethodPost, "/budgets/what-if",
		`{"month":"2026-02","scenario":{"changes":[]}}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty scenario status = %d, want 400", rr.Code)
	}
}

func TestDashboardAndInsights(t *testing.T) {
	srv, ls, _ := newTestServer(t)
	seedMany(t, ls, 3)

	rr := doJSON(t, srv, http.MethodGet, "/dashboard?month=2026-02", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rr.Code)
	}
	var dash services.Dashboard
	if err := json.Unmarshal(rr.Body.Bytes(), &dash); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dash.MonthSpend != 100+101+102 {
		t.Errorf("monthSpend = %d, want 303", dash.MonthSpend)
	}

	rr = doJSON(t, srv, http.MethodGet, "/expenses/insights?month=2026-02", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("insights status = %d", rr.Code)
	}
	var ins services.MonthInsights
	if err := json.Unmarshal(rr.Body.Bytes(), &ins); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ins.Count != 3 || ins.TotalSpent != 303 {
		t.Errorf("insights = %d/%d, want 3/303", ins.Count, ins.TotalSpent)
	}
}

func TestDuplicatesAndRecurringEndpoints(t *testing.T) {
	srv, ls, _ := newTestServer(t)
	ctx := context.Background()
	day := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	for _, title := range []string{"Swiggy", "Swiggy Order"} {
		if _, err := ls.Create(ctx, core.NewTransaction{
			Title: title, Category: "Food & Dining", Amount: 500,
			Timestamp: day, PaymentMethod: core.MethodUPI,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	for m := 1; m <= 3; m++ {
		if _, err := ls.Create(ctx, core.NewTransaction{
			Title: "Netflix", Category: "Entertainment", Amount: 649,
			Timestamp:     time.Date(2026, time.Month(m), 3, 8, 0, 0, 0, time.UTC),
			PaymentMethod: core.MethodCard,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/expenses/cleanup/duplicates", "")
	var dup struct {
		Pairs []json.RawMessage `json:"pairs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &dup); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(dup.Pairs) != 1 {
		t.Errorf("pairs = %d, want 1", len(dup.Pairs))
	}

	rr = doJSON(t, srv, http.MethodGet, "/expenses/recurring", "")
	var rec struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rec.Items) != 1 {
		t.Errorf("items = %d, want 1", len(rec.Items))
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/expenses", "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
