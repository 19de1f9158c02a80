package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/advisor"
	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/recurring"
	"fintrack/internal/store/memory"
)

type fakeProvider struct {
	answer string
}

func (f fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return f.answer, nil
}

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	engine := recurring.NewEngine(st)
	aggregator := budget.NewAggregator(st)

	s := NewServer(":0", Deps{
		Store:      st,
		Engine:     engine,
		Aggregator: aggregator,
		Advisor:    advisor.NewAdvisor(fakeProvider{answer: "Looks fine."}, st, aggregator, engine),
	})
	t.Cleanup(func() {
		if err := s.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})
	return s, st
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, r)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestCreateAndListExpenses(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title":    "Groceries run",
		"category": "groceries",
		"amount":   45000,
		"date":     "2025-03-05",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	var created core.Expense
	decodeBody(t, rr, &created)
	if created.ID == "" {
		t.Error("created expense has no id")
	}
	if created.Amount.Cents != 45000 {
		t.Errorf("amount = %d cents, want 45000", created.Amount.Cents)
	}

	rr = doJSON(t, s, http.MethodGet, "/api/expenses?year=2025&month=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var items []core.Expense
	decodeBody(t, rr, &items)
	if len(items) != 1 || items[0].Title != "Groceries run" {
		t.Errorf("list = %+v, want the created expense", items)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"category": "groceries",
		"amount":   45000,
		"date":     "2025-03-05",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

func TestCreateExpenseBadJSON(t *testing.T) {
	s, _ := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, r)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestListExpensesBadMonth(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/api/expenses?year=2025&month=13", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestUpdateExpenseInvalidatesBothMonths(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title":    "Course fee",
		"category": "education",
		"amount":   120000,
		"date":     "2025-03-10",
	})
	var created core.Expense
	decodeBody(t, rr, &created)

	// Prime the March cache.
	doJSON(t, s, http.MethodGet, "/api/expenses?year=2025&month=3", nil)

	created.Date = core.NewDate(2025, 4, 10)
	rr = doJSON(t, s, http.MethodPut, "/api/expenses/"+created.ID, created)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body.String())
	}

	var march, april []core.Expense
	decodeBody(t, doJSON(t, s, http.MethodGet, "/api/expenses?year=2025&month=3", nil), &march)
	decodeBody(t, doJSON(t, s, http.MethodGet, "/api/expenses?year=2025&month=4", nil), &april)
	if len(march) != 0 {
		t.Errorf("march still lists %d expenses after the move", len(march))
	}
	if len(april) != 1 {
		t.Errorf("april lists %d expenses, want 1", len(april))
	}
}

func TestDeleteExpense(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title":    "Dinner out",
		"category": "dining",
		"amount":   20000,
		"date":     "2025-03-12",
	})
	var created core.Expense
	decodeBody(t, rr, &created)

	rr = doJSON(t, s, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = doJSON(t, s, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPatch, "/api/expenses", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow == "" {
		t.Error("405 response carries no Allow header")
	}
}

func TestRecurringLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	now := time.Now()

	rr := doJSON(t, s, http.MethodPost, "/api/recurring", map[string]any{
		"name":       "Rent",
		"category":   "rent",
		"amount":     3000000,
		"frequency":  "monthly",
		"day":        1,
		"created_at": fmt.Sprintf("%04d-%02d-01", now.Year(), int(now.Month())),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	var def core.RecurringDefinition
	decodeBody(t, rr, &def)
	if !def.Active {
		t.Error("definition should default to active")
	}

	rr = doJSON(t, s, http.MethodPost, "/api/recurring/materialize", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("materialize status = %d, body %s", rr.Code, rr.Body.String())
	}
	var result map[string]int
	decodeBody(t, rr, &result)
	if result["materialized"] != 1 {
		t.Errorf("materialized = %d, want 1", result["materialized"])
	}

	// A second run settles nothing new.
	rr = doJSON(t, s, http.MethodPost, "/api/recurring/materialize", nil)
	decodeBody(t, rr, &result)
	if result["materialized"] != 0 {
		t.Errorf("second materialize = %d, want 0", result["materialized"])
	}

	rr = doJSON(t, s, http.MethodGet,
		fmt.Sprintf("/api/recurring/obligations?year=%d&month=%d", now.Year(), int(now.Month())), nil)
	var obligations struct {
		Total core.Money `json:"total"`
	}
	decodeBody(t, rr, &obligations)
	if obligations.Total.Cents != 3000000 {
		t.Errorf("obligations = %d cents, want 3000000", obligations.Total.Cents)
	}
}

func TestRecurringCreateExplicitlyInactive(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/recurring", map[string]any{
		"name":       "Old gym",
		"category":   "hobbies",
		"amount":     100000,
		"frequency":  "monthly",
		"day":        5,
		"active":     false,
		"created_at": "2025-01-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rr.Code)
	}
	var def core.RecurringDefinition
	decodeBody(t, rr, &def)
	if def.Active {
		t.Error("explicit active=false was overridden")
	}
}

func TestDismissRecurring(t *testing.T) {
	s, st := newTestServer(t)
	now := time.Now()

	rr := doJSON(t, s, http.MethodPost, "/api/recurring", map[string]any{
		"name":       "Insurance",
		"category":   "insurance",
		"amount":     500000,
		"frequency":  "monthly",
		"day":        1,
		"created_at": fmt.Sprintf("%04d-%02d-01", now.Year(), int(now.Month())),
	})
	var def core.RecurringDefinition
	decodeBody(t, rr, &def)

	rr = doJSON(t, s, http.MethodPost, "/api/recurring/"+def.ID+"/dismiss", map[string]any{
		"year":  now.Year(),
		"month": int(now.Month()),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("dismiss status = %d, body %s", rr.Code, rr.Body.String())
	}

	// The dismissed month settles without creating an expense.
	var result map[string]int
	decodeBody(t, doJSON(t, s, http.MethodPost, "/api/recurring/materialize", nil), &result)
	if result["materialized"] != 0 {
		t.Errorf("materialized = %d after dismissal, want 0", result["materialized"])
	}
	items, err := st.ListExpensesByMonth(context.Background(), now.Year(), int(now.Month()))
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	for _, e := range items {
		if e.RecurringID == def.ID {
			t.Error("dismissed occurrence still materialized an expense")
		}
	}
}

func TestBudgetHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPut, "/api/salaries", map[string]any{
		"year": 2025, "month": 3, "amount": 12000000,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("salary status = %d", rr.Code)
	}
	doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title": "Groceries", "category": "groceries", "amount": 300000, "date": "2025-03-05",
	})

	rr = doJSON(t, s, http.MethodGet, "/api/budget/health?year=2025&month=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health status = %d", rr.Code)
	}
	var health core.BudgetHealth
	decodeBody(t, rr, &health)
	if !health.IncomeKnown {
		t.Fatal("income should be known after salary upsert")
	}
	if health.Needs.Amount.Cents != 300000 {
		t.Errorf("needs = %d cents, want 300000", health.Needs.Amount.Cents)
	}
}

func TestBudgetRuleChangeRegradesCachedMonths(t *testing.T) {
	s, _ := newTestServer(t)

	doJSON(t, s, http.MethodPut, "/api/salaries", map[string]any{
		"year": 2025, "month": 3, "amount": 12000000,
	})

	var health core.BudgetHealth
	decodeBody(t, doJSON(t, s, http.MethodGet, "/api/budget/health?year=2025&month=3", nil), &health)
	if health.Needs.TargetPercent != 50 {
		t.Fatalf("default needs target = %d, want 50", health.Needs.TargetPercent)
	}

	rr := doJSON(t, s, http.MethodPut, "/api/budget/rule", map[string]any{
		"needs_percent": 40, "wants_percent": 30, "invest_percent": 30,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("rule update status = %d, body %s", rr.Code, rr.Body.String())
	}

	decodeBody(t, doJSON(t, s, http.MethodGet, "/api/budget/health?year=2025&month=3", nil), &health)
	if health.Needs.TargetPercent != 40 {
		t.Errorf("needs target = %d after rule change, want 40", health.Needs.TargetPercent)
	}
}

func TestBudgetRuleValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPut, "/api/budget/rule", map[string]any{
		"needs_percent": 50, "wants_percent": 30, "invest_percent": 30,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 for percents summing to 110", rr.Code)
	}
}

func TestLoanProgressEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/loans", map[string]any{
		"name":           "Bike loan",
		"type":           "personal",
		"principal":      50000000,
		"rate_bps":       1600,
		"tenure_months":  36,
		"first_emi_date": "2025-01-05",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	var created core.Loan
	decodeBody(t, rr, &created)
	if created.Status != core.LoanActive {
		t.Errorf("status defaulted to %q, want active", created.Status)
	}

	rr = doJSON(t, s, http.MethodGet, "/api/loans/"+created.ID+"/progress", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rr.Code)
	}
	var progress struct {
		Progress struct {
			EMI       core.Money `json:"emi"`
			RateClass string     `json:"rate_class"`
		} `json:"progress"`
	}
	decodeBody(t, rr, &progress)
	if progress.Progress.RateClass != "high" {
		t.Errorf("rate class = %q, want high for 16%% personal loan", progress.Progress.RateClass)
	}
	if progress.Progress.EMI.Cents <= 0 {
		t.Errorf("EMI = %d cents, want positive", progress.Progress.EMI.Cents)
	}
}

func TestCardViewsCarryProgress(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/cards", map[string]any{
		"name": "Platinum",
		"emis": []map[string]any{{
			"description":    "Phone",
			"total_count":    10,
			"paid_count":     4,
			"emi_amount":     250000,
			"first_emi_date": "2025-01-05",
		}},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}

	var views []cardView
	decodeBody(t, doJSON(t, s, http.MethodGet, "/api/cards", nil), &views)
	if len(views) != 1 || len(views[0].EMIs) != 1 {
		t.Fatalf("cards = %+v, want one card with one plan", views)
	}
	emi := views[0].EMIs[0]
	if emi.Paid != 4 || emi.Remaining != 6 {
		t.Errorf("progress = %d/%d, want 4 paid 6 remaining", emi.Paid, emi.Remaining)
	}
	if views[0].MonthlyDue.Cents != 250000 {
		t.Errorf("monthly due = %d cents, want 250000", views[0].MonthlyDue.Cents)
	}
}

func TestInvestmentLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/investments", map[string]any{
		"type":   "EPF",
		"date":   "2025-03-01",
		"amount": 150000,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	var created core.Investment
	decodeBody(t, rr, &created)

	var items []core.Investment
	decodeBody(t, doJSON(t, s, http.MethodGet, "/api/investments", nil), &items)
	if len(items) != 1 {
		t.Fatalf("investments = %d, want 1", len(items))
	}

	rr = doJSON(t, s, http.MethodDelete, "/api/investments/"+created.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rr.Code)
	}
}

func TestSalaryValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPut, "/api/salaries", map[string]any{
		"year": 2025, "month": 13, "amount": 100,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/chat", map[string]any{
		"question": "How am I doing?", "year": 2025, "month": 3,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body %s", rr.Code, rr.Body.String())
	}
	var answer map[string]string
	decodeBody(t, rr, &answer)
	if answer["answer"] != "Looks fine." {
		t.Errorf("answer = %q", answer["answer"])
	}

	var history []core.ChatMessage
	decodeBody(t, doJSON(t, s, http.MethodGet, "/api/chat/history", nil), &history)
	if len(history) != 2 {
		t.Errorf("history = %d messages, want 2", len(history))
	}
}

func TestChatWithoutAdvisor(t *testing.T) {
	st := memory.New()
	s := NewServer(":0", Deps{
		Store:      st,
		Engine:     recurring.NewEngine(st),
		Aggregator: budget.NewAggregator(st),
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	rr := doJSON(t, s, http.MethodPost, "/api/chat", map[string]any{"question": "hi"})
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestChatEmptyQuestion(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/chat", map[string]any{"question": "   "})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

func TestMonthSummary(t *testing.T) {
	s, _ := newTestServer(t)

	doJSON(t, s, http.MethodPut, "/api/salaries", map[string]any{
		"year": 2025, "month": 3, "amount": 12000000,
	})
	doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title": "Groceries", "category": "groceries", "amount": 300000, "date": "2025-03-05",
	})

	rr := doJSON(t, s, http.MethodGet, "/api/summary?year=2025&month=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rr.Code)
	}
	var summary monthSummary
	decodeBody(t, rr, &summary)
	if summary.Overview.Total.Cents != 300000 {
		t.Errorf("overview total = %d cents, want 300000", summary.Overview.Total.Cents)
	}
	if !summary.Health.IncomeKnown {
		t.Error("summary health should know the income")
	}
}

func TestHealthAndReadiness(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rr.Code)
	}

	rr = doJSON(t, s, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rr.Code)
	}
	var ready struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	decodeBody(t, rr, &ready)
	if ready.Status != "ready" {
		t.Errorf("status = %q, want ready", ready.Status)
	}
	if ready.Checks["store"] != "ok" {
		t.Errorf("store check = %v, want ok", ready.Checks["store"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	// A probe-looking request should be served and counted.
	rr := doJSON(t, s, http.MethodGet, "/wp-admin/setup.php", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("probe path status = %d, want 404 (served, not blocked)", rr.Code)
	}

	rr = doJSON(t, s, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	for _, want := range []string{
		"http_requests_total",
		"expenses_created_total",
		"cache_hits_total",
		"suspicious_requests_total 1",
	} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
