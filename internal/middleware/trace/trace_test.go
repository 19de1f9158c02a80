package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(nil)

	var gotID string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))

	if gotID == "" {
		t.Fatal("handler saw no request id")
	}
	if !strings.HasPrefix(gotID, "req_") {
		t.Errorf("request id = %q, want req_ prefix", gotID)
	}
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "203.0.113.9" })
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", metrics.TotalRequests)
	}
	if metrics.AverageResponseTime < 0 {
		t.Errorf("AverageResponseTime = %d, want >= 0", metrics.AverageResponseTime)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(r.Context()); id != "" {
		t.Errorf("GetRequestID() = %q on bare context, want empty", id)
	}
}
