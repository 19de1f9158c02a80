package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.startedAt).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]any{
		"overview_entries": s.overviewCache.Size(),
		"health_entries":   s.healthCache.Size(),
		"expense_entries":  s.expensesCache.Size(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
	}

	respondJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	expensesCreated := atomic.LoadInt64(&s.metrics.expensesCreated)
	cacheHits := atomic.LoadInt64(&s.metrics.cacheHits)
	cacheMisses := atomic.LoadInt64(&s.metrics.cacheMisses)
	uptime := time.Since(s.metrics.startedAt)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_avg_us Average response time in microseconds\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_us gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_us %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP expenses_created_total Expenses created through the API\n")
	fmt.Fprintf(w, "# TYPE expenses_created_total counter\n")
	fmt.Fprintf(w, "expenses_created_total %d\n\n", expensesCreated)

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", cacheHits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", cacheMisses)

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"overview\"} %d\n", s.overviewCache.Size())
	fmt.Fprintf(w, "cache_entries{type=\"health\"} %d\n", s.healthCache.Size())
	fmt.Fprintf(w, "cache_entries{type=\"expenses\"} %d\n\n", s.expensesCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", limitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE rate_limit_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_clients %d\n\n", limitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Requests flagged as probes\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

// monthSummary is the one-call month picture: raw category totals,
// budget health and the recurring obligations due.
type monthSummary struct {
	Year        int                `json:"year"`
	Month       int                `json:"month"`
	Overview    core.MonthOverview `json:"overview"`
	Health      core.BudgetHealth  `json:"health"`
	Obligations core.Money         `json:"obligations"`
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	params, ok := monthParamsOrFail(w, r)
	if !ok {
		return
	}

	overview, err := s.cachedOverview(r.Context(), params.Year, params.Month)
	if err != nil {
		respondStoreError(w, r, err, "month overview")
		return
	}
	health, err := s.cachedHealth(r.Context(), params.Year, params.Month)
	if err != nil {
		respondStoreError(w, r, err, "budget health")
		return
	}
	obligations, err := s.engine.MonthlyObligations(r.Context(), params.Year, params.Month)
	if err != nil {
		respondStoreError(w, r, err, "monthly obligations")
		return
	}

	respondJSON(w, http.StatusOK, monthSummary{
		Year:        params.Year,
		Month:       params.Month,
		Overview:    overview,
		Health:      health,
		Obligations: obligations,
	})
}
