// Package http serves the tracker's JSON API: expense and portfolio
// CRUD, recurring definitions with materialization and dismissal,
// budget health, and the advisor chat. Month aggregates sit behind
// in-process LRU caches invalidated on writes.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/advisor"
	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/recurring"
	"fintrack/internal/store"
)

const (
	cacheTTL         = 5 * time.Minute
	cacheSweepEvery  = 10 * time.Minute
	overviewCacheMax = 100
	healthCacheMax   = 100
	expensesCacheMax = 200
)

// EventPublisher pushes expense events to the broker. Publishing is
// best effort on the serving path; failures are logged, not returned.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense, source string) error
}

// Deps are the server's collaborators. Advisor and Publisher are
// optional: a nil Advisor turns the chat endpoints into 503s, a nil
// Publisher disables event publishing.
type Deps struct {
	Logger     *log.Logger
	Store      store.Store
	Engine     *recurring.Engine
	Aggregator *budget.Aggregator
	Advisor    *advisor.Advisor
	Publisher  EventPublisher
}

type appMetrics struct {
	startedAt       time.Time
	expensesCreated int64
	cacheHits       int64
	cacheMisses     int64
}

type Server struct {
	http.Server

	logger     *log.Logger
	store      store.Store
	engine     *recurring.Engine
	aggregator *budget.Aggregator
	advisor    *advisor.Advisor
	publisher  EventPublisher

	overviewCache *cache.LRU[core.MonthOverview]
	healthCache   *cache.LRU[core.BudgetHealth]
	expensesCache *cache.LRU[[]core.Expense]
	cacheManager  *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	metrics      appMetrics
	shutdownOnce sync.Once
}

// NewServer wires routes, middleware and caches, returning a server
// ready for ListenAndServe.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		logger:     logger,
		store:      deps.Store,
		engine:     deps.Engine,
		aggregator: deps.Aggregator,
		advisor:    deps.Advisor,
		publisher:  deps.Publisher,

		overviewCache: cache.NewLRU[core.MonthOverview](overviewCacheMax, cacheTTL),
		healthCache:   cache.NewLRU[core.BudgetHealth](healthCacheMax, cacheTTL),
		expensesCache: cache.NewLRU[[]core.Expense](expensesCacheMax, cacheTTL),

		detector: security.NewDetector(),
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),

		metrics: appMetrics{startedAt: time.Now()},
	}

	s.cacheManager = cache.NewManager(logger)
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.Register(s.healthCache)
	s.cacheManager.Register(s.expensesCache)
	s.cacheManager.StartCleanup(cacheSweepEvery)

	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	handler := s.limiter.Middleware(s.detector.ExtractClientIP, nil)(mux)
	handler = s.auditSuspicious(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("POST /api/recurring", s.handleCreateRecurring)
	mux.HandleFunc("GET /api/recurring", s.handleListRecurring)
	mux.HandleFunc("PUT /api/recurring/{id}", s.handleUpdateRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRecurring)
	mux.HandleFunc("PUT /api/recurring/{id}/category", s.handleUpdateRecurringCategory)
	mux.HandleFunc("POST /api/recurring/{id}/dismiss", s.handleDismissRecurring)
	mux.HandleFunc("POST /api/recurring/materialize", s.handleMaterialize)
	mux.HandleFunc("GET /api/recurring/obligations", s.handleObligations)

	mux.HandleFunc("POST /api/loans", s.handleCreateLoan)
	mux.HandleFunc("GET /api/loans", s.handleListLoans)
	mux.HandleFunc("PUT /api/loans/{id}", s.handleUpdateLoan)
	mux.HandleFunc("DELETE /api/loans/{id}", s.handleDeleteLoan)
	mux.HandleFunc("GET /api/loans/{id}/progress", s.handleLoanProgress)

	mux.HandleFunc("POST /api/cards", s.handleCreateCard)
	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard)

	mux.HandleFunc("POST /api/investments", s.handleCreateInvestment)
	mux.HandleFunc("GET /api/investments", s.handleListInvestments)
	mux.HandleFunc("DELETE /api/investments/{id}", s.handleDeleteInvestment)

	mux.HandleFunc("PUT /api/salaries", s.handleUpsertSalary)
	mux.HandleFunc("GET /api/salaries", s.handleListSalaries)
	mux.HandleFunc("GET /api/income-profile", s.handleGetIncomeProfile)
	mux.HandleFunc("PUT /api/income-profile", s.handleSetIncomeProfile)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleSetSettings)

	mux.HandleFunc("GET /api/budget/health", s.handleBudgetHealth)
	mux.HandleFunc("GET /api/budget/categories", s.handleBudgetCategories)
	mux.HandleFunc("GET /api/budget/rule", s.handleGetBudgetRule)
	mux.HandleFunc("PUT /api/budget/rule", s.handleSetBudgetRule)
	mux.HandleFunc("GET /api/budget/category-config", s.handleGetCategoryConfig)
	mux.HandleFunc("PUT /api/budget/category-config", s.handleSetCategoryConfig)

	mux.HandleFunc("GET /api/summary", s.handleMonthSummary)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/history", s.handleChatHistory)
}

// auditSuspicious logs requests that look like probes. They are logged
// and served, not blocked: the patterns are heuristics.
func (s *Server) auditSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r),
				"user_agent", r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the HTTP server and the background cache and limiter
// goroutines. Safe to call repeatedly.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func cacheKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// invalidateBudgetMonth drops the cached aggregates of one budget
// month after a write that changes them.
func (s *Server) invalidateBudgetMonth(year, month int) {
	key := cacheKey(year, month)
	s.overviewCache.Delete(key)
	s.healthCache.Delete(key)
}

func (s *Server) invalidateExpenseMonth(year, month int) {
	s.expensesCache.Delete(cacheKey(year, month))
}

// invalidateAllBudgetMonths drops every cached aggregate. Used when a
// config write changes the math for all months at once.
func (s *Server) invalidateAllBudgetMonths() {
	s.overviewCache.Clear()
	s.healthCache.Clear()
}

// invalidateExpense drops the caches an expense write touches: the
// expense list of its date month and the aggregates of its budget
// month.
func (s *Server) invalidateExpense(e core.Expense) {
	s.invalidateExpenseMonth(e.Date.Year(), e.Date.Month())
	att := budget.ResolveBudgetMonth(e)
	s.invalidateBudgetMonth(att.Year, att.Month)
}

func (s *Server) cachedOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	key := cacheKey(year, month)
	if ov, found := s.overviewCache.Get(key); found {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		return ov, nil
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	ov, err := s.aggregator.CategoryTotals(ctx, year, month)
	if err != nil {
		return core.MonthOverview{}, err
	}
	s.overviewCache.Set(key, ov)
	return ov, nil
}

func (s *Server) cachedHealth(ctx context.Context, year, month int) (core.BudgetHealth, error) {
	key := cacheKey(year, month)
	if h, found := s.healthCache.Get(key); found {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		return h, nil
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	h, err := s.aggregator.Health(ctx, year, month)
	if err != nil {
		return core.BudgetHealth{}, err
	}
	s.healthCache.Set(key, h)
	return h, nil
}

func (s *Server) cachedExpenses(ctx context.Context, year, month int) ([]core.Expense, error) {
	key := cacheKey(year, month)
	if items, found := s.expensesCache.Get(key); found {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		out := make([]core.Expense, len(items))
		copy(out, items)
		return out, nil
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	items, err := s.store.ListExpensesByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	s.expensesCache.Set(key, items)
	return items, nil
}

// publishExpenseCreated hands the event to the broker when one is
// configured. The expense is already saved; a publish failure must not
// turn into a client-facing error.
func (s *Server) publishExpenseCreated(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseCreated(ctx, e, "api"); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			"error", err,
			"expense_id", e.ID)
	}
}
