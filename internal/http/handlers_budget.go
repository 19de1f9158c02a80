package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleBudgetHealth(w http.ResponseWriter, r *http.Request) {
	params, ok := monthParamsOrFail(w, r)
	if !ok {
		return
	}

	health, err := s.cachedHealth(r.Context(), params.Year, params.Month)
	if err != nil {
		respondStoreError(w, r, err, "budget health")
		return
	}
	respondJSON(w, http.StatusOK, health)
}

func (s *Server) handleBudgetCategories(w http.ResponseWriter, r *http.Request) {
	params, ok := monthParamsOrFail(w, r)
	if !ok {
		return
	}

	overview, err := s.cachedOverview(r.Context(), params.Year, params.Month)
	if err != nil {
		respondStoreError(w, r, err, "month overview")
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleGetBudgetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.store.GetBudgetRule(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "budget rule")
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleSetBudgetRule(w http.ResponseWriter, r *http.Request) {
	var rule core.BudgetRule
	if !decodeJSON(w, r, &rule) {
		return
	}

	if err := rule.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.SetBudgetRule(r.Context(), rule); err != nil {
		respondStoreError(w, r, err, "budget rule")
		return
	}

	// New targets re-grade every cached month.
	s.invalidateAllBudgetMonths()

	s.logger.InfoContext(r.Context(), "Budget rule updated",
		"needs_percent", rule.NeedsPercent,
		"wants_percent", rule.WantsPercent,
		"invest_percent", rule.InvestPercent)

	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleGetCategoryConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetCategoryConfig(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "category config")
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSetCategoryConfig(w http.ResponseWriter, r *http.Request) {
	var cfg core.CategoryConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}

	if err := s.store.SetCategoryConfig(r.Context(), cfg); err != nil {
		respondStoreError(w, r, err, "category config")
		return
	}

	// Bucket membership changed; every cached month is wrong now.
	s.invalidateAllBudgetMonths()

	respondJSON(w, http.StatusOK, cfg)
}
