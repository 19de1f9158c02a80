package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleUpsertSalary(w http.ResponseWriter, r *http.Request) {
	var salary core.Salary
	if !decodeJSON(w, r, &salary) {
		return
	}

	if err := salary.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpsertSalary(r.Context(), salary); err != nil {
		respondStoreError(w, r, err, "salary")
		return
	}

	// Which budget month this income funds depends on the pay
	// schedule; drop both candidates.
	s.invalidateBudgetMonth(salary.Year, salary.Month)
	nextYear, nextMonth := salary.Year, salary.Month+1
	if nextMonth > 12 {
		nextYear, nextMonth = nextYear+1, 1
	}
	s.invalidateBudgetMonth(nextYear, nextMonth)

	s.logger.InfoContext(r.Context(), "Salary recorded",
		"year", salary.Year,
		"month", salary.Month,
		"amount_cents", salary.Amount.Cents)

	respondJSON(w, http.StatusOK, salary)
}

func (s *Server) handleListSalaries(w http.ResponseWriter, r *http.Request) {
	salaries, err := s.store.ListSalaries(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "salaries")
		return
	}
	if salaries == nil {
		salaries = []core.Salary{}
	}
	respondJSON(w, http.StatusOK, salaries)
}

func (s *Server) handleGetIncomeProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.GetIncomeProfile(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "income profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSetIncomeProfile(w http.ResponseWriter, r *http.Request) {
	var profile core.IncomeProfile
	if !decodeJSON(w, r, &profile) {
		return
	}

	if err := s.store.SetIncomeProfile(r.Context(), profile); err != nil {
		respondStoreError(w, r, err, "income profile")
		return
	}

	// The CTC fallback feeds every month without a salary record.
	s.invalidateAllBudgetMonths()

	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSetSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	if !decodeJSON(w, r, &settings) {
		return
	}

	if err := settings.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.SetSettings(r.Context(), settings); err != nil {
		respondStoreError(w, r, err, "settings")
		return
	}

	// Pay schedule and exchange rate shift the math of every month.
	s.invalidateAllBudgetMonths()

	s.logger.InfoContext(r.Context(), "Settings updated",
		"pay_schedule", string(settings.PaySchedule),
		"base_currency", settings.BaseCurrency)

	respondJSON(w, http.StatusOK, settings)
}
