package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

// recurringCreateRequest wraps the definition so an omitted "active"
// field can default to true; a new definition should be live without
// the client spelling it out.
type recurringCreateRequest struct {
	core.RecurringDefinition
	Active *bool `json:"active"`
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	def := req.RecurringDefinition
	def.ID = ""
	def.Active = req.Active == nil || *req.Active
	// The ledger is the engine's bookkeeping; clients cannot pre-settle
	// months.
	def.AddedToExpenses = nil
	if def.CreatedAt.IsZero() {
		def.CreatedAt = core.DateOf(time.Now())
	}

	if err := def.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateRecurringDefinition(r.Context(), def)
	if err != nil {
		respondStoreError(w, r, err, "recurring definition")
		return
	}

	s.logger.InfoContext(r.Context(), "Recurring definition created",
		"id", created.ID,
		"name", created.Name,
		"amount_cents", created.Amount.Cents,
		"frequency", string(created.Frequency))

	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.ListRecurringDefinitions(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "recurring definitions")
		return
	}
	if defs == nil {
		defs = []core.RecurringDefinition{}
	}
	respondJSON(w, http.StatusOK, defs)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	previous, err := s.store.GetRecurringDefinition(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "recurring definition")
		return
	}

	var def core.RecurringDefinition
	if !decodeJSON(w, r, &def) {
		return
	}
	def.ID = id
	// History is not the client's to rewrite.
	def.AddedToExpenses = previous.AddedToExpenses
	if def.CreatedAt.IsZero() {
		def.CreatedAt = previous.CreatedAt
	}

	if err := def.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateRecurringDefinition(r.Context(), def); err != nil {
		respondStoreError(w, r, err, "recurring definition")
		return
	}

	respondJSON(w, http.StatusOK, def)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	// Materialized expenses stay; only the template goes.
	if err := s.store.DeleteRecurringDefinition(r.Context(), id); err != nil {
		respondStoreError(w, r, err, "recurring definition")
		return
	}

	s.logger.InfoContext(r.Context(), "Recurring definition deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateRecurringCategory(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	var req struct {
		Category string `json:"category"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	changed, err := s.store.UpdateRecurringCategory(r.Context(), id, req.Category)
	if err != nil {
		respondStoreError(w, r, err, "recurring definition")
		return
	}

	// The cascade rewrites expenses across an unknown set of months.
	s.invalidateAllBudgetMonths()
	s.expensesCache.Clear()

	s.logger.InfoContext(r.Context(), "Recurring category updated",
		"id", id,
		"category", req.Category,
		"expenses_changed", changed)

	respondJSON(w, http.StatusOK, map[string]any{
		"id":               id,
		"category":         req.Category,
		"expenses_changed": changed,
	})
}

func (s *Server) handleDismissRecurring(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	def, err := s.store.GetRecurringDefinition(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "recurring definition")
		return
	}

	now := time.Now()
	req := struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}{Year: now.Year(), Month: int(now.Month())}
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	if req.Month < 1 || req.Month > 12 {
		respondError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	due := core.NewDate(req.Year, req.Month, core.ClampDay(req.Year, req.Month, def.Day))
	dismissal := core.Dismissal{
		RecurringID: def.ID,
		Name:        def.Name,
		Date:        due,
		Amount:      def.Amount,
	}
	if err := dismissal.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.AddDismissal(r.Context(), dismissal); err != nil {
		respondStoreError(w, r, err, "dismissal")
		return
	}

	s.logger.InfoContext(r.Context(), "Recurring occurrence dismissed",
		"id", def.ID,
		"name", def.Name,
		"due", due.String())

	respondJSON(w, http.StatusOK, dismissal)
}

func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	created, err := s.engine.MaterializeDue(r.Context(), core.DateOf(time.Now()))
	if err != nil {
		respondStoreError(w, r, err, "materialization")
		return
	}

	if created > 0 {
		// New expenses may land in any month the scan covered.
		s.invalidateAllBudgetMonths()
		s.expensesCache.Clear()
	}

	respondJSON(w, http.StatusOK, map[string]int{"materialized": created})
}

func (s *Server) handleObligations(w http.ResponseWriter, r *http.Request) {
	params, ok := monthParamsOrFail(w, r)
	if !ok {
		return
	}

	total, err := s.engine.MonthlyObligations(r.Context(), params.Year, params.Month)
	if err != nil {
		respondStoreError(w, r, err, "monthly obligations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"year":  params.Year,
		"month": params.Month,
		"total": total,
	})
}
