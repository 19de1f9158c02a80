package http

import (
	"net/http"
	"sync/atomic"

	"fintrack/internal/core"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if !decodeJSON(w, r, &e) {
		return
	}
	e.ID = "" // the store assigns ids

	if err := e.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateExpense(r.Context(), e)
	if err != nil {
		respondStoreError(w, r, err, "expense")
		return
	}

	atomic.AddInt64(&s.metrics.expensesCreated, 1)
	s.invalidateExpense(created)
	s.publishExpenseCreated(r.Context(), created)

	s.logger.InfoContext(r.Context(), "Expense created",
		"id", created.ID,
		"title", created.Title,
		"amount_cents", created.Amount.Cents,
		"category", created.Category)

	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	params, ok := monthParamsOrFail(w, r)
	if !ok {
		return
	}

	items, err := s.cachedExpenses(r.Context(), params.Year, params.Month)
	if err != nil {
		respondStoreError(w, r, err, "expenses")
		return
	}
	if items == nil {
		items = []core.Expense{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	previous, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "expense")
		return
	}

	var e core.Expense
	if !decodeJSON(w, r, &e) {
		return
	}
	e.ID = id

	if err := e.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateExpense(r.Context(), e); err != nil {
		respondStoreError(w, r, err, "expense")
		return
	}

	// The edit may move the expense between months; both sides of the
	// move go stale.
	s.invalidateExpense(previous)
	s.invalidateExpense(e)

	respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	previous, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "expense")
		return
	}

	if err := s.store.DeleteExpense(r.Context(), id); err != nil {
		respondStoreError(w, r, err, "expense")
		return
	}

	s.invalidateExpense(previous)

	s.logger.InfoContext(r.Context(), "Expense deleted",
		"id", id,
		"title", previous.Title)

	w.WriteHeader(http.StatusNoContent)
}
