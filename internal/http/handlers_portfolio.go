package http

import (
	"net/http"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/loan"
)

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var l core.Loan
	if !decodeJSON(w, r, &l) {
		return
	}
	l.ID = ""
	if l.Status == "" {
		l.Status = core.LoanActive
	}

	if err := l.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateLoan(r.Context(), l)
	if err != nil {
		respondStoreError(w, r, err, "loan")
		return
	}

	s.logger.InfoContext(r.Context(), "Loan created",
		"id", created.ID,
		"name", created.Name,
		"principal_cents", created.Principal.Cents,
		"rate_bps", created.RateBps)

	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.store.ListLoans(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "loans")
		return
	}

	asOf := core.DateOf(time.Now())
	views := make([]loanProgress, 0, len(loans))
	for _, l := range loans {
		views = append(views, loanProgress{
			Loan:     l,
			AsOf:     asOf,
			Progress: loan.Describe(l, asOf),
		})
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	if _, err := s.store.GetLoan(r.Context(), id); err != nil {
		respondStoreError(w, r, err, "loan")
		return
	}

	var l core.Loan
	if !decodeJSON(w, r, &l) {
		return
	}
	l.ID = id
	if l.Status == "" {
		l.Status = core.LoanActive
	}

	if err := l.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateLoan(r.Context(), l); err != nil {
		respondStoreError(w, r, err, "loan")
		return
	}

	respondJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	if err := s.store.DeleteLoan(r.Context(), id); err != nil {
		respondStoreError(w, r, err, "loan")
		return
	}

	s.logger.InfoContext(r.Context(), "Loan deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// loanProgress is a loan with its derived amortization state.
type loanProgress struct {
	Loan     core.Loan     `json:"loan"`
	AsOf     core.Date     `json:"as_of"`
	Progress loan.Progress `json:"progress"`
}

func (s *Server) handleLoanProgress(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	l, err := s.store.GetLoan(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "loan")
		return
	}

	asOf := core.DateOf(time.Now())
	respondJSON(w, http.StatusOK, loanProgress{
		Loan:     l,
		AsOf:     asOf,
		Progress: loan.Describe(l, asOf),
	})
}

// cardEMIView is an installment plan with its derived progress.
type cardEMIView struct {
	core.CardEMI
	Paid      int `json:"paid"`
	Remaining int `json:"remaining"`
}

type cardView struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	EMIs []cardEMIView `json:"emis"`
	// MonthlyDue sums the installments of plans still running.
	MonthlyDue core.Money `json:"monthly_due"`
}

func buildCardView(c core.Card, asOf core.Date) cardView {
	view := cardView{
		ID:   c.ID,
		Name: c.Name,
		EMIs: make([]cardEMIView, 0, len(c.EMIs)),
	}
	for _, emi := range c.EMIs {
		paid, remaining := loan.CardEMIProgress(emi, asOf)
		view.EMIs = append(view.EMIs, cardEMIView{CardEMI: emi, Paid: paid, Remaining: remaining})
		if remaining > 0 {
			view.MonthlyDue.Cents += emi.EMIAmount.Cents
		}
	}
	return view
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var c core.Card
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = ""

	if err := c.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateCard(r.Context(), c)
	if err != nil {
		respondStoreError(w, r, err, "card")
		return
	}

	respondJSON(w, http.StatusCreated, buildCardView(created, core.DateOf(time.Now())))
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListCards(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "cards")
		return
	}

	asOf := core.DateOf(time.Now())
	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, buildCardView(c, asOf))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	var c core.Card
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = id

	if err := c.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateCard(r.Context(), c); err != nil {
		respondStoreError(w, r, err, "card")
		return
	}

	respondJSON(w, http.StatusOK, buildCardView(c, core.DateOf(time.Now())))
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv core.Investment
	if !decodeJSON(w, r, &inv) {
		return
	}
	inv.ID = ""

	if err := inv.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.CreateInvestment(r.Context(), inv)
	if err != nil {
		respondStoreError(w, r, err, "investment")
		return
	}

	// Investments feed the invest bucket of their income month.
	att := budget.ResolveIncomeMonth(created)
	s.invalidateBudgetMonth(att.Year, att.Month)

	s.logger.InfoContext(r.Context(), "Investment created",
		"id", created.ID,
		"type", string(created.Type))

	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := s.store.ListInvestments(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "investments")
		return
	}
	if investments == nil {
		investments = []core.Investment{}
	}
	respondJSON(w, http.StatusOK, investments)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	// No single-item lookup for investments; find it in the list so the
	// right month's caches can be dropped.
	investments, err := s.store.ListInvestments(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "investment")
		return
	}
	var deleted *core.Investment
	for i := range investments {
		if investments[i].ID == id {
			deleted = &investments[i]
			break
		}
	}

	if err := s.store.DeleteInvestment(r.Context(), id); err != nil {
		respondStoreError(w, r, err, "investment")
		return
	}

	if deleted != nil {
		att := budget.ResolveIncomeMonth(*deleted)
		s.invalidateBudgetMonth(att.Year, att.Month)
	}

	w.WriteHeader(http.StatusNoContent)
}
