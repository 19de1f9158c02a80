package recurring

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// Store is the slice of persistence the engine needs. The full store
// implements it; tests use a small fake.
type Store interface {
	ListRecurringDefinitions(ctx context.Context) ([]core.RecurringDefinition, error)
	UpdateRecurringDefinition(ctx context.Context, def core.RecurringDefinition) error
	ListDismissals(ctx context.Context) ([]core.Dismissal, error)
	ListExpensesByMonth(ctx context.Context, year, month int) ([]core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
}

// Engine walks every active definition and settles each due month at
// most once: create the expense, or just record the month key when the
// occurrence already exists or was dismissed. Running it twice with the
// same date is a no-op the second time.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// MaterializeDue settles every unsettled due month up to today across
// all definitions and returns how many expenses it created. One broken
// definition never aborts the batch; its error is logged and the scan
// moves on.
func (e *Engine) MaterializeDue(ctx context.Context, today core.Date) (int, error) {
	if e.store == nil {
		return 0, fmt.Errorf("engine not properly initialized")
	}

	defs, err := e.store.ListRecurringDefinitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring definitions: %w", err)
	}
	dismissals, err := e.store.ListDismissals(ctx)
	if err != nil {
		return 0, fmt.Errorf("list dismissals: %w", err)
	}

	slog.InfoContext(ctx, "Materializing recurring expenses",
		"definitions", len(defs),
		"as_of", today.String())

	created := 0
	for _, def := range defs {
		n, err := e.materializeDefinition(ctx, def, dismissals, today)
		created += n
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize recurring definition",
				"id", def.ID,
				"name", def.Name,
				"error", err)
			continue
		}
	}

	slog.InfoContext(ctx, "Recurring materialization complete",
		"created", created,
		"checked", len(defs))

	return created, nil
}

func (e *Engine) materializeDefinition(ctx context.Context, def core.RecurringDefinition, dismissals []core.Dismissal, today core.Date) (int, error) {
	if !def.Active {
		return 0, nil
	}

	// A definition whose end month has fully elapsed is retired for
	// good. Months it never materialized stay unmaterialized.
	if expired(def, today) {
		def.Active = false
		if err := e.store.UpdateRecurringDefinition(ctx, def); err != nil {
			return 0, fmt.Errorf("deactivate expired definition: %w", err)
		}
		slog.InfoContext(ctx, "Deactivated expired recurring definition",
			"id", def.ID,
			"name", def.Name,
			"end_date", def.EndDate.String())
		return 0, nil
	}

	if def.AddedToExpenses == nil {
		def.AddedToExpenses = core.NewMonthSet()
	}

	created := 0
	dirty := false
	var scanErr error

	for _, ym := range monthsToScan(def, today) {
		key := core.MonthKeyFor(ym.year, ym.month)
		if def.AddedToExpenses.Has(key) {
			continue
		}
		if !IsDueInMonth(def, ym.year, ym.month) {
			continue
		}

		due := core.NewDate(ym.year, ym.month, core.ClampDay(ym.year, ym.month, def.Day))
		// A due date still ahead of today is left open, not settled.
		if due.After(today.Time) {
			continue
		}

		if dismissed(def, due, dismissals) {
			def.AddedToExpenses.Add(key)
			dirty = true
			continue
		}

		exists, err := e.occurrenceExists(ctx, def, due)
		if err != nil {
			scanErr = fmt.Errorf("check existing expense for %s: %w", key, err)
			break
		}
		if exists {
			def.AddedToExpenses.Add(key)
			dirty = true
			continue
		}

		expense := core.Expense{
			Title:       def.Name,
			Category:    def.Category,
			Amount:      def.Amount,
			Date:        due,
			Description: def.Description,
			RecurringID: def.ID,
			IsRecurring: true,
		}
		if _, err := e.store.CreateExpense(ctx, expense); err != nil {
			scanErr = fmt.Errorf("create expense for %s: %w", key, err)
			break
		}
		def.AddedToExpenses.Add(key)
		dirty = true
		created++

		slog.InfoContext(ctx, "Created expense from recurring definition",
			"recurring_id", def.ID,
			"name", def.Name,
			"amount_cents", def.Amount.Cents,
			"month", string(key))
	}

	// Persist settled keys even when the scan broke off, so a retry
	// never re-creates what this run already settled.
	if dirty {
		if err := e.store.UpdateRecurringDefinition(ctx, def); err != nil {
			if scanErr != nil {
				return created, fmt.Errorf("record settled months after %v: %w", scanErr, err)
			}
			return created, fmt.Errorf("record settled months: %w", err)
		}
	}
	return created, scanErr
}

// occurrenceExists looks for an expense already covering this
// definition and month. Matching is by recurring ID; expenses that
// predate ID linking fall back to title, date and amount.
func (e *Engine) occurrenceExists(ctx context.Context, def core.RecurringDefinition, due core.Date) (bool, error) {
	existing, err := e.store.ListExpensesByMonth(ctx, due.Year(), due.Month())
	if err != nil {
		return false, err
	}
	for _, ex := range existing {
		if ex.RecurringID != "" {
			if ex.RecurringID == def.ID {
				return true, nil
			}
			continue
		}
		// Legacy shim for pre-linking data only.
		if ex.Title == def.Name && ex.Date.Equal(due.Time) && ex.Amount == def.Amount {
			return true, nil
		}
	}
	return false, nil
}

// MonthlyObligations sums the amounts of active definitions due in the
// given month. Definitions not yet created or already ended by then do
// not count.
func (e *Engine) MonthlyObligations(ctx context.Context, year, month int) (core.Money, error) {
	defs, err := e.store.ListRecurringDefinitions(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("list recurring definitions: %w", err)
	}

	idx := year*12 + month - 1
	var total core.Money
	for _, def := range defs {
		if !def.Active {
			continue
		}
		if def.CreatedAt.MonthIndex() > idx {
			continue
		}
		if !def.EndDate.IsZero() && def.EndDate.MonthIndex() < idx {
			continue
		}
		if IsDueInMonth(def, year, month) {
			total.Cents += def.Amount.Cents
		}
	}
	return total, nil
}

type yearMonth struct {
	year, month int
}

// monthsToScan enumerates the months between the definition's creation
// and today (or its end date, whichever comes first), oldest first.
func monthsToScan(def core.RecurringDefinition, today core.Date) []yearMonth {
	start := def.CreatedAt.MonthIndex()
	end := today.MonthIndex()
	if !def.EndDate.IsZero() && def.EndDate.MonthIndex() < end {
		end = def.EndDate.MonthIndex()
	}
	if end < start {
		return nil
	}
	out := make([]yearMonth, 0, end-start+1)
	for idx := start; idx <= end; idx++ {
		out = append(out, yearMonth{year: idx / 12, month: idx%12 + 1})
	}
	return out
}

func expired(def core.RecurringDefinition, today core.Date) bool {
	if def.EndDate.IsZero() {
		return false
	}
	end := def.EndDate
	lastDay := core.NewDate(end.Year(), end.Month(), core.DaysInMonth(end.Year(), end.Month()))
	return today.After(lastDay.Time)
}

func dismissed(def core.RecurringDefinition, due core.Date, dismissals []core.Dismissal) bool {
	for _, dm := range dismissals {
		if dm.Matches(def, due) {
			return true
		}
	}
	return false
}
