package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
	Custom  Frequency = "custom"
)

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type (
	// Frequency is how often a recurring definition comes due. Monthly
	// definitions are due every month; yearly and custom ones only in
	// the months they list.
	Frequency string

	ChatRole string

	// Expense is one concrete spend. Expenses materialized from a
	// recurring definition carry the definition's ID so later edits to
	// the definition can find them.
	Expense struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Category    string `json:"category"`
		Amount      Money  `json:"amount"`
		Date        Date   `json:"date"`
		Description string `json:"description,omitempty"`
		BudgetMonth int    `json:"budget_month,omitempty"` // 1-12, 0 = derive from Date
		BudgetYear  int    `json:"budget_year,omitempty"`  // 0 = derive from Date
		RecurringID string `json:"recurring_id,omitempty"`
		IsRecurring bool   `json:"is_recurring,omitempty"`
	}

	// RecurringDefinition is a template for expenses that repeat.
	// AddedToExpenses is its materialization ledger: one key per month
	// already settled, regardless of whether an expense was created,
	// found pre-existing, or dismissed for that month.
	RecurringDefinition struct {
		ID              string    `json:"id"`
		Name            string    `json:"name"`
		Category        string    `json:"category"`
		Amount          Money     `json:"amount"`
		Frequency       Frequency `json:"frequency"`
		Day             int       `json:"day"`
		Months          []int     `json:"months,omitempty"` // 1-12, yearly/custom only
		Description     string    `json:"description,omitempty"`
		EndDate         Date      `json:"end_date,omitempty"` // inclusive, month granularity
		Active          bool      `json:"active"`
		AddedToExpenses MonthSet  `json:"added_to_expenses"`
		CreatedAt       Date      `json:"created_at"`
	}

	// Dismissal records the user waving off one concrete due occurrence.
	// A dismissed occurrence counts as settled: its month key is
	// recorded without creating an expense.
	Dismissal struct {
		RecurringID string `json:"recurring_id,omitempty"`
		Name        string `json:"name"`
		Date        Date   `json:"date"`
		Amount      Money  `json:"amount"`
	}

	ChatMessage struct {
		Role    ChatRole  `json:"role"`
		Content string    `json:"content"`
		At      time.Time `json:"at"`
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrNoMonths         = errors.New("yearly or custom definition needs at least one month")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
)

func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Yearly, Custom:
		return true
	default:
		return false
	}
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	// The budget override is both-or-neither: a month without a year
	// (or the reverse) is meaningless.
	if (e.BudgetMonth == 0) != (e.BudgetYear == 0) {
		return errors.New("budget month and budget year must be set together")
	}
	if e.BudgetMonth != 0 && (e.BudgetMonth < 1 || e.BudgetMonth > 12) {
		return ErrInvalidMonth
	}
	return nil
}

func (rd RecurringDefinition) Validate() error {
	if len(strings.TrimSpace(rd.Name)) == 0 {
		return ErrEmptyName
	}
	if len(rd.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := rd.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(rd.Category) == "" {
		return ErrEmptyCategory
	}
	if !rd.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if rd.Day < 1 || rd.Day > 31 {
		return ErrInvalidDay
	}
	if rd.Frequency != Monthly {
		if len(rd.Months) == 0 {
			return ErrNoMonths
		}
		for _, m := range rd.Months {
			if m < 1 || m > 12 {
				return ErrInvalidMonth
			}
		}
	}
	if err := rd.CreatedAt.Validate(); err != nil {
		return errors.New("invalid created date: " + err.Error())
	}
	// End date is optional; when set it must not precede creation.
	if !rd.EndDate.IsZero() && rd.EndDate.MonthIndex() < rd.CreatedAt.MonthIndex() {
		return errors.New("end date must not precede creation date")
	}
	return nil
}

// Matches reports whether the dismissal refers to the given occurrence.
// A dismissal carrying the definition's ID matches by ID and date;
// older dismissals without one fall back to name, date and amount.
func (dm Dismissal) Matches(def RecurringDefinition, due Date) bool {
	if dm.RecurringID != "" {
		return dm.RecurringID == def.ID && dm.Date.Equal(due.Time)
	}
	return dm.Name == def.Name && dm.Date.Equal(due.Time) && dm.Amount == def.Amount
}

func (dm Dismissal) Validate() error {
	if len(strings.TrimSpace(dm.Name)) == 0 && dm.RecurringID == "" {
		return ErrEmptyName
	}
	return dm.Date.Validate()
}
