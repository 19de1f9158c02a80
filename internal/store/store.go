// Package store defines the persistence port of the tracker and the
// factory that opens one of its backends: in-memory, JSON file or
// SQLite. Consumers depend on the narrow capability interfaces; the
// composed Store is what backends implement.
package store

import (
	"context"

	"fintrack/internal/core"
)

// ExpenseStore persists concrete expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	ListExpensesByMonth(ctx context.Context, year, month int) ([]core.Expense, error)
}

// RecurringStore persists recurring definitions, their materialization
// ledgers and dismissals.
type RecurringStore interface {
	CreateRecurringDefinition(ctx context.Context, def core.RecurringDefinition) (core.RecurringDefinition, error)
	GetRecurringDefinition(ctx context.Context, id string) (core.RecurringDefinition, error)
	UpdateRecurringDefinition(ctx context.Context, def core.RecurringDefinition) error
	// UpdateRecurringCategory changes the definition's category and
	// cascades it to every expense materialized from it, and no other.
	// Returns how many expenses changed.
	UpdateRecurringCategory(ctx context.Context, id, category string) (int, error)
	DeleteRecurringDefinition(ctx context.Context, id string) error
	ListRecurringDefinitions(ctx context.Context) ([]core.RecurringDefinition, error)
	AddDismissal(ctx context.Context, dm core.Dismissal) error
	ListDismissals(ctx context.Context) ([]core.Dismissal, error)
}

// LoanStore persists loans and card installment plans.
type LoanStore interface {
	CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error)
	GetLoan(ctx context.Context, id string) (core.Loan, error)
	UpdateLoan(ctx context.Context, l core.Loan) error
	DeleteLoan(ctx context.Context, id string) error
	ListLoans(ctx context.Context) ([]core.Loan, error)
	CreateCard(ctx context.Context, c core.Card) (core.Card, error)
	UpdateCard(ctx context.Context, c core.Card) error
	ListCards(ctx context.Context) ([]core.Card, error)
}

// InvestmentStore persists investment events.
type InvestmentStore interface {
	CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error)
	DeleteInvestment(ctx context.Context, id string) error
	ListInvestments(ctx context.Context) ([]core.Investment, error)
}

// IncomeStore persists salary records and the income profile.
type IncomeStore interface {
	UpsertSalary(ctx context.Context, s core.Salary) error
	ListSalaries(ctx context.Context) ([]core.Salary, error)
	GetIncomeProfile(ctx context.Context) (core.IncomeProfile, error)
	SetIncomeProfile(ctx context.Context, p core.IncomeProfile) error
}

// SettingsStore persists settings and the budget configuration.
// Getters return the defaults when nothing was ever saved.
type SettingsStore interface {
	GetSettings(ctx context.Context) (core.Settings, error)
	SetSettings(ctx context.Context, s core.Settings) error
	GetBudgetRule(ctx context.Context) (core.BudgetRule, error)
	SetBudgetRule(ctx context.Context, r core.BudgetRule) error
	GetCategoryConfig(ctx context.Context) (core.CategoryConfig, error)
	SetCategoryConfig(ctx context.Context, c core.CategoryConfig) error
}

// ChatStore persists the advisor conversation.
type ChatStore interface {
	AppendChatMessage(ctx context.Context, m core.ChatMessage) error
	ListChatMessages(ctx context.Context) ([]core.ChatMessage, error)
}

// Store is the full persistence surface a backend provides. Lookups
// for missing ids wrap core.ErrNotFound.
type Store interface {
	ExpenseStore
	RecurringStore
	LoanStore
	InvestmentStore
	IncomeStore
	SettingsStore
	ChatStore

	Ping(ctx context.Context) error
	Close() error
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the opened store and its cleanup function.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Factory opens stores based on configuration.
type Factory interface {
	Open(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for opening a store.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// File specific
	DataFilePath string
}

// BackendType selects the persistence backend.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
