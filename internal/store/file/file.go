// Package file implements the store as a single JSON document on
// disk. State lives in an embedded memory store; every mutation
// rewrites the file through a temp-file rename, so a crash leaves
// either the old document or the new one, never a torn write.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/store/memory"
)

// document is the on-disk shape. Singletons are pointers so an
// untouched section stays out of the file entirely.
type document struct {
	Expenses    []core.Expense             `json:"expenses"`
	Recurring   []core.RecurringDefinition `json:"recurring"`
	Dismissals  []core.Dismissal           `json:"dismissed,omitempty"`
	Loans       []core.Loan                `json:"loans,omitempty"`
	Cards       []core.Card                `json:"cards,omitempty"`
	Investments []core.Investment          `json:"investments,omitempty"`
	Salaries    []core.Salary              `json:"salaries,omitempty"`
	Profile     *core.IncomeProfile        `json:"income_profile,omitempty"`
	Settings    *core.Settings             `json:"settings,omitempty"`
	Rule        *core.BudgetRule           `json:"budget_rule,omitempty"`
	Categories  *core.CategoryConfig       `json:"category_config,omitempty"`
	Chat        []core.ChatMessage         `json:"chat,omitempty"`
}

// Store persists every mutation to a JSON file. Reads are served by
// the embedded memory store.
type Store struct {
	*memory.Store

	path    string
	flushMu sync.Mutex
}

// New opens the store at path, creating parent directories as needed.
// A missing file means an empty store; it is written on the first
// mutation.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		Store: memory.New(),
		path:  path,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read data file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse data file: %w", err)
	}

	// Replay the document into the memory store. Create preserves the
	// ids the document carries.
	ctx := context.Background()
	for _, e := range doc.Expenses {
		if _, err := s.Store.CreateExpense(ctx, e); err != nil {
			return fmt.Errorf("load expense: %w", err)
		}
	}
	for _, def := range doc.Recurring {
		if _, err := s.Store.CreateRecurringDefinition(ctx, def); err != nil {
			return fmt.Errorf("load recurring definition: %w", err)
		}
	}
	for _, dm := range doc.Dismissals {
		if err := s.Store.AddDismissal(ctx, dm); err != nil {
			return fmt.Errorf("load dismissal: %w", err)
		}
	}
	for _, l := range doc.Loans {
		if _, err := s.Store.CreateLoan(ctx, l); err != nil {
			return fmt.Errorf("load loan: %w", err)
		}
	}
	for _, c := range doc.Cards {
		if _, err := s.Store.CreateCard(ctx, c); err != nil {
			return fmt.Errorf("load card: %w", err)
		}
	}
	for _, inv := range doc.Investments {
		if _, err := s.Store.CreateInvestment(ctx, inv); err != nil {
			return fmt.Errorf("load investment: %w", err)
		}
	}
	for _, sal := range doc.Salaries {
		if err := s.Store.UpsertSalary(ctx, sal); err != nil {
			return fmt.Errorf("load salary: %w", err)
		}
	}
	if doc.Profile != nil {
		if err := s.Store.SetIncomeProfile(ctx, *doc.Profile); err != nil {
			return fmt.Errorf("load income profile: %w", err)
		}
	}
	if doc.Settings != nil {
		if err := s.Store.SetSettings(ctx, *doc.Settings); err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
	}
	if doc.Rule != nil {
		if err := s.Store.SetBudgetRule(ctx, *doc.Rule); err != nil {
			return fmt.Errorf("load budget rule: %w", err)
		}
	}
	if doc.Categories != nil {
		if err := s.Store.SetCategoryConfig(ctx, *doc.Categories); err != nil {
			return fmt.Errorf("load category config: %w", err)
		}
	}
	for _, msg := range doc.Chat {
		if err := s.Store.AppendChatMessage(ctx, msg); err != nil {
			return fmt.Errorf("load chat message: %w", err)
		}
	}
	return nil
}

func (s *Store) flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	doc := document{}
	var err error
	if doc.Expenses, err = s.Store.ListExpenses(ctx); err != nil {
		return err
	}
	if doc.Recurring, err = s.Store.ListRecurringDefinitions(ctx); err != nil {
		return err
	}
	if doc.Dismissals, err = s.Store.ListDismissals(ctx); err != nil {
		return err
	}
	if doc.Loans, err = s.Store.ListLoans(ctx); err != nil {
		return err
	}
	if doc.Cards, err = s.Store.ListCards(ctx); err != nil {
		return err
	}
	if doc.Investments, err = s.Store.ListInvestments(ctx); err != nil {
		return err
	}
	if doc.Salaries, err = s.Store.ListSalaries(ctx); err != nil {
		return err
	}
	if doc.Chat, err = s.Store.ListChatMessages(ctx); err != nil {
		return err
	}
	profile, err := s.Store.GetIncomeProfile(ctx)
	if err != nil {
		return err
	}
	doc.Profile = &profile
	settings, err := s.Store.GetSettings(ctx)
	if err != nil {
		return err
	}
	doc.Settings = &settings
	rule, err := s.Store.GetBudgetRule(ctx)
	if err != nil {
		return err
	}
	doc.Rule = &rule
	categories, err := s.Store.GetCategoryConfig(ctx)
	if err != nil {
		return err
	}
	doc.Categories = &categories

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// persist flushes after a successful mutation and passes errors
// through unchanged.
func (s *Store) persist(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	return s.flush(ctx)
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	created, err := s.Store.CreateExpense(ctx, e)
	if err := s.persist(ctx, err); err != nil {
		return core.Expense{}, err
	}
	return created, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	return s.persist(ctx, s.Store.UpdateExpense(ctx, e))
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return s.persist(ctx, s.Store.DeleteExpense(ctx, id))
}

func (s *Store) CreateRecurringDefinition(ctx context.Context, def core.RecurringDefinition) (core.RecurringDefinition, error) {
	created, err := s.Store.CreateRecurringDefinition(ctx, def)
	if err := s.persist(ctx, err); err != nil {
		return core.RecurringDefinition{}, err
	}
	return created, nil
}

func (s *Store) UpdateRecurringDefinition(ctx context.Context, def core.RecurringDefinition) error {
	return s.persist(ctx, s.Store.UpdateRecurringDefinition(ctx, def))
}

func (s *Store) UpdateRecurringCategory(ctx context.Context, id, category string) (int, error) {
	updated, err := s.Store.UpdateRecurringCategory(ctx, id, category)
	if err := s.persist(ctx, err); err != nil {
		return 0, err
	}
	return updated, nil
}

func (s *Store) DeleteRecurringDefinition(ctx context.Context, id string) error {
	return s.persist(ctx, s.Store.DeleteRecurringDefinition(ctx, id))
}

func (s *Store) AddDismissal(ctx context.Context, dm core.Dismissal) error {
	return s.persist(ctx, s.Store.AddDismissal(ctx, dm))
}

func (s *Store) CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error) {
	created, err := s.Store.CreateLoan(ctx, l)
	if err := s.persist(ctx, err); err != nil {
		return core.Loan{}, err
	}
	return created, nil
}

func (s *Store) UpdateLoan(ctx context.Context, l core.Loan) error {
	return s.persist(ctx, s.Store.UpdateLoan(ctx, l))
}

func (s *Store) DeleteLoan(ctx context.Context, id string) error {
	return s.persist(ctx, s.Store.DeleteLoan(ctx, id))
}

func (s *Store) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	created, err := s.Store.CreateCard(ctx, c)
	if err := s.persist(ctx, err); err != nil {
		return core.Card{}, err
	}
	return created, nil
}

func (s *Store) UpdateCard(ctx context.Context, c core.Card) error {
	return s.persist(ctx, s.Store.UpdateCard(ctx, c))
}

func (s *Store) CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	created, err := s.Store.CreateInvestment(ctx, inv)
	if err := s.persist(ctx, err); err != nil {
		return core.Investment{}, err
	}
	return created, nil
}

func (s *Store) DeleteInvestment(ctx context.Context, id string) error {
	return s.persist(ctx, s.Store.DeleteInvestment(ctx, id))
}

func (s *Store) UpsertSalary(ctx context.Context, sal core.Salary) error {
	return s.persist(ctx, s.Store.UpsertSalary(ctx, sal))
}

func (s *Store) SetIncomeProfile(ctx context.Context, p core.IncomeProfile) error {
	return s.persist(ctx, s.Store.SetIncomeProfile(ctx, p))
}

func (s *Store) SetSettings(ctx context.Context, st core.Settings) error {
	return s.persist(ctx, s.Store.SetSettings(ctx, st))
}

func (s *Store) SetBudgetRule(ctx context.Context, r core.BudgetRule) error {
	return s.persist(ctx, s.Store.SetBudgetRule(ctx, r))
}

func (s *Store) SetCategoryConfig(ctx context.Context, c core.CategoryConfig) error {
	return s.persist(ctx, s.Store.SetCategoryConfig(ctx, c))
}

func (s *Store) AppendChatMessage(ctx context.Context, msg core.ChatMessage) error {
	return s.persist(ctx, s.Store.AppendChatMessage(ctx, msg))
}
