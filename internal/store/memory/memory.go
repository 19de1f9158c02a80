// Package memory implements the store on in-process maps. It backs
// tests and the file store, which persists snapshots of it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Store implements the full store surface with in-memory storage.
// All returned values are copies; callers never share backing arrays
// or maps with the store.
type Store struct {
	mu sync.RWMutex

	expenses    map[string]core.Expense
	definitions map[string]core.RecurringDefinition
	dismissals  []core.Dismissal
	loans       map[string]core.Loan
	cards       map[string]core.Card
	investments map[string]core.Investment
	salaries    map[core.MonthKey]core.Salary
	profile     *core.IncomeProfile
	settings    *core.Settings
	rule        *core.BudgetRule
	categories  *core.CategoryConfig
	chat        []core.ChatMessage
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		expenses:    make(map[string]core.Expense),
		definitions: make(map[string]core.RecurringDefinition),
		loans:       make(map[string]core.Loan),
		cards:       make(map[string]core.Card),
		investments: make(map[string]core.Investment),
		salaries:    make(map[core.MonthKey]core.Salary),
	}
}

// Expense operations

func (m *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	m.expenses[e.ID] = e
	return e, nil
}

func (m *Store) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}

	return e, nil
}

func (m *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expenses[e.ID]; !ok {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}

	m.expenses[e.ID] = e
	return nil
}

func (m *Store) DeleteExpense(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expenses[id]; !ok {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}

	delete(m.expenses, id)
	return nil
}

func (m *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]core.Expense, 0, len(m.expenses))
	for _, e := range m.expenses {
		result = append(result, e)
	}
	sortExpenses(result)
	return result, nil
}

func (m *Store) ListExpensesByMonth(ctx context.Context, year, month int) ([]core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Expense
	for _, e := range m.expenses {
		if e.Date.Year() != year || e.Date.Month() != month {
			continue
		}
		result = append(result, e)
	}
	sortExpenses(result)
	return result, nil
}

// Recurring definition operations

func (m *Store) CreateRecurringDefinition(ctx context.Context, def core.RecurringDefinition) (core.RecurringDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if def.ID == "" {
		def.ID = uuid.New().String()
	}
	if def.AddedToExpenses == nil {
		def.AddedToExpenses = core.NewMonthSet()
	}

	m.definitions[def.ID] = cloneDefinition(def)
	return def, nil
}

func (m *Store) GetRecurringDefinition(ctx context.Context, id string) (core.RecurringDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	def, ok := m.definitions[id]
	if !ok {
		return core.RecurringDefinition{}, fmt.Errorf("recurring definition %s: %w", id, core.ErrNotFound)
	}

	return cloneDefinition(def), nil
}

func (m *Store) UpdateRecurringDefinition(ctx context.Context, def core.RecurringDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.definitions[def.ID]; !ok {
		return fmt.Errorf("recurring definition %s: %w", def.ID, core.ErrNotFound)
	}

	m.definitions[def.ID] = cloneDefinition(def)
	return nil
}

func (m *Store) UpdateRecurringCategory(ctx context.Context, id, category string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	def, ok := m.definitions[id]
	if !ok {
		return 0, fmt.Errorf("recurring definition %s: %w", id, core.ErrNotFound)
	}

	def.Category = category
	m.definitions[id] = def

	// Cascade to materialized expenses only; manual expenses that
	// happen to share the name keep their category.
	updated := 0
	for eid, e := range m.expenses {
		if e.RecurringID != id {
			continue
		}
		e.Category = category
		m.expenses[eid] = e
		updated++
	}
	return updated, nil
}

func (m *Store) DeleteRecurringDefinition(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.definitions[id]; !ok {
		return fmt.Errorf("recurring definition %s: %w", id, core.ErrNotFound)
	}

	delete(m.definitions, id)
	return nil
}

func (m *Store) ListRecurringDefinitions(ctx context.Context) ([]core.RecurringDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]core.RecurringDefinition, 0, len(m.definitions))
	for _, def := range m.definitions {
		result = append(result, cloneDefinition(def))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Store) AddDismissal(ctx context.Context, dm core.Dismissal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dismissals = append(m.dismissals, dm)
	return nil
}

func (m *Store) ListDismissals(ctx context.Context) ([]core.Dismissal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]core.Dismissal(nil), m.dismissals...), nil
}

// Loan operations

func (m *Store) CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}

	m.loans[l.ID] = l
	return l, nil
}

func (m *Store) GetLoan(ctx context.Context, id string) (core.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.loans[id]
	if !ok {
		return core.Loan{}, fmt.Errorf("loan %s: %w", id, core.ErrNotFound)
	}

	return l, nil
}

func (m *Store) UpdateLoan(ctx context.Context, l core.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.loans[l.ID]; !ok {
		return fmt.Errorf("loan %s: %w", l.ID, core.ErrNotFound)
	}

	m.loans[l.ID] = l
	return nil
}

func (m *Store) DeleteLoan(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.loans[id]; !ok {
		return fmt.Errorf("loan %s: %w", id, core.ErrNotFound)
	}

	delete(m.loans, id)
	return nil
}

func (m *Store) ListLoans(ctx context.Context) ([]core.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]core.Loan, 0, len(m.loans))
	for _, l := range m.loans {
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Store) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	m.cards[c.ID] = cloneCard(c)
	return c, nil
}

func (m *Store) UpdateCard(ctx context.Context, c core.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[c.ID]; !ok {
		return fmt.Errorf("card %s: %w", c.ID, core.ErrNotFound)
	}

	m.cards[c.ID] = cloneCard(c)
	return nil
}

func (m *Store) ListCards(ctx context.Context) ([]core.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]core.Card, 0, len(m.cards))
	for _, c := range m.cards {
		result = append(result, cloneCard(c))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Investment operations

func (m *Store) CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}

	m.investments[inv.ID] = inv
	return inv, nil
}

func (m *Store) DeleteInvestment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.investments[id]; !ok {
		return fmt.Errorf("investment %s: %w", id, core.ErrNotFound)
	}

	delete(m.investments, id)
	return nil
}

func (m *Store) ListInvestments(ctx context.Context) ([]core.Investment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]core.Investment, 0, len(m.investments))
	for _, inv := range m.investments {
		result = append(result, inv)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date.Time) {
			return result[i].Date.Before(result[j].Date.Time)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Income operations

func (m *Store) UpsertSalary(ctx context.Context, s core.Salary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.salaries[core.MonthKeyFor(s.Year, s.Month)] = s
	return nil
}

func (m *Store) ListSalaries(ctx context.Context) ([]core.Salary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]core.Salary, 0, len(m.salaries))
	for _, s := range m.salaries {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

func (m *Store) GetIncomeProfile(ctx context.Context) (core.IncomeProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.profile == nil {
		return core.IncomeProfile{}, nil
	}
	return *m.profile, nil
}

func (m *Store) SetIncomeProfile(ctx context.Context, p core.IncomeProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profile = &p
	return nil
}

// Settings operations

func (m *Store) GetSettings(ctx context.Context) (core.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.settings == nil {
		return core.DefaultSettings(), nil
	}
	return *m.settings, nil
}

func (m *Store) SetSettings(ctx context.Context, s core.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings = &s
	return nil
}

func (m *Store) GetBudgetRule(ctx context.Context) (core.BudgetRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.rule == nil {
		return core.DefaultBudgetRule(), nil
	}
	return *m.rule, nil
}

func (m *Store) SetBudgetRule(ctx context.Context, r core.BudgetRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rule = &r
	return nil
}

func (m *Store) GetCategoryConfig(ctx context.Context) (core.CategoryConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.categories == nil {
		return core.DefaultCategoryConfig(), nil
	}
	return cloneCategoryConfig(*m.categories), nil
}

func (m *Store) SetCategoryConfig(ctx context.Context, c core.CategoryConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cc := cloneCategoryConfig(c)
	m.categories = &cc
	return nil
}

// Chat operations

func (m *Store) AppendChatMessage(ctx context.Context, msg core.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chat = append(m.chat, msg)
	return nil
}

func (m *Store) ListChatMessages(ctx context.Context) ([]core.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]core.ChatMessage(nil), m.chat...), nil
}

func (m *Store) Ping(ctx context.Context) error {
	return nil
}

func (m *Store) Close() error {
	return nil
}

func sortExpenses(expenses []core.Expense) {
	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date.Time) {
			return expenses[i].Date.Before(expenses[j].Date.Time)
		}
		return expenses[i].ID < expenses[j].ID
	})
}

// cloneDefinition detaches the slices and the ledger map so callers
// cannot mutate stored state through a returned value.
func cloneDefinition(def core.RecurringDefinition) core.RecurringDefinition {
	def.Months = append([]int(nil), def.Months...)
	if def.AddedToExpenses != nil {
		def.AddedToExpenses = def.AddedToExpenses.Clone()
	}
	return def
}

func cloneCard(c core.Card) core.Card {
	c.EMIs = append([]core.CardEMI(nil), c.EMIs...)
	return c
}

func cloneCategoryConfig(cfg core.CategoryConfig) core.CategoryConfig {
	cfg.Needs = append([]string(nil), cfg.Needs...)
	cfg.Wants = append([]string(nil), cfg.Wants...)
	return cfg
}
