package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(context.Background(), filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExpenseRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateExpense(ctx, core.Expense{
		Title:       "Internet",
		Category:    "internet",
		Amount:      core.Money{Cents: 99900},
		Date:        core.NewDate(2024, 7, 3),
		BudgetMonth: 8,
		BudgetYear:  2024,
		IsRecurring: true,
		RecurringID: "def-1",
	})
	if err != nil || created.ID == "" {
		t.Fatalf("unexpected create: id=%q err=%v", created.ID, err)
	}

	got, err := s.GetExpense(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Date.String() != "2024-07-03" || got.BudgetMonth != 8 || !got.IsRecurring || got.RecurringID != "def-1" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	byMonth, err := s.ListExpensesByMonth(ctx, 2024, 7)
	if err != nil || len(byMonth) != 1 {
		t.Fatalf("unexpected month list: n=%d err=%v", len(byMonth), err)
	}
	if other, _ := s.ListExpensesByMonth(ctx, 2024, 8); len(other) != 0 {
		t.Fatalf("calendar month filter leaked: %+v", other)
	}

	if err := s.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetExpense(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDefinitionLedgerSurvivesStorage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def, err := s.CreateRecurringDefinition(ctx, core.RecurringDefinition{
		Name:      "Insurance",
		Category:  "insurance",
		Amount:    core.Money{Cents: 1200000},
		Frequency: core.Yearly,
		Day:       15,
		Months:    []int{1, 7},
		EndDate:   core.NewDate(2026, 12, 31),
		Active:    true,
		CreatedAt: core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}

	def.AddedToExpenses.Add("2024-01")
	def.AddedToExpenses.Add("2024-07")
	if err := s.UpdateRecurringDefinition(ctx, def); err != nil {
		t.Fatalf("update definition: %v", err)
	}

	got, err := s.GetRecurringDefinition(ctx, def.ID)
	if err != nil {
		t.Fatalf("get definition: %v", err)
	}
	if !got.AddedToExpenses.Has("2024-01") || !got.AddedToExpenses.Has("2024-07") {
		t.Fatalf("ledger lost in storage: %+v", got.AddedToExpenses.Keys())
	}
	if len(got.Months) != 2 || got.Months[0] != 1 || got.Months[1] != 7 {
		t.Fatalf("months lost in storage: %v", got.Months)
	}
	if got.EndDate.String() != "2026-12-31" || got.CreatedAt.String() != "2024-01-01" {
		t.Fatalf("dates lost in storage: end=%s created=%s", got.EndDate, got.CreatedAt)
	}
}

func TestUpdateRecurringCategoryTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def, err := s.CreateRecurringDefinition(ctx, core.RecurringDefinition{
		Name: "Netflix", Category: "entertainment", Amount: core.Money{Cents: 64900},
		Frequency: core.Monthly, Day: 5, Active: true, CreatedAt: core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}

	for month := 1; month <= 3; month++ {
		if _, err := s.CreateExpense(ctx, core.Expense{
			Title: "Netflix", Category: "entertainment", Amount: core.Money{Cents: 64900},
			Date: core.NewDate(2024, month, 5), RecurringID: def.ID, IsRecurring: true,
		}); err != nil {
			t.Fatalf("create expense %d: %v", month, err)
		}
	}
	if _, err := s.CreateExpense(ctx, core.Expense{
		Title: "Netflix", Category: "entertainment", Amount: core.Money{Cents: 64900},
		Date: core.NewDate(2024, 4, 5),
	}); err != nil {
		t.Fatalf("create manual expense: %v", err)
	}

	updated, err := s.UpdateRecurringCategory(ctx, def.ID, "subscriptions")
	if err != nil || updated != 3 {
		t.Fatalf("unexpected cascade: updated=%d err=%v", updated, err)
	}

	all, err := s.ListExpenses(ctx)
	if err != nil || len(all) != 4 {
		t.Fatalf("unexpected expenses: n=%d err=%v", len(all), err)
	}
	for _, e := range all {
		want := "subscriptions"
		if e.RecurringID == "" {
			want = "entertainment"
		}
		if e.Category != want {
			t.Fatalf("expense on %s: category %q, want %q", e.Date, e.Category, want)
		}
	}

	if _, err := s.UpdateRecurringCategory(ctx, "missing", "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSalaryUpsertAndSingletons(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertSalary(ctx, core.Salary{Year: 2024, Month: 6, Amount: core.Money{Cents: 9000000}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertSalary(ctx, core.Salary{Year: 2024, Month: 6, Amount: core.Money{Cents: 9500000}}); err != nil {
		t.Fatalf("upsert replacement: %v", err)
	}
	salaries, err := s.ListSalaries(ctx)
	if err != nil || len(salaries) != 1 || salaries[0].Amount.Cents != 9500000 {
		t.Fatalf("unexpected salaries: %+v err=%v", salaries, err)
	}

	rule, err := s.GetBudgetRule(ctx)
	if err != nil || rule.NeedsPercent != 50 {
		t.Fatalf("expected default rule, got %+v err=%v", rule, err)
	}
	rule.NeedsPercent, rule.WantsPercent, rule.InvestPercent = 40, 30, 30
	if err := s.SetBudgetRule(ctx, rule); err != nil {
		t.Fatalf("set rule: %v", err)
	}
	rule, _ = s.GetBudgetRule(ctx)
	if rule.InvestPercent != 30 {
		t.Fatalf("expected saved rule, got %+v", rule)
	}

	profile, err := s.GetIncomeProfile(ctx)
	if err != nil || profile.AnnualCTC.Cents != 0 {
		t.Fatalf("expected zero profile, got %+v err=%v", profile, err)
	}
	if err := s.SetIncomeProfile(ctx, core.IncomeProfile{AnnualCTC: core.Money{Cents: 120000000}}); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	profile, _ = s.GetIncomeProfile(ctx)
	if profile.AnnualCTC.Cents != 120000000 {
		t.Fatalf("expected saved profile, got %+v", profile)
	}
}

func TestCardEMIsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	card, err := s.CreateCard(ctx, core.Card{
		Name: "Amex",
		EMIs: []core.CardEMI{
			{Description: "Phone", TotalCount: 12, EMIAmount: core.Money{Cents: 500000}, FirstEMIDate: core.NewDate(2024, 2, 10)},
		},
	})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}

	card.EMIs = append(card.EMIs, core.CardEMI{
		Description: "Laptop", TotalCount: 6, EMIAmount: core.Money{Cents: 1500000}, FirstEMIDate: core.NewDate(2024, 5, 10),
	})
	if err := s.UpdateCard(ctx, card); err != nil {
		t.Fatalf("update card: %v", err)
	}

	cards, err := s.ListCards(ctx)
	if err != nil || len(cards) != 1 || len(cards[0].EMIs) != 2 {
		t.Fatalf("unexpected cards: %+v err=%v", cards, err)
	}
	if cards[0].EMIs[1].Description != "Laptop" || cards[0].EMIs[1].FirstEMIDate.String() != "2024-05-10" {
		t.Fatalf("emi round trip mismatch: %+v", cards[0].EMIs[1])
	}
}
