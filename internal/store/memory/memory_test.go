package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestExpenseCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateExpense(ctx, core.Expense{
		Title:    "Groceries",
		Category: "groceries",
		Amount:   core.Money{Cents: 4500},
		Date:     core.NewDate(2024, 3, 12),
	})
	if err != nil || created.ID == "" {
		t.Fatalf("unexpected create: id=%q err=%v", created.ID, err)
	}

	got, err := s.GetExpense(ctx, created.ID)
	if err != nil || got.Title != "Groceries" {
		t.Fatalf("unexpected get: %+v err=%v", got, err)
	}

	got.Amount = core.Money{Cents: 5000}
	if err := s.UpdateExpense(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetExpense(ctx, created.ID)
	if got.Amount.Cents != 5000 {
		t.Fatalf("expected updated amount, got %d", got.Amount.Cents)
	}

	if err := s.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetExpense(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteExpense(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestListExpensesSortedAndFiltered(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, e := range []core.Expense{
		{Title: "Later", Category: "misc", Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 3, 20)},
		{Title: "Earlier", Category: "misc", Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 3, 5)},
		{Title: "OtherMonth", Category: "misc", Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 4, 1)},
	} {
		if _, err := s.CreateExpense(ctx, e); err != nil {
			t.Fatalf("create %s: %v", e.Title, err)
		}
	}

	all, err := s.ListExpenses(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("unexpected list: n=%d err=%v", len(all), err)
	}
	if all[0].Title != "Earlier" || all[2].Title != "OtherMonth" {
		t.Fatalf("expected date order, got %q %q %q", all[0].Title, all[1].Title, all[2].Title)
	}

	march, err := s.ListExpensesByMonth(ctx, 2024, 3)
	if err != nil || len(march) != 2 {
		t.Fatalf("unexpected march list: n=%d err=%v", len(march), err)
	}
}

func TestUpdateRecurringCategoryCascades(t *testing.T) {
	s := New()
	ctx := context.Background()

	def, err := s.CreateRecurringDefinition(ctx, core.RecurringDefinition{
		Name:      "Netflix",
		Category:  "entertainment",
		Amount:    core.Money{Cents: 64900},
		Frequency: core.Monthly,
		Day:       5,
		Active:    true,
		CreatedAt: core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}

	mustCreate := func(e core.Expense) {
		t.Helper()
		if _, err := s.CreateExpense(ctx, e); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}
	mustCreate(core.Expense{Title: "Netflix", Category: "entertainment", Amount: core.Money{Cents: 64900},
		Date: core.NewDate(2024, 1, 5), RecurringID: def.ID, IsRecurring: true})
	mustCreate(core.Expense{Title: "Netflix", Category: "entertainment", Amount: core.Money{Cents: 64900},
		Date: core.NewDate(2024, 2, 5), RecurringID: def.ID, IsRecurring: true})
	// Manual expense with the same name must keep its own category.
	mustCreate(core.Expense{Title: "Netflix", Category: "entertainment", Amount: core.Money{Cents: 64900},
		Date: core.NewDate(2024, 3, 5)})

	updated, err := s.UpdateRecurringCategory(ctx, def.ID, "subscriptions")
	if err != nil || updated != 2 {
		t.Fatalf("unexpected cascade: updated=%d err=%v", updated, err)
	}

	got, _ := s.GetRecurringDefinition(ctx, def.ID)
	if got.Category != "subscriptions" {
		t.Fatalf("expected definition category change, got %q", got.Category)
	}

	all, _ := s.ListExpenses(ctx)
	for _, e := range all {
		want := "subscriptions"
		if e.RecurringID == "" {
			want = "entertainment"
		}
		if e.Category != want {
			t.Fatalf("expense %s on %s: category %q, want %q", e.Title, e.Date, e.Category, want)
		}
	}

	if _, err := s.UpdateRecurringCategory(ctx, "missing", "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing definition, got %v", err)
	}
}

func TestDefinitionCopiesAreDetached(t *testing.T) {
	s := New()
	ctx := context.Background()

	def, err := s.CreateRecurringDefinition(ctx, core.RecurringDefinition{
		Name:            "Insurance",
		Category:        "insurance",
		Amount:          core.Money{Cents: 120000},
		Frequency:       core.Yearly,
		Day:             10,
		Months:          []int{6},
		Active:          true,
		AddedToExpenses: core.NewMonthSet("2023-06"),
		CreatedAt:       core.NewDate(2023, 1, 1),
	})
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}

	got, _ := s.GetRecurringDefinition(ctx, def.ID)
	got.Months[0] = 12
	got.AddedToExpenses.Add("2024-06")

	again, _ := s.GetRecurringDefinition(ctx, def.ID)
	if again.Months[0] != 6 {
		t.Fatalf("stored months mutated through returned copy: %v", again.Months)
	}
	if again.AddedToExpenses.Has("2024-06") {
		t.Fatal("stored ledger mutated through returned copy")
	}
}

func TestSalaryUpsertReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.UpsertSalary(ctx, core.Salary{Year: 2024, Month: 3, Amount: core.Money{Cents: 9000000}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertSalary(ctx, core.Salary{Year: 2024, Month: 3, Amount: core.Money{Cents: 9500000}}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if err := s.UpsertSalary(ctx, core.Salary{Year: 2024, Month: 1, Amount: core.Money{Cents: 8800000}}); err != nil {
		t.Fatalf("upsert january: %v", err)
	}

	salaries, err := s.ListSalaries(ctx)
	if err != nil || len(salaries) != 2 {
		t.Fatalf("unexpected salaries: %+v err=%v", salaries, err)
	}
	if salaries[0].Month != 1 || salaries[1].Amount.Cents != 9500000 {
		t.Fatalf("expected ordered, replaced salaries: %+v", salaries)
	}
}

func TestSingletonDefaults(t *testing.T) {
	s := New()
	ctx := context.Background()

	settings, err := s.GetSettings(ctx)
	if err != nil || settings.PaySchedule != core.PayFirstWeek {
		t.Fatalf("expected default settings, got %+v err=%v", settings, err)
	}
	rule, err := s.GetBudgetRule(ctx)
	if err != nil || rule.NeedsPercent != 50 || rule.WantsPercent != 30 || rule.InvestPercent != 20 {
		t.Fatalf("expected 50/30/20 default, got %+v err=%v", rule, err)
	}
	cfg, err := s.GetCategoryConfig(ctx)
	if err != nil || len(cfg.Needs) == 0 || len(cfg.Wants) == 0 {
		t.Fatalf("expected default category config, got %+v err=%v", cfg, err)
	}

	rule.NeedsPercent, rule.WantsPercent, rule.InvestPercent = 60, 20, 20
	if err := s.SetBudgetRule(ctx, rule); err != nil {
		t.Fatalf("set rule: %v", err)
	}
	rule, _ = s.GetBudgetRule(ctx)
	if rule.NeedsPercent != 60 {
		t.Fatalf("expected saved rule, got %+v", rule)
	}
}
