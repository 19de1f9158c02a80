package sheets_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/recurring"
	"fintrack/internal/sheets"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/store/memory"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	if err := st.UpsertSalary(ctx, core.Salary{Year: 2025, Month: 3, Amount: core.Money{Cents: 12000000}}); err != nil {
		t.Fatalf("seed salary: %v", err)
	}
	seedExpenses := []core.Expense{
		{Title: "Groceries run", Category: "groceries", Amount: core.Money{Cents: 300000}, Date: core.NewDate(2025, 3, 5)},
		{Title: "Dinner out", Category: "dining", Amount: core.Money{Cents: 200000}, Date: core.NewDate(2025, 3, 10)},
	}
	for _, e := range seedExpenses {
		if _, err := st.CreateExpense(ctx, e); err != nil {
			t.Fatalf("seed expense: %v", err)
		}
	}
	if _, err := st.CreateRecurringDefinition(ctx, core.RecurringDefinition{
		Name:      "Rent",
		Category:  "rent",
		Amount:    core.Money{Cents: 3000000},
		Frequency: core.Monthly,
		Day:       1,
		Active:    true,
		CreatedAt: core.NewDate(2025, 1, 1),
	}); err != nil {
		t.Fatalf("seed recurring definition: %v", err)
	}
	return st
}

func TestExporter_ExportMonth(t *testing.T) {
	ctx := context.Background()
	st := seededStore(t)
	rec := sheetsmem.New()
	exp := sheets.NewExporter(budget.NewAggregator(st), recurring.NewEngine(st), rec)

	ref, err := exp.ExportMonth(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("ExportMonth() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ExportMonth() ref = %q, want mem:1", ref)
	}

	rows := rec.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Year != 2025 || row.Month != 3 {
		t.Errorf("row month = %d-%d, want 2025-3", row.Year, row.Month)
	}
	if row.Total.Cents != 500000 {
		t.Errorf("row total = %d cents, want 500000", row.Total.Cents)
	}
	if !row.IncomeKnown {
		t.Fatal("expected income to be known")
	}
	if row.Income.Cents != 12000000 {
		t.Errorf("row income = %d cents, want 12000000", row.Income.Cents)
	}
	if row.Needs.Cents != 300000 {
		t.Errorf("row needs = %d cents, want 300000", row.Needs.Cents)
	}
	if math.Abs(row.NeedsPercent-2.5) > 0.001 {
		t.Errorf("row needs percent = %v, want 2.5", row.NeedsPercent)
	}
	if row.Wants.Cents != 200000 {
		t.Errorf("row wants = %d cents, want 200000", row.Wants.Cents)
	}
	if row.Obligations.Cents != 3000000 {
		t.Errorf("row obligations = %d cents, want 3000000", row.Obligations.Cents)
	}
}

func TestExporter_ExportMonth_UnknownIncome(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	if _, err := st.CreateExpense(ctx, core.Expense{
		Title:    "Bus pass",
		Category: "transport",
		Amount:   core.Money{Cents: 50000},
		Date:     core.NewDate(2025, 4, 2),
	}); err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	rec := sheetsmem.New()
	exp := sheets.NewExporter(budget.NewAggregator(st), recurring.NewEngine(st), rec)

	if _, err := exp.ExportMonth(ctx, 2025, 4); err != nil {
		t.Fatalf("ExportMonth() error = %v", err)
	}

	rows := rec.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.IncomeKnown {
		t.Error("expected income to be unknown")
	}
	if row.Income.Cents != 0 {
		t.Errorf("row income = %d cents, want 0", row.Income.Cents)
	}
	if row.NeedsPercent != 0 {
		t.Errorf("row needs percent = %v, want 0", row.NeedsPercent)
	}
	if row.Total.Cents != 50000 {
		t.Errorf("row total = %d cents, want 50000", row.Total.Cents)
	}
}

type failingWriter struct{}

func (failingWriter) Append(context.Context, sheets.MonthSummaryRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestExporter_ExportMonth_WriterFailure(t *testing.T) {
	st := seededStore(t)
	exp := sheets.NewExporter(budget.NewAggregator(st), recurring.NewEngine(st), failingWriter{})

	_, err := exp.ExportMonth(context.Background(), 2025, 3)
	if err == nil {
		t.Fatal("expected error from failing writer")
	}
	if !strings.Contains(err.Error(), "append summary row") {
		t.Errorf("error = %v, want append summary row wrap", err)
	}
}
