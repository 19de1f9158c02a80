package budget

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

type fakeStore struct {
	expenses    []core.Expense
	investments []core.Investment
	loans       []core.Loan
	salaries    []core.Salary
	profile     core.IncomeProfile
	settings    core.Settings
	rule        core.BudgetRule
	categories  core.CategoryConfig
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings:   core.DefaultSettings(),
		rule:       core.DefaultBudgetRule(),
		categories: core.DefaultCategoryConfig(),
	}
}

func (f *fakeStore) ListExpenses(_ context.Context) ([]core.Expense, error)       { return f.expenses, nil }
func (f *fakeStore) ListInvestments(_ context.Context) ([]core.Investment, error) { return f.investments, nil }
func (f *fakeStore) ListLoans(_ context.Context) ([]core.Loan, error)             { return f.loans, nil }
func (f *fakeStore) ListSalaries(_ context.Context) ([]core.Salary, error)        { return f.salaries, nil }
func (f *fakeStore) GetIncomeProfile(_ context.Context) (core.IncomeProfile, error) {
	return f.profile, nil
}
func (f *fakeStore) GetSettings(_ context.Context) (core.Settings, error)     { return f.settings, nil }
func (f *fakeStore) GetBudgetRule(_ context.Context) (core.BudgetRule, error) { return f.rule, nil }
func (f *fakeStore) GetCategoryConfig(_ context.Context) (core.CategoryConfig, error) {
	return f.categories, nil
}

func TestNeedsAndWantsTotals(t *testing.T) {
	store := newFakeStore()
	store.expenses = []core.Expense{
		{Title: "Big Bazaar", Category: "groceries", Amount: core.Money{Cents: 500000}, Date: core.NewDate(2025, 6, 3)},
		{Title: "Flat rent", Category: "rent", Amount: core.Money{Cents: 2000000}, Date: core.NewDate(2025, 6, 1)},
		{Title: "Pizza night", Category: "dining", Amount: core.Money{Cents: 120000}, Date: core.NewDate(2025, 6, 14)},
		// Dated July but explicitly budgeted to June.
		{Title: "Late groceries", Category: "groceries", Amount: core.Money{Cents: 80000},
			Date: core.NewDate(2025, 7, 1), BudgetMonth: 6, BudgetYear: 2025},
		// July expense: out of scope for June.
		{Title: "July rent", Category: "rent", Amount: core.Money{Cents: 2000000}, Date: core.NewDate(2025, 7, 1)},
		// Category in neither list: counts toward no bucket.
		{Title: "Donation", Category: "charity", Amount: core.Money{Cents: 300000}, Date: core.NewDate(2025, 6, 20)},
	}
	agg := NewAggregator(store)

	needs, err := agg.NeedsTotal(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("NeedsTotal() error: %v", err)
	}
	if want := int64(500000 + 2000000 + 80000); needs.Cents != want {
		t.Errorf("NeedsTotal() = %d, want %d", needs.Cents, want)
	}

	wants, err := agg.WantsTotal(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("WantsTotal() error: %v", err)
	}
	if wants.Cents != 120000 {
		t.Errorf("WantsTotal() = %d, want 120000", wants.Cents)
	}
}

func TestNeedsTotalLoanEMIExclusion(t *testing.T) {
	store := newFakeStore()
	store.loans = []core.Loan{
		{Name: "HDFC Home Loan", Type: core.LoanHome, Status: core.LoanActive},
		{Name: "Old Car Loan", Type: core.LoanCar, Status: core.LoanClosed},
	}
	store.expenses = []core.Expense{
		{Title: "HDFC Home Loan EMI", Category: "emi", Amount: core.Money{Cents: 3500000}, Date: core.NewDate(2025, 6, 5)},
		{Title: "Old Car Loan EMI", Category: "emi", Amount: core.Money{Cents: 1500000}, Date: core.NewDate(2025, 6, 7)},
		{Title: "Groceries", Category: "groceries", Amount: core.Money{Cents: 400000}, Date: core.NewDate(2025, 6, 8)},
	}
	agg := NewAggregator(store)

	// Active-loan EMI excluded; the closed loan's EMI stays in.
	needs, err := agg.NeedsTotal(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("NeedsTotal() error: %v", err)
	}
	if want := int64(1500000 + 400000); needs.Cents != want {
		t.Errorf("NeedsTotal() = %d, want %d with active EMI excluded", needs.Cents, want)
	}

	store.categories.IncludeLoanEMIs = true
	needs, err = agg.NeedsTotal(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("NeedsTotal() error: %v", err)
	}
	if want := int64(3500000 + 1500000 + 400000); needs.Cents != want {
		t.Errorf("NeedsTotal() = %d, want %d with EMIs included", needs.Cents, want)
	}
}

func TestInvestTotal(t *testing.T) {
	store := newFakeStore()
	store.settings.ExchangeRate = 83.5
	store.investments = []core.Investment{
		{Type: core.InvestFD, Date: core.NewDate(2025, 6, 2), Amount: core.Money{Cents: 1000000}},
		// 2 shares at $150.00 each, converted at 83.5.
		{Type: core.InvestShares, Date: core.NewDate(2025, 6, 10),
			Price: core.Money{Cents: 15000}, Quantity: 2, Currency: "USD"},
		// Gold in base currency: no conversion.
		{Type: core.InvestGold, Date: core.NewDate(2025, 6, 15),
			Price: core.Money{Cents: 700000}, Quantity: 1.5, Currency: "INR"},
		// Dated July but attributed to June's income month.
		{Type: core.InvestEPF, Date: core.NewDate(2025, 7, 1), Amount: core.Money{Cents: 360000},
			IncomeMonth: 6, IncomeYear: 2025},
		// Out of scope.
		{Type: core.InvestFD, Date: core.NewDate(2025, 7, 2), Amount: core.Money{Cents: 500000}},
	}
	agg := NewAggregator(store)

	got, err := agg.InvestTotal(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("InvestTotal() error: %v", err)
	}
	// 1000000 + 15000*2*83.5 + 700000*1.5 + 360000
	want := int64(1000000 + 2505000 + 1050000 + 360000)
	if got.Cents != want {
		t.Errorf("InvestTotal() = %d, want %d", got.Cents, want)
	}
}

func TestHealthStatuses(t *testing.T) {
	store := newFakeStore()
	store.salaries = []core.Salary{{Year: 2025, Month: 6, Amount: core.Money{Cents: 10000000}}}
	store.expenses = []core.Expense{
		{Title: "Rent", Category: "rent", Amount: core.Money{Cents: 3000000}, Date: core.NewDate(2025, 6, 1)},
		{Title: "Groceries", Category: "groceries", Amount: core.Money{Cents: 1000000}, Date: core.NewDate(2025, 6, 5)},
		{Title: "Dining", Category: "dining", Amount: core.Money{Cents: 3500000}, Date: core.NewDate(2025, 6, 9)},
	}
	store.investments = []core.Investment{
		{Type: core.InvestFD, Date: core.NewDate(2025, 6, 20), Amount: core.Money{Cents: 1000000}},
	}
	agg := NewAggregator(store)

	health, err := agg.Health(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if !health.IncomeKnown || health.Income.Cents != 10000000 {
		t.Fatalf("income = %d known=%v, want 10000000 known", health.Income.Cents, health.IncomeKnown)
	}

	// Needs 40% of income against a 50% cap.
	if health.Needs.Percent != 40 || health.Needs.Status != core.StatusOnTarget {
		t.Errorf("needs = %.1f%% %s, want 40%% on_target", health.Needs.Percent, health.Needs.Status)
	}
	// Wants 35% against a 30% cap: over by 5 points.
	if health.Wants.Status != core.StatusOver || health.Wants.DeltaPoints != 5 {
		t.Errorf("wants = %s delta %.1f, want over delta 5", health.Wants.Status, health.Wants.DeltaPoints)
	}
	// Invest 10% against a 20% floor: under.
	if health.Invest.Status != core.StatusUnder {
		t.Errorf("invest = %s, want under", health.Invest.Status)
	}
	if !health.Needs.Determinate || !health.Wants.Determinate || !health.Invest.Determinate {
		t.Errorf("all buckets should be determinate with known income")
	}
}

func TestHealthIndeterminateWithoutIncome(t *testing.T) {
	store := newFakeStore()
	store.expenses = []core.Expense{
		{Title: "Rent", Category: "rent", Amount: core.Money{Cents: 3000000}, Date: core.NewDate(2025, 6, 1)},
	}
	agg := NewAggregator(store)

	health, err := agg.Health(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if health.IncomeKnown {
		t.Fatalf("income should be unknown with no salary and no CTC")
	}
	// Spend amounts still stand; percentages are flagged, not faked.
	if health.Needs.Amount.Cents != 3000000 {
		t.Errorf("needs amount = %d, want 3000000", health.Needs.Amount.Cents)
	}
	for name, b := range map[string]core.BucketReport{
		"needs": health.Needs, "wants": health.Wants, "invest": health.Invest,
	} {
		if b.Determinate {
			t.Errorf("%s should be indeterminate", name)
		}
		if b.Status != core.StatusUnknown {
			t.Errorf("%s status = %s, want unknown", name, b.Status)
		}
	}
}

func TestHealthFallsBackToAnnualCTC(t *testing.T) {
	store := newFakeStore()
	store.profile = core.IncomeProfile{AnnualCTC: core.Money{Cents: 120000000}}
	agg := NewAggregator(store)

	health, err := agg.Health(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if !health.IncomeKnown || health.Income.Cents != 10000000 {
		t.Errorf("income = %d known=%v, want CTC/12 = 10000000", health.Income.Cents, health.IncomeKnown)
	}
}

func TestHealthUsesPayScheduleShift(t *testing.T) {
	store := newFakeStore()
	store.settings.PaySchedule = core.PayLastWeek
	store.salaries = []core.Salary{
		{Year: 2024, Month: 12, Amount: core.Money{Cents: 9000000}},
		{Year: 2025, Month: 1, Amount: core.Money{Cents: 9500000}},
	}
	agg := NewAggregator(store)

	// January's spending is funded by December's salary.
	health, err := agg.Health(context.Background(), 2025, 1)
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if health.Income.Cents != 9000000 {
		t.Errorf("income = %d, want December's 9000000", health.Income.Cents)
	}
}

func TestCategoryTotals(t *testing.T) {
	store := newFakeStore()
	store.expenses = []core.Expense{
		{Title: "a", Category: "Groceries", Amount: core.Money{Cents: 100000}, Date: core.NewDate(2025, 6, 1)},
		{Title: "b", Category: "groceries", Amount: core.Money{Cents: 50000}, Date: core.NewDate(2025, 6, 2)},
		{Title: "c", Category: "dining", Amount: core.Money{Cents: 200000}, Date: core.NewDate(2025, 6, 3)},
		{Title: "d", Category: "charity", Amount: core.Money{Cents: 200000}, Date: core.NewDate(2025, 6, 4)},
	}
	agg := NewAggregator(store)

	overview, err := agg.CategoryTotals(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("CategoryTotals() error: %v", err)
	}
	if overview.Total.Cents != 550000 {
		t.Errorf("Total = %d, want 550000", overview.Total.Cents)
	}
	if len(overview.ByCategory) != 3 {
		t.Fatalf("got %d categories, want 3 (case-insensitive grouping)", len(overview.ByCategory))
	}
	// Amount descending, name ascending on ties.
	if overview.ByCategory[0].Name != "charity" || overview.ByCategory[1].Name != "dining" {
		t.Errorf("order = [%s %s %s], want charity, dining first on the tie",
			overview.ByCategory[0].Name, overview.ByCategory[1].Name, overview.ByCategory[2].Name)
	}
	if overview.ByCategory[2].Amount.Cents != 150000 {
		t.Errorf("groceries total = %d, want merged 150000", overview.ByCategory[2].Amount.Cents)
	}
}
