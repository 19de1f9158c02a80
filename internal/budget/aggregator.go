package budget

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Store is the slice of persistence the aggregator reads. It never
// writes.
type Store interface {
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	ListInvestments(ctx context.Context) ([]core.Investment, error)
	ListLoans(ctx context.Context) ([]core.Loan, error)
	ListSalaries(ctx context.Context) ([]core.Salary, error)
	GetIncomeProfile(ctx context.Context) (core.IncomeProfile, error)
	GetSettings(ctx context.Context) (core.Settings, error)
	GetBudgetRule(ctx context.Context) (core.BudgetRule, error)
	GetCategoryConfig(ctx context.Context) (core.CategoryConfig, error)
}

// Aggregator computes monthly bucket totals and budget health. All
// methods read the store fresh; callers that need caching layer it on
// top.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// NeedsTotal sums the month's expenses whose categories are configured
// as needs. Loan EMI payments are left out by default because the loans
// module already tracks them; the IncludeLoanEMIs toggle puts them
// back.
func (a *Aggregator) NeedsTotal(ctx context.Context, year, month int) (core.Money, error) {
	cfg, err := a.store.GetCategoryConfig(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("get category config: %w", err)
	}
	reg := core.NewCategoryRegistry(cfg)

	var activeLoans []core.Loan
	if !cfg.IncludeLoanEMIs {
		loans, err := a.store.ListLoans(ctx)
		if err != nil {
			return core.Money{}, fmt.Errorf("list loans: %w", err)
		}
		for _, l := range loans {
			if l.IsActive() {
				activeLoans = append(activeLoans, l)
			}
		}
	}

	expenses, err := a.store.ListExpenses(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("list expenses: %w", err)
	}

	var total core.Money
	for _, e := range expenses {
		if attr := ResolveBudgetMonth(e); attr.Year != year || attr.Month != month {
			continue
		}
		if reg.Bucket(e.Category) != core.BucketNeeds {
			continue
		}
		if !cfg.IncludeLoanEMIs && looksLikeLoanEMI(e, activeLoans) {
			continue
		}
		total.Cents += e.Amount.Cents
	}
	return total, nil
}

// WantsTotal sums the month's expenses whose categories are configured
// as wants.
func (a *Aggregator) WantsTotal(ctx context.Context, year, month int) (core.Money, error) {
	cfg, err := a.store.GetCategoryConfig(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("get category config: %w", err)
	}
	reg := core.NewCategoryRegistry(cfg)

	expenses, err := a.store.ListExpenses(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("list expenses: %w", err)
	}

	var total core.Money
	for _, e := range expenses {
		if attr := ResolveBudgetMonth(e); attr.Year != year || attr.Month != month {
			continue
		}
		if reg.Bucket(e.Category) != core.BucketWants {
			continue
		}
		total.Cents += e.Amount.Cents
	}
	return total, nil
}

// InvestTotal sums the value of the month's investments. Unit-priced
// types are valued at price times quantity, converted by the settings
// exchange rate when bought in a foreign currency.
func (a *Aggregator) InvestTotal(ctx context.Context, year, month int) (core.Money, error) {
	settings, err := a.store.GetSettings(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("get settings: %w", err)
	}
	investments, err := a.store.ListInvestments(ctx)
	if err != nil {
		return core.Money{}, fmt.Errorf("list investments: %w", err)
	}

	var total core.Money
	for _, inv := range investments {
		if attr := ResolveIncomeMonth(inv); attr.Year != year || attr.Month != month {
			continue
		}
		total.Cents += investmentValue(inv, settings).Cents
	}
	return total, nil
}

// CategoryTotals is the raw per-category view of a budget month. Every
// expense counts, including categories outside both bucket lists.
func (a *Aggregator) CategoryTotals(ctx context.Context, year, month int) (core.MonthOverview, error) {
	expenses, err := a.store.ListExpenses(ctx)
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("list expenses: %w", err)
	}

	totals := make(map[string]int64)
	names := make(map[string]string)
	var grand int64
	for _, e := range expenses {
		if attr := ResolveBudgetMonth(e); attr.Year != year || attr.Month != month {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(e.Category))
		if _, seen := names[key]; !seen {
			names[key] = strings.TrimSpace(e.Category)
		}
		totals[key] += e.Amount.Cents
		grand += e.Amount.Cents
	}

	overview := core.MonthOverview{
		Year:       year,
		Month:      month,
		Total:      core.Money{Cents: grand},
		ByCategory: make([]core.CategoryAmount, 0, len(totals)),
	}
	for key, cents := range totals {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   names[key],
			Amount: core.Money{Cents: cents},
		})
	}
	sort.Slice(overview.ByCategory, func(i, j int) bool {
		a, b := overview.ByCategory[i], overview.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return overview, nil
}

// Health measures the month's bucket totals against the budget rule.
// Income comes from the salary record of the funding month (shifted by
// the pay schedule), falling back to annual CTC divided by 12. With
// neither, the amounts still report but every percentage is
// indeterminate rather than zero or NaN.
func (a *Aggregator) Health(ctx context.Context, year, month int) (core.BudgetHealth, error) {
	rule, err := a.store.GetBudgetRule(ctx)
	if err != nil {
		return core.BudgetHealth{}, fmt.Errorf("get budget rule: %w", err)
	}
	settings, err := a.store.GetSettings(ctx)
	if err != nil {
		return core.BudgetHealth{}, fmt.Errorf("get settings: %w", err)
	}

	needs, err := a.NeedsTotal(ctx, year, month)
	if err != nil {
		return core.BudgetHealth{}, err
	}
	wants, err := a.WantsTotal(ctx, year, month)
	if err != nil {
		return core.BudgetHealth{}, err
	}
	invest, err := a.InvestTotal(ctx, year, month)
	if err != nil {
		return core.BudgetHealth{}, err
	}

	income, known, err := a.resolveIncome(ctx, year, month, settings.PaySchedule)
	if err != nil {
		return core.BudgetHealth{}, err
	}

	return core.BudgetHealth{
		Year:        year,
		Month:       month,
		Income:      income,
		IncomeKnown: known,
		Needs:       bucketReport(needs, income, known, rule.NeedsPercent, false),
		Wants:       bucketReport(wants, income, known, rule.WantsPercent, false),
		Invest:      bucketReport(invest, income, known, rule.InvestPercent, true),
	}, nil
}

func (a *Aggregator) resolveIncome(ctx context.Context, year, month int, ps core.PaySchedule) (core.Money, bool, error) {
	iy, im := ResolveIncomeForExpenseMonth(year, month, ps)

	salaries, err := a.store.ListSalaries(ctx)
	if err != nil {
		return core.Money{}, false, fmt.Errorf("list salaries: %w", err)
	}
	for _, s := range salaries {
		if s.Year == iy && s.Month == im {
			return s.Amount, true, nil
		}
	}

	profile, err := a.store.GetIncomeProfile(ctx)
	if err != nil {
		return core.Money{}, false, fmt.Errorf("get income profile: %w", err)
	}
	if profile.AnnualCTC.Cents > 0 {
		return core.Money{Cents: profile.AnnualCTC.Cents / 12}, true, nil
	}
	return core.Money{}, false, nil
}

// bucketReport grades one bucket. Needs and wants are capped budgets
// (at or under target is on track); invest is a floor (at or over
// target is on track).
func bucketReport(amount, income core.Money, known bool, target int, higherIsBetter bool) core.BucketReport {
	report := core.BucketReport{
		Amount:        amount,
		TargetPercent: target,
		Status:        core.StatusUnknown,
	}
	if !known || income.Cents <= 0 {
		return report
	}

	pct := float64(amount.Cents) / float64(income.Cents) * 100
	report.Percent = pct
	report.Determinate = true
	report.DeltaPoints = pct - float64(target)

	switch {
	case higherIsBetter && pct >= float64(target):
		report.Status = core.StatusOnTarget
	case higherIsBetter:
		report.Status = core.StatusUnder
	case pct <= float64(target):
		report.Status = core.StatusOnTarget
	default:
		report.Status = core.StatusOver
	}
	return report
}

// looksLikeLoanEMI reports whether an expense appears to be the EMI
// payment of an active loan: its title contains the loan's name,
// case-insensitively.
func looksLikeLoanEMI(e core.Expense, activeLoans []core.Loan) bool {
	if len(activeLoans) == 0 {
		return false
	}
	title := strings.ToLower(e.Title)
	for _, l := range activeLoans {
		if name := strings.ToLower(strings.TrimSpace(l.Name)); name != "" && strings.Contains(title, name) {
			return true
		}
	}
	return false
}

func investmentValue(inv core.Investment, settings core.Settings) core.Money {
	if !inv.Type.UnitPriced() {
		return inv.Amount
	}
	value := decimal.NewFromInt(inv.Price.Cents).Mul(decimal.NewFromFloat(inv.Quantity))
	if inv.Currency != "" && !strings.EqualFold(inv.Currency, settings.BaseCurrency) {
		value = value.Mul(decimal.NewFromFloat(settings.ExchangeRate))
	}
	return core.Money{Cents: value.Round(0).IntPart()}
}
