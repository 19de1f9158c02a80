// Package budget resolves which month a transaction belongs to and
// measures a month's spending against the budget rule.
//
// Attribution is two-layered: an expense carries an optional explicit
// budget month override, otherwise its calendar date decides. On top of
// that, the pay schedule shifts which month's income funds a given
// expense month: with last-week pay, January's spending is funded by
// December's salary.
package budget

import "fintrack/internal/core"

// ResolveBudgetMonth returns the budget month an expense counts
// against. The override wins only when both month and year are set;
// with either missing the calendar date decides.
func ResolveBudgetMonth(e core.Expense) core.Attribution {
	if e.BudgetMonth != 0 && e.BudgetYear != 0 {
		return core.Attribution{Year: e.BudgetYear, Month: e.BudgetMonth, Source: core.AttributionExplicit}
	}
	return core.Attribution{Year: e.Date.Year(), Month: e.Date.Month(), Source: core.AttributionDerived}
}

// ResolveIncomeMonth returns the income month an investment counts
// against, same override rule as expenses.
func ResolveIncomeMonth(inv core.Investment) core.Attribution {
	if inv.IncomeMonth != 0 && inv.IncomeYear != 0 {
		return core.Attribution{Year: inv.IncomeYear, Month: inv.IncomeMonth, Source: core.AttributionExplicit}
	}
	return core.Attribution{Year: inv.Date.Year(), Month: inv.Date.Month(), Source: core.AttributionDerived}
}

// ResolveIncomeForExpenseMonth maps an expense month to the income
// month that funds it. Last-week pay shifts back one month, wrapping
// January to the previous December; any other schedule is identity.
func ResolveIncomeForExpenseMonth(year, month int, ps core.PaySchedule) (int, int) {
	if ps != core.PayLastWeek {
		return year, month
	}
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}
