// Package loan implements EMI math for amortizing loans and card
// installment plans. Arithmetic runs on decimals and crosses the
// package boundary as integer cents; no float money anywhere.
package loan

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	RateHigh   RateClass = "high"
	RateNormal RateClass = "normal"
)

type (
	// RateClass grades a loan's interest rate against the policy
	// threshold for its type.
	RateClass string

	// Remaining is the state of a loan part-way through its tenure.
	Remaining struct {
		EMIsPaid      int        `json:"emis_paid"`
		EMIsRemaining int        `json:"emis_remaining"`
		Balance       core.Money `json:"balance"`
	}

	// Progress is the full per-loan view handed to the API and CLI.
	Progress struct {
		EMI           core.Money `json:"emi"`
		EMIsPaid      int        `json:"emis_paid"`
		EMIsRemaining int        `json:"emis_remaining"`
		Balance       core.Money `json:"balance"`
		RateClass     RateClass  `json:"rate_class"`
	}
)

// ratePolicy holds the high-interest threshold per loan type, in basis
// points. Strictly above the threshold is high; at it is not.
var ratePolicy = map[core.LoanType]int64{
	core.LoanPersonal:  1500,
	core.LoanHome:      1000,
	core.LoanCar:       1200,
	core.LoanEducation: 1200,
	core.LoanOther:     1200,
}

const defaultRateThresholdBps = 1200

// ClassifyRate grades an annual rate for a loan type against the
// policy table.
func ClassifyRate(t core.LoanType, rateBps int64) RateClass {
	threshold, ok := ratePolicy[t]
	if !ok {
		threshold = defaultRateThresholdBps
	}
	if rateBps > threshold {
		return RateHigh
	}
	return RateNormal
}

// monthlyRate converts annual basis points to the monthly decimal
// rate: bps / 100 (percent) / 12 (months) / 100 (fraction).
func monthlyRate(rateBps int64) decimal.Decimal {
	return decimal.NewFromInt(rateBps).Div(decimal.NewFromInt(120000))
}

// CalculateEMI returns the fixed monthly installment for a loan:
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// with r the monthly rate and n the tenure in months. A zero rate
// degenerates to principal divided by tenure, rounded up so the last
// installment is never short.
func CalculateEMI(principal core.Money, rateBps int64, tenureMonths int) core.Money {
	if tenureMonths <= 0 || principal.Cents <= 0 {
		return core.Money{}
	}
	n := int64(tenureMonths)
	if rateBps == 0 {
		return core.Money{Cents: (principal.Cents + n - 1) / n}
	}

	r := monthlyRate(rateBps)
	pow := r.Add(decimal.NewFromInt(1)).Pow(decimal.NewFromInt(n))
	emi := decimal.NewFromInt(principal.Cents).
		Mul(r).
		Mul(pow).
		Div(pow.Sub(decimal.NewFromInt(1)))
	return core.Money{Cents: emi.Round(0).IntPart()}
}

// CalculateRemaining simulates the amortization schedule up to asOf
// and reports installments paid, installments left and the outstanding
// balance. Each month the interest portion is balance times the
// monthly rate; the rest of the installment retires principal. The
// balance floors at zero.
func CalculateRemaining(firstEMI core.Date, principal core.Money, rateBps int64, tenureMonths int, asOf core.Date) Remaining {
	paid := monthsElapsed(firstEMI, asOf, tenureMonths)
	emi := CalculateEMI(principal, rateBps, tenureMonths)

	r := monthlyRate(rateBps)
	balance := decimal.NewFromInt(principal.Cents)
	installment := decimal.NewFromInt(emi.Cents)
	for i := 0; i < paid; i++ {
		interest := balance.Mul(r).Round(0)
		balance = balance.Sub(installment.Sub(interest))
		if balance.Sign() <= 0 {
			balance = decimal.Zero
			break
		}
	}

	return Remaining{
		EMIsPaid:      paid,
		EMIsRemaining: tenureMonths - paid,
		Balance:       core.Money{Cents: balance.Round(0).IntPart()},
	}
}

// CardEMIProgress reports installments paid and left on a card plan.
// An explicit paid count wins; otherwise elapsed months since the
// first installment decide. The completed flag short-circuits both.
func CardEMIProgress(emi core.CardEMI, asOf core.Date) (paid, remaining int) {
	if emi.Completed {
		return emi.TotalCount, 0
	}
	paid = emi.PaidCount
	if paid == 0 {
		paid = monthsElapsed(emi.FirstEMIDate, asOf, emi.TotalCount)
	}
	if paid > emi.TotalCount {
		paid = emi.TotalCount
	}
	return paid, emi.TotalCount - paid
}

// Describe bundles the loan's derived numbers for presentation. An
// explicitly recorded EMI amount is reported as-is; the amortization
// schedule always runs on the derived one.
func Describe(l core.Loan, asOf core.Date) Progress {
	emi := l.EMIAmount
	if emi.Cents == 0 {
		emi = CalculateEMI(l.Principal, l.RateBps, l.TenureMonths)
	}
	rem := CalculateRemaining(l.FirstEMIDate, l.Principal, l.RateBps, l.TenureMonths, asOf)
	return Progress{
		EMI:           emi,
		EMIsPaid:      rem.EMIsPaid,
		EMIsRemaining: rem.EMIsRemaining,
		Balance:       rem.Balance,
		RateClass:     ClassifyRate(l.Type, l.RateBps),
	}
}

// monthsElapsed counts whole installment months between the first due
// date and asOf, clamped to [0, max]. The installment on its due day
// counts as paid that day; the due day clamps to short months.
func monthsElapsed(first, asOf core.Date, max int) int {
	if first.IsZero() || asOf.Before(first.Time) {
		return 0
	}
	months := asOf.MonthIndex() - first.MonthIndex()
	if asOf.Day() >= core.ClampDay(asOf.Year(), asOf.Month(), first.Day()) {
		months++
	}
	if months < 0 {
		return 0
	}
	if months > max {
		return max
	}
	return months
}
