package core

import (
	"errors"
	"strings"
)

const (
	LoanPersonal  LoanType = "personal"
	LoanHome      LoanType = "home"
	LoanCar       LoanType = "car"
	LoanEducation LoanType = "education"
	LoanOther     LoanType = "other"
)

const (
	LoanActive LoanStatus = "active"
	LoanClosed LoanStatus = "closed"
)

const (
	InvestShares InvestmentType = "SHARES"
	InvestGold   InvestmentType = "GOLD"
	InvestEPF    InvestmentType = "EPF"
	InvestFD     InvestmentType = "FD"
	InvestOther  InvestmentType = "OTHER"
)

type (
	LoanType   string
	LoanStatus string

	// Loan is an amortizing loan. RateBps is the annual interest rate
	// in basis points (950 = 9.5%). EMIAmount zero means "derive from
	// principal, rate and tenure".
	Loan struct {
		ID           string     `json:"id"`
		Name         string     `json:"name"`
		Type         LoanType   `json:"type"`
		Principal    Money      `json:"principal"`
		RateBps      int64      `json:"rate_bps"`
		TenureMonths int        `json:"tenure_months"`
		EMIAmount    Money      `json:"emi_amount,omitempty"`
		FirstEMIDate Date       `json:"first_emi_date"`
		Status       LoanStatus `json:"status"`
	}

	// CardEMI is an installment plan on a credit card. PaidCount zero
	// means "derive from elapsed months since FirstEMIDate".
	CardEMI struct {
		Description  string `json:"description"`
		TotalCount   int    `json:"total_count"`
		PaidCount    int    `json:"paid_count,omitempty"`
		EMIAmount    Money  `json:"emi_amount"`
		FirstEMIDate Date   `json:"first_emi_date"`
		Completed    bool   `json:"completed,omitempty"`
	}

	Card struct {
		ID   string    `json:"id"`
		Name string    `json:"name"`
		EMIs []CardEMI `json:"emis,omitempty"`
	}

	InvestmentType string

	// Investment is one investment event. SHARES and GOLD carry a unit
	// price and quantity (value = price x quantity, converted by the
	// settings exchange rate when the currency is not the base one);
	// the other types carry a flat amount.
	Investment struct {
		ID          string         `json:"id"`
		Type        InvestmentType `json:"type"`
		Date        Date           `json:"date"`
		Amount      Money          `json:"amount,omitempty"`
		Price       Money          `json:"price,omitempty"`
		Quantity    float64        `json:"quantity,omitempty"`
		Currency    string         `json:"currency,omitempty"`
		IncomeMonth int            `json:"income_month,omitempty"` // 1-12, 0 = derive from Date
		IncomeYear  int            `json:"income_year,omitempty"`  // 0 = derive from Date
	}

	// Salary is the net amount credited for one income month.
	Salary struct {
		Year   int   `json:"year"`
		Month  int   `json:"month"`
		Amount Money `json:"amount"`
	}

	// IncomeProfile is the annual compensation picture. When no salary
	// record exists for a month, monthly income falls back to
	// AnnualCTC/12 (if CTC is set); with neither, income is unknown.
	IncomeProfile struct {
		AnnualCTC   Money `json:"annual_ctc,omitempty"`
		AnnualBonus Money `json:"annual_bonus,omitempty"`
		ESPPPercent int   `json:"espp_percent,omitempty"`
		PFPercent   int   `json:"pf_percent,omitempty"`
	}

	Settings struct {
		PaySchedule  PaySchedule `json:"pay_schedule"`
		BaseCurrency string      `json:"base_currency"`
		ExchangeRate float64     `json:"exchange_rate"`
	}
)

var (
	ErrInvalidRate   = errors.New("invalid interest rate")
	ErrInvalidTenure = errors.New("invalid tenure")
)

func (lt LoanType) Valid() bool {
	switch lt {
	case LoanPersonal, LoanHome, LoanCar, LoanEducation, LoanOther:
		return true
	default:
		return false
	}
}

func (it InvestmentType) Valid() bool {
	switch it {
	case InvestShares, InvestGold, InvestEPF, InvestFD, InvestOther:
		return true
	default:
		return false
	}
}

// UnitPriced reports whether this investment type is valued by
// price x quantity rather than a flat amount.
func (it InvestmentType) UnitPriced() bool {
	return it == InvestShares || it == InvestGold
}

func (l Loan) Validate() error {
	if len(strings.TrimSpace(l.Name)) == 0 {
		return ErrEmptyName
	}
	if !l.Type.Valid() {
		return errors.New("invalid loan type")
	}
	if err := l.Principal.Validate(); err != nil {
		return err
	}
	if l.RateBps < 0 || l.RateBps > 10000 {
		return ErrInvalidRate
	}
	if l.TenureMonths < 1 {
		return ErrInvalidTenure
	}
	if err := l.FirstEMIDate.Validate(); err != nil {
		return errors.New("invalid first EMI date: " + err.Error())
	}
	return nil
}

// IsActive reports whether the loan still participates in budget math.
// An empty status means active; only an explicit close ends it.
func (l Loan) IsActive() bool {
	return l.Status != LoanClosed
}

func (ce CardEMI) Validate() error {
	if len(strings.TrimSpace(ce.Description)) == 0 {
		return ErrEmptyTitle
	}
	if ce.TotalCount < 1 {
		return ErrInvalidTenure
	}
	if ce.PaidCount < 0 || ce.PaidCount > ce.TotalCount {
		return errors.New("paid count out of range")
	}
	if err := ce.EMIAmount.Validate(); err != nil {
		return err
	}
	return ce.FirstEMIDate.Validate()
}

func (c Card) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	for _, emi := range c.EMIs {
		if err := emi.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (inv Investment) Validate() error {
	if !inv.Type.Valid() {
		return errors.New("invalid investment type")
	}
	if err := inv.Date.Validate(); err != nil {
		return err
	}
	if inv.Type.UnitPriced() {
		if err := inv.Price.Validate(); err != nil {
			return err
		}
		if inv.Quantity <= 0 {
			return errors.New("quantity must be positive")
		}
	} else {
		if err := inv.Amount.Validate(); err != nil {
			return err
		}
	}
	if (inv.IncomeMonth == 0) != (inv.IncomeYear == 0) {
		return errors.New("income month and income year must be set together")
	}
	if inv.IncomeMonth != 0 && (inv.IncomeMonth < 1 || inv.IncomeMonth > 12) {
		return ErrInvalidMonth
	}
	return nil
}

func (s Salary) Validate() error {
	if s.Month < 1 || s.Month > 12 {
		return ErrInvalidMonth
	}
	if s.Year < 1 {
		return ErrInvalidDate
	}
	return s.Amount.Validate()
}

func (s Settings) Validate() error {
	if !s.PaySchedule.Valid() {
		return errors.New("invalid pay schedule")
	}
	if s.ExchangeRate <= 0 {
		return errors.New("exchange rate must be positive")
	}
	return nil
}

// DefaultSettings: first-week pay, INR base, identity exchange rate.
func DefaultSettings() Settings {
	return Settings{PaySchedule: PayFirstWeek, BaseCurrency: "INR", ExchangeRate: 1.0}
}
