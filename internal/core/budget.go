package core

import (
	"errors"
	"strings"
)

const (
	PayFirstWeek PaySchedule = "first_week"
	PayLastWeek  PaySchedule = "last_week"
)

const (
	BucketNeeds   Bucket = "needs"
	BucketWants   Bucket = "wants"
	BucketNeither Bucket = "neither"
)

const (
	AttributionExplicit AttributionSource = "explicit"
	AttributionDerived  AttributionSource = "derived"
)

type (
	// PaySchedule says when salary lands. With last_week pay, January's
	// spending is funded by December's income, so budget math shifts
	// the income month back by one.
	PaySchedule string

	// Bucket is the 50/30/20 bucket a category belongs to. Categories
	// configured in neither list land in BucketNeither and count toward
	// no bucket.
	Bucket string

	AttributionSource string

	// Attribution is the budget month an expense (or income month an
	// investment) resolves to, tagged with whether the user overrode it
	// or it was derived from the transaction date.
	Attribution struct {
		Year   int               `json:"year"`
		Month  int               `json:"month"`
		Source AttributionSource `json:"source"`
	}

	// BudgetRule is the target percentage split of monthly income.
	BudgetRule struct {
		NeedsPercent  int `json:"needs_percent"`
		WantsPercent  int `json:"wants_percent"`
		InvestPercent int `json:"invest_percent"`
	}

	// CategoryConfig lists which category names count as needs and
	// which as wants. Matching is case-insensitive. IncludeLoanEMIs
	// keeps loan EMI expenses inside the needs total instead of
	// treating them as already tracked by the loans module.
	CategoryConfig struct {
		Needs           []string `json:"needs"`
		Wants           []string `json:"wants"`
		IncludeLoanEMIs bool     `json:"include_loan_emis"`
	}

	// CategoryRegistry is the compiled lookup table from CategoryConfig.
	// Build it once per request path; lookups are O(1) and lower-case.
	CategoryRegistry struct {
		buckets map[string]Bucket
	}
)

func (ps PaySchedule) Valid() bool {
	return ps == PayFirstWeek || ps == PayLastWeek
}

func (r BudgetRule) Validate() error {
	for _, p := range []int{r.NeedsPercent, r.WantsPercent, r.InvestPercent} {
		if p < 0 || p > 100 {
			return errors.New("budget rule percents must be between 0 and 100")
		}
	}
	if r.NeedsPercent+r.WantsPercent+r.InvestPercent != 100 {
		return errors.New("budget rule percents must sum to 100")
	}
	return nil
}

// DefaultBudgetRule is the conventional 50/30/20 split.
func DefaultBudgetRule() BudgetRule {
	return BudgetRule{NeedsPercent: 50, WantsPercent: 30, InvestPercent: 20}
}

// DefaultCategoryConfig covers the usual household categories. Users
// replace it wholesale; there is no merging.
func DefaultCategoryConfig() CategoryConfig {
	return CategoryConfig{
		Needs: []string{
			"groceries", "rent", "utilities", "emi", "insurance",
			"fuel", "medical", "education", "internet", "phone",
		},
		Wants: []string{
			"dining", "entertainment", "shopping", "travel",
			"subscriptions", "hobbies",
		},
	}
}

// NewCategoryRegistry compiles the config into a lookup table. Names are
// lower-cased once here so per-expense lookups never re-normalize the
// whole config. A name present in both lists resolves to needs.
func NewCategoryRegistry(cfg CategoryConfig) *CategoryRegistry {
	buckets := make(map[string]Bucket, len(cfg.Needs)+len(cfg.Wants))
	for _, name := range cfg.Wants {
		buckets[strings.ToLower(strings.TrimSpace(name))] = BucketWants
	}
	for _, name := range cfg.Needs {
		buckets[strings.ToLower(strings.TrimSpace(name))] = BucketNeeds
	}
	return &CategoryRegistry{buckets: buckets}
}

// Bucket returns which bucket a category name belongs to.
func (cr *CategoryRegistry) Bucket(category string) Bucket {
	if b, ok := cr.buckets[strings.ToLower(strings.TrimSpace(category))]; ok {
		return b
	}
	return BucketNeither
}
