package core

const (
	StatusOnTarget BucketStatus = "on_target"
	StatusOver     BucketStatus = "over"
	StatusUnder    BucketStatus = "under"
	StatusUnknown  BucketStatus = "unknown"
)

type (
	// CategoryAmount is one category's total within a month.
	CategoryAmount struct {
		Name   string `json:"name"`
		Amount Money  `json:"amount"`
	}

	// MonthOverview is the raw per-category view of a budget month.
	// Every expense counts here, whatever bucket its category maps to.
	MonthOverview struct {
		Year       int              `json:"year"`
		Month      int              `json:"month"`
		Total      Money            `json:"total"`
		ByCategory []CategoryAmount `json:"by_category"`
	}

	BucketStatus string

	// BucketReport is one bucket of the budget health check. Percent is
	// only meaningful when Determinate is true; with unknown income the
	// spend amounts still stand but no percentage exists.
	BucketReport struct {
		Amount        Money        `json:"amount"`
		Percent       float64      `json:"percent"`
		Determinate   bool         `json:"determinate"`
		TargetPercent int          `json:"target_percent"`
		Status        BucketStatus `json:"status"`
		DeltaPoints   float64      `json:"delta_points"`
	}

	// BudgetHealth is the month's spending measured against the budget
	// rule. Income is the resolved monthly income; IncomeKnown is false
	// when neither a salary record nor an annual CTC could resolve it.
	BudgetHealth struct {
		Year        int          `json:"year"`
		Month       int          `json:"month"`
		Income      Money        `json:"income"`
		IncomeKnown bool         `json:"income_known"`
		Needs       BucketReport `json:"needs"`
		Wants       BucketReport `json:"wants"`
		Invest      BucketReport `json:"invest"`
	}
)
