// Package sheets exports month summaries to a spreadsheet: one row per
// month with totals, bucket amounts and percents, and recurring
// obligations. Export runs from the CLI only, never on the serving
// path.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/recurring"
)

// RowWriter appends one summary row and returns a reference to where
// it landed.
type RowWriter interface {
	Append(ctx context.Context, row MonthSummaryRow) (ref string, err error)
}

// MonthSummaryRow is the flattened month picture written to the sheet.
// The percent fields are meaningful only when IncomeKnown is true.
type MonthSummaryRow struct {
	Year          int
	Month         int
	Total         core.Money
	Income        core.Money
	IncomeKnown   bool
	Needs         core.Money
	NeedsPercent  float64
	Wants         core.Money
	WantsPercent  float64
	Invest        core.Money
	InvestPercent float64
	Obligations   core.Money
}

// BuildMonthSummaryRow flattens the month's aggregates into a row.
func BuildMonthSummaryRow(health core.BudgetHealth, overview core.MonthOverview, obligations core.Money) MonthSummaryRow {
	return MonthSummaryRow{
		Year:          health.Year,
		Month:         health.Month,
		Total:         overview.Total,
		Income:        health.Income,
		IncomeKnown:   health.IncomeKnown,
		Needs:         health.Needs.Amount,
		NeedsPercent:  health.Needs.Percent,
		Wants:         health.Wants.Amount,
		WantsPercent:  health.Wants.Percent,
		Invest:        health.Invest.Amount,
		InvestPercent: health.Invest.Percent,
		Obligations:   obligations,
	}
}

// Exporter assembles a month's aggregates and hands the row to the
// writer.
type Exporter struct {
	aggregator *budget.Aggregator
	engine     *recurring.Engine
	writer     RowWriter
}

func NewExporter(aggregator *budget.Aggregator, engine *recurring.Engine, writer RowWriter) *Exporter {
	return &Exporter{
		aggregator: aggregator,
		engine:     engine,
		writer:     writer,
	}
}

// ExportMonth computes the month summary and appends it. Returns the
// writer's row reference.
func (e *Exporter) ExportMonth(ctx context.Context, year, month int) (string, error) {
	health, err := e.aggregator.Health(ctx, year, month)
	if err != nil {
		return "", fmt.Errorf("budget health: %w", err)
	}
	overview, err := e.aggregator.CategoryTotals(ctx, year, month)
	if err != nil {
		return "", fmt.Errorf("category totals: %w", err)
	}
	obligations, err := e.engine.MonthlyObligations(ctx, year, month)
	if err != nil {
		return "", fmt.Errorf("monthly obligations: %w", err)
	}

	ref, err := e.writer.Append(ctx, BuildMonthSummaryRow(health, overview, obligations))
	if err != nil {
		return "", fmt.Errorf("append summary row: %w", err)
	}

	slog.InfoContext(ctx, "Exported month summary",
		"year", year,
		"month", month,
		"total_cents", overview.Total.Cents,
		"ref", ref)

	return ref, nil
}
