package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/budget"
	"fintrack/internal/core"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Budget health: spend vs the 50/30/20 targets",
	RunE:  runBudget,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(_ *cobra.Command, _ []string) error {
	year, month, err := targetMonth()
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := openToolStore(ctx)
	if err != nil {
		return err
	}
	defer result.Cleanup()

	aggregator := budget.NewAggregator(result.Store)
	health, err := aggregator.Health(ctx, year, month)
	if err != nil {
		return fmt.Errorf("budget health: %w", err)
	}

	fmt.Println()
	if health.IncomeKnown {
		fmt.Printf("  Income: %s\n\n", FormatMoney(health.Income))
	} else {
		fmt.Println("  Income: unknown (no salary record, no annual CTC)")
		fmt.Println()
	}

	rows := [][]string{
		bucketRow("Needs", health.Needs),
		bucketRow("Wants", health.Wants),
		bucketRow("Invest", health.Invest),
	}

	fmt.Print(RenderTable(Table{
		Title:   FormatMonth(year, month),
		Headers: []string{"Bucket", "Amount", "Percent", "Target", "Status"},
		Rows:    rows,
	}))

	return nil
}

func bucketRow(name string, r core.BucketReport) []string {
	percent := "-"
	if r.Determinate {
		percent = FormatPercent(r.Percent)
	}
	return []string{
		name,
		FormatMoney(r.Amount),
		percent,
		fmt.Sprintf("%d%%", r.TargetPercent),
		string(r.Status),
	}
}
