package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/budget"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Month total and per-category spend",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
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
	overview, err := aggregator.CategoryTotals(ctx, year, month)
	if err != nil {
		return fmt.Errorf("aggregate month: %w", err)
	}

	if len(overview.ByCategory) == 0 {
		fmt.Printf("\n  No expenses recorded for %s.\n", FormatMonth(year, month))
		return nil
	}

	rows := make([][]string, 0, len(overview.ByCategory)+2)
	for _, c := range overview.ByCategory {
		rows = append(rows, []string{c.Name, FormatMoney(c.Amount)})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", FormatMoney(overview.Total)})

	fmt.Println()
	fmt.Print(RenderTable(Table{
		Title:   FormatMonth(year, month),
		Headers: []string{"Category", "Amount"},
		Rows:    rows,
	}))

	return nil
}
