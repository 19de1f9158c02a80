package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/loan"
)

var loansCmd = &cobra.Command{
	Use:   "loans",
	Short: "Loan progress: EMI, installments, balance, rate class",
	RunE:  runLoans,
}

func init() {
	rootCmd.AddCommand(loansCmd)
}

func runLoans(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	result, err := openToolStore(ctx)
	if err != nil {
		return err
	}
	defer result.Cleanup()

	loans, err := result.Store.ListLoans(ctx)
	if err != nil {
		return fmt.Errorf("list loans: %w", err)
	}
	if len(loans) == 0 {
		fmt.Println("\n  No loans recorded.")
		return nil
	}

	asOf := core.DateOf(time.Now())
	rows := make([][]string, 0, len(loans))
	for _, l := range loans {
		p := loan.Describe(l, asOf)
		rows = append(rows, []string{
			l.Name,
			string(l.Type),
			FormatMoney(p.EMI),
			fmt.Sprintf("%d/%d", p.EMIsPaid, p.EMIsPaid+p.EMIsRemaining),
			FormatMoney(p.Balance),
			string(p.RateClass),
		})
	}

	fmt.Println()
	fmt.Print(RenderTable(Table{
		Headers: []string{"Loan", "Type", "EMI", "Paid", "Balance", "Rate"},
		Rows:    rows,
	}))

	return nil
}
