package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/recurring"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Run recurring materialization once",
	Long: "Turns recurring definitions due up to today into expenses. " +
		"Safe to run repeatedly: months already settled are skipped.",
	RunE: runMaterialize,
}

func init() {
	rootCmd.AddCommand(materializeCmd)
}

func runMaterialize(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	result, err := openToolStore(ctx)
	if err != nil {
		return err
	}
	defer result.Cleanup()

	engine := recurring.NewEngine(result.Store)
	created, err := engine.MaterializeDue(ctx, core.DateOf(time.Now()))
	if err != nil {
		return fmt.Errorf("materialize: %w", err)
	}

	switch created {
	case 0:
		fmt.Println("  Nothing due; all recurring months already settled.")
	case 1:
		fmt.Println("  Materialized 1 expense.")
	default:
		fmt.Printf("  Materialized %d expenses.\n", created)
	}

	return nil
}
