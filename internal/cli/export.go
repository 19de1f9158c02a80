package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/budget"
	"fintrack/internal/config"
	"fintrack/internal/recurring"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/google"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Append the month summary row to Google Sheets",
	Long: "Builds the month's summary (total, bucket amounts and percents, " +
		"obligations) and appends it to the configured spreadsheet. " +
		"Spreadsheet and credentials come from the environment: " +
		"GOOGLE_SPREADSHEET_ID, GOOGLE_SHEET_NAME and either a service " +
		"account or the OAuth token minted by oauth-init.",
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	year, month, err := targetMonth()
	if err != nil {
		return err
	}

	LoadEnvFile()
	cfg := config.Load()
	if cfg.GoogleSpreadsheetID == "" {
		return fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set; nothing to export to")
	}

	ctx := context.Background()
	result, err := openToolStore(ctx)
	if err != nil {
		return err
	}
	defer result.Cleanup()

	client, err := google.NewClient(ctx, google.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenJSON:     cfg.GoogleOAuthTokenJSON,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		return fmt.Errorf("sheets client: %w", err)
	}

	exporter := sheets.NewExporter(
		budget.NewAggregator(result.Store),
		recurring.NewEngine(result.Store),
		client,
	)
	ref, err := exporter.ExportMonth(ctx, year, month)
	if err != nil {
		return fmt.Errorf("export %s: %w", FormatMonth(year, month), err)
	}

	fmt.Printf("  Exported %s -> %s\n", FormatMonth(year, month), ref)
	return nil
}
