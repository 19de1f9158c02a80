package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/log"
	"fintrack/internal/store"
)

var (
	flagBackend string
	flagDB      string
	flagDataDir string
	flagYear    int
	flagMonth   int
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "fintrack",
	Short: "Personal finance tracker",
	Long: "Inspect your budget months from the terminal: totals, budget " +
		"health, loan progress, recurring materialization and sheet export.",
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree. Called from the fintrack main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fintrack: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Store backend: memory, file or sqlite")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Data directory for the file backend")
	rootCmd.PersistentFlags().IntVar(&flagYear, "year", 0, "Target year (default: current)")
	rootCmd.PersistentFlags().IntVar(&flagMonth, "month", 0, "Target month 1-12 (default: current)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress log output")
}

// targetMonth resolves --year/--month against the current date.
func targetMonth() (int, int, error) {
	now := time.Now()
	year, month := flagYear, flagMonth
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %d: must be 1-12", month)
	}
	return year, month, nil
}

// toolLogger returns the logger commands run with. Quiet discards
// everything; store open chatter lands on stderr otherwise.
func toolLogger() *log.Logger {
	if flagQuiet {
		return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	}
	return log.New(log.Config{
		Level:     slog.LevelWarn,
		Component: log.ComponentCLI,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
	})
}

// openToolStore opens the backend selected by flags, preferences and
// built-in defaults, in that order.
func openToolStore(ctx context.Context) (*store.Result, error) {
	prefs, err := LoadPreferences()
	if err != nil {
		// A broken preferences file should not brick the tool.
		fmt.Fprintf(os.Stderr, "  warning: %v\n", err)
		prefs = DefaultPreferences()
	}

	backend := prefs.Defaults.Backend
	if flagBackend != "" {
		backend = flagBackend
	}

	dataDir := prefs.Defaults.DataDir
	if flagDataDir != "" {
		dataDir = flagDataDir
	}
	if dataDir == "" {
		dataDir = "./data"
	}

	dbPath := prefs.Defaults.DBPath
	if flagDB != "" {
		dbPath = flagDB
	}
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "fintrack.db")
	}

	factory := store.NewFactory(toolLogger().Logger)
	return factory.Open(ctx, store.Config{
		Type:         store.BackendType(backend),
		SQLiteDBPath: dbPath,
		DataFilePath: filepath.Join(dataDir, "fintrack.json"),
	})
}
