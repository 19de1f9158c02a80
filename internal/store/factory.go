package store

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/store/file"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/sqlite"
)

// DefaultFactory creates stores based on configuration
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new store factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// Open creates a store based on the provided configuration
func (f *DefaultFactory) Open(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case MemoryBackend:
		return f.openMemory(ctx)
	case FileBackend:
		return f.openFile(ctx, config)
	case SQLiteBackend:
		return f.openSQLite(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) openMemory(ctx context.Context) (*Result, error) {
	f.logger.InfoContext(ctx, "opening memory store")

	s := memory.New()
	return &Result{
		Store:   s,
		Cleanup: s.Close,
	}, nil
}

func (f *DefaultFactory) openFile(ctx context.Context, config Config) (*Result, error) {
	if config.DataFilePath == "" {
		return nil, fmt.Errorf("data file path is required for file backend")
	}

	f.logger.InfoContext(ctx, "opening file store", "path", config.DataFilePath)

	s, err := file.New(config.DataFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file store: %w", err)
	}

	return &Result{
		Store:   s,
		Cleanup: s.Close,
	}, nil
}

func (f *DefaultFactory) openSQLite(ctx context.Context, config Config) (*Result, error) {
	if config.SQLiteDBPath == "" {
		return nil, fmt.Errorf("database path is required for sqlite backend")
	}

	f.logger.InfoContext(ctx, "opening sqlite store", "path", config.SQLiteDBPath)

	s, err := sqlite.New(ctx, config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}

	return &Result{
		Store:   s,
		Cleanup: s.Close,
	}, nil
}

// Conformance checks. Backends live in subpackages so they cannot
// assert against store.Store themselves without an import cycle.
var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*file.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)
