// Package log wraps log/slog with a component attribute and a
// request-scoped carrier. Every entry names the subsystem it came
// from; HTTP handlers recover the enriched logger from the request
// context instead of holding a global.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Logger is a slog.Logger bound to a component name. The component
// rides along as an attribute on every entry.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger construction options. A nil Handler means a
// text handler on stdout at the configured level.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// DefaultConfig logs text to stdout at info level.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
	}
}

// New builds a Logger from the config.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	return &Logger{
		Logger:    slog.New(handler),
		component: config.Component,
	}
}

// With returns a logger carrying the extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

// WithComponent returns a logger for a different subsystem. Only the
// component tag changes; accumulated attributes stay.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component}
}

func (l *Logger) tagged(args []any) []any {
	return append([]any{"component", l.component}, args...)
}

// The leveled methods mirror slog's, prepending the component.

func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, l.tagged(args)...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.Logger.DebugContext(ctx, msg, l.tagged(args)...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, l.tagged(args)...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.Logger.InfoContext(ctx, msg, l.tagged(args)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, l.tagged(args)...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.Logger.WarnContext(ctx, msg, l.tagged(args)...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.Logger.Error(msg, l.tagged(args)...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.Logger.ErrorContext(ctx, msg, l.tagged(args)...)
}

// SetDefault installs the logger as the process-wide slog default so
// packages that log through slog directly share the same handler.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
