// Package worker runs the background loops: scheduled materialization
// of recurring expenses and ingestion of expense events from the
// broker.
package worker

import (
	"context"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/recurring"
)

// MaterializeWorker runs the recurring engine on a fixed interval.
// Materialization is idempotent, so overlapping or extra runs never
// double-create an expense.
type MaterializeWorker struct {
	engine   *recurring.Engine
	interval time.Duration
	now      func() time.Time
}

func NewMaterializeWorker(engine *recurring.Engine, interval time.Duration) *MaterializeWorker {
	return &MaterializeWorker{
		engine:   engine,
		interval: interval,
		now:      time.Now,
	}
}

// Run materializes once immediately, then on every tick until the
// context ends. A failed pass is logged and the next tick retries it.
func (w *MaterializeWorker) Run(ctx context.Context) error {
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *MaterializeWorker) runOnce(ctx context.Context) {
	if _, err := w.engine.MaterializeDue(ctx, core.DateOf(w.now())); err != nil {
		slog.ErrorContext(ctx, "Recurring materialization failed", "error", err)
	}
}
