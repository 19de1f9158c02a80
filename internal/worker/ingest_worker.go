package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// ExpenseStore is the slice of persistence ingestion needs.
type ExpenseStore interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
}

// IngestWorker stores expense events arriving from the broker.
type IngestWorker struct {
	store ExpenseStore
}

func NewIngestWorker(store ExpenseStore) *IngestWorker {
	return &IngestWorker{store: store}
}

// HandleExpenseCreated applies one event. Redeliveries are no-ops: an
// expense with the message's id already in the store means the event
// was applied before. Invalid payloads are logged and swallowed rather
// than returned as errors, so one poison message cannot wedge the
// queue on nack-requeue.
func (w *IngestWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	if err := msg.Validate(); err != nil {
		slog.WarnContext(ctx, "Dropping invalid expense event",
			"id", msg.ID,
			"source", msg.Source,
			"error", err)
		return nil
	}

	if _, err := w.store.GetExpense(ctx, msg.ID); err == nil {
		slog.InfoContext(ctx, "Expense event already applied",
			"id", msg.ID,
			"source", msg.Source)
		return nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("check existing expense: %w", err)
	}

	if _, err := w.store.CreateExpense(ctx, msg.Expense()); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Ingested expense event",
		"id", msg.ID,
		"source", msg.Source,
		"amount_cents", msg.AmountCents)

	return nil
}
