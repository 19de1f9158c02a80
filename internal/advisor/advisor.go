// Package advisor turns the month's derived numbers into a prompt for
// a local language model and keeps the conversation in the chat
// history. Only aggregates cross the wire, never raw records.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/loan"
	"fintrack/internal/recurring"
)

// Provider produces a completion for a prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Store is the persistence slice the advisor touches: the chat log it
// appends to and the loans it summarizes.
type Store interface {
	AppendChatMessage(ctx context.Context, m core.ChatMessage) error
	ListChatMessages(ctx context.Context) ([]core.ChatMessage, error)
	ListLoans(ctx context.Context) ([]core.Loan, error)
}

// Advisor answers questions about a budget month. Every answer is
// grounded in the same aggregates the API serves; the model never sees
// individual expenses.
type Advisor struct {
	provider   Provider
	store      Store
	aggregator *budget.Aggregator
	engine     *recurring.Engine
	now        func() core.Date
}

func NewAdvisor(provider Provider, store Store, aggregator *budget.Aggregator, engine *recurring.Engine) *Advisor {
	return &Advisor{
		provider:   provider,
		store:      store,
		aggregator: aggregator,
		engine:     engine,
		now:        func() core.Date { return core.DateOf(time.Now()) },
	}
}

// Ask records the question, asks the provider against the month's
// numbers and records the answer. A provider failure returns the error
// and leaves the history with only the user turn.
func (a *Advisor) Ask(ctx context.Context, question string, year, month int) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question cannot be empty")
	}

	prompt, err := a.buildPrompt(ctx, question, year, month)
	if err != nil {
		return "", err
	}

	if err := a.store.AppendChatMessage(ctx, core.ChatMessage{
		Role:    core.RoleUser,
		Content: question,
		At:      time.Now(),
	}); err != nil {
		return "", fmt.Errorf("record user turn: %w", err)
	}

	answer, err := a.provider.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	if err := a.store.AppendChatMessage(ctx, core.ChatMessage{
		Role:    core.RoleAssistant,
		Content: answer,
		At:      time.Now(),
	}); err != nil {
		// The answer exists either way; losing the transcript line is
		// not worth failing the request over.
		slog.ErrorContext(ctx, "Failed to record assistant turn", "error", err)
	}

	return answer, nil
}

// maxPromptCategories bounds the category table so one chatty month
// cannot blow up the prompt.
const maxPromptCategories = 8

func (a *Advisor) buildPrompt(ctx context.Context, question string, year, month int) (string, error) {
	health, err := a.aggregator.Health(ctx, year, month)
	if err != nil {
		return "", fmt.Errorf("budget health: %w", err)
	}
	overview, err := a.aggregator.CategoryTotals(ctx, year, month)
	if err != nil {
		return "", fmt.Errorf("category totals: %w", err)
	}
	obligations, err := a.engine.MonthlyObligations(ctx, year, month)
	if err != nil {
		return "", fmt.Errorf("monthly obligations: %w", err)
	}
	loans, err := a.store.ListLoans(ctx)
	if err != nil {
		return "", fmt.Errorf("list loans: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a personal finance advisor. Answer using only the figures below. Be concise and practical.\n\n")

	fmt.Fprintf(&b, "Budget month: %04d-%02d\n", year, month)
	if health.IncomeKnown {
		fmt.Fprintf(&b, "Income: %s\n", health.Income)
	} else {
		b.WriteString("Income: unknown\n")
	}
	writeBucket(&b, "Needs", health.Needs)
	writeBucket(&b, "Wants", health.Wants)
	writeBucket(&b, "Invest", health.Invest)

	if len(overview.ByCategory) > 0 {
		b.WriteString("\nSpending by category:\n")
		for i, ca := range overview.ByCategory {
			if i == maxPromptCategories {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", ca.Name, ca.Amount)
		}
		fmt.Fprintf(&b, "Month total: %s\n", overview.Total)
	}

	fmt.Fprintf(&b, "\nRecurring obligations due this month: %s\n", obligations)

	asOf := a.now()
	wroteHeader := false
	for _, l := range loans {
		if !l.IsActive() {
			continue
		}
		if !wroteHeader {
			b.WriteString("\nLoans:\n")
			wroteHeader = true
		}
		p := loan.Describe(l, asOf)
		fmt.Fprintf(&b, "- %s: EMI %s, %d of %d EMIs paid, balance %s, %s rate\n",
			l.Name, p.EMI, p.EMIsPaid, l.TenureMonths, p.Balance, p.RateClass)
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String(), nil
}

func writeBucket(b *strings.Builder, name string, r core.BucketReport) {
	if r.Determinate {
		fmt.Fprintf(b, "%s: %s (%.1f%% of income, target %d%%, %s)\n",
			name, r.Amount, r.Percent, r.TargetPercent, r.Status)
		return
	}
	fmt.Fprintf(b, "%s: %s (target %d%%, income unknown)\n", name, r.Amount, r.TargetPercent)
}
