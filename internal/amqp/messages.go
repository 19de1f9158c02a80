package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"fintrack/internal/core"
)

// ExpenseCreatedMessage is the event published for every expense the
// tracker stores, whatever produced it. External producers fill Source
// with their own name and must mint the ID themselves; the ID is the
// dedup key on the consuming side.
type ExpenseCreatedMessage struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Date        core.Date `json:"date"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseCreatedMessage builds the event for a stored expense.
func NewExpenseCreatedMessage(e core.Expense, source string) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ID:          e.ID,
		Title:       e.Title,
		Category:    e.Category,
		AmountCents: e.Amount.Cents,
		Date:        e.Date,
		Source:      source,
		Timestamp:   time.Now(),
	}
}

// Expense converts the message back into the expense it describes.
func (m *ExpenseCreatedMessage) Expense() core.Expense {
	return core.Expense{
		ID:       m.ID,
		Title:    m.Title,
		Category: m.Category,
		Amount:   core.Money{Cents: m.AmountCents},
		Date:     m.Date,
	}
}

// Validate rejects messages the ingest worker could never store.
func (m *ExpenseCreatedMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("message id is required")
	}
	return m.Expense().Validate()
}

// ToJSON converts the message to JSON bytes.
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseCreatedMessageFromJSON parses a message from JSON bytes.
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
