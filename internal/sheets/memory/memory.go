// Package memory provides an in-process stand-in for the spreadsheet
// writer, used in tests and local runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/sheets"
)

// Recorder collects appended rows in memory.
type Recorder struct {
	mu   sync.Mutex
	rows []sheets.MonthSummaryRow
}

var _ sheets.RowWriter = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Append(_ context.Context, row sheets.MonthSummaryRow) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return fmt.Sprintf("mem:%d", len(r.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (r *Recorder) Rows() []sheets.MonthSummaryRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sheets.MonthSummaryRow, len(r.rows))
	copy(out, r.rows)
	return out
}
