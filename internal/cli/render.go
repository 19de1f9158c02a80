package cli

import (
	"fmt"
	"strings"
)

// Table is a plain-text table for command output. A row whose first
// cell is "---" renders as a separator line.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTable renders the table with space padding and light rules.
// Numeric-looking columns are not special-cased; callers pre-format
// cells with the Format helpers.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		if len(h) > widths[i] {
			widths[i] = len(h)
		}
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			continue
		}
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	totalWidth := 0
	for _, w := range widths {
		totalWidth += w + 2
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(t.Title)
		b.WriteString("\n")
	}

	if len(t.Headers) > 0 {
		for i, h := range t.Headers {
			fmt.Fprintf(&b, "  %-*s", widths[i], h)
		}
		b.WriteString("\n")
		b.WriteString("  ")
		b.WriteString(strings.Repeat("-", totalWidth-2))
		b.WriteString("\n")
	}

	for _, row := range t.Rows {
		if isSeparator(row) {
			b.WriteString("  ")
			b.WriteString(strings.Repeat("-", totalWidth-2))
			b.WriteString("\n")
			continue
		}
		for i, cell := range row {
			fmt.Fprintf(&b, "  %-*s", widths[i], cell)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func isSeparator(row []string) bool {
	return len(row) > 0 && row[0] == "---"
}
