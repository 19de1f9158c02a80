package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// FormatMoney renders an amount in whole currency units with grouping:
// 1234567 cents -> "12,345.67".
func FormatMoney(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s.%02d", sign, groupDigits(cents/100), cents%100)
}

// FormatPercent renders a percentage that is already in points:
// 42.5 -> "42.5%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatMonth renders a month heading like "March 2025".
func FormatMonth(year, month int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String(), year)
}

// FormatCount renders an integer with thousands grouping.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	return groupDigits(n)
}

func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
