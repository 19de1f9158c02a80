// Package recurring materializes expenses from recurring definitions.
//
// Due-ness is month-granular: a definition is either due in a calendar
// month or it is not, and each due month is settled at most once. The
// per-frequency checks use the Strategy Pattern so new frequency types
// can be registered without touching the engine.
package recurring

import (
	"fmt"

	"fintrack/internal/core"
)

// FrequencyChecker is the strategy interface for month-granular
// due-ness. Implementations must be pure: no clock, no store.
type FrequencyChecker interface {
	// DueInMonth returns true if the definition comes due in the given
	// calendar month.
	DueInMonth(def core.RecurringDefinition, year, month int) bool
}

// MonthlyChecker implements FrequencyChecker for monthly definitions,
// which are due every month.
type MonthlyChecker struct{}

func (MonthlyChecker) DueInMonth(_ core.RecurringDefinition, _, _ int) bool {
	return true
}

// MonthListChecker implements FrequencyChecker for yearly and custom
// definitions: due exactly in the months the definition lists.
type MonthListChecker struct{}

func (MonthListChecker) DueInMonth(def core.RecurringDefinition, _, month int) bool {
	for _, m := range def.Months {
		if m == month {
			return true
		}
	}
	return false
}

// frequencyStrategies maps frequencies to their checkers. Yearly and
// custom share one checker: they differ in intent, not mechanics.
var frequencyStrategies = map[core.Frequency]FrequencyChecker{
	core.Monthly: MonthlyChecker{},
	core.Yearly:  MonthListChecker{},
	core.Custom:  MonthListChecker{},
}

// GetFrequencyChecker returns the checker for a frequency.
// Returns an error if the frequency is not supported.
func GetFrequencyChecker(frequency core.Frequency) (FrequencyChecker, error) {
	checker, ok := frequencyStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}

// RegisterFrequencyChecker registers a checker for a new frequency type.
func RegisterFrequencyChecker(frequency core.Frequency, checker FrequencyChecker) {
	frequencyStrategies[frequency] = checker
}

// IsDueInMonth reports whether the definition would be due in the given
// calendar month. Unknown frequencies are never due.
func IsDueInMonth(def core.RecurringDefinition, year, month int) bool {
	checker, err := GetFrequencyChecker(def.Frequency)
	if err != nil {
		return false
	}
	return checker.DueInMonth(def, year, month)
}
