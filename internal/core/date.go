package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

type (
	// Date is a civil calendar date at day granularity. The zero value
	// means "not set" (optional dates such as a definition's end date).
	Date struct {
		time.Time
	}

	// MonthKey identifies a calendar month as "YYYY-MM". It is the unit
	// of the materialization ledger: once a key is recorded for a
	// recurring definition, that month is settled forever.
	MonthKey string

	// MonthSet is a set of month keys. It marshals as a sorted JSON
	// array so persisted ledgers are stable and diffable.
	MonthSet map[MonthKey]struct{}
)

// NewDate creates a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its civil date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Year(), int(t.UTC().Month()), t.UTC().Day())
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int (January = 1)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// MonthIndex returns a monotonically increasing index of the date's
// month (year*12 + month-1), used for month-granularity comparisons.
func (d Date) MonthIndex() int {
	return d.Year()*12 + d.Month() - 1
}

// Key returns the month key of the date's month.
func (d Date) Key() MonthKey {
	return MonthKeyFor(d.Year(), d.Month())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// MarshalJSON encodes the date as "2006-01-02", or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// UnmarshalJSON accepts "2006-01-02", "" or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, ErrInvalidDate)
	}
	*d = Date{Time: t}
	return nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay caps a nominal day of month to what the month actually has,
// so a definition due on the 31st lands on Feb 28/29.
func ClampDay(year, month, day int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// MonthKeyFor builds the "YYYY-MM" key for a year and month.
func MonthKeyFor(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

// YearMonth splits the key back into its year and month.
func (k MonthKey) YearMonth() (int, int, error) {
	var year, month int
	if _, err := fmt.Sscanf(string(k), "%d-%d", &year, &month); err != nil {
		return 0, 0, fmt.Errorf("parse month key %q: %w", k, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("parse month key %q: %w", k, ErrInvalidMonth)
	}
	return year, month, nil
}

// NewMonthSet builds a set from the given keys.
func NewMonthSet(keys ...MonthKey) MonthSet {
	s := make(MonthSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether the key is in the set. Safe on a nil set.
func (s MonthSet) Has(k MonthKey) bool {
	_, ok := s[k]
	return ok
}

// Add records a key. The receiver must be non-nil.
func (s MonthSet) Add(k MonthKey) {
	s[k] = struct{}{}
}

// Keys returns the keys in ascending order. Zero-padded keys sort
// chronologically as plain strings.
func (s MonthSet) Keys() []MonthKey {
	keys := make([]MonthKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns an independent copy of the set.
func (s MonthSet) Clone() MonthSet {
	out := make(MonthSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func (s MonthSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

func (s *MonthSet) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = NewMonthSet()
		return nil
	}
	var keys []MonthKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("parse month set: %w", err)
	}
	*s = NewMonthSet(keys...)
	return nil
}
