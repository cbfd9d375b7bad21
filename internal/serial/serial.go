// Package serial parses and orders "week/year" journal serial numbers.
package serial

import (
	"strconv"
	"strings"
)

// Serial is a parsed journal serial such as "45/2025".
type Serial struct {
	Week int
	Year int
}

// Parse parses a serial in "week/year" form.
// It returns false for any other shape: a missing separator, extra tokens,
// or non-numeric parts.
func Parse(s string) (Serial, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Serial{}, false
	}

	week, err := strconv.Atoi(parts[0])
	if err != nil {
		return Serial{}, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return Serial{}, false
	}

	return Serial{Week: week, Year: year}, true
}

// Compare orders two serial strings by (year, week).
// It returns -1, 0 or 1, and false if either side does not parse.
func Compare(a, b string) (int, bool) {
	sa, ok := Parse(a)
	if !ok {
		return 0, false
	}
	sb, ok := Parse(b)
	if !ok {
		return 0, false
	}
	return sa.Compare(sb), true
}

// Compare orders s against other; year dominates, week breaks ties.
func (s Serial) Compare(other Serial) int {
	switch {
	case s.Year < other.Year:
		return -1
	case s.Year > other.Year:
		return 1
	case s.Week < other.Week:
		return -1
	case s.Week > other.Week:
		return 1
	default:
		return 0
	}
}

// String returns the canonical "week/year" form.
func (s Serial) String() string {
	return strconv.Itoa(s.Week) + "/" + strconv.Itoa(s.Year)
}

// JournalID returns the storage key form "week_year".
func (s Serial) JournalID() string {
	return strconv.Itoa(s.Week) + "_" + strconv.Itoa(s.Year)
}

// JournalID converts a raw serial into its journal id, keeping the
// listing's own digits (e.g. "05/2026" becomes "05_2026").
func JournalID(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "/", "_")
}
