// Package calendar holds the day-granularity date helpers used by the
// unlock policy and the attendance ledger. Dates coming out of course
// content are authored strings; a malformed one must never take the
// learner's session down, so every helper fails soft (zero value + log)
// instead of returning an error.
package calendar

import (
	"log"
	"time"
)

const dayLayout = "2006-01-02"

// ParseDay parses an ISO calendar date ("2006-01-02") or an RFC3339
// timestamp and truncates it to UTC midnight. ok is false for empty or
// malformed input.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Day(t), true
	}
	log.Printf("calendar: unparseable date %q", s)
	return time.Time{}, false
}

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayString formats t as an ISO calendar date.
func DayString(t time.Time) string {
	return Day(t).Format(dayLayout)
}

// IsUnlocked reports whether unlockDate's calendar day is on or before
// today's. Comparison is day-granularity: content unlocking "today" is
// unlocked regardless of the current hour. Malformed dates are locked.
func IsUnlocked(unlockDate string, today time.Time) bool {
	d, ok := ParseDay(unlockDate)
	if !ok {
		return false
	}
	return !d.After(Day(today))
}

// DaysSince returns the number of whole calendar days from date up to
// today. Malformed or future dates count as zero elapsed.
func DaysSince(date string, today time.Time) int {
	d, ok := ParseDay(date)
	if !ok {
		return 0
	}
	n := int(Day(today).Sub(d).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// ExpectedUnlockDate computes courseStart + offsetDays, the default unlock
// day for content with no authored unlock date. ok is false when the
// course start itself is unparseable.
func ExpectedUnlockDate(courseStart string, offsetDays int) (time.Time, bool) {
	d, ok := ParseDay(courseStart)
	if !ok {
		return time.Time{}, false
	}
	return d.AddDate(0, 0, offsetDays), true
}

// NextDay returns the calendar day after t.
func NextDay(t time.Time) time.Time {
	return Day(t).AddDate(0, 0, 1)
}
