package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func TestIsUnlocked(t *testing.T) {
	today := at("2024-01-10T15:04:05Z")

	assert.True(t, IsUnlocked("2024-01-09", today))
	assert.True(t, IsUnlocked("2024-01-10", today), "same day unlocks regardless of hour")
	assert.False(t, IsUnlocked("2024-01-11", today))
	assert.False(t, IsUnlocked("not-a-date", today), "malformed dates are locked")
	assert.False(t, IsUnlocked("", today))
}

func TestIsUnlockedAcceptsTimestamps(t *testing.T) {
	// Authored content sometimes carries full timestamps; only the
	// calendar day matters.
	today := at("2024-01-10T00:30:00Z")
	assert.True(t, IsUnlocked("2024-01-10T23:59:00Z", today))
}

func TestDaysSince(t *testing.T) {
	today := at("2024-01-10T08:00:00Z")

	assert.Equal(t, 0, DaysSince("2024-01-10", today))
	assert.Equal(t, 3, DaysSince("2024-01-07", today))
	assert.Equal(t, 0, DaysSince("2024-02-01", today), "future dates are zero elapsed")
	assert.Equal(t, 0, DaysSince("garbage", today))
}

func TestExpectedUnlockDate(t *testing.T) {
	d, ok := ExpectedUnlockDate("2024-01-01", 7)
	assert.True(t, ok)
	assert.Equal(t, "2024-01-08", DayString(d))

	_, ok = ExpectedUnlockDate("bogus", 7)
	assert.False(t, ok)
}

func TestDayStringTruncates(t *testing.T) {
	assert.Equal(t, "2024-03-05", DayString(at("2024-03-05T23:59:59Z")))
}
