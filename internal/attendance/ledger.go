// Package attendance keeps the per-day present/absent ledger for one
// learner. Dates are the natural key: at most one record per calendar day,
// and a day marked present can never be flipped back to absent.
package attendance

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/opencampus/courseplayer/internal/calendar"
)

// ErrDuplicateDate signals a snapshot that violates the one-record-per-day
// invariant. Live inserts go through upserts and can never hit it.
var ErrDuplicateDate = errors.New("attendance: duplicate date")

type Record struct {
	Date     string `json:"date"` // ISO calendar date
	Present  bool   `json:"present"`
	LessonID string `json:"lesson_id,omitempty"`
}

// Ledger is not safe for concurrent use; the progression manager
// serializes all mutation per learner.
type Ledger struct {
	byDate map[string]Record
}

func NewLedger() *Ledger {
	return &Ledger{byDate: map[string]Record{}}
}

// Restore replaces the ledger contents from a snapshot.
func Restore(records []Record) (*Ledger, error) {
	l := NewLedger()
	for _, r := range records {
		if _, dup := l.byDate[r.Date]; dup {
			return nil, ErrDuplicateDate
		}
		l.byDate[r.Date] = r
	}
	return l, nil
}

// RecordPresence upserts a present record for day. An existing record is
// upgraded to present and its lesson attribution replaced; presence itself
// is never revoked.
func (l *Ledger) RecordPresence(day time.Time, lessonID string) {
	key := calendar.DayString(day)
	r := l.byDate[key]
	r.Date = key
	r.Present = true
	if lessonID != "" {
		r.LessonID = lessonID
	}
	l.byDate[key] = r
}

// Backfill inserts absent records for every day strictly after lastVisit
// and strictly before today that has no record yet. Idempotent; returns
// the number of days inserted.
func (l *Ledger) Backfill(lastVisit, today time.Time) int {
	inserted := 0
	end := calendar.Day(today)
	for d := calendar.NextDay(lastVisit); d.Before(end); d = calendar.NextDay(d) {
		key := calendar.DayString(d)
		if _, ok := l.byDate[key]; ok {
			continue
		}
		l.byDate[key] = Record{Date: key, Present: false}
		inserted++
	}
	return inserted
}

// Has reports whether any record exists for day.
func (l *Ledger) Has(day time.Time) bool {
	_, ok := l.byDate[calendar.DayString(day)]
	return ok
}

// Rate is round(100 * present / total), 0 for an empty ledger.
func (l *Ledger) Rate() int {
	if len(l.byDate) == 0 {
		return 0
	}
	present := 0
	for _, r := range l.byDate {
		if r.Present {
			present++
		}
	}
	return int(math.Round(100 * float64(present) / float64(len(l.byDate))))
}

// Records returns the ledger ordered by date.
func (l *Ledger) Records() []Record {
	out := make([]Record, 0, len(l.byDate))
	for _, r := range l.byDate {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
