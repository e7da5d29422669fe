package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/courseplayer/internal/content"
)

func testCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	course := content.Course{
		ID:          "course-1",
		Title:       "Web Development",
		StartDate:   "2024-01-01",
		Certificate: true,
		Modules: []content.Module{
			{
				ID:    "m1",
				Title: "Introduction",
				Lessons: []content.Lesson{
					{ID: "l1", Title: "HTML", DurationSec: 600, AssessmentID: "a1",
						Questions: []content.VideoQuestion{{ID: "vq1", AtSec: 120, Prompt: "?"}}},
					{ID: "l2", Title: "CSS", DurationSec: 720, UnlockDate: "2024-01-03"},
					{ID: "l3", Title: "JS", DurationSec: 900},
				},
			},
			{
				ID:    "m2",
				Title: "Frameworks",
				Lessons: []content.Lesson{
					{ID: "l4", Title: "React", DurationSec: 1200},
					{ID: "l5", Title: "State", DurationSec: 900},
				},
			},
			{
				ID:         "m3",
				Title:      "Backend",
				UnlockDate: "2024-02-01",
				Lessons: []content.Lesson{
					{ID: "l6", Title: "APIs", DurationSec: 1080},
				},
			},
		},
	}
	assessments := []content.Assessment{
		{
			ID:       "a1",
			LessonID: "l1",
			Title:    "HTML Quiz",
			DueDate:  "2024-01-10",
			Questions: []content.Question{
				{ID: "q1", Prompt: "?", Options: []string{"a", "b", "c"}, CorrectOption: 1},
				{ID: "q2", Prompt: "?", Options: []string{"a", "b", "c"}, CorrectOption: 2},
			},
		},
	}
	cat, err := content.New(course, assessments)
	require.NoError(t, err)
	return cat
}

func dayAt(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func completeModule(prog *Progress, cat *content.Catalog, moduleID string) {
	m, _, _ := cat.ModuleByID(moduleID)
	for _, l := range m.Lessons {
		prog.CompletedLessons[l.ID] = true
	}
}

func TestFirstModuleAlwaysUnlocked(t *testing.T) {
	cat := testCatalog(t)
	p := DefaultPolicy()
	prog := NewProgress()

	assert.True(t, p.ModuleUnlocked(cat, prog, 0, dayAt("2023-12-01")),
		"module 0 is open even before course start")
}

func TestModuleNeedsBothDateAndCompletion(t *testing.T) {
	cat := testCatalog(t)
	p := DefaultPolicy()
	prog := NewProgress()

	// m2 defaults to start + 1*7 days = 2024-01-08.
	assert.False(t, p.ModuleUnlocked(cat, prog, 1, dayAt("2024-01-08")),
		"date arrived but m1 incomplete")

	completeModule(prog, cat, "m1")
	assert.False(t, p.ModuleUnlocked(cat, prog, 1, dayAt("2024-01-07")),
		"m1 complete but date not reached")
	assert.True(t, p.ModuleUnlocked(cat, prog, 1, dayAt("2024-01-08")))
}

func TestModuleExplicitUnlockDateWins(t *testing.T) {
	cat := testCatalog(t)
	p := DefaultPolicy()
	prog := NewProgress()
	completeModule(prog, cat, "m1")
	completeModule(prog, cat, "m2")

	// m3 authors 2024-02-01 even though the default offset would be +14d.
	assert.False(t, p.ModuleUnlocked(cat, prog, 2, dayAt("2024-01-20")))
	assert.True(t, p.ModuleUnlocked(cat, prog, 2, dayAt("2024-02-01")))
}

func TestMalformedUnlockDateFailsClosed(t *testing.T) {
	cat := testCatalog(t)
	cat.Course.Modules[2].UnlockDate = "next tuesday"
	p := DefaultPolicy()
	prog := NewProgress()
	completeModule(prog, cat, "m1")
	completeModule(prog, cat, "m2")

	assert.False(t, p.ModuleUnlocked(cat, prog, 2, dayAt("2024-06-01")))
}

func TestSequentialLessonGating(t *testing.T) {
	cat := testCatalog(t)
	p := DefaultPolicy()
	prog := NewProgress()
	today := dayAt("2024-01-01")

	assert.True(t, p.LessonUnlocked(cat, prog, 0, 0, today), "first lesson open")
	assert.False(t, p.LessonUnlocked(cat, prog, 0, 1, today))
	assert.False(t, p.LessonUnlocked(cat, prog, 0, 2, today))

	// Completing l1 alone must not unlock l3.
	prog.CompletedLessons["l1"] = true
	assert.True(t, p.LessonUnlocked(cat, prog, 0, 1, today))
	assert.False(t, p.LessonUnlocked(cat, prog, 0, 2, today))

	prog.CompletedLessons["l2"] = true
	assert.True(t, p.LessonUnlocked(cat, prog, 0, 2, today))
}

func TestLockedModuleLocksItsLessons(t *testing.T) {
	cat := testCatalog(t)
	p := DefaultPolicy()
	prog := NewProgress()

	assert.False(t, p.LessonUnlocked(cat, prog, 1, 0, dayAt("2024-01-02")))
}

func TestLessonDateGateOptIn(t *testing.T) {
	cat := testCatalog(t)
	prog := NewProgress()
	prog.CompletedLessons["l1"] = true
	today := dayAt("2024-01-02")

	// Default: l2's authored date (2024-01-03) is informational only.
	relaxed := DefaultPolicy()
	assert.True(t, relaxed.LessonUnlocked(cat, prog, 0, 1, today))

	gated := DefaultPolicy()
	gated.LessonDateGates = true
	assert.False(t, gated.LessonUnlocked(cat, prog, 0, 1, today))
	assert.True(t, gated.LessonUnlocked(cat, prog, 0, 1, dayAt("2024-01-03")))
}

func TestUnlockMonotonicity(t *testing.T) {
	cat := testCatalog(t)
	p := DefaultPolicy()
	prog := NewProgress()
	prog.CompletedLessons["l1"] = true

	require.True(t, p.LessonUnlocked(cat, prog, 0, 1, dayAt("2024-01-05")))
	// Progress never regresses and days only move forward, so the unlock
	// holds at every later day.
	for _, d := range []string{"2024-01-06", "2024-02-01", "2025-01-01"} {
		assert.True(t, p.LessonUnlocked(cat, prog, 0, 1, dayAt(d)), d)
	}
}

func TestNextLesson(t *testing.T) {
	cat := testCatalog(t)
	p := DefaultPolicy()
	prog := NewProgress()

	mID, lID, ok := p.NextLesson(cat, prog, "l1", dayAt("2024-01-01"))
	require.True(t, ok)
	assert.Equal(t, "m1", mID)
	assert.Equal(t, "l2", lID)

	// End of m1: m2 still locked on day one.
	_, _, ok = p.NextLesson(cat, prog, "l3", dayAt("2024-01-01"))
	assert.False(t, ok)

	completeModule(prog, cat, "m1")
	mID, lID, ok = p.NextLesson(cat, prog, "l3", dayAt("2024-01-08"))
	require.True(t, ok)
	assert.Equal(t, "m2", mID)
	assert.Equal(t, "l4", lID)

	// Last lesson of the course.
	completeModule(prog, cat, "m2")
	completeModule(prog, cat, "m3")
	_, _, ok = p.NextLesson(cat, prog, "l6", dayAt("2024-03-01"))
	assert.False(t, ok)
}
