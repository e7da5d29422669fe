package progression

import (
	"time"

	"github.com/opencampus/courseplayer/internal/calendar"
	"github.com/opencampus/courseplayer/internal/content"
)

// Policy holds the unlock rules. Unlock state is always recomputed from
// the progress facts and the calendar day, never cached.
type Policy struct {
	// ModuleStepDays spaces the default unlock dates of modules with no
	// authored date: module i unlocks at course start + i*step.
	ModuleStepDays int
	// LessonDateGates makes a lesson's own unlock date an additional gate.
	// Off by default: the date is informational and only the module gate
	// plus sequential completion apply.
	LessonDateGates bool
	// AutoAdvance emits an advance event after a passed gating assessment.
	AutoAdvance bool
}

func DefaultPolicy() Policy {
	return Policy{ModuleStepDays: 7, AutoAdvance: true}
}

// moduleUnlockDay resolves a module's effective unlock day. ok is false
// when the date (authored or derived) is unparseable; callers treat that
// as locked.
func (p Policy) moduleUnlockDay(course *content.Course, idx int) (time.Time, bool) {
	m := &course.Modules[idx]
	if m.UnlockDate != "" {
		return calendar.ParseDay(m.UnlockDate)
	}
	return calendar.ExpectedUnlockDate(course.StartDate, idx*p.ModuleStepDays)
}

// ModuleUnlocked applies both gates: the calendar date has arrived and
// every prior module is complete. The first module is always unlocked.
func (p Policy) ModuleUnlocked(cat *content.Catalog, prog *Progress, idx int, today time.Time) bool {
	if idx < 0 || idx >= len(cat.Course.Modules) {
		return false
	}
	if idx == 0 {
		return true
	}
	day, ok := p.moduleUnlockDay(&cat.Course, idx)
	if !ok || day.After(calendar.Day(today)) {
		return false
	}
	for i := 0; i < idx; i++ {
		if !prog.ModuleCompleted(&cat.Course.Modules[i]) {
			return false
		}
	}
	return true
}

// LessonUnlocked: locked module locks all its lessons; within an unlocked
// module the first lesson is open and each later lesson requires every
// preceding lesson to be completed.
func (p Policy) LessonUnlocked(cat *content.Catalog, prog *Progress, moduleIdx, lessonIdx int, today time.Time) bool {
	if !p.ModuleUnlocked(cat, prog, moduleIdx, today) {
		return false
	}
	m := &cat.Course.Modules[moduleIdx]
	if lessonIdx < 0 || lessonIdx >= len(m.Lessons) {
		return false
	}
	if p.LessonDateGates {
		if d := m.Lessons[lessonIdx].UnlockDate; d != "" && !calendar.IsUnlocked(d, today) {
			return false
		}
	}
	for i := 0; i < lessonIdx; i++ {
		if !prog.CompletedLessons[m.Lessons[i].ID] {
			return false
		}
	}
	return true
}

// NextLesson returns ids of the lesson after the given one: the next
// lesson in the same module, else the first lesson of the next module when
// that module is unlocked, else ok=false.
func (p Policy) NextLesson(cat *content.Catalog, prog *Progress, lessonID string, today time.Time) (moduleID, nextID string, ok bool) {
	_, mi, li, found := cat.LessonByID(lessonID)
	if !found {
		return "", "", false
	}
	m := &cat.Course.Modules[mi]
	if li+1 < len(m.Lessons) {
		return m.ID, m.Lessons[li+1].ID, true
	}
	for ni := mi + 1; ni < len(cat.Course.Modules); ni++ {
		next := &cat.Course.Modules[ni]
		if len(next.Lessons) == 0 {
			continue
		}
		if !p.ModuleUnlocked(cat, prog, ni, today) {
			return "", "", false
		}
		return next.ID, next.Lessons[0].ID, true
	}
	return "", "", false
}
