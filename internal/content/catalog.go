package content

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is the validated, indexed view of a course and its assessments.
type Catalog struct {
	Course      Course
	Assessments []Assessment

	moduleIdx     map[string]int // module id -> index in Course.Modules
	lessonIdx     map[string][2]int
	assessmentIdx map[string]int
	byLesson      map[string]int // lesson id -> assessment index
	questionOwner map[string]string
}

// New validates the course tree and builds the id indexes.
func New(course Course, assessments []Assessment) (*Catalog, error) {
	c := &Catalog{
		Course:        course,
		Assessments:   assessments,
		moduleIdx:     map[string]int{},
		lessonIdx:     map[string][2]int{},
		assessmentIdx: map[string]int{},
		byLesson:      map[string]int{},
		questionOwner: map[string]string{},
	}
	if course.StartDate == "" {
		return nil, fmt.Errorf("course %q has no start date", course.ID)
	}
	for mi, m := range course.Modules {
		if _, dup := c.moduleIdx[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module id %q", m.ID)
		}
		c.moduleIdx[m.ID] = mi
		for li, l := range m.Lessons {
			if _, dup := c.lessonIdx[l.ID]; dup {
				return nil, fmt.Errorf("duplicate lesson id %q", l.ID)
			}
			c.lessonIdx[l.ID] = [2]int{mi, li}
			for _, q := range l.Questions {
				if _, dup := c.questionOwner[q.ID]; dup {
					return nil, fmt.Errorf("duplicate video question id %q", q.ID)
				}
				c.questionOwner[q.ID] = l.ID
			}
			for _, r := range l.Resources {
				if !r.Kind.Valid() {
					return nil, fmt.Errorf("lesson %q: unknown resource kind %q", l.ID, r.Kind)
				}
			}
		}
	}
	for ai, a := range assessments {
		if _, dup := c.assessmentIdx[a.ID]; dup {
			return nil, fmt.Errorf("duplicate assessment id %q", a.ID)
		}
		if _, ok := c.lessonIdx[a.LessonID]; !ok {
			return nil, fmt.Errorf("assessment %q references unknown lesson %q", a.ID, a.LessonID)
		}
		for _, q := range a.Questions {
			if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
				return nil, fmt.Errorf("assessment %q question %q: correct option out of range", a.ID, q.ID)
			}
		}
		c.assessmentIdx[a.ID] = ai
		c.byLesson[a.LessonID] = ai
	}
	// Lessons declaring an assessment must have one defined.
	for _, m := range course.Modules {
		for _, l := range m.Lessons {
			if l.AssessmentID == "" {
				continue
			}
			ai, ok := c.assessmentIdx[l.AssessmentID]
			if !ok || assessments[ai].LessonID != l.ID {
				return nil, fmt.Errorf("lesson %q references unknown assessment %q", l.ID, l.AssessmentID)
			}
		}
	}
	return c, nil
}

// Load reads a catalog file: {"course": {...}, "assessments": [...]}.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc struct {
		Course      Course       `json:"course"`
		Assessments []Assessment `json:"assessments"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(doc.Course, doc.Assessments)
}

func (c *Catalog) ModuleByID(id string) (*Module, int, bool) {
	i, ok := c.moduleIdx[id]
	if !ok {
		return nil, 0, false
	}
	return &c.Course.Modules[i], i, true
}

// LessonByID returns the lesson together with its owning module index and
// its index within that module.
func (c *Catalog) LessonByID(id string) (*Lesson, int, int, bool) {
	pos, ok := c.lessonIdx[id]
	if !ok {
		return nil, 0, 0, false
	}
	mi, li := pos[0], pos[1]
	return &c.Course.Modules[mi].Lessons[li], mi, li, true
}

func (c *Catalog) AssessmentByID(id string) (*Assessment, bool) {
	i, ok := c.assessmentIdx[id]
	if !ok {
		return nil, false
	}
	return &c.Assessments[i], true
}

func (c *Catalog) AssessmentForLesson(lessonID string) (*Assessment, bool) {
	i, ok := c.byLesson[lessonID]
	if !ok {
		return nil, false
	}
	return &c.Assessments[i], true
}

// QuestionLesson resolves an in-video question id to its lesson id.
func (c *Catalog) QuestionLesson(questionID string) (string, bool) {
	id, ok := c.questionOwner[questionID]
	return id, ok
}
