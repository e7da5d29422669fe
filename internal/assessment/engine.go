// Package assessment scores multiple-choice submissions and applies the
// pass/fail policy. The proctoring counter that can force a submission
// lives in proctor.go.
package assessment

import (
	"errors"
	"math"

	"github.com/opencampus/courseplayer/internal/content"
)

var (
	// ErrInvalidAssessment rejects assessments with no questions.
	ErrInvalidAssessment = errors.New("assessment: no questions")
	// ErrIncompleteSubmission rejects a non-forced submit with unanswered
	// questions.
	ErrIncompleteSubmission = errors.New("assessment: unanswered questions")
)

const (
	DefaultPassThreshold = 80
	DefaultMaxViolations = 3
)

type Engine struct {
	passThreshold int
	maxViolations int
	strictSignals bool
}

type Option func(*Engine)

// WithPassThreshold overrides the passing score percentage.
func WithPassThreshold(pct int) Option {
	return func(e *Engine) { e.passThreshold = pct }
}

// WithMaxViolations sets how many counted proctor violations trigger a
// forced submit.
func WithMaxViolations(n int) Option {
	return func(e *Engine) { e.maxViolations = n }
}

// WithStrictSignals makes copy/paste/context-menu signals count toward the
// violation threshold instead of warning only.
func WithStrictSignals(strict bool) Option {
	return func(e *Engine) { e.strictSignals = strict }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		passThreshold: DefaultPassThreshold,
		maxViolations: DefaultMaxViolations,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) PassThreshold() int { return e.passThreshold }

// Result is the outcome of a submission.
type Result struct {
	AssessmentID string `json:"assessment_id"`
	Score        int    `json:"score"`
	Passed       bool   `json:"passed"`
	Forced       bool   `json:"forced,omitempty"`
}

// Score computes round(100 * correct / total). Unanswered questions count
// against the denominator, never excluded from it.
func (e *Engine) Score(a *content.Assessment, answers map[string]int) int {
	total := len(a.Questions)
	if total == 0 {
		return 0
	}
	correct := 0
	for _, q := range a.Questions {
		if sel, ok := answers[q.ID]; ok && sel == q.CorrectOption {
			correct++
		}
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Submit validates and scores a submission. forced marks a proctoring
// auto-submit, which skips the completeness check and scores whatever
// answers were entered.
func (e *Engine) Submit(a *content.Assessment, answers map[string]int, forced bool) (Result, error) {
	if len(a.Questions) == 0 {
		return Result{}, ErrInvalidAssessment
	}
	if !forced {
		for _, q := range a.Questions {
			if _, ok := answers[q.ID]; !ok {
				return Result{}, ErrIncompleteSubmission
			}
		}
	}
	score := e.Score(a, answers)
	return Result{
		AssessmentID: a.ID,
		Score:        score,
		Passed:       score >= e.passThreshold,
		Forced:       forced,
	}, nil
}
