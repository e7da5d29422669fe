package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/courseplayer/internal/content"
)

func quiz(n int) *content.Assessment {
	a := &content.Assessment{ID: "a1", LessonID: "l1", Title: "Quiz"}
	for i := 0; i < n; i++ {
		a.Questions = append(a.Questions, content.Question{
			ID:            string(rune('a' + i)),
			Prompt:        "?",
			Options:       []string{"x", "y", "z"},
			CorrectOption: 1,
		})
	}
	return a
}

func TestScoreBounds(t *testing.T) {
	e := NewEngine()
	a := quiz(4)

	all := map[string]int{"a": 1, "b": 1, "c": 1, "d": 1}
	assert.Equal(t, 100, e.Score(a, all))

	assert.Equal(t, 0, e.Score(a, map[string]int{}))
	assert.Equal(t, 0, e.Score(a, map[string]int{"a": 0, "b": 2, "c": 0, "d": 2}))
}

func TestScoreCountsUnansweredAgainstDenominator(t *testing.T) {
	e := NewEngine()
	a := quiz(2)
	assert.Equal(t, 50, e.Score(a, map[string]int{"a": 1}))
}

func TestScoreRounds(t *testing.T) {
	e := NewEngine()
	a := quiz(3)
	// 2/3 = 66.67 -> 67
	assert.Equal(t, 67, e.Score(a, map[string]int{"a": 1, "b": 1, "c": 0}))
}

func TestSubmitPassThreshold(t *testing.T) {
	e := NewEngine()
	a := quiz(5)

	// ceil(0.8*5) = 4 correct out of 5 -> 80, passes the default policy.
	res, err := e.Submit(a, map[string]int{"a": 1, "b": 1, "c": 1, "d": 1, "e": 0}, false)
	require.NoError(t, err)
	assert.Equal(t, 80, res.Score)
	assert.True(t, res.Passed)

	res, err = e.Submit(a, map[string]int{"a": 1, "b": 1, "c": 1, "d": 0, "e": 0}, false)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Score)
	assert.False(t, res.Passed)
}

func TestSubmitConfigurableThreshold(t *testing.T) {
	e := NewEngine(WithPassThreshold(70))
	a := quiz(10)
	answers := map[string]int{}
	for i, q := range a.Questions {
		sel := 1
		if i >= 7 {
			sel = 0
		}
		answers[q.ID] = sel
	}
	res, err := e.Submit(a, answers, false)
	require.NoError(t, err)
	assert.Equal(t, 70, res.Score)
	assert.True(t, res.Passed)
}

func TestSubmitRejectsIncomplete(t *testing.T) {
	e := NewEngine()
	a := quiz(2)
	_, err := e.Submit(a, map[string]int{"a": 1}, false)
	assert.ErrorIs(t, err, ErrIncompleteSubmission)
}

func TestForcedSubmitAcceptsIncomplete(t *testing.T) {
	e := NewEngine()
	a := quiz(2)
	res, err := e.Submit(a, map[string]int{"a": 1}, true)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Score)
	assert.False(t, res.Passed)
	assert.True(t, res.Forced)
}

func TestSubmitRejectsEmptyAssessment(t *testing.T) {
	e := NewEngine()
	_, err := e.Submit(quiz(0), nil, false)
	assert.ErrorIs(t, err, ErrInvalidAssessment)
}

func TestProctorForcesAtThreshold(t *testing.T) {
	e := NewEngine()
	p := e.NewProctor()

	out := p.Report(SignalTabHidden)
	assert.True(t, out.Counted)
	assert.False(t, out.ForceSubmit)

	p.Report(SignalTabHidden)
	out = p.Report(SignalTabHidden)
	assert.True(t, out.ForceSubmit, "third hidden-tab event forces submit")
	assert.Equal(t, 3, p.Violations())
}

func TestProctorWarnOnlySignals(t *testing.T) {
	e := NewEngine()
	p := e.NewProctor()

	for _, sig := range []Signal{SignalCopy, SignalPaste, SignalContextMenu} {
		out := p.Report(sig)
		assert.False(t, out.Counted, sig.String())
		assert.False(t, out.ForceSubmit)
	}
	assert.Equal(t, 0, p.Violations())
	assert.Equal(t, 4, p.Report(SignalCopy).WarningCount, "warnings keep counting")
}

func TestProctorStrictSignals(t *testing.T) {
	e := NewEngine(WithStrictSignals(true), WithMaxViolations(2))
	p := e.NewProctor()

	p.Report(SignalCopy)
	out := p.Report(SignalPaste)
	assert.True(t, out.ForceSubmit)
}

func TestParseSignal(t *testing.T) {
	s, ok := ParseSignal("tab_hidden")
	require.True(t, ok)
	assert.Equal(t, SignalTabHidden, s)

	_, ok = ParseSignal("telepathy")
	assert.False(t, ok)
}
