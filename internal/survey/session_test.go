package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AdvanceBlockedByRequired(t *testing.T) {
	s := NewSession(mustSchema(t, threePageSchema), nil, 0, false)

	err := s.Advance()
	assert.ErrorIs(t, err, ErrRequiredUnanswered)
	assert.Equal(t, 0, s.CurrentPage())
	assert.Equal(t, []string{"q1"}, s.BlockingQuestions())

	s.SetAnswer("q1", "no")
	require.NoError(t, s.Advance())
	assert.Equal(t, 2, s.CurrentPage())
}

func TestSession_RequiredCheckboxBlocksUntilChecked(t *testing.T) {
	schema := mustSchema(t, `{
		"pages": [
			{"components": [{"id": "agree", "type": "checkbox", "isRequired": true}]},
			{"components": [{"id": "q2", "type": "text"}]}
		]
	}`)
	s := NewSession(schema, nil, 0, false)

	s.SetAnswer("agree", false)
	assert.ErrorIs(t, s.Advance(), ErrRequiredUnanswered)

	s.SetAnswer("agree", true)
	require.NoError(t, s.Advance())
	assert.Equal(t, 1, s.CurrentPage())
}

func TestSession_SkipsHiddenPage(t *testing.T) {
	s := NewSession(mustSchema(t, threePageSchema), nil, 0, false)
	s.SetAnswer("q1", "no")

	require.NoError(t, s.Advance())
	// The branch page is skipped entirely; the pointer lands on the last page
	// and the user-facing numbering shows 2 of 2.
	assert.Equal(t, 2, s.CurrentPage())
	assert.Equal(t, 2, s.PageNumber())
	assert.Equal(t, 2, s.TotalPages())
	assert.True(t, s.IsLastPage())
}

func TestSession_FurthestPageTracking(t *testing.T) {
	s := NewSession(mustSchema(t, threePageSchema), nil, 0, false)
	s.SetAnswer("q1", "yes")

	require.NoError(t, s.Advance())
	assert.Equal(t, 1, s.CurrentPage())
	assert.Equal(t, 1, s.FurthestPageCompleted())

	require.NoError(t, s.Advance())
	// Advancing onto the final page counts that page as completed.
	assert.Equal(t, 2, s.CurrentPage())
	assert.Equal(t, 2, s.FurthestPageCompleted())

	// Going back and forward again never lowers the marker.
	s.Retreat()
	assert.Equal(t, 1, s.CurrentPage())
	assert.Equal(t, 2, s.FurthestPageCompleted())
	require.NoError(t, s.Advance())
	assert.Equal(t, 2, s.FurthestPageCompleted())
}

func TestSession_AdvanceOnLastPageIsNoop(t *testing.T) {
	s := NewSession(mustSchema(t, threePageSchema), map[string]any{"q1": "no"}, 2, false)

	require.NoError(t, s.Advance())
	assert.Equal(t, 2, s.CurrentPage())
}

func TestSession_HiddenResetCascade(t *testing.T) {
	s := NewSession(mustSchema(t, threePageSchema), nil, 0, false)
	s.SetAnswer("q1", "yes")
	s.SetAnswer("q2", "hello")
	s.SetAnswer("q3", true)

	// Flipping the branch hides the page and wipes its answers.
	s.SetAnswer("q1", "no")
	answers := s.Answers()
	assert.Equal(t, "", answers["q2"])
	assert.Equal(t, false, answers["q3"])

	// Re-opening the branch presents blank questions, not the stale answers.
	s.SetAnswer("q1", "yes")
	answers = s.Answers()
	assert.Equal(t, "", answers["q2"])
	assert.Equal(t, false, answers["q3"])
}

func TestSession_ChainedResetReachesFixpoint(t *testing.T) {
	// q2 shows only when q1 is checked; q3 shows only when q2 has an answer.
	// Unchecking q1 must clear q2, which in turn must hide and clear q3.
	schema := mustSchema(t, `{
		"pages": [{"components": [
			{"id": "q1", "type": "checkbox"},
			{"id": "q2", "type": "text", "enableWhen": [{"question": "q1", "answer": true}]},
			{"id": "q3", "type": "text", "enableWhen": [{"question": "q2", "hasAnswer": true}]}
		]}]
	}`)
	s := NewSession(schema, nil, 0, false)
	s.SetAnswer("q1", true)
	s.SetAnswer("q2", "x")
	s.SetAnswer("q3", "y")

	s.SetAnswer("q1", false)
	answers := s.Answers()
	assert.Equal(t, "", answers["q2"])
	assert.Equal(t, "", answers["q3"])
	assert.False(t, s.Visibility().Components["q3"])
}

func TestSession_Resume(t *testing.T) {
	schema := mustSchema(t, threePageSchema)

	t.Run("in progress resumes at furthest page", func(t *testing.T) {
		s := NewSession(schema, map[string]any{"q1": "yes"}, 2, false)
		assert.Equal(t, 2, s.CurrentPage())
		assert.Equal(t, 2, s.FurthestPageCompleted())
	})

	t.Run("completed restarts at first page", func(t *testing.T) {
		s := NewSession(schema, map[string]any{"q1": "yes", "q4": "done"}, 2, true)
		assert.Equal(t, 0, s.CurrentPage())
	})

	t.Run("resume onto a now hidden page seeks forward", func(t *testing.T) {
		s := NewSession(schema, map[string]any{"q1": "no"}, 1, false)
		assert.Equal(t, 2, s.CurrentPage())
	})

	t.Run("out of range furthest page is ignored", func(t *testing.T) {
		s := NewSession(schema, map[string]any{"q1": "no"}, 99, false)
		assert.Equal(t, 0, s.CurrentPage())
	})
}

func TestSession_SingleVisiblePage(t *testing.T) {
	schema := mustSchema(t, `{"pages": [{"components": [{"id": "q1", "type": "text"}]}]}`)
	s := NewSession(schema, nil, 0, false)

	assert.True(t, s.IsLastPage())
	assert.Equal(t, 1, s.TotalPages())
	assert.Equal(t, 1, s.PageNumber())
	require.NoError(t, s.Advance())
	assert.Equal(t, 0, s.CurrentPage())
}

func TestSession_MalformedEnableWhenDoesNotPanic(t *testing.T) {
	schema := mustSchema(t, `{
		"pages": [
			{"components": [{"id": "q1", "type": "radio"}]},
			{"enableWhen": [{"question": "q1"}], "components": [{"id": "q2", "type": "text"}]}
		]
	}`)
	s := NewSession(schema, map[string]any{"q1": "yes"}, 0, false)

	// A condition with neither clause never satisfies, so the page stays hidden.
	assert.Equal(t, 1, s.TotalPages())
	assert.True(t, s.IsLastPage())
}

func TestSession_CompositeAnswersDoNotPanic(t *testing.T) {
	schema := mustSchema(t, `{
		"pages": [
			{"components": [{"id": "q1", "type": "tagbox"}]},
			{"components": [
				{"id": "q2", "type": "text", "enableWhen": [{"question": "q1", "answer": ["a"]}]}
			]}
		]
	}`)
	s := NewSession(schema, nil, 0, false)

	s.SetAnswer("q1", []any{"a"})
	assert.True(t, s.Visibility().Components["q2"])

	// The second write compares slice-valued answer maps during recompute.
	s.SetAnswer("q1", []any{"b"})
	assert.False(t, s.Visibility().Components["q2"])
}
