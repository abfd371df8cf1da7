package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outline() Course {
	return Course{Modules: []Module{
		{ID: "m1", Lessons: []Lesson{{ID: "a", Position: 0}, {ID: "b", Position: 1}, {ID: "c", Position: 2}}},
		{ID: "m2", Lessons: []Lesson{{ID: "e", Position: 1}, {ID: "d", Position: 0}}},
	}}
}

func TestLessonStates(t *testing.T) {
	tests := []struct {
		name      string
		completed []string
		want      map[string]LessonState
	}{
		{
			name: "fresh enrollment unlocks the first lesson of every module",
			want: map[string]LessonState{
				"a": StateUnlocked, "b": StateLocked, "c": StateLocked,
				"d": StateUnlocked, "e": StateLocked,
			},
		},
		{
			name:      "completing a lesson unlocks the next one",
			completed: []string{"a", "d"},
			want: map[string]LessonState{
				"a": StateCompleted, "b": StateUnlocked, "c": StateLocked,
				"d": StateCompleted, "e": StateUnlocked,
			},
		},
		{
			name:      "completed lessons stay completed after reordering",
			completed: []string{"c"},
			want: map[string]LessonState{
				"a": StateUnlocked, "b": StateLocked, "c": StateCompleted,
				"d": StateUnlocked, "e": StateLocked,
			},
		},
		{
			name:      "all completed",
			completed: []string{"a", "b", "c", "d", "e"},
			want: map[string]LessonState{
				"a": StateCompleted, "b": StateCompleted, "c": StateCompleted,
				"d": StateCompleted, "e": StateCompleted,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completed := make(map[string]bool)
			for _, id := range tt.completed {
				completed[id] = true
			}
			assert.Equal(t, tt.want, LessonStates(outline(), completed))
		})
	}
}

func TestGrade(t *testing.T) {
	qs := []Question{
		{ID: "q1", CorrectOption: 0},
		{ID: "q2", CorrectOption: 2, Explanation: "because"},
		{ID: "q3", CorrectOption: 1},
	}

	score, results, err := Grade(qs, []int{0, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 100, score)
	assert.True(t, results[1].Correct)
	assert.Equal(t, "because", results[1].Explanation)

	score, results, err = Grade(qs, []int{0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 67, score)
	assert.False(t, results[1].Correct)
	assert.Equal(t, 1, results[1].Answer)

	score, _, err = Grade(qs, []int{3, 3, 3})
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	_, _, err = Grade(qs, []int{0, 2})
	assert.Equal(t, ErrAnswersMismatch, err)
	_, _, err = Grade(nil, nil)
	assert.Equal(t, ErrAnswersMismatch, err)
}
