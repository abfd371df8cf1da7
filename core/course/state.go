package course

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
)

var ErrAnswersMismatch = core.NewValidationError(
	errors.New("one answer is required per question"),
	core.FieldError{Field: "answers", Error: "one answer is required per question"},
)

// LessonStates derives the state of every lesson of the outline from the completed lesson IDs.
// Unlocking is per module: the first lesson of each module is unlocked, and lesson n is unlocked
// once lesson n-1 of the same module is completed. Completed lessons stay completed whatever
// their position.
func LessonStates(c Course, completed map[string]bool) map[string]LessonState {
	states := make(map[string]LessonState)
	for _, m := range c.Modules {
		lessons := append([]Lesson(nil), m.Lessons...)
		sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Position < lessons[j].Position })

		prevCompleted := true
		for _, l := range lessons {
			switch {
			case completed[l.ID]:
				states[l.ID] = StateCompleted
			case prevCompleted:
				states[l.ID] = StateUnlocked
			default:
				states[l.ID] = StateLocked
			}
			prevCompleted = completed[l.ID]
		}
	}
	return states
}

// Grade scores answers against the questions of a quiz: round(100 * correct / questions).
func Grade(questions []Question, answers []int) (int, []QuestionResult, error) {
	if len(questions) == 0 || len(answers) != len(questions) {
		return 0, nil, ErrAnswersMismatch
	}
	results := make([]QuestionResult, len(questions))
	var correct int
	for i, q := range questions {
		ok := answers[i] == q.CorrectOption
		if ok {
			correct++
		}
		results[i] = QuestionResult{QuestionID: q.ID, Answer: answers[i], Correct: ok, Explanation: q.Explanation}
	}
	return core.Percent(correct, len(questions)), results, nil
}
