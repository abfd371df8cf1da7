package course_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/course"
	dummydb "github.com/trezcool/skillfolio/storage/database/dummy"
	testutil "github.com/trezcool/skillfolio/tests"
)

var ctx = context.Background()

type fixture struct {
	svc    course.Service
	events *testutil.EventRecorder
	course course.Course
	// lessons by module: m1 = [l1 (no quiz), l2 (quiz)], m2 = [l3]
	l1, l2, l3 course.Lesson
}

func setup(t *testing.T) fixture {
	t.Helper()
	events := new(testutil.EventRecorder)
	svc := course.NewService(dummydb.NewCourseRepository(dummydb.Open()), events, testutil.NopLogger{T: t})

	c, err := svc.CreateCourse(ctx, "author", course.NewCourse{Title: "Go Basics"})
	require.NoError(t, err)
	m1, err := svc.CreateModule(ctx, c.ID, course.NewModule{Title: "Intro"})
	require.NoError(t, err)
	m2, err := svc.CreateModule(ctx, c.ID, course.NewModule{Title: "Types"})
	require.NoError(t, err)

	f := fixture{svc: svc, events: events}
	f.l1, err = svc.CreateLesson(ctx, m1.ID, course.NewLesson{Title: "Hello"})
	require.NoError(t, err)
	f.l2, err = svc.CreateLesson(ctx, m1.ID, course.NewLesson{Title: "Quiz time"})
	require.NoError(t, err)
	f.l3, err = svc.CreateLesson(ctx, m2.ID, course.NewLesson{Title: "Structs"})
	require.NoError(t, err)

	f.l2, err = svc.ReplaceQuestions(ctx, f.l2.ID, course.ReplaceQuestions{Questions: []course.NewQuestion{
		{Prompt: "1+1?", Options: []string{"1", "2"}, CorrectOption: 1},
		{Prompt: "Go is?", Options: []string{"compiled", "interpreted"}, CorrectOption: 0},
		{Prompt: "nil map write?", Options: []string{"ok", "panic", "error"}, CorrectOption: 1},
	}})
	require.NoError(t, err)

	f.course, err = svc.SetPublished(ctx, c.ID, true)
	require.NoError(t, err)
	return f
}

func TestService_catalog(t *testing.T) {
	f := setup(t)

	assert.Equal(t, "go-basics", f.course.Slug)
	assert.Equal(t, course.DefaultCourseXP, f.course.XPReward)
	assert.Equal(t, course.LevelBeginner, f.course.Level)
	assert.Equal(t, course.DefaultLessonXP, f.l1.XPReward)
	assert.Equal(t, course.DefaultPassingScore, f.l1.PassingScore)
	assert.Equal(t, 1, f.l2.Position)
	assert.Len(t, f.l2.Questions, 3)

	_, err := f.svc.CreateCourse(ctx, "author", course.NewCourse{Title: "Go basics!"})
	require.Error(t, err)
	assert.Equal(t, course.ErrSlugExists, err.(*core.ValidationError).Err)

	draft, err := f.svc.CreateCourse(ctx, "author", course.NewCourse{Title: "Draft", Slug: "draft"})
	require.NoError(t, err)

	courses, err := f.svc.ListCourses(ctx, course.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, f.course.ID, courses[0].ID)
	assert.Nil(t, courses[0].Modules)

	courses, err = f.svc.AdminListCourses(ctx, course.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	_, err = f.svc.GetCourse(ctx, "draft")
	assert.Equal(t, course.ErrNotFound, err)
	_, err = f.svc.Enroll(ctx, "u1", draft.ID)
	assert.Equal(t, course.ErrNotFound, err)

	c, err := f.svc.GetCourse(ctx, "go-basics")
	require.NoError(t, err)
	require.Len(t, c.Modules, 2)
	assert.Len(t, c.Modules[0].Lessons, 2)
	assert.Equal(t, 3, c.Modules[0].Lessons[1].QuestionCount)
	assert.Nil(t, c.Modules[0].Lessons[1].Questions)
}

func TestService_CompleteLesson(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CompleteLesson(ctx, "u1", f.l1.ID)
	assert.Equal(t, course.ErrNotEnrolled, err)

	enr, err := f.svc.Enroll(ctx, "u1", f.course.ID)
	require.NoError(t, err)
	again, err := f.svc.Enroll(ctx, "u1", f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, enr.ID, again.ID, "enrolling twice returns the same enrollment")

	p, err := f.svc.GetProgress(ctx, "u1", f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.TotalLessons)
	assert.Equal(t, course.StateUnlocked, p.Modules[0].Lessons[0].State)
	assert.Equal(t, course.StateLocked, p.Modules[0].Lessons[1].State)
	assert.Equal(t, course.StateUnlocked, p.Modules[1].Lessons[0].State)

	_, err = f.svc.GetLesson(ctx, "u1", f.l2.ID)
	assert.Equal(t, course.ErrLessonLocked, err)
	_, err = f.svc.SubmitQuiz(ctx, "u1", f.l2.ID, []int{1, 0, 1})
	assert.Equal(t, course.ErrLessonLocked, err)

	p, err = f.svc.CompleteLesson(ctx, "u1", f.l1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedLessons)
	assert.Equal(t, 33, p.Enrollment.Progress)
	assert.Equal(t, course.StateCompleted, p.Modules[0].Lessons[0].State)
	assert.Equal(t, course.StateUnlocked, p.Modules[0].Lessons[1].State)

	evts := f.events.Events(core.EventLessonCompleted)
	require.Len(t, evts, 1)
	assert.Equal(t, f.l1.ID, evts[0].SubjectID)
	assert.Equal(t, course.DefaultLessonXP, evts[0].Value)

	// idempotent
	_, err = f.svc.CompleteLesson(ctx, "u1", f.l1.ID)
	require.NoError(t, err)
	assert.Len(t, f.events.Events(core.EventLessonCompleted), 1)

	// a lesson with a quiz needs a passing attempt
	_, err = f.svc.CompleteLesson(ctx, "u1", f.l2.ID)
	assert.Equal(t, course.ErrQuizRequired, err)

	view, err := f.svc.GetLesson(ctx, "u1", f.l2.ID)
	require.NoError(t, err)
	assert.Equal(t, course.StateUnlocked, view.State)
	assert.Len(t, view.Questions, 3)
	assert.Nil(t, view.Lesson.Questions)
}

func TestService_SubmitQuiz(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Enroll(ctx, "u1", f.course.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteLesson(ctx, "u1", f.l1.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitQuiz(ctx, "u1", f.l2.ID, []int{1})
	assert.Equal(t, course.ErrAnswersMismatch, errors.Cause(err))
	_, err = f.svc.SubmitQuiz(ctx, "u1", f.l1.ID, []int{1})
	assert.Equal(t, course.ErrNoQuiz, err)

	res, err := f.svc.SubmitQuiz(ctx, "u1", f.l2.ID, []int{1, 1, 0}) // 1/3
	require.NoError(t, err)
	assert.Equal(t, 33, res.Score)
	assert.False(t, res.Passed)
	assert.Equal(t, course.StateUnlocked, res.State)
	assert.Empty(t, f.events.Events(core.EventQuizPassed))

	res, err = f.svc.SubmitQuiz(ctx, "u1", f.l2.ID, []int{1, 0, 0}) // 2/3, below 70
	require.NoError(t, err)
	assert.Equal(t, 67, res.Score)
	assert.False(t, res.Passed)

	res, err = f.svc.SubmitQuiz(ctx, "u1", f.l2.ID, []int{1, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
	assert.True(t, res.Passed)
	assert.Equal(t, course.StateCompleted, res.State)
	assert.True(t, res.Results[2].Correct)

	passed := f.events.Events(core.EventQuizPassed)
	require.Len(t, passed, 1)
	assert.Equal(t, 100, passed[0].Value)

	p, err := f.svc.GetProgress(ctx, "u1", f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, *p.Modules[0].Lessons[1].QuizScore)
	assert.Empty(t, f.events.Events(core.EventCourseCompleted))

	p, err = f.svc.CompleteLesson(ctx, "u1", f.l3.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Enrollment.Progress)
	assert.NotNil(t, p.Enrollment.CompletedAt)

	done := f.events.Events(core.EventCourseCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, f.course.ID, done[0].SubjectID)
	assert.Equal(t, course.DefaultCourseXP, done[0].Value)

	completed, err := f.svc.ListEnrollments(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "Go Basics", completed[0].Course.Title)
}

func TestService_reorder(t *testing.T) {
	f := setup(t)
	m1, m2 := f.course.Modules[0], f.course.Modules[1]

	_, err := f.svc.ReorderModules(ctx, f.course.ID, course.Reorder{IDs: []string{m2.ID}})
	assert.Equal(t, core.ErrInvalidOrdering, err)

	c, err := f.svc.ReorderModules(ctx, f.course.ID, course.Reorder{IDs: []string{m2.ID, m1.ID}})
	require.NoError(t, err)
	assert.Equal(t, m2.ID, c.Modules[0].ID)

	_, err = f.svc.Enroll(ctx, "u1", f.course.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteLesson(ctx, "u1", f.l1.ID)
	require.NoError(t, err)

	// moving the completed lesson last keeps it completed, the quiz lesson becomes first
	c, err = f.svc.ReorderLessons(ctx, m1.ID, course.Reorder{IDs: []string{f.l2.ID, f.l1.ID}})
	require.NoError(t, err)
	assert.Equal(t, f.l2.ID, c.Modules[1].Lessons[0].ID)

	p, err := f.svc.GetProgress(ctx, "u1", f.course.ID)
	require.NoError(t, err)
	intro := p.Modules[1]
	assert.Equal(t, course.StateUnlocked, intro.Lessons[0].State)
	assert.Equal(t, course.StateCompleted, intro.Lessons[1].State)

	require.NoError(t, f.svc.DeleteLesson(ctx, f.l2.ID))
	p, err = f.svc.GetProgress(ctx, "u1", f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalLessons)
	assert.Equal(t, 0, p.Modules[1].Lessons[0].Position)

	require.NoError(t, f.svc.DeleteModule(ctx, m2.ID))
	c, err = f.svc.AdminGetCourse(ctx, f.course.ID)
	require.NoError(t, err)
	require.Len(t, c.Modules, 1)
	assert.Equal(t, 0, c.Modules[0].Position)
}
