package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/notification"
	"github.com/trezcool/skillfolio/core/user"
)

// catalogFixture is a published course with a plain lesson followed by a quiz lesson.
type catalogFixture struct {
	course       course.Course
	plain, quiz  course.Lesson
	instructorTk string
}

func buildCatalog(t *testing.T, a *app) catalogFixture {
	t.Helper()
	instructor := a.createUser(t, "Instructor", "teach", user.RoleInstructor)
	tk := getToken(t, instructor)

	var c course.Course
	decode(t, a.call(t, http.MethodPost, "/v1/admin/courses", tk, course.NewCourse{Title: "Go Basics", Summary: "Learn Go"}, http.StatusCreated), &c)
	var m course.Module
	decode(t, a.call(t, http.MethodPost, "/v1/admin/courses/"+c.ID+"/modules", tk, course.NewModule{Title: "Intro"}, http.StatusCreated), &m)

	f := catalogFixture{instructorTk: tk}
	decode(t, a.call(t, http.MethodPost, "/v1/admin/modules/"+m.ID+"/lessons", tk, course.NewLesson{Title: "Hello"}, http.StatusCreated), &f.plain)
	decode(t, a.call(t, http.MethodPost, "/v1/admin/modules/"+m.ID+"/lessons", tk, course.NewLesson{Title: "Quiz time"}, http.StatusCreated), &f.quiz)
	decode(t, a.call(t, http.MethodPut, "/v1/admin/lessons/"+f.quiz.ID+"/questions", tk, course.ReplaceQuestions{Questions: []course.NewQuestion{
		{Prompt: "1+1?", Options: []string{"1", "2"}, CorrectOption: 1},
		{Prompt: "Go is?", Options: []string{"compiled", "interpreted"}, CorrectOption: 0},
	}}, http.StatusOK), &f.quiz)
	decode(t, a.call(t, http.MethodPost, "/v1/admin/courses/"+c.ID+"/publish", tk, nil, http.StatusOK), &f.course)
	return f
}

func Test_catalogApi(t *testing.T) {
	a := setup(t)
	learner := a.createUser(t, "Hero", "hero", user.RoleLearner)
	f := buildCatalog(t, a)

	assert.Equal(t, "go-basics", f.course.Slug)
	assert.True(t, f.course.IsPublished)
	assert.Len(t, f.quiz.Questions, 2)

	newCourse := marchallObj(t, course.NewCourse{Title: "Draft"})
	a.runAll(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/admin/courses", body: newCourse, wantCode: http.StatusUnauthorized},
		{
			name: "instructor required", method: http.MethodPost, path: "/v1/admin/courses", body: newCourse,
			token: getToken(t, learner), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "title required", method: http.MethodPost, path: "/v1/admin/courses", body: []byte(`{}`), token: f.instructorTk,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
		{
			name: "slug taken", method: http.MethodPost, path: "/v1/admin/courses", body: marchallObj(t, course.NewCourse{Title: "Go basics!"}),
			token: f.instructorTk, wantCode: http.StatusBadRequest,
		},
		{name: "draft created", method: http.MethodPost, path: "/v1/admin/courses", body: newCourse, token: f.instructorTk, wantCode: http.StatusCreated},
		{name: "unknown lesson", path: "/v1/admin/lessons/lol", token: f.instructorTk, wantCode: http.StatusNotFound},
	})

	t.Run("public catalog hides drafts", func(t *testing.T) {
		var courses []course.Course
		decode(t, a.call(t, http.MethodGet, "/v1/courses", "", nil, http.StatusOK), &courses)
		require.Len(t, courses, 1)
		assert.Equal(t, f.course.ID, courses[0].ID)

		a.call(t, http.MethodGet, "/v1/courses/draft", "", nil, http.StatusNotFound)

		var detail course.Course
		decode(t, a.call(t, http.MethodGet, "/v1/courses/go-basics", "", nil, http.StatusOK), &detail)
		require.Len(t, detail.Modules, 1)
		assert.Len(t, detail.Modules[0].Lessons, 2)
	})

	t.Run("admin listing shows drafts", func(t *testing.T) {
		var courses []course.Course
		decode(t, a.call(t, http.MethodGet, "/v1/admin/courses", f.instructorTk, nil, http.StatusOK), &courses)
		assert.Len(t, courses, 2)
	})
}

func Test_courseApi_learning(t *testing.T) {
	a := setup(t)
	learner := a.createUser(t, "Hero", "hero", user.RoleLearner)
	tk := getToken(t, learner)
	f := buildCatalog(t, a)
	lessonPath := func(l course.Lesson, suffix string) string { return "/v1/learning/lessons/" + l.ID + suffix }

	a.runAll(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/learning/courses/" + f.course.ID + "/enroll", wantCode: http.StatusUnauthorized},
		{name: "not enrolled", path: lessonPath(f.plain, ""), token: tk, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "enrollment not found"})},
		{name: "unknown course", method: http.MethodPost, path: "/v1/learning/courses/lol/enroll", token: tk, wantCode: http.StatusNotFound},
	})

	var enr course.Enrollment
	decode(t, a.call(t, http.MethodPost, "/v1/learning/courses/"+f.course.ID+"/enroll", tk, nil, http.StatusOK), &enr)
	assert.Equal(t, learner.ID, enr.UserID)
	assert.Nil(t, enr.CompletedAt)

	t.Run("enrolling twice is a no-op", func(t *testing.T) {
		var again course.Enrollment
		decode(t, a.call(t, http.MethodPost, "/v1/learning/courses/"+f.course.ID+"/enroll", tk, nil, http.StatusOK), &again)
		assert.Equal(t, enr.ID, again.ID)
	})

	t.Run("lessons unlock in order", func(t *testing.T) {
		locked := marchallObj(t, httpErr{Error: "lesson is locked"})
		a.runAll(t, []httpTest{
			{name: "quiz lesson locked", path: lessonPath(f.quiz, ""), token: tk, wantCode: http.StatusBadRequest, wantData: locked},
			{name: "quiz cannot be submitted", method: http.MethodPost, path: lessonPath(f.quiz, "/quiz"), body: []byte(`{"answers": [1, 0]}`), token: tk, wantCode: http.StatusBadRequest, wantData: locked},
			{name: "plain lesson has no quiz", method: http.MethodPost, path: lessonPath(f.plain, "/quiz"), body: []byte(`{"answers": [0]}`), token: tk, wantCode: http.StatusBadRequest},
		})

		var view course.LessonView
		decode(t, a.call(t, http.MethodGet, lessonPath(f.plain, ""), tk, nil, http.StatusOK), &view)
		assert.Equal(t, course.StateUnlocked, view.State)

		var p course.Progress
		decode(t, a.call(t, http.MethodPost, lessonPath(f.plain, "/complete"), tk, nil, http.StatusOK), &p)
		assert.Equal(t, 1, p.CompletedLessons)
		assert.Equal(t, 2, p.TotalLessons)
		assert.Equal(t, 50, p.Enrollment.Progress)

		decode(t, a.call(t, http.MethodGet, lessonPath(f.quiz, ""), tk, nil, http.StatusOK), &view)
		assert.Equal(t, course.StateUnlocked, view.State)
		require.Len(t, view.Questions, 2)
		assert.NotContains(t, a.call(t, http.MethodGet, lessonPath(f.quiz, ""), tk, nil, http.StatusOK).Body.String(), "correct_option")
	})

	t.Run("quiz lessons complete through a passing quiz", func(t *testing.T) {
		a.call(t, http.MethodPost, lessonPath(f.quiz, "/complete"), tk, nil, http.StatusBadRequest)
		a.call(t, http.MethodPost, lessonPath(f.quiz, "/quiz"), tk, course.QuizAnswers{Answers: []int{1}}, http.StatusBadRequest)

		var res course.QuizResult
		decode(t, a.call(t, http.MethodPost, lessonPath(f.quiz, "/quiz"), tk, course.QuizAnswers{Answers: []int{0, 1}}, http.StatusOK), &res)
		assert.False(t, res.Passed)
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, course.StateUnlocked, res.State)

		decode(t, a.call(t, http.MethodPost, lessonPath(f.quiz, "/quiz"), tk, course.QuizAnswers{Answers: []int{1, 0}}, http.StatusOK), &res)
		assert.True(t, res.Passed)
		assert.Equal(t, 100, res.Score)
		assert.Equal(t, course.StateCompleted, res.State)
	})

	t.Run("course completed", func(t *testing.T) {
		var p course.Progress
		decode(t, a.call(t, http.MethodGet, "/v1/learning/courses/"+f.course.ID+"/progress", tk, nil, http.StatusOK), &p)
		assert.Equal(t, 100, p.Enrollment.Progress)
		assert.NotNil(t, p.Enrollment.CompletedAt)

		var enrs []course.Enrollment
		decode(t, a.call(t, http.MethodGet, "/v1/learning/enrollments?completed=true", tk, nil, http.StatusOK), &enrs)
		assert.Len(t, enrs, 1)
	})

	t.Run("XP awarded", func(t *testing.T) {
		// 2 lessons, quiz passed with 100% (+ perfect bonus), course
		wantXP := 2*course.DefaultLessonXP + 100/10 + gamification.XPQuizPerfect + course.DefaultCourseXP
		var s gamification.Summary
		decode(t, a.call(t, http.MethodGet, "/v1/me/gamification", tk, nil, http.StatusOK), &s)
		assert.Equal(t, wantXP, s.XP)
		assert.Equal(t, gamification.LevelFor(wantXP), s.Level)

		var board []gamification.LeaderboardEntry
		decode(t, a.call(t, http.MethodGet, "/v1/leaderboard?limit=5", tk, nil, http.StatusOK), &board)
		require.NotEmpty(t, board)
		assert.Equal(t, learner.ID, board[0].UserID)
		assert.Equal(t, 1, board[0].Rank)
	})

	t.Run("learner notified", func(t *testing.T) {
		var ns []notification.Notification
		decode(t, a.call(t, http.MethodGet, "/v1/notifications", tk, nil, http.StatusOK), &ns)
		kinds := make([]notification.Kind, 0, len(ns))
		for _, n := range ns {
			kinds = append(kinds, n.Kind)
		}
		assert.ElementsMatch(t, []notification.Kind{notification.KindLevelUp, notification.KindCourseCompleted}, kinds)
	})
}
