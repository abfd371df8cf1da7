package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/skillfolio/apps/api/echo"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/goal"
	"github.com/trezcool/skillfolio/core/notification"
	"github.com/trezcool/skillfolio/core/user"
)

func Test_goalApi(t *testing.T) {
	a := setup(t)
	hero := a.createUser(t, "Hero", "hero", user.RoleLearner)
	other := a.createUser(t, "Other", "other", user.RoleLearner)
	tk, otherTk := getToken(t, hero), getToken(t, other)

	var g goal.Goal
	decode(t, a.call(t, http.MethodPost, "/v1/goals", tk, goal.NewGoal{
		Title: " Learn Go ",
		Categories: []goal.NewCategory{{
			Title:  "Basics",
			Topics: []goal.NewTopic{{Title: "Syntax", Subtopics: []string{"Types", "Loops"}}},
		}},
	}, http.StatusCreated), &g)
	assert.Equal(t, "Learn Go", g.Title)
	assert.Equal(t, 1, g.TotalCategories)
	assert.Equal(t, 1, g.TotalTopics)
	assert.Equal(t, 2, g.TotalSubtopics)
	assert.Equal(t, 0, g.Progress)
	require.Len(t, g.Categories, 1)
	require.Len(t, g.Categories[0].Topics, 1)
	topic := g.Categories[0].Topics[0]
	require.Len(t, topic.Subtopics, 2)
	types, loops := topic.Subtopics[0], topic.Subtopics[1]

	a.runAll(t, []httpTest{
		{name: "auth required", path: "/v1/goals", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "title required", method: http.MethodPost, path: "/v1/goals", token: tk, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
		{name: "own goals", path: "/v1/goals", token: tk, wantData: marchallList(t, g.Summary())},
		{name: "goals of others are hidden", path: "/v1/goals", token: otherTk, wantData: marchallList(t)},
		{
			name: "goal of another user", path: "/v1/goals/" + g.ID, token: otherTk,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "goal not found"}),
		},
		{
			name: "subtopic of another user", method: http.MethodPut, path: "/v1/goal-subtopics/" + types.ID + "/status", token: otherTk,
			body: []byte(`{"status": "completed"}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "subtopic not found"}),
		},
		{
			name: "invalid status", method: http.MethodPut, path: "/v1/goal-subtopics/" + types.ID + "/status", token: tk,
			body: []byte(`{"status": "done"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status must be one of: pending, start, completed"}),
		},
		{name: "unknown category", method: http.MethodPost, path: "/v1/goal-categories/lol/topics", token: tk, body: []byte(`{"title": "x"}`), wantCode: http.StatusNotFound},
	})

	t.Run("progress rolls up", func(t *testing.T) {
		decode(t, a.call(t, http.MethodPut, "/v1/goal-subtopics/"+types.ID+"/status", tk, goal.SetStatus{Status: goal.StatusStarted}, http.StatusOK), &g)
		assert.Equal(t, 0, g.CompletedSubtopics)
		assert.NotNil(t, g.Categories[0].Topics[0].Subtopics[0].StartedAt)

		decode(t, a.call(t, http.MethodPut, "/v1/goal-subtopics/"+types.ID+"/status", tk, goal.SetStatus{Status: goal.StatusCompleted}, http.StatusOK), &g)
		assert.Equal(t, 1, g.CompletedSubtopics)
		assert.Equal(t, 50, g.Progress)
		assert.Nil(t, g.CompletedAt)

		decode(t, a.call(t, http.MethodPut, "/v1/goal-subtopics/"+loops.ID+"/status", tk, goal.SetStatus{Status: goal.StatusCompleted}, http.StatusOK), &g)
		assert.Equal(t, 100, g.Progress)
		assert.Equal(t, 1, g.CompletedTopics)
		assert.NotNil(t, g.CompletedAt)

		var history []goal.HistoryPoint
		decode(t, a.call(t, http.MethodGet, "/v1/goals/"+g.ID+"/history", tk, nil, http.StatusOK), &history)
		require.Len(t, history, 1) // one point per day
		assert.Equal(t, 100, history[0].Progress)
	})

	t.Run("completion rewarded", func(t *testing.T) {
		var s gamification.Summary
		decode(t, a.call(t, http.MethodGet, "/v1/me/gamification", tk, nil, http.StatusOK), &s)
		assert.Equal(t, 2*gamification.XPSubtopicCompleted+gamification.XPGoalCompleted, s.XP)

		var count echoapi.CountResponse
		decode(t, a.call(t, http.MethodGet, "/v1/notifications/unread-count", tk, nil, http.StatusOK), &count)
		assert.Equal(t, 1, count.Count)

		var ns []notification.Notification
		decode(t, a.call(t, http.MethodGet, "/v1/notifications", tk, nil, http.StatusOK), &ns)
		require.Len(t, ns, 1)
		assert.Equal(t, notification.KindGoalCompleted, ns[0].Kind)
	})

	t.Run("completing again awards nothing", func(t *testing.T) {
		a.call(t, http.MethodPut, "/v1/goal-subtopics/"+loops.ID+"/status", tk, goal.SetStatus{Status: goal.StatusPending}, http.StatusOK)
		decode(t, a.call(t, http.MethodPut, "/v1/goal-subtopics/"+loops.ID+"/status", tk, goal.SetStatus{Status: goal.StatusCompleted}, http.StatusOK), &g)
		assert.NotNil(t, g.CompletedAt)

		var s gamification.Summary
		decode(t, a.call(t, http.MethodGet, "/v1/me/gamification", tk, nil, http.StatusOK), &s)
		assert.Equal(t, 2*gamification.XPSubtopicCompleted+gamification.XPGoalCompleted, s.XP)
	})

	t.Run("tree editing", func(t *testing.T) {
		decode(t, a.call(t, http.MethodPost, "/v1/goals/"+g.ID+"/categories", tk, goal.NewNode{Title: "Advanced"}, http.StatusOK), &g)
		require.Len(t, g.Categories, 2)
		advanced := g.Categories[1]
		assert.Equal(t, 1, advanced.Position)

		decode(t, a.call(t, http.MethodPost, "/v1/goal-categories/"+advanced.ID+"/topics", tk, goal.NewNode{Title: "Concurrency"}, http.StatusOK), &g)
		concurrency := g.Categories[1].Topics[0]
		decode(t, a.call(t, http.MethodPost, "/v1/goal-topics/"+concurrency.ID+"/subtopics", tk, goal.NewSubtopic{Title: "Channels"}, http.StatusOK), &g)
		assert.Equal(t, 3, g.TotalSubtopics)
		assert.Equal(t, 67, g.Progress)
		assert.Nil(t, g.CompletedAt)

		a.call(t, http.MethodPut, "/v1/goals/"+g.ID+"/categories/order", tk, goal.Reorder{IDs: []string{advanced.ID}}, http.StatusBadRequest)
		decode(t, a.call(t, http.MethodPut, "/v1/goals/"+g.ID+"/categories/order", tk, goal.Reorder{IDs: []string{advanced.ID, g.Categories[0].ID}}, http.StatusOK), &g)
		assert.Equal(t, advanced.ID, g.Categories[0].ID)

		decode(t, a.call(t, http.MethodDelete, "/v1/goal-categories/"+advanced.ID, tk, nil, http.StatusOK), &g)
		assert.Len(t, g.Categories, 1)
		assert.Equal(t, 2, g.TotalSubtopics)
		assert.Equal(t, 100, g.Progress)
	})

	t.Run("delete", func(t *testing.T) {
		a.call(t, http.MethodDelete, "/v1/goals/"+g.ID, otherTk, nil, http.StatusNotFound)
		a.call(t, http.MethodDelete, "/v1/goals/"+g.ID, tk, nil, http.StatusNoContent)
		a.call(t, http.MethodGet, "/v1/goals/"+g.ID, tk, nil, http.StatusNotFound)
	})
}
