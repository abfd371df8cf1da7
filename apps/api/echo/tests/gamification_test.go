package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/notification"
	"github.com/trezcool/skillfolio/core/user"
)

func Test_badgeAdminApi(t *testing.T) {
	a := setup(t)
	learner := a.createUser(t, "Hero", "hero", user.RoleLearner)
	admin := a.createUser(t, "Admin", "admin", user.RoleAdmin)
	learnerTk, adminTk := getToken(t, learner), getToken(t, admin)

	helper := gamification.NewBadge{
		Code:      "Helper",
		Name:      "Helper",
		Tier:      gamification.TierGold,
		Criterion: gamification.CriterionXPTotal,
		Threshold: 100000,
		XPBonus:   100,
	}
	a.runAll(t, []httpTest{
		{name: "auth required", path: "/v1/admin/badges", wantCode: http.StatusUnauthorized},
		{name: "admin required", path: "/v1/admin/badges", token: learnerTk, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "invalid badge", method: http.MethodPost, path: "/v1/admin/badges", token: adminTk,
			body: []byte(`{"code": "x", "name": "X", "tier": "wood", "criterion": "magic", "threshold": 1}`), wantCode: http.StatusBadRequest,
		},
		{name: "unknown badge", method: http.MethodDelete, path: "/v1/admin/badges/lol", token: adminTk, wantCode: http.StatusNotFound},
	})

	var b gamification.Badge
	decode(t, a.call(t, http.MethodPost, "/v1/admin/badges", adminTk, helper, http.StatusCreated), &b)
	assert.Equal(t, "helper", b.Code)
	assert.True(t, b.IsActive)
	a.call(t, http.MethodPost, "/v1/admin/badges", adminTk, helper, http.StatusBadRequest)

	t.Run("manual award", func(t *testing.T) {
		a.mail.Reset()
		path := "/v1/admin/badges/" + b.ID + "/award"
		a.call(t, http.MethodPost, path, adminTk, map[string]string{"user_id": "lol"}, http.StatusBadRequest)

		var ub gamification.UserBadge
		decode(t, a.call(t, http.MethodPost, path, adminTk, map[string]string{"user_id": learner.ID}, http.StatusOK), &ub)
		assert.Equal(t, learner.ID, ub.UserID)
		assert.Equal(t, b.ID, ub.BadgeID)

		// awarding twice keeps the first award
		var again gamification.UserBadge
		decode(t, a.call(t, http.MethodPost, path, adminTk, map[string]string{"user_id": learner.ID}, http.StatusOK), &again)
		assert.True(t, ub.AwardedAt.Equal(again.AwardedAt))

		var s gamification.Summary
		decode(t, a.call(t, http.MethodGet, "/v1/me/gamification", learnerTk, nil, http.StatusOK), &s)
		assert.Equal(t, 100, s.XP)
		assert.Equal(t, 2, s.Level)
		assert.Equal(t, 1, s.BadgeCount)
		assert.Equal(t, 0, s.LevelXP)
		assert.Equal(t, gamification.XPForLevel(3)-100, s.XPToNextLevel)

		sent := a.mail.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, learner.Email, sent[0].To[0].Address)
		assert.Equal(t, "badge_awarded", sent[0].TemplateName)

		var ns []notification.Notification
		decode(t, a.call(t, http.MethodGet, "/v1/notifications?unread=true", learnerTk, nil, http.StatusOK), &ns)
		kinds := make([]notification.Kind, 0, len(ns))
		for _, n := range ns {
			kinds = append(kinds, n.Kind)
		}
		assert.ElementsMatch(t, []notification.Kind{notification.KindBadgeAwarded, notification.KindLevelUp}, kinds)
	})

	t.Run("reevaluate", func(t *testing.T) {
		var century gamification.Badge
		decode(t, a.call(t, http.MethodPost, "/v1/admin/badges", adminTk, gamification.NewBadge{
			Code: "century", Name: "Century", Tier: gamification.TierBronze, Criterion: gamification.CriterionXPTotal, Threshold: 100,
		}, http.StatusCreated), &century)

		var awarded []gamification.Badge
		decode(t, a.call(t, http.MethodPost, "/v1/admin/users/"+learner.ID+"/reevaluate", adminTk, nil, http.StatusOK), &awarded)
		require.Len(t, awarded, 1)
		assert.Equal(t, century.ID, awarded[0].ID)

		decode(t, a.call(t, http.MethodPost, "/v1/admin/users/"+learner.ID+"/reevaluate", adminTk, nil, http.StatusOK), &awarded)
		assert.Empty(t, awarded)
	})

	t.Run("badge listing", func(t *testing.T) {
		var statuses []gamification.BadgeStatus
		decode(t, a.call(t, http.MethodGet, "/v1/badges", adminTk, nil, http.StatusOK), &statuses)
		require.Len(t, statuses, 2)
		for _, st := range statuses {
			assert.False(t, st.Earned, st.Code)
		}

		decode(t, a.call(t, http.MethodGet, "/v1/badges", learnerTk, nil, http.StatusOK), &statuses)
		for _, st := range statuses {
			assert.True(t, st.Earned, st.Code)
			assert.NotNil(t, st.AwardedAt, st.Code)
		}

		var mine []gamification.UserBadge
		decode(t, a.call(t, http.MethodGet, "/v1/me/badges", learnerTk, nil, http.StatusOK), &mine)
		assert.Len(t, mine, 2)
	})

	t.Run("deactivated badges are hidden", func(t *testing.T) {
		decode(t, a.call(t, http.MethodPut, "/v1/admin/badges/"+b.ID, adminTk, map[string]bool{"is_active": false}, http.StatusOK), &b)
		assert.False(t, b.IsActive)

		var statuses []gamification.BadgeStatus
		decode(t, a.call(t, http.MethodGet, "/v1/badges", learnerTk, nil, http.StatusOK), &statuses)
		assert.Len(t, statuses, 1)

		var all []gamification.Badge
		decode(t, a.call(t, http.MethodGet, "/v1/admin/badges", adminTk, nil, http.StatusOK), &all)
		assert.Len(t, all, 2)

		a.call(t, http.MethodDelete, "/v1/admin/badges/"+b.ID, adminTk, nil, http.StatusNoContent)
		decode(t, a.call(t, http.MethodGet, "/v1/admin/badges", adminTk, nil, http.StatusOK), &all)
		assert.Len(t, all, 1)
	})
}

func Test_leaderboardApi(t *testing.T) {
	a := setup(t)
	first := a.createUser(t, "First", "first", user.RoleLearner)
	second := a.createUser(t, "Second", "second", user.RoleLearner)
	idle := a.createUser(t, "Idle", "idle", user.RoleLearner)
	tk := getToken(t, idle)

	for _, xp := range []struct {
		usr    user.User
		amount int
		source string
	}{
		{second, 50, "p1"},
		{first, 80, "p2"},
		{first, 40, "p3"},
	} {
		created, err := a.gamificationSvc.Award(ctx, xp.usr.ID, xp.amount, gamification.ReasonForumPost, xp.source)
		require.NoError(t, err)
		require.True(t, created)
	}
	created, err := a.gamificationSvc.Award(ctx, second.ID, 50, gamification.ReasonForumPost, "p1")
	require.NoError(t, err)
	assert.False(t, created, "XP is awarded once per source")

	a.runAll(t, []httpTest{
		{name: "auth required", path: "/v1/leaderboard", wantCode: http.StatusUnauthorized},
		{
			name: "ranked by XP", path: "/v1/leaderboard", token: tk,
			wantData: marchallList(t,
				gamification.LeaderboardEntry{Rank: 1, UserID: first.ID, Name: "First", Username: "first", XP: 120, Level: 2},
				gamification.LeaderboardEntry{Rank: 2, UserID: second.ID, Name: "Second", Username: "second", XP: 50, Level: 1},
			),
		},
		{
			name: "limited", path: "/v1/leaderboard?limit=1", token: tk,
			wantData: marchallList(t, gamification.LeaderboardEntry{Rank: 1, UserID: first.ID, Name: "First", Username: "first", XP: 120, Level: 2}),
		},
	})
}
