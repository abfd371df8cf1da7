package gamification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/services/events"
	dummydb "github.com/trezcool/skillfolio/storage/database/dummy"
	testutil "github.com/trezcool/skillfolio/tests"
)

var ctx = context.Background()

type fixture struct {
	svc      gamification.Service
	bus      *events.SyncBus
	recorder *testutil.EventRecorder
	alice    user.User
	bob      user.User
}

// publisher fans events out to the bus and the recorder.
type publisher struct {
	bus      *events.SyncBus
	recorder *testutil.EventRecorder
}

func (p publisher) Publish(ctx context.Context, evts ...core.Event) error {
	_ = p.recorder.Publish(ctx, evts...)
	return p.bus.Publish(ctx, evts...)
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)
	f := fixture{
		bus:      events.NewSyncBus(testutil.NopLogger{T: t}),
		recorder: new(testutil.EventRecorder),
		alice:    testutil.CreateUser(t, usrRepo, "Alice", "alice", "alice@example.com", "", []string{user.RoleLearner}, true),
		bob:      testutil.CreateUser(t, usrRepo, "Bob", "bob", "bob@example.com", "", []string{user.RoleLearner}, true),
	}
	f.svc = gamification.NewService(
		dummydb.NewGamificationRepository(db),
		publisher{bus: f.bus, recorder: f.recorder},
		testutil.NopLogger{T: t},
	)
	f.svc.Subscribe(f.bus)
	return f
}

func (f fixture) badge(t *testing.T, nb gamification.NewBadge) gamification.Badge {
	t.Helper()
	b, err := f.svc.CreateBadge(ctx, nb)
	require.NoError(t, err)
	return b
}

func TestService_Award(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Award(ctx, f.alice.ID, 40, gamification.ReasonLessonCompleted, "l1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.Award(ctx, f.alice.ID, 40, gamification.ReasonLessonCompleted, "l1")
	require.NoError(t, err)
	assert.False(t, created, "awarding is idempotent")

	created, err = f.svc.Award(ctx, f.alice.ID, 5, gamification.ReasonQuizPerfect, "l1")
	require.NoError(t, err)
	assert.True(t, created, "another reason for the same source")

	s, err := f.svc.Summary(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, s.XP)
	assert.Equal(t, 1, s.Level)
	assert.Empty(t, f.recorder.Events(core.EventLevelUp))

	_, err = f.svc.Award(ctx, f.alice.ID, 60, gamification.ReasonCourseCompleted, "c1")
	require.NoError(t, err)
	levelUps := f.recorder.Events(core.EventLevelUp)
	require.Len(t, levelUps, 1)
	assert.Equal(t, 2, levelUps[0].Value)
	assert.Equal(t, "1", levelUps[0].Attr("previous"))
}

func TestService_badges(t *testing.T) {
	f := setup(t)
	first := f.badge(t, gamification.NewBadge{
		Code: "first-steps", Name: "First Steps", Tier: gamification.TierBronze,
		Criterion: string(gamification.ReasonLessonCompleted), Threshold: 1, XPBonus: 90,
	})
	century := f.badge(t, gamification.NewBadge{
		Code: "century", Name: "Century", Tier: gamification.TierSilver,
		Criterion: gamification.CriterionXPTotal, Threshold: 100,
	})
	inactive := false
	f.badge(t, gamification.NewBadge{
		Code: "hidden", Name: "Hidden", Tier: gamification.TierGold,
		Criterion: gamification.CriterionXPTotal, Threshold: 1, IsActive: &inactive,
	})

	_, err := f.svc.CreateBadge(ctx, gamification.NewBadge{Code: "century", Name: "Dup", Tier: gamification.TierBronze, Criterion: "xp_total", Threshold: 1})
	require.Error(t, err)
	assert.Equal(t, gamification.ErrCodeExists, err.(*core.ValidationError).Err)

	// 10 XP meets first-steps, whose 90 XP bonus then meets century
	_, err = f.svc.Award(ctx, f.alice.ID, 10, gamification.ReasonLessonCompleted, "l1")
	require.NoError(t, err)

	awarded := f.recorder.Events(core.EventBadgeAwarded)
	require.Len(t, awarded, 2)
	assert.Equal(t, "first-steps", awarded[0].Attr("code"))
	assert.Equal(t, "century", awarded[1].Attr("code"))
	assert.Len(t, f.recorder.Events(core.EventLevelUp), 1)

	s, err := f.svc.Summary(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, s.XP)
	assert.Equal(t, 2, s.Level)
	assert.Equal(t, 2, s.BadgeCount)

	statuses, err := f.svc.ListBadges(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 2, "inactive badges are not listed")
	assert.Equal(t, first.ID, statuses[0].ID)
	assert.True(t, statuses[0].Earned)
	assert.Equal(t, century.ID, statuses[1].ID)
	assert.True(t, statuses[1].Earned)

	// nothing awarded twice
	_, err = f.svc.Award(ctx, f.alice.ID, 10, gamification.ReasonLessonCompleted, "l2")
	require.NoError(t, err)
	assert.Len(t, f.recorder.Events(core.EventBadgeAwarded), 2)

	statuses, err = f.svc.ListBadges(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.False(t, statuses[0].Earned)
}

func TestService_AwardBadge_Reevaluate(t *testing.T) {
	f := setup(t)
	manual := f.badge(t, gamification.NewBadge{
		Code: "helper", Name: "Helper", Tier: gamification.TierGold,
		Criterion: string(gamification.ReasonForumPost), Threshold: 1000, XPBonus: 20,
	})

	ub, err := f.svc.AwardBadge(ctx, f.bob.ID, manual.ID)
	require.NoError(t, err)
	assert.Equal(t, manual.ID, ub.BadgeID)
	assert.Equal(t, "Helper", ub.Badge.Name)

	s, err := f.svc.Summary(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, s.XP)

	_, err = f.svc.AwardBadge(ctx, f.bob.ID, "not-a-uuid")
	assert.Equal(t, gamification.ErrBadgeNotFound, err)

	// a badge created after the facts is caught up by Reevaluate
	_, err = f.svc.Award(ctx, f.bob.ID, 2, gamification.ReasonForumPost, "p1")
	require.NoError(t, err)
	talker := f.badge(t, gamification.NewBadge{
		Code: "talker", Name: "Talker", Tier: gamification.TierBronze,
		Criterion: string(gamification.ReasonForumPost), Threshold: 1,
	})
	badges, err := f.svc.Reevaluate(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, talker.ID, badges[0].ID)

	badges, err = f.svc.Reevaluate(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, badges)
}

func TestService_Leaderboard(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Award(ctx, f.alice.ID, 30, gamification.ReasonGoalCompleted, "g1")
	require.NoError(t, err)
	_, err = f.svc.Award(ctx, f.bob.ID, 120, gamification.ReasonCourseCompleted, "c1")
	require.NoError(t, err)

	board, err := f.svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "bob", board[0].Username)
	assert.Equal(t, 2, board[0].Level)
	assert.Equal(t, "alice", board[1].Username)

	board, err = f.svc.Leaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, board, 1)
}

func TestService_Subscribe(t *testing.T) {
	f := setup(t)
	publish := func(evt core.Event) {
		t.Helper()
		require.NoError(t, f.bus.Publish(ctx, evt))
	}

	publish(core.NewEvent(core.EventLessonCompleted, f.alice.ID, "l1", 10, nil))
	publish(core.NewEvent(core.EventQuizPassed, f.alice.ID, "l1", 100, nil))      // 10 + 5 perfect
	publish(core.NewEvent(core.EventQuizPassed, f.alice.ID, "l1", 100, nil))      // already awarded
	publish(core.NewEvent(core.EventCourseCompleted, f.alice.ID, "c1", 100, nil)) // 100
	publish(core.NewEvent(core.EventSubtopicCompleted, f.alice.ID, "s1", 0, nil)) // 5
	publish(core.NewEvent(core.EventGoalCompleted, f.alice.ID, "g1", 0, nil))     // 50
	publish(core.NewEvent(core.EventThreadCreated, f.alice.ID, "t1", 0, nil))     // 5
	publish(core.NewEvent(core.EventPostCreated, f.alice.ID, "p1", 0, nil))       // 2

	s, err := f.svc.Summary(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 10+10+5+100+5+50+5+2, s.XP)
	assert.Equal(t, 2, s.Level)

	publish(core.NewEvent(core.EventQuizPassed, f.bob.ID, "l1", 75, nil))
	s, err = f.svc.Summary(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, s.XP)
}
