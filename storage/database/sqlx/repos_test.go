package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/forum"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/goal"
	"github.com/trezcool/skillfolio/core/notification"
	"github.com/trezcool/skillfolio/core/user"
	boiledrepos "github.com/trezcool/skillfolio/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/skillfolio/storage/database/sqlx"
	testutil "github.com/trezcool/skillfolio/tests"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newID() string { return uuid.New().String() }

func TestUserRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := sqlxrepos.NewUserRepository(db)

	alice := testutil.CreateUser(t, repo, "Alice", "alice", "alice@example.com", "", []string{user.RoleAdmin}, true, t0)
	bob := testutil.CreateUser(t, repo, "Bob", "bob", "bob@example.com", "", nil, false, t0.Add(time.Hour))

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrUsernameExists, repo.CheckUniqueness(ctx, "alice", ""))
		assert.Equal(t, user.ErrEmailExists, repo.CheckUniqueness(ctx, "", "bob@example.com"))
		assert.NoError(t, repo.CheckUniqueness(ctx, "alice", "", alice))
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{"bob@example.com"}})
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)
		assert.False(t, got.Active())

		_, err = repo.GetUser(ctx, user.GetFilter{ID: newID()})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("query", func(t *testing.T) {
		active := true
		users, err := repo.QueryUsers(ctx, &user.QueryFilter{IsActive: &active}, nil)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, alice.ID, users[0].ID)

		users, err = repo.QueryUsers(ctx, &user.QueryFilter{Roles: []string{"admin"}}, nil)
		require.NoError(t, err)
		require.Len(t, users, 1)

		users, err = repo.QueryUsers(ctx, nil, []core.DBOrdering{{Field: "name", Ascending: true}})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Alice", users[0].Name)
	})

	t.Run("default ordering", func(t *testing.T) {
		tests := []struct {
			name     string
			ordering []core.DBOrdering
			want     []string
		}{
			{name: "none", want: []string{alice.ID, bob.ID}},
			{name: "unknown field", ordering: []core.DBOrdering{{Field: "password_hash"}}, want: []string{alice.ID, bob.ID}},
			{name: "-created_at", ordering: []core.DBOrdering{{Field: "created_at"}}, want: []string{bob.ID, alice.ID}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				users, err := repo.QueryUsers(ctx, nil, tt.ordering)
				require.NoError(t, err)
				got := make([]string, 0, len(users))
				for _, u := range users {
					got = append(got, u.ID)
				}
				assert.Equal(t, tt.want, got)
			})
		}
	})
}

func TestCourseRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := sqlxrepos.NewUserRepository(db)
	repo := sqlxrepos.NewCourseRepository(db)

	alice := testutil.CreateUser(t, users, "Alice", "alice", "alice@example.com", "", nil, true)

	c, err := repo.CreateCourse(ctx, course.Course{
		ID: newID(), Slug: "go-basics", Title: "Go Basics", Level: course.LevelBeginner,
		XPReward: 100, IsPublished: true, CreatedAt: t0, UpdatedAt: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, course.ErrSlugExists, repo.CheckSlug(ctx, "go-basics", ""))
	assert.NoError(t, repo.CheckSlug(ctx, "go-basics", c.ID))

	m1, err := repo.CreateModule(ctx, course.Module{ID: newID(), CourseID: c.ID, Title: "Intro", Position: 0})
	require.NoError(t, err)
	m2, err := repo.CreateModule(ctx, course.Module{ID: newID(), CourseID: c.ID, Title: "Types", Position: 1})
	require.NoError(t, err)
	l1, err := repo.CreateLesson(ctx, course.Lesson{ID: newID(), ModuleID: m1.ID, Title: "Hello", XPReward: 10, PassingScore: 70})
	require.NoError(t, err)
	assert.Equal(t, c.ID, l1.CourseID)
	l2, err := repo.CreateLesson(ctx, course.Lesson{ID: newID(), ModuleID: m2.ID, Title: "Ints", XPReward: 10, PassingScore: 70})
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceQuestions(ctx, l2.ID, []course.Question{
		{ID: newID(), Prompt: "1+1?", Options: []string{"1", "2"}, CorrectOption: 1},
	}))
	assert.True(t, core.IsNotFound(repo.ReplaceQuestions(ctx, newID(), nil)))

	require.NoError(t, repo.SetModulePositions(ctx, c.ID, []string{m2.ID, m1.ID}))

	t.Run("outline", func(t *testing.T) {
		got, err := repo.GetCourse(ctx, course.GetFilter{Slug: "go-basics"})
		require.NoError(t, err)
		require.Len(t, got.Modules, 2)
		assert.Equal(t, m2.ID, got.Modules[0].ID)
		require.Len(t, got.Modules[0].Lessons, 1)
		assert.Equal(t, 1, got.Modules[0].Lessons[0].QuestionCount)
		assert.Empty(t, got.Modules[0].Lessons[0].Questions)

		lesson, err := repo.GetLesson(ctx, l2.ID)
		require.NoError(t, err)
		require.Len(t, lesson.Questions, 1)
		assert.Equal(t, []string{"1", "2"}, lesson.Questions[0].Options)
	})

	t.Run("query", func(t *testing.T) {
		_, err := repo.CreateCourse(ctx, course.Course{
			ID: newID(), Slug: "draft", Title: "Draft", Level: course.LevelAdvanced, CreatedAt: t0.Add(time.Hour), UpdatedAt: t0,
		})
		require.NoError(t, err)

		courses, err := repo.QueryCourses(ctx, course.QueryFilter{PublishedOnly: true})
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Nil(t, courses[0].Modules)

		courses, err = repo.QueryCourses(ctx, course.QueryFilter{Search: "dra"})
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "draft", courses[0].Slug)
	})

	t.Run("learning", func(t *testing.T) {
		e, err := repo.CreateEnrollment(ctx, course.Enrollment{ID: newID(), UserID: alice.ID, CourseID: c.ID, EnrolledAt: t0})
		require.NoError(t, err)
		again, err := repo.CreateEnrollment(ctx, course.Enrollment{ID: newID(), UserID: alice.ID, CourseID: c.ID, EnrolledAt: t0})
		require.NoError(t, err)
		assert.Equal(t, e.ID, again.ID)

		added, err := repo.AddCompletion(ctx, course.LessonCompletion{EnrollmentID: e.ID, LessonID: l1.ID, CompletedAt: t0})
		require.NoError(t, err)
		assert.True(t, added)
		added, err = repo.AddCompletion(ctx, course.LessonCompletion{EnrollmentID: e.ID, LessonID: l1.ID, CompletedAt: t0})
		require.NoError(t, err)
		assert.False(t, added)

		score := 100
		_, err = repo.AddCompletion(ctx, course.LessonCompletion{EnrollmentID: e.ID, LessonID: l2.ID, QuizScore: &score, CompletedAt: t0.Add(time.Minute)})
		require.NoError(t, err)
		completions, err := repo.Completions(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, completions, 2)
		assert.Nil(t, completions[0].QuizScore)
		require.NotNil(t, completions[1].QuizScore)
		assert.Equal(t, 100, *completions[1].QuizScore)

		_, err = repo.AddQuizAttempt(ctx, course.QuizAttempt{ID: newID(), EnrollmentID: e.ID, LessonID: l2.ID, Answers: []int{1}, Score: 100, Passed: true, CreatedAt: t0})
		require.NoError(t, err)

		require.NoError(t, repo.SetProgress(ctx, e.ID, 100))
		done, err := repo.MarkCompleted(ctx, e.ID, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, done)
		done, err = repo.MarkCompleted(ctx, e.ID, t0.Add(2*time.Hour))
		require.NoError(t, err)
		assert.False(t, done)

		enrollments, err := repo.ListEnrollments(ctx, alice.ID, true)
		require.NoError(t, err)
		require.Len(t, enrollments, 1)
		require.NotNil(t, enrollments[0].Course)
		assert.Equal(t, "go-basics", enrollments[0].Course.Slug)
		assert.Equal(t, 100, enrollments[0].Progress)
		require.NotNil(t, enrollments[0].CompletedAt)
		assert.True(t, enrollments[0].CompletedAt.Equal(t0.Add(time.Hour)))
	})

	t.Run("cascade", func(t *testing.T) {
		require.NoError(t, repo.DeleteModule(ctx, m1.ID))
		_, err := repo.GetLesson(ctx, l1.ID)
		assert.Equal(t, course.ErrLessonNotFound, err)
	})
}

func TestGamificationRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := sqlxrepos.NewUserRepository(db)
	repo := sqlxrepos.NewGamificationRepository(db)

	alice := testutil.CreateUser(t, users, "Alice", "alice", "alice@example.com", "", nil, true, t0)
	bob := testutil.CreateUser(t, users, "Bob", "bob", "bob@example.com", "", nil, true, t0.Add(time.Hour))
	carol := testutil.CreateUser(t, users, "Carol", "carol", "carol@example.com", "", nil, false)

	addXP := func(userID string, amount int, reason gamification.Reason, src string) bool {
		added, err := repo.AddXP(ctx, gamification.XPEntry{ID: newID(), UserID: userID, Amount: amount, Reason: reason, SourceID: src, CreatedAt: t0})
		require.NoError(t, err)
		return added
	}

	assert.True(t, addXP(alice.ID, 10, gamification.ReasonLessonCompleted, "l1"))
	assert.False(t, addXP(alice.ID, 10, gamification.ReasonLessonCompleted, "l1"))
	assert.True(t, addXP(alice.ID, 20, gamification.ReasonLessonCompleted, "l2"))
	assert.True(t, addXP(bob.ID, 30, gamification.ReasonQuizPassed, "l1"))
	assert.True(t, addXP(carol.ID, 500, gamification.ReasonQuizPassed, "l1"))

	total, err := repo.TotalXP(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, total)

	counts, err := repo.CountByReason(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, map[gamification.Reason]int{gamification.ReasonLessonCompleted: 2}, counts)

	board, err := repo.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, alice.ID, board[0].UserID, "ties go to the oldest account")
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 2, board[1].Rank)

	gold := gamification.Badge{ID: newID(), Code: "gold", Name: "A", Tier: gamification.TierGold, Criterion: gamification.CriterionXPTotal, Threshold: 1, IsActive: true, CreatedAt: t0}
	bronze := gamification.Badge{ID: newID(), Code: "bronze", Name: "Z", Tier: gamification.TierBronze, Criterion: gamification.CriterionXPTotal, Threshold: 1, CreatedAt: t0}
	_, err = repo.CreateBadge(ctx, gold)
	require.NoError(t, err)
	_, err = repo.CreateBadge(ctx, bronze)
	require.NoError(t, err)
	_, err = repo.CreateBadge(ctx, gamification.Badge{ID: newID(), Code: "gold", Name: "B", Tier: gamification.TierGold, Criterion: "xp_total", CreatedAt: t0})
	assert.Equal(t, gamification.ErrCodeExists, err)

	badges, err := repo.ListBadges(ctx, false)
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, "bronze", badges[0].Code)
	badges, err = repo.ListBadges(ctx, true)
	require.NoError(t, err)
	assert.Len(t, badges, 1)

	awarded, err := repo.AwardBadge(ctx, gamification.UserBadge{UserID: alice.ID, BadgeID: gold.ID, AwardedAt: t0})
	require.NoError(t, err)
	assert.True(t, awarded)
	awarded, err = repo.AwardBadge(ctx, gamification.UserBadge{UserID: alice.ID, BadgeID: gold.ID, AwardedAt: t0})
	require.NoError(t, err)
	assert.False(t, awarded)
	_, err = repo.AwardBadge(ctx, gamification.UserBadge{UserID: alice.ID, BadgeID: newID(), AwardedAt: t0})
	assert.Equal(t, gamification.ErrBadgeNotFound, err)

	owned, err := repo.UserBadges(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.NotNil(t, owned[0].Badge)
	assert.Equal(t, "gold", owned[0].Badge.Code)
}

func TestForumRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := sqlxrepos.NewUserRepository(db)
	repo := sqlxrepos.NewForumRepository(db)

	alice := testutil.CreateUser(t, users, "Alice", "alice", "alice@example.com", "", nil, true)

	newThread := func(title string, tags []string, pinned bool, activity time.Time) forum.Thread {
		th, err := repo.CreateThread(ctx, forum.Thread{
			ID: newID(), AuthorID: alice.ID, Title: title, Body: "body", Tags: tags, IsPinned: pinned,
			LastActivityAt: activity, CreatedAt: activity, UpdatedAt: activity,
		})
		require.NoError(t, err)
		return th
	}
	old := newThread("Old pinned", nil, true, t0)
	recent := newThread("Recent", []string{"go"}, false, t0.Add(time.Hour))
	older := newThread("Older", nil, false, t0.Add(time.Minute))

	threads, err := repo.QueryThreads(ctx, forum.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, threads, 3)
	assert.Equal(t, []string{old.ID, recent.ID, older.ID}, []string{threads[0].ID, threads[1].ID, threads[2].ID})

	threads, err = repo.QueryThreads(ctx, forum.QueryFilter{Tag: "go"})
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, []string{"go"}, threads[0].Tags)

	p1, err := repo.CreatePost(ctx, forum.Post{ID: newID(), ThreadID: older.ID, AuthorID: alice.ID, Body: "a", CreatedAt: t0, UpdatedAt: t0})
	require.NoError(t, err)
	_, err = repo.CreatePost(ctx, forum.Post{ID: newID(), ThreadID: older.ID, AuthorID: alice.ID, Body: "b", IsHidden: true, CreatedAt: t0, UpdatedAt: t0})
	require.NoError(t, err)
	_, err = repo.CreatePost(ctx, forum.Post{ID: newID(), ThreadID: newID(), AuthorID: alice.ID, Body: "c", CreatedAt: t0, UpdatedAt: t0})
	assert.Equal(t, forum.ErrThreadNotFound, err)

	require.NoError(t, repo.TouchThread(ctx, older.ID, t0.Add(2*time.Hour)))
	got, err := repo.GetThread(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReplyCount)
	assert.True(t, got.LastActivityAt.Equal(t0.Add(2*time.Hour)))

	require.NoError(t, repo.TouchThread(ctx, older.ID, time.Time{}))
	got, err = repo.GetThread(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.Equal(t0.Add(2*time.Hour)))

	posts, err := repo.ListPosts(ctx, older.ID, false)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	posts, err = repo.ListPosts(ctx, older.ID, true)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	r, err := repo.CreateReport(ctx, forum.Report{ID: newID(), PostID: p1.ID, ReporterID: alice.ID, Reason: "spam", Status: forum.ReportOpen, CreatedAt: t0})
	require.NoError(t, err)
	assert.Empty(t, r.ThreadID)
	now := t0.Add(3 * time.Hour)
	r.Status, r.ResolvedBy, r.ResolvedAt = forum.ReportResolved, alice.ID, &now
	r, err = repo.UpdateReport(ctx, r)
	require.NoError(t, err)
	require.NotNil(t, r.ResolvedAt)

	reports, err := repo.QueryReports(ctx, forum.ReportFilter{Status: forum.ReportOpen})
	require.NoError(t, err)
	assert.Empty(t, reports)

	require.NoError(t, repo.DeletePost(ctx, p1.ID))
	_, err = repo.GetReport(ctx, r.ID)
	assert.Equal(t, forum.ErrReportNotFound, err)
}

func TestNotificationRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := sqlxrepos.NewUserRepository(db)
	repo := sqlxrepos.NewNotificationRepository(db)

	alice := testutil.CreateUser(t, users, "Alice", "alice", "alice@example.com", "", nil, true)
	bob := testutil.CreateUser(t, users, "Bob", "bob", "bob@example.com", "", nil, true)

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := repo.Create(ctx, notification.Notification{
			ID: newID(), UserID: alice.ID, Kind: notification.KindLevelUp, Title: "up", CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	notifs, err := repo.List(ctx, alice.ID, notification.QueryFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, notifs, 2)
	assert.Equal(t, ids[2], notifs[0].ID)

	n, err := repo.MarkRead(ctx, alice.ID, ids[0], t0.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, n.ReadAt)
	_, err = repo.MarkRead(ctx, bob.ID, ids[1], t0)
	assert.Equal(t, notification.ErrNotFound, err)

	count, err := repo.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	changed, err := repo.MarkAllRead(ctx, alice.ID, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	notifs, err = repo.List(ctx, alice.ID, notification.QueryFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestGoalRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := sqlxrepos.NewUserRepository(db)
	repo := sqlxrepos.NewGoalRepository(db)

	alice := testutil.CreateUser(t, users, "Alice", "alice", "alice@example.com", "", nil, true)

	g := goal.Goal{
		ID: newID(), UserID: alice.ID, Title: "Learn Go", CreatedAt: t0, UpdatedAt: t0,
		Categories: []goal.Category{{
			ID: newID(), Title: "Basics",
			Topics: []goal.Topic{{
				ID: newID(), Title: "Syntax",
				Subtopics: []goal.Subtopic{
					{ID: newID(), Title: "Vars", Status: goal.StatusPending},
					{ID: newID(), Title: "Loops", Status: goal.StatusPending, Position: 1},
				},
			}},
		}},
	}
	goal.Recount(&g)
	created, err := repo.CreateGoal(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, 2, created.TotalSubtopics)

	subID := g.Categories[0].Topics[0].Subtopics[0].ID
	goalID, err := repo.GoalIDOf(ctx, goal.NodeSubtopic, subID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, goalID)

	updated, err := repo.UpdateTree(ctx, g.ID, func(tree *goal.Goal) error {
		topic := &tree.Categories[0].Topics[0]
		topic.Subtopics = topic.Subtopics[1:]
		topic.Subtopics[0].Status = goal.StatusCompleted
		goal.Recount(tree)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalSubtopics)
	assert.Equal(t, 100, updated.Progress)

	_, err = repo.GoalIDOf(ctx, goal.NodeSubtopic, subID)
	assert.True(t, core.IsNotFound(err))

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertHistory(ctx, goal.HistoryPoint{GoalID: g.ID, Day: day, TotalSubtopics: 2}))
	require.NoError(t, repo.UpsertHistory(ctx, goal.HistoryPoint{GoalID: g.ID, Day: day, CompletedSubtopics: 1, TotalSubtopics: 1, Progress: 100}))
	history, err := repo.History(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 100, history[0].Progress)

	t.Run("load tree", func(t *testing.T) {
		tree := goal.Goal{ID: newID(), UserID: alice.ID, Title: "Ship it", CreatedAt: t0, UpdatedAt: t0}
		for ci, cTitle := range []string{"Backend", "Frontend"} {
			c := goal.Category{ID: newID(), Title: cTitle, Position: ci}
			for ti, tTitle := range []string{"One", "Two", "Three"} {
				c.Topics = append(c.Topics, goal.Topic{
					ID: newID(), Title: tTitle, Position: ti,
					Subtopics: []goal.Subtopic{{ID: newID(), Title: "Sub", Status: goal.StatusPending}},
				})
			}
			tree.Categories = append(tree.Categories, c)
		}
		goal.Recount(&tree)
		_, err := repo.CreateGoal(ctx, tree)
		require.NoError(t, err)

		tests := []struct {
			name    string
			ctx     func() context.Context
			wantErr bool
		}{
			{name: "full tree", ctx: context.Background},
			{name: "canceled", ctx: func() context.Context {
				c, cancel := context.WithCancel(context.Background())
				cancel()
				return c
			}, wantErr: true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.GetGoal(tt.ctx(), tree.ID)
				if tt.wantErr {
					assert.Error(t, err)
					return
				}
				require.NoError(t, err)
				require.Len(t, got.Categories, 2)
				for _, c := range got.Categories {
					require.Len(t, c.Topics, 3)
					assert.Equal(t, []string{"One", "Two", "Three"}, []string{c.Topics[0].Title, c.Topics[1].Title, c.Topics[2].Title})
					for _, tp := range c.Topics {
						assert.Len(t, tp.Subtopics, 1)
					}
				}
				assert.Equal(t, 6, got.TotalSubtopics)
			})
		}
	})
}

func TestStatsRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := sqlxrepos.NewUserRepository(db)
	xp := sqlxrepos.NewGamificationRepository(db)

	alice := testutil.CreateUser(t, users, "Alice", "alice", "alice@example.com", "", nil, true)
	testutil.CreateUser(t, users, "Bob", "bob", "bob@example.com", "", nil, false)
	_, err := xp.AddXP(ctx, gamification.XPEntry{ID: newID(), UserID: alice.ID, Amount: 42, Reason: gamification.ReasonForumPost, SourceID: "p", CreatedAt: t0})
	require.NoError(t, err)

	d, err := boiledrepos.NewStatsRepository(db).Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Users)
	assert.Equal(t, 1, d.ActiveUsers)
	assert.Equal(t, 42, d.TotalXP)
}
