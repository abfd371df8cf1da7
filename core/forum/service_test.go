package forum_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/forum"
	"github.com/trezcool/skillfolio/core/user"
	dummydb "github.com/trezcool/skillfolio/storage/database/dummy"
	testutil "github.com/trezcool/skillfolio/tests"
)

var ctx = context.Background()

type fixture struct {
	svc    forum.Service
	events *testutil.EventRecorder
	alice  user.User
	bob    user.User
	mod    user.User
}

func setup(t *testing.T) fixture {
	t.Helper()

	// every call moves the clock a minute forward
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	forum.NowFunc = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	t.Cleanup(func() { forum.NowFunc = func() time.Time { return time.Now().UTC() } })

	db := dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)
	f := fixture{
		events: new(testutil.EventRecorder),
		alice:  testutil.CreateUser(t, usrRepo, "Alice", "alice", "alice@example.com", "", []string{user.RoleLearner}, true),
		bob:    testutil.CreateUser(t, usrRepo, "Bob", "bob", "bob@example.com", "", []string{user.RoleLearner}, true),
		mod:    testutil.CreateUser(t, usrRepo, "Mod", "mod", "mod@example.com", "", []string{user.RoleModerator}, true),
	}
	f.svc = forum.NewService(dummydb.NewForumRepository(db), f.events, testutil.NopLogger{T: t})
	return f
}

func (f fixture) thread(t *testing.T, author user.User, title string, tags ...string) forum.Thread {
	t.Helper()
	th, err := f.svc.CreateThread(ctx, author, forum.NewThread{Title: title, Body: "body of " + title, Tags: tags})
	require.NoError(t, err)
	return th
}

func (f fixture) reply(t *testing.T, author user.User, threadID, body string) forum.Post {
	t.Helper()
	p, err := f.svc.Reply(ctx, author, threadID, forum.NewPost{Body: body})
	require.NoError(t, err)
	return p
}

func titles(threads []forum.Thread) []string {
	ts := make([]string, 0, len(threads))
	for _, t := range threads {
		ts = append(ts, t.Title)
	}
	return ts
}

func TestService_threads(t *testing.T) {
	f := setup(t)
	first := f.thread(t, f.alice, "Goroutines leak", "Go", "go", "concurrency")
	assert.Equal(t, []string{"go", "concurrency"}, first.Tags)
	second := f.thread(t, f.bob, "SQL joins")
	third := f.thread(t, f.bob, "Welcome")

	created := f.events.Events(core.EventThreadCreated)
	require.Len(t, created, 3)
	assert.Equal(t, f.alice.ID, created[0].UserID)
	assert.Equal(t, first.ID, created[0].SubjectID)

	threads, err := f.svc.ListThreads(ctx, f.alice, forum.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome", "SQL joins", "Goroutines leak"}, titles(threads))

	// a reply bumps the thread, a pin puts it first
	f.reply(t, f.alice, second.ID, "use EXPLAIN")
	pinned := true
	_, err = f.svc.ModerateThread(ctx, f.mod, first.ID, forum.ModerateThread{IsPinned: &pinned})
	require.NoError(t, err)

	threads, err = f.svc.ListThreads(ctx, f.alice, forum.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Goroutines leak", "SQL joins", "Welcome"}, titles(threads))

	threads, err = f.svc.ListThreads(ctx, f.alice, forum.QueryFilter{Search: "sql"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL joins"}, titles(threads))

	threads, err = f.svc.ListThreads(ctx, f.alice, forum.QueryFilter{Tag: "GO"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Goroutines leak"}, titles(threads))

	threads, err = f.svc.ListThreads(ctx, f.alice, forum.QueryFilter{Page: core.Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL joins"}, titles(threads))

	// editing and deleting
	title := "Welcome everyone"
	_, err = f.svc.UpdateThread(ctx, f.alice, third.ID, forum.UpdateThread{Title: &title})
	assert.Equal(t, core.ErrPermissionDenied, err)
	updated, err := f.svc.UpdateThread(ctx, f.bob, third.ID, forum.UpdateThread{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	assert.Equal(t, core.ErrPermissionDenied, f.svc.DeleteThread(ctx, f.alice, third.ID))
	require.NoError(t, f.svc.DeleteThread(ctx, f.mod, third.ID))
	_, err = f.svc.GetThread(ctx, f.bob, third.ID)
	assert.Equal(t, forum.ErrThreadNotFound, err)

	_, err = f.svc.GetThread(ctx, f.bob, "not-a-uuid")
	assert.Equal(t, forum.ErrThreadNotFound, err)
}

func TestService_posts(t *testing.T) {
	f := setup(t)
	th := f.thread(t, f.alice, "Help with channels")

	p1 := f.reply(t, f.bob, th.ID, "use a buffered channel")
	p2 := f.reply(t, f.alice, th.ID, "thanks!")

	posted := f.events.Events(core.EventPostCreated)
	require.Len(t, posted, 2)
	assert.Equal(t, f.bob.ID, posted[0].UserID)
	assert.Equal(t, p1.ID, posted[0].SubjectID)
	assert.Equal(t, th.ID, posted[0].Attr("thread_id"))
	assert.Equal(t, f.alice.ID, posted[0].Attr("thread_author_id"))
	assert.Equal(t, "Bob", posted[0].Attr("author_name"))

	got, err := f.svc.GetThread(ctx, f.bob, th.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReplyCount)
	require.Len(t, got.Posts, 2)
	assert.Equal(t, p1.ID, got.Posts[0].ID)
	assert.Equal(t, p2.ID, got.Posts[1].ID)
	assert.True(t, got.LastActivityAt.Equal(p2.CreatedAt))

	_, err = f.svc.UpdatePost(ctx, f.alice, p1.ID, forum.NewPost{Body: "nope"})
	assert.Equal(t, core.ErrPermissionDenied, err)
	edited, err := f.svc.UpdatePost(ctx, f.bob, p1.ID, forum.NewPost{Body: "use an unbuffered channel"})
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, th.ID, edited.ThreadID)

	assert.Equal(t, core.ErrPermissionDenied, f.svc.DeletePost(ctx, f.bob, p2.ID))
	require.NoError(t, f.svc.DeletePost(ctx, f.alice, p2.ID))
	got, err = f.svc.GetThread(ctx, f.bob, th.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReplyCount)
}

func TestService_locked(t *testing.T) {
	f := setup(t)
	th := f.thread(t, f.alice, "Announcements")
	locked := true
	_, err := f.svc.ModerateThread(ctx, f.alice, th.ID, forum.ModerateThread{IsLocked: &locked})
	assert.Equal(t, core.ErrPermissionDenied, err)
	_, err = f.svc.ModerateThread(ctx, f.mod, th.ID, forum.ModerateThread{IsLocked: &locked})
	require.NoError(t, err)

	_, err = f.svc.Reply(ctx, f.bob, th.ID, forum.NewPost{Body: "hi"})
	assert.Equal(t, forum.ErrThreadLocked, err)
	_, err = f.svc.Reply(ctx, f.alice, th.ID, forum.NewPost{Body: "hi"})
	assert.Equal(t, forum.ErrThreadLocked, err, "authors are locked out too")

	f.reply(t, f.mod, th.ID, "moderators may still reply")
	assert.Len(t, f.events.Events(core.EventPostCreated), 1)
}

func TestService_hidden(t *testing.T) {
	f := setup(t)
	th := f.thread(t, f.alice, "Off topic")
	spam := f.reply(t, f.bob, th.ID, "buy now")
	f.reply(t, f.alice, th.ID, "please stop")

	_, err := f.svc.HidePost(ctx, f.bob, spam.ID, true)
	assert.Equal(t, core.ErrPermissionDenied, err)
	hidden, err := f.svc.HidePost(ctx, f.mod, spam.ID, true)
	require.NoError(t, err)
	assert.True(t, hidden.IsHidden)

	got, err := f.svc.GetThread(ctx, f.alice, th.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReplyCount, "reply_count counts visible posts")
	assert.Len(t, got.Posts, 1)

	got, err = f.svc.GetThread(ctx, f.mod, th.ID)
	require.NoError(t, err)
	assert.Len(t, got.Posts, 2, "moderators see hidden posts")

	_, err = f.svc.UpdatePost(ctx, f.bob, spam.ID, forum.NewPost{Body: "edited spam"})
	assert.Equal(t, forum.ErrPostNotFound, err)

	hide := true
	_, err = f.svc.ModerateThread(ctx, f.mod, th.ID, forum.ModerateThread{IsHidden: &hide})
	require.NoError(t, err)

	_, err = f.svc.GetThread(ctx, f.alice, th.ID)
	assert.Equal(t, forum.ErrThreadNotFound, err, "hidden from its author too")
	threads, err := f.svc.ListThreads(ctx, f.alice, forum.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, threads)
	threads, err = f.svc.ListThreads(ctx, f.mod, forum.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, threads, 1)
	_, err = f.svc.Reply(ctx, f.bob, th.ID, forum.NewPost{Body: "hello?"})
	assert.Equal(t, forum.ErrThreadNotFound, err)
}

func TestService_reports(t *testing.T) {
	f := setup(t)
	th := f.thread(t, f.alice, "Rude thread")
	p := f.reply(t, f.alice, th.ID, "rude post")

	r1, err := f.svc.Report(ctx, f.bob, forum.NewReport{ThreadID: th.ID, Reason: "rude"})
	require.NoError(t, err)
	assert.Equal(t, th.ID, r1.ThreadID)
	assert.Equal(t, forum.ReportOpen, r1.Status)
	r2, err := f.svc.Report(ctx, f.bob, forum.NewReport{PostID: p.ID, Reason: "also rude"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, r2.PostID)
	assert.Empty(t, r2.ThreadID)

	_, err = f.svc.Report(ctx, f.bob, forum.NewReport{PostID: "2b1e7a4c-1f1e-4b8e-9a55-5d7f3c1d2e3f", Reason: "?"})
	assert.Equal(t, forum.ErrPostNotFound, err)

	_, err = f.svc.ListReports(ctx, f.bob, forum.ReportFilter{})
	assert.Equal(t, core.ErrPermissionDenied, err)

	reports, err := f.svc.ListReports(ctx, f.mod, forum.ReportFilter{Status: forum.ReportOpen})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, r2.ID, reports[0].ID, "newest first")

	resolved, err := f.svc.ResolveReport(ctx, f.mod, r1.ID, forum.ResolveReport{Status: forum.ReportDismissed})
	require.NoError(t, err)
	assert.Equal(t, forum.ReportDismissed, resolved.Status)
	assert.Equal(t, f.mod.ID, resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)

	reports, err = f.svc.ListReports(ctx, f.mod, forum.ReportFilter{Status: forum.ReportOpen})
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	_, err = f.svc.ResolveReport(ctx, f.mod, "2b1e7a4c-1f1e-4b8e-9a55-5d7f3c1d2e3f", forum.ResolveReport{Status: forum.ReportResolved})
	assert.Equal(t, forum.ErrReportNotFound, err)

	// deleting the post drops its reports
	require.NoError(t, f.svc.DeletePost(ctx, f.mod, p.ID))
	reports, err = f.svc.ListReports(ctx, f.mod, forum.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}
