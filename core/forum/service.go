package forum

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/user"
)

const maxPageSize = 100

var (
	ErrThreadNotFound = core.NewNotFoundError("thread")
	ErrPostNotFound   = core.NewNotFoundError("post")
	ErrReportNotFound = core.NewNotFoundError("report")

	ErrThreadLocked = core.NewValidationError(errors.New("this thread is locked"))
)

// NowFunc returns the current UTC time. Tests may replace it.
var NowFunc = func() time.Time { return time.Now().UTC() }

type (
	Repository interface {
		CreateThread(ctx context.Context, t Thread) (Thread, error)
		// UpdateThread saves the thread fields, never reply_count or last_activity_at.
		UpdateThread(ctx context.Context, t Thread) (Thread, error)
		DeleteThread(ctx context.Context, id string) error
		// GetThread returns a thread without its posts.
		GetThread(ctx context.Context, id string) (Thread, error)
		// QueryThreads returns pinned threads first, then the most recently active.
		QueryThreads(ctx context.Context, filter QueryFilter) ([]Thread, error)
		// TouchThread recounts the visible posts of a thread and, unless at is zero, sets its last activity.
		TouchThread(ctx context.Context, id string, at time.Time) error

		CreatePost(ctx context.Context, p Post) (Post, error)
		UpdatePost(ctx context.Context, p Post) (Post, error)
		DeletePost(ctx context.Context, id string) error
		GetPost(ctx context.Context, id string) (Post, error)
		// ListPosts returns the posts of a thread, oldest first.
		ListPosts(ctx context.Context, threadID string, includeHidden bool) ([]Post, error)

		CreateReport(ctx context.Context, r Report) (Report, error)
		UpdateReport(ctx context.Context, r Report) (Report, error)
		GetReport(ctx context.Context, id string) (Report, error)
		// QueryReports returns reports, newest first.
		QueryReports(ctx context.Context, filter ReportFilter) ([]Report, error)
	}

	// Service methods take the acting user: moderators see hidden content and may bypass locks.
	Service interface {
		ListThreads(ctx context.Context, usr user.User, filter QueryFilter) ([]Thread, error)
		// GetThread returns a thread with its visible posts.
		GetThread(ctx context.Context, usr user.User, id string) (Thread, error)
		CreateThread(ctx context.Context, usr user.User, nt NewThread) (Thread, error)
		UpdateThread(ctx context.Context, usr user.User, id string, ut UpdateThread) (Thread, error)
		DeleteThread(ctx context.Context, usr user.User, id string) error

		Reply(ctx context.Context, usr user.User, threadID string, np NewPost) (Post, error)
		UpdatePost(ctx context.Context, usr user.User, id string, np NewPost) (Post, error)
		DeletePost(ctx context.Context, usr user.User, id string) error

		Report(ctx context.Context, usr user.User, nr NewReport) (Report, error)

		// Moderation
		ModerateThread(ctx context.Context, usr user.User, id string, mt ModerateThread) (Thread, error)
		HidePost(ctx context.Context, usr user.User, id string, hidden bool) (Post, error)
		ListReports(ctx context.Context, usr user.User, filter ReportFilter) ([]Report, error)
		ResolveReport(ctx context.Context, usr user.User, id string, rr ResolveReport) (Report, error)
	}

	service struct {
		repo   Repository
		events core.EventPublisher
		logger core.Logger
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, events core.EventPublisher, logger core.Logger) Service {
	return &service{repo: repo, events: events, logger: logger}
}

func (svc *service) publish(ctx context.Context, evt core.Event) {
	if err := svc.events.Publish(ctx, evt); err != nil {
		svc.logger.Error(fmt.Sprintf("publishing %s: %v", evt.Type, err), err)
	}
}

// visibleThread returns a thread the user may see.
func (svc *service) visibleThread(ctx context.Context, usr user.User, id string) (Thread, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Thread{}, ErrThreadNotFound
	}
	t, err := svc.repo.GetThread(ctx, id)
	if err != nil {
		return Thread{}, err
	}
	if t.IsHidden && !usr.IsModerator() {
		return Thread{}, ErrThreadNotFound
	}
	return t, nil
}

// visiblePost returns a post the user may see, in a thread they may see.
func (svc *service) visiblePost(ctx context.Context, usr user.User, id string) (Post, Thread, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Post{}, Thread{}, ErrPostNotFound
	}
	p, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		return Post{}, Thread{}, err
	}
	if p.IsHidden && !usr.IsModerator() {
		return Post{}, Thread{}, ErrPostNotFound
	}
	t, err := svc.visibleThread(ctx, usr, p.ThreadID)
	if err != nil {
		if core.IsNotFound(err) {
			return Post{}, Thread{}, ErrPostNotFound
		}
		return Post{}, Thread{}, err
	}
	return p, t, nil
}

func (svc *service) ListThreads(ctx context.Context, usr user.User, filter QueryFilter) ([]Thread, error) {
	filter.IncludeHidden = usr.IsModerator()
	filter.Tag = core.CleanString(filter.Tag, true)
	filter.Page.Clean(maxPageSize)
	return svc.repo.QueryThreads(ctx, filter)
}

func (svc *service) GetThread(ctx context.Context, usr user.User, id string) (Thread, error) {
	t, err := svc.visibleThread(ctx, usr, id)
	if err != nil {
		return Thread{}, err
	}
	posts, err := svc.repo.ListPosts(ctx, t.ID, usr.IsModerator())
	if err != nil {
		return Thread{}, errors.Wrap(err, "listing posts")
	}
	t.Posts = posts
	return t, nil
}

func (svc *service) CreateThread(ctx context.Context, usr user.User, nt NewThread) (Thread, error) {
	now := NowFunc()
	t, err := svc.repo.CreateThread(ctx, Thread{
		ID:             uuid.New().String(),
		AuthorID:       usr.ID,
		Title:          nt.Title,
		Body:           nt.Body,
		Tags:           cleanTags(nt.Tags),
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Thread{}, errors.Wrap(err, "creating thread")
	}
	svc.publish(ctx, core.NewEvent(core.EventThreadCreated, usr.ID, t.ID, 0, map[string]string{"title": t.Title}))
	return t, nil
}

func (svc *service) UpdateThread(ctx context.Context, usr user.User, id string, ut UpdateThread) (Thread, error) {
	t, err := svc.visibleThread(ctx, usr, id)
	if err != nil {
		return Thread{}, err
	}
	if t.AuthorID != usr.ID {
		return Thread{}, core.ErrPermissionDenied
	}
	if ut.Title != nil {
		t.Title = *ut.Title
	}
	if ut.Body != nil {
		t.Body = *ut.Body
	}
	if ut.Tags != nil {
		t.Tags = cleanTags(ut.Tags)
	}
	t.UpdatedAt = NowFunc()
	return svc.repo.UpdateThread(ctx, t)
}

func (svc *service) DeleteThread(ctx context.Context, usr user.User, id string) error {
	t, err := svc.visibleThread(ctx, usr, id)
	if err != nil {
		return err
	}
	if t.AuthorID != usr.ID && !usr.IsModerator() {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteThread(ctx, t.ID)
}

func (svc *service) Reply(ctx context.Context, usr user.User, threadID string, np NewPost) (Post, error) {
	t, err := svc.visibleThread(ctx, usr, threadID)
	if err != nil {
		return Post{}, err
	}
	if t.IsLocked && !usr.IsModerator() {
		return Post{}, ErrThreadLocked
	}

	now := NowFunc()
	p, err := svc.repo.CreatePost(ctx, Post{
		ID:        uuid.New().String(),
		ThreadID:  t.ID,
		AuthorID:  usr.ID,
		Body:      np.Body,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Post{}, errors.Wrap(err, "creating post")
	}
	if err := svc.repo.TouchThread(ctx, t.ID, now); err != nil {
		return Post{}, errors.Wrap(err, "touching thread")
	}
	svc.publish(ctx, core.NewEvent(core.EventPostCreated, usr.ID, p.ID, 0, map[string]string{
		"thread_id":        t.ID,
		"thread_title":     t.Title,
		"thread_author_id": t.AuthorID,
		"author_name":      usr.DisplayName(),
	}))
	return p, nil
}

func (svc *service) UpdatePost(ctx context.Context, usr user.User, id string, np NewPost) (Post, error) {
	p, _, err := svc.visiblePost(ctx, usr, id)
	if err != nil {
		return Post{}, err
	}
	if p.AuthorID != usr.ID {
		return Post{}, core.ErrPermissionDenied
	}
	p.Body = np.Body
	p.IsEdited = true
	p.UpdatedAt = NowFunc()
	return svc.repo.UpdatePost(ctx, p)
}

func (svc *service) DeletePost(ctx context.Context, usr user.User, id string) error {
	p, t, err := svc.visiblePost(ctx, usr, id)
	if err != nil {
		return err
	}
	if p.AuthorID != usr.ID && !usr.IsModerator() {
		return core.ErrPermissionDenied
	}
	if err := svc.repo.DeletePost(ctx, p.ID); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return errors.Wrap(svc.repo.TouchThread(ctx, t.ID, time.Time{}), "touching thread")
}

func (svc *service) Report(ctx context.Context, usr user.User, nr NewReport) (Report, error) {
	r := Report{
		ID:         uuid.New().String(),
		ReporterID: usr.ID,
		Reason:     nr.Reason,
		Status:     ReportOpen,
		CreatedAt:  NowFunc(),
	}
	if nr.PostID != "" {
		p, _, err := svc.visiblePost(ctx, usr, nr.PostID)
		if err != nil {
			return Report{}, err
		}
		r.PostID = p.ID
	} else {
		t, err := svc.visibleThread(ctx, usr, nr.ThreadID)
		if err != nil {
			return Report{}, err
		}
		r.ThreadID = t.ID
	}
	return svc.repo.CreateReport(ctx, r)
}

// Moderation

func (svc *service) ModerateThread(ctx context.Context, usr user.User, id string, mt ModerateThread) (Thread, error) {
	if !usr.IsModerator() {
		return Thread{}, core.ErrPermissionDenied
	}
	t, err := svc.visibleThread(ctx, usr, id)
	if err != nil {
		return Thread{}, err
	}
	if mt.IsPinned != nil {
		t.IsPinned = *mt.IsPinned
	}
	if mt.IsLocked != nil {
		t.IsLocked = *mt.IsLocked
	}
	if mt.IsHidden != nil {
		t.IsHidden = *mt.IsHidden
	}
	return svc.repo.UpdateThread(ctx, t)
}

func (svc *service) HidePost(ctx context.Context, usr user.User, id string, hidden bool) (Post, error) {
	if !usr.IsModerator() {
		return Post{}, core.ErrPermissionDenied
	}
	p, t, err := svc.visiblePost(ctx, usr, id)
	if err != nil {
		return Post{}, err
	}
	if p.IsHidden == hidden {
		return p, nil
	}
	p.IsHidden = hidden
	if p, err = svc.repo.UpdatePost(ctx, p); err != nil {
		return Post{}, errors.Wrap(err, "updating post")
	}
	if err := svc.repo.TouchThread(ctx, t.ID, time.Time{}); err != nil {
		return Post{}, errors.Wrap(err, "touching thread")
	}
	return p, nil
}

func (svc *service) ListReports(ctx context.Context, usr user.User, filter ReportFilter) ([]Report, error) {
	if !usr.IsModerator() {
		return nil, core.ErrPermissionDenied
	}
	filter.Page.Clean(maxPageSize)
	return svc.repo.QueryReports(ctx, filter)
}

func (svc *service) ResolveReport(ctx context.Context, usr user.User, id string, rr ResolveReport) (Report, error) {
	if !usr.IsModerator() {
		return Report{}, core.ErrPermissionDenied
	}
	if _, err := uuid.Parse(id); err != nil {
		return Report{}, ErrReportNotFound
	}
	r, err := svc.repo.GetReport(ctx, id)
	if err != nil {
		return Report{}, err
	}
	now := NowFunc()
	r.Status = rr.Status
	r.ResolvedBy = usr.ID
	r.ResolvedAt = &now
	return svc.repo.UpdateReport(ctx, r)
}
