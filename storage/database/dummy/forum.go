package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/skillfolio/core/forum"
)

type forumRepository struct {
	db *forumTable
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(db *DB) forum.Repository {
	return &forumRepository{db: db.forum}
}

func (repo *forumRepository) CreateThread(_ context.Context, t forum.Thread) (forum.Thread, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.Posts = nil
	t.Tags = append([]string{}, t.Tags...)
	repo.db.threads[t.ID] = &t
	return t, nil
}

func (repo *forumRepository) UpdateThread(_ context.Context, t forum.Thread) (forum.Thread, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.threads[t.ID]
	if !ok {
		return forum.Thread{}, forum.ErrThreadNotFound
	}
	t.Posts = nil
	t.Tags = append([]string{}, t.Tags...)
	t.ReplyCount, t.LastActivityAt, t.CreatedAt = orig.ReplyCount, orig.LastActivityAt, orig.CreatedAt
	repo.db.threads[t.ID] = &t
	return t, nil
}

func (repo *forumRepository) DeleteThread(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for pid, p := range repo.db.posts {
		if p.ThreadID == id {
			repo.deletePost(pid)
		}
	}
	for rid, r := range repo.db.reports {
		if r.ThreadID == id {
			delete(repo.db.reports, rid)
		}
	}
	delete(repo.db.threads, id)
	return nil
}

func (repo *forumRepository) GetThread(_ context.Context, id string) (forum.Thread, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.threads[id]; ok {
		return *t, nil
	}
	return forum.Thread{}, forum.ErrThreadNotFound
}

func (repo *forumRepository) QueryThreads(_ context.Context, filter forum.QueryFilter) ([]forum.Thread, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	threads := make([]forum.Thread, 0, len(repo.db.threads))
	for _, t := range repo.db.threads {
		if t.IsHidden && !filter.IncludeHidden {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		if filter.Tag != "" && !t.HasTag(filter.Tag) {
			continue
		}
		threads = append(threads, *t)
	}
	sort.Slice(threads, func(i, j int) bool {
		if threads[i].IsPinned != threads[j].IsPinned {
			return threads[i].IsPinned
		}
		return threads[i].LastActivityAt.After(threads[j].LastActivityAt)
	})
	return paginate(threads, filter.Offset, filter.Limit), nil
}

func (repo *forumRepository) TouchThread(_ context.Context, id string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.threads[id]
	if !ok {
		return forum.ErrThreadNotFound
	}
	var count int
	for _, p := range repo.db.posts {
		if p.ThreadID == id && !p.IsHidden {
			count++
		}
	}
	t.ReplyCount = count
	if !at.IsZero() {
		t.LastActivityAt = at
	}
	return nil
}

func (repo *forumRepository) CreatePost(_ context.Context, p forum.Post) (forum.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.threads[p.ThreadID]; !ok {
		return forum.Post{}, forum.ErrThreadNotFound
	}
	repo.db.posts[p.ID] = &p
	return p, nil
}

func (repo *forumRepository) UpdatePost(_ context.Context, p forum.Post) (forum.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.posts[p.ID]
	if !ok {
		return forum.Post{}, forum.ErrPostNotFound
	}
	p.ThreadID, p.AuthorID, p.CreatedAt = orig.ThreadID, orig.AuthorID, orig.CreatedAt
	repo.db.posts[p.ID] = &p
	return p, nil
}

func (repo *forumRepository) DeletePost(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.deletePost(id)
	return nil
}

func (repo *forumRepository) deletePost(id string) {
	for rid, r := range repo.db.reports {
		if r.PostID == id {
			delete(repo.db.reports, rid)
		}
	}
	delete(repo.db.posts, id)
}

func (repo *forumRepository) GetPost(_ context.Context, id string) (forum.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.posts[id]; ok {
		return *p, nil
	}
	return forum.Post{}, forum.ErrPostNotFound
}

func (repo *forumRepository) ListPosts(_ context.Context, threadID string, includeHidden bool) ([]forum.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	posts := make([]forum.Post, 0)
	for _, p := range repo.db.posts {
		if p.ThreadID == threadID && (includeHidden || !p.IsHidden) {
			posts = append(posts, *p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

func (repo *forumRepository) CreateReport(_ context.Context, r forum.Report) (forum.Report, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.reports[r.ID] = &r
	return r, nil
}

func (repo *forumRepository) UpdateReport(_ context.Context, r forum.Report) (forum.Report, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.reports[r.ID]; !ok {
		return forum.Report{}, forum.ErrReportNotFound
	}
	repo.db.reports[r.ID] = &r
	return r, nil
}

func (repo *forumRepository) GetReport(_ context.Context, id string) (forum.Report, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.reports[id]; ok {
		return *r, nil
	}
	return forum.Report{}, forum.ErrReportNotFound
}

func (repo *forumRepository) QueryReports(_ context.Context, filter forum.ReportFilter) ([]forum.Report, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reports := make([]forum.Report, 0, len(repo.db.reports))
	for _, r := range repo.db.reports {
		if filter.Status == "" || r.Status == filter.Status {
			reports = append(reports, *r)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	return paginate(reports, filter.Offset, filter.Limit), nil
}
