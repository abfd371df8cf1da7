package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/skillfolio/core/forum"
)

const (
	threadColumns = "id, author_id, title, body, tags, is_pinned, is_locked, is_hidden, reply_count, last_activity_at, created_at, updated_at"
	postColumns   = "id, thread_id, author_id, body, is_hidden, is_edited, created_at, updated_at"
	reportColumns = "id, thread_id, post_id, reporter_id, reason, status, resolved_by, resolved_at, created_at"
)

type (
	threadRow struct {
		ID             string         `db:"id"`
		AuthorID       string         `db:"author_id"`
		Title          string         `db:"title"`
		Body           string         `db:"body"`
		Tags           pq.StringArray `db:"tags"`
		IsPinned       bool           `db:"is_pinned"`
		IsLocked       bool           `db:"is_locked"`
		IsHidden       bool           `db:"is_hidden"`
		ReplyCount     int            `db:"reply_count"`
		LastActivityAt time.Time      `db:"last_activity_at"`
		CreatedAt      time.Time      `db:"created_at"`
		UpdatedAt      time.Time      `db:"updated_at"`
	}

	postRow struct {
		ID        string    `db:"id"`
		ThreadID  string    `db:"thread_id"`
		AuthorID  string    `db:"author_id"`
		Body      string    `db:"body"`
		IsHidden  bool      `db:"is_hidden"`
		IsEdited  bool      `db:"is_edited"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	reportRow struct {
		ID         string      `db:"id"`
		ThreadID   null.String `db:"thread_id"`
		PostID     null.String `db:"post_id"`
		ReporterID string      `db:"reporter_id"`
		Reason     string      `db:"reason"`
		Status     string      `db:"status"`
		ResolvedBy null.String `db:"resolved_by"`
		ResolvedAt null.Time   `db:"resolved_at"`
		CreatedAt  time.Time   `db:"created_at"`
	}
)

func toThreadRow(t forum.Thread) threadRow {
	return threadRow{
		ID:             t.ID,
		AuthorID:       t.AuthorID,
		Title:          t.Title,
		Body:           t.Body,
		Tags:           pq.StringArray(append([]string{}, t.Tags...)),
		IsPinned:       t.IsPinned,
		IsLocked:       t.IsLocked,
		IsHidden:       t.IsHidden,
		ReplyCount:     t.ReplyCount,
		LastActivityAt: t.LastActivityAt.UTC(),
		CreatedAt:      t.CreatedAt.UTC(),
		UpdatedAt:      t.UpdatedAt.UTC(),
	}
}

func (r threadRow) thread() forum.Thread {
	return forum.Thread{
		ID:             r.ID,
		AuthorID:       r.AuthorID,
		Title:          r.Title,
		Body:           r.Body,
		Tags:           append([]string{}, r.Tags...),
		IsPinned:       r.IsPinned,
		IsLocked:       r.IsLocked,
		IsHidden:       r.IsHidden,
		ReplyCount:     r.ReplyCount,
		LastActivityAt: r.LastActivityAt.UTC(),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func (r postRow) post() forum.Post {
	return forum.Post{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		AuthorID:  r.AuthorID,
		Body:      r.Body,
		IsHidden:  r.IsHidden,
		IsEdited:  r.IsEdited,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toReportRow(r forum.Report) reportRow {
	return reportRow{
		ID:         r.ID,
		ThreadID:   null.NewString(r.ThreadID, r.ThreadID != ""),
		PostID:     null.NewString(r.PostID, r.PostID != ""),
		ReporterID: r.ReporterID,
		Reason:     r.Reason,
		Status:     string(r.Status),
		ResolvedBy: null.NewString(r.ResolvedBy, r.ResolvedBy != ""),
		ResolvedAt: null.TimeFromPtr(r.ResolvedAt),
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func (r reportRow) report() forum.Report {
	return forum.Report{
		ID:         r.ID,
		ThreadID:   r.ThreadID.String,
		PostID:     r.PostID.String,
		ReporterID: r.ReporterID,
		Reason:     r.Reason,
		Status:     forum.ReportStatus(r.Status),
		ResolvedBy: r.ResolvedBy.String,
		ResolvedAt: utcPtr(r.ResolvedAt),
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type forumRepository struct {
	db *sqlx.DB
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(db *sqlx.DB) forum.Repository {
	return &forumRepository{db: db}
}

// Threads

func (repo *forumRepository) CreateThread(ctx context.Context, t forum.Thread) (forum.Thread, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO forum_threads (`+threadColumns+`)
		VALUES (:id, :author_id, :title, :body, :tags, :is_pinned, :is_locked, :is_hidden, :reply_count,
			:last_activity_at, :created_at, :updated_at)`,
		toThreadRow(t))
	if err != nil {
		return forum.Thread{}, errors.Wrap(err, "inserting thread")
	}
	return repo.GetThread(ctx, t.ID)
}

func (repo *forumRepository) UpdateThread(ctx context.Context, t forum.Thread) (forum.Thread, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE forum_threads SET title = :title, body = :body, tags = :tags, is_pinned = :is_pinned,
			is_locked = :is_locked, is_hidden = :is_hidden, updated_at = :updated_at
		WHERE id = :id`,
		toThreadRow(t))
	if err != nil {
		return forum.Thread{}, errors.Wrap(err, "updating thread")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forum.Thread{}, forum.ErrThreadNotFound
	}
	return repo.GetThread(ctx, t.ID)
}

func (repo *forumRepository) DeleteThread(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM forum_threads WHERE id = $1", id)
	return errors.Wrap(err, "deleting thread")
}

func (repo *forumRepository) GetThread(ctx context.Context, id string) (forum.Thread, error) {
	var row threadRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+threadColumns+" FROM forum_threads WHERE id = $1", id); err != nil {
		return forum.Thread{}, trapNoRows(err, forum.ErrThreadNotFound, "selecting thread")
	}
	return row.thread(), nil
}

func (repo *forumRepository) QueryThreads(ctx context.Context, filter forum.QueryFilter) ([]forum.Thread, error) {
	var c conds
	if !filter.IncludeHidden {
		c.add("NOT is_hidden")
	}
	if filter.Search != "" {
		c.add("title ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Tag != "" {
		c.add("? = ANY (tags)", filter.Tag)
	}
	q := "SELECT " + threadColumns + " FROM forum_threads" + c.String() + " ORDER BY is_pinned DESC, last_activity_at DESC"
	args := c.args
	if filter.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows []threadRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying threads")
	}
	threads := make([]forum.Thread, 0, len(rows))
	for _, r := range rows {
		threads = append(threads, r.thread())
	}
	return threads, nil
}

func (repo *forumRepository) TouchThread(ctx context.Context, id string, at time.Time) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE forum_threads SET
			reply_count = (SELECT COUNT(*) FROM forum_posts WHERE thread_id = $1 AND NOT is_hidden),
			last_activity_at = COALESCE($2, last_activity_at)
		WHERE id = $1`,
		id, null.NewTime(at.UTC(), !at.IsZero()))
	if err != nil {
		return errors.Wrap(err, "touching thread")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forum.ErrThreadNotFound
	}
	return nil
}

// Posts

func (repo *forumRepository) CreatePost(ctx context.Context, p forum.Post) (forum.Post, error) {
	_, err := repo.db.ExecContext(ctx, "INSERT INTO forum_posts ("+postColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		p.ID, p.ThreadID, p.AuthorID, p.Body, p.IsHidden, p.IsEdited, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return forum.Post{}, forum.ErrThreadNotFound
		}
		return forum.Post{}, errors.Wrap(err, "inserting post")
	}
	return p, nil
}

func (repo *forumRepository) UpdatePost(ctx context.Context, p forum.Post) (forum.Post, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE forum_posts SET body = $2, is_hidden = $3, is_edited = $4, updated_at = $5 WHERE id = $1",
		p.ID, p.Body, p.IsHidden, p.IsEdited, p.UpdatedAt.UTC())
	if err != nil {
		return forum.Post{}, errors.Wrap(err, "updating post")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forum.Post{}, forum.ErrPostNotFound
	}
	return repo.GetPost(ctx, p.ID)
}

func (repo *forumRepository) DeletePost(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM forum_posts WHERE id = $1", id)
	return errors.Wrap(err, "deleting post")
}

func (repo *forumRepository) GetPost(ctx context.Context, id string) (forum.Post, error) {
	var row postRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+postColumns+" FROM forum_posts WHERE id = $1", id); err != nil {
		return forum.Post{}, trapNoRows(err, forum.ErrPostNotFound, "selecting post")
	}
	return row.post(), nil
}

func (repo *forumRepository) ListPosts(ctx context.Context, threadID string, includeHidden bool) ([]forum.Post, error) {
	q := "SELECT " + postColumns + " FROM forum_posts WHERE thread_id = $1"
	if !includeHidden {
		q += " AND NOT is_hidden"
	}
	q += " ORDER BY created_at, id"

	var rows []postRow
	if err := repo.db.SelectContext(ctx, &rows, q, threadID); err != nil {
		return nil, errors.Wrap(err, "selecting posts")
	}
	posts := make([]forum.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.post())
	}
	return posts, nil
}

// Reports

func (repo *forumRepository) CreateReport(ctx context.Context, r forum.Report) (forum.Report, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO forum_reports (`+reportColumns+`)
		VALUES (:id, :thread_id, :post_id, :reporter_id, :reason, :status, :resolved_by, :resolved_at, :created_at)`,
		toReportRow(r))
	if err != nil {
		return forum.Report{}, errors.Wrap(err, "inserting report")
	}
	return repo.GetReport(ctx, r.ID)
}

func (repo *forumRepository) UpdateReport(ctx context.Context, r forum.Report) (forum.Report, error) {
	res, err := repo.db.NamedExecContext(ctx,
		"UPDATE forum_reports SET status = :status, resolved_by = :resolved_by, resolved_at = :resolved_at WHERE id = :id",
		toReportRow(r))
	if err != nil {
		return forum.Report{}, errors.Wrap(err, "updating report")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return forum.Report{}, forum.ErrReportNotFound
	}
	return repo.GetReport(ctx, r.ID)
}

func (repo *forumRepository) GetReport(ctx context.Context, id string) (forum.Report, error) {
	var row reportRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+reportColumns+" FROM forum_reports WHERE id = $1", id); err != nil {
		return forum.Report{}, trapNoRows(err, forum.ErrReportNotFound, "selecting report")
	}
	return row.report(), nil
}

func (repo *forumRepository) QueryReports(ctx context.Context, filter forum.ReportFilter) ([]forum.Report, error) {
	var c conds
	if filter.Status != "" {
		c.add("status = ?", string(filter.Status))
	}
	q := "SELECT " + reportColumns + " FROM forum_reports" + c.String() + " ORDER BY created_at DESC"
	args := c.args
	if filter.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows []reportRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying reports")
	}
	reports := make([]forum.Report, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, r.report())
	}
	return reports, nil
}
