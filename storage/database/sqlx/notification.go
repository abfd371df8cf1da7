package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/skillfolio/core/notification"
)

const notificationColumns = "id, user_id, kind, title, body, link, read_at, created_at"

type notificationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Kind      string    `db:"kind"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Link      string    `db:"link"`
	ReadAt    null.Time `db:"read_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) notification() notification.Notification {
	return notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Kind:      notification.Kind(r.Kind),
		Title:     r.Title,
		Body:      r.Body,
		Link:      r.Link,
		ReadAt:    utcPtr(r.ReadAt),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	_, err := repo.db.ExecContext(ctx, "INSERT INTO notifications ("+notificationColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		n.ID, n.UserID, string(n.Kind), n.Title, n.Body, n.Link, null.TimeFromPtr(n.ReadAt), n.CreatedAt.UTC())
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) List(ctx context.Context, userID string, filter notification.QueryFilter) ([]notification.Notification, error) {
	q := "SELECT " + notificationColumns + " FROM notifications WHERE user_id = $1"
	if filter.UnreadOnly {
		q += " AND read_at IS NULL"
	}
	q += " ORDER BY created_at DESC"
	args := []interface{}{userID}
	if filter.Limit > 0 {
		q += " LIMIT $2"
		args = append(args, filter.Limit)
	}

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		notifs = append(notifs, r.notification())
	}
	return notifs, nil
}

func (repo *notificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL", userID)
	return count, errors.Wrap(err, "counting unread notifications")
}

func (repo *notificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) (notification.Notification, error) {
	var row notificationRow
	q := `
		UPDATE notifications SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns
	if err := repo.db.GetContext(ctx, &row, q, id, userID, at.UTC()); err != nil {
		return notification.Notification{}, trapNoRows(err, notification.ErrNotFound, "marking notification read")
	}
	return row.notification(), nil
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, "UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL", userID, at.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "marking notifications read")
}
