package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/user"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var ErrNotFound = core.NewNotFoundError("notification")

type (
	Repository interface {
		Create(ctx context.Context, n Notification) (Notification, error)
		// List returns the notifications of a user, newest first.
		List(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error)
		UnreadCount(ctx context.Context, userID string) (int, error)
		// MarkRead sets read_at on an unread notification of the user. It returns ErrNotFound for other users' notifications.
		MarkRead(ctx context.Context, userID, id string, at time.Time) (Notification, error)
		// MarkAllRead marks every unread notification of the user and returns how many changed.
		MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	}

	// Pusher delivers a new notification to the live connections of its user.
	Pusher interface {
		Push(userID string, n Notification)
	}

	Service interface {
		List(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error)
		UnreadCount(ctx context.Context, userID string) (int, error)
		MarkRead(ctx context.Context, userID, id string) (Notification, error)
		MarkAllRead(ctx context.Context, userID string) (int, error)
		// Notify saves n and pushes it to the user.
		Notify(ctx context.Context, n Notification) (Notification, error)

		// Subscribe registers the notification rules on the domain events.
		Subscribe(sub core.EventSubscriber)
	}

	service struct {
		repo    Repository
		pusher  Pusher
		users   user.Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, pusher Pusher, users user.Repository, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{repo: repo, pusher: pusher, users: users, mailSvc: mailSvc, logger: logger}
}

func (svc *service) List(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	} else if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	return svc.repo.List(ctx, userID, filter)
}

func (svc *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return svc.repo.UnreadCount(ctx, userID)
}

func (svc *service) MarkRead(ctx context.Context, userID, id string) (Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Notification{}, ErrNotFound
	}
	return svc.repo.MarkRead(ctx, userID, id, time.Now().UTC())
}

func (svc *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return svc.repo.MarkAllRead(ctx, userID, time.Now().UTC())
}

func (svc *service) Notify(ctx context.Context, n Notification) (Notification, error) {
	n.ID = uuid.New().String()
	n.ReadAt = nil
	n.CreatedAt = time.Now().UTC()
	n, err := svc.repo.Create(ctx, n)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}
	if svc.pusher != nil {
		svc.pusher.Push(n.UserID, n)
	}
	svc.logger.Debug(fmt.Sprintf("notified %s: %s", n.UserID, n.Kind))
	return n, nil
}
