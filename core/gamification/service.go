package gamification

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
)

var (
	ErrBadgeNotFound = core.NewNotFoundError("badge")
	ErrCodeExists    = errors.New("a badge with this code already exists")
)

type (
	Repository interface {
		// AddXP inserts e unless the user already has an entry for (Reason, SourceID), and reports whether it did.
		AddXP(ctx context.Context, e XPEntry) (bool, error)
		TotalXP(ctx context.Context, userID string) (int, error)
		// CountByReason counts the ledger entries of a user per reason.
		CountByReason(ctx context.Context, userID string) (map[Reason]int, error)
		// Leaderboard returns the users with the most XP, ranked from 1. Ties go to the oldest account.
		Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

		CheckBadgeCode(ctx context.Context, code, excludedID string) error
		CreateBadge(ctx context.Context, b Badge) (Badge, error)
		UpdateBadge(ctx context.Context, b Badge) (Badge, error)
		DeleteBadge(ctx context.Context, id string) error
		GetBadge(ctx context.Context, id string) (Badge, error)
		// ListBadges returns badges by tier then name.
		ListBadges(ctx context.Context, activeOnly bool) ([]Badge, error)

		// AwardBadge inserts ub unless the user already has the badge, and reports whether it did.
		AwardBadge(ctx context.Context, ub UserBadge) (bool, error)
		// UserBadges returns the badges of a user, with their Badge, most recent first.
		UserBadges(ctx context.Context, userID string) ([]UserBadge, error)
	}

	Service interface {
		// Award adds an XP entry unless it exists, then awards newly met badges and publishes level ups.
		Award(ctx context.Context, userID string, amount int, reason Reason, sourceID string) (bool, error)
		Summary(ctx context.Context, userID string) (Summary, error)
		ListBadges(ctx context.Context, userID string) ([]BadgeStatus, error)
		UserBadges(ctx context.Context, userID string) ([]UserBadge, error)
		Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
		// Reevaluate awards every badge the user meets but does not have yet.
		Reevaluate(ctx context.Context, userID string) ([]Badge, error)

		AdminListBadges(ctx context.Context) ([]Badge, error)
		CreateBadge(ctx context.Context, nb NewBadge) (Badge, error)
		UpdateBadge(ctx context.Context, id string, ub UpdateBadge) (Badge, error)
		DeleteBadge(ctx context.Context, id string) error
		AwardBadge(ctx context.Context, userID, badgeID string) (UserBadge, error)

		// Subscribe registers the XP rules on the domain events.
		Subscribe(sub core.EventSubscriber)
	}

	service struct {
		repo   Repository
		events core.EventPublisher
		logger core.Logger
	}
)

var _ Service = (*service)(nil) // interface compliance check

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

func NewService(repo Repository, events core.EventPublisher, logger core.Logger) Service {
	return &service{repo: repo, events: events, logger: logger}
}

func (svc *service) Award(ctx context.Context, userID string, amount int, reason Reason, sourceID string) (bool, error) {
	xpBefore, err := svc.repo.TotalXP(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "getting XP total")
	}
	created, err := svc.repo.AddXP(ctx, XPEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		SourceID:  sourceID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return false, errors.Wrap(err, "adding XP entry")
	}
	if !created {
		return false, nil
	}
	if _, err := svc.evaluate(ctx, userID); err != nil {
		return true, err
	}
	return true, svc.checkLevelUp(ctx, userID, xpBefore)
}

// evaluate awards the active badges the user meets, until no new badge is met:
// badge bonuses may meet further XP badges.
func (svc *service) evaluate(ctx context.Context, userID string) ([]Badge, error) {
	badges, err := svc.repo.ListBadges(ctx, true /* activeOnly */)
	if err != nil {
		return nil, errors.Wrap(err, "listing badges")
	}
	owned, err := svc.repo.UserBadges(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing user badges")
	}
	earned := make(map[string]bool, len(owned))
	for _, ub := range owned {
		earned[ub.BadgeID] = true
	}

	var awarded []Badge
	for {
		xp, err := svc.repo.TotalXP(ctx, userID)
		if err != nil {
			return awarded, errors.Wrap(err, "getting XP total")
		}
		counts, err := svc.repo.CountByReason(ctx, userID)
		if err != nil {
			return awarded, errors.Wrap(err, "counting XP entries")
		}

		var round int
		for _, b := range badges {
			if earned[b.ID] || !b.met(xp, counts) {
				continue
			}
			earned[b.ID] = true
			created, err := svc.grant(ctx, userID, b)
			if err != nil {
				return awarded, err
			}
			if created {
				awarded = append(awarded, b)
				round++
			}
		}
		if round == 0 {
			return awarded, nil
		}
	}
}

// grant gives b to the user with its XP bonus, publishing the award.
func (svc *service) grant(ctx context.Context, userID string, b Badge) (bool, error) {
	created, err := svc.repo.AwardBadge(ctx, UserBadge{UserID: userID, BadgeID: b.ID, AwardedAt: time.Now().UTC()})
	if err != nil {
		return false, errors.Wrapf(err, "awarding badge %s", b.Code)
	}
	if !created {
		return false, nil
	}
	if b.XPBonus > 0 {
		if _, err := svc.repo.AddXP(ctx, XPEntry{
			ID:        uuid.New().String(),
			UserID:    userID,
			Amount:    b.XPBonus,
			Reason:    ReasonBadge,
			SourceID:  b.ID,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return true, errors.Wrap(err, "adding badge bonus")
		}
	}
	svc.publish(ctx, core.NewEvent(core.EventBadgeAwarded, userID, b.ID, b.XPBonus, map[string]string{
		"code":        b.Code,
		"name":        b.Name,
		"tier":        string(b.Tier),
		"description": b.Description,
	}))
	return true, nil
}

func (svc *service) checkLevelUp(ctx context.Context, userID string, xpBefore int) error {
	xp, err := svc.repo.TotalXP(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "getting XP total")
	}
	if before, after := LevelFor(xpBefore), LevelFor(xp); after > before {
		svc.publish(ctx, core.NewEvent(core.EventLevelUp, userID, userID, after, map[string]string{
			"previous": strconv.Itoa(before),
		}))
	}
	return nil
}

func (svc *service) publish(ctx context.Context, evt core.Event) {
	if err := svc.events.Publish(ctx, evt); err != nil {
		svc.logger.Error(fmt.Sprintf("publishing %s: %v", evt.Type, err), err)
	}
}

func (svc *service) Summary(ctx context.Context, userID string) (Summary, error) {
	xp, err := svc.repo.TotalXP(ctx, userID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "getting XP total")
	}
	badges, err := svc.repo.UserBadges(ctx, userID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "listing user badges")
	}
	return newSummary(userID, xp, len(badges)), nil
}

func (svc *service) ListBadges(ctx context.Context, userID string) ([]BadgeStatus, error) {
	badges, err := svc.repo.ListBadges(ctx, true /* activeOnly */)
	if err != nil {
		return nil, errors.Wrap(err, "listing badges")
	}
	owned, err := svc.repo.UserBadges(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing user badges")
	}
	awardedAt := make(map[string]time.Time, len(owned))
	for _, ub := range owned {
		awardedAt[ub.BadgeID] = ub.AwardedAt
	}
	statuses := make([]BadgeStatus, 0, len(badges))
	for _, b := range badges {
		bs := BadgeStatus{Badge: b}
		if at, ok := awardedAt[b.ID]; ok {
			bs.Earned, bs.AwardedAt = true, &at
		}
		statuses = append(statuses, bs)
	}
	return statuses, nil
}

func (svc *service) UserBadges(ctx context.Context, userID string) ([]UserBadge, error) {
	return svc.repo.UserBadges(ctx, userID)
}

func (svc *service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	} else if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	return svc.repo.Leaderboard(ctx, limit)
}

func (svc *service) Reevaluate(ctx context.Context, userID string) ([]Badge, error) {
	xpBefore, err := svc.repo.TotalXP(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "getting XP total")
	}
	awarded, err := svc.evaluate(ctx, userID)
	if err != nil {
		return awarded, err
	}
	return awarded, svc.checkLevelUp(ctx, userID, xpBefore)
}

// Badges management

func (svc *service) AdminListBadges(ctx context.Context) ([]Badge, error) {
	return svc.repo.ListBadges(ctx, false /* activeOnly */)
}

func (svc *service) getBadge(ctx context.Context, id string) (Badge, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Badge{}, ErrBadgeNotFound
	}
	return svc.repo.GetBadge(ctx, id)
}

func (svc *service) CreateBadge(ctx context.Context, nb NewBadge) (Badge, error) {
	if err := svc.repo.CheckBadgeCode(ctx, nb.Code, ""); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return Badge{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return Badge{}, errors.Wrap(err, "checking badge code")
	}
	b := Badge{
		ID:          uuid.New().String(),
		Code:        nb.Code,
		Name:        nb.Name,
		Description: nb.Description,
		Icon:        nb.Icon,
		Tier:        nb.Tier,
		Criterion:   nb.Criterion,
		Threshold:   nb.Threshold,
		XPBonus:     nb.XPBonus,
		IsActive:    nb.IsActive == nil || *nb.IsActive,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateBadge(ctx, b)
}

func (svc *service) UpdateBadge(ctx context.Context, id string, ub UpdateBadge) (Badge, error) {
	b, err := svc.getBadge(ctx, id)
	if err != nil {
		return Badge{}, err
	}
	if ub.Name != nil {
		b.Name = *ub.Name
	}
	if ub.Description != nil {
		b.Description = *ub.Description
	}
	if ub.Icon != nil {
		b.Icon = *ub.Icon
	}
	if ub.Tier != nil {
		b.Tier = *ub.Tier
	}
	if ub.Criterion != nil {
		b.Criterion = *ub.Criterion
	}
	if ub.Threshold != nil {
		b.Threshold = *ub.Threshold
	}
	if ub.XPBonus != nil {
		b.XPBonus = *ub.XPBonus
	}
	if ub.IsActive != nil {
		b.IsActive = *ub.IsActive
	}
	return svc.repo.UpdateBadge(ctx, b)
}

func (svc *service) DeleteBadge(ctx context.Context, id string) error {
	if _, err := svc.getBadge(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteBadge(ctx, id)
}

func (svc *service) AwardBadge(ctx context.Context, userID, badgeID string) (UserBadge, error) {
	b, err := svc.getBadge(ctx, badgeID)
	if err != nil {
		return UserBadge{}, err
	}
	xpBefore, err := svc.repo.TotalXP(ctx, userID)
	if err != nil {
		return UserBadge{}, errors.Wrap(err, "getting XP total")
	}
	if _, err := svc.grant(ctx, userID, b); err != nil {
		return UserBadge{}, err
	}
	if _, err := svc.evaluate(ctx, userID); err != nil {
		return UserBadge{}, err
	}
	if err := svc.checkLevelUp(ctx, userID, xpBefore); err != nil {
		return UserBadge{}, err
	}

	owned, err := svc.repo.UserBadges(ctx, userID)
	if err != nil {
		return UserBadge{}, errors.Wrap(err, "listing user badges")
	}
	for _, ub := range owned {
		if ub.BadgeID == b.ID {
			return ub, nil
		}
	}
	return UserBadge{}, ErrBadgeNotFound
}
