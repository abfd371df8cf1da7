package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/skillfolio/core/gamification"
)

type gamificationRepository struct {
	db    *gamificationTable
	users *userTable
}

var _ gamification.Repository = (*gamificationRepository)(nil) // interface compliance check

func NewGamificationRepository(db *DB) gamification.Repository {
	return &gamificationRepository{db: db.gamification, users: db.user}
}

func (repo *gamificationRepository) AddXP(_ context.Context, e gamification.XPEntry) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.entries {
		if other.UserID == e.UserID && other.Reason == e.Reason && other.SourceID == e.SourceID {
			return false, nil
		}
	}
	repo.db.entries = append(repo.db.entries, e)
	return true, nil
}

func (repo *gamificationRepository) TotalXP(_ context.Context, userID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var total int
	for _, e := range repo.db.entries {
		if e.UserID == userID {
			total += e.Amount
		}
	}
	return total, nil
}

func (repo *gamificationRepository) CountByReason(_ context.Context, userID string) (map[gamification.Reason]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[gamification.Reason]int)
	for _, e := range repo.db.entries {
		if e.UserID == userID {
			counts[e.Reason]++
		}
	}
	return counts, nil
}

func (repo *gamificationRepository) Leaderboard(_ context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	repo.db.RLock()
	totals := make(map[string]int)
	for _, e := range repo.db.entries {
		totals[e.UserID] += e.Amount
	}
	repo.db.RUnlock()

	repo.users.RLock()
	defer repo.users.RUnlock()

	board := make([]gamification.LeaderboardEntry, 0, len(totals))
	for userID, xp := range totals {
		usr, ok := repo.users.table[userID]
		if !ok || !usr.Active() {
			continue
		}
		board = append(board, gamification.LeaderboardEntry{
			UserID:   userID,
			Name:     usr.Name,
			Username: usr.Username,
			XP:       xp,
			Level:    gamification.LevelFor(xp),
		})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].XP != board[j].XP {
			return board[i].XP > board[j].XP
		}
		return repo.users.table[board[i].UserID].CreatedAt.Before(repo.users.table[board[j].UserID].CreatedAt)
	})
	board = paginate(board, 0, limit)
	for i := range board {
		board[i].Rank = i + 1
	}
	return board, nil
}

func (repo *gamificationRepository) CheckBadgeCode(_ context.Context, code, excludedID string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, b := range repo.db.badges {
		if b.Code == code && b.ID != excludedID {
			return gamification.ErrCodeExists
		}
	}
	return nil
}

func (repo *gamificationRepository) CreateBadge(_ context.Context, b gamification.Badge) (gamification.Badge, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.badges[b.ID] = &b
	return b, nil
}

func (repo *gamificationRepository) UpdateBadge(_ context.Context, b gamification.Badge) (gamification.Badge, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.badges[b.ID]; !ok {
		return gamification.Badge{}, gamification.ErrBadgeNotFound
	}
	repo.db.badges[b.ID] = &b
	return b, nil
}

func (repo *gamificationRepository) DeleteBadge(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.badges, id)
	for _, owned := range repo.db.userBadges {
		delete(owned, id)
	}
	return nil
}

func (repo *gamificationRepository) GetBadge(_ context.Context, id string) (gamification.Badge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.badges[id]; ok {
		return *b, nil
	}
	return gamification.Badge{}, gamification.ErrBadgeNotFound
}

var tierRanks = map[gamification.Tier]int{
	gamification.TierBronze:   0,
	gamification.TierSilver:   1,
	gamification.TierGold:     2,
	gamification.TierPlatinum: 3,
}

func (repo *gamificationRepository) ListBadges(_ context.Context, activeOnly bool) ([]gamification.Badge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	badges := make([]gamification.Badge, 0, len(repo.db.badges))
	for _, b := range repo.db.badges {
		if activeOnly && !b.IsActive {
			continue
		}
		badges = append(badges, *b)
	}
	sort.Slice(badges, func(i, j int) bool {
		if ti, tj := tierRanks[badges[i].Tier], tierRanks[badges[j].Tier]; ti != tj {
			return ti < tj
		}
		return badges[i].Name < badges[j].Name
	})
	return badges, nil
}

func (repo *gamificationRepository) AwardBadge(_ context.Context, ub gamification.UserBadge) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.badges[ub.BadgeID]; !ok {
		return false, gamification.ErrBadgeNotFound
	}
	owned, ok := repo.db.userBadges[ub.UserID]
	if !ok {
		owned = make(map[string]gamification.UserBadge)
		repo.db.userBadges[ub.UserID] = owned
	}
	if _, has := owned[ub.BadgeID]; has {
		return false, nil
	}
	ub.Badge = nil
	owned[ub.BadgeID] = ub
	return true, nil
}

func (repo *gamificationRepository) UserBadges(_ context.Context, userID string) ([]gamification.UserBadge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	owned := make([]gamification.UserBadge, 0, len(repo.db.userBadges[userID]))
	for _, ub := range repo.db.userBadges[userID] {
		if b, ok := repo.db.badges[ub.BadgeID]; ok {
			badge := *b
			ub.Badge = &badge
		}
		owned = append(owned, ub)
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].AwardedAt.After(owned[j].AwardedAt) })
	return owned, nil
}
