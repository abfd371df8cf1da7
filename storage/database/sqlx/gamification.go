package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core/gamification"
)

const (
	badgeColumns = "id, code, name, description, icon, tier, criterion, threshold, xp_bonus, is_active, created_at"
	badgeCodeKey = "badges_code_key"

	tierOrder = "CASE tier WHEN 'bronze' THEN 0 WHEN 'silver' THEN 1 WHEN 'gold' THEN 2 WHEN 'platinum' THEN 3 ELSE 4 END"
)

type badgeRow struct {
	ID          string    `db:"id"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Icon        string    `db:"icon"`
	Tier        string    `db:"tier"`
	Criterion   string    `db:"criterion"`
	Threshold   int       `db:"threshold"`
	XPBonus     int       `db:"xp_bonus"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

func toBadgeRow(b gamification.Badge) badgeRow {
	return badgeRow{
		ID:          b.ID,
		Code:        b.Code,
		Name:        b.Name,
		Description: b.Description,
		Icon:        b.Icon,
		Tier:        string(b.Tier),
		Criterion:   b.Criterion,
		Threshold:   b.Threshold,
		XPBonus:     b.XPBonus,
		IsActive:    b.IsActive,
		CreatedAt:   b.CreatedAt.UTC(),
	}
}

func (r badgeRow) badge() gamification.Badge {
	return gamification.Badge{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Icon:        r.Icon,
		Tier:        gamification.Tier(r.Tier),
		Criterion:   r.Criterion,
		Threshold:   r.Threshold,
		XPBonus:     r.XPBonus,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type gamificationRepository struct {
	db *sqlx.DB
}

var _ gamification.Repository = (*gamificationRepository)(nil) // interface compliance check

func NewGamificationRepository(db *sqlx.DB) gamification.Repository {
	return &gamificationRepository{db: db}
}

func (repo *gamificationRepository) AddXP(ctx context.Context, e gamification.XPEntry) (bool, error) {
	res, err := repo.db.ExecContext(ctx, `
		INSERT INTO xp_entries (id, user_id, amount, reason, source_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, reason, source_id) DO NOTHING`,
		e.ID, e.UserID, e.Amount, string(e.Reason), e.SourceID, e.CreatedAt.UTC())
	if err != nil {
		return false, errors.Wrap(err, "inserting xp entry")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "inserting xp entry")
}

func (repo *gamificationRepository) TotalXP(ctx context.Context, userID string) (int, error) {
	var total int
	err := repo.db.GetContext(ctx, &total, "SELECT COALESCE(SUM(amount), 0) FROM xp_entries WHERE user_id = $1", userID)
	return total, errors.Wrap(err, "summing xp")
}

func (repo *gamificationRepository) CountByReason(ctx context.Context, userID string) (map[gamification.Reason]int, error) {
	var rows []struct {
		Reason string `db:"reason"`
		Count  int    `db:"count"`
	}
	q := "SELECT reason, COUNT(*) AS count FROM xp_entries WHERE user_id = $1 GROUP BY reason"
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "counting xp entries")
	}
	counts := make(map[gamification.Reason]int, len(rows))
	for _, r := range rows {
		counts[gamification.Reason(r.Reason)] = r.Count
	}
	return counts, nil
}

func (repo *gamificationRepository) Leaderboard(ctx context.Context, limit int) ([]gamification.LeaderboardEntry, error) {
	var rows []struct {
		UserID   string `db:"user_id"`
		Name     string `db:"name"`
		Username string `db:"username"`
		XP       int    `db:"xp"`
	}
	q := `
		SELECT u.id AS user_id, u.name, COALESCE(u.username, '') AS username, SUM(x.amount) AS xp
		FROM xp_entries x JOIN users u ON u.id = x.user_id
		WHERE u.is_active
		GROUP BY u.id
		ORDER BY xp DESC, u.created_at
		LIMIT $1`
	if err := repo.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, errors.Wrap(err, "selecting leaderboard")
	}
	board := make([]gamification.LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		board = append(board, gamification.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   r.UserID,
			Name:     r.Name,
			Username: r.Username,
			XP:       r.XP,
			Level:    gamification.LevelFor(r.XP),
		})
	}
	return board, nil
}

func (repo *gamificationRepository) CheckBadgeCode(ctx context.Context, code, excludedID string) error {
	var exists bool
	q := "SELECT EXISTS (SELECT 1 FROM badges WHERE code = $1 AND id::text <> $2)"
	if err := repo.db.GetContext(ctx, &exists, q, code, excludedID); err != nil {
		return errors.Wrap(err, "checking badge code")
	}
	if exists {
		return gamification.ErrCodeExists
	}
	return nil
}

func (repo *gamificationRepository) CreateBadge(ctx context.Context, b gamification.Badge) (gamification.Badge, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO badges (`+badgeColumns+`)
		VALUES (:id, :code, :name, :description, :icon, :tier, :criterion, :threshold, :xp_bonus, :is_active, :created_at)`,
		toBadgeRow(b))
	if err != nil {
		if isUniqueViolation(err, badgeCodeKey) {
			return gamification.Badge{}, gamification.ErrCodeExists
		}
		return gamification.Badge{}, errors.Wrap(err, "inserting badge")
	}
	return b, nil
}

func (repo *gamificationRepository) UpdateBadge(ctx context.Context, b gamification.Badge) (gamification.Badge, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE badges SET code = :code, name = :name, description = :description, icon = :icon, tier = :tier,
			criterion = :criterion, threshold = :threshold, xp_bonus = :xp_bonus, is_active = :is_active
		WHERE id = :id`,
		toBadgeRow(b))
	if err != nil {
		if isUniqueViolation(err, badgeCodeKey) {
			return gamification.Badge{}, gamification.ErrCodeExists
		}
		return gamification.Badge{}, errors.Wrap(err, "updating badge")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gamification.Badge{}, gamification.ErrBadgeNotFound
	}
	return repo.GetBadge(ctx, b.ID)
}

func (repo *gamificationRepository) DeleteBadge(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM badges WHERE id = $1", id)
	return errors.Wrap(err, "deleting badge")
}

func (repo *gamificationRepository) GetBadge(ctx context.Context, id string) (gamification.Badge, error) {
	var row badgeRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+badgeColumns+" FROM badges WHERE id = $1", id); err != nil {
		return gamification.Badge{}, trapNoRows(err, gamification.ErrBadgeNotFound, "selecting badge")
	}
	return row.badge(), nil
}

func (repo *gamificationRepository) ListBadges(ctx context.Context, activeOnly bool) ([]gamification.Badge, error) {
	q := "SELECT " + badgeColumns + " FROM badges"
	if activeOnly {
		q += " WHERE is_active"
	}
	q += " ORDER BY " + tierOrder + ", name"

	var rows []badgeRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting badges")
	}
	badges := make([]gamification.Badge, 0, len(rows))
	for _, r := range rows {
		badges = append(badges, r.badge())
	}
	return badges, nil
}

func (repo *gamificationRepository) AwardBadge(ctx context.Context, ub gamification.UserBadge) (bool, error) {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM badges WHERE id = $1)", ub.BadgeID); err != nil {
		return false, errors.Wrap(err, "checking badge")
	}
	if !exists {
		return false, gamification.ErrBadgeNotFound
	}
	res, err := repo.db.ExecContext(ctx, `
		INSERT INTO user_badges (user_id, badge_id, awarded_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING`,
		ub.UserID, ub.BadgeID, ub.AwardedAt.UTC())
	if err != nil {
		return false, errors.Wrap(err, "inserting user badge")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "inserting user badge")
}

func (repo *gamificationRepository) UserBadges(ctx context.Context, userID string) ([]gamification.UserBadge, error) {
	var rows []struct {
		UserID    string    `db:"user_id"`
		AwardedAt time.Time `db:"awarded_at"`
		badgeRow  `db:"badge"`
	}
	q := `
		SELECT ub.user_id, ub.awarded_at,
			b.id "badge.id", b.code "badge.code", b.name "badge.name", b.description "badge.description",
			b.icon "badge.icon", b.tier "badge.tier", b.criterion "badge.criterion", b.threshold "badge.threshold",
			b.xp_bonus "badge.xp_bonus", b.is_active "badge.is_active", b.created_at "badge.created_at"
		FROM user_badges ub JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.awarded_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "selecting user badges")
	}
	owned := make([]gamification.UserBadge, 0, len(rows))
	for _, r := range rows {
		b := r.badge()
		owned = append(owned, gamification.UserBadge{UserID: r.UserID, BadgeID: b.ID, AwardedAt: r.AwardedAt.UTC(), Badge: &b})
	}
	return owned, nil
}
