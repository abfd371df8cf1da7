package gamification

import (
	"time"
)

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

var Tiers = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}

// Reason of an XP ledger entry. A badge criterion is either CriterionXPTotal or a Reason,
// counting the user's entries with that reason.
type Reason string

const (
	ReasonLessonCompleted   Reason = "lesson_completed"
	ReasonQuizPassed        Reason = "quiz_passed"
	ReasonQuizPerfect       Reason = "quiz_perfect"
	ReasonCourseCompleted   Reason = "course_completed"
	ReasonSubtopicCompleted Reason = "subtopic_completed"
	ReasonGoalCompleted     Reason = "goal_completed"
	ReasonForumThread       Reason = "forum_thread"
	ReasonForumPost         Reason = "forum_post"
	ReasonBadge             Reason = "badge"
)

const CriterionXPTotal = "xp_total"

var Criteria = []string{
	CriterionXPTotal,
	string(ReasonLessonCompleted),
	string(ReasonQuizPassed),
	string(ReasonQuizPerfect),
	string(ReasonCourseCompleted),
	string(ReasonSubtopicCompleted),
	string(ReasonGoalCompleted),
	string(ReasonForumThread),
	string(ReasonForumPost),
}

// Fixed XP amounts. Lessons and courses carry their own reward.
const (
	XPQuizPerfect       = 5
	XPSubtopicCompleted = 5
	XPGoalCompleted     = 50
	XPForumThread       = 5
	XPForumPost         = 2
)

type (
	// XPEntry is a line of the XP ledger. (UserID, Reason, SourceID) is unique.
	XPEntry struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		Amount    int       `json:"amount"`
		Reason    Reason    `json:"reason"`
		SourceID  string    `json:"source_id"`
		CreatedAt time.Time `json:"created_at"`
	}

	Badge struct {
		ID          string    `json:"id"`
		Code        string    `json:"code"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Icon        string    `json:"icon"`
		Tier        Tier      `json:"tier"`
		Criterion   string    `json:"criterion"`
		Threshold   int       `json:"threshold"`
		XPBonus     int       `json:"xp_bonus"`
		IsActive    bool      `json:"is_active"`
		CreatedAt   time.Time `json:"created_at"`
	}

	UserBadge struct {
		UserID    string    `json:"user_id"`
		BadgeID   string    `json:"badge_id"`
		AwardedAt time.Time `json:"awarded_at"`
		Badge     *Badge    `json:"badge,omitempty"`
	}

	BadgeStatus struct {
		Badge
		Earned    bool       `json:"earned"`
		AwardedAt *time.Time `json:"awarded_at"`
	}

	Summary struct {
		UserID        string `json:"user_id"`
		XP            int    `json:"xp"`
		Level         int    `json:"level"`
		LevelXP       int    `json:"level_xp"`         // XP earned into the current level
		XPToNextLevel int    `json:"xp_to_next_level"` // XP missing to reach the next level
		BadgeCount    int    `json:"badge_count"`
	}

	LeaderboardEntry struct {
		Rank     int    `json:"rank"`
		UserID   string `json:"user_id"`
		Name     string `json:"name"`
		Username string `json:"username"`
		XP       int    `json:"xp"`
		Level    int    `json:"level"`
	}
)

// XPForLevel returns the cumulative XP needed to reach level: 50 * level * (level - 1).
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return 50 * level * (level - 1)
}

// LevelFor returns the level reached with xp.
func LevelFor(xp int) int {
	level := 1
	for XPForLevel(level+1) <= xp {
		level++
	}
	return level
}

func newSummary(userID string, xp, badges int) Summary {
	level := LevelFor(xp)
	return Summary{
		UserID:        userID,
		XP:            xp,
		Level:         level,
		LevelXP:       xp - XPForLevel(level),
		XPToNextLevel: XPForLevel(level+1) - xp,
		BadgeCount:    badges,
	}
}

// met reports whether a user with the given XP total and entry counts meets the badge criterion.
func (b Badge) met(xp int, counts map[Reason]int) bool {
	if b.Criterion == CriterionXPTotal {
		return xp >= b.Threshold
	}
	return counts[Reason(b.Criterion)] >= b.Threshold
}
