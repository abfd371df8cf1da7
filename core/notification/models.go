package notification

import "time"

type Kind string

const (
	KindBadgeAwarded    Kind = "badge_awarded"
	KindLevelUp         Kind = "level_up"
	KindCourseCompleted Kind = "course_completed"
	KindGoalCompleted   Kind = "goal_completed"
	KindThreadReply     Kind = "thread_reply"
)

type (
	Notification struct {
		ID        string     `json:"id"`
		UserID    string     `json:"user_id"`
		Kind      Kind       `json:"kind"`
		Title     string     `json:"title"`
		Body      string     `json:"body"`
		Link      string     `json:"link"` // frontend path
		ReadAt    *time.Time `json:"read_at"`
		CreatedAt time.Time  `json:"created_at"`
	}

	QueryFilter struct {
		UnreadOnly bool `query:"unread"`
		Limit      int  `query:"limit"`
	}
)

func (n Notification) Read() bool {
	return n.ReadAt != nil
}
