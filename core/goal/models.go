package goal

import (
	"time"
)

// Status of a Subtopic.
type Status string

const (
	StatusPending   Status = "pending"
	StatusStarted   Status = "start"
	StatusCompleted Status = "completed"
)

var Statuses = []Status{StatusPending, StatusStarted, StatusCompleted}

type (
	// Goal is the root of a user's progress hierarchy: Goal > Category > Topic > Subtopic.
	// All the counters are derived by Recount and never edited on their own.
	Goal struct {
		ID                 string     `json:"id"`
		UserID             string     `json:"user_id"`
		Title              string     `json:"title"`
		Description        string     `json:"description"`
		TargetDate         *time.Time `json:"target_date"`
		TotalCategories    int        `json:"total_categories"`
		TotalTopics        int        `json:"total_topics"`
		CompletedTopics    int        `json:"completed_topics"`
		TotalSubtopics     int        `json:"total_subtopics"`
		CompletedSubtopics int        `json:"completed_subtopics"`
		Progress           int        `json:"progress"` // percent
		CompletedAt        *time.Time `json:"completed_at"`
		CreatedAt          time.Time  `json:"created_at"`
		UpdatedAt          time.Time  `json:"updated_at"`
		Categories         []Category `json:"categories,omitempty"`
	}

	Category struct {
		ID                 string  `json:"id"`
		GoalID             string  `json:"goal_id"`
		Title              string  `json:"title"`
		Position           int     `json:"position"`
		TotalTopics        int     `json:"total_topics"`
		CompletedTopics    int     `json:"completed_topics"`
		TotalSubtopics     int     `json:"total_subtopics"`
		CompletedSubtopics int     `json:"completed_subtopics"`
		Topics             []Topic `json:"topics"`
	}

	Topic struct {
		ID                 string     `json:"id"`
		CategoryID         string     `json:"category_id"`
		Title              string     `json:"title"`
		Position           int        `json:"position"`
		TotalSubtopics     int        `json:"total_subtopics"`
		CompletedSubtopics int        `json:"completed_subtopics"`
		Subtopics          []Subtopic `json:"subtopics"`
	}

	Subtopic struct {
		ID          string     `json:"id"`
		TopicID     string     `json:"topic_id"`
		Title       string     `json:"title"`
		Notes       string     `json:"notes"`
		Status      Status     `json:"status"`
		Position    int        `json:"position"`
		StartedAt   *time.Time `json:"started_at"`
		CompletedAt *time.Time `json:"completed_at"`
	}

	// HistoryPoint is the goal's cumulative progress on a given UTC day.
	HistoryPoint struct {
		GoalID             string    `json:"-"`
		Day                time.Time `json:"day"`
		CompletedSubtopics int       `json:"completed_subtopics"`
		TotalSubtopics     int       `json:"total_subtopics"`
		Progress           int       `json:"progress"`
	}
)

// IsCompleted reports whether the topic has subtopics and all of them are completed.
func (t Topic) IsCompleted() bool {
	return t.TotalSubtopics > 0 && t.CompletedSubtopics == t.TotalSubtopics
}

// IsCompleted reports whether the goal has subtopics and all of them are completed.
func (g Goal) IsCompleted() bool {
	return g.TotalSubtopics > 0 && g.CompletedSubtopics == g.TotalSubtopics
}

// Summary returns a copy of g without its categories.
func (g Goal) Summary() Goal {
	g.Categories = nil
	return g
}
