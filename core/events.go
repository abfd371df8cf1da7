package core

import (
	"context"
	"time"
)

// Domain event types. The type is also the pub/sub topic.
const (
	EventLessonCompleted   = "course.lesson_completed"
	EventQuizPassed        = "course.quiz_passed"
	EventCourseCompleted   = "course.completed"
	EventSubtopicCompleted = "goal.subtopic_completed"
	EventGoalCompleted     = "goal.completed"
	EventThreadCreated     = "forum.thread_created"
	EventPostCreated       = "forum.post_created"
	EventBadgeAwarded      = "gamification.badge_awarded"
	EventLevelUp           = "gamification.level_up"
)

// Event is a fact that happened to a user, published after the change is persisted.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	UserID     string            `json:"user_id"`
	SubjectID  string            `json:"subject_id"`
	Value      int               `json:"value,omitempty"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEvent returns an Event of type typ, occurring now.
func NewEvent(typ, userID, subjectID string, value int, attrs map[string]string) Event {
	return Event{
		Type:       typ,
		UserID:     userID,
		SubjectID:  subjectID,
		Value:      value,
		Attrs:      attrs,
		OccurredAt: time.Now().UTC(),
	}
}

// Attr returns the attribute named key, or "".
func (e Event) Attr(key string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[key]
}

type (
	// EventHandler reacts to one event. Returned errors are retried by the bus.
	EventHandler func(ctx context.Context, evt Event) error

	EventPublisher interface {
		Publish(ctx context.Context, evts ...Event) error
	}

	EventSubscriber interface {
		// Subscribe registers h under a unique name for the given topic (event type).
		Subscribe(name, topic string, h EventHandler)
	}

	EventBus interface {
		EventPublisher
		EventSubscriber
	}
)
