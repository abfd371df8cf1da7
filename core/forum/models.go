package forum

import (
	"time"

	"github.com/trezcool/skillfolio/core"
)

type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

var ReportStatuses = []ReportStatus{ReportOpen, ReportResolved, ReportDismissed}

type (
	Thread struct {
		ID             string    `json:"id"`
		AuthorID       string    `json:"author_id"`
		Title          string    `json:"title"`
		Body           string    `json:"body"`
		Tags           []string  `json:"tags"`
		IsPinned       bool      `json:"is_pinned"`
		IsLocked       bool      `json:"is_locked"`
		IsHidden       bool      `json:"is_hidden"`
		ReplyCount     int       `json:"reply_count"` // visible posts only
		LastActivityAt time.Time `json:"last_activity_at"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
		Posts          []Post    `json:"posts,omitempty"`
	}

	Post struct {
		ID        string    `json:"id"`
		ThreadID  string    `json:"thread_id"`
		AuthorID  string    `json:"author_id"`
		Body      string    `json:"body"`
		IsHidden  bool      `json:"is_hidden"`
		IsEdited  bool      `json:"is_edited"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// Report targets either a thread or a post of a thread, never both.
	Report struct {
		ID         string       `json:"id"`
		ThreadID   string       `json:"thread_id,omitempty"`
		PostID     string       `json:"post_id,omitempty"`
		ReporterID string       `json:"reporter_id"`
		Reason     string       `json:"reason"`
		Status     ReportStatus `json:"status"`
		ResolvedBy string       `json:"resolved_by,omitempty"`
		ResolvedAt *time.Time   `json:"resolved_at"`
		CreatedAt  time.Time    `json:"created_at"`
	}

	QueryFilter struct {
		Search        string `query:"search"`
		Tag           string `query:"tag"`
		IncludeHidden bool   `query:"-"`
		core.Page
	}

	ReportFilter struct {
		Status ReportStatus `query:"status"`
		core.Page
	}
)

func (t Thread) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}
