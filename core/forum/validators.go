package forum

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/skillfolio/core"
)

var (
	resolutionTag  = "resolution"
	resolutionText = "status must be one of: resolved, dismissed"

	reportTargetTag  = "reporttarget"
	reportTargetText = "report either a thread or a post"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterOneOf(validate, translator, resolutionTag, resolutionText, string(ReportResolved), string(ReportDismissed))

	validate.RegisterStructValidation(reportStructValidation, NewReport{})
	core.RegisterCustomTranslation(validate, translator, reportTargetTag, reportTargetText)
}

func reportStructValidation(sl validator.StructLevel) {
	nr := sl.Current().Interface().(NewReport)
	if (nr.ThreadID == "") == (nr.PostID == "") {
		sl.ReportError(nr.ThreadID, "thread_id", "ThreadID", reportTargetTag, "")
	}
}

type (
	NewThread struct {
		Title string   `json:"title" validate:"required,notblank,max=200"`
		Body  string   `json:"body" validate:"required,notblank,max=20000"`
		Tags  []string `json:"tags" validate:"max=5,dive,notblank,max=30"`
	}

	UpdateThread struct {
		Title *string  `json:"title" validate:"omitempty,notblank,max=200"`
		Body  *string  `json:"body" validate:"omitempty,notblank,max=20000"`
		Tags  []string `json:"tags" validate:"omitempty,max=5,dive,notblank,max=30"`
	}

	// ModerateThread toggles the moderation flags of a thread.
	ModerateThread struct {
		IsPinned *bool `json:"is_pinned"`
		IsLocked *bool `json:"is_locked"`
		IsHidden *bool `json:"is_hidden"`
	}

	NewPost struct {
		Body string `json:"body" validate:"required,notblank,max=20000"`
	}

	HidePost struct {
		IsHidden bool `json:"is_hidden"`
	}

	NewReport struct {
		ThreadID string `json:"thread_id" validate:"omitempty,uuid"`
		PostID   string `json:"post_id" validate:"omitempty,uuid"`
		Reason   string `json:"reason" validate:"required,notblank,max=1000"`
	}

	ResolveReport struct {
		Status ReportStatus `json:"status" validate:"required,resolution"`
	}
)

// cleanTags lower-cases the tags, dropping blanks and duplicates.
func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = core.CleanString(tag, true)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		cleaned = append(cleaned, tag)
	}
	return cleaned
}

func (nt *NewThread) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Body = strings.TrimSpace(nt.Body)
	nt.Tags = cleanTags(nt.Tags)
	return validate.Struct(nt)
}

func (upd *UpdateThread) Validate(validate *validator.Validate) error {
	if upd.Title != nil {
		title := core.CleanString(*upd.Title)
		upd.Title = &title
	}
	if upd.Body != nil {
		body := strings.TrimSpace(*upd.Body)
		upd.Body = &body
	}
	if upd.Tags != nil {
		upd.Tags = cleanTags(upd.Tags)
	}
	return validate.Struct(upd)
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Body = strings.TrimSpace(np.Body)
	return validate.Struct(np)
}

func (nr *NewReport) Validate(validate *validator.Validate) error {
	nr.Reason = core.CleanString(nr.Reason)
	return validate.Struct(nr)
}

func (rr *ResolveReport) Validate(validate *validator.Validate) error { return validate.Struct(rr) }
