package goal

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/skillfolio/core"
)

var (
	statusTag  = "subtopicstatus"
	statusText = "status must be one of: pending, start, completed"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	values := make([]string, 0, len(Statuses))
	for _, s := range Statuses {
		values = append(values, string(s))
	}
	core.RegisterOneOf(validate, translator, statusTag, statusText, values...)
}

type (
	// NewGoal may carry an initial tree: category > topic > subtopic titles.
	NewGoal struct {
		Title       string        `json:"title" validate:"required,notblank,max=200"`
		Description string        `json:"description" validate:"max=5000"`
		TargetDate  *time.Time    `json:"target_date"`
		Categories  []NewCategory `json:"categories" validate:"omitempty,dive"`
	}

	NewCategory struct {
		Title  string     `json:"title" validate:"required,notblank,max=200"`
		Topics []NewTopic `json:"topics" validate:"omitempty,dive"`
	}

	NewTopic struct {
		Title     string   `json:"title" validate:"required,notblank,max=200"`
		Subtopics []string `json:"subtopics" validate:"omitempty,dive,notblank,max=200"`
	}

	UpdateGoal struct {
		Title           *string    `json:"title" validate:"omitempty,notblank,max=200"`
		Description     *string    `json:"description" validate:"omitempty,max=5000"`
		TargetDate      *time.Time `json:"target_date"`
		ClearTargetDate bool       `json:"clear_target_date"`
	}

	// NewNode names a category or a topic.
	NewNode struct {
		Title string `json:"title" validate:"required,notblank,max=200"`
	}

	NewSubtopic struct {
		Title string `json:"title" validate:"required,notblank,max=200"`
		Notes string `json:"notes" validate:"max=5000"`
	}

	UpdateSubtopic struct {
		Title *string `json:"title" validate:"omitempty,notblank,max=200"`
		Notes *string `json:"notes" validate:"omitempty,max=5000"`
	}

	SetStatus struct {
		Status Status `json:"status" validate:"required,subtopicstatus"`
	}

	// Reorder lists every child ID in the wanted order.
	Reorder struct {
		IDs []string `json:"ids" validate:"required"`
	}
)

func (ng *NewGoal) Validate(validate *validator.Validate) error {
	ng.Title = core.CleanString(ng.Title)
	ng.Description = core.CleanString(ng.Description)
	for ci := range ng.Categories {
		c := &ng.Categories[ci]
		c.Title = core.CleanString(c.Title)
		for ti := range c.Topics {
			t := &c.Topics[ti]
			t.Title = core.CleanString(t.Title)
			for si := range t.Subtopics {
				t.Subtopics[si] = core.CleanString(t.Subtopics[si])
			}
		}
	}
	return validate.Struct(ng)
}

func (ug *UpdateGoal) Validate(validate *validator.Validate) error {
	if ug.Title != nil {
		title := core.CleanString(*ug.Title)
		ug.Title = &title
	}
	return validate.Struct(ug)
}

func (nn *NewNode) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	return validate.Struct(nn)
}

func (ns *NewSubtopic) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Notes = core.CleanString(ns.Notes)
	return validate.Struct(ns)
}

func (us *UpdateSubtopic) Validate(validate *validator.Validate) error {
	if us.Title != nil {
		title := core.CleanString(*us.Title)
		us.Title = &title
	}
	return validate.Struct(us)
}

func (ss *SetStatus) Validate(validate *validator.Validate) error { return validate.Struct(ss) }

func (ro *Reorder) Validate(validate *validator.Validate) error { return validate.Struct(ro) }
