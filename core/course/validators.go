package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/skillfolio/core"
)

var (
	levelTag  = "courselevel"
	levelText = "level must be one of: beginner, intermediate, advanced"

	correctOptionTag  = "correctoption"
	correctOptionText = "correct_option must be the index of one of the options"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	values := make([]string, 0, len(Levels))
	for _, lvl := range Levels {
		values = append(values, string(lvl))
	}
	core.RegisterOneOf(validate, translator, levelTag, levelText, values...)

	validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(validate, translator, correctOptionTag, correctOptionText)
}

type (
	NewCourse struct {
		Slug        string `json:"slug" validate:"omitempty,slug,max=100"`
		Title       string `json:"title" validate:"required,notblank,max=200"`
		Summary     string `json:"summary" validate:"max=500"`
		Description string `json:"description" validate:"max=20000"`
		Level       Level  `json:"level" validate:"omitempty,courselevel"`
		XPReward    *int   `json:"xp_reward" validate:"omitempty,min=0,max=10000"`
	}

	UpdateCourse struct {
		Slug        *string `json:"slug" validate:"omitempty,slug,max=100"`
		Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
		Summary     *string `json:"summary" validate:"omitempty,max=500"`
		Description *string `json:"description" validate:"omitempty,max=20000"`
		Level       *Level  `json:"level" validate:"omitempty,courselevel"`
		XPReward    *int    `json:"xp_reward" validate:"omitempty,min=0,max=10000"`
	}

	NewModule struct {
		Title   string `json:"title" validate:"required,notblank,max=200"`
		Summary string `json:"summary" validate:"max=2000"`
	}

	NewLesson struct {
		Title           string `json:"title" validate:"required,notblank,max=200"`
		Content         string `json:"content" validate:"max=100000"`
		VideoURL        string `json:"video_url" validate:"omitempty,url,max=500"`
		DurationMinutes int    `json:"duration_minutes" validate:"min=0,max=1440"`
		XPReward        *int   `json:"xp_reward" validate:"omitempty,min=0,max=1000"`
		PassingScore    *int   `json:"passing_score" validate:"omitempty,min=0,max=100"`
	}

	UpdateLesson struct {
		Title           *string `json:"title" validate:"omitempty,notblank,max=200"`
		Content         *string `json:"content" validate:"omitempty,max=100000"`
		VideoURL        *string `json:"video_url" validate:"omitempty,max=500"`
		DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=0,max=1440"`
		XPReward        *int    `json:"xp_reward" validate:"omitempty,min=0,max=1000"`
		PassingScore    *int    `json:"passing_score" validate:"omitempty,min=0,max=100"`
	}

	NewQuestion struct {
		Prompt        string   `json:"prompt" validate:"required,notblank,max=1000"`
		Options       []string `json:"options" validate:"required,min=2,max=10,dive,notblank,max=500"`
		CorrectOption int      `json:"correct_option" validate:"min=0"`
		Explanation   string   `json:"explanation" validate:"max=2000"`
	}

	// ReplaceQuestions is the full quiz of a lesson. An empty list removes the quiz.
	ReplaceQuestions struct {
		Questions []NewQuestion `json:"questions" validate:"max=50,dive"`
	}

	QuizAnswers struct {
		Answers []int `json:"answers" validate:"required,dive,min=0"`
	}

	Reorder struct {
		IDs []string `json:"ids" validate:"required"`
	}

	QueryFilter struct {
		Search        string `query:"search"`
		Level         Level  `query:"level"`
		PublishedOnly bool   `query:"-"`
		core.Page
	}
)

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Slug = core.CleanString(nc.Slug, true /* lower */)
	nc.Title = core.CleanString(nc.Title)
	nc.Summary = core.CleanString(nc.Summary)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	if uc.Slug != nil {
		*uc.Slug = core.CleanString(*uc.Slug, true /* lower */)
	}
	for _, s := range []*string{uc.Title, uc.Summary, uc.Description} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(uc)
}

func (nm *NewModule) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Summary = core.CleanString(nm.Summary)
	return validate.Struct(nm)
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.VideoURL = core.CleanString(nl.VideoURL)
	return validate.Struct(nl)
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	if ul.Title != nil {
		*ul.Title = core.CleanString(*ul.Title)
	}
	return validate.Struct(ul)
}

func (rq *ReplaceQuestions) Validate(validate *validator.Validate) error {
	for i := range rq.Questions {
		q := &rq.Questions[i]
		q.Prompt = core.CleanString(q.Prompt)
		q.Explanation = core.CleanString(q.Explanation)
		for oi := range q.Options {
			q.Options[oi] = core.CleanString(q.Options[oi])
		}
	}
	return validate.Struct(rq)
}

func (qa *QuizAnswers) Validate(validate *validator.Validate) error { return validate.Struct(qa) }

func (ro *Reorder) Validate(validate *validator.Validate) error { return validate.Struct(ro) }

func questionStructValidation(sl validator.StructLevel) {
	q := sl.Current().Interface().(NewQuestion)
	if q.CorrectOption >= len(q.Options) {
		sl.ReportError(q.CorrectOption, "correct_option", "CorrectOption", correctOptionTag, "")
	}
}
