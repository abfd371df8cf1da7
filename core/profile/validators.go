package profile

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/skillfolio/core"
)

var (
	endBeforeStartTag  = "endafterstart"
	endBeforeStartText = "end date cannot be before the start date"

	currentWithEndTag  = "currentnoend"
	currentWithEndText = "a current position has no end date"

	sectionTag  = "section"
	sectionText = "section must be one of: experiences, educations, skills"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(datesStructValidation, ExperienceInput{}, EducationInput{})
	core.RegisterCustomTranslation(validate, translator, endBeforeStartTag, endBeforeStartText)
	core.RegisterCustomTranslation(validate, translator, currentWithEndTag, currentWithEndText)
	core.RegisterOneOf(validate, translator, sectionTag, sectionText,
		string(SectionExperiences), string(SectionEducations), string(SectionSkills))
}

type (
	UpdateProfile struct {
		Slug      *string `json:"slug" validate:"omitempty,slug,max=60"`
		Headline  *string `json:"headline" validate:"omitempty,max=200"`
		Bio       *string `json:"bio" validate:"omitempty,max=5000"`
		Location  *string `json:"location" validate:"omitempty,max=200"`
		Website   *string `json:"website" validate:"omitempty,max=300"`
		AvatarURL *string `json:"avatar_url" validate:"omitempty,max=300"`
		IsPublic  *bool   `json:"is_public"`
	}

	ExperienceInput struct {
		Company     string     `json:"company" validate:"required,notblank,max=200"`
		Title       string     `json:"title" validate:"required,notblank,max=200"`
		Location    string     `json:"location" validate:"max=200"`
		StartDate   time.Time  `json:"start_date" validate:"required"`
		EndDate     *time.Time `json:"end_date"`
		IsCurrent   bool       `json:"is_current"`
		Description string     `json:"description" validate:"max=5000"`
	}

	EducationInput struct {
		School      string     `json:"school" validate:"required,notblank,max=200"`
		Degree      string     `json:"degree" validate:"max=200"`
		Field       string     `json:"field" validate:"max=200"`
		StartDate   time.Time  `json:"start_date" validate:"required"`
		EndDate     *time.Time `json:"end_date"`
		Description string     `json:"description" validate:"max=5000"`
	}

	SkillInput struct {
		Name  string `json:"name" validate:"required,notblank,max=100"`
		Level int    `json:"level" validate:"required,min=1,max=5"`
	}

	Reorder struct {
		Section Section  `json:"section" validate:"required,section"`
		IDs     []string `json:"ids" validate:"required"`
	}
)

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	for _, s := range []*string{up.Headline, up.Bio, up.Location, up.Website, up.AvatarURL} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if up.Slug != nil {
		*up.Slug = core.CleanString(*up.Slug, true /* lower */)
	}
	return validate.Struct(up)
}

func (in *ExperienceInput) Validate(validate *validator.Validate) error {
	in.Company = core.CleanString(in.Company)
	in.Title = core.CleanString(in.Title)
	in.Location = core.CleanString(in.Location)
	in.Description = core.CleanString(in.Description)
	return validate.Struct(in)
}

func (in *EducationInput) Validate(validate *validator.Validate) error {
	in.School = core.CleanString(in.School)
	in.Degree = core.CleanString(in.Degree)
	in.Field = core.CleanString(in.Field)
	in.Description = core.CleanString(in.Description)
	return validate.Struct(in)
}

func (in *SkillInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	return validate.Struct(in)
}

func (ro *Reorder) Validate(validate *validator.Validate) error { return validate.Struct(ro) }

func datesStructValidation(sl validator.StructLevel) {
	checkEnd := func(start time.Time, end *time.Time) {
		if end != nil && end.Before(start) {
			sl.ReportError(*end, "end_date", "EndDate", endBeforeStartTag, "")
		}
	}
	switch in := sl.Current().Interface().(type) {
	case ExperienceInput:
		if in.IsCurrent && in.EndDate != nil {
			sl.ReportError(*in.EndDate, "end_date", "EndDate", currentWithEndTag, "")
			return
		}
		checkEnd(in.StartDate, in.EndDate)
	case EducationInput:
		checkEnd(in.StartDate, in.EndDate)
	}
}
