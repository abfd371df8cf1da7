package profile

import (
	"time"
)

// Section names a sortable part of a profile.
type Section string

const (
	SectionExperiences Section = "experiences"
	SectionEducations  Section = "educations"
	SectionSkills      Section = "skills"
)

type (
	// Profile is the career profile of a user, 1:1 with the user.
	Profile struct {
		UserID      string       `json:"user_id"`
		Slug        string       `json:"slug"`
		Headline    string       `json:"headline"`
		Bio         string       `json:"bio"`
		Location    string       `json:"location"`
		Website     string       `json:"website"`
		AvatarURL   string       `json:"avatar_url"`
		IsPublic    bool         `json:"is_public"`
		UpdatedAt   time.Time    `json:"updated_at"`
		Experiences []Experience `json:"experiences"`
		Educations  []Education  `json:"educations"`
		Skills      []Skill      `json:"skills"`
	}

	Experience struct {
		ID          string     `json:"id"`
		UserID      string     `json:"-"`
		Company     string     `json:"company"`
		Title       string     `json:"title"`
		Location    string     `json:"location"`
		StartDate   time.Time  `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		IsCurrent   bool       `json:"is_current"`
		Description string     `json:"description"`
		Position    int        `json:"position"`
	}

	Education struct {
		ID          string     `json:"id"`
		UserID      string     `json:"-"`
		School      string     `json:"school"`
		Degree      string     `json:"degree"`
		Field       string     `json:"field"`
		StartDate   time.Time  `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		Description string     `json:"description"`
		Position    int        `json:"position"`
	}

	Skill struct {
		ID       string `json:"id"`
		UserID   string `json:"-"`
		Name     string `json:"name"`
		Level    int    `json:"level"` // 1 - 5
		Position int    `json:"position"`
	}
)

func (p Profile) experience(id string) (Experience, bool) {
	for _, e := range p.Experiences {
		if e.ID == id {
			return e, true
		}
	}
	return Experience{}, false
}

func (p Profile) education(id string) (Education, bool) {
	for _, e := range p.Educations {
		if e.ID == id {
			return e, true
		}
	}
	return Education{}, false
}

func (p Profile) skill(id string) (Skill, bool) {
	for _, s := range p.Skills {
		if s.ID == id {
			return s, true
		}
	}
	return Skill{}, false
}

// sectionIDs returns the IDs of the items of a section, in their current order.
func (p Profile) sectionIDs(section Section) []string {
	var ids []string
	switch section {
	case SectionExperiences:
		for _, e := range p.Experiences {
			ids = append(ids, e.ID)
		}
	case SectionEducations:
		for _, e := range p.Educations {
			ids = append(ids, e.ID)
		}
	case SectionSkills:
		for _, s := range p.Skills {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
