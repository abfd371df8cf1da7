package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/user"
)

var (
	ErrNotFound           = core.NewNotFoundError("profile")
	ErrExperienceNotFound = core.NewNotFoundError("experience")
	ErrEducationNotFound  = core.NewNotFoundError("education")
	ErrSkillNotFound      = core.NewNotFoundError("skill")

	ErrSlugExists  = errors.New("this slug is already taken")
	ErrSkillExists = errors.New("this skill is already listed")
)

type (
	Repository interface {
		// GetProfile returns the profile of a user with all its sections, each sorted by position.
		GetProfile(ctx context.Context, userID string) (Profile, error)
		GetProfileBySlug(ctx context.Context, slug string) (Profile, error)
		SlugExists(ctx context.Context, slug string) (bool, error)
		// CreateProfile and UpdateProfile save the profile fields only, never the sections.
		// Both return ErrSlugExists on slug conflict.
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)

		// Save* insert or update a section item by ID.
		SaveExperience(ctx context.Context, e Experience) (Experience, error)
		DeleteExperience(ctx context.Context, userID, id string) error
		SaveEducation(ctx context.Context, e Education) (Education, error)
		DeleteEducation(ctx context.Context, userID, id string) error
		// SaveSkill returns ErrSkillExists when the user already has a skill with the same name (case-insensitive).
		SaveSkill(ctx context.Context, s Skill) (Skill, error)
		DeleteSkill(ctx context.Context, userID, id string) error

		// SetPositions sets the position of each item of a section to its index in ids.
		SetPositions(ctx context.Context, userID string, section Section, ids []string) error
	}

	Service interface {
		// GetMyProfile returns the user's profile, creating it on first access.
		GetMyProfile(ctx context.Context, usr user.User) (Profile, error)
		UpdateProfile(ctx context.Context, usr user.User, up UpdateProfile) (Profile, error)

		AddExperience(ctx context.Context, usr user.User, in ExperienceInput) (Experience, error)
		UpdateExperience(ctx context.Context, usr user.User, id string, in ExperienceInput) (Experience, error)
		DeleteExperience(ctx context.Context, usr user.User, id string) error

		AddEducation(ctx context.Context, usr user.User, in EducationInput) (Education, error)
		UpdateEducation(ctx context.Context, usr user.User, id string, in EducationInput) (Education, error)
		DeleteEducation(ctx context.Context, usr user.User, id string) error

		AddSkill(ctx context.Context, usr user.User, in SkillInput) (Skill, error)
		UpdateSkill(ctx context.Context, usr user.User, id string, in SkillInput) (Skill, error)
		DeleteSkill(ctx context.Context, usr user.User, id string) error

		Reorder(ctx context.Context, usr user.User, ro Reorder) (Profile, error)

		// GetPortfolio returns a profile by slug. Private profiles are only visible to their owner.
		GetPortfolio(ctx context.Context, viewerID, slug string) (Profile, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) GetMyProfile(ctx context.Context, usr user.User) (Profile, error) {
	p, err := svc.repo.GetProfile(ctx, usr.ID)
	if err == nil {
		return p, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Profile{}, errors.Wrap(err, "getting profile")
	}

	slug, err := svc.availableSlug(ctx, usr)
	if err != nil {
		return Profile{}, err
	}
	p, err = svc.repo.CreateProfile(ctx, Profile{
		UserID:      usr.ID,
		Slug:        slug,
		UpdatedAt:   time.Now().UTC(),
		Experiences: []Experience{},
		Educations:  []Education{},
		Skills:      []Skill{},
	})
	if err != nil {
		return Profile{}, errors.Wrap(err, "creating profile")
	}
	return p, nil
}

// availableSlug derives a free slug from the username.
func (svc *service) availableSlug(ctx context.Context, usr user.User) (string, error) {
	base := core.Slugify(usr.Username)
	if base == "" {
		base = "user-" + strings.ReplaceAll(usr.ID, "-", "")[:8]
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := svc.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", errors.Wrap(err, "checking slug")
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (svc *service) UpdateProfile(ctx context.Context, usr user.User, up UpdateProfile) (Profile, error) {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return Profile{}, err
	}
	if up.Slug != nil && *up.Slug != p.Slug {
		p.Slug = *up.Slug
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Headline, up.Headline)
	set(&p.Bio, up.Bio)
	set(&p.Location, up.Location)
	set(&p.Website, up.Website)
	set(&p.AvatarURL, up.AvatarURL)
	if up.IsPublic != nil {
		p.IsPublic = *up.IsPublic
	}
	p.UpdatedAt = time.Now().UTC()

	if _, err := svc.repo.UpdateProfile(ctx, p); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return Profile{}, core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return Profile{}, errors.Wrap(err, "updating profile")
	}
	return svc.repo.GetProfile(ctx, usr.ID)
}

// Experiences

func (svc *service) AddExperience(ctx context.Context, usr user.User, in ExperienceInput) (Experience, error) {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return Experience{}, err
	}
	e := Experience{ID: uuid.New().String(), UserID: usr.ID, Position: len(p.Experiences)}
	in.apply(&e)
	return svc.repo.SaveExperience(ctx, e)
}

func (svc *service) UpdateExperience(ctx context.Context, usr user.User, id string, in ExperienceInput) (Experience, error) {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return Experience{}, err
	}
	e, ok := p.experience(id)
	if !ok {
		return Experience{}, ErrExperienceNotFound
	}
	in.apply(&e)
	return svc.repo.SaveExperience(ctx, e)
}

func (svc *service) DeleteExperience(ctx context.Context, usr user.User, id string) error {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return err
	}
	if _, ok := p.experience(id); !ok {
		return ErrExperienceNotFound
	}
	if err := svc.repo.DeleteExperience(ctx, usr.ID, id); err != nil {
		return errors.Wrap(err, "deleting experience")
	}
	return svc.compact(ctx, usr.ID, SectionExperiences, p.sectionIDs(SectionExperiences), id)
}

func (in ExperienceInput) apply(e *Experience) {
	e.Company = in.Company
	e.Title = in.Title
	e.Location = in.Location
	e.StartDate = in.StartDate.UTC()
	e.EndDate = nil
	if in.EndDate != nil && !in.IsCurrent {
		end := in.EndDate.UTC()
		e.EndDate = &end
	}
	e.IsCurrent = in.IsCurrent
	e.Description = in.Description
}

// Educations

func (svc *service) AddEducation(ctx context.Context, usr user.User, in EducationInput) (Education, error) {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return Education{}, err
	}
	e := Education{ID: uuid.New().String(), UserID: usr.ID, Position: len(p.Educations)}
	in.apply(&e)
	return svc.repo.SaveEducation(ctx, e)
}

func (svc *service) UpdateEducation(ctx context.Context, usr user.User, id string, in EducationInput) (Education, error) {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return Education{}, err
	}
	e, ok := p.education(id)
	if !ok {
		return Education{}, ErrEducationNotFound
	}
	in.apply(&e)
	return svc.repo.SaveEducation(ctx, e)
}

func (svc *service) DeleteEducation(ctx context.Context, usr user.User, id string) error {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return err
	}
	if _, ok := p.education(id); !ok {
		return ErrEducationNotFound
	}
	if err := svc.repo.DeleteEducation(ctx, usr.ID, id); err != nil {
		return errors.Wrap(err, "deleting education")
	}
	return svc.compact(ctx, usr.ID, SectionEducations, p.sectionIDs(SectionEducations), id)
}

func (in EducationInput) apply(e *Education) {
	e.School = in.School
	e.Degree = in.Degree
	e.Field = in.Field
	e.StartDate = in.StartDate.UTC()
	e.EndDate = nil
	if in.EndDate != nil {
		end := in.EndDate.UTC()
		e.EndDate = &end
	}
	e.Description = in.Description
}

// Skills

func (svc *service) AddSkill(ctx context.Context, usr user.User, in SkillInput) (Skill, error) {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return Skill{}, err
	}
	s := Skill{ID: uuid.New().String(), UserID: usr.ID, Name: in.Name, Level: in.Level, Position: len(p.Skills)}
	return svc.saveSkill(ctx, p, s)
}

func (svc *service) UpdateSkill(ctx context.Context, usr user.User, id string, in SkillInput) (Skill, error) {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return Skill{}, err
	}
	s, ok := p.skill(id)
	if !ok {
		return Skill{}, ErrSkillNotFound
	}
	s.Name, s.Level = in.Name, in.Level
	return svc.saveSkill(ctx, p, s)
}

func (svc *service) saveSkill(ctx context.Context, p Profile, s Skill) (Skill, error) {
	skillExists := core.NewValidationError(ErrSkillExists, core.FieldError{Field: "name", Error: ErrSkillExists.Error()})
	for _, other := range p.Skills {
		if other.ID != s.ID && strings.EqualFold(other.Name, s.Name) {
			return Skill{}, skillExists
		}
	}
	s, err := svc.repo.SaveSkill(ctx, s)
	if errors.Cause(err) == ErrSkillExists {
		return Skill{}, skillExists
	}
	return s, err
}

func (svc *service) DeleteSkill(ctx context.Context, usr user.User, id string) error {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return err
	}
	if _, ok := p.skill(id); !ok {
		return ErrSkillNotFound
	}
	if err := svc.repo.DeleteSkill(ctx, usr.ID, id); err != nil {
		return errors.Wrap(err, "deleting skill")
	}
	return svc.compact(ctx, usr.ID, SectionSkills, p.sectionIDs(SectionSkills), id)
}

// compact renumbers the positions of a section after the removal of one item.
func (svc *service) compact(ctx context.Context, userID string, section Section, ids []string, removed string) error {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != removed {
			kept = append(kept, id)
		}
	}
	return errors.Wrap(svc.repo.SetPositions(ctx, userID, section, kept), "renumbering positions")
}

func (svc *service) Reorder(ctx context.Context, usr user.User, ro Reorder) (Profile, error) {
	p, err := svc.GetMyProfile(ctx, usr)
	if err != nil {
		return Profile{}, err
	}
	if err := core.CheckPermutation(p.sectionIDs(ro.Section), ro.IDs); err != nil {
		return Profile{}, err
	}
	if err := svc.repo.SetPositions(ctx, usr.ID, ro.Section, ro.IDs); err != nil {
		return Profile{}, errors.Wrap(err, "reordering")
	}
	return svc.repo.GetProfile(ctx, usr.ID)
}

func (svc *service) GetPortfolio(ctx context.Context, viewerID, slug string) (Profile, error) {
	p, err := svc.repo.GetProfileBySlug(ctx, core.CleanString(slug, true /* lower */))
	if err != nil {
		return Profile{}, err
	}
	if !p.IsPublic && p.UserID != viewerID {
		return Profile{}, ErrNotFound
	}
	return p, nil
}
