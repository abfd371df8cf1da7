package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/skillfolio/core/profile"
)

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db.profile}
}

// full assembles p with its sections. The caller holds the lock.
func (repo *profileRepository) full(p profile.Profile) profile.Profile {
	p.Experiences = make([]profile.Experience, 0)
	for _, e := range repo.db.experiences {
		if e.UserID == p.UserID {
			p.Experiences = append(p.Experiences, *e)
		}
	}
	sort.SliceStable(p.Experiences, func(i, j int) bool { return p.Experiences[i].Position < p.Experiences[j].Position })

	p.Educations = make([]profile.Education, 0)
	for _, e := range repo.db.educations {
		if e.UserID == p.UserID {
			p.Educations = append(p.Educations, *e)
		}
	}
	sort.SliceStable(p.Educations, func(i, j int) bool { return p.Educations[i].Position < p.Educations[j].Position })

	p.Skills = make([]profile.Skill, 0)
	for _, s := range repo.db.skills {
		if s.UserID == p.UserID {
			p.Skills = append(p.Skills, *s)
		}
	}
	sort.SliceStable(p.Skills, func(i, j int) bool { return p.Skills[i].Position < p.Skills[j].Position })
	return p
}

func (repo *profileRepository) GetProfile(_ context.Context, userID string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.profiles[userID]; ok {
		return repo.full(*p), nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) GetProfileBySlug(_ context.Context, slug string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.profiles {
		if p.Slug == slug {
			return repo.full(*p), nil
		}
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.slugTaken(slug, ""), nil
}

func (repo *profileRepository) slugTaken(slug, excludedUserID string) bool {
	for _, p := range repo.db.profiles {
		if p.Slug == slug && p.UserID != excludedUserID {
			return true
		}
	}
	return false
}

func (repo *profileRepository) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.slugTaken(p.Slug, p.UserID) {
		return profile.Profile{}, profile.ErrSlugExists
	}
	stored := p
	stored.Experiences, stored.Educations, stored.Skills = nil, nil, nil
	repo.db.profiles[p.UserID] = &stored
	return repo.full(stored), nil
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.profiles[p.UserID]; !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	if repo.slugTaken(p.Slug, p.UserID) {
		return profile.Profile{}, profile.ErrSlugExists
	}
	stored := p
	stored.Experiences, stored.Educations, stored.Skills = nil, nil, nil
	repo.db.profiles[p.UserID] = &stored
	return repo.full(stored), nil
}

func (repo *profileRepository) SaveExperience(_ context.Context, e profile.Experience) (profile.Experience, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.experiences[e.ID] = &e
	return e, nil
}

func (repo *profileRepository) DeleteExperience(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if e, ok := repo.db.experiences[id]; !ok || e.UserID != userID {
		return profile.ErrExperienceNotFound
	}
	delete(repo.db.experiences, id)
	return nil
}

func (repo *profileRepository) SaveEducation(_ context.Context, e profile.Education) (profile.Education, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.educations[e.ID] = &e
	return e, nil
}

func (repo *profileRepository) DeleteEducation(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if e, ok := repo.db.educations[id]; !ok || e.UserID != userID {
		return profile.ErrEducationNotFound
	}
	delete(repo.db.educations, id)
	return nil
}

func (repo *profileRepository) SaveSkill(_ context.Context, s profile.Skill) (profile.Skill, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.skills {
		if other.UserID == s.UserID && other.ID != s.ID && strings.EqualFold(other.Name, s.Name) {
			return profile.Skill{}, profile.ErrSkillExists
		}
	}
	repo.db.skills[s.ID] = &s
	return s, nil
}

func (repo *profileRepository) DeleteSkill(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s, ok := repo.db.skills[id]; !ok || s.UserID != userID {
		return profile.ErrSkillNotFound
	}
	delete(repo.db.skills, id)
	return nil
}

func (repo *profileRepository) SetPositions(_ context.Context, userID string, section profile.Section, ids []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for pos, id := range ids {
		switch section {
		case profile.SectionExperiences:
			if e, ok := repo.db.experiences[id]; ok && e.UserID == userID {
				e.Position = pos
			}
		case profile.SectionEducations:
			if e, ok := repo.db.educations[id]; ok && e.UserID == userID {
				e.Position = pos
			}
		case profile.SectionSkills:
			if s, ok := repo.db.skills[id]; ok && s.UserID == userID {
				s.Position = pos
			}
		}
	}
	return nil
}
