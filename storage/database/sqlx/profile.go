package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/skillfolio/core/profile"
)

const (
	profileColumns    = "user_id, slug, headline, bio, location, website, avatar_url, is_public, updated_at"
	experienceColumns = "id, user_id, company, title, location, start_date, end_date, is_current, description, position"
	educationColumns  = "id, user_id, school, degree, field, start_date, end_date, description, position"
	skillColumns      = "id, user_id, name, level, position"

	profileSlugKey = "profiles_slug_key"
	skillNameKey   = "profile_skills_user_name_uniq"
)

type (
	profileRow struct {
		UserID    string    `db:"user_id"`
		Slug      string    `db:"slug"`
		Headline  string    `db:"headline"`
		Bio       string    `db:"bio"`
		Location  string    `db:"location"`
		Website   string    `db:"website"`
		AvatarURL string    `db:"avatar_url"`
		IsPublic  bool      `db:"is_public"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	experienceRow struct {
		ID          string    `db:"id"`
		UserID      string    `db:"user_id"`
		Company     string    `db:"company"`
		Title       string    `db:"title"`
		Location    string    `db:"location"`
		StartDate   time.Time `db:"start_date"`
		EndDate     null.Time `db:"end_date"`
		IsCurrent   bool      `db:"is_current"`
		Description string    `db:"description"`
		Position    int       `db:"position"`
	}

	educationRow struct {
		ID          string    `db:"id"`
		UserID      string    `db:"user_id"`
		School      string    `db:"school"`
		Degree      string    `db:"degree"`
		Field       string    `db:"field"`
		StartDate   time.Time `db:"start_date"`
		EndDate     null.Time `db:"end_date"`
		Description string    `db:"description"`
		Position    int       `db:"position"`
	}
)

func (r profileRow) profile() profile.Profile {
	return profile.Profile{
		UserID:      r.UserID,
		Slug:        r.Slug,
		Headline:    r.Headline,
		Bio:         r.Bio,
		Location:    r.Location,
		Website:     r.Website,
		AvatarURL:   r.AvatarURL,
		IsPublic:    r.IsPublic,
		UpdatedAt:   r.UpdatedAt.UTC(),
		Experiences: []profile.Experience{},
		Educations:  []profile.Education{},
		Skills:      []profile.Skill{},
	}
}

func (r experienceRow) experience() profile.Experience {
	return profile.Experience{
		ID:          r.ID,
		UserID:      r.UserID,
		Company:     r.Company,
		Title:       r.Title,
		Location:    r.Location,
		StartDate:   r.StartDate.UTC(),
		EndDate:     utcPtr(r.EndDate),
		IsCurrent:   r.IsCurrent,
		Description: r.Description,
		Position:    r.Position,
	}
}

func (r educationRow) education() profile.Education {
	return profile.Education{
		ID:          r.ID,
		UserID:      r.UserID,
		School:      r.School,
		Degree:      r.Degree,
		Field:       r.Field,
		StartDate:   r.StartDate.UTC(),
		EndDate:     utcPtr(r.EndDate),
		Description: r.Description,
		Position:    r.Position,
	}
}

func utcPtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

// full loads the sections of p.
func (repo *profileRepository) full(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	var exps []experienceRow
	q := "SELECT " + experienceColumns + " FROM profile_experiences WHERE user_id = $1 ORDER BY position, start_date DESC"
	if err := repo.db.SelectContext(ctx, &exps, q, p.UserID); err != nil {
		return profile.Profile{}, errors.Wrap(err, "selecting experiences")
	}
	for _, r := range exps {
		p.Experiences = append(p.Experiences, r.experience())
	}

	var edus []educationRow
	q = "SELECT " + educationColumns + " FROM profile_educations WHERE user_id = $1 ORDER BY position, start_date DESC"
	if err := repo.db.SelectContext(ctx, &edus, q, p.UserID); err != nil {
		return profile.Profile{}, errors.Wrap(err, "selecting educations")
	}
	for _, r := range edus {
		p.Educations = append(p.Educations, r.education())
	}

	q = "SELECT " + skillColumns + " FROM profile_skills WHERE user_id = $1 ORDER BY position, name"
	rows, err := repo.db.QueryxContext(ctx, q, p.UserID)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "selecting skills")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var s profile.Skill
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Level, &s.Position); err != nil {
			return profile.Profile{}, errors.Wrap(err, "scanning skill")
		}
		p.Skills = append(p.Skills, s)
	}
	return p, errors.Wrap(rows.Err(), "iterating skills")
}

func (repo *profileRepository) get(ctx context.Context, where string, arg interface{}) (profile.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+profileColumns+" FROM profiles WHERE "+where, arg); err != nil {
		return profile.Profile{}, trapNoRows(err, profile.ErrNotFound, "selecting profile")
	}
	return repo.full(ctx, row.profile())
}

func (repo *profileRepository) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	return repo.get(ctx, "user_id = $1", userID)
}

func (repo *profileRepository) GetProfileBySlug(ctx context.Context, slug string) (profile.Profile, error) {
	return repo.get(ctx, "slug = $1", slug)
}

func (repo *profileRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM profiles WHERE slug = $1)", slug)
	return exists, errors.Wrap(err, "checking slug")
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.UserID, p.Slug, p.Headline, p.Bio, p.Location, p.Website, p.AvatarURL, p.IsPublic, p.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, profileSlugKey) {
			return profile.Profile{}, profile.ErrSlugExists
		}
		return profile.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return repo.GetProfile(ctx, p.UserID)
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE profiles SET slug = $2, headline = $3, bio = $4, location = $5, website = $6, avatar_url = $7,
			is_public = $8, updated_at = $9
		WHERE user_id = $1`,
		p.UserID, p.Slug, p.Headline, p.Bio, p.Location, p.Website, p.AvatarURL, p.IsPublic, p.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, profileSlugKey) {
			return profile.Profile{}, profile.ErrSlugExists
		}
		return profile.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return repo.GetProfile(ctx, p.UserID)
}

func (repo *profileRepository) SaveExperience(ctx context.Context, e profile.Experience) (profile.Experience, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO profile_experiences (`+experienceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET company = EXCLUDED.company, title = EXCLUDED.title, location = EXCLUDED.location,
			start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, is_current = EXCLUDED.is_current,
			description = EXCLUDED.description, position = EXCLUDED.position`,
		e.ID, e.UserID, e.Company, e.Title, e.Location, e.StartDate, null.TimeFromPtr(e.EndDate), e.IsCurrent, e.Description, e.Position)
	if err != nil {
		return profile.Experience{}, errors.Wrap(err, "saving experience")
	}
	return e, nil
}

func (repo *profileRepository) SaveEducation(ctx context.Context, e profile.Education) (profile.Education, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO profile_educations (`+educationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET school = EXCLUDED.school, degree = EXCLUDED.degree, field = EXCLUDED.field,
			start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, description = EXCLUDED.description,
			position = EXCLUDED.position`,
		e.ID, e.UserID, e.School, e.Degree, e.Field, e.StartDate, null.TimeFromPtr(e.EndDate), e.Description, e.Position)
	if err != nil {
		return profile.Education{}, errors.Wrap(err, "saving education")
	}
	return e, nil
}

func (repo *profileRepository) SaveSkill(ctx context.Context, s profile.Skill) (profile.Skill, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO profile_skills (`+skillColumns+`) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, level = EXCLUDED.level, position = EXCLUDED.position`,
		s.ID, s.UserID, s.Name, s.Level, s.Position)
	if err != nil {
		if isUniqueViolation(err, skillNameKey) {
			return profile.Skill{}, profile.ErrSkillExists
		}
		return profile.Skill{}, errors.Wrap(err, "saving skill")
	}
	return s, nil
}

func (repo *profileRepository) delete(ctx context.Context, table, userID, id string, notFound error) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound
	}
	return nil
}

func (repo *profileRepository) DeleteExperience(ctx context.Context, userID, id string) error {
	return repo.delete(ctx, "profile_experiences", userID, id, profile.ErrExperienceNotFound)
}

func (repo *profileRepository) DeleteEducation(ctx context.Context, userID, id string) error {
	return repo.delete(ctx, "profile_educations", userID, id, profile.ErrEducationNotFound)
}

func (repo *profileRepository) DeleteSkill(ctx context.Context, userID, id string) error {
	return repo.delete(ctx, "profile_skills", userID, id, profile.ErrSkillNotFound)
}

var sectionTables = map[profile.Section]string{
	profile.SectionExperiences: "profile_experiences",
	profile.SectionEducations:  "profile_educations",
	profile.SectionSkills:      "profile_skills",
}

func (repo *profileRepository) SetPositions(ctx context.Context, userID string, section profile.Section, ids []string) error {
	table, ok := sectionTables[section]
	if !ok {
		return errors.Errorf("unknown section %q", section)
	}
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		return setPositions(ctx, tx, table, "user_id", userID, ids)
	})
}
