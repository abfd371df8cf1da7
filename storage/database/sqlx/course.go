package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/skillfolio/core/course"
)

const (
	courseColumns     = "id, slug, title, summary, description, level, xp_reward, is_published, created_by, created_at, updated_at"
	moduleColumns     = "id, course_id, title, summary, position"
	lessonColumns     = "id, module_id, title, content, video_url, duration_minutes, xp_reward, passing_score, position"
	questionColumns   = "id, lesson_id, prompt, options, correct_option, explanation, position"
	enrollmentColumns = "id, user_id, course_id, progress, enrolled_at, completed_at"

	courseSlugKey = "courses_slug_key"
)

type (
	courseRow struct {
		ID          string      `db:"id"`
		Slug        string      `db:"slug"`
		Title       string      `db:"title"`
		Summary     string      `db:"summary"`
		Description string      `db:"description"`
		Level       string      `db:"level"`
		XPReward    int         `db:"xp_reward"`
		IsPublished bool        `db:"is_published"`
		CreatedBy   null.String `db:"created_by"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}

	lessonRow struct {
		ID              string `db:"id"`
		ModuleID        string `db:"module_id"`
		CourseID        string `db:"course_id"`
		Title           string `db:"title"`
		Content         string `db:"content"`
		VideoURL        string `db:"video_url"`
		DurationMinutes int    `db:"duration_minutes"`
		XPReward        int    `db:"xp_reward"`
		PassingScore    int    `db:"passing_score"`
		Position        int    `db:"position"`
		QuestionCount   int    `db:"question_count"`
	}

	questionRow struct {
		ID            string         `db:"id"`
		LessonID      string         `db:"lesson_id"`
		Prompt        string         `db:"prompt"`
		Options       pq.StringArray `db:"options"`
		CorrectOption int            `db:"correct_option"`
		Explanation   string         `db:"explanation"`
		Position      int            `db:"position"`
	}

	enrollmentRow struct {
		ID          string    `db:"id"`
		UserID      string    `db:"user_id"`
		CourseID    string    `db:"course_id"`
		Progress    int       `db:"progress"`
		EnrolledAt  time.Time `db:"enrolled_at"`
		CompletedAt null.Time `db:"completed_at"`
	}
)

func toCourseRow(c course.Course) courseRow {
	return courseRow{
		ID:          c.ID,
		Slug:        c.Slug,
		Title:       c.Title,
		Summary:     c.Summary,
		Description: c.Description,
		Level:       string(c.Level),
		XPReward:    c.XPReward,
		IsPublished: c.IsPublished,
		CreatedBy:   null.NewString(c.CreatedBy, c.CreatedBy != ""),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Summary:     r.Summary,
		Description: r.Description,
		Level:       course.Level(r.Level),
		XPReward:    r.XPReward,
		IsPublished: r.IsPublished,
		CreatedBy:   r.CreatedBy.String,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r lessonRow) lesson() course.Lesson {
	return course.Lesson{
		ID:              r.ID,
		ModuleID:        r.ModuleID,
		CourseID:        r.CourseID,
		Title:           r.Title,
		Content:         r.Content,
		VideoURL:        r.VideoURL,
		DurationMinutes: r.DurationMinutes,
		XPReward:        r.XPReward,
		PassingScore:    r.PassingScore,
		Position:        r.Position,
		QuestionCount:   r.QuestionCount,
	}
}

func (r questionRow) question() course.Question {
	return course.Question{
		ID:            r.ID,
		LessonID:      r.LessonID,
		Prompt:        r.Prompt,
		Options:       []string(r.Options),
		CorrectOption: r.CorrectOption,
		Explanation:   r.Explanation,
		Position:      r.Position,
	}
}

func (r enrollmentRow) enrollment() course.Enrollment {
	return course.Enrollment{
		ID:          r.ID,
		UserID:      r.UserID,
		CourseID:    r.CourseID,
		Progress:    r.Progress,
		EnrolledAt:  r.EnrolledAt.UTC(),
		CompletedAt: utcPtr(r.CompletedAt),
	}
}

// lessonSelect selects lessons with their course and question count.
const lessonSelect = `
	SELECT l.id, l.module_id, m.course_id, l.title, l.content, l.video_url, l.duration_minutes, l.xp_reward,
		l.passing_score, l.position, (SELECT COUNT(*) FROM quiz_questions q WHERE q.lesson_id = l.id) AS question_count
	FROM lessons l JOIN course_modules m ON m.id = l.module_id`

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

// Catalog

func (repo *courseRepository) CheckSlug(ctx context.Context, slug, excludedID string) error {
	var exists bool
	q := "SELECT EXISTS (SELECT 1 FROM courses WHERE slug = $1 AND id::text <> $2)"
	if err := repo.db.GetContext(ctx, &exists, q, slug, excludedID); err != nil {
		return errors.Wrap(err, "checking course slug")
	}
	if exists {
		return course.ErrSlugExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO courses (`+courseColumns+`)
		VALUES (:id, :slug, :title, :summary, :description, :level, :xp_reward, :is_published, :created_by, :created_at, :updated_at)`,
		toCourseRow(c))
	if err != nil {
		if isUniqueViolation(err, courseSlugKey) {
			return course.Course{}, course.ErrSlugExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, course.GetFilter{ID: c.ID})
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE courses SET slug = :slug, title = :title, summary = :summary, description = :description, level = :level,
			xp_reward = :xp_reward, is_published = :is_published, updated_at = :updated_at
		WHERE id = :id`,
		toCourseRow(c))
	if err != nil {
		if isUniqueViolation(err, courseSlugKey) {
			return course.Course{}, course.ErrSlugExists
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourse(ctx, course.GetFilter{ID: c.ID})
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	return errors.Wrap(err, "deleting course")
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	var c conds
	if filter.PublishedOnly {
		c.add("is_published")
	}
	if filter.Level != "" {
		c.add("level = ?", string(filter.Level))
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		c.add("(title ILIKE ? OR summary ILIKE ?)", val, val)
	}
	q := "SELECT " + courseColumns + " FROM courses" + c.String() + " ORDER BY created_at DESC"
	args := c.args
	if filter.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	var row courseRow
	var err error
	switch {
	case filter.ID != "":
		err = repo.db.GetContext(ctx, &row, "SELECT "+courseColumns+" FROM courses WHERE id = $1", filter.ID)
	case filter.Slug != "":
		err = repo.db.GetContext(ctx, &row, "SELECT "+courseColumns+" FROM courses WHERE slug = $1", filter.Slug)
	default:
		return course.Course{}, course.ErrNotFound
	}
	if err != nil {
		return course.Course{}, trapNoRows(err, course.ErrNotFound, "selecting course")
	}
	c := row.course()

	var modules []course.Module
	q := "SELECT " + moduleColumns + " FROM course_modules WHERE course_id = $1 ORDER BY position"
	rows, err := repo.db.QueryxContext(ctx, q, c.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "selecting modules")
	}
	for rows.Next() {
		m := course.Module{Lessons: []course.Lesson{}}
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Summary, &m.Position); err != nil {
			_ = rows.Close()
			return course.Course{}, errors.Wrap(err, "scanning module")
		}
		modules = append(modules, m)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "iterating modules")
	}

	var lessons []lessonRow
	if err := repo.db.SelectContext(ctx, &lessons, lessonSelect+" WHERE m.course_id = $1 ORDER BY l.position", c.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "selecting lessons")
	}
	byModule := make(map[string][]course.Lesson)
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l.lesson())
	}
	c.Modules = make([]course.Module, 0, len(modules))
	for _, m := range modules {
		if ls, ok := byModule[m.ID]; ok {
			m.Lessons = ls
		}
		c.Modules = append(c.Modules, m)
	}
	return c, nil
}

func (repo *courseRepository) CreateModule(ctx context.Context, m course.Module) (course.Module, error) {
	_, err := repo.db.ExecContext(ctx, "INSERT INTO course_modules ("+moduleColumns+") VALUES ($1, $2, $3, $4, $5)",
		m.ID, m.CourseID, m.Title, m.Summary, m.Position)
	if err != nil {
		return course.Module{}, errors.Wrap(err, "inserting module")
	}
	return repo.GetModule(ctx, m.ID)
}

func (repo *courseRepository) UpdateModule(ctx context.Context, m course.Module) (course.Module, error) {
	res, err := repo.db.ExecContext(ctx, "UPDATE course_modules SET title = $2, summary = $3, position = $4 WHERE id = $1",
		m.ID, m.Title, m.Summary, m.Position)
	if err != nil {
		return course.Module{}, errors.Wrap(err, "updating module")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Module{}, course.ErrModuleNotFound
	}
	return repo.GetModule(ctx, m.ID)
}

func (repo *courseRepository) DeleteModule(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM course_modules WHERE id = $1", id)
	return errors.Wrap(err, "deleting module")
}

func (repo *courseRepository) GetModule(ctx context.Context, id string) (course.Module, error) {
	m := course.Module{Lessons: []course.Lesson{}}
	err := repo.db.QueryRowxContext(ctx, "SELECT "+moduleColumns+" FROM course_modules WHERE id = $1", id).
		Scan(&m.ID, &m.CourseID, &m.Title, &m.Summary, &m.Position)
	if err != nil {
		return course.Module{}, trapNoRows(err, course.ErrModuleNotFound, "selecting module")
	}
	var lessons []lessonRow
	if err := repo.db.SelectContext(ctx, &lessons, lessonSelect+" WHERE l.module_id = $1 ORDER BY l.position", id); err != nil {
		return course.Module{}, errors.Wrap(err, "selecting lessons")
	}
	for _, l := range lessons {
		m.Lessons = append(m.Lessons, l.lesson())
	}
	return m, nil
}

func (repo *courseRepository) SetModulePositions(ctx context.Context, courseID string, ids []string) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		return setPositions(ctx, tx, "course_modules", "course_id", courseID, ids)
	})
}

func (repo *courseRepository) CreateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO lessons (`+lessonColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.ModuleID, l.Title, l.Content, l.VideoURL, l.DurationMinutes, l.XPReward, l.PassingScore, l.Position)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return repo.getLesson(ctx, l.ID)
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE lessons SET title = $2, content = $3, video_url = $4, duration_minutes = $5, xp_reward = $6,
			passing_score = $7, position = $8
		WHERE id = $1`,
		l.ID, l.Title, l.Content, l.VideoURL, l.DurationMinutes, l.XPReward, l.PassingScore, l.Position)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	return repo.getLesson(ctx, l.ID)
}

func (repo *courseRepository) DeleteLesson(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM lessons WHERE id = $1", id)
	return errors.Wrap(err, "deleting lesson")
}

func (repo *courseRepository) getLesson(ctx context.Context, id string) (course.Lesson, error) {
	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, lessonSelect+" WHERE l.id = $1", id); err != nil {
		return course.Lesson{}, trapNoRows(err, course.ErrLessonNotFound, "selecting lesson")
	}
	return row.lesson(), nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (course.Lesson, error) {
	l, err := repo.getLesson(ctx, id)
	if err != nil {
		return course.Lesson{}, err
	}
	var rows []questionRow
	q := "SELECT " + questionColumns + " FROM quiz_questions WHERE lesson_id = $1 ORDER BY position"
	if err := repo.db.SelectContext(ctx, &rows, q, id); err != nil {
		return course.Lesson{}, errors.Wrap(err, "selecting questions")
	}
	l.Questions = make([]course.Question, 0, len(rows))
	for _, r := range rows {
		l.Questions = append(l.Questions, r.question())
	}
	return l, nil
}

func (repo *courseRepository) SetLessonPositions(ctx context.Context, moduleID string, ids []string) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		return setPositions(ctx, tx, "lessons", "module_id", moduleID, ids)
	})
}

func (repo *courseRepository) ReplaceQuestions(ctx context.Context, lessonID string, qs []course.Question) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1 FOR UPDATE)", lessonID); err != nil {
			return errors.Wrap(err, "locking lesson")
		}
		if !exists {
			return course.ErrLessonNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM quiz_questions WHERE lesson_id = $1", lessonID); err != nil {
			return errors.Wrap(err, "deleting questions")
		}
		for _, qn := range qs {
			if _, err := tx.ExecContext(ctx, "INSERT INTO quiz_questions ("+questionColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
				qn.ID, lessonID, qn.Prompt, pq.StringArray(qn.Options), qn.CorrectOption, qn.Explanation, qn.Position); err != nil {
				return errors.Wrap(err, "inserting question")
			}
		}
		return nil
	})
}

// Learning

func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO enrollments (`+enrollmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, course_id) DO NOTHING`,
		e.ID, e.UserID, e.CourseID, e.Progress, e.EnrolledAt.UTC(), null.TimeFromPtr(e.CompletedAt))
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return repo.GetEnrollment(ctx, e.UserID, e.CourseID)
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, userID, courseID string) (course.Enrollment, error) {
	var row enrollmentRow
	q := "SELECT " + enrollmentColumns + " FROM enrollments WHERE user_id = $1 AND course_id = $2"
	if err := repo.db.GetContext(ctx, &row, q, userID, courseID); err != nil {
		return course.Enrollment{}, trapNoRows(err, course.ErrNotEnrolled, "selecting enrollment")
	}
	return row.enrollment(), nil
}

func (repo *courseRepository) ListEnrollments(ctx context.Context, userID string, completedOnly bool) ([]course.Enrollment, error) {
	type joined struct {
		enrollmentRow
		courseRow `db:"course"`
	}
	q := `
		SELECT e.id, e.user_id, e.course_id, e.progress, e.enrolled_at, e.completed_at,
			c.id "course.id", c.slug "course.slug", c.title "course.title", c.summary "course.summary",
			c.description "course.description", c.level "course.level", c.xp_reward "course.xp_reward",
			c.is_published "course.is_published", c.created_by "course.created_by",
			c.created_at "course.created_at", c.updated_at "course.updated_at"
		FROM enrollments e JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1`
	if completedOnly {
		q += " AND e.completed_at IS NOT NULL"
	}
	q += " ORDER BY e.enrolled_at DESC"

	var rows []joined
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		e := r.enrollment()
		c := r.course()
		e.Course = &c
		enrollments = append(enrollments, e)
	}
	return enrollments, nil
}

func (repo *courseRepository) SetProgress(ctx context.Context, enrollmentID string, progress int) error {
	res, err := repo.db.ExecContext(ctx, "UPDATE enrollments SET progress = $2 WHERE id = $1", enrollmentID, progress)
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrNotEnrolled
	}
	return nil
}

func (repo *courseRepository) MarkCompleted(ctx context.Context, enrollmentID string, at time.Time) (bool, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE enrollments SET completed_at = $2 WHERE id = $1 AND completed_at IS NULL", enrollmentID, at.UTC())
	if err != nil {
		return false, errors.Wrap(err, "marking enrollment completed")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "marking enrollment completed")
}

func (repo *courseRepository) Completions(ctx context.Context, enrollmentID string) ([]course.LessonCompletion, error) {
	rows, err := repo.db.QueryxContext(ctx, `
		SELECT enrollment_id, lesson_id, quiz_score, completed_at FROM lesson_completions
		WHERE enrollment_id = $1 ORDER BY completed_at`, enrollmentID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting completions")
	}
	defer func() { _ = rows.Close() }()

	completions := make([]course.LessonCompletion, 0)
	for rows.Next() {
		var lc course.LessonCompletion
		var score null.Int
		if err := rows.Scan(&lc.EnrollmentID, &lc.LessonID, &score, &lc.CompletedAt); err != nil {
			return nil, errors.Wrap(err, "scanning completion")
		}
		lc.QuizScore = score.Ptr()
		lc.CompletedAt = lc.CompletedAt.UTC()
		completions = append(completions, lc)
	}
	return completions, errors.Wrap(rows.Err(), "iterating completions")
}

func (repo *courseRepository) AddCompletion(ctx context.Context, lc course.LessonCompletion) (bool, error) {
	res, err := repo.db.ExecContext(ctx, `
		INSERT INTO lesson_completions (enrollment_id, lesson_id, quiz_score, completed_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (enrollment_id, lesson_id) DO NOTHING`,
		lc.EnrollmentID, lc.LessonID, null.IntFromPtr(lc.QuizScore), lc.CompletedAt.UTC())
	if err != nil {
		return false, errors.Wrap(err, "inserting completion")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "inserting completion")
}

func (repo *courseRepository) AddQuizAttempt(ctx context.Context, a course.QuizAttempt) (course.QuizAttempt, error) {
	answers := make(pq.Int64Array, 0, len(a.Answers))
	for _, ans := range a.Answers {
		answers = append(answers, int64(ans))
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO quiz_attempts (id, enrollment_id, lesson_id, answers, score, passed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.EnrollmentID, a.LessonID, answers, a.Score, a.Passed, a.CreatedAt.UTC())
	if err != nil {
		return course.QuizAttempt{}, errors.Wrap(err, "inserting quiz attempt")
	}
	return a, nil
}
