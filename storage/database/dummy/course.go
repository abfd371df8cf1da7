package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/skillfolio/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

// Catalog

func (repo *courseRepository) CheckSlug(_ context.Context, slug, excludedID string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.courses {
		if c.Slug == slug && c.ID != excludedID {
			return course.ErrSlugExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.Modules = nil
	repo.db.courses[c.ID] = &c
	return repo.outline(c), nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	c.Modules = nil
	repo.db.courses[c.ID] = &c
	return repo.outline(c), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, m := range repo.db.modules {
		if m.CourseID == id {
			repo.deleteModule(m.ID)
		}
	}
	for eid, e := range repo.db.enrollments {
		if e.CourseID == id {
			delete(repo.db.enrollments, eid)
			delete(repo.db.completions, eid)
		}
	}
	delete(repo.db.courses, id)
	return nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	courses := make([]course.Course, 0)
	for _, c := range repo.db.courses {
		if filter.PublishedOnly && !c.IsPublished {
			continue
		}
		if filter.Level != "" && c.Level != filter.Level {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Summary), search) {
			continue
		}
		courses = append(courses, c.Brief())
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return paginate(courses, filter.Page.Offset, filter.Page.Limit), nil
}

func (repo *courseRepository) GetCourse(_ context.Context, filter course.GetFilter) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.courses {
		if (filter.ID != "" && c.ID == filter.ID) || (filter.Slug != "" && c.Slug == filter.Slug) {
			return repo.outline(*c), nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

// outline attaches the modules and lessons to c. The caller holds the lock.
func (repo *courseRepository) outline(c course.Course) course.Course {
	c.Modules = make([]course.Module, 0)
	for _, m := range repo.db.modules {
		if m.CourseID == c.ID {
			c.Modules = append(c.Modules, repo.moduleWithLessons(*m))
		}
	}
	sort.SliceStable(c.Modules, func(i, j int) bool { return c.Modules[i].Position < c.Modules[j].Position })
	return c
}

func (repo *courseRepository) moduleWithLessons(m course.Module) course.Module {
	m.Lessons = make([]course.Lesson, 0)
	for _, l := range repo.db.lessons {
		if l.ModuleID == m.ID {
			ls := *l
			ls.CourseID = m.CourseID
			ls.Questions = nil
			ls.QuestionCount = len(repo.db.questions[l.ID])
			m.Lessons = append(m.Lessons, ls)
		}
	}
	sort.SliceStable(m.Lessons, func(i, j int) bool { return m.Lessons[i].Position < m.Lessons[j].Position })
	return m
}

func (repo *courseRepository) CreateModule(_ context.Context, m course.Module) (course.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[m.CourseID]; !ok {
		return course.Module{}, course.ErrNotFound
	}
	m.Lessons = nil
	repo.db.modules[m.ID] = &m
	return repo.moduleWithLessons(m), nil
}

func (repo *courseRepository) UpdateModule(_ context.Context, m course.Module) (course.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.modules[m.ID]; !ok {
		return course.Module{}, course.ErrModuleNotFound
	}
	m.Lessons = nil
	repo.db.modules[m.ID] = &m
	return repo.moduleWithLessons(m), nil
}

func (repo *courseRepository) DeleteModule(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.deleteModule(id)
	return nil
}

func (repo *courseRepository) deleteModule(id string) {
	for _, l := range repo.db.lessons {
		if l.ModuleID == id {
			repo.deleteLesson(l.ID)
		}
	}
	delete(repo.db.modules, id)
}

func (repo *courseRepository) GetModule(_ context.Context, id string) (course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.modules[id]; ok {
		return repo.moduleWithLessons(*m), nil
	}
	return course.Module{}, course.ErrModuleNotFound
}

func (repo *courseRepository) SetModulePositions(_ context.Context, courseID string, ids []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for pos, id := range ids {
		if m, ok := repo.db.modules[id]; ok && m.CourseID == courseID {
			m.Position = pos
		}
	}
	return nil
}

func (repo *courseRepository) CreateLesson(_ context.Context, l course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m, ok := repo.db.modules[l.ModuleID]
	if !ok {
		return course.Lesson{}, course.ErrModuleNotFound
	}
	l.CourseID = m.CourseID
	l.Questions, l.QuestionCount = nil, 0
	repo.db.lessons[l.ID] = &l
	return l, nil
}

func (repo *courseRepository) UpdateLesson(_ context.Context, l course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.lessons[l.ID]; !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	l.Questions = nil
	repo.db.lessons[l.ID] = &l
	return l, nil
}

func (repo *courseRepository) DeleteLesson(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.deleteLesson(id)
	return nil
}

// deleteLesson cascades to the questions, completions and attempts of the lesson.
func (repo *courseRepository) deleteLesson(id string) {
	delete(repo.db.lessons, id)
	delete(repo.db.questions, id)
	for _, lcs := range repo.db.completions {
		delete(lcs, id)
	}
	attempts := repo.db.attempts[:0]
	for _, a := range repo.db.attempts {
		if a.LessonID != id {
			attempts = append(attempts, a)
		}
	}
	repo.db.attempts = attempts
}

func (repo *courseRepository) GetLesson(_ context.Context, id string) (course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	l, ok := repo.db.lessons[id]
	if !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	ls := *l
	if m, ok := repo.db.modules[ls.ModuleID]; ok {
		ls.CourseID = m.CourseID
	}
	ls.Questions = append([]course.Question{}, repo.db.questions[id]...)
	ls.QuestionCount = len(ls.Questions)
	return ls, nil
}

func (repo *courseRepository) SetLessonPositions(_ context.Context, moduleID string, ids []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for pos, id := range ids {
		if l, ok := repo.db.lessons[id]; ok && l.ModuleID == moduleID {
			l.Position = pos
		}
	}
	return nil
}

func (repo *courseRepository) ReplaceQuestions(_ context.Context, lessonID string, qs []course.Question) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.lessons[lessonID]; !ok {
		return course.ErrLessonNotFound
	}
	if len(qs) == 0 {
		delete(repo.db.questions, lessonID)
		return nil
	}
	repo.db.questions[lessonID] = append([]course.Question(nil), qs...)
	return nil
}

// Learning

func (repo *courseRepository) CreateEnrollment(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.enrollments {
		if other.UserID == e.UserID && other.CourseID == e.CourseID {
			return *other, nil
		}
	}
	e.Course = nil
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, userID, courseID string) (course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, e := range repo.db.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return *e, nil
		}
	}
	return course.Enrollment{}, course.ErrNotEnrolled
}

func (repo *courseRepository) ListEnrollments(_ context.Context, userID string, completedOnly bool) ([]course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if e.UserID != userID || (completedOnly && e.CompletedAt == nil) {
			continue
		}
		enr := *e
		if c, ok := repo.db.courses[e.CourseID]; ok {
			summary := c.Brief()
			enr.Course = &summary
		}
		enrollments = append(enrollments, enr)
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].EnrolledAt.After(enrollments[j].EnrolledAt) })
	return enrollments, nil
}

func (repo *courseRepository) SetProgress(_ context.Context, enrollmentID string, progress int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.enrollments[enrollmentID]
	if !ok {
		return course.ErrNotEnrolled
	}
	e.Progress = progress
	return nil
}

func (repo *courseRepository) MarkCompleted(_ context.Context, enrollmentID string, at time.Time) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.enrollments[enrollmentID]
	if !ok {
		return false, course.ErrNotEnrolled
	}
	if e.CompletedAt != nil {
		return false, nil
	}
	e.CompletedAt = &at
	return true, nil
}

func (repo *courseRepository) Completions(_ context.Context, enrollmentID string) ([]course.LessonCompletion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	completions := make([]course.LessonCompletion, 0, len(repo.db.completions[enrollmentID]))
	for _, lc := range repo.db.completions[enrollmentID] {
		completions = append(completions, lc)
	}
	sort.Slice(completions, func(i, j int) bool { return completions[i].CompletedAt.Before(completions[j].CompletedAt) })
	return completions, nil
}

func (repo *courseRepository) AddCompletion(_ context.Context, lc course.LessonCompletion) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lcs, ok := repo.db.completions[lc.EnrollmentID]
	if !ok {
		lcs = make(map[string]course.LessonCompletion)
		repo.db.completions[lc.EnrollmentID] = lcs
	}
	if _, done := lcs[lc.LessonID]; done {
		return false, nil
	}
	lcs[lc.LessonID] = lc
	return true, nil
}

func (repo *courseRepository) AddQuizAttempt(_ context.Context, a course.QuizAttempt) (course.QuizAttempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.attempts = append(repo.db.attempts, a)
	return a, nil
}

// paginate applies offset and limit to items, a zero limit meaning no limit.
func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
