package course

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
)

var (
	ErrNotFound       = core.NewNotFoundError("course")
	ErrModuleNotFound = core.NewNotFoundError("module")
	ErrLessonNotFound = core.NewNotFoundError("lesson")
	ErrNotEnrolled    = core.NewNotFoundError("enrollment")

	ErrSlugExists   = errors.New("a course with this slug already exists")
	ErrLessonLocked = core.NewValidationError(errors.New("lesson is locked"))
	ErrQuizRequired = core.NewValidationError(errors.New("a passing quiz is required to complete this lesson"))
	ErrNoQuiz       = core.NewValidationError(errors.New("this lesson has no quiz"))
)

type (
	GetFilter struct {
		ID   string
		Slug string
	}

	Repository interface {
		// Catalog

		// CheckSlug returns ErrSlugExists if another course than excludedID uses slug.
		CheckSlug(ctx context.Context, slug, excludedID string) error
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// UpdateCourse saves the course fields, never its outline.
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
		// QueryCourses returns course summaries, newest first.
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		// GetCourse returns a course with its outline.
		GetCourse(ctx context.Context, filter GetFilter) (Course, error)

		CreateModule(ctx context.Context, m Module) (Module, error)
		UpdateModule(ctx context.Context, m Module) (Module, error)
		DeleteModule(ctx context.Context, id string) error
		GetModule(ctx context.Context, id string) (Module, error)
		SetModulePositions(ctx context.Context, courseID string, ids []string) error

		CreateLesson(ctx context.Context, l Lesson) (Lesson, error)
		UpdateLesson(ctx context.Context, l Lesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id string) error
		// GetLesson returns a lesson with its questions.
		GetLesson(ctx context.Context, id string) (Lesson, error)
		SetLessonPositions(ctx context.Context, moduleID string, ids []string) error
		ReplaceQuestions(ctx context.Context, lessonID string, qs []Question) error

		// Learning

		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		// ListEnrollments returns the enrollments of a user with their course summary, newest first.
		ListEnrollments(ctx context.Context, userID string, completedOnly bool) ([]Enrollment, error)
		SetProgress(ctx context.Context, enrollmentID string, progress int) error
		// MarkCompleted sets the completion time of an enrollment unless it is already set,
		// and reports whether it did.
		MarkCompleted(ctx context.Context, enrollmentID string, at time.Time) (bool, error)
		Completions(ctx context.Context, enrollmentID string) ([]LessonCompletion, error)
		// AddCompletion inserts lc unless the lesson is already completed, and reports whether it did.
		AddCompletion(ctx context.Context, lc LessonCompletion) (bool, error)
		AddQuizAttempt(ctx context.Context, a QuizAttempt) (QuizAttempt, error)
	}

	Service interface {
		// Learners
		ListCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		GetCourse(ctx context.Context, slug string) (Course, error)
		Enroll(ctx context.Context, userID, courseID string) (Enrollment, error)
		ListEnrollments(ctx context.Context, userID string, completedOnly bool) ([]Enrollment, error)
		GetProgress(ctx context.Context, userID, courseID string) (Progress, error)
		GetLesson(ctx context.Context, userID, lessonID string) (LessonView, error)
		CompleteLesson(ctx context.Context, userID, lessonID string) (Progress, error)
		SubmitQuiz(ctx context.Context, userID, lessonID string, answers []int) (QuizResult, error)

		// Catalog management
		AdminListCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		AdminGetCourse(ctx context.Context, id string) (Course, error)
		CreateCourse(ctx context.Context, authorID string, nc NewCourse) (Course, error)
		UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		SetPublished(ctx context.Context, id string, published bool) (Course, error)
		DeleteCourse(ctx context.Context, id string) error

		CreateModule(ctx context.Context, courseID string, nm NewModule) (Module, error)
		UpdateModule(ctx context.Context, id string, nm NewModule) (Module, error)
		DeleteModule(ctx context.Context, id string) error
		ReorderModules(ctx context.Context, courseID string, ro Reorder) (Course, error)

		AdminGetLesson(ctx context.Context, id string) (Lesson, error)
		CreateLesson(ctx context.Context, moduleID string, nl NewLesson) (Lesson, error)
		UpdateLesson(ctx context.Context, id string, ul UpdateLesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id string) error
		ReorderLessons(ctx context.Context, moduleID string, ro Reorder) (Course, error)
		ReplaceQuestions(ctx context.Context, lessonID string, rq ReplaceQuestions) (Lesson, error)
	}

	service struct {
		repo   Repository
		events core.EventPublisher
		logger core.Logger
	}
)

var _ Service = (*service)(nil) // interface compliance check

// NowFunc is mockable.
var NowFunc = func() time.Time { return time.Now().UTC() }

func NewService(repo Repository, events core.EventPublisher, logger core.Logger) Service {
	return &service{repo: repo, events: events, logger: logger}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Learners

func (svc *service) ListCourses(ctx context.Context, filter QueryFilter) ([]Course, error) {
	filter.PublishedOnly = true
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *service) GetCourse(ctx context.Context, slug string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */)})
	if err != nil {
		return Course{}, err
	}
	if !c.IsPublished {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (svc *service) Enroll(ctx context.Context, userID, courseID string) (Enrollment, error) {
	if !validID(courseID) {
		return Enrollment{}, ErrNotFound
	}
	c, err := svc.repo.GetCourse(ctx, GetFilter{ID: courseID})
	if err != nil {
		return Enrollment{}, err
	}
	if !c.IsPublished {
		return Enrollment{}, ErrNotFound
	}

	enr, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err == nil {
		return enr, nil
	} else if errors.Cause(err) != ErrNotEnrolled {
		return Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	enr, err = svc.repo.CreateEnrollment(ctx, Enrollment{
		ID:         uuid.New().String(),
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: NowFunc(),
	})
	return enr, errors.Wrap(err, "creating enrollment")
}

func (svc *service) ListEnrollments(ctx context.Context, userID string, completedOnly bool) ([]Enrollment, error) {
	return svc.repo.ListEnrollments(ctx, userID, completedOnly)
}

func (svc *service) GetProgress(ctx context.Context, userID, courseID string) (Progress, error) {
	if !validID(courseID) {
		return Progress{}, ErrNotFound
	}
	c, err := svc.repo.GetCourse(ctx, GetFilter{ID: courseID})
	if err != nil {
		return Progress{}, err
	}
	enr, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return Progress{}, err
	}
	completions, err := svc.repo.Completions(ctx, enr.ID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "getting completions")
	}
	return buildProgress(c, enr, completions), nil
}

func buildProgress(c Course, enr Enrollment, completions []LessonCompletion) Progress {
	byLesson := make(map[string]LessonCompletion, len(completions))
	completed := make(map[string]bool, len(completions))
	for _, lc := range completions {
		byLesson[lc.LessonID] = lc
		completed[lc.LessonID] = true
	}
	states := LessonStates(c, completed)

	p := Progress{Enrollment: enr, Course: c.Brief(), Modules: make([]ModuleProgress, 0, len(c.Modules))}
	for _, m := range c.Modules {
		mp := ModuleProgress{ModuleID: m.ID, Title: m.Title, Position: m.Position, Lessons: make([]LessonProgress, 0, len(m.Lessons))}
		for _, l := range m.Lessons {
			lp := LessonProgress{
				LessonID:        l.ID,
				Title:           l.Title,
				Position:        l.Position,
				DurationMinutes: l.DurationMinutes,
				HasQuiz:         l.HasQuiz(),
				State:           states[l.ID],
			}
			if lc, ok := byLesson[l.ID]; ok {
				at := lc.CompletedAt
				lp.CompletedAt, lp.QuizScore = &at, lc.QuizScore
				p.CompletedLessons++
			}
			p.TotalLessons++
			mp.Lessons = append(mp.Lessons, lp)
		}
		p.Modules = append(p.Modules, mp)
	}
	p.Enrollment.Progress = core.Percent(p.CompletedLessons, p.TotalLessons)
	return p
}

// learning holds what a learner action on a lesson needs.
type learning struct {
	course      Course
	lesson      Lesson // with questions
	enrollment  Enrollment
	completions []LessonCompletion
	state       LessonState
}

func (svc *service) loadLearning(ctx context.Context, userID, lessonID string) (learning, error) {
	if !validID(lessonID) {
		return learning{}, ErrLessonNotFound
	}
	l, err := svc.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return learning{}, err
	}
	c, err := svc.repo.GetCourse(ctx, GetFilter{ID: l.CourseID})
	if err != nil {
		return learning{}, errors.Wrap(err, "getting course")
	}
	enr, err := svc.repo.GetEnrollment(ctx, userID, c.ID)
	if err != nil {
		return learning{}, err
	}
	completions, err := svc.repo.Completions(ctx, enr.ID)
	if err != nil {
		return learning{}, errors.Wrap(err, "getting completions")
	}
	completed := make(map[string]bool, len(completions))
	for _, lc := range completions {
		completed[lc.LessonID] = true
	}
	return learning{
		course:      c,
		lesson:      l,
		enrollment:  enr,
		completions: completions,
		state:       LessonStates(c, completed)[l.ID],
	}, nil
}

func (svc *service) GetLesson(ctx context.Context, userID, lessonID string) (LessonView, error) {
	lrn, err := svc.loadLearning(ctx, userID, lessonID)
	if err != nil {
		return LessonView{}, err
	}
	if lrn.state == StateLocked {
		return LessonView{}, ErrLessonLocked
	}
	view := LessonView{Lesson: lrn.lesson, Questions: make([]PublicQuestion, 0, len(lrn.lesson.Questions)), State: lrn.state}
	for _, q := range lrn.lesson.Questions {
		view.Questions = append(view.Questions, PublicQuestion{ID: q.ID, Prompt: q.Prompt, Options: q.Options, Position: q.Position})
	}
	view.Lesson.Questions = nil
	return view, nil
}

func (svc *service) CompleteLesson(ctx context.Context, userID, lessonID string) (Progress, error) {
	lrn, err := svc.loadLearning(ctx, userID, lessonID)
	if err != nil {
		return Progress{}, err
	}
	switch {
	case lrn.state == StateLocked:
		return Progress{}, ErrLessonLocked
	case lrn.state == StateCompleted:
		return buildProgress(lrn.course, lrn.enrollment, lrn.completions), nil
	case lrn.lesson.HasQuiz():
		return Progress{}, ErrQuizRequired
	}
	return svc.complete(ctx, lrn, nil)
}

func (svc *service) SubmitQuiz(ctx context.Context, userID, lessonID string, answers []int) (QuizResult, error) {
	lrn, err := svc.loadLearning(ctx, userID, lessonID)
	if err != nil {
		return QuizResult{}, err
	}
	if lrn.state == StateLocked {
		return QuizResult{}, ErrLessonLocked
	}
	if !lrn.lesson.HasQuiz() {
		return QuizResult{}, ErrNoQuiz
	}
	score, results, err := Grade(lrn.lesson.Questions, answers)
	if err != nil {
		return QuizResult{}, err
	}
	passed := score >= lrn.lesson.PassingScore

	attempt, err := svc.repo.AddQuizAttempt(ctx, QuizAttempt{
		ID:           uuid.New().String(),
		EnrollmentID: lrn.enrollment.ID,
		LessonID:     lrn.lesson.ID,
		Answers:      answers,
		Score:        score,
		Passed:       passed,
		CreatedAt:    NowFunc(),
	})
	if err != nil {
		return QuizResult{}, errors.Wrap(err, "recording quiz attempt")
	}

	res := QuizResult{
		AttemptID:    attempt.ID,
		Score:        score,
		PassingScore: lrn.lesson.PassingScore,
		Passed:       passed,
		Results:      results,
		State:        lrn.state,
	}
	if !passed {
		return res, nil
	}

	if lrn.state != StateCompleted {
		if _, err := svc.complete(ctx, lrn, &score); err != nil {
			return QuizResult{}, err
		}
		res.State = StateCompleted
	}
	svc.publish(ctx, core.NewEvent(core.EventQuizPassed, userID, lrn.lesson.ID, score, map[string]string{
		"course_id": lrn.course.ID,
		"title":     lrn.lesson.Title,
	}))
	return res, nil
}

// complete records the completion of an unlocked lesson, updates the enrollment progress
// and completes the course when its last lesson is done.
func (svc *service) complete(ctx context.Context, lrn learning, quizScore *int) (Progress, error) {
	now := NowFunc()
	created, err := svc.repo.AddCompletion(ctx, LessonCompletion{
		EnrollmentID: lrn.enrollment.ID,
		LessonID:     lrn.lesson.ID,
		QuizScore:    quizScore,
		CompletedAt:  now,
	})
	if err != nil {
		return Progress{}, errors.Wrap(err, "adding lesson completion")
	}
	completions, err := svc.repo.Completions(ctx, lrn.enrollment.ID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "getting completions")
	}
	p := buildProgress(lrn.course, lrn.enrollment, completions)
	if err := svc.repo.SetProgress(ctx, lrn.enrollment.ID, p.Enrollment.Progress); err != nil {
		return Progress{}, errors.Wrap(err, "setting progress")
	}

	if created {
		svc.publish(ctx, core.NewEvent(core.EventLessonCompleted, lrn.enrollment.UserID, lrn.lesson.ID, lrn.lesson.XPReward, map[string]string{
			"course_id": lrn.course.ID,
			"title":     lrn.lesson.Title,
		}))
	}

	if p.TotalLessons > 0 && p.CompletedLessons == p.TotalLessons {
		completedNow, err := svc.repo.MarkCompleted(ctx, lrn.enrollment.ID, now)
		if err != nil {
			return Progress{}, errors.Wrap(err, "completing enrollment")
		}
		if completedNow {
			p.Enrollment.CompletedAt = &now
			svc.publish(ctx, core.NewEvent(core.EventCourseCompleted, lrn.enrollment.UserID, lrn.course.ID, lrn.course.XPReward, map[string]string{
				"title": lrn.course.Title,
				"slug":  lrn.course.Slug,
			}))
		}
	}
	return p, nil
}

func (svc *service) publish(ctx context.Context, evt core.Event) {
	if err := svc.events.Publish(ctx, evt); err != nil {
		svc.logger.Error(fmt.Sprintf("publishing %s: %v", evt.Type, err), err)
	}
}

// Catalog management

func (svc *service) AdminListCourses(ctx context.Context, filter QueryFilter) ([]Course, error) {
	filter.PublishedOnly = false
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *service) AdminGetCourse(ctx context.Context, id string) (Course, error) {
	if !validID(id) {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *service) checkSlug(ctx context.Context, slug, excludedID string) error {
	if err := svc.repo.CheckSlug(ctx, slug, excludedID); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return errors.Wrap(err, "checking slug")
	}
	return nil
}

func (svc *service) CreateCourse(ctx context.Context, authorID string, nc NewCourse) (Course, error) {
	slug := nc.Slug
	if slug == "" {
		slug = core.Slugify(nc.Title)
	}
	if err := svc.checkSlug(ctx, slug, ""); err != nil {
		return Course{}, err
	}
	now := NowFunc()
	c := Course{
		ID:          uuid.New().String(),
		Slug:        slug,
		Title:       nc.Title,
		Summary:     nc.Summary,
		Description: nc.Description,
		Level:       nc.Level,
		XPReward:    DefaultCourseXP,
		CreatedBy:   authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Level == "" {
		c.Level = LevelBeginner
	}
	if nc.XPReward != nil {
		c.XPReward = *nc.XPReward
	}
	return svc.repo.CreateCourse(ctx, c)
}

func (svc *service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.AdminGetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if uc.Slug != nil && *uc.Slug != c.Slug {
		if err := svc.checkSlug(ctx, *uc.Slug, c.ID); err != nil {
			return Course{}, err
		}
		c.Slug = *uc.Slug
	}
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Summary != nil {
		c.Summary = *uc.Summary
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Level != nil {
		c.Level = *uc.Level
	}
	if uc.XPReward != nil {
		c.XPReward = *uc.XPReward
	}
	c.UpdatedAt = NowFunc()
	if _, err := svc.repo.UpdateCourse(ctx, c); err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	return svc.repo.GetCourse(ctx, GetFilter{ID: c.ID})
}

func (svc *service) SetPublished(ctx context.Context, id string, published bool) (Course, error) {
	c, err := svc.AdminGetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	c.IsPublished = published
	c.UpdatedAt = NowFunc()
	if _, err := svc.repo.UpdateCourse(ctx, c); err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	return c, nil
}

func (svc *service) DeleteCourse(ctx context.Context, id string) error {
	if _, err := svc.AdminGetCourse(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *service) CreateModule(ctx context.Context, courseID string, nm NewModule) (Module, error) {
	c, err := svc.AdminGetCourse(ctx, courseID)
	if err != nil {
		return Module{}, err
	}
	return svc.repo.CreateModule(ctx, Module{
		ID:       uuid.New().String(),
		CourseID: c.ID,
		Title:    nm.Title,
		Summary:  nm.Summary,
		Position: len(c.Modules),
		Lessons:  []Lesson{},
	})
}

func (svc *service) getModule(ctx context.Context, id string) (Module, error) {
	if !validID(id) {
		return Module{}, ErrModuleNotFound
	}
	return svc.repo.GetModule(ctx, id)
}

func (svc *service) UpdateModule(ctx context.Context, id string, nm NewModule) (Module, error) {
	m, err := svc.getModule(ctx, id)
	if err != nil {
		return Module{}, err
	}
	m.Title, m.Summary = nm.Title, nm.Summary
	return svc.repo.UpdateModule(ctx, m)
}

func (svc *service) DeleteModule(ctx context.Context, id string) error {
	m, err := svc.getModule(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteModule(ctx, id); err != nil {
		return errors.Wrap(err, "deleting module")
	}
	c, err := svc.repo.GetCourse(ctx, GetFilter{ID: m.CourseID})
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	ids := make([]string, 0, len(c.Modules))
	for _, mod := range c.Modules {
		ids = append(ids, mod.ID)
	}
	return errors.Wrap(svc.repo.SetModulePositions(ctx, c.ID, ids), "renumbering modules")
}

func (svc *service) ReorderModules(ctx context.Context, courseID string, ro Reorder) (Course, error) {
	c, err := svc.AdminGetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	current := make([]string, 0, len(c.Modules))
	for _, m := range c.Modules {
		current = append(current, m.ID)
	}
	if err := core.CheckPermutation(current, ro.IDs); err != nil {
		return Course{}, err
	}
	if err := svc.repo.SetModulePositions(ctx, c.ID, ro.IDs); err != nil {
		return Course{}, errors.Wrap(err, "reordering modules")
	}
	return svc.repo.GetCourse(ctx, GetFilter{ID: c.ID})
}

func (svc *service) AdminGetLesson(ctx context.Context, id string) (Lesson, error) {
	if !validID(id) {
		return Lesson{}, ErrLessonNotFound
	}
	return svc.repo.GetLesson(ctx, id)
}

func (svc *service) CreateLesson(ctx context.Context, moduleID string, nl NewLesson) (Lesson, error) {
	m, err := svc.getModule(ctx, moduleID)
	if err != nil {
		return Lesson{}, err
	}
	l := Lesson{
		ID:              uuid.New().String(),
		ModuleID:        m.ID,
		CourseID:        m.CourseID,
		Title:           nl.Title,
		Content:         nl.Content,
		VideoURL:        nl.VideoURL,
		DurationMinutes: nl.DurationMinutes,
		XPReward:        DefaultLessonXP,
		PassingScore:    DefaultPassingScore,
		Position:        len(m.Lessons),
	}
	if nl.XPReward != nil {
		l.XPReward = *nl.XPReward
	}
	if nl.PassingScore != nil {
		l.PassingScore = *nl.PassingScore
	}
	return svc.repo.CreateLesson(ctx, l)
}

func (svc *service) UpdateLesson(ctx context.Context, id string, ul UpdateLesson) (Lesson, error) {
	l, err := svc.AdminGetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if ul.Title != nil {
		l.Title = *ul.Title
	}
	if ul.Content != nil {
		l.Content = *ul.Content
	}
	if ul.VideoURL != nil {
		l.VideoURL = *ul.VideoURL
	}
	if ul.DurationMinutes != nil {
		l.DurationMinutes = *ul.DurationMinutes
	}
	if ul.XPReward != nil {
		l.XPReward = *ul.XPReward
	}
	if ul.PassingScore != nil {
		l.PassingScore = *ul.PassingScore
	}
	if _, err := svc.repo.UpdateLesson(ctx, l); err != nil {
		return Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return svc.repo.GetLesson(ctx, l.ID)
}

func (svc *service) DeleteLesson(ctx context.Context, id string) error {
	l, err := svc.AdminGetLesson(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteLesson(ctx, id); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	m, err := svc.repo.GetModule(ctx, l.ModuleID)
	if err != nil {
		return errors.Wrap(err, "getting module")
	}
	ids := make([]string, 0, len(m.Lessons))
	for _, ls := range m.Lessons {
		ids = append(ids, ls.ID)
	}
	return errors.Wrap(svc.repo.SetLessonPositions(ctx, m.ID, ids), "renumbering lessons")
}

func (svc *service) ReorderLessons(ctx context.Context, moduleID string, ro Reorder) (Course, error) {
	m, err := svc.getModule(ctx, moduleID)
	if err != nil {
		return Course{}, err
	}
	current := make([]string, 0, len(m.Lessons))
	for _, l := range m.Lessons {
		current = append(current, l.ID)
	}
	if err := core.CheckPermutation(current, ro.IDs); err != nil {
		return Course{}, err
	}
	if err := svc.repo.SetLessonPositions(ctx, m.ID, ro.IDs); err != nil {
		return Course{}, errors.Wrap(err, "reordering lessons")
	}
	return svc.repo.GetCourse(ctx, GetFilter{ID: m.CourseID})
}

func (svc *service) ReplaceQuestions(ctx context.Context, lessonID string, rq ReplaceQuestions) (Lesson, error) {
	l, err := svc.AdminGetLesson(ctx, lessonID)
	if err != nil {
		return Lesson{}, err
	}
	qs := make([]Question, 0, len(rq.Questions))
	for i, nq := range rq.Questions {
		qs = append(qs, Question{
			ID:            uuid.New().String(),
			LessonID:      l.ID,
			Prompt:        nq.Prompt,
			Options:       nq.Options,
			CorrectOption: nq.CorrectOption,
			Explanation:   nq.Explanation,
			Position:      i,
		})
	}
	if err := svc.repo.ReplaceQuestions(ctx, l.ID, qs); err != nil {
		return Lesson{}, errors.Wrap(err, "replacing questions")
	}
	return svc.repo.GetLesson(ctx, l.ID)
}
