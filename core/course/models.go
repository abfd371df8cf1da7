package course

import (
	"time"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// LessonState is derived from the completion records of an enrollment, never stored.
type LessonState string

const (
	StateLocked    LessonState = "locked"
	StateUnlocked  LessonState = "unlocked"
	StateCompleted LessonState = "completed"
)

const (
	DefaultCourseXP     = 100
	DefaultLessonXP     = 10
	DefaultPassingScore = 70
)

type (
	Course struct {
		ID          string    `json:"id"`
		Slug        string    `json:"slug"`
		Title       string    `json:"title"`
		Summary     string    `json:"summary"`
		Description string    `json:"description"`
		Level       Level     `json:"level"`
		XPReward    int       `json:"xp_reward"`
		IsPublished bool      `json:"is_published"`
		CreatedBy   string    `json:"created_by,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
		// Modules is the outline: modules and lessons sorted by position, lessons without questions.
		Modules []Module `json:"modules,omitempty"`
	}

	Module struct {
		ID       string   `json:"id"`
		CourseID string   `json:"course_id"`
		Title    string   `json:"title"`
		Summary  string   `json:"summary"`
		Position int      `json:"position"`
		Lessons  []Lesson `json:"lessons"`
	}

	Lesson struct {
		ID              string     `json:"id"`
		ModuleID        string     `json:"module_id"`
		CourseID        string     `json:"course_id"`
		Title           string     `json:"title"`
		Content         string     `json:"content,omitempty"`
		VideoURL        string     `json:"video_url,omitempty"`
		DurationMinutes int        `json:"duration_minutes"`
		XPReward        int        `json:"xp_reward"`
		PassingScore    int        `json:"passing_score"`
		Position        int        `json:"position"`
		QuestionCount   int        `json:"question_count"`
		Questions       []Question `json:"questions,omitempty"`
	}

	Question struct {
		ID            string   `json:"id"`
		LessonID      string   `json:"lesson_id"`
		Prompt        string   `json:"prompt"`
		Options       []string `json:"options"`
		CorrectOption int      `json:"correct_option"`
		Explanation   string   `json:"explanation"`
		Position      int      `json:"position"`
	}

	Enrollment struct {
		ID          string     `json:"id"`
		UserID      string     `json:"user_id"`
		CourseID    string     `json:"course_id"`
		Progress    int        `json:"progress"` // percent
		EnrolledAt  time.Time  `json:"enrolled_at"`
		CompletedAt *time.Time `json:"completed_at"`
		Course      *Course    `json:"course,omitempty"` // summary, set by listings
	}

	LessonCompletion struct {
		EnrollmentID string    `json:"-"`
		LessonID     string    `json:"lesson_id"`
		QuizScore    *int      `json:"quiz_score"`
		CompletedAt  time.Time `json:"completed_at"`
	}

	QuizAttempt struct {
		ID           string    `json:"id"`
		EnrollmentID string    `json:"-"`
		LessonID     string    `json:"lesson_id"`
		Answers      []int     `json:"answers"`
		Score        int       `json:"score"`
		Passed       bool      `json:"passed"`
		CreatedAt    time.Time `json:"created_at"`
	}
)

// HasQuiz reports whether the lesson has at least one question.
func (l Lesson) HasQuiz() bool {
	return l.QuestionCount > 0 || len(l.Questions) > 0
}

// Brief returns a copy of c without its outline.
func (c Course) Brief() Course {
	c.Modules = nil
	return c
}

// Lessons returns every lesson of the outline, module by module.
func (c Course) Lessons() []Lesson {
	var lessons []Lesson
	for _, m := range c.Modules {
		lessons = append(lessons, m.Lessons...)
	}
	return lessons
}

func (c Course) lesson(id string) (Lesson, bool) {
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if l.ID == id {
				return l, true
			}
		}
	}
	return Lesson{}, false
}

func (c Course) module(id string) (Module, bool) {
	for _, m := range c.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}

// Learner views.
type (
	LessonProgress struct {
		LessonID        string      `json:"lesson_id"`
		Title           string      `json:"title"`
		Position        int         `json:"position"`
		DurationMinutes int         `json:"duration_minutes"`
		HasQuiz         bool        `json:"has_quiz"`
		State           LessonState `json:"state"`
		QuizScore       *int        `json:"quiz_score"`
		CompletedAt     *time.Time  `json:"completed_at"`
	}

	ModuleProgress struct {
		ModuleID string           `json:"module_id"`
		Title    string           `json:"title"`
		Position int              `json:"position"`
		Lessons  []LessonProgress `json:"lessons"`
	}

	Progress struct {
		Enrollment       Enrollment       `json:"enrollment"`
		Course           Course           `json:"course"`
		CompletedLessons int              `json:"completed_lessons"`
		TotalLessons     int              `json:"total_lessons"`
		Modules          []ModuleProgress `json:"modules"`
	}

	// PublicQuestion is a Question without its answer.
	PublicQuestion struct {
		ID       string   `json:"id"`
		Prompt   string   `json:"prompt"`
		Options  []string `json:"options"`
		Position int      `json:"position"`
	}

	LessonView struct {
		Lesson    Lesson           `json:"lesson"`
		Questions []PublicQuestion `json:"questions"`
		State     LessonState      `json:"state"`
	}

	QuestionResult struct {
		QuestionID  string `json:"question_id"`
		Answer      int    `json:"answer"`
		Correct     bool   `json:"correct"`
		Explanation string `json:"explanation"`
	}

	QuizResult struct {
		AttemptID    string           `json:"attempt_id"`
		Score        int              `json:"score"`
		PassingScore int              `json:"passing_score"`
		Passed       bool             `json:"passed"`
		Results      []QuestionResult `json:"results"`
		State        LessonState      `json:"state"`
	}
)
