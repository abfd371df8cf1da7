// Package dummydb holds in-memory repositories, used by tests and for running the API without postgres.
package dummydb

import (
	"sync"

	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/forum"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/goal"
	"github.com/trezcool/skillfolio/core/notification"
	"github.com/trezcool/skillfolio/core/profile"
	"github.com/trezcool/skillfolio/core/user"
)

type (
	DB struct {
		user         *userTable
		profile      *profileTable
		goal         *goalTable
		course       *courseTable
		gamification *gamificationTable
		forum        *forumTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	profileTable struct {
		sync.RWMutex
		profiles    map[string]*profile.Profile // by user ID
		experiences map[string]*profile.Experience
		educations  map[string]*profile.Education
		skills      map[string]*profile.Skill
	}

	goalTable struct {
		sync.RWMutex
		table   map[string]*goal.Goal                   // full trees
		history map[string]map[string]goal.HistoryPoint // goal ID > day > point
	}

	courseTable struct {
		sync.RWMutex
		courses     map[string]*course.Course
		modules     map[string]*course.Module
		lessons     map[string]*course.Lesson
		questions   map[string][]course.Question // by lesson ID
		enrollments map[string]*course.Enrollment
		completions map[string]map[string]course.LessonCompletion // enrollment ID > lesson ID > completion
		attempts    []course.QuizAttempt
	}

	gamificationTable struct {
		sync.RWMutex
		entries    []gamification.XPEntry
		badges     map[string]*gamification.Badge
		userBadges map[string]map[string]gamification.UserBadge // user ID > badge ID
	}

	forumTable struct {
		sync.RWMutex
		threads map[string]*forum.Thread
		posts   map[string]*forum.Post
		reports map[string]*forum.Report
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		profile: &profileTable{
			profiles:    make(map[string]*profile.Profile),
			experiences: make(map[string]*profile.Experience),
			educations:  make(map[string]*profile.Education),
			skills:      make(map[string]*profile.Skill),
		},
		goal: &goalTable{
			table:   make(map[string]*goal.Goal),
			history: make(map[string]map[string]goal.HistoryPoint),
		},
		course: &courseTable{
			courses:     make(map[string]*course.Course),
			modules:     make(map[string]*course.Module),
			lessons:     make(map[string]*course.Lesson),
			questions:   make(map[string][]course.Question),
			enrollments: make(map[string]*course.Enrollment),
			completions: make(map[string]map[string]course.LessonCompletion),
		},
		gamification: &gamificationTable{
			badges:     make(map[string]*gamification.Badge),
			userBadges: make(map[string]map[string]gamification.UserBadge),
		},
		forum: &forumTable{
			threads: make(map[string]*forum.Thread),
			posts:   make(map[string]*forum.Post),
			reports: make(map[string]*forum.Report),
		},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
	}
}
