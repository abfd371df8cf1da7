// Package stats computes the admin dashboard counters.
package stats

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

type (
	Dashboard struct {
		Users                int       `json:"users" boil:"users"`
		ActiveUsers          int       `json:"active_users" boil:"active_users"`
		PublishedCourses     int       `json:"published_courses" boil:"published_courses"`
		Enrollments          int       `json:"enrollments" boil:"enrollments"`
		CompletedEnrollments int       `json:"completed_enrollments" boil:"completed_enrollments"`
		Goals                int       `json:"goals" boil:"goals"`
		Threads              int       `json:"threads" boil:"threads"`
		OpenReports          int       `json:"open_reports" boil:"open_reports"`
		TotalXP              int       `json:"total_xp" boil:"total_xp"`
		GeneratedAt          time.Time `json:"generated_at" boil:"-"`
	}

	Repository interface {
		Dashboard(ctx context.Context) (Dashboard, error)
	}

	Service interface {
		Dashboard(ctx context.Context) (Dashboard, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Dashboard(ctx context.Context) (Dashboard, error) {
	d, err := svc.repo.Dashboard(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "computing dashboard")
	}
	d.GeneratedAt = time.Now().UTC()
	return d, nil
}
