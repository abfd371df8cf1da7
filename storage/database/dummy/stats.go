package dummydb

import (
	"context"

	"github.com/trezcool/skillfolio/core/forum"
	"github.com/trezcool/skillfolio/core/stats"
)

type statsRepository struct {
	db *DB
}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *DB) stats.Repository {
	return &statsRepository{db: db}
}

func (repo *statsRepository) Dashboard(_ context.Context) (stats.Dashboard, error) {
	var d stats.Dashboard

	repo.db.user.RLock()
	for _, u := range repo.db.user.table {
		d.Users++
		if u.Active() {
			d.ActiveUsers++
		}
	}
	repo.db.user.RUnlock()

	repo.db.course.RLock()
	for _, c := range repo.db.course.courses {
		if c.IsPublished {
			d.PublishedCourses++
		}
	}
	for _, e := range repo.db.course.enrollments {
		d.Enrollments++
		if e.CompletedAt != nil {
			d.CompletedEnrollments++
		}
	}
	repo.db.course.RUnlock()

	repo.db.goal.RLock()
	d.Goals = len(repo.db.goal.table)
	repo.db.goal.RUnlock()

	repo.db.forum.RLock()
	d.Threads = len(repo.db.forum.threads)
	for _, r := range repo.db.forum.reports {
		if r.Status == forum.ReportOpen {
			d.OpenReports++
		}
	}
	repo.db.forum.RUnlock()

	repo.db.gamification.RLock()
	for _, e := range repo.db.gamification.entries {
		d.TotalXP += e.Amount
	}
	repo.db.gamification.RUnlock()

	return d, nil
}
