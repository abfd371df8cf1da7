// Package boiledrepos holds the repositories built on sqlboiler raw queries.
package boiledrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/skillfolio/core/stats"
)

const dashboardQuery = `
	SELECT
		(SELECT COUNT(*) FROM users) AS users,
		(SELECT COUNT(*) FROM users WHERE is_active) AS active_users,
		(SELECT COUNT(*) FROM courses WHERE is_published) AS published_courses,
		(SELECT COUNT(*) FROM enrollments) AS enrollments,
		(SELECT COUNT(*) FROM enrollments WHERE completed_at IS NOT NULL) AS completed_enrollments,
		(SELECT COUNT(*) FROM goals) AS goals,
		(SELECT COUNT(*) FROM forum_threads) AS threads,
		(SELECT COUNT(*) FROM forum_reports WHERE status = 'open') AS open_reports,
		(SELECT COALESCE(SUM(amount), 0) FROM xp_entries) AS total_xp`

type statsRepository struct {
	exec boil.ContextExecutor
}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(exec boil.ContextExecutor) stats.Repository {
	return &statsRepository{exec: exec}
}

func (repo *statsRepository) Dashboard(ctx context.Context) (stats.Dashboard, error) {
	var d stats.Dashboard
	if err := queries.Raw(dashboardQuery).Bind(ctx, repo.exec, &d); err != nil {
		return stats.Dashboard{}, errors.Wrap(err, "selecting dashboard counters")
	}
	return d, nil
}
