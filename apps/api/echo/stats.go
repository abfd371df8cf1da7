package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core/stats"
	"github.com/trezcool/skillfolio/services/authz"
)

type statsApi struct {
	svc stats.Service
}

func registerStatsAPI(admin *echo.Group, opts *Options) {
	api := statsApi{svc: opts.StatsSvc}
	admin.GET("/stats", api.dashboard, permissionMiddleware(opts.Enforcer, opts.UserSvc, authz.ObjStats, authz.ActRead))
}

func (api *statsApi) dashboard(ctx echo.Context) error {
	d, err := api.svc.Dashboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing dashboard")
	}
	return ctx.JSON(http.StatusOK, d)
}
