package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/services/authz"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

type gamificationApi struct {
	svc      gamification.Service
	users    user.Service
	validate *validator.Validate
}

func registerGamificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := gamificationApi{
		svc:      opts.GamificationSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	authed := []echo.MiddlewareFunc{jwt, activeUserMiddleware(api.users)}
	g.GET("/me/gamification", api.summary, authed...)
	g.GET("/me/badges", api.myBadges, authed...)
	g.GET("/badges", api.badges, authed...)
	g.GET("/leaderboard", api.leaderboard, authed...)
}

func registerBadgeAdminAPI(admin *echo.Group, opts *Options) {
	api := gamificationApi{
		svc:      opts.GamificationSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	bg := admin.Group("", permissionMiddleware(opts.Enforcer, api.users, authz.ObjBadges, authz.ActManage))
	bg.GET("/badges", api.adminList)
	bg.POST("/badges", api.create)
	bg.PUT("/badges/:id", api.update)
	bg.DELETE("/badges/:id", api.destroy)
	bg.POST("/badges/:id/award", api.award)
	bg.POST("/users/:id/reevaluate", api.reevaluate)
}

func (api *gamificationApi) summary(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := api.svc.Summary(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting XP summary")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *gamificationApi) myBadges(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	badges, err := api.svc.UserBadges(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting user badges")
	}
	if badges == nil {
		badges = []gamification.UserBadge{}
	}
	return ctx.JSON(http.StatusOK, badges)
}

func (api *gamificationApi) badges(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	badges, err := api.svc.ListBadges(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing badges")
	}
	if badges == nil {
		badges = []gamification.BadgeStatus{}
	}
	return ctx.JSON(http.StatusOK, badges)
}

func (api *gamificationApi) leaderboard(ctx echo.Context) error {
	limit := queryInt(ctx, "limit", defaultLeaderboardSize)
	if limit <= 0 || limit > maxLeaderboardSize {
		limit = defaultLeaderboardSize
	}
	entries, err := api.svc.Leaderboard(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "getting leaderboard")
	}
	if entries == nil {
		entries = []gamification.LeaderboardEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *gamificationApi) adminList(ctx echo.Context) error {
	badges, err := api.svc.AdminListBadges(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing badges")
	}
	if badges == nil {
		badges = []gamification.Badge{}
	}
	return ctx.JSON(http.StatusOK, badges)
}

func (api *gamificationApi) create(ctx echo.Context) error {
	var data gamification.NewBadge
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBadge")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.CreateBadge(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating badge")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *gamificationApi) update(ctx echo.Context) error {
	var data gamification.UpdateBadge
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBadge")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.UpdateBadge(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating badge")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *gamificationApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteBadge(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting badge")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gamificationApi) award(ctx echo.Context) error {
	var data AwardBadgeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AwardBadgeRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	if _, err := api.users.GetByID(ctx.Request().Context(), data.UserID); err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	ub, err := api.svc.AwardBadge(ctx.Request().Context(), data.UserID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "awarding badge")
	}
	return ctx.JSON(http.StatusOK, ub)
}

func (api *gamificationApi) reevaluate(ctx echo.Context) error {
	usr, err := api.users.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	awarded, err := api.svc.Reevaluate(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "reevaluating badges")
	}
	if awarded == nil {
		awarded = []gamification.Badge{}
	}
	return ctx.JSON(http.StatusOK, awarded)
}

type AwardBadgeRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}
