package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core/forum"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/services/authz"
)

const maxForumPage = 100

type forumApi struct {
	svc      forum.Service
	users    user.Service
	validate *validator.Validate
}

func registerForumAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := forumApi{
		svc:      opts.ForumSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	fg := g.Group("/forum",
		jwt,
		activeUserMiddleware(api.users),
		permissionMiddleware(opts.Enforcer, api.users, authz.ObjForum, authz.ActWrite),
	)
	fg.GET("/threads", api.listThreads)
	fg.POST("/threads", api.createThread)
	fg.GET("/threads/:id", api.retrieveThread)
	fg.PUT("/threads/:id", api.updateThread)
	fg.DELETE("/threads/:id", api.deleteThread)
	fg.POST("/threads/:id/posts", api.reply)
	fg.PUT("/posts/:id", api.updatePost)
	fg.DELETE("/posts/:id", api.deletePost)
	fg.POST("/reports", api.report)

	// moderation
	mod := permissionMiddleware(opts.Enforcer, api.users, authz.ObjForum, authz.ActModerate)
	fg.PUT("/threads/:id/moderation", api.moderateThread, mod)
	fg.PUT("/posts/:id/visibility", api.hidePost, mod)
	fg.GET("/reports", api.listReports, mod)
	fg.PUT("/reports/:id", api.resolveReport, mod)
}

func (api *forumApi) listThreads(ctx echo.Context) error {
	var filter forum.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []forum.Thread{})
	}
	filter.Page.Clean(maxForumPage)
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	threads, err := api.svc.ListThreads(ctx.Request().Context(), usr, filter)
	if err != nil {
		return errors.Wrap(err, "listing threads")
	}
	if threads == nil {
		threads = []forum.Thread{}
	}
	return ctx.JSON(http.StatusOK, threads)
}

func (api *forumApi) createThread(ctx echo.Context) error {
	var data forum.NewThread
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewThread")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	t, err := api.svc.CreateThread(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating thread")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *forumApi) retrieveThread(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	t, err := api.svc.GetThread(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting thread")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *forumApi) updateThread(ctx echo.Context) error {
	var data forum.UpdateThread
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateThread")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	t, err := api.svc.UpdateThread(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating thread")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *forumApi) deleteThread(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.DeleteThread(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting thread")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *forumApi) reply(ctx echo.Context) error {
	var data forum.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.Reply(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "replying")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *forumApi) updatePost(ctx echo.Context) error {
	var data forum.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.UpdatePost(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *forumApi) deletePost(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.DeletePost(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *forumApi) report(ctx echo.Context) error {
	var data forum.NewReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	r, err := api.svc.Report(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "reporting")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *forumApi) moderateThread(ctx echo.Context) error {
	var data forum.ModerateThread
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModerateThread")
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	t, err := api.svc.ModerateThread(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "moderating thread")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *forumApi) hidePost(ctx echo.Context) error {
	var data forum.HidePost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to HidePost")
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.HidePost(ctx.Request().Context(), usr, ctx.Param("id"), data.IsHidden)
	if err != nil {
		return errors.Wrap(err, "hiding post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *forumApi) listReports(ctx echo.Context) error {
	var filter forum.ReportFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []forum.Report{})
	}
	filter.Page.Clean(maxForumPage)
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reports, err := api.svc.ListReports(ctx.Request().Context(), usr, filter)
	if err != nil {
		return errors.Wrap(err, "listing reports")
	}
	if reports == nil {
		reports = []forum.Report{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *forumApi) resolveReport(ctx echo.Context) error {
	var data forum.ResolveReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResolveReport")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	r, err := api.svc.ResolveReport(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "resolving report")
	}
	return ctx.JSON(http.StatusOK, r)
}
