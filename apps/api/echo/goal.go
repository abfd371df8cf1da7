package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core/goal"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/services/authz"
)

type goalApi struct {
	svc      goal.Service
	users    user.Service
	validate *validator.Validate
}

func registerGoalAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := goalApi{
		svc:      opts.GoalSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}
	mws := []echo.MiddlewareFunc{
		jwt,
		activeUserMiddleware(api.users),
		permissionMiddleware(opts.Enforcer, api.users, authz.ObjGoal, authz.ActWrite),
	}

	gg := g.Group("/goals", mws...)
	gg.GET("", api.list)
	gg.POST("", api.create)
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update)
	gg.DELETE("/:id", api.destroy)
	gg.GET("/:id/history", api.history)
	gg.POST("/:id/categories", api.addCategory)
	gg.PUT("/:id/categories/order", api.reorderCategories)

	cg := g.Group("/goal-categories", mws...)
	cg.PUT("/:id", api.updateCategory)
	cg.DELETE("/:id", api.deleteCategory)
	cg.POST("/:id/topics", api.addTopic)
	cg.PUT("/:id/topics/order", api.reorderTopics)

	tg := g.Group("/goal-topics", mws...)
	tg.PUT("/:id", api.updateTopic)
	tg.DELETE("/:id", api.deleteTopic)
	tg.POST("/:id/subtopics", api.addSubtopic)
	tg.PUT("/:id/subtopics/order", api.reorderSubtopics)

	sg := g.Group("/goal-subtopics", mws...)
	sg.PUT("/:id", api.updateSubtopic)
	sg.PUT("/:id/status", api.setStatus)
	sg.DELETE("/:id", api.deleteSubtopic)
}

// owner returns the ID of the authenticated user.
func (api *goalApi) owner(ctx echo.Context) (string, error) {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}
	return usr.ID, nil
}

func (api *goalApi) list(ctx echo.Context) error {
	userID, err := api.owner(ctx)
	if err != nil {
		return err
	}
	goals, err := api.svc.ListGoals(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "listing goals")
	}
	if goals == nil {
		goals = []goal.Goal{}
	}
	return ctx.JSON(http.StatusOK, goals)
}

func (api *goalApi) create(ctx echo.Context) error {
	var data goal.NewGoal
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGoal")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	userID, err := api.owner(ctx)
	if err != nil {
		return err
	}

	gl, err := api.svc.CreateGoal(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating goal")
	}
	return ctx.JSON(http.StatusCreated, gl)
}

func (api *goalApi) retrieve(ctx echo.Context) error {
	userID, err := api.owner(ctx)
	if err != nil {
		return err
	}
	gl, err := api.svc.GetGoal(ctx.Request().Context(), userID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting goal")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) update(ctx echo.Context) error {
	var data goal.UpdateGoal
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGoal")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	userID, err := api.owner(ctx)
	if err != nil {
		return err
	}

	gl, err := api.svc.UpdateGoal(ctx.Request().Context(), userID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating goal")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) destroy(ctx echo.Context) error {
	userID, err := api.owner(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteGoal(ctx.Request().Context(), userID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting goal")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *goalApi) history(ctx echo.Context) error {
	userID, err := api.owner(ctx)
	if err != nil {
		return err
	}
	points, err := api.svc.History(ctx.Request().Context(), userID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting goal history")
	}
	if points == nil {
		points = []goal.HistoryPoint{}
	}
	return ctx.JSON(http.StatusOK, points)
}

// nodeHandler binds and validates a NewNode then runs a tree mutation on the node of the "id" param.
func (api *goalApi) nodeHandler(what string, mutate func(ctx echo.Context, userID, id string, nn goal.NewNode) (goal.Goal, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data goal.NewNode
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to NewNode")
		}
		if err := data.Validate(api.validate); err != nil {
			return err
		}
		userID, err := api.owner(ctx)
		if err != nil {
			return err
		}

		gl, err := mutate(ctx, userID, ctx.Param("id"), data)
		if err != nil {
			return errors.Wrap(err, what)
		}
		return ctx.JSON(http.StatusOK, gl)
	}
}

func (api *goalApi) reorderHandler(what string, reorder func(ctx echo.Context, userID, id string, ro goal.Reorder) (goal.Goal, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data goal.Reorder
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to Reorder")
		}
		if err := data.Validate(api.validate); err != nil {
			return err
		}
		userID, err := api.owner(ctx)
		if err != nil {
			return err
		}

		gl, err := reorder(ctx, userID, ctx.Param("id"), data)
		if err != nil {
			return errors.Wrap(err, what)
		}
		return ctx.JSON(http.StatusOK, gl)
	}
}

func (api *goalApi) deleteHandler(what string, del func(ctx echo.Context, userID, id string) (goal.Goal, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		userID, err := api.owner(ctx)
		if err != nil {
			return err
		}
		gl, err := del(ctx, userID, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, what)
		}
		return ctx.JSON(http.StatusOK, gl)
	}
}

func (api *goalApi) addCategory(ctx echo.Context) error {
	return api.nodeHandler("adding category", func(ctx echo.Context, userID, id string, nn goal.NewNode) (goal.Goal, error) {
		return api.svc.AddCategory(ctx.Request().Context(), userID, id, nn)
	})(ctx)
}

func (api *goalApi) updateCategory(ctx echo.Context) error {
	return api.nodeHandler("updating category", func(ctx echo.Context, userID, id string, nn goal.NewNode) (goal.Goal, error) {
		return api.svc.UpdateCategory(ctx.Request().Context(), userID, id, nn)
	})(ctx)
}

func (api *goalApi) deleteCategory(ctx echo.Context) error {
	return api.deleteHandler("deleting category", func(ctx echo.Context, userID, id string) (goal.Goal, error) {
		return api.svc.DeleteCategory(ctx.Request().Context(), userID, id)
	})(ctx)
}

func (api *goalApi) reorderCategories(ctx echo.Context) error {
	return api.reorderHandler("reordering categories", func(ctx echo.Context, userID, id string, ro goal.Reorder) (goal.Goal, error) {
		return api.svc.ReorderCategories(ctx.Request().Context(), userID, id, ro)
	})(ctx)
}

func (api *goalApi) addTopic(ctx echo.Context) error {
	return api.nodeHandler("adding topic", func(ctx echo.Context, userID, id string, nn goal.NewNode) (goal.Goal, error) {
		return api.svc.AddTopic(ctx.Request().Context(), userID, id, nn)
	})(ctx)
}

func (api *goalApi) updateTopic(ctx echo.Context) error {
	return api.nodeHandler("updating topic", func(ctx echo.Context, userID, id string, nn goal.NewNode) (goal.Goal, error) {
		return api.svc.UpdateTopic(ctx.Request().Context(), userID, id, nn)
	})(ctx)
}

func (api *goalApi) deleteTopic(ctx echo.Context) error {
	return api.deleteHandler("deleting topic", func(ctx echo.Context, userID, id string) (goal.Goal, error) {
		return api.svc.DeleteTopic(ctx.Request().Context(), userID, id)
	})(ctx)
}

func (api *goalApi) reorderTopics(ctx echo.Context) error {
	return api.reorderHandler("reordering topics", func(ctx echo.Context, userID, id string, ro goal.Reorder) (goal.Goal, error) {
		return api.svc.ReorderTopics(ctx.Request().Context(), userID, id, ro)
	})(ctx)
}

func (api *goalApi) addSubtopic(ctx echo.Context) error {
	var data goal.NewSubtopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubtopic")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	userID, err := api.owner(ctx)
	if err != nil {
		return err
	}

	gl, err := api.svc.AddSubtopic(ctx.Request().Context(), userID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding subtopic")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) updateSubtopic(ctx echo.Context) error {
	var data goal.UpdateSubtopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubtopic")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	userID, err := api.owner(ctx)
	if err != nil {
		return err
	}

	gl, err := api.svc.UpdateSubtopic(ctx.Request().Context(), userID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating subtopic")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) setStatus(ctx echo.Context) error {
	var data goal.SetStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	userID, err := api.owner(ctx)
	if err != nil {
		return err
	}

	gl, err := api.svc.SetSubtopicStatus(ctx.Request().Context(), userID, ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "setting subtopic status")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) deleteSubtopic(ctx echo.Context) error {
	return api.deleteHandler("deleting subtopic", func(ctx echo.Context, userID, id string) (goal.Goal, error) {
		return api.svc.DeleteSubtopic(ctx.Request().Context(), userID, id)
	})(ctx)
}

func (api *goalApi) reorderSubtopics(ctx echo.Context) error {
	return api.reorderHandler("reordering subtopics", func(ctx echo.Context, userID, id string, ro goal.Reorder) (goal.Goal, error) {
		return api.svc.ReorderSubtopics(ctx.Request().Context(), userID, id, ro)
	})(ctx)
}
