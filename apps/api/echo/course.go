package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/services/authz"
)

const maxCoursePage = 100

type courseApi struct {
	svc      course.Service
	users    user.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := courseApi{
		svc:      opts.CourseSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	// public catalog
	g.GET("/courses", api.list)
	g.GET("/courses/:slug", api.retrieve)

	lg := g.Group("/learning",
		jwt,
		activeUserMiddleware(api.users),
		permissionMiddleware(opts.Enforcer, api.users, authz.ObjCourse, authz.ActLearn),
	)
	lg.GET("/enrollments", api.enrollments)
	lg.POST("/courses/:id/enroll", api.enroll)
	lg.GET("/courses/:id/progress", api.progress)
	lg.GET("/lessons/:id", api.lesson)
	lg.POST("/lessons/:id/complete", api.completeLesson)
	lg.POST("/lessons/:id/quiz", api.submitQuiz)
}

func (api *courseApi) list(ctx echo.Context) error {
	var filter course.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Page.Clean(maxCoursePage)

	courses, err := api.svc.ListCourses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) enrollments(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	enrs, err := api.svc.ListEnrollments(ctx.Request().Context(), usr.ID, queryBool(ctx, "completed"))
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	if enrs == nil {
		enrs = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	enr, err := api.svc.Enroll(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseApi) progress(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	p, err := api.svc.GetProgress(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *courseApi) lesson(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	view, err := api.svc.GetLesson(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *courseApi) completeLesson(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	p, err := api.svc.CompleteLesson(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing lesson")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *courseApi) submitQuiz(ctx echo.Context) error {
	var data course.QuizAnswers
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizAnswers")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.SubmitQuiz(ctx.Request().Context(), usr.ID, ctx.Param("id"), data.Answers)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusOK, res)
}

// Catalog management

type catalogApi struct {
	svc      course.Service
	users    user.Service
	validate *validator.Validate
}

func registerCatalogAPI(admin *echo.Group, opts *Options) {
	api := catalogApi{
		svc:      opts.CourseSvc,
		users:    opts.UserSvc,
		validate: opts.Validate,
	}

	cg := admin.Group("", permissionMiddleware(opts.Enforcer, api.users, authz.ObjCatalog, authz.ActManage))
	cg.GET("/courses", api.listCourses)
	cg.POST("/courses", api.createCourse)
	cg.GET("/courses/:id", api.retrieveCourse)
	cg.PUT("/courses/:id", api.updateCourse)
	cg.DELETE("/courses/:id", api.deleteCourse)
	cg.POST("/courses/:id/publish", api.publish(true))
	cg.POST("/courses/:id/unpublish", api.publish(false))

	cg.POST("/courses/:id/modules", api.createModule)
	cg.PUT("/courses/:id/modules/order", api.reorderModules)
	cg.PUT("/modules/:id", api.updateModule)
	cg.DELETE("/modules/:id", api.deleteModule)

	cg.POST("/modules/:id/lessons", api.createLesson)
	cg.PUT("/modules/:id/lessons/order", api.reorderLessons)
	cg.GET("/lessons/:id", api.retrieveLesson)
	cg.PUT("/lessons/:id", api.updateLesson)
	cg.DELETE("/lessons/:id", api.deleteLesson)
	cg.PUT("/lessons/:id/questions", api.replaceQuestions)
}

func (api *catalogApi) listCourses(ctx echo.Context) error {
	var filter course.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Page.Clean(maxCoursePage)

	courses, err := api.svc.AdminListCourses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *catalogApi) createCourse(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	c, err := api.svc.CreateCourse(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *catalogApi) retrieveCourse(ctx echo.Context) error {
	c, err := api.svc.AdminGetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *catalogApi) updateCourse(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.UpdateCourse(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *catalogApi) deleteCourse(ctx echo.Context) error {
	if err := api.svc.DeleteCourse(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) publish(published bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		c, err := api.svc.SetPublished(ctx.Request().Context(), ctx.Param("id"), published)
		if err != nil {
			return errors.Wrap(err, "publishing course")
		}
		return ctx.JSON(http.StatusOK, c)
	}
}

func (api *catalogApi) createModule(ctx echo.Context) error {
	var data course.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.CreateModule(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *catalogApi) updateModule(ctx echo.Context) error {
	var data course.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.UpdateModule(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *catalogApi) deleteModule(ctx echo.Context) error {
	if err := api.svc.DeleteModule(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting module")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) reorderModules(ctx echo.Context) error {
	var data course.Reorder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Reorder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.ReorderModules(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reordering modules")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *catalogApi) createLesson(ctx echo.Context) error {
	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.CreateLesson(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *catalogApi) retrieveLesson(ctx echo.Context) error {
	l, err := api.svc.AdminGetLesson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *catalogApi) updateLesson(ctx echo.Context) error {
	var data course.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.UpdateLesson(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *catalogApi) deleteLesson(ctx echo.Context) error {
	if err := api.svc.DeleteLesson(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) reorderLessons(ctx echo.Context) error {
	var data course.Reorder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Reorder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.ReorderLessons(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reordering lessons")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *catalogApi) replaceQuestions(ctx echo.Context) error {
	var data course.ReplaceQuestions
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplaceQuestions")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.ReplaceQuestions(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "replacing questions")
	}
	return ctx.JSON(http.StatusOK, l)
}
