package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/profile"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/services/authz"
)

type profileApi struct {
	svc       profile.Service
	users     user.Service
	courses   course.Service
	gamifySvc gamification.Service
	validate  *validator.Validate
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := profileApi{
		svc:       opts.ProfileSvc,
		users:     opts.UserSvc,
		courses:   opts.CourseSvc,
		gamifySvc: opts.GamificationSvc,
		validate:  opts.Validate,
	}

	g.GET("/portfolios/:slug", api.portfolio, optionalJWT(), optionalUserMiddleware(api.users))

	pg := g.Group("/me/profile",
		jwt,
		activeUserMiddleware(api.users),
		permissionMiddleware(opts.Enforcer, api.users, authz.ObjProfile, authz.ActWrite),
	)
	pg.GET("", api.retrieve)
	pg.PUT("", api.update)
	pg.PUT("/order", api.reorder)

	pg.POST("/experiences", api.addExperience)
	pg.PUT("/experiences/:id", api.updateExperience)
	pg.DELETE("/experiences/:id", api.deleteExperience)

	pg.POST("/educations", api.addEducation)
	pg.PUT("/educations/:id", api.updateEducation)
	pg.DELETE("/educations/:id", api.deleteEducation)

	pg.POST("/skills", api.addSkill)
	pg.PUT("/skills/:id", api.updateSkill)
	pg.DELETE("/skills/:id", api.deleteSkill)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	p, err := api.svc.GetMyProfile(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) update(ctx echo.Context) error {
	var data profile.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.UpdateProfile(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) reorder(ctx echo.Context) error {
	var data profile.Reorder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Reorder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.Reorder(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "reordering profile section")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) addExperience(ctx echo.Context) error {
	var data profile.ExperienceInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExperienceInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	exp, err := api.svc.AddExperience(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding experience")
	}
	return ctx.JSON(http.StatusCreated, exp)
}

func (api *profileApi) updateExperience(ctx echo.Context) error {
	var data profile.ExperienceInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExperienceInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	exp, err := api.svc.UpdateExperience(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating experience")
	}
	return ctx.JSON(http.StatusOK, exp)
}

func (api *profileApi) deleteExperience(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.DeleteExperience(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting experience")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *profileApi) addEducation(ctx echo.Context) error {
	var data profile.EducationInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EducationInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	edu, err := api.svc.AddEducation(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding education")
	}
	return ctx.JSON(http.StatusCreated, edu)
}

func (api *profileApi) updateEducation(ctx echo.Context) error {
	var data profile.EducationInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EducationInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	edu, err := api.svc.UpdateEducation(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating education")
	}
	return ctx.JSON(http.StatusOK, edu)
}

func (api *profileApi) deleteEducation(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.DeleteEducation(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting education")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *profileApi) addSkill(ctx echo.Context) error {
	var data profile.SkillInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SkillInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	skill, err := api.svc.AddSkill(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding skill")
	}
	return ctx.JSON(http.StatusCreated, skill)
}

func (api *profileApi) updateSkill(ctx echo.Context) error {
	var data profile.SkillInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SkillInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	skill, err := api.svc.UpdateSkill(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating skill")
	}
	return ctx.JSON(http.StatusOK, skill)
}

func (api *profileApi) deleteSkill(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.DeleteSkill(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting skill")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// portfolio renders the printable career page: the profile, its owner's achievements and finished courses.
func (api *profileApi) portfolio(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	var viewerID string
	if viewer, ok := ctx.Get(contextUserKey).(user.User); ok {
		viewerID = viewer.ID
	}

	p, err := api.svc.GetPortfolio(rctx, viewerID, ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "getting portfolio")
	}
	owner, err := api.users.GetByID(rctx, p.UserID)
	if err != nil {
		return errors.Wrap(err, "getting portfolio owner")
	}
	summary, err := api.gamifySvc.Summary(rctx, p.UserID)
	if err != nil {
		return errors.Wrap(err, "getting XP summary")
	}
	badges, err := api.gamifySvc.UserBadges(rctx, p.UserID)
	if err != nil {
		return errors.Wrap(err, "getting badges")
	}
	completed, err := api.courses.ListEnrollments(rctx, p.UserID, true /* completedOnly */)
	if err != nil {
		return errors.Wrap(err, "getting completed courses")
	}

	if badges == nil {
		badges = []gamification.UserBadge{}
	}
	if completed == nil {
		completed = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, Portfolio{
		Profile:          p,
		Name:             owner.Name,
		Username:         owner.Username,
		Gamification:     summary,
		Badges:           badges,
		CompletedCourses: completed,
	})
}

// Portfolio is the public career page of a user.
type Portfolio struct {
	profile.Profile
	Name             string                   `json:"name"`
	Username         string                   `json:"username"`
	Gamification     gamification.Summary     `json:"gamification"`
	Badges           []gamification.UserBadge `json:"badges"`
	CompletedCourses []course.Enrollment      `json:"completed_courses"`
}
