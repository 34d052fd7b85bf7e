package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/semester"
	"github.com/rcos-io/portal/core/user"
)

type projectApi struct {
	svc      *project.Service
	semSvc   *semester.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerProjectAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := projectApi{
		svc:      opts.ProjectSvc,
		semSvc:   opts.SemesterSvc,
		usrSvc:   opts.UserSvc,
		validate: core.Validate,
	}

	pg := g.Group("/projects")

	// un-authed endpoints
	pg.GET("", api.query)
	pg.GET("/:slug", api.retrieve)
	pg.GET("/:slug/repositories", api.repositories)
	pg.GET("/:slug/team", api.team)

	// authed endpoints, route-level jwt to keep the public routes reachable
	pg.POST("", api.create, jwt, approvedMiddleware())
	pg.PUT("/:slug", api.update, jwt)
	pg.POST("/:slug/approve", api.approve, jwt, staffMiddleware())
	pg.POST("/:slug/team", api.addToTeam, jwt)
	pg.DELETE("/:slug/team/:userID", api.removeFromTeam, jwt)
	pg.POST("/:slug/pitch", api.addPitch, jwt)
	pg.POST("/:slug/proposal", api.addProposal, jwt)
	pg.PUT("/:slug/proposal/grade", api.gradeProposal, jwt, staffMiddleware())
	pg.POST("/:slug/presentation", api.addPresentation, jwt)
	pg.PUT("/:slug/presentation/grade", api.gradePresentation, jwt, staffMiddleware())
}

// resolveSemester picks the semester from the "semester" query param,
// defaulting to the active (or most recent) one.
func resolveSemester(ctx echo.Context, svc *semester.Service) (semester.Semester, error) {
	if id := core.CleanString(ctx.QueryParam("semester")); id != "" {
		sem, err := svc.Get(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) == semester.ErrNotFound {
				return semester.Semester{}, errHttpNotFound
			}
			return semester.Semester{}, errors.Wrap(err, "getting semester")
		}
		return sem, nil
	}

	sem, err := svc.GetActiveOrLatest(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) == semester.ErrNoSemester {
			return semester.Semester{}, errHttpNotFound
		}
		return semester.Semester{}, errors.Wrap(err, "getting current semester")
	}
	return sem, nil
}

func (api *projectApi) getProject(ctx echo.Context) (project.Project, error) {
	proj, err := api.svc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		if errors.Cause(err) == project.ErrNotFound {
			return project.Project{}, errHttpNotFound
		}
		return project.Project{}, errors.Wrap(err, "getting project")
	}
	return proj, nil
}

// Handlers

func (api *projectApi) create(ctx echo.Context) error {
	var data project.NewProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProject")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sem, err := resolveSemester(ctx, api.semSvc)
	if err != nil {
		return err
	}

	proj, err := api.svc.Create(ctx.Request().Context(), usr, sem, data)
	if err != nil {
		switch errors.Cause(err) {
		case project.ErrNotApprovedUser, project.ErrSemesterClosed,
			project.ErrTooManyOwnedProjects, project.ErrAlreadyOnProject:
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, proj)
}

func (api *projectApi) query(ctx echo.Context) error {
	filter := new(project.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []project.Project{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	projs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying projects")
	}
	if projs == nil {
		projs = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, projs)
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	proj, err := api.getProject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, proj)
}

func (api *projectApi) update(ctx echo.Context) error {
	proj, err := api.getProject(ctx)
	if err != nil {
		return err
	}

	var data project.UpdateProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProject")
	}
	if err := data.Validate(proj, api.validate, api.svc); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sem, err := resolveSemester(ctx, api.semSvc)
	if err != nil {
		return err
	}

	proj, err = api.svc.Update(ctx.Request().Context(), usr, sem, proj, data)
	if err != nil {
		if errors.Cause(err) == project.ErrNotLeadOrOwner {
			return errHttpForbidden
		}
		return errors.Wrap(err, "updating project")
	}
	return ctx.JSON(http.StatusOK, proj)
}

func (api *projectApi) approve(ctx echo.Context) error {
	proj, err := api.getProject(ctx)
	if err != nil {
		return err
	}

	proj, err = api.svc.Approve(ctx.Request().Context(), proj)
	if err != nil {
		return errors.Wrap(err, "approving project")
	}
	return ctx.JSON(http.StatusOK, proj)
}

// repositories returns live metadata for the project's linked repositories.
func (api *projectApi) repositories(ctx echo.Context) error {
	proj, err := api.getProject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.RepositoriesInfo(ctx.Request().Context(), proj))
}

func (api *projectApi) team(ctx echo.Context) error {
	proj, err := api.getProject(ctx)
	if err != nil {
		return err
	}
	sem, err := resolveSemester(ctx, api.semSvc)
	if err != nil {
		return err
	}

	team, err := api.svc.Team(ctx.Request().Context(), sem, proj)
	if err != nil {
		return errors.Wrap(err, "querying project team")
	}
	return ctx.JSON(http.StatusOK, team)
}

func (api *projectApi) addToTeam(ctx echo.Context) error {
	proj, err := api.getProject(ctx)
	if err != nil {
		return err
	}
	sem, err := resolveSemester(ctx, api.semSvc)
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsStaff && !api.svc.IsLeadOrOwner(ctx.Request().Context(), actor, sem, proj) {
		return errHttpForbidden
	}

	var data TeamMemberRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeamMemberRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), data.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	enr, err := api.svc.AddToTeam(ctx.Request().Context(), actor, usr, sem, proj)
	if err != nil {
		return errors.Wrap(err, "adding to team")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *projectApi) removeFromTeam(ctx echo.Context) error {
	proj, err := api.getProject(ctx)
	if err != nil {
		return err
	}
	sem, err := resolveSemester(ctx, api.semSvc)
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// members may leave on their own; otherwise lead/owner or staff only
	if ctx.Param("userID") != actor.ID &&
		!claims.IsStaff && !api.svc.IsLeadOrOwner(ctx.Request().Context(), actor, sem, proj) {
		return errHttpForbidden
	}

	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), ctx.Param("userID"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	if err := api.svc.RemoveFromTeam(ctx.Request().Context(), actor, usr, sem, proj); err != nil {
		return errors.Wrap(err, "removing from team")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *projectApi) addPitch(ctx echo.Context) error {
	proj, sem, usr, data, err := api.bindSubmission(ctx)
	if err != nil {
		return err
	}

	pitch, err := api.svc.AddPitch(ctx.Request().Context(), usr, sem, proj, data)
	if err != nil {
		return wrapSubmissionErr(err, "adding pitch")
	}
	return ctx.JSON(http.StatusCreated, pitch)
}

func (api *projectApi) addProposal(ctx echo.Context) error {
	proj, sem, usr, data, err := api.bindSubmission(ctx)
	if err != nil {
		return err
	}

	prop, err := api.svc.AddProposal(ctx.Request().Context(), usr, sem, proj, data)
	if err != nil {
		return wrapSubmissionErr(err, "adding proposal")
	}
	return ctx.JSON(http.StatusCreated, prop)
}

func (api *projectApi) addPresentation(ctx echo.Context) error {
	proj, sem, usr, data, err := api.bindSubmission(ctx)
	if err != nil {
		return err
	}

	pres, err := api.svc.AddPresentation(ctx.Request().Context(), usr, sem, proj, data)
	if err != nil {
		return wrapSubmissionErr(err, "adding presentation")
	}
	return ctx.JSON(http.StatusCreated, pres)
}

func (api *projectApi) gradeProposal(ctx echo.Context) error {
	proj, sem, grader, data, err := api.bindGrade(ctx)
	if err != nil {
		return err
	}

	prop, err := api.svc.GradeProposal(ctx.Request().Context(), grader, sem.ID, proj.ID, data)
	if err != nil {
		if errors.Cause(err) == project.ErrSubmissionMissing {
			return errHttpNotFound
		}
		return errors.Wrap(err, "grading proposal")
	}
	return ctx.JSON(http.StatusOK, prop)
}

func (api *projectApi) gradePresentation(ctx echo.Context) error {
	proj, sem, grader, data, err := api.bindGrade(ctx)
	if err != nil {
		return err
	}

	pres, err := api.svc.GradePresentation(ctx.Request().Context(), grader, sem.ID, proj.ID, data)
	if err != nil {
		if errors.Cause(err) == project.ErrSubmissionMissing {
			return errHttpNotFound
		}
		return errors.Wrap(err, "grading presentation")
	}
	return ctx.JSON(http.StatusOK, pres)
}

func (api *projectApi) bindSubmission(ctx echo.Context) (project.Project, semester.Semester, user.User, project.SubmitURL, error) {
	var data project.SubmitURL

	proj, err := api.getProject(ctx)
	if err != nil {
		return proj, semester.Semester{}, user.User{}, data, err
	}
	sem, err := resolveSemester(ctx, api.semSvc)
	if err != nil {
		return proj, sem, user.User{}, data, err
	}
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return proj, sem, usr, data, errors.Wrap(err, "getting context user")
	}

	if err := ctx.Bind(&data); err != nil {
		return proj, sem, usr, data, errors.Wrap(err, "binding to SubmitURL")
	}
	if err := data.Validate(api.validate); err != nil {
		return proj, sem, usr, data, err
	}
	return proj, sem, usr, data, nil
}

func (api *projectApi) bindGrade(ctx echo.Context) (project.Project, semester.Semester, user.User, project.GradeSubmission, error) {
	var data project.GradeSubmission

	proj, err := api.getProject(ctx)
	if err != nil {
		return proj, semester.Semester{}, user.User{}, data, err
	}
	sem, err := resolveSemester(ctx, api.semSvc)
	if err != nil {
		return proj, sem, user.User{}, data, err
	}
	grader, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return proj, sem, grader, data, errors.Wrap(err, "getting context user")
	}

	if err := ctx.Bind(&data); err != nil {
		return proj, sem, grader, data, errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return proj, sem, grader, data, err
	}
	return proj, sem, grader, data, nil
}

func wrapSubmissionErr(err error, msg string) error {
	switch errors.Cause(err) {
	case project.ErrNotApprovedUser, project.ErrSemesterClosed, project.ErrPitchExists:
		return core.NewValidationError(errors.Cause(err))
	case project.ErrNotLeadOrOwner:
		return errHttpForbidden
	}
	return errors.Wrap(err, msg)
}

type TeamMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}
