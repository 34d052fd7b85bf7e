package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/smallgroup"
	"github.com/rcos-io/portal/core/user"
)

type smallGroupApi struct {
	svc      *smallgroup.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerSmallGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := smallGroupApi{
		svc:      opts.SmallGroupSvc,
		usrSvc:   opts.UserSvc,
		validate: core.Validate,
	}

	sg := g.Group("/small-groups")

	// un-authed endpoints
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)

	// authed endpoints, route-level jwt to keep the public routes reachable;
	// managing small groups is admin work
	sg.POST("", api.create, jwt, staffMiddleware())
	sg.PUT("/:id", api.update, jwt, staffMiddleware())
	sg.POST("/:id/projects", api.addProject, jwt, staffMiddleware())
	sg.DELETE("/:id/projects/:projectID", api.removeProject, jwt, staffMiddleware())
	sg.POST("/:id/mentors", api.addMentor, jwt, staffMiddleware())
	sg.DELETE("/:id/mentors/:userID", api.removeMentor, jwt, staffMiddleware())
}

// Handlers

func (api *smallGroupApi) create(ctx echo.Context) error {
	var data smallgroup.NewSmallGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSmallGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sg, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating small group")
	}
	return ctx.JSON(http.StatusCreated, sg)
}

func (api *smallGroupApi) query(ctx echo.Context) error {
	groups, err := api.svc.Query(ctx.Request().Context(), core.CleanString(ctx.QueryParam("semester")))
	if err != nil {
		return errors.Wrap(err, "querying small groups")
	}
	if groups == nil {
		groups = []smallgroup.SmallGroup{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *smallGroupApi) retrieve(ctx echo.Context) error {
	sg, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == smallgroup.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting small group")
	}
	return ctx.JSON(http.StatusOK, SmallGroupResponse{SmallGroup: sg, DisplayName: sg.DisplayName()})
}

func (api *smallGroupApi) update(ctx echo.Context) error {
	var data smallgroup.UpdateSmallGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSmallGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sg, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == smallgroup.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating small group")
	}
	return ctx.JSON(http.StatusOK, sg)
}

func (api *smallGroupApi) addProject(ctx echo.Context) error {
	var data GroupProjectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GroupProjectRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	if err := api.svc.AddProject(ctx.Request().Context(), ctx.Param("id"), data.ProjectID); err != nil {
		if errors.Cause(err) == smallgroup.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "adding small group project")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *smallGroupApi) removeProject(ctx echo.Context) error {
	if err := api.svc.RemoveProject(ctx.Request().Context(), ctx.Param("id"), ctx.Param("projectID")); err != nil {
		return errors.Wrap(err, "removing small group project")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *smallGroupApi) addMentor(ctx echo.Context) error {
	var data TeamMemberRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeamMemberRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	mentor, err := api.usrSvc.GetByID(ctx.Request().Context(), data.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	if err := api.svc.AddMentor(ctx.Request().Context(), ctx.Param("id"), mentor); err != nil {
		if errors.Cause(err) == smallgroup.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "adding small group mentor")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *smallGroupApi) removeMentor(ctx echo.Context) error {
	mentor, err := api.usrSvc.GetByID(ctx.Request().Context(), ctx.Param("userID"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	if err := api.svc.RemoveMentor(ctx.Request().Context(), ctx.Param("id"), mentor); err != nil {
		return errors.Wrap(err, "removing small group mentor")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	GroupProjectRequest struct {
		ProjectID string `json:"project_id" validate:"required"`
	}

	SmallGroupResponse struct {
		smallgroup.SmallGroup
		DisplayName string `json:"display_name"`
	}
)
