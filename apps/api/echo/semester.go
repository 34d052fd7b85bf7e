package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/semester"
)

type semesterApi struct {
	svc      *semester.Service
	validate *validator.Validate
}

func registerSemesterAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := semesterApi{
		svc:      opts.SemesterSvc,
		validate: core.Validate,
	}

	sg := g.Group("/semesters")

	// un-authed endpoints
	sg.GET("", api.query)
	sg.GET("/current", api.current)
	sg.GET("/:id", api.retrieve)

	// authed endpoints; jwt is attached per route, a middleware sub-group
	// would register catch-alls shadowing the public routes above
	sg.POST("", api.create, jwt, staffMiddleware())
	sg.PUT("/:id", api.update, jwt, staffMiddleware())
}

// Handlers

func (api *semesterApi) create(ctx echo.Context) error {
	var data semester.NewSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSemester")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sem, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating semester")
	}
	return ctx.JSON(http.StatusCreated, sem)
}

func (api *semesterApi) query(ctx echo.Context) error {
	sems, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying semesters")
	}
	if sems == nil {
		sems = []semester.Semester{}
	}
	return ctx.JSON(http.StatusOK, sems)
}

// current returns the active semester, falling back to the most recent one.
func (api *semesterApi) current(ctx echo.Context) error {
	sem, err := api.svc.GetActiveOrLatest(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) == semester.ErrNoSemester {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting current semester")
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *semesterApi) retrieve(ctx echo.Context) error {
	sem, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == semester.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting semester")
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *semesterApi) update(ctx echo.Context) error {
	sem, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == semester.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting semester")
	}

	var data semester.UpdateSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSemester")
	}
	if err := data.Validate(sem, api.validate); err != nil {
		return err
	}

	sem, err = api.svc.Update(ctx.Request().Context(), sem.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating semester")
	}
	return ctx.JSON(http.StatusOK, sem)
}
