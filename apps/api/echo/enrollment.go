package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/enrollment"
)

type enrollmentApi struct {
	svc      *enrollment.Service
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := enrollmentApi{
		svc:      opts.EnrollmentSvc,
		validate: core.Validate,
	}

	eg := g.Group("/enrollments")
	eg.GET("", api.query, jwt)
	eg.GET("/admins", api.queryAdmins, jwt)
	eg.POST("", api.enroll, jwt, staffMiddleware())
	eg.GET("/:semester/:user", api.retrieve, jwt)
	eg.PUT("/:semester/:user/grade", api.setFinalGrade, jwt, staffMiddleware())
}

// Handlers

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	var data enrollment.EnrollUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "enrolling user")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Enrollment{})
	}

	enrs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

// queryAdmins lists a semester's coordinators and faculty advisors.
func (api *enrollmentApi) queryAdmins(ctx echo.Context) error {
	admins, err := api.svc.SemesterAdmins(ctx.Request().Context(), ctx.QueryParam("semester"))
	if err != nil {
		return errors.Wrap(err, "querying semester admins")
	}
	if admins == nil {
		admins = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, admins)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// final grades and notes are private
	if !claims.IsStaff && claims.Subject != ctx.Param("user") {
		return errHttpForbidden
	}

	enr, err := api.svc.Get(ctx.Request().Context(), ctx.Param("semester"), ctx.Param("user"))
	if err != nil {
		if errors.Cause(err) == enrollment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) setFinalGrade(ctx echo.Context) error {
	var data FinalGradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FinalGradeRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	enr, err := api.svc.SetFinalGrade(ctx.Request().Context(), ctx.Param("semester"), ctx.Param("user"), data.FinalGrade)
	if err != nil {
		if errors.Cause(err) == enrollment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting final grade")
	}
	return ctx.JSON(http.StatusOK, enr)
}

type FinalGradeRequest struct {
	FinalGrade float64 `json:"final_grade" validate:"min=0,max=4"`
}
