package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/statusupdate"
	"github.com/rcos-io/portal/core/user"
)

type statusUpdateApi struct {
	svc      *statusupdate.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerStatusUpdateAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := statusUpdateApi{
		svc:      opts.StatusUpdateSvc,
		usrSvc:   opts.UserSvc,
		validate: core.Validate,
	}

	sg := g.Group("/status-updates")
	sg.GET("", api.query, jwt)
	sg.POST("", api.create, jwt, staffMiddleware())
	sg.GET("/mine", api.mySubmissions, jwt)
	sg.GET("/:id", api.retrieve, jwt)
	sg.POST("/:id/submit", api.submit, jwt, approvedMiddleware())
	sg.GET("/:id/submissions", api.submissions, jwt, staffMiddleware())
	sg.PUT("/submissions/:id/grade", api.grade, jwt, staffMiddleware())
}

// Handlers

func (api *statusUpdateApi) create(ctx echo.Context) error {
	var data statusupdate.NewStatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStatusUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	su, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating status update")
	}
	return ctx.JSON(http.StatusCreated, su)
}

func (api *statusUpdateApi) query(ctx echo.Context) error {
	sus, err := api.svc.Query(ctx.Request().Context(), core.CleanString(ctx.QueryParam("semester")))
	if err != nil {
		return errors.Wrap(err, "querying status updates")
	}
	if sus == nil {
		sus = []statusupdate.StatusUpdate{}
	}
	return ctx.JSON(http.StatusOK, sus)
}

func (api *statusUpdateApi) retrieve(ctx echo.Context) error {
	su, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == statusupdate.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting status update")
	}
	return ctx.JSON(http.StatusOK, StatusUpdateResponse{StatusUpdate: su, DisplayName: su.DisplayName()})
}

func (api *statusUpdateApi) submit(ctx echo.Context) error {
	var data statusupdate.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), usr, data)
	if err != nil {
		switch errors.Cause(err) {
		case statusupdate.ErrNotFound:
			return errHttpNotFound
		case statusupdate.ErrWindowClosed, statusupdate.ErrAlreadySubmitted:
			return core.NewValidationError(errors.Cause(err))
		}
		return errors.Wrap(err, "submitting status update")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *statusUpdateApi) submissions(ctx echo.Context) error {
	subs, err := api.svc.Submissions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []statusupdate.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

// mySubmissions lists the caller's submissions, optionally scoped to a semester.
func (api *statusUpdateApi) mySubmissions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	subs, err := api.svc.UserSubmissions(ctx.Request().Context(), claims.Subject, core.CleanString(ctx.QueryParam("semester")))
	if err != nil {
		return errors.Wrap(err, "querying user submissions")
	}
	if subs == nil {
		subs = []statusupdate.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *statusUpdateApi) grade(ctx echo.Context) error {
	var data statusupdate.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grader, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), grader, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == statusupdate.ErrSubmissionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

type StatusUpdateResponse struct {
	statusupdate.StatusUpdate
	DisplayName string `json:"display_name"`
}
