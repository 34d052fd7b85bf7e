package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/meeting"
)

type meetingApi struct {
	svc      *meeting.Service
	validate *validator.Validate
}

func registerMeetingAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := meetingApi{
		svc:      opts.MeetingSvc,
		validate: core.Validate,
	}

	mg := g.Group("/meetings")

	// un-authed endpoints
	mg.GET("", api.query)
	mg.GET("/next", api.next)
	mg.GET("/ongoing", api.ongoing)
	mg.GET("/:id", api.retrieve)

	// authed endpoints, route-level jwt to keep the public routes reachable
	mg.POST("", api.create, jwt, staffMiddleware())
	mg.PUT("/:id", api.update, jwt, staffMiddleware())
	mg.POST("/:id/publish", api.publish, jwt, staffMiddleware())
	mg.POST("/:id/attend", api.attend, jwt)
	mg.GET("/:id/attendances", api.attendances, jwt, staffMiddleware())
}

// isStaffRequest reports whether the request carries a valid staff token. It
// also works on public routes, where no JWT middleware runs.
func isStaffRequest(ctx echo.Context) bool {
	claims, err := parseRequestClaims(ctx)
	return err == nil && claims.IsStaff
}

// Handlers

func (api *meetingApi) create(ctx echo.Context) error {
	var data meeting.NewMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMeeting")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mtg, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating meeting")
	}
	return ctx.JSON(http.StatusCreated, mtg)
}

func (api *meetingApi) query(ctx echo.Context) error {
	filter := new(meeting.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []meeting.Meeting{})
	}
	// drafts are staff-only
	filter.PublishedOnly = !isStaffRequest(ctx)

	mtgs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying meetings")
	}
	if mtgs == nil {
		mtgs = []meeting.Meeting{}
	}
	return ctx.JSON(http.StatusOK, mtgs)
}

// next returns the first published meeting ending now or later.
func (api *meetingApi) next(ctx echo.Context) error {
	mtg, err := api.svc.GetNext(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting next meeting")
	}
	return ctx.JSON(http.StatusOK, mtg)
}

// ongoing returns the published meeting happening right now, if any.
func (api *meetingApi) ongoing(ctx echo.Context) error {
	mtg, err := api.svc.GetOngoing(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting ongoing meeting")
	}
	return ctx.JSON(http.StatusOK, mtg)
}

func (api *meetingApi) retrieve(ctx echo.Context) error {
	mtg, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting meeting")
	}
	if !mtg.IsPublished && !isStaffRequest(ctx) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, MeetingResponse{
		Meeting:              mtg,
		DisplayName:          mtg.DisplayName(),
		Color:                mtg.Color(),
		PresentationEmbedURL: mtg.PresentationEmbedURL(),
	})
}

func (api *meetingApi) update(ctx echo.Context) error {
	var data meeting.UpdateMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMeeting")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mtg, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating meeting")
	}
	return ctx.JSON(http.StatusOK, mtg)
}

func (api *meetingApi) publish(ctx echo.Context) error {
	mtg, err := api.svc.Publish(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "publishing meeting")
	}
	return ctx.JSON(http.StatusOK, mtg)
}

// attend records attendance for the caller, or for `user_id` when staff.
func (api *meetingApi) attend(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data AttendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendRequest")
	}

	userID := claims.Subject
	byAdmin := false
	if data.UserID != "" && data.UserID != claims.Subject {
		if !claims.IsStaff {
			return errHttpForbidden
		}
		userID = data.UserID
		byAdmin = true
	}

	att, err := api.svc.Attend(ctx.Request().Context(), ctx.Param("id"), userID, byAdmin)
	if err != nil {
		switch errors.Cause(err) {
		case meeting.ErrNotFound:
			return errHttpNotFound
		case meeting.ErrAlreadyAttended:
			return core.NewValidationError(meeting.ErrAlreadyAttended)
		}
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *meetingApi) attendances(ctx echo.Context) error {
	atts, err := api.svc.Attendances(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying attendances")
	}
	if atts == nil {
		atts = []meeting.MeetingAttendance{}
	}
	return ctx.JSON(http.StatusOK, atts)
}

type (
	AttendRequest struct {
		UserID string `json:"user_id"`
	}

	MeetingResponse struct {
		meeting.Meeting
		DisplayName          string `json:"display_name"`
		Color                string `json:"color"`
		PresentationEmbedURL string `json:"presentation_embed_url,omitempty"`
	}
)
