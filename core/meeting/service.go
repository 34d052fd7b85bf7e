package meeting

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
)

var (
	// errors
	ErrNotFound        = errors.New("meeting not found")
	ErrAlreadyAttended = errors.New("attendance already recorded for this meeting")
	errEndBeforeStart  = errors.New("the meeting must end after it starts")
)

type (
	Repository interface {
		CreateMeeting(ctx context.Context, mtg Meeting) (Meeting, error)
		GetMeeting(ctx context.Context, id string) (Meeting, error)
		// QueryMeetings applies AND on available filter fields, ordered by start time.
		QueryMeetings(ctx context.Context, filter *QueryFilter) ([]Meeting, error)
		UpdateMeeting(ctx context.Context, mtg Meeting) (Meeting, error)
		// GetNextMeeting returns the first published meeting ending at `from` or
		// later, ordered by start, ErrNotFound when none is scheduled.
		GetNextMeeting(ctx context.Context, from time.Time) (Meeting, error)
		// GetOngoingMeeting returns the published meeting containing `now`, or ErrNotFound.
		GetOngoingMeeting(ctx context.Context, now time.Time) (Meeting, error)

		CreateAttendance(ctx context.Context, att MeetingAttendance) (MeetingAttendance, error)
		GetAttendance(ctx context.Context, meetingID, userID string) (MeetingAttendance, error)
		QueryAttendances(ctx context.Context, meetingID string) ([]MeetingAttendance, error)
		QueryUserAttendances(ctx context.Context, userID, semesterID string) ([]MeetingAttendance, error)
	}

	Service struct {
		repo    Repository
		chatSvc core.ChatService
		logger  core.Logger
	}
)

func NewService(repo Repository, chatSvc core.ChatService, logger core.Logger) *Service {
	return &Service{repo: repo, chatSvc: chatSvc, logger: logger}
}

func (svc *Service) Create(ctx context.Context, nm NewMeeting) (Meeting, error) {
	now := time.Now().UTC()
	mtg := Meeting{
		SemesterID:          nm.SemesterID,
		Name:                nm.Name,
		HostID:              nm.HostID,
		Type:                nm.Type,
		IsPublished:         nm.IsPublished,
		StartsAt:            nm.StartsAt.UTC(),
		EndsAt:              nm.EndsAt.UTC(),
		Location:            nm.Location,
		DescriptionMarkdown: nm.DescriptionMarkdown,
		PresentationURL:     nm.PresentationURL,
		RecordingURL:        nm.RecordingURL,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	mtg, err := svc.repo.CreateMeeting(ctx, mtg)
	if err != nil {
		return Meeting{}, err
	}
	return svc.syncChatEvent(ctx, mtg), nil
}

func (svc *Service) Get(ctx context.Context, id string) (Meeting, error) {
	return svc.repo.GetMeeting(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Meeting, error) {
	return svc.repo.QueryMeetings(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, um UpdateMeeting) (Meeting, error) {
	mtg, err := svc.repo.GetMeeting(ctx, id)
	if err != nil {
		return Meeting{}, err
	}

	if um.Name != nil {
		mtg.Name = core.CleanString(*um.Name)
	}
	if um.HostID.Valid {
		mtg.HostID = um.HostID
	}
	if um.Type != "" {
		mtg.Type = um.Type
	}
	if um.IsPublished != nil {
		mtg.IsPublished = *um.IsPublished
	}
	if um.StartsAt != nil {
		mtg.StartsAt = um.StartsAt.UTC()
	}
	if um.EndsAt != nil {
		mtg.EndsAt = um.EndsAt.UTC()
	}
	if um.Location != nil {
		mtg.Location = core.CleanString(*um.Location)
	}
	if um.DescriptionMarkdown != nil {
		mtg.DescriptionMarkdown = *um.DescriptionMarkdown
	}
	if um.PresentationURL != nil {
		mtg.PresentationURL = core.CleanString(*um.PresentationURL)
	}
	if um.RecordingURL != nil {
		mtg.RecordingURL = core.CleanString(*um.RecordingURL)
	}
	if !mtg.EndsAt.After(mtg.StartsAt) {
		return Meeting{}, core.NewValidationError(errEndBeforeStart,
			core.FieldError{Field: "ends_at", Error: errEndBeforeStart.Error()})
	}
	mtg.UpdatedAt = time.Now().UTC()

	mtg, err = svc.repo.UpdateMeeting(ctx, mtg)
	if err != nil {
		return Meeting{}, err
	}
	return svc.syncChatEvent(ctx, mtg), nil
}

// Publish makes the meeting visible to users.
func (svc *Service) Publish(ctx context.Context, id string) (Meeting, error) {
	published := true
	return svc.Update(ctx, id, UpdateMeeting{IsPublished: &published})
}

// GetNext returns the first published meeting ending now or later, so a
// meeting already in progress still counts as next.
func (svc *Service) GetNext(ctx context.Context) (Meeting, error) {
	return svc.repo.GetNextMeeting(ctx, time.Now().UTC())
}

// GetOngoing returns the published meeting happening right now, if any.
func (svc *Service) GetOngoing(ctx context.Context) (Meeting, error) {
	return svc.repo.GetOngoingMeeting(ctx, time.Now().UTC())
}

// Attend records the user's attendance at the meeting.
func (svc *Service) Attend(ctx context.Context, meetingID, userID string, byAdmin bool) (MeetingAttendance, error) {
	if _, err := svc.repo.GetAttendance(ctx, meetingID, userID); err == nil {
		return MeetingAttendance{}, ErrAlreadyAttended
	} else if err != ErrNotFound {
		return MeetingAttendance{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateAttendance(ctx, MeetingAttendance{
		MeetingID:      meetingID,
		UserID:         userID,
		IsAddedByAdmin: byAdmin,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *Service) Attendances(ctx context.Context, meetingID string) ([]MeetingAttendance, error) {
	return svc.repo.QueryAttendances(ctx, meetingID)
}

func (svc *Service) UserAttendances(ctx context.Context, userID, semesterID string) ([]MeetingAttendance, error) {
	return svc.repo.QueryUserAttendances(ctx, userID, semesterID)
}

// syncChatEvent mirrors a published meeting onto the chat platform: creates the
// scheduled event the first time, updates it afterwards. Unpublished meetings are
// left alone. Sync failures are logged and never fail the save.
func (svc *Service) syncChatEvent(ctx context.Context, mtg Meeting) Meeting {
	if !mtg.IsPublished {
		return mtg
	}

	description := fmt.Sprintf("**%s Meeting**\n\nView details: %s/meetings/%s",
		mtg.TypeLabel(), core.Conf.FrontendBaseURL, mtg.ID)
	if mtg.PresentationURL != "" {
		description += "\nSlides: " + mtg.PresentationURL
	}
	event := core.ChatEvent{
		ID:          mtg.DiscordEventID,
		Name:        mtg.DisplayName(),
		Description: description,
		Location:    mtg.Location,
		StartsAt:    mtg.StartsAt,
		EndsAt:      mtg.EndsAt,
	}

	if mtg.DiscordEventID == "" {
		eventID, err := svc.chatSvc.CreateScheduledEvent(ctx, event)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("creating chat event for meeting %s", mtg.ID), err)
			return mtg
		}
		mtg.DiscordEventID = eventID
		mtg.UpdatedAt = time.Now().UTC()
		updated, err := svc.repo.UpdateMeeting(ctx, mtg)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("storing chat event ID for meeting %s", mtg.ID), err)
			return mtg
		}
		return updated
	}

	if err := svc.chatSvc.UpdateScheduledEvent(ctx, event); err != nil {
		svc.logger.Warn(fmt.Sprintf("updating chat event for meeting %s", mtg.ID), err)
	}
	return mtg
}
