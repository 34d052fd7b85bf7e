package meeting

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/rcos-io/portal/core"
)

// Meeting types.
const (
	TypeSmallGroup  = "small_group"
	TypeLargeGroup  = "large_group"
	TypeWorkshop    = "workshop"
	TypeMentor      = "mentor"
	TypeCoordinator = "coordinator"
)

var (
	typeLabels = map[string]string{
		TypeSmallGroup:  "Small Group",
		TypeLargeGroup:  "Large Group",
		TypeWorkshop:    "Workshop",
		TypeMentor:      "Mentor",
		TypeCoordinator: "Coordinator",
	}
	typeColors = map[string]string{
		TypeSmallGroup:  "red",
		TypeLargeGroup:  "blue",
		TypeWorkshop:    "gold",
		TypeMentor:      "purple",
		TypeCoordinator: "orange",
	}

	// Google Slides presentation IDs are at least 25 word characters.
	presentationIDRegex = regexp.MustCompile(`[-\w]{25,}`)
)

type Meeting struct {
	ID         string      `json:"id" db:"id"`
	SemesterID string      `json:"semester_id" db:"semester_id"`
	Name       string      `json:"name" db:"name"` // optional title
	HostID     null.String `json:"host_id" db:"host_id"`
	Type       string      `json:"type" db:"type"`

	// Whether the meeting is visible to users.
	IsPublished bool `json:"is_published" db:"is_published"`

	StartsAt time.Time `json:"starts_at" db:"starts_at"` // UTC
	EndsAt   time.Time `json:"ends_at" db:"ends_at"`     // UTC

	// Where the meeting takes place, either physically or virtually.
	Location            string `json:"location" db:"location"`
	DescriptionMarkdown string `json:"description_markdown" db:"description_markdown"`
	PresentationURL     string `json:"presentation_url" db:"presentation_url"`
	RecordingURL        string `json:"recording_url" db:"recording_url"`

	DiscordEventID string `json:"discord_event_id" db:"discord_event_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// TypeLabel returns the human-readable label for the meeting's type.
func (m Meeting) TypeLabel() string {
	if label, ok := typeLabels[m.Type]; ok {
		return label
	}
	return m.Type
}

// DisplayName falls back to the type label when the meeting has no title.
func (m Meeting) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.TypeLabel()
}

// Color maps the meeting's type to a display color, grey when unknown.
func (m Meeting) Color() string {
	if color, ok := typeColors[m.Type]; ok {
		return color
	}
	return "grey"
}

// PresentationEmbedURL derives the embeddable form of a Google Slides
// presentation URL, empty for any other presentation URL.
func (m Meeting) PresentationEmbedURL() string {
	if !strings.Contains(m.PresentationURL, "docs.google.com/presentation/d") {
		return ""
	}
	id := presentationIDRegex.FindString(m.PresentationURL)
	if id == "" {
		return ""
	}
	return fmt.Sprintf("https://docs.google.com/presentation/d/%s/embed", id)
}

// MeetingAttendance records that a user attended a meeting. Unique per (meeting, user).
type MeetingAttendance struct {
	ID        string `json:"id" db:"id"`
	MeetingID string `json:"meeting_id" db:"meeting_id"`
	UserID    string `json:"user_id" db:"user_id"`

	// Whether an admin recorded this attendance instead of the user themselves.
	IsAddedByAdmin bool `json:"is_added_by_admin" db:"is_added_by_admin"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewMeeting contains information needed to create a new Meeting.
type NewMeeting struct {
	SemesterID          string      `json:"semester_id" validate:"required,semesterid"`
	Name                string      `json:"name" validate:"max=100"`
	HostID              null.String `json:"host_id"`
	Type                string      `json:"type" validate:"required,oneof=small_group large_group workshop mentor coordinator"`
	IsPublished         bool        `json:"is_published"`
	StartsAt            time.Time   `json:"starts_at" validate:"required"`
	EndsAt              time.Time   `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Location            string      `json:"location" validate:"max=500"`
	DescriptionMarkdown string      `json:"description_markdown" validate:"max=10000"`
	PresentationURL     string      `json:"presentation_url" validate:"omitempty,url"`
	RecordingURL        string      `json:"recording_url" validate:"omitempty,url"`
}

func (nm *NewMeeting) Validate(validate *validator.Validate) error {
	nm.SemesterID = core.CleanString(nm.SemesterID)
	nm.Name = core.CleanString(nm.Name)
	nm.Location = core.CleanString(nm.Location)
	nm.PresentationURL = core.CleanString(nm.PresentationURL)
	nm.RecordingURL = core.CleanString(nm.RecordingURL)
	return validate.Struct(nm)
}

// UpdateMeeting defines what information may be provided to modify an existing Meeting.
type UpdateMeeting struct {
	Name                *string     `json:"name" validate:"omitempty,max=100"`
	HostID              null.String `json:"host_id"`
	Type                string      `json:"type" validate:"omitempty,oneof=small_group large_group workshop mentor coordinator"`
	IsPublished         *bool       `json:"is_published"`
	StartsAt            *time.Time  `json:"starts_at"`
	EndsAt              *time.Time  `json:"ends_at"`
	Location            *string     `json:"location" validate:"omitempty,max=500"`
	DescriptionMarkdown *string     `json:"description_markdown" validate:"omitempty,max=10000"`
	PresentationURL     *string     `json:"presentation_url" validate:"omitempty,url"`
	RecordingURL        *string     `json:"recording_url" validate:"omitempty,url"`
}

func (um *UpdateMeeting) Validate(validate *validator.Validate) error {
	return validate.Struct(um)
}

type QueryFilter struct {
	SemesterID string `query:"semester"`
	Type       string `query:"type"`

	// PublishedOnly is forced on for non-admin callers.
	PublishedOnly bool `query:"-"`
}
