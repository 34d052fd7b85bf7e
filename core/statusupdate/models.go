package statusupdate

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/user"
)

// StatusUpdate is a weekly submission window during which enrolled users report
// their progress.
type StatusUpdate struct {
	ID         string `json:"id" db:"id"`
	SemesterID string `json:"semester_id" db:"semester_id"`
	Name       string `json:"name" db:"name"` // optional title

	OpensAt  time.Time `json:"opens_at" db:"opens_at"`   // UTC
	ClosesAt time.Time `json:"closes_at" db:"closes_at"` // UTC

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// DisplayName falls back to a generic title, suffixed with the opening date.
func (su StatusUpdate) DisplayName() string {
	name := su.Name
	if name == "" {
		name = "Status Update"
	}
	return name + " " + su.OpensAt.Format("01/02/2006")
}

// IsOpen reports whether the window accepts submissions at `now`.
func (su StatusUpdate) IsOpen(now time.Time) bool {
	return !now.Before(su.OpensAt) && now.Before(su.ClosesAt)
}

// Submission is a user's report for one status update window. One per
// (status update, user).
type Submission struct {
	ID             string `json:"id" db:"id"`
	StatusUpdateID string `json:"status_update_id" db:"status_update_id"`
	UserID         string `json:"user_id" db:"user_id"`

	PreviousWeek string `json:"previous_week" db:"previous_week"`
	NextWeek     string `json:"next_week" db:"next_week"`
	Blockers     string `json:"blockers" db:"blockers"`

	Grade          null.Float64 `json:"grade" db:"grade"`
	GraderID       null.String  `json:"grader_id" db:"grader_id"`
	GraderComments string       `json:"grader_comments" db:"grader_comments"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC

	// User is populated on queries that join the user table.
	User *user.User `json:"user,omitempty" db:"-"`
}

// NewStatusUpdate contains information needed to create a new StatusUpdate window.
type NewStatusUpdate struct {
	SemesterID string    `json:"semester_id" validate:"required,semesterid"`
	Name       string    `json:"name" validate:"max=200"`
	OpensAt    time.Time `json:"opens_at" validate:"required"`
	ClosesAt   time.Time `json:"closes_at" validate:"required,gtfield=OpensAt"`
}

func (nsu *NewStatusUpdate) Validate(validate *validator.Validate) error {
	nsu.SemesterID = core.CleanString(nsu.SemesterID)
	nsu.Name = core.CleanString(nsu.Name)
	return validate.Struct(nsu)
}

// NewSubmission is the payload for submitting a report to an open window.
type NewSubmission struct {
	PreviousWeek string `json:"previous_week" validate:"required,max=10000"`
	NextWeek     string `json:"next_week" validate:"required,max=10000"`
	Blockers     string `json:"blockers" validate:"max=10000"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.PreviousWeek = core.CleanString(ns.PreviousWeek)
	ns.NextWeek = core.CleanString(ns.NextWeek)
	ns.Blockers = core.CleanString(ns.Blockers)
	return validate.Struct(ns)
}

// GradeSubmission is the payload for grading a submission.
type GradeSubmission struct {
	Grade          float64 `json:"grade" validate:"min=0,max=10"`
	GraderComments string  `json:"grader_comments" validate:"max=10000"`
}

func (g *GradeSubmission) Validate(validate *validator.Validate) error {
	g.GraderComments = core.CleanString(g.GraderComments)
	return validate.Struct(g)
}
