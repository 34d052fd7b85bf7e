package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/user"
)

// Enrollment binds a user to a semester, and optionally to the project they
// work on that semester. Unique per (semester, user).
type Enrollment struct {
	ID         string      `json:"id" db:"id"`
	SemesterID string      `json:"semester_id" db:"semester_id"`
	UserID     string      `json:"user_id" db:"user_id"`
	ProjectID  null.String `json:"project_id" db:"project_id"`

	// How many course credits the user is participating for; 0 means just for experience.
	Credits  int  `json:"credits" db:"credits"`
	IsForPay bool `json:"is_for_pay" db:"is_for_pay"`

	IsProjectLead    bool `json:"is_project_lead" db:"is_project_lead"`
	IsCoordinator    bool `json:"is_coordinator" db:"is_coordinator"`
	IsFacultyAdvisor bool `json:"is_faculty_advisor" db:"is_faculty_advisor"`

	FinalGrade    null.Float64 `json:"final_grade,omitempty" db:"final_grade"`
	NotesMarkdown string       `json:"-" db:"notes_markdown"` // private notes for admins

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC

	// User is populated on queries that join the user table.
	User *user.User `json:"user,omitempty" db:"-"`
}

// IsSemesterAdmin reports whether this enrollment carries semester-wide admin rights.
func (e Enrollment) IsSemesterAdmin() bool {
	return e.IsCoordinator || e.IsFacultyAdvisor
}

// EnrollUser contains information needed to create or update an Enrollment.
type EnrollUser struct {
	SemesterID       string       `json:"semester_id" validate:"required,semesterid"`
	UserID           string       `json:"user_id" validate:"required"`
	ProjectID        null.String  `json:"project_id"`
	Credits          int          `json:"credits" validate:"min=0,max=4"`
	IsForPay         bool         `json:"is_for_pay"`
	IsProjectLead    bool         `json:"is_project_lead"`
	IsCoordinator    bool         `json:"is_coordinator"`
	IsFacultyAdvisor bool         `json:"is_faculty_advisor"`
	FinalGrade       null.Float64 `json:"final_grade" validate:"omitempty"`
	NotesMarkdown    string       `json:"notes_markdown" validate:"max=10000"`
}

func (eu *EnrollUser) Validate(validate *validator.Validate) error {
	eu.SemesterID = core.CleanString(eu.SemesterID)
	eu.UserID = core.CleanString(eu.UserID)
	if err := validate.Struct(eu); err != nil {
		return err
	}
	if eu.FinalGrade.Valid && (eu.FinalGrade.Float64 < 0 || eu.FinalGrade.Float64 > 4) {
		return core.NewValidationError(errGradeOutOfRange,
			core.FieldError{Field: "final_grade", Error: errGradeOutOfRange.Error()})
	}
	return nil
}

type QueryFilter struct {
	SemesterID string `query:"semester"`
	ProjectID  string `query:"project"`
	UserID     string `query:"user"`
	AdminsOnly bool   `query:"admins_only"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.SemesterID == "" && qf.ProjectID == "" && qf.UserID == "" && !qf.AdminsOnly
}
