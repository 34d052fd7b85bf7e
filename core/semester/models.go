package semester

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rcos-io/portal/core"
)

// Semester is a time-boxed program period keyed by RPI's "YYYYMM" format,
// where YYYY is the starting year and MM the starting month.
type Semester struct {
	ID                     string    `json:"id" db:"id"`
	Name                   string    `json:"name" db:"name"` // user-facing, e.g. "Fall 2022"
	IsAcceptingNewProjects bool      `json:"is_accepting_new_projects" db:"is_accepting_new_projects"`
	StartDate              time.Time `json:"start_date" db:"start_date"`
	EndDate                time.Time `json:"end_date" db:"end_date"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// IsActive reports whether `date` falls within the semester, inclusive on both ends.
func (s Semester) IsActive(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	return !day.Before(s.StartDate) && !day.After(s.EndDate)
}

// NewSemester contains information needed to create a new Semester.
type NewSemester struct {
	ID                     string    `json:"id" validate:"required,semesterid"`
	Name                   string    `json:"name" validate:"required,max=30"`
	IsAcceptingNewProjects bool      `json:"is_accepting_new_projects"`
	StartDate              time.Time `json:"start_date" validate:"required"`
	EndDate                time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

func (ns *NewSemester) Validate(validate *validator.Validate) error {
	ns.ID = core.CleanString(ns.ID)
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// UpdateSemester defines what information may be provided to modify an existing Semester.
type UpdateSemester struct {
	Name                   string     `json:"name" validate:"omitempty,max=30"`
	IsAcceptingNewProjects *bool      `json:"is_accepting_new_projects"`
	StartDate              *time.Time `json:"start_date"`
	EndDate                *time.Time `json:"end_date"`
}

func (us *UpdateSemester) Validate(orig Semester, validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	if err := validate.Struct(us); err != nil {
		return err
	}

	start, end := orig.StartDate, orig.EndDate
	if us.StartDate != nil {
		start = *us.StartDate
	}
	if us.EndDate != nil {
		end = *us.EndDate
	}
	if !end.After(start) {
		return core.NewValidationError(errEndBeforeStart,
			core.FieldError{Field: "end_date", Error: errEndBeforeStart.Error()})
	}
	return nil
}
