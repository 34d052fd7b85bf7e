package smallgroup

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/user"
)

// SmallGroup is a cluster of project teams that meet together during a semester,
// guided by mentors.
type SmallGroup struct {
	ID         string `json:"id" db:"id"`
	SemesterID string `json:"semester_id" db:"semester_id"`
	Name       string `json:"name" db:"name"` // public-facing name

	// Where the group meets for small group meetings.
	Location string `json:"location" db:"location"`

	DiscordCategoryID string `json:"discord_category_id" db:"discord_category_id"`
	DiscordRoleID     string `json:"discord_role_id" db:"discord_role_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC

	// Populated on queries that join the link tables.
	Projects []project.Project `json:"projects,omitempty" db:"-"`
	Mentors  []user.User       `json:"mentors,omitempty" db:"-"`
}

// DisplayName falls back to the location when the group has no name.
func (sg SmallGroup) DisplayName() string {
	if sg.Name != "" {
		return sg.Name
	}
	if sg.Location != "" {
		return sg.Location
	}
	return "Unnamed Small Group"
}

// NewSmallGroup contains information needed to create a new SmallGroup.
type NewSmallGroup struct {
	SemesterID        string `json:"semester_id" validate:"required,semesterid"`
	Name              string `json:"name" validate:"max=100"`
	Location          string `json:"location" validate:"required,max=200"`
	DiscordCategoryID string `json:"discord_category_id" validate:"max=200"`
	DiscordRoleID     string `json:"discord_role_id" validate:"max=200"`
}

func (nsg *NewSmallGroup) Validate(validate *validator.Validate) error {
	nsg.SemesterID = core.CleanString(nsg.SemesterID)
	nsg.Name = core.CleanString(nsg.Name)
	nsg.Location = core.CleanString(nsg.Location)
	return validate.Struct(nsg)
}

// UpdateSmallGroup defines what information may be provided to modify an existing SmallGroup.
type UpdateSmallGroup struct {
	Name              *string `json:"name" validate:"omitempty,max=100"`
	Location          *string `json:"location" validate:"omitempty,max=200"`
	DiscordCategoryID *string `json:"discord_category_id" validate:"omitempty,max=200"`
	DiscordRoleID     *string `json:"discord_role_id" validate:"omitempty,max=200"`
}

func (usg *UpdateSmallGroup) Validate(validate *validator.Validate) error {
	return validate.Struct(usg)
}
