package user

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/rcos-io/portal/core"
)

// Roles
const (
	RoleRPI      = "rpi"
	RoleExternal = "external"
)

// rpiEmailSuffix classifies accounts as institutional members.
const rpiEmailSuffix = "@rpi.edu"

var AllRoles = []string{RoleRPI, RoleExternal}

type User struct {
	ID         string `json:"id" db:"id"`
	Email      string `json:"email" db:"email"`
	FirstName  string `json:"first_name" db:"first_name"`
	LastName   string `json:"last_name" db:"last_name"`
	Role       string `json:"role" db:"role"`
	IsApproved bool   `json:"is_approved" db:"is_approved"`
	IsStaff    bool   `json:"is_staff" db:"is_staff"`

	// Set for RPI users only
	RcsID          string   `json:"rcs_id" db:"rcs_id"`
	GraduationYear null.Int `json:"graduation_year" db:"graduation_year"`

	// Account integrations
	DiscordUserID  string `json:"discord_user_id" db:"discord_user_id"`
	GithubUsername string `json:"github_username" db:"github_username"`

	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    null.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsRPI() bool {
	return u.Role == RoleRPI
}

func (u *User) FullName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return "Unnamed User"
}

// DisplayName renders the short public handle, e.g. `Remy S '24 (schurr)`.
// Falls back to the email address when no profile info is set.
func (u *User) DisplayName() string {
	var chunks []string

	if u.FirstName != "" {
		chunks = append(chunks, u.FirstName)
	}
	if u.LastName != "" {
		chunks = append(chunks, u.LastName[:1])
	}

	if u.IsRPI() {
		if u.GraduationYear.Valid {
			year := strconv.Itoa(u.GraduationYear.Int)
			if len(year) == 4 {
				chunks = append(chunks, "'"+year[2:])
			}
		}
		if len(chunks) > 0 && u.RcsID != "" {
			chunks = append(chunks, "("+u.RcsID+")")
		} else if u.RcsID != "" {
			chunks = append(chunks, u.RcsID)
		}
	}

	if len(chunks) == 0 {
		return u.Email
	}
	return strings.Join(chunks, " ")
}

// IsSetup reports whether the profile is complete enough for full portal access.
func (u *User) IsSetup() bool {
	return u.FirstName != "" && u.LastName != "" && u.GithubUsername != "" && u.DiscordUserID != ""
}

func (u *User) DiscordMention() string {
	if u.DiscordUserID == "" {
		return u.DisplayName()
	}
	return fmt.Sprintf("<@%s>", u.DiscordUserID)
}

// inferRPIAccount applies the institutional email domain check on new accounts:
// an "@rpi.edu" address is auto-classified as an approved RPI member and its
// RCS ID is derived from the email local part.
func (u *User) inferRPIAccount() {
	email := core.CleanString(u.Email, true)
	if strings.HasSuffix(email, rpiEmailSuffix) {
		u.Role = RoleRPI
		u.IsApproved = true
		u.RcsID = strings.TrimSuffix(email, rpiEmailSuffix)
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Email           string   `json:"email" validate:"required,email"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	GraduationYear  null.Int `json:"graduation_year"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Email = core.CleanString(nu.Email, true)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	if nu.GraduationYear.Valid && !strings.HasSuffix(nu.Email, rpiEmailSuffix) {
		return core.NewValidationError(errGradYearNotRPI,
			core.FieldError{Field: "graduation_year", Error: errGradYearNotRPI.Error()})
	}
	return svc.checkUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Email           string   `json:"email" validate:"omitempty,email"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Role            string   `json:"role" validate:"omitempty,oneof=rpi external"`
	IsApproved      *bool    `json:"is_approved"`
	GraduationYear  null.Int `json:"graduation_year"`
	GithubUsername  string   `json:"github_username"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	email := core.CleanString(uu.Email, true)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	uu.FirstName = core.CleanString(uu.FirstName)
	uu.LastName = core.CleanString(uu.LastName)
	uu.GithubUsername = core.CleanString(uu.GithubUsername, true)

	if err := validate.Struct(uu); err != nil {
		return err
	}

	role := uu.Role
	if role == "" {
		role = origUsr.Role
	}
	if uu.GraduationYear.Valid && role != RoleRPI {
		return core.NewValidationError(errGradYearNotRPI,
			core.FieldError{Field: "graduation_year", Error: errGradYearNotRPI.Error()})
	}
	return svc.checkUniqueness(uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search     string `query:"search"`
	Role       string `query:"role"`
	IsApproved *bool  `query:"is_approved"`
	SemesterID string `query:"semester"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.IsApproved == nil && qf.SemesterID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true)
	qf.SemesterID = core.CleanString(qf.SemesterID)
}
