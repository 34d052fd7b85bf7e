package project

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/rcos-io/portal/core"
)

// GithubRepoRegex matches canonical GitHub repository URLs and captures owner and name.
var GithubRepoRegex = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([\w.-]+)/([\w.-]+?)/?$`)

type Project struct {
	ID      string      `json:"id" db:"id"`
	Slug    string      `json:"slug" db:"slug"`
	Name    string      `json:"name" db:"name"`
	OwnerID null.String `json:"owner_id" db:"owner_id"` // the user that can make edits

	// Whether the project has been approved by Mentors/Coordinators to participate.
	IsApproved bool `json:"is_approved" db:"is_approved"`

	Summary         string `json:"summary" db:"summary"` // one-line summary
	ExternalChatURL string `json:"external_chat_url" db:"external_chat_url"`
	HomepageURL     string `json:"homepage_url" db:"homepage_url"`

	DiscordRoleID         string `json:"discord_role_id" db:"discord_role_id"`
	DiscordTextChannelID  string `json:"discord_text_channel_id" db:"discord_text_channel_id"`
	DiscordVoiceChannelID string `json:"discord_voice_channel_id" db:"discord_voice_channel_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC

	// Tags is populated on queries that join the tag tables.
	Tags []string `json:"tags,omitempty" db:"-"`
}

// DiscordTextChannelURL builds the deep link into the server's project channel.
func (p *Project) DiscordTextChannelURL() string {
	if p.DiscordTextChannelID == "" {
		return ""
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s", core.Conf.Discord.ServerID, p.DiscordTextChannelID)
}

// RepoLink is a source repository linked to a project.
type RepoLink struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	URL       string    `json:"url" db:"url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// OwnerAndName splits the repository URL into its GitHub owner and name parts.
func (r RepoLink) OwnerAndName() (string, string, bool) {
	m := GithubRepoRegex.FindStringSubmatch(r.URL)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Pitch is a per-semester "seeking members" presentation for a project.
type Pitch struct {
	ID         string    `json:"id" db:"id"`
	SemesterID string    `json:"semester_id" db:"semester_id"`
	ProjectID  string    `json:"project_id" db:"project_id"`
	URL        string    `json:"url" db:"url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Proposal is a per-semester project proposal document, gradable by admins.
type Proposal struct {
	ID         string `json:"id" db:"id"`
	SemesterID string `json:"semester_id" db:"semester_id"`
	ProjectID  string `json:"project_id" db:"project_id"`
	URL        string `json:"url" db:"url"`

	Grade          null.Float64 `json:"grade" db:"grade"`
	GraderID       null.String  `json:"grader_id" db:"grader_id"`
	GraderComments string       `json:"grader_comments" db:"grader_comments"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Presentation is a per-semester end-of-term presentation, gradable by admins.
type Presentation struct {
	ID         string `json:"id" db:"id"`
	SemesterID string `json:"semester_id" db:"semester_id"`
	ProjectID  string `json:"project_id" db:"project_id"`
	URL        string `json:"url" db:"url"`

	Grade          null.Float64 `json:"grade" db:"grade"`
	GraderID       null.String  `json:"grader_id" db:"grader_id"`
	GraderComments string       `json:"grader_comments" db:"grader_comments"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// RepoInfo is the metadata fetched from the code-hosting platform for a linked repository.
type RepoInfo struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
}

// NewProject contains information needed to create a new Project.
type NewProject struct {
	Name            string   `json:"name" validate:"required,max=100"`
	Summary         string   `json:"summary" validate:"required,max=100"`
	Tags            []string `json:"tags"`
	ExternalChatURL string   `json:"external_chat_url" validate:"omitempty,url"`
	HomepageURL     string   `json:"homepage_url" validate:"omitempty,url"`
}

func (np *NewProject) Validate(validate *validator.Validate, svc *Service) error {
	np.Name = core.CleanString(np.Name)
	np.Summary = core.CleanString(np.Summary)
	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.checkNameUniqueness(np.Name)
}

// UpdateProject defines what information may be provided to modify an existing Project.
type UpdateProject struct {
	Name            string   `json:"name" validate:"omitempty,max=100"`
	Summary         string   `json:"summary" validate:"omitempty,max=100"`
	Tags            []string `json:"tags"`
	ExternalChatURL *string  `json:"external_chat_url" validate:"omitempty"`
	HomepageURL     *string  `json:"homepage_url" validate:"omitempty"`
	Repositories    []string `json:"repositories"`
}

func (up *UpdateProject) Validate(orig Project, validate *validator.Validate, svc *Service) error {
	up.Name = core.CleanString(up.Name)
	up.Summary = core.CleanString(up.Summary)
	if err := validate.Struct(up); err != nil {
		return err
	}
	if up.Name != "" && up.Name != orig.Name {
		return svc.checkNameUniqueness(up.Name, orig)
	}
	return nil
}

// SubmitURL is the payload for pitch/proposal/presentation submissions.
type SubmitURL struct {
	URL string `json:"url" validate:"required,url"`
}

func (s *SubmitURL) Validate(validate *validator.Validate) error {
	s.URL = core.CleanString(s.URL)
	return validate.Struct(s)
}

// GradeSubmission is the payload for grading a proposal or presentation.
type GradeSubmission struct {
	Grade          float64 `json:"grade" validate:"min=0,max=10"`
	GraderComments string  `json:"grader_comments" validate:"max=10000"`
}

func (g *GradeSubmission) Validate(validate *validator.Validate) error {
	g.GraderComments = core.CleanString(g.GraderComments)
	return validate.Struct(g)
}

type QueryFilter struct {
	Search         string `query:"search"`
	SemesterID     string `query:"semester"`
	SeekingMembers bool   `query:"is_seeking_members"`
	IsApproved     *bool  `query:"is_approved"`
	OwnerID        string `query:"owner"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.SemesterID = core.CleanString(qf.SemesterID)
	qf.OwnerID = core.CleanString(qf.OwnerID)
}
