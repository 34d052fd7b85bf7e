package project

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/semester"
	"github.com/rcos-io/portal/core/user"
)

// A user can own at most this many projects at one time.
const maxOwnedProjects = 4

var (
	// errors
	ErrNotFound          = errors.New("project not found")
	ErrNameExists        = errors.New("a project with this name already exists")
	ErrPitchExists       = errors.New("a pitch for this project and semester already exists")
	ErrSubmissionMissing = errors.New("submission not found")

	ErrNotApprovedUser      = errors.New("your account has not been approved yet")
	ErrSemesterClosed       = errors.New("this semester is not accepting new projects")
	ErrTooManyOwnedProjects = errors.New("you already own the maximum number of projects")
	ErrAlreadyOnProject     = errors.New("you are already on a project this semester")
	ErrNotLeadOrOwner       = errors.New("you must be the project owner or an active project lead")
)

type (
	GetFilter struct {
		ID   string
		Slug string
		Name string
	}

	Repository interface {
		CreateProject(ctx context.Context, proj Project) (Project, error)
		GetProject(ctx context.Context, filter GetFilter) (Project, error)
		// QueryProjects applies AND on available filter fields; semester filtering
		// goes through enrollments, seeking-members through pitches. Tags are joined.
		QueryProjects(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Project, error)
		UpdateProject(ctx context.Context, proj Project) (Project, error)
		CountOwnedProjects(ctx context.Context, ownerID string) (int, error)
		// CountProjectSemesters counts distinct semesters the project had enrollments in.
		CountProjectSemesters(ctx context.Context, projectID string) (int, error)
		SetProjectTags(ctx context.Context, projectID string, tags []string) error

		QueryRepositories(ctx context.Context, projectID string) ([]RepoLink, error)
		// SetRepositories replaces the project's repository links with the given URLs.
		SetRepositories(ctx context.Context, projectID string, urls []string) error

		CreatePitch(ctx context.Context, pitch Pitch) (Pitch, error)
		GetPitch(ctx context.Context, semesterID, projectID string) (Pitch, error)
		QueryPitches(ctx context.Context, semesterID string) ([]Pitch, error)

		CreateProposal(ctx context.Context, prop Proposal) (Proposal, error)
		GetProposal(ctx context.Context, semesterID, projectID string) (Proposal, error)
		UpdateProposal(ctx context.Context, prop Proposal) (Proposal, error)

		CreatePresentation(ctx context.Context, pres Presentation) (Presentation, error)
		GetPresentation(ctx context.Context, semesterID, projectID string) (Presentation, error)
		UpdatePresentation(ctx context.Context, pres Presentation) (Presentation, error)
	}

	// RepoInfoService fetches repository metadata from the code-hosting platform.
	RepoInfoService interface {
		GetRepository(ctx context.Context, owner, name string) (RepoInfo, error)
	}

	Service struct {
		repo    Repository
		enrRepo enrollment.Repository
		chatSvc core.ChatService
		infoSvc RepoInfoService
		logger  core.Logger
	}
)

func NewService(
	repo Repository,
	enrRepo enrollment.Repository,
	chatSvc core.ChatService,
	infoSvc RepoInfoService,
	logger core.Logger,
) *Service {
	return &Service{
		repo:    repo,
		enrRepo: enrRepo,
		chatSvc: chatSvc,
		infoSvc: infoSvc,
		logger:  logger,
	}
}

func (svc *Service) checkNameUniqueness(name string, exclProjects ...Project) error {
	proj, err := svc.repo.GetProject(context.Background(), GetFilter{Name: name})
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}
	for _, excl := range exclProjects {
		if excl.ID == proj.ID {
			return nil
		}
	}
	return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
}

// CanCreateProject checks whether the user may propose a new project for the semester:
// they must be approved, the semester must be active and accepting projects, and they
// can neither own too many projects nor already be on a project team this semester.
func (svc *Service) CanCreateProject(ctx context.Context, usr user.User, sem semester.Semester) error {
	if !usr.IsApproved {
		return ErrNotApprovedUser
	}
	if !sem.IsActive(time.Now().UTC()) || !sem.IsAcceptingNewProjects {
		return ErrSemesterClosed
	}

	owned, err := svc.repo.CountOwnedProjects(ctx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "counting owned projects")
	}
	if owned >= maxOwnedProjects {
		return ErrTooManyOwnedProjects
	}

	enr, err := svc.enrRepo.GetEnrollment(ctx, sem.ID, usr.ID)
	if err != nil {
		if err == enrollment.ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "getting enrollment")
	}
	if enr.ProjectID.Valid {
		return ErrAlreadyOnProject
	}
	return nil
}

// Create creates the project owned by `usr` and enrolls them as project lead
// for the semester.
func (svc *Service) Create(ctx context.Context, usr user.User, sem semester.Semester, np NewProject) (Project, error) {
	if err := svc.CanCreateProject(ctx, usr, sem); err != nil {
		return Project{}, err
	}

	now := time.Now().UTC()
	proj := Project{
		Name:            np.Name,
		Slug:            core.Slugify(np.Name),
		OwnerID:         null.StringFrom(usr.ID),
		Summary:         np.Summary,
		ExternalChatURL: np.ExternalChatURL,
		HomepageURL:     np.HomepageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	proj, err := svc.repo.CreateProject(ctx, proj)
	if err != nil {
		return Project{}, err
	}

	if len(np.Tags) > 0 {
		if err = svc.repo.SetProjectTags(ctx, proj.ID, np.Tags); err != nil {
			return Project{}, errors.Wrap(err, "setting project tags")
		}
		proj.Tags = np.Tags
	}

	_, err = svc.enrRepo.UpsertEnrollment(ctx, enrollment.Enrollment{
		SemesterID:    sem.ID,
		UserID:        usr.ID,
		ProjectID:     null.StringFrom(proj.ID),
		IsProjectLead: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return Project{}, errors.Wrap(err, "enrolling project lead")
	}
	return proj, nil
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Project, error) {
	return svc.repo.GetProject(ctx, GetFilter{Slug: core.CleanString(slug, true)})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Project, error) {
	return svc.repo.GetProject(ctx, GetFilter{ID: id})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Project, error) {
	return svc.repo.QueryProjects(ctx, filter, ordering)
}

// IsLeadOrOwner reports whether the user owns the project or leads it in the semester.
func (svc *Service) IsLeadOrOwner(ctx context.Context, usr user.User, sem semester.Semester, proj Project) bool {
	if proj.OwnerID.Valid && proj.OwnerID.String == usr.ID {
		return true
	}
	enr, err := svc.enrRepo.GetEnrollment(ctx, sem.ID, usr.ID)
	if err != nil {
		return false
	}
	return enr.IsProjectLead && enr.ProjectID.Valid && enr.ProjectID.String == proj.ID
}

// Update edits project metadata; only the owner or an active project lead may edit.
func (svc *Service) Update(ctx context.Context, usr user.User, sem semester.Semester, proj Project, up UpdateProject) (Project, error) {
	if !svc.IsLeadOrOwner(ctx, usr, sem, proj) {
		return Project{}, ErrNotLeadOrOwner
	}

	if up.Name != "" && up.Name != proj.Name {
		proj.Name = up.Name
		proj.Slug = core.Slugify(up.Name)
	}
	if up.Summary != "" {
		proj.Summary = up.Summary
	}
	if up.ExternalChatURL != nil {
		proj.ExternalChatURL = *up.ExternalChatURL
	}
	if up.HomepageURL != nil {
		proj.HomepageURL = *up.HomepageURL
	}
	proj.UpdatedAt = time.Now().UTC()

	proj, err := svc.repo.UpdateProject(ctx, proj)
	if err != nil {
		return Project{}, err
	}

	if up.Tags != nil {
		if err = svc.repo.SetProjectTags(ctx, proj.ID, up.Tags); err != nil {
			return Project{}, errors.Wrap(err, "setting project tags")
		}
		proj.Tags = up.Tags
	}
	if up.Repositories != nil {
		if err = svc.SetRepositories(ctx, proj, up.Repositories); err != nil {
			return Project{}, err
		}
	}
	return proj, nil
}

// Approve marks the project as approved to participate.
func (svc *Service) Approve(ctx context.Context, proj Project) (Project, error) {
	if proj.IsApproved {
		return proj, nil
	}
	proj.IsApproved = true
	proj.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProject(ctx, proj)
}

// SetRepositories replaces the project's repository links, dropping URLs that
// are not valid GitHub repository URLs.
func (svc *Service) SetRepositories(ctx context.Context, proj Project, urls []string) error {
	valid := make([]string, 0, len(urls))
	for _, url := range urls {
		url = core.CleanString(url, true)
		if url == "" {
			continue
		}
		if !GithubRepoRegex.MatchString(url) {
			svc.logger.Warn(fmt.Sprintf("ignoring invalid repository url %q for project %s", url, proj.ID))
			continue
		}
		valid = append(valid, url)
	}
	return svc.repo.SetRepositories(ctx, proj.ID, valid)
}

// RepositoriesInfo fetches metadata for the project's linked repositories.
// Failures are logged and skipped; callers always get a usable (possibly empty) list.
func (svc *Service) RepositoriesInfo(ctx context.Context, proj Project) []RepoInfo {
	repos, err := svc.repo.QueryRepositories(ctx, proj.ID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("querying repositories for project %s", proj.ID), err)
		return []RepoInfo{}
	}

	infos := make([]RepoInfo, 0, len(repos))
	for _, repo := range repos {
		owner, name, ok := repo.OwnerAndName()
		if !ok {
			continue
		}
		info, err := svc.infoSvc.GetRepository(ctx, owner, name)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("fetching repository %s/%s", owner, name), err)
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// CanPitch checks whether the user may pitch the project for the semester.
func (svc *Service) CanPitch(ctx context.Context, usr user.User, sem semester.Semester, proj Project) error {
	if !usr.IsApproved {
		return ErrNotApprovedUser
	}
	if !sem.IsActive(time.Now().UTC()) {
		return ErrSemesterClosed
	}
	if !svc.IsLeadOrOwner(ctx, usr, sem, proj) {
		return ErrNotLeadOrOwner
	}
	return nil
}

// AddPitch submits the project's per-semester pitch; unique per (semester, project).
func (svc *Service) AddPitch(ctx context.Context, usr user.User, sem semester.Semester, proj Project, sub SubmitURL) (Pitch, error) {
	if err := svc.CanPitch(ctx, usr, sem, proj); err != nil {
		return Pitch{}, err
	}
	if _, err := svc.repo.GetPitch(ctx, sem.ID, proj.ID); err == nil {
		return Pitch{}, core.NewValidationError(ErrPitchExists)
	} else if err != ErrSubmissionMissing {
		return Pitch{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreatePitch(ctx, Pitch{
		SemesterID: sem.ID,
		ProjectID:  proj.ID,
		URL:        sub.URL,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// IsSeekingMembers returns the project's pitch for the semester, if any.
func (svc *Service) IsSeekingMembers(ctx context.Context, sem semester.Semester, proj Project) (Pitch, bool) {
	pitch, err := svc.repo.GetPitch(ctx, sem.ID, proj.ID)
	if err != nil {
		return Pitch{}, false
	}
	return pitch, true
}

// AddProposal submits the project's proposal document for the semester.
func (svc *Service) AddProposal(ctx context.Context, usr user.User, sem semester.Semester, proj Project, sub SubmitURL) (Proposal, error) {
	if err := svc.CanPitch(ctx, usr, sem, proj); err != nil {
		return Proposal{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateProposal(ctx, Proposal{
		SemesterID: sem.ID,
		ProjectID:  proj.ID,
		URL:        sub.URL,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// GradeProposal records an admin's grade on a proposal.
func (svc *Service) GradeProposal(ctx context.Context, grader user.User, semesterID, projectID string, g GradeSubmission) (Proposal, error) {
	prop, err := svc.repo.GetProposal(ctx, semesterID, projectID)
	if err != nil {
		return Proposal{}, err
	}
	prop.Grade.SetValid(g.Grade)
	prop.GraderID.SetValid(grader.ID)
	prop.GraderComments = g.GraderComments
	prop.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProposal(ctx, prop)
}

// AddPresentation submits the project's end-of-term presentation for the semester.
func (svc *Service) AddPresentation(ctx context.Context, usr user.User, sem semester.Semester, proj Project, sub SubmitURL) (Presentation, error) {
	if err := svc.CanPitch(ctx, usr, sem, proj); err != nil {
		return Presentation{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreatePresentation(ctx, Presentation{
		SemesterID: sem.ID,
		ProjectID:  proj.ID,
		URL:        sub.URL,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// GradePresentation records an admin's grade on a presentation.
func (svc *Service) GradePresentation(ctx context.Context, grader user.User, semesterID, projectID string, g GradeSubmission) (Presentation, error) {
	pres, err := svc.repo.GetPresentation(ctx, semesterID, projectID)
	if err != nil {
		return Presentation{}, err
	}
	pres.Grade.SetValid(g.Grade)
	pres.GraderID.SetValid(grader.ID)
	pres.GraderComments = g.GraderComments
	pres.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePresentation(ctx, pres)
}

// SemesterCount counts the semesters the project has participated in.
func (svc *Service) SemesterCount(ctx context.Context, proj Project) (int, error) {
	return svc.repo.CountProjectSemesters(ctx, proj.ID)
}

// Team returns the project's enrollments for a semester, users joined.
func (svc *Service) Team(ctx context.Context, sem semester.Semester, proj Project) ([]enrollment.Enrollment, error) {
	return svc.enrRepo.QueryEnrollments(ctx, &enrollment.QueryFilter{SemesterID: sem.ID, ProjectID: proj.ID})
}

// AddToTeam puts the user on the project's team for the semester, upserting
// their enrollment. The user is notified over chat and granted the project's
// chat role; both are best effort.
func (svc *Service) AddToTeam(ctx context.Context, actor, usr user.User, sem semester.Semester, proj Project) (enrollment.Enrollment, error) {
	now := time.Now().UTC()
	enr, err := svc.enrRepo.GetEnrollment(ctx, sem.ID, usr.ID)
	if err != nil {
		if err != enrollment.ErrNotFound {
			return enrollment.Enrollment{}, err
		}
		enr = enrollment.Enrollment{SemesterID: sem.ID, UserID: usr.ID, CreatedAt: now}
	}
	enr.ProjectID = null.StringFrom(proj.ID)
	enr.UpdatedAt = now

	enr, err = svc.enrRepo.UpsertEnrollment(ctx, enr)
	if err != nil {
		return enrollment.Enrollment{}, err
	}

	if usr.DiscordUserID != "" {
		if proj.DiscordRoleID != "" {
			if err := svc.chatSvc.AddMemberRole(ctx, usr.DiscordUserID, proj.DiscordRoleID); err != nil {
				svc.logger.Warn(fmt.Sprintf("adding chat role for user %s", usr.ID), err)
			}
		}
		msg := fmt.Sprintf("%s added you to the **%s** team! %s/projects/%s?semester=%s",
			actor.DiscordMention(), proj.Name, core.Conf.FrontendBaseURL, proj.Slug, sem.ID)
		if err := svc.chatSvc.SendDirectMessage(ctx, usr.DiscordUserID, msg); err != nil {
			svc.logger.Warn(fmt.Sprintf("notifying user %s", usr.ID), err)
		}
	}
	return enr, nil
}

// RemoveFromTeam detaches the user from the project, keeping their enrollment.
func (svc *Service) RemoveFromTeam(ctx context.Context, actor, usr user.User, sem semester.Semester, proj Project) error {
	if err := svc.enrRepo.ClearEnrollmentProject(ctx, sem.ID, usr.ID); err != nil {
		return err
	}

	if usr.DiscordUserID != "" {
		if proj.DiscordRoleID != "" {
			if err := svc.chatSvc.RemoveMemberRole(ctx, usr.DiscordUserID, proj.DiscordRoleID); err != nil {
				svc.logger.Warn(fmt.Sprintf("removing chat role for user %s", usr.ID), err)
			}
		}
		msg := fmt.Sprintf("%s removed you from the **%s** team.", actor.DiscordMention(), proj.Name)
		if err := svc.chatSvc.SendDirectMessage(ctx, usr.DiscordUserID, msg); err != nil {
			svc.logger.Warn(fmt.Sprintf("notifying user %s", usr.ID), err)
		}
	}
	return nil
}
