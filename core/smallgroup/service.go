package smallgroup

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("small group not found")
)

type (
	Repository interface {
		CreateSmallGroup(ctx context.Context, sg SmallGroup) (SmallGroup, error)
		// GetSmallGroup returns the group with its projects and mentors joined.
		GetSmallGroup(ctx context.Context, id string) (SmallGroup, error)
		// QuerySmallGroups returns groups for a semester (all when empty), ordered
		// by semester, name, location. Projects and mentors are joined.
		QuerySmallGroups(ctx context.Context, semesterID string) ([]SmallGroup, error)
		UpdateSmallGroup(ctx context.Context, sg SmallGroup) (SmallGroup, error)
		// GetSmallGroupForProject finds the semester's group containing the project.
		GetSmallGroupForProject(ctx context.Context, semesterID, projectID string) (SmallGroup, error)

		AddSmallGroupProject(ctx context.Context, groupID, projectID string) error
		RemoveSmallGroupProject(ctx context.Context, groupID, projectID string) error
		AddSmallGroupMentor(ctx context.Context, groupID, userID string) error
		RemoveSmallGroupMentor(ctx context.Context, groupID, userID string) error
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

func (svc *Service) Create(ctx context.Context, nsg NewSmallGroup) (SmallGroup, error) {
	now := time.Now().UTC()
	sg := SmallGroup{
		SemesterID:        nsg.SemesterID,
		Name:              nsg.Name,
		Location:          nsg.Location,
		DiscordCategoryID: nsg.DiscordCategoryID,
		DiscordRoleID:     nsg.DiscordRoleID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreateSmallGroup(ctx, sg)
}

func (svc *Service) Get(ctx context.Context, id string) (SmallGroup, error) {
	return svc.repo.GetSmallGroup(ctx, id)
}

func (svc *Service) Query(ctx context.Context, semesterID string) ([]SmallGroup, error) {
	return svc.repo.QuerySmallGroups(ctx, semesterID)
}

func (svc *Service) GetForProject(ctx context.Context, semesterID, projectID string) (SmallGroup, error) {
	return svc.repo.GetSmallGroupForProject(ctx, semesterID, projectID)
}

func (svc *Service) Update(ctx context.Context, id string, usg UpdateSmallGroup) (SmallGroup, error) {
	sg, err := svc.repo.GetSmallGroup(ctx, id)
	if err != nil {
		return SmallGroup{}, err
	}

	if usg.Name != nil {
		sg.Name = core.CleanString(*usg.Name)
	}
	if usg.Location != nil {
		sg.Location = core.CleanString(*usg.Location)
	}
	if usg.DiscordCategoryID != nil {
		sg.DiscordCategoryID = *usg.DiscordCategoryID
	}
	if usg.DiscordRoleID != nil {
		sg.DiscordRoleID = *usg.DiscordRoleID
	}
	sg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSmallGroup(ctx, sg)
}

func (svc *Service) AddProject(ctx context.Context, groupID, projectID string) error {
	return svc.repo.AddSmallGroupProject(ctx, groupID, projectID)
}

func (svc *Service) RemoveProject(ctx context.Context, groupID, projectID string) error {
	return svc.repo.RemoveSmallGroupProject(ctx, groupID, projectID)
}

// AddMentor links the mentor to the group and grants them the group's chat role,
// best effort.
func (svc *Service) AddMentor(ctx context.Context, groupID string, mentor user.User) error {
	if err := svc.repo.AddSmallGroupMentor(ctx, groupID, mentor.ID); err != nil {
		return err
	}

	sg, err := svc.repo.GetSmallGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if mentor.DiscordUserID != "" && sg.DiscordRoleID != "" {
		if err := svc.chatSvc.AddMemberRole(ctx, mentor.DiscordUserID, sg.DiscordRoleID); err != nil {
			svc.logger.Warn(fmt.Sprintf("adding chat role for mentor %s", mentor.ID), err)
		}
	}
	return nil
}

// RemoveMentor unlinks the mentor and revokes the group's chat role, best effort.
func (svc *Service) RemoveMentor(ctx context.Context, groupID string, mentor user.User) error {
	if err := svc.repo.RemoveSmallGroupMentor(ctx, groupID, mentor.ID); err != nil {
		return err
	}

	sg, err := svc.repo.GetSmallGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if mentor.DiscordUserID != "" && sg.DiscordRoleID != "" {
		if err := svc.chatSvc.RemoveMemberRole(ctx, mentor.DiscordUserID, sg.DiscordRoleID); err != nil {
			svc.logger.Warn(fmt.Sprintf("removing chat role for mentor %s", mentor.ID), err)
		}
	}
	return nil
}
