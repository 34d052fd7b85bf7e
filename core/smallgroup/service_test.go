package smallgroup_test

import (
	"context"
	"testing"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/smallgroup"
	"github.com/rcos-io/portal/core/user"
	discordsvc "github.com/rcos-io/portal/services/discord"
	"github.com/rcos-io/portal/storage/database/dummy"
)

func newTestService(t *testing.T) (*smallgroup.Service, *discordsvc.Mock) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	chatMock := discordsvc.NewMock()
	svc := smallgroup.NewService(dummydb.NewSmallGroupRepository(db), chatMock, core.NopLogger{})
	return svc, chatMock
}

func TestSmallGroup_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		sg   smallgroup.SmallGroup
		want string
	}{
		{name: "named group", sg: smallgroup.SmallGroup{Name: "Team Rocket", Location: "DCC 318"}, want: "Team Rocket"},
		{name: "location fallback", sg: smallgroup.SmallGroup{Location: "DCC 318"}, want: "DCC 318"},
		{name: "nothing set", sg: smallgroup.SmallGroup{}, want: "Unnamed Small Group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sg.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestService_CreateUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sg, err := svc.Create(ctx, smallgroup.NewSmallGroup{
		SemesterID: "202209",
		Location:   "DCC 318",
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if sg.ID == "" {
		t.Error("ID is empty, want a generated ID")
	}

	name := "Team Rocket"
	sg, err = svc.Update(ctx, sg.ID, smallgroup.UpdateSmallGroup{Name: &name})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if sg.Name != name {
		t.Errorf("Name = %q, want %q", sg.Name, name)
	}

	if _, err := svc.Update(ctx, "nope", smallgroup.UpdateSmallGroup{}); err != smallgroup.ErrNotFound {
		t.Errorf("Update() error = %v, want %v", err, smallgroup.ErrNotFound)
	}
}

func TestService_Projects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sg, err := svc.Create(ctx, smallgroup.NewSmallGroup{SemesterID: "202209", Location: "DCC 318"})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	if err := svc.AddProject(ctx, sg.ID, "project-1"); err != nil {
		t.Fatalf("AddProject() failed, %v", err)
	}

	got, err := svc.GetForProject(ctx, "202209", "project-1")
	if err != nil {
		t.Fatalf("GetForProject() failed, %v", err)
	}
	if got.ID != sg.ID {
		t.Errorf("GetForProject() = %q, want %q", got.ID, sg.ID)
	}

	if err := svc.RemoveProject(ctx, sg.ID, "project-1"); err != nil {
		t.Fatalf("RemoveProject() failed, %v", err)
	}
	if _, err := svc.GetForProject(ctx, "202209", "project-1"); err != smallgroup.ErrNotFound {
		t.Errorf("GetForProject() error = %v, want %v", err, smallgroup.ErrNotFound)
	}
}

func TestService_Mentors(t *testing.T) {
	ctx := context.Background()
	svc, chatMock := newTestService(t)

	sg, err := svc.Create(ctx, smallgroup.NewSmallGroup{
		SemesterID:    "202209",
		Location:      "DCC 318",
		DiscordRoleID: "role-1",
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	mentor := user.User{ID: "user-1", DiscordUserID: "discord-1"}
	if err := svc.AddMentor(ctx, sg.ID, mentor); err != nil {
		t.Fatalf("AddMentor() failed, %v", err)
	}
	if roles := chatMock.MemberRoles[mentor.DiscordUserID]; len(roles) != 1 || roles[0] != "role-1" {
		t.Errorf("MemberRoles = %v, want [role-1]", roles)
	}

	if err := svc.RemoveMentor(ctx, sg.ID, mentor); err != nil {
		t.Fatalf("RemoveMentor() failed, %v", err)
	}
	if roles := chatMock.MemberRoles[mentor.DiscordUserID]; len(roles) != 0 {
		t.Errorf("MemberRoles = %v, want none", roles)
	}
}
