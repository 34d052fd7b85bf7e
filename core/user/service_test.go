package user_test

import (
	"context"
	"testing"

	"github.com/rcos-io/portal/core/user"
	emailsvc "github.com/rcos-io/portal/services/email"
	"github.com/rcos-io/portal/storage/database/dummy"

	"github.com/rcos-io/portal/core"
	_ "github.com/rcos-io/portal/fs" // load email templates
)

func newTestService(t *testing.T) *user.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	return user.NewService(dummydb.NewUserRepository(db), emailsvc.NewConsoleServiceMock(), core.NopLogger{})
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	sentBefore := len(emailsvc.SentMessages)

	usr, err := svc.Create(ctx, user.NewUser{
		Email:           "schurr@rpi.edu",
		FirstName:       "Remy",
		LastName:        "Schurr",
		Password:        "s3cret",
		PasswordConfirm: "s3cret",
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	// institutional accounts are classified on creation
	if usr.Role != user.RoleRPI || !usr.IsApproved || usr.RcsID != "schurr" {
		t.Errorf("Create() = %+v, want an approved RPI user with RCS ID schurr", usr)
	}
	if err := usr.CheckPassword("s3cret"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	// a welcome email went out
	if len(emailsvc.SentMessages) != sentBefore+1 {
		t.Fatalf("sent emails = %d, want %d", len(emailsvc.SentMessages), sentBefore+1)
	}
	if msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]; msg.Subject != "Welcome to RCOS" {
		t.Errorf("Subject = %q, want %q", msg.Subject, "Welcome to RCOS")
	}

	got, err := svc.GetByRcsID(ctx, "schurr")
	if err != nil {
		t.Fatalf("GetByRcsID() failed, %v", err)
	}
	if got.ID != usr.ID {
		t.Errorf("GetByRcsID() = %q, want %q", got.ID, usr.ID)
	}
}

func TestService_PasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	usr, err := svc.Create(ctx, user.NewUser{
		Email:           "remy@gmail.com",
		Password:        "s3cret",
		PasswordConfirm: "s3cret",
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, "nobody@gmail.com"); err != user.ErrNotFound {
		t.Errorf("RequestPasswordReset() error = %v, want %v", err, user.ErrNotFound)
	}

	sentBefore := len(emailsvc.SentMessages)
	if err := svc.RequestPasswordReset(ctx, usr.Email); err != nil {
		t.Fatalf("RequestPasswordReset() failed, %v", err)
	}
	if len(emailsvc.SentMessages) != sentBefore+1 {
		t.Fatalf("sent emails = %d, want %d", len(emailsvc.SentMessages), sentBefore+1)
	}

	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	data, ok := msg.TemplateData.(struct{ FullName, UID, Token string })
	if !ok {
		t.Fatalf("TemplateData = %#v, want reset token data", msg.TemplateData)
	}

	// a bogus token is rejected
	err = svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:             data.UID,
		Token:           "bogus",
		Password:        "n3w-s3cret",
		PasswordConfirm: "n3w-s3cret",
	})
	if err == nil {
		t.Error("ResetPassword() expected an error for a bogus token")
	}

	err = svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:             data.UID,
		Token:           data.Token,
		Password:        "n3w-s3cret",
		PasswordConfirm: "n3w-s3cret",
	})
	if err != nil {
		t.Fatalf("ResetPassword() failed, %v", err)
	}

	usr, err = svc.GetByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetByID() failed, %v", err)
	}
	if err := usr.CheckPassword("n3w-s3cret"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	// the token is single use
	err = svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:             data.UID,
		Token:           data.Token,
		Password:        "another",
		PasswordConfirm: "another",
	})
	if err == nil {
		t.Error("ResetPassword() expected an error for a reused token")
	}
}

func TestService_LinkAccounts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	usr, err := svc.Create(ctx, user.NewUser{
		Email:           "remy@gmail.com",
		Password:        "s3cret",
		PasswordConfirm: "s3cret",
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	usr, err = svc.LinkDiscord(ctx, usr, "123456")
	if err != nil {
		t.Fatalf("LinkDiscord() failed, %v", err)
	}
	if usr.DiscordUserID != "123456" {
		t.Errorf("DiscordUserID = %q, want %q", usr.DiscordUserID, "123456")
	}

	usr, err = svc.LinkGithub(ctx, usr, "RSchurr")
	if err != nil {
		t.Fatalf("LinkGithub() failed, %v", err)
	}
	if usr.GithubUsername != "rschurr" {
		t.Errorf("GithubUsername = %q, want %q", usr.GithubUsername, "rschurr")
	}
}
