package user

import (
	"testing"

	"github.com/volatiletech/null/v8"
)

func Test_inferRPIAccount(t *testing.T) {
	tests := []struct {
		name           string
		email          string
		wantRole       string
		wantApproved   bool
		wantRcsID      string
	}{
		{name: "rpi email", email: "schurr@rpi.edu", wantRole: RoleRPI, wantApproved: true, wantRcsID: "schurr"},
		{name: "rpi email uppercase", email: "Schurr@RPI.edu", wantRole: RoleRPI, wantApproved: true, wantRcsID: "schurr"},
		{name: "external email", email: "remy@gmail.com", wantRole: RoleExternal},
		{name: "rpi-ish domain", email: "remy@notrpi.education", wantRole: RoleExternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := User{Email: tt.email, Role: RoleExternal}
			usr.inferRPIAccount()
			if usr.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", usr.Role, tt.wantRole)
			}
			if usr.IsApproved != tt.wantApproved {
				t.Errorf("IsApproved = %v, want %v", usr.IsApproved, tt.wantApproved)
			}
			if usr.RcsID != tt.wantRcsID {
				t.Errorf("RcsID = %q, want %q", usr.RcsID, tt.wantRcsID)
			}
		})
	}
}

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		usr  User
		want string
	}{
		{
			name: "full rpi profile",
			usr: User{
				FirstName: "Remy", LastName: "Schurr", Role: RoleRPI,
				RcsID: "schurr", GraduationYear: null.IntFrom(2024),
			},
			want: "Remy S '24 (schurr)",
		},
		{
			name: "rpi without graduation year",
			usr:  User{FirstName: "Remy", LastName: "Schurr", Role: RoleRPI, RcsID: "schurr"},
			want: "Remy S (schurr)",
		},
		{
			name: "rpi rcs id only",
			usr:  User{Role: RoleRPI, RcsID: "schurr", Email: "schurr@rpi.edu"},
			want: "schurr",
		},
		{
			name: "external user",
			usr:  User{FirstName: "Remy", LastName: "Schurr", Role: RoleExternal},
			want: "Remy S",
		},
		{
			name: "no profile falls back to email",
			usr:  User{Email: "remy@gmail.com", Role: RoleExternal},
			want: "remy@gmail.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.usr.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUser_DiscordMention(t *testing.T) {
	usr := User{FirstName: "Remy", LastName: "Schurr", Role: RoleExternal}
	if got, want := usr.DiscordMention(), "Remy S"; got != want {
		t.Errorf("DiscordMention() = %q, want %q", got, want)
	}

	usr.DiscordUserID = "123456"
	if got, want := usr.DiscordMention(), "<@123456>"; got != want {
		t.Errorf("DiscordMention() = %q, want %q", got, want)
	}
}

func TestUser_IsSetup(t *testing.T) {
	usr := User{FirstName: "Remy", LastName: "Schurr"}
	if usr.IsSetup() {
		t.Error("IsSetup() = true, want false")
	}

	usr.GithubUsername = "rschurr"
	usr.DiscordUserID = "123456"
	if !usr.IsSetup() {
		t.Error("IsSetup() = false, want true")
	}
}

func TestUser_CheckPassword(t *testing.T) {
	var usr User
	if err := usr.SetPassword("s3cret"); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	if err := usr.CheckPassword("s3cret"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
	if err := usr.CheckPassword("nope"); err == nil {
		t.Error("CheckPassword() expected an error for a wrong password")
	}
}
