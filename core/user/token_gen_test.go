package user

import (
	"testing"
	"time"

	"github.com/rcos-io/portal/core"
)

func TestMakeVerifyToken(t *testing.T) {
	usr := User{ID: "0f9376d3-4bb9-445a-a5c0-c15983d23f9f", Email: "schurr@rpi.edu"}
	if err := usr.SetPassword("s3cret"); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}

	validToken, err := MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken() failed, %v", err)
	}

	// generate an expired token
	origNowFunc := NowFunc
	dayLate := core.Conf.PasswordResetTimeoutDelta + 24*time.Hour
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := MakeToken(usr)
	NowFunc = origNowFunc
	if err != nil {
		t.Fatalf("MakeToken() failed, %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "no token", token: "", wantErr: errInvalidToken},
		{name: "invalid parts len", token: "invalid", wantErr: errInvalidToken},
		{name: "invalid base32 timestamp", token: "0!-signature", wantErr: errInvalidToken},
		{name: "invalid timestamp", token: "MFRGG-signature", wantErr: errInvalidToken}, // b32("abc")
		{name: "tampered token", token: validToken + "oops", wantErr: errInvalidToken},
		{name: "expired token", token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(usr, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMakeToken_singleUse(t *testing.T) {
	usr := User{ID: "0f9376d3-4bb9-445a-a5c0-c15983d23f9f", Email: "schurr@rpi.edu"}
	if err := usr.SetPassword("s3cret"); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}

	token, err := MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken() failed, %v", err)
	}
	if err := verifyToken(usr, token); err != nil {
		t.Fatalf("verifyToken() error = %v", err)
	}

	// a password change invalidates the token
	if err := usr.SetPassword("n3w-s3cret"); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	if err := verifyToken(usr, token); err != errInvalidToken {
		t.Errorf("verifyToken() error = %v, want %v", err, errInvalidToken)
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "0f9376d3-4bb9-445a-a5c0-c15983d23f9f"}

	uid := EncodeUID(usr)
	id, err := decodeUID(uid)
	if err != nil {
		t.Fatalf("decodeUID() failed, %v", err)
	}
	if id != usr.ID {
		t.Errorf("decodeUID() = %q, want %q", id, usr.ID)
	}

	if _, err := decodeUID("!!not-base64!!"); err == nil {
		t.Error("decodeUID() expected an error for invalid input")
	}
}
