package main

import (
	"context"
	"time"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(email, pwd string, isStaff bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true)
	now := time.Now().UTC()
	approved := true

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Email:     email,
			Role:      user.RoleExternal,
			IsStaff:   isStaff,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		usr.IsApproved = true
		if _, err := cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return err
		}
		return nil
	}

	usr.IsStaff = isStaff
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateUser(ctx, usr, &approved); err != nil {
		return err
	}
	return nil
}
