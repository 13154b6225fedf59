package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/healthymentoring/backend/core"
	"github.com/healthymentoring/backend/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	lookup := uname
	if lookup == "" {
		lookup = email
	}

	var found bool
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, lookup)
	switch errors.Cause(err) {
	case nil:
		found = true
	case user.ErrNotFound:
		now := time.Now().UTC()
		usr = user.User{
			ID:        uuid.New(),
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
	default:
		return err
	}

	if isAdmin {
		usr.Roles = user.AllRoles
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	usr.IsActive = true

	if found {
		isActive := true
		_, err = cli.usrRepo.UpdateUser(ctx, usr, &isActive)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
