package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	if !isRole(role) {
		return errors.Errorf("unknown role %q", role)
	}

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	exists := err == nil
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{Email: email, CreatedAt: now}
	}
	usr.Name = core.CleanString(name)
	usr.Role = role
	usr.IsActive = true
	usr.UpdatedAt = time.Now().UTC()
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		usr, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		usr, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %d <%s> saved with role %s\n", usr.ID, usr.Email, usr.Role)
	return nil
}

func isRole(role string) bool {
	for _, r := range user.Roles {
		if r == role {
			return true
		}
	}
	return false
}
