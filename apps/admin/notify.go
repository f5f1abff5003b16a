package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/notification"
	"github.com/3bdulrahman-M3/Front/core/user"
)

// notify sends a notification to the user identified by an ID or an email.
func (cli *commandLine) notify(recipient, title, message, typ string) error {
	ctx := context.Background()

	var (
		usr user.User
		err error
	)
	if id, convErr := strconv.Atoi(recipient); convErr == nil {
		usr, err = cli.usrRepo.GetUserByID(ctx, id)
	} else {
		usr, err = cli.usrRepo.GetUserByEmail(ctx, core.CleanString(recipient, true /* lower */))
	}
	if err != nil {
		return err
	}

	n, err := cli.notifSvc.Create(ctx, notification.NewNotification{
		UserID:     usr.ID,
		Title:      title,
		Message:    message,
		Type:       typ,
		SenderName: "Platform",
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "notification %d sent to <%s>\n", n.ID, usr.Email)
	return nil
}
