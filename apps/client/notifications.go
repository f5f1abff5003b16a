package main

import (
	"context"
	"net/mail"
	"sync"

	"github.com/3bdulrahman-M3/Front/core/notification"
	alertsvc "github.com/3bdulrahman-M3/Front/services/alert"
)

func (cli *commandLine) listNotifications(ctx context.Context) error {
	if _, err := cli.signedIn(); err != nil {
		return err
	}
	feed, err := cli.api.RecentNotifications(ctx)
	if err != nil {
		return err
	}
	if len(feed.Notifications) == 0 {
		cli.p.printf("No notifications.\n")
		return nil
	}
	for _, n := range feed.Notifications {
		cli.p.notification(n)
	}
	cli.p.printf("%d unread\n", feed.UnreadCount)
	return nil
}

// watchNotifications polls until ctx is done, alerting on every new notification
// and printing the connection status and unread count when they change.
func (cli *commandLine) watchNotifications(ctx context.Context, bell, byEmail bool) error {
	usr, err := cli.signedIn()
	if err != nil {
		return err
	}

	alerters := alertsvc.Multi{alertsvc.NewConsoleAlerter(cli.p, bell)}
	if byEmail && cli.mailSvc != nil {
		alerters = append(alerters, alertsvc.NewEmailAlerter(cli.mailSvc, mail.Address{Name: usr.Name, Address: usr.Email}))
	}

	poller := notification.NewPoller(cli.api, cli.store, cli.logger).WithTicker(cli.newTicker)
	center := notification.NewCenter(poller, cli.store, cli.logger, alerters, cli.conf.Client.NotificationInterval)

	var (
		mu   sync.Mutex
		last notification.State
	)
	center.OnChange(func(st notification.State) {
		mu.Lock()
		defer mu.Unlock()
		if st.Status == last.Status && st.UnreadCount == last.UnreadCount {
			return
		}
		last = st
		cli.p.printf("%s %d unread\n", cli.p.c.Grey("("+string(st.Status)+")"), st.UnreadCount)
	})

	if !center.Start() {
		return errNotSignedIn
	}
	defer center.Stop()

	<-ctx.Done()
	return nil
}

func (cli *commandLine) readNotification(ctx context.Context, id int) error {
	if _, err := cli.signedIn(); err != nil {
		return err
	}
	if err := cli.api.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	cli.p.ok("Notification #%d marked read", id)
	return nil
}

func (cli *commandLine) readAllNotifications(ctx context.Context) error {
	if _, err := cli.signedIn(); err != nil {
		return err
	}
	if err := cli.api.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	cli.p.ok("All notifications marked read")
	return nil
}
