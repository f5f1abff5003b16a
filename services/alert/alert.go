// Package alertsvc holds the notification.Alerter implementations used by the client.
package alertsvc

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/notification"
)

type consoleAlerter struct {
	out  io.Writer
	bell bool
}

var _ notification.Alerter = (*consoleAlerter)(nil)

// NewConsoleAlerter prints alerts to out, ringing the terminal bell when bell is set.
func NewConsoleAlerter(out io.Writer, bell bool) notification.Alerter {
	return &consoleAlerter{out: out, bell: bell}
}

func (a *consoleAlerter) Alert(_ context.Context, n notification.Notification) error {
	var b strings.Builder
	if a.bell {
		b.WriteByte('\a')
	}
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(n.Type), n.Title)
	if n.Message != "" {
		fmt.Fprintf(&b, ": %s", n.Message)
	}
	if n.SenderName != "" {
		fmt.Fprintf(&b, " (from %s)", n.SenderName)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(a.out, b.String())
	return errors.Wrap(err, "writing alert")
}

type emailAlerter struct {
	mailSvc core.EmailService
	to      mail.Address
}

var _ notification.Alerter = (*emailAlerter)(nil)

// NewEmailAlerter forwards alerts by email to the signed in user.
func NewEmailAlerter(mailSvc core.EmailService, to mail.Address) notification.Alerter {
	return &emailAlerter{mailSvc: mailSvc, to: to}
}

func (a *emailAlerter) Alert(_ context.Context, n notification.Notification) error {
	a.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{a.to},
		Subject:      n.Title,
		TemplateName: "notification",
		TemplateData: n,
		Category:     "notification_alert:" + n.Type,
	})
	return nil
}

// Multi fans an alert out to every alerter, returning the first error.
type Multi []notification.Alerter

var _ notification.Alerter = Multi(nil)

func (m Multi) Alert(ctx context.Context, n notification.Notification) error {
	var firstErr error
	for _, a := range m {
		if err := a.Alert(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
