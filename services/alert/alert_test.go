package alertsvc

import (
	"bytes"
	"context"
	"net/mail"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdulrahman-M3/Front/core/notification"
	emailsvc "github.com/3bdulrahman-M3/Front/services/email"
	"github.com/3bdulrahman-M3/Front/tests"
)

type failingAlerter struct{ calls int }

func (a *failingAlerter) Alert(context.Context, notification.Notification) error {
	a.calls++
	return errors.New("boom")
}

func TestConsoleAlerter(t *testing.T) {
	n := notification.Notification{Title: "New course", Message: "Go 101 is out", Type: "course", SenderName: "Ada"}

	tests := []struct {
		name string
		bell bool
		want string
	}{
		{name: "quiet", want: "[COURSE] New course: Go 101 is out (from Ada)\n"},
		{name: "bell", bell: true, want: "\a[COURSE] New course: Go 101 is out (from Ada)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, NewConsoleAlerter(&out, tt.bell).Alert(context.Background(), n))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestEmailAlerter(t *testing.T) {
	mailSvc := &testutil.MailServiceMock{}
	to := mail.Address{Name: "Jane", Address: "jane@example.com"}
	n := notification.Notification{Title: "Payment received", Message: "Thanks", Type: notification.TypePayment}

	require.NoError(t, NewEmailAlerter(mailSvc, to).Alert(context.Background(), n))
	sent := mailSvc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "notification", sent[0].TemplateName)
	assert.Equal(t, "notification_alert:payment", sent[0].Category)
	assert.Equal(t, "Payment received", sent[0].Subject)
	assert.Equal(t, []mail.Address{to}, sent[0].To)
	assert.Equal(t, n, sent[0].TemplateData)
}

func TestEmailAlerter_renders(t *testing.T) {
	mailSvc := emailsvc.NewConsoleServiceMock(testutil.NewConfig())
	n := notification.Notification{Title: "Live session", Message: "Starts in 5 minutes", SenderName: "Platform"}

	require.NoError(t, NewEmailAlerter(mailSvc, mail.Address{Address: "jane@example.com"}).Alert(context.Background(), n))
	sent := mailSvc.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Starts in 5 minutes")
	assert.Contains(t, sent[0].TextContent, "From: Platform")
	assert.Contains(t, sent[0].HTMLContent, "<h2>Live session</h2>")
}

func TestMulti(t *testing.T) {
	var out bytes.Buffer
	failing := &failingAlerter{}
	m := Multi{failing, NewConsoleAlerter(&out, false)}

	err := m.Alert(context.Background(), notification.Notification{Title: "hi", Type: "info"})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, "[INFO] hi\n", out.String(), "later alerters still run")
}
