package notification_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/notification"
	"github.com/3bdulrahman-M3/Front/storage/database/inmem"
	"github.com/3bdulrahman-M3/Front/tests"
)

func newTestService() *notification.Service {
	validate, translator := testutil.NewValidator()
	repo := inmemdb.NewNotificationRepository(inmemdb.Open())
	return notification.NewService(repo, validate, translator, core.NopLogger{})
}

func TestService_Create(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	n, err := svc.Create(ctx, notification.NewNotification{
		UserID:     7,
		Title:      " Welcome ",
		Message:    "Your course starts tomorrow",
		Type:       "COURSE",
		SenderName: "Admin",
	})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.Equal(t, "Welcome", n.Title)
	assert.Equal(t, notification.TypeCourse, n.Type)
	assert.False(t, n.IsRead)

	n, err = svc.Create(ctx, notification.NewNotification{UserID: 7, Title: "Hi", Message: "there"})
	require.NoError(t, err)
	assert.Equal(t, notification.TypeInfo, n.Type)

	tests := []struct {
		name      string
		nn        notification.NewNotification
		wantField string
	}{
		{name: "no user", nn: notification.NewNotification{Title: "t", Message: "m"}, wantField: "user_id"},
		{name: "blank title", nn: notification.NewNotification{UserID: 1, Title: "  ", Message: "m"}, wantField: "title"},
		{name: "bad type", nn: notification.NewNotification{UserID: 1, Title: "t", Message: "m", Type: "spam"}, wantField: "notification_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.nn)
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			require.NotEmpty(t, vErr.Fields)
			assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
		})
	}
}

func TestService_Feed(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	var last notification.Notification
	for i := 0; i < notification.RecentLimit+5; i++ {
		n, err := svc.Create(ctx, notification.NewNotification{UserID: 1, Title: fmt.Sprintf("n%d", i), Message: "m"})
		require.NoError(t, err)
		last = n
	}
	other, err := svc.Create(ctx, notification.NewNotification{UserID: 2, Title: "other", Message: "m"})
	require.NoError(t, err)

	feed, err := svc.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, feed.Notifications, notification.RecentLimit)
	assert.Equal(t, notification.RecentLimit+5, feed.UnreadCount)
	assert.Equal(t, last.ID, feed.Notifications[0].ID, "newest first")
	assert.NotEmpty(t, feed.Timestamp)

	// somebody else's notification
	assert.True(t, core.IsNotFound(svc.MarkRead(ctx, 1, other.ID)))
	assert.True(t, core.IsNotFound(svc.MarkRead(ctx, 1, 9999)))

	require.NoError(t, svc.MarkRead(ctx, 1, last.ID))
	feed, err = svc.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, notification.RecentLimit+4, feed.UnreadCount)
	assert.NotEqual(t, last.ID, feed.Notifications[0].ID)

	n, err := svc.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, notification.RecentLimit+4, n)

	feed, err = svc.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, feed.UnreadCount)
	assert.NotNil(t, feed.Notifications)
	assert.Empty(t, feed.Notifications)

	feed, err = svc.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.UnreadCount)
}
