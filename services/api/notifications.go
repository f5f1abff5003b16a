package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/3bdulrahman-M3/Front/core/notification"
)

var _ notification.Source = (*Client)(nil)

func (c *Client) RecentNotifications(ctx context.Context) (notification.Feed, error) {
	return call[notification.Feed](ctx, c, http.MethodGet, "notifications/recent/", nil, nil)
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	return c.patch(ctx, fmt.Sprintf("notifications/%d/mark_read/", id), nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.post(ctx, "notifications/mark_all_read/", nil, nil)
}

// CreateNotification sends a notification to a user (admins only).
func (c *Client) CreateNotification(ctx context.Context, nn notification.NewNotification) (notification.Notification, error) {
	return call[notification.Notification](ctx, c, http.MethodPost, "notifications/", nil, nn)
}
