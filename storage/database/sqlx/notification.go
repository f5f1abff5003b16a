package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/notification"
)

type notificationRow struct {
	ID         int       `db:"id"`
	UserID     int       `db:"user_id"`
	SenderID   null.Int  `db:"sender_id"`
	SenderName string    `db:"sender_name"`
	Title      string    `db:"title"`
	Message    string    `db:"message"`
	Type       string    `db:"notification_type"`
	IsRead     bool      `db:"is_read"`
	CreatedAt  time.Time `db:"created_at"`
}

func (row notificationRow) notification() notification.Notification {
	return notification.Notification{
		ID:         row.ID,
		UserID:     row.UserID,
		SenderID:   row.SenderID.Int,
		SenderName: row.SenderName,
		Title:      row.Title,
		Message:    row.Message,
		Type:       row.Type,
		IsRead:     row.IsRead,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	exec core.DBExecutor
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(exec core.DBExecutor) notification.Repository {
	return &notificationRepository{exec: exec}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	q := `INSERT INTO notifications (user_id, sender_id, sender_name, title, message, notification_type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	senderID := null.NewInt(n.SenderID, n.SenderID != 0)
	err := repo.exec.QueryRowxContext(
		ctx, q, n.UserID, senderID, n.SenderName, n.Title, n.Message, n.Type, n.IsRead, n.CreatedAt.UTC(),
	).Scan(&n.ID)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return notification.Notification{}, errors.Wrapf(core.ErrNotFound, "user %d", n.UserID)
		}
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) QueryUnread(ctx context.Context, userID int, limit int) ([]notification.Notification, error) {
	q := `SELECT id, user_id, sender_id, sender_name, title, message, notification_type, is_read, created_at
		FROM notifications WHERE user_id = $1 AND NOT is_read
		ORDER BY created_at DESC, id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}

	var rows []notificationRow
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying unread notifications")
	}
	ns := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		ns = append(ns, row.notification())
	}
	return ns, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := repo.exec.GetContext(ctx, &count, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read", userID)
	return count, errors.Wrap(err, "counting unread notifications")
}

func (repo *notificationRepository) MarkRead(ctx context.Context, userID, id int) error {
	res, err := repo.exec.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	n, err := rowsAffected(res, "marking notification read")
	if err != nil {
		return err
	}
	if n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID int) (int, error) {
	res, err := repo.exec.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read", userID)
	if err != nil {
		return 0, errors.Wrap(err, "marking all notifications read")
	}
	return rowsAffected(res, "marking all notifications read")
}
