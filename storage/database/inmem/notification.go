package inmemdb

import (
	"context"
	"sort"

	"github.com/3bdulrahman-M3/Front/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	n.ID = repo.db.pkCount
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) QueryUnread(_ context.Context, userID int, limit int) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ns := make([]notification.Notification, 0)
	for _, n := range repo.db.table {
		if n.UserID == userID && !n.IsRead {
			ns = append(ns, *n)
		}
	}
	// newest first
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].ID > ns[j].ID
		}
		return ns[i].CreatedAt.After(ns[j].CreatedAt)
	})
	if limit > 0 && len(ns) > limit {
		ns = ns[:limit]
	}
	return ns, nil
}

func (repo *notificationRepository) CountUnread(_ context.Context, userID int) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, n := range repo.db.table {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, userID, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok || n.UserID != userID {
		return notification.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (repo *notificationRepository) MarkAllRead(_ context.Context, userID int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for _, n := range repo.db.table {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}
