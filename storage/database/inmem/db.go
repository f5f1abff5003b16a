// Package inmemdb holds the in-memory repositories, used by tests and by the API in dev (database.engine=inmem).
package inmemdb

import (
	"sync"

	"github.com/3bdulrahman-M3/Front/core/chat"
	"github.com/3bdulrahman-M3/Front/core/notification"
	"github.com/3bdulrahman-M3/Front/core/user"
)

type (
	DB struct {
		user         *userTable
		notification *notificationTable
		chat         *chatTables
	}

	userTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*user.User
	}

	notificationTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*notification.Notification
	}

	// conversations and messages share a lock: creating a message updates its conversation.
	chatTables struct {
		sync.RWMutex
		convPkCount   int
		msgPkCount    int
		conversations map[int]*chat.Conversation
		messages      map[int]*chat.Message
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[int]*user.User)},
		notification: &notificationTable{table: make(map[int]*notification.Notification)},
		chat: &chatTables{
			conversations: make(map[int]*chat.Conversation),
			messages:      make(map[int]*chat.Message),
		},
	}
}
