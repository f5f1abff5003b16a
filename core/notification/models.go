package notification

import (
	"time"

	"github.com/3bdulrahman-M3/Front/core"
)

// Notification types
const (
	TypeInfo       = "info"
	TypeCourse     = "course"
	TypePayment    = "payment"
	TypeSession    = "session"
	TypeChat       = "chat"
	TypeApproval   = "approval"
	TypeAnnouncing = "announcement"
)

var Types = []string{TypeInfo, TypeCourse, TypePayment, TypeSession, TypeChat, TypeApproval, TypeAnnouncing}

type Notification struct {
	ID         int       `json:"id"`
	UserID     int       `json:"-"`
	SenderID   int       `json:"-"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"notification_type"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	SenderName string    `json:"sender_name,omitempty"`
}

// Feed is the payload of the recent notifications endpoint.
type Feed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
	Timestamp     string         `json:"timestamp"`
}

// Update is what subscribers receive.
// Seq grows by one with every delivered update; a listener seeing UnreadCount drop to zero
// with a higher Seq knows the drop is real and not a suppressed repeat.
type Update struct {
	Feed
	Seq uint64
}

// NewNotification contains information needed to create a Notification.
type NewNotification struct {
	UserID     int    `json:"user_id" validate:"required,min=1"`
	Title      string `json:"title" validate:"required,notblank,max=200"`
	Message    string `json:"message" validate:"required,notblank"`
	Type       string `json:"notification_type" validate:"omitempty,oneof=info course payment session chat approval announcement"`
	SenderID   int    `json:"-"`
	SenderName string `json:"-"`
}

func (nn *NewNotification) Clean() {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	nn.Type = core.CleanString(nn.Type, true /* lower */)
	if nn.Type == "" {
		nn.Type = TypeInfo
	}
}

// CountUnread returns the number of unread notifications in ns.
func CountUnread(ns []Notification) int {
	var n int
	for _, notif := range ns {
		if !notif.IsRead {
			n++
		}
	}
	return n
}
