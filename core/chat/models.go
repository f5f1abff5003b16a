// Package chat is the support chat between users and the platform admins:
// the server side Service and the client side polling loops (Room, Desk, UnreadWatcher).
package chat

import (
	"strconv"
	"time"

	"github.com/3bdulrahman-M3/Front/core"
)

// Sender roles
const (
	SenderStudent    = "student"
	SenderInstructor = "instructor"
	SenderAdmin      = "admin"
)

const MessageTypeText = "text"

type Conversation struct {
	ID                 int             `json:"id"`
	UserID             int             `json:"user"`
	UserName           string          `json:"user_name"`
	UserEmail          string          `json:"user_email"`
	LastMessagePreview *MessagePreview `json:"last_message_preview"`
	LastMessageAt      *time.Time      `json:"last_message_at"`
	UnreadCount        int             `json:"unread_count"` // as seen by the requester
	CreatedAt          time.Time       `json:"created_at"`
}

// DisplayName is the user name, or the email when the user has none.
func (c Conversation) DisplayName() string {
	if c.UserName != "" {
		return c.UserName
	}
	return c.UserEmail
}

type MessagePreview struct {
	Content    string    `json:"content"`
	SenderRole string    `json:"sender_role"`
	CreatedAt  time.Time `json:"created_at"`
}

type Message struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversation"`
	SenderID       int       `json:"sender"`
	SenderName     string    `json:"sender_name"`
	SenderRole     string    `json:"sender_role"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`

	// set on messages appended locally while their send is in flight
	LocalID string `json:"-"`
	Pending bool   `json:"-"`
}

// NewMessage is the payload of a sent message.
type NewMessage struct {
	Content     string `json:"content" validate:"required,notblank,max=5000"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text"`
}

func (nm *NewMessage) Clean() {
	nm.Content = core.CleanString(nm.Content)
	nm.MessageType = core.CleanString(nm.MessageType, true /* lower */)
	if nm.MessageType == "" {
		nm.MessageType = MessageTypeText
	}
}

// ConversationFilter narrows the admin conversation list.
type ConversationFilter struct {
	Search     string `query:"search"`
	UnreadOnly bool   `query:"unread_only"`
}

func (f *ConversationFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}

// UnreadCount is the payload of the unread count endpoints.
type UnreadCount struct {
	UnreadCount int `json:"unread_count"`
}

// Badge renders an unread count the way the chat bell does: "" for none, "9+" above nine.
func Badge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 9:
		return "9+"
	default:
		return strconv.Itoa(n)
	}
}
