package chat

import (
	"context"

	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
)

var (
	// ErrEmptyMessage is returned when sending a message with blank content.
	ErrEmptyMessage = errors.New("message cannot be blank")
	// ErrSending is returned when a send is attempted while another one is in flight.
	ErrSending = errors.New("a message is already being sent")
	// ErrNoConversation is returned when sending before a conversation is loaded or selected.
	ErrNoConversation = errors.New("no conversation")
)

// Source is the remote end of the chat, as used by the polling loops.
type Source interface {
	MyConversation(ctx context.Context) (Conversation, error)
	CreateConversation(ctx context.Context) (Conversation, error)
	Conversations(ctx context.Context, filter ConversationFilter) (core.Page[Conversation], error)
	Messages(ctx context.Context, convID int) (core.Page[Message], error)
	SendMessage(ctx context.Context, convID int, nm NewMessage) (Message, error)
	MarkConversationRead(ctx context.Context, convID int) error
	UnreadCount(ctx context.Context) (int, error)
}
