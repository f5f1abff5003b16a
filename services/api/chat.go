package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/chat"
)

var _ chat.Source = (*Client)(nil)

// MyConversation returns the support conversation of the signed in user.
func (c *Client) MyConversation(ctx context.Context) (chat.Conversation, error) {
	return call[chat.Conversation](ctx, c, http.MethodGet, "chat/conversation/", nil, nil)
}

// CreateConversation returns the conversation of the signed in user, creating it when missing.
func (c *Client) CreateConversation(ctx context.Context) (chat.Conversation, error) {
	return call[chat.Conversation](ctx, c, http.MethodPost, "chat/conversation/", nil, nil)
}

// Conversations lists every conversation (admins only).
func (c *Client) Conversations(ctx context.Context, filter chat.ConversationFilter) (core.Page[chat.Conversation], error) {
	query := Params{"search": filter.Search}
	if filter.UnreadOnly {
		query["unread_only"] = "true"
	}
	return call[core.Page[chat.Conversation]](ctx, c, http.MethodGet, "chat/conversations/", query, nil)
}

func (c *Client) ConversationDetail(ctx context.Context, convID int) (chat.Conversation, error) {
	return call[chat.Conversation](ctx, c, http.MethodGet, fmt.Sprintf("chat/conversations/%d/", convID), nil, nil)
}

func (c *Client) Messages(ctx context.Context, convID int) (core.Page[chat.Message], error) {
	return c.MessagesPage(ctx, convID, core.PageRequest{})
}

// MessagesPage returns a page of messages; page 1 holds the most recent ones.
func (c *Client) MessagesPage(ctx context.Context, convID int, req core.PageRequest) (core.Page[chat.Message], error) {
	query := Params{}
	if req.Page > 0 {
		query["page"] = req.Page
	}
	if req.PageSize > 0 {
		query["page_size"] = req.PageSize
	}
	return call[core.Page[chat.Message]](ctx, c, http.MethodGet, fmt.Sprintf("chat/conversations/%d/messages/", convID), query, nil)
}

func (c *Client) SendMessage(ctx context.Context, convID int, nm chat.NewMessage) (chat.Message, error) {
	if nm.MessageType == "" {
		nm.MessageType = chat.MessageTypeText
	}
	return call[chat.Message](ctx, c, http.MethodPost, fmt.Sprintf("chat/conversations/%d/messages/", convID), nil, nm)
}

func (c *Client) MarkConversationRead(ctx context.Context, convID int) error {
	return c.post(ctx, fmt.Sprintf("chat/conversations/%d/mark-read/", convID), nil, nil)
}

// MarkMessagesRead marks the given messages as read.
func (c *Client) MarkMessagesRead(ctx context.Context, ids []int) error {
	return c.post(ctx, "chat/messages/mark-read/", map[string][]int{"message_ids": ids}, nil)
}

// UnreadCount is the total of unread messages the signed in user can see.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	res, err := call[chat.UnreadCount](ctx, c, http.MethodGet, "chat/unread-count/", nil, nil)
	return res.UnreadCount, err
}

func (c *Client) ConversationUnreadCount(ctx context.Context, convID int) (int, error) {
	res, err := call[chat.UnreadCount](ctx, c, http.MethodGet, fmt.Sprintf("chat/conversations/%d/unread-count/", convID), nil, nil)
	return res.UnreadCount, err
}
