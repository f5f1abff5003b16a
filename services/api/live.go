package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/3bdulrahman-M3/Front/core"
)

type LiveSession struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	RoomName    string `json:"room_name,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	CourseID    int    `json:"course,omitempty"`
}

func (c *Client) LiveSessions(ctx context.Context) (core.Page[LiveSession], error) {
	return call[core.Page[LiveSession]](ctx, c, http.MethodGet, "live/sessions/", nil, nil)
}

func (c *Client) CreateLiveSession(ctx context.Context, s LiveSession) (LiveSession, error) {
	return call[LiveSession](ctx, c, http.MethodPost, "live/sessions/create/", nil, s)
}

func (c *Client) LiveSession(ctx context.Context, id int) (LiveSession, error) {
	return call[LiveSession](ctx, c, http.MethodGet, fmt.Sprintf("live/sessions/%d/", id), nil, nil)
}

// JaaSToken returns the token joining a video room.
func (c *Client) JaaSToken(ctx context.Context, roomName string) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, "live/jaas-token/", nil, map[string]string{"room_name": roomName})
}

// AskChatbot sends a message to the assistant.
func (c *Client) AskChatbot(ctx context.Context, message string) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, "chatbot/message/", nil, map[string]string{"message": message})
}
