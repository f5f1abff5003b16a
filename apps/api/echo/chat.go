package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core/chat"
)

type chatApi struct {
	svc *chat.Service
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *chat.Service) {
	api := chatApi{svc: svc}

	cg := g.Group("/chat", jwt)
	cg.GET("/conversation", api.myConversation)
	cg.POST("/conversation", api.startConversation)
	cg.GET("/conversations", api.conversations, adminMiddleware)
	cg.GET("/unread-count", api.unreadCount)
	cg.POST("/messages/mark-read", api.markMessagesRead)

	dg := cg.Group("/conversations/:id")
	dg.GET("", api.conversation)
	dg.GET("/messages", api.messages)
	dg.POST("/messages", api.send)
	dg.POST("/mark-read", api.markRead)
	dg.GET("/unread-count", api.conversationUnreadCount)
}

type MarkMessagesReadRequest struct {
	MessageIDs []int `json:"message_ids"`
}

func viewer(ctx echo.Context) (chat.Viewer, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return chat.Viewer{}, err
	}
	return claims.Viewer(), nil
}

func (api *chatApi) myConversation(ctx echo.Context) error {
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	conv, err := api.svc.MyConversation(ctx.Request().Context(), v)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *chatApi) startConversation(ctx echo.Context) error {
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	conv, created, err := api.svc.StartConversation(ctx.Request().Context(), v)
	if err != nil {
		return err
	}
	if created {
		return ctx.JSON(http.StatusCreated, conv)
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *chatApi) conversations(ctx echo.Context) error {
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	var filter chat.ConversationFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to ConversationFilter")
	}

	page, err := api.svc.Conversations(ctx.Request().Context(), v, filter, bindPage(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *chatApi) conversation(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	conv, err := api.svc.Conversation(ctx.Request().Context(), v, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *chatApi) messages(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	page, err := api.svc.Messages(ctx.Request().Context(), v, id, bindPage(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *chatApi) send(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	var data chat.NewMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	msg, err := api.svc.Send(ctx.Request().Context(), v, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *chatApi) markRead(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.MarkConversationRead(ctx.Request().Context(), v, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MarkedResponse{Success: "Conversation marked as read.", MarkedCount: n})
}

func (api *chatApi) markMessagesRead(ctx echo.Context) error {
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	var data MarkMessagesReadRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkMessagesReadRequest")
	}
	n, err := api.svc.MarkMessagesRead(ctx.Request().Context(), v, data.MessageIDs)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MarkedResponse{Success: "Messages marked as read.", MarkedCount: n})
}

func (api *chatApi) unreadCount(ctx echo.Context) error {
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.UnreadCount(ctx.Request().Context(), v)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chat.UnreadCount{UnreadCount: n})
}

func (api *chatApi) conversationUnreadCount(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	v, err := viewer(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.ConversationUnreadCount(ctx.Request().Context(), v, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chat.UnreadCount{UnreadCount: n})
}
