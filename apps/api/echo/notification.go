package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/notification"
	"github.com/3bdulrahman-M3/Front/core/user"
)

type notificationApi struct {
	svc    *notification.Service
	usrSvc *user.Service
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notification.Service, usrSvc *user.Service) {
	api := notificationApi{svc: svc, usrSvc: usrSvc}

	ng := g.Group("/notifications", jwt)
	ng.GET("/recent", api.recent)
	ng.POST("", api.create, adminMiddleware)
	ng.PATCH("/:id/mark_read", api.markRead)
	ng.POST("/mark_all_read", api.markAllRead)
}

func (api *notificationApi) recent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	feed, err := api.svc.Recent(ctx.Request().Context(), claims.UserID())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, feed)
}

func (api *notificationApi) create(ctx echo.Context) error {
	var data notification.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}

	if data.UserID > 0 {
		if _, err := api.usrSvc.GetByID(ctx.Request().Context(), data.UserID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.NewValidationError(err, core.FieldError{Field: "user_id", Error: "user does not exist"})
			}
			return errors.Wrap(err, "finding recipient")
		}
	}

	sender, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	data.SenderID = sender.ID
	data.SenderName = sender.Name

	n, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.MarkRead(ctx.Request().Context(), claims.UserID(), id); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MarkedResponse{Success: "Notification marked as read.", MarkedCount: 1})
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.MarkAllRead(ctx.Request().Context(), claims.UserID())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MarkedResponse{Success: "All notifications marked as read.", MarkedCount: n})
}
