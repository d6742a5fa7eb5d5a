package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/notification"
	"github.com/gothwad/classesx/core/user"
)

type notificationApi struct {
	svc    notification.Service
	usrSvc user.Service
}

func registerNotificationAPI(authed *echo.Group, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := notificationApi{svc: deps.NotificationSvc, usrSvc: deps.UserSvc}

	ng := authed.Group("/notifications")
	ng.GET("", api.inbox)
	ng.POST("", api.send, admin)
	ng.GET("/sent", api.outbox, admin)
}

func (api *notificationApi) inbox(ctx echo.Context) error {
	items, err := api.svc.Inbox(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reading inbox")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *notificationApi) outbox(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	items, err := api.svc.Outbox(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "reading outbox")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *notificationApi) send(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data notification.Compose
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Compose")
	}
	n, err := api.svc.Send(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "sending notification")
	}
	return ctx.JSON(http.StatusCreated, n)
}
