package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/live"
	"github.com/gothwad/classesx/core/user"
)

const liveWriteWait = 10 * time.Second

type liveApi struct {
	broker   live.Broker
	usrSvc   user.Service
	logger   core.Logger
	upgrader websocket.Upgrader
}

func registerLiveAPI(v1 *echo.Group, deps ServerDeps) {
	api := liveApi{
		broker: deps.Broker,
		usrSvc: deps.UserSvc,
		logger: deps.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowedOrigin(deps.Conf.Server.AllowedOrigins),
		},
	}
	// browsers cannot set headers on a websocket handshake
	v1.GET("/live", api.subscribe, middleware.JWTWithConfig(liveJWTConfig))
}

func allowedOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// subscribe streams a live.Event for every change on the requested topics until the socket closes.
func (api *liveApi) subscribe(ctx echo.Context) error {
	if _, err := getContextUser(ctx, api.usrSvc); err != nil {
		return errors.Wrap(err, "getting context user")
	}
	topics := ctx.QueryParams()["topic"]
	if len(topics) == 0 {
		return core.NewFieldError("topic", "At least one topic is required.")
	}

	conn, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// the upgrader already replied
		api.logger.Warn("upgrading to websocket", err)
		return nil
	}
	defer conn.Close()

	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := api.broker.Subscribe(subCtx, topics...)
	if err != nil {
		api.logger.Error("subscribing to live topics", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(liveWriteWait))
		return nil
	}
	defer func() { _ = sub.Close() }()

	// clients never send; reading only notices the close
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-subCtx.Done():
			return nil
		case evt, ok := <-sub.C():
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return nil
			}
		}
	}
}
