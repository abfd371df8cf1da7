package echoapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core/notification"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/services/metrics"
	"github.com/trezcool/skillfolio/services/notify"
)

type notificationApi struct {
	svc      notification.Service
	users    user.Service
	hub      *notify.Hub
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := notificationApi{
		svc:     opts.NotificationSvc,
		users:   opts.UserSvc,
		hub:     opts.Hub,
		metrics: opts.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.FrontendBaseURL),
		},
	}

	ng := g.Group("/notifications", jwt, activeUserMiddleware(api.users))
	ng.GET("", api.list)
	ng.GET("/unread-count", api.unreadCount)
	ng.POST("/read-all", api.markAllRead)
	ng.POST("/:id/read", api.markRead)

	if api.hub != nil {
		g.GET("/ws", api.serveWS, middleware.JWTWithConfig(wsJWTConfig()), activeUserMiddleware(api.users))
	}
}

func (api *notificationApi) list(ctx echo.Context) error {
	var filter notification.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []notification.Notification{})
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ns, err := api.svc.List(ctx.Request().Context(), usr.ID, filter)
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	if ns == nil {
		ns = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, ns)
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	n, err := api.svc.UnreadCount(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	n, err := api.svc.MarkRead(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	n, err := api.svc.MarkAllRead(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

// serveWS upgrades the connection and streams the user's new notifications until it closes.
func (api *notificationApi) serveWS(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	conn, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// the upgrader already replied with an error status
		return nil
	}
	if api.metrics != nil {
		api.metrics.SocketOpened()
		defer api.metrics.SocketClosed()
	}
	api.hub.Serve(usr.ID, conn)
	return nil
}

// originChecker accepts same-host requests and the ones coming from the frontend.
func originChecker(frontendURL string) func(r *http.Request) bool {
	var frontendHost string
	if u, err := url.Parse(frontendURL); err == nil {
		frontendHost = u.Host
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host) || (frontendHost != "" && strings.EqualFold(u.Host, frontendHost))
	}
}

type CountResponse struct {
	Count int `json:"count"`
}
