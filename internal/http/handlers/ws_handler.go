package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/http/middleware"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/realtime"
)

// Streamer is the connection registry behind the notification stream.
type Streamer interface {
	Register(userID uint, ws *websocket.Conn) *realtime.Conn
	Serve(c *realtime.Conn)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set Authorization on the handshake; the stream is
	// authenticated by the token query parameter instead of cookies.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NotificationStream godoc
// @ID          notificationStream
// @Summary     WebSocket push stream of new notifications
// @Description Upgrades to a WebSocket. The first frame is {"type":"unread_count"}; every notification created afterwards is pushed as {"type":"notification","data":{...}}.
// @Tags        Notifications
// @Param       token  query  string  false  "Access token (alternative to the Authorization header)"
// @Success     101  {string}  string  "Switching Protocols"
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /notifications/ws [get]
func (h *Handlers) NotificationStream(c *gin.Context) {
	tok := strings.TrimSpace(c.Query("token"))
	if tok == "" {
		tok = middleware.BearerToken(c.GetHeader("Authorization"))
	}
	if tok == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing token")
		return
	}
	uid, err := h.auth.ParseToken(tok)
	if err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token")
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		middleware.LoggerFrom(c).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := h.stream.Register(uid, ws)

	if n, err := h.notifs.UnreadCount(c.Request.Context(), uid); err == nil {
		_ = conn.Send(realtime.Message{Type: "unread_count", Data: UnreadCountResponse{Unread: n}})
	}
	h.stream.Serve(conn)
}
