package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ishmeet5ingh/tracking-backend/internal/api/middleware"
	"github.com/ishmeet5ingh/tracking-backend/internal/realtime"
)

// RealtimeHandler upgrades GET /ws to a websocket connection owned by the hub.
type RealtimeHandler struct {
	hub      *realtime.Hub
	events   realtime.Enqueuer
	origins  []string
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewRealtimeHandler accepts connections from origins; "*" allows any origin,
// including clients that send none.
func NewRealtimeHandler(hub *realtime.Hub, events realtime.Enqueuer, origins []string, log zerolog.Logger) *RealtimeHandler {
	h := &RealtimeHandler{hub: hub, events: events, origins: origins, log: log}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// Serve upgrades the request. When the route sits behind the Auth middleware
// the connection is bound to the authenticated user.
//
// @Summary      Realtime location channel
// @Tags         realtime
// @Param        token  query  string  false  "Session token, when realtime auth is enabled"
// @Success      101
// @Router       /ws [get]
func (h *RealtimeHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.log.Debug().Err(err).Str("remote_ip", c.RealIP()).Msg("websocket upgrade failed")
		return nil
	}

	authUserID, _ := c.Get(middleware.CtxUserID).(string)
	client := realtime.NewClient(h.hub, conn, h.events, authUserID)
	client.Start()
	h.log.Debug().Uint64("conn_id", client.ID()).Str("remote_ip", c.RealIP()).Msg("websocket connected")
	return nil
}

func (h *RealtimeHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, allowed := range h.origins {
		if allowed == "*" || (origin != "" && allowed == origin) {
			return true
		}
	}
	h.log.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}
