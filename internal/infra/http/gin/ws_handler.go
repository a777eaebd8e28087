package ginserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"nepalmentor/internal/infra/realtime"
)

const (
	wsReadLimit  = 4 << 10
	wsPongWait   = 60 * time.Second
	wsReadBuffer = 1024
)

// WSHTTP upgrades chat clients onto the realtime dispatcher.
type WSHTTP interface {
	Serve(c *gin.Context)
}

type WSHandler struct {
	Relay  *realtime.Dispatcher
	Logger *slog.Logger

	upgrader websocket.Upgrader
}

func NewWSHandler(relay *realtime.Dispatcher, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		Relay:  relay,
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  wsReadBuffer,
			WriteBufferSize: wsReadBuffer,
			// Browser clients connect from the frontend origin; auth is
			// enforced per join by the resolver, not at upgrade time.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and runs the read loop until the client goes
// away. Every inbound frame is handed to the dispatcher; the write side
// lives on the connection's own loop.
func (h *WSHandler) Serve(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logWarn("websocket upgrade failed", "error", err)
		return
	}

	conn := realtime.NewConnection(ws)
	conn.Start()
	sess := realtime.NewSession(conn)
	defer func() {
		h.Relay.Disconnect(sess)
		conn.Close(websocket.CloseNormalClosure, "bye")
	}()

	ws.SetReadLimit(wsReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	ctx := c.Request.Context()
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logWarn("websocket read failed", "peer_id", conn.ID(), "error", err)
			}
			return
		}
		var evt realtime.ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			h.logWarn("malformed frame dropped", "peer_id", conn.ID(), "error", err)
			continue
		}
		h.Relay.HandleEvent(ctx, sess, evt)
	}
}

func (h *WSHandler) logWarn(msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.Warn(msg, args...)
	}
}

var _ WSHTTP = (*WSHandler)(nil)
