package api

import (
	"net/http"
	"time"

	"FinScreen/internal/domain/models"
	xlogger "FinScreen/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Snapshot is one websocket push.
type Snapshot struct {
	Version uint64                 `json:"version"`
	Results map[string][]any       `json:"results"`
	States  []models.ScreenerState `json:"states"`
}

// Stream upgrades to a websocket and pushes a snapshot on connect and then
// every push interval in which the results changed.
func (h *ScreenersHandler) Stream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	remote := c.RealIP()
	h.logger.Debug("stream client connected", xlogger.String("remote", remote))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pushInterval)
	defer ticker.Stop()

	sent := uint64(0)
	first := true
	for {
		if v := h.results.Version(); first || v != sent {
			snap := Snapshot{Version: v, Results: h.results.All(), States: h.results.States()}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				h.logger.Debug("stream write failed", xlogger.String("remote", remote), xlogger.Error(err))
				return nil
			}
			sent, first = v, false
		}

		select {
		case <-ticker.C:
		case <-closed:
			h.logger.Debug("stream client disconnected", xlogger.String("remote", remote))
			return nil
		case <-h.quit:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			return nil
		}
	}
}
