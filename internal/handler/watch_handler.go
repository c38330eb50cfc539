package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	appsync "github.com/campusq/helpdesk-api/internal/sync"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	changeBacklog  = 32
	maxMessageSize = 512
)

// WatchHandler streams change notifications to connected sessions over a
// websocket, so each session re-reads shared state instead of trusting its
// own copy.
type WatchHandler struct {
	watcher  *appsync.Watcher
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWatchHandler constructs WatchHandler.
func NewWatchHandler(watcher *appsync.Watcher, logger *zap.Logger) *WatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchHandler{
		watcher: watcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

type changeMessage struct {
	Key     string `json:"key,omitempty"`
	Trigger string `json:"trigger"`
	At      string `json:"at"`
}

// Watch godoc
// @Summary Subscribe to change notifications
// @Description Upgrades to a websocket and pushes one message per change
// @Description trigger. Pass keys=queries,notifications to narrow delivery.
// @Tags Sync
// @Router /watch [get]
func (h *WatchHandler) Watch(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	var keys []string
	if raw := strings.TrimSpace(c.Query("keys")); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}

	changes := make(chan appsync.Change, changeBacklog)
	unsubscribe := h.watcher.Subscribe(keys, func(change appsync.Change) {
		select {
		case changes <- change:
		default:
			// Slow consumer. The next poll tick covers the dropped change.
		}
	})

	// Attaching counts as regaining focus: the session re-reads immediately.
	h.watcher.Refresh()

	go h.writePump(conn, changes, unsubscribe)
	go h.readPump(conn)
}

// Refresh godoc
// @Summary Request an immediate re-read
// @Description Fans a refresh trigger out to every subscribed session.
// @Tags Sync
// @Success 204
// @Router /sync/refresh [post]
func (h *WatchHandler) Refresh(c *gin.Context) {
	h.watcher.Refresh()
	c.Status(http.StatusNoContent)
}

func (h *WatchHandler) writePump(conn *websocket.Conn, changes <-chan appsync.Change, unsubscribe func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		unsubscribe()
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case change, ok := <-changes:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msg := changeMessage{
				Key:     change.Key,
				Trigger: string(change.Trigger),
				At:      change.At.UTC().Format(time.RFC3339),
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so control messages are processed and a
// closed peer is noticed.
func (h *WatchHandler) readPump(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
