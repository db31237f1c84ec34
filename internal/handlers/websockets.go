package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"simdash/internal/metrics"
	"simdash/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	subscribeWait = 10 * time.Second
	maxMsgSize    = 1 << 12 // 4 KB
)

var knownTables = map[string]struct{}{
	realtime.TableSimulationEvents: {},
	realtime.TableCheckupEvents:    {},
	realtime.TableTodos:            {},
}

// Upgrader for HTTP -> WebSocket.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins once the dashboard has a fixed host
}

// wsConnect serves the realtime change feed. The client must send a subscribe
// message first; the server answers with a status message and then streams
// row changes for the requested tables.
func (h *Handler) wsConnect(c *gin.Context) {
	if h.broker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime not ready"})
		return
	}
	uid := userID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)

	tables, err := readSubscribe(conn)
	if err != nil {
		if h.log != nil {
			h.log.Infow("ws_subscribe_rejected", "user_id", uid, "err", err)
		}
		_ = writeJSON(conn, realtime.Message{Type: realtime.TypeStatus, Status: realtime.StatusChannelError, Error: err.Error()})
		return
	}

	sub := h.broker.Subscribe(tables...)
	defer sub.Close()
	metrics.AddRealtimeClients(1)
	defer metrics.AddRealtimeClients(-1)

	if err := writeJSON(conn, realtime.Message{Type: realtime.TypeStatus, Status: realtime.StatusSubscribed, Tables: tables}); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}
	if h.log != nil {
		h.log.Debugw("ws_subscribed", "user_id", uid, "tables", tables)
	}

	// Configure pong handler to extend read deadline.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case change, ok := <-sub.C():
			if !ok {
				return
			}
			if !visibleTo(change, uid) {
				continue
			}
			if err := writeJSON(conn, realtime.FromChange(change)); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

func readSubscribe(conn *websocket.Conn) ([]string, error) {
	_ = conn.SetReadDeadline(time.Now().Add(subscribeWait))
	var msg realtime.Message
	if err := conn.ReadJSON(&msg); err != nil {
		return nil, err
	}
	if msg.Type != realtime.TypeSubscribe {
		return nil, errors.New("expected subscribe message")
	}
	if len(msg.Tables) == 0 {
		return nil, errors.New("no tables requested")
	}
	for _, t := range msg.Tables {
		if _, ok := knownTables[t]; !ok {
			return nil, errors.New("unknown table " + t)
		}
	}
	return msg.Tables, nil
}

// visibleTo hides todo rows of other users; event tables are shared.
func visibleTo(c realtime.Change, uid int) bool {
	if c.Table != realtime.TableTodos {
		return true
	}
	var owner struct {
		UserID int `json:"user_id"`
	}
	if err := json.Unmarshal(c.NewRow, &owner); err != nil {
		return false
	}
	return owner.UserID == uid
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}
