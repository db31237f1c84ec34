package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"simdash/internal/dashboard"
	"simdash/internal/realtime"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	// server pings every 54s; allow one missed ping
	wsReadWait   = 2 * time.Minute
	wsMaxMessage = 1 << 20
)

// subscription is one websocket connection. Callbacks run on its reader
// goroutine; Close never waits for that goroutine.
type subscription struct {
	conn *websocket.Conn

	once   sync.Once
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Subscribe opens the realtime websocket, asks for tables and delivers
// status reports and row changes to l until Close or a connection error.
// The SUBSCRIBED acknowledgement arrives through l.OnStatus.
func (c *Client) Subscribe(ctx context.Context, tables []string, l dashboard.Listener) (dashboard.Subscription, error) {
	tok := c.Token()
	if tok == "" {
		return nil, dashboard.ErrNotAuthenticated
	}
	target, err := c.wsURL(tok)
	if err != nil {
		return nil, err
	}
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+tok)

	conn, resp, err := c.dialer.DialContext(ctx, target, hdr)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial realtime: %w", &APIError{StatusCode: resp.StatusCode, Message: resp.Status})
		}
		return nil, fmt.Errorf("dial realtime: %w", err)
	}
	conn.SetReadLimit(wsMaxMessage)

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(realtime.Message{Type: realtime.TypeSubscribe, Tables: tables}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send subscribe: %w", err)
	}

	s := &subscription{conn: conn, done: make(chan struct{})}
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(wsWriteWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	go s.read(l, c)
	c.log.Debugw("realtime_subscribe_sent", "tables", tables)
	return s, nil
}

func (c *Client) wsURL(token string) (string, error) {
	u := *c.base
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(c.base.Path, "/") + "/ws"
	q := url.Values{}
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *subscription) read(l dashboard.Listener, c *Client) {
	defer close(s.done)
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(wsReadWait))
		var msg realtime.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if s.isClosed() {
				return
			}
			status := realtime.StatusClosed
			var ne interface{ Timeout() bool }
			if errors.As(err, &ne) && ne.Timeout() {
				status = realtime.StatusTimedOut
			}
			c.log.Infow("realtime_read_failed", "status", status, "err", err)
			if l.OnStatus != nil {
				l.OnStatus(status, err)
			}
			return
		}

		switch msg.Type {
		case realtime.TypeStatus:
			var err error
			if msg.Error != "" {
				err = errors.New(msg.Error)
			}
			if l.OnStatus != nil {
				l.OnStatus(msg.Status, err)
			}
		case realtime.EventInsert, realtime.EventUpdate, realtime.EventDelete:
			if l.OnChange != nil {
				l.OnChange(dashboard.Notification{Table: msg.Table, Event: msg.Type, NewRow: msg.NewRow})
			}
		case realtime.TypeError:
			if l.OnStatus != nil {
				l.OnStatus(realtime.StatusChannelError, errors.New(msg.Error))
			}
		default:
			c.log.Debugw("realtime_unknown_message", "type", msg.Type)
		}
	}
}

func (s *subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close sends a close frame and drops the connection. Safe to call from a
// callback and more than once.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteWait))
		err = s.conn.Close()
	})
	return err
}
