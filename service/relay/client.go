package relay

import (
	"sync"
	"time"

	"LinkChat/logger"
	"LinkChat/tools/ids"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// Client represents one live session connected to the relay.
// A single user may have multiple devices/tabs, each maintained separately;
// a session with an empty UserID is anonymous: it receives presence
// broadcasts but is never registered for delivery.
type Client struct {
	ConnID    string
	UserID    string
	CreatedAt time.Time

	ws   *websocket.Conn
	send chan []byte // outbound queue, consumed by the single writer goroutine

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(userID string, ws *websocket.Conn) *Client {
	return &Client{
		ConnID:    ids.NewConnID(),
		UserID:    userID,
		CreatedAt: time.Now(),
		ws:        ws,
		send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
	}
}

// TrySend is the single push boundary of the relay: best-effort,
// non-blocking, errors swallowed. A push to a closed or backlogged session
// drops the payload; it must never stall a register/deregister path or the
// sender's request path.
func (c *Client) TrySend(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		logger.Warnf("[relay] send queue full, drop frame conn=%s user=%s", c.ConnID, c.UserID)
	}
}

// Close marks the session dead. Idempotent; safe to call from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump drains the send queue onto the socket and keeps the connection
// alive with pings. It owns all writes; on error it closes the socket so
// the read loop unblocks and the server deregisters the session.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[relay] write err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes inbound frames until the peer goes away. The relay has
// no client-to-server protocol: messages travel over HTTP and inbound ws
// traffic only matters as a liveness signal.
func (c *Client) readLoop() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[relay] peer closed conn=%s user=%s", c.ConnID, c.UserID)
			} else {
				logger.Infof("[relay] read err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
			}
			return
		}
	}
}
