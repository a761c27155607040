package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/ishmeet5ingh/tracking-backend/internal/api/metrics"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

var connIDCounter atomic.Uint64

// Enqueuer hands inbound events to the worker that owns the connection.
type Enqueuer interface {
	Enqueue(ev ports.RealtimeEvent) bool
}

// Client is one websocket connection. Reads go to the dispatcher; writes come
// from the hub through send. send is never closed; done marks the end of the
// connection.
type Client struct {
	id         uint64
	hub        *Hub
	conn       *websocket.Conn
	events     Enqueuer
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	authUserID string

	// userID is the last user this connection reported for. Guarded by hub.mu.
	userID string
}

// NewClient wraps conn. authUserID is empty for anonymous connections.
func NewClient(hub *Hub, conn *websocket.Conn, events Enqueuer, authUserID string) *Client {
	return &Client{
		id:         connIDCounter.Add(1),
		hub:        hub,
		conn:       conn,
		events:     events,
		send:       make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		authUserID: authUserID,
	}
}

// close ends the connection's write side. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) ID() uint64 {
	return c.id
}

// Start registers the client and runs its pumps.
func (c *Client) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.hub.log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn().Err(err).Uint64("conn_id", c.id).Msg("unexpected websocket close")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.RealtimeEventsDroppedTotal.WithLabelValues(dropMalformed).Inc()
			c.hub.log.Warn().Err(err).Uint64("conn_id", c.id).Msg("unreadable frame dropped")
			continue
		}

		if msg.Event == EventPing {
			if frame, err := encode(EventPong, struct{}{}); err == nil {
				c.hub.sendTo(c.id, frame)
			}
			continue
		}

		ok := c.events.Enqueue(ports.RealtimeEvent{
			ConnectionID: c.id,
			AuthUserID:   c.authUserID,
			Name:         msg.Event,
			Data:         msg.Data,
		})
		if !ok {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.write(frame); err != nil {
				return
			}
			// Flush whatever queued up behind this frame under the same deadline.
			for n := len(c.send); n > 0; n-- {
				if err := c.write(<-c.send); err != nil {
					return
				}
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(frame []byte) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.hub.log.Debug().Err(err).Uint64("conn_id", c.id).Msg("write failed")
		return err
	}
	return nil
}
