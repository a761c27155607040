package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ishmeet5ingh/tracking-backend/internal/api/metrics"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/ports"
)

// Drop reasons, used as the metrics label and in logs.
const (
	dropMalformed        = "malformed"
	dropUnknownEvent     = "unknown_event"
	dropIdentityMismatch = "identity_mismatch"
	dropUserNotFound     = "user_not_found"
	dropStoreError       = "store_error"
)

// Hub keeps the registry of live connections and applies inbound events.
// Events for a given connection must be delivered to HandleEvent in order;
// the queue dispatcher guarantees that.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint64]*Client
	closed  bool

	// stallTimeout is how long a broadcast waits on a full send buffer
	// before the connection is considered stalled and evicted.
	stallTimeout time.Duration

	locations ports.LocationService
	log       zerolog.Logger
}

func NewHub(locations ports.LocationService, log zerolog.Logger) *Hub {
	return &Hub{
		clients:      make(map[uint64]*Client),
		stallTimeout: writeWait,
		locations:    locations,
		log:          log.With().Str("component", "realtime_hub").Logger(),
	}
}

// Register adds c to the broadcast set. A closed hub closes c right away.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close()
		return
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	metrics.RealtimeConnections.Set(float64(n))
	h.log.Debug().Uint64("conn_id", c.id).Str("auth_user_id", c.authUserID).Int("clients", n).Msg("client connected")
}

// Unregister removes c and ends its connection. Calling it twice is safe.
// The user's tracking flag is left as is.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	c.close()
	n := len(h.clients)
	userID := c.userID
	h.mu.Unlock()

	metrics.RealtimeConnections.Set(float64(n))
	h.log.Debug().Uint64("conn_id", c.id).Str("user_id", userID).Int("clients", n).Msg("client disconnected")
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues frame on every connection except exclude and returns the
// number of connections it reached. A full buffer is waited on for up to
// stallTimeout, shared across all full connections; connections still full
// after that are evicted.
func (h *Hub) Broadcast(frame []byte, exclude uint64) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		if id != exclude {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	var full []*Client
	for _, c := range targets {
		select {
		case c.send <- frame:
			delivered++
		case <-c.done:
		default:
			full = append(full, c)
		}
	}

	var stalled []*Client
	if len(full) > 0 {
		timer := time.NewTimer(h.stallTimeout)
		defer timer.Stop()
		expired := false
		for _, c := range full {
			if !expired {
				select {
				case c.send <- frame:
					delivered++
					continue
				case <-c.done:
					continue
				case <-timer.C:
					expired = true
				}
			}
			select {
			case c.send <- frame:
				delivered++
			case <-c.done:
			default:
				stalled = append(stalled, c)
			}
		}
	}

	if delivered > 0 {
		metrics.RealtimeBroadcastsTotal.WithLabelValues("queued").Add(float64(delivered))
	}
	for _, c := range stalled {
		h.log.Warn().Uint64("conn_id", c.id).Dur("waited", h.stallTimeout).Msg("client stalled, evicting")
		metrics.RealtimeBroadcastsTotal.WithLabelValues("evicted").Inc()
		h.Unregister(c)
	}
	return delivered
}

// sendTo queues frame on a single connection if it is still registered and
// has room.
func (h *Hub) sendTo(id uint64, frame []byte) bool {
	h.mu.RLock()
	c, ok := h.clients[id]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Close disconnects every client and rejects later registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
	metrics.RealtimeConnections.Set(0)
}

// HandleEvent applies one inbound event. Failures are logged and dropped;
// nothing is sent back to the originating connection.
func (h *Hub) HandleEvent(ctx context.Context, ev ports.RealtimeEvent) {
	switch ev.Name {
	case EventLocationUpdate:
		h.handleLocationUpdate(ctx, ev)
	default:
		h.drop(ev, dropUnknownEvent, nil)
	}
}

func (h *Hub) handleLocationUpdate(ctx context.Context, ev ports.RealtimeEvent) {
	update, err := decodeLocationUpdate(ev.Data)
	if err != nil {
		h.drop(ev, dropMalformed, err)
		return
	}
	if ev.AuthUserID != "" && update.UserID != ev.AuthUserID {
		h.drop(ev, dropIdentityMismatch, nil)
		return
	}

	rec, err := h.locations.UpdateLocation(ctx, update.UserID, update.Coords, ports.SourceRealtime)
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.drop(ev, dropMalformed, err)
		return
	case errors.Is(err, domain.ErrUserNotFound):
		h.drop(ev, dropUserNotFound, err)
		return
	case err != nil:
		h.drop(ev, dropStoreError, err)
		return
	}

	h.associate(ev.ConnectionID, rec.UserID)

	frame, err := encode(EventNewLocation, NewLocation{
		UserID:   update.UserID,
		Username: rec.Username,
		Coords:   update.Coords,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("encode newLocation")
		return
	}
	n := h.Broadcast(frame, ev.ConnectionID)
	h.log.Debug().Uint64("conn_id", ev.ConnectionID).Str("user_id", update.UserID).Int("recipients", n).Msg("location broadcast")
}

// associate records the user a connection reports for.
func (h *Hub) associate(connID uint64, userID string) {
	h.mu.Lock()
	if c, ok := h.clients[connID]; ok {
		c.userID = userID
	}
	h.mu.Unlock()
}

func (h *Hub) drop(ev ports.RealtimeEvent, reason string, err error) {
	metrics.RealtimeEventsDroppedTotal.WithLabelValues(reason).Inc()

	var e *zerolog.Event
	switch reason {
	case dropStoreError:
		e = h.log.Error()
	case dropUnknownEvent:
		e = h.log.Debug()
	default:
		e = h.log.Warn()
	}
	e.Err(err).
		Uint64("conn_id", ev.ConnectionID).
		Str("event", ev.Name).
		Str("reason", reason).
		Msg("realtime event dropped")
}
