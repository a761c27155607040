package ports

import "context"

// RealtimeEvent is one inbound frame read from a live connection, not yet
// validated.
type RealtimeEvent struct {
	ConnectionID uint64
	// AuthUserID is the identity proven at upgrade time, empty when the
	// channel is open to unauthenticated clients.
	AuthUserID string
	Name       string
	Data       []byte
}

// RealtimeEventHandler processes inbound realtime events.
type RealtimeEventHandler interface {
	HandleEvent(ctx context.Context, event RealtimeEvent)
}
