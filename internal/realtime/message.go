package realtime

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/domain"
)

// Event names carried in the envelope.
const (
	EventLocationUpdate = "locationUpdate"
	EventNewLocation    = "newLocation"
	EventPing           = "ping"
	EventPong           = "pong"
)

// Message is the JSON envelope of every frame on the channel.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type coordsPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// locationUpdatePayload is the inbound locationUpdate body. Pointers let a
// missing coordinate be told apart from a zero one.
type locationUpdatePayload struct {
	UserID string         `json:"userId"`
	Coords *coordsPayload `json:"coords"`
}

// NewLocation is the outbound newLocation body.
type NewLocation struct {
	UserID   string             `json:"userId"`
	Username string             `json:"username"`
	Coords   domain.Coordinates `json:"coords"`
}

// decodeLocationUpdate validates the shape of a locationUpdate body. Every
// failure wraps domain.ErrMalformedEvent.
func decodeLocationUpdate(data []byte) (domain.LocationUpdate, error) {
	var p locationUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.LocationUpdate{}, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	switch {
	case p.UserID == "":
		return domain.LocationUpdate{}, fmt.Errorf("%w: missing userId", domain.ErrMalformedEvent)
	case p.Coords == nil:
		return domain.LocationUpdate{}, fmt.Errorf("%w: missing coords", domain.ErrMalformedEvent)
	case p.Coords.Latitude == nil:
		return domain.LocationUpdate{}, fmt.Errorf("%w: missing coords.latitude", domain.ErrMalformedEvent)
	case p.Coords.Longitude == nil:
		return domain.LocationUpdate{}, fmt.Errorf("%w: missing coords.longitude", domain.ErrMalformedEvent)
	}
	return domain.LocationUpdate{
		UserID: p.UserID,
		Coords: domain.Coordinates{Latitude: *p.Coords.Latitude, Longitude: *p.Coords.Longitude},
	}, nil
}

// encode builds a ready-to-send frame.
func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: event, Data: raw})
}
