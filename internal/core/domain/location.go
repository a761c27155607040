package domain

import "fmt"

// GeoPointType is the only GeoJSON geometry type stored for users.
const GeoPointType = "Point"

// GeoPoint is a GeoJSON point. Coordinates are always [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

// NewPoint builds a GeoPoint from API-ordered (latitude, longitude) values.
// It is the single place where the pair is swapped into storage order.
func NewPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Type: GeoPointType, Coordinates: [2]float64{lon, lat}}
}

// DefaultPoint is the location assigned to users that never reported one.
func DefaultPoint() GeoPoint {
	return NewPoint(0, 0)
}

func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }
func (p GeoPoint) Latitude() float64  { return p.Coordinates[1] }

// Coordinates is a position in API order.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate rejects positions outside the WGS84 ranges the geo index accepts.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrValidation, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrValidation, c.Longitude)
	}
	return nil
}

// Point converts API-ordered coordinates to the stored representation.
func (c Coordinates) Point() GeoPoint {
	return NewPoint(c.Latitude, c.Longitude)
}

// LocationRecord is the result of a successful location write.
type LocationRecord struct {
	UserID            string
	Username          string
	LastKnownLocation GeoPoint
	IsBeingTracked    bool
}

// TrackedUser is one entry of the tracked-users listing.
type TrackedUser struct {
	ID                string   `json:"id"`
	Username          string   `json:"username"`
	LastKnownLocation GeoPoint `json:"lastKnownLocation"`
}

// LocationUpdate is a validated realtime location event.
type LocationUpdate struct {
	UserID string
	Coords Coordinates
}
