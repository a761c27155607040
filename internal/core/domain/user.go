package domain

import "time"

// User models a registered account together with its last reported position.
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	LastKnownLocation GeoPoint  `json:"lastKnownLocation"`
	IsBeingTracked    bool      `json:"isBeingTracked"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TokenClaims is the identity recovered from a verified session token.
type TokenClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time // zero when the token never expires
}
