package handler

import "github.com/ishmeet5ingh/tracking-backend/internal/core/domain"

// userResponse is the public view of a user. The password hash and
// timestamps are never exposed.
type userResponse struct {
	ID                string          `json:"id"`
	Username          string          `json:"username"`
	Email             string          `json:"email"`
	LastKnownLocation domain.GeoPoint `json:"lastKnownLocation"`
	IsBeingTracked    bool            `json:"isBeingTracked"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		LastKnownLocation: u.LastKnownLocation,
		IsBeingTracked:    u.IsBeingTracked,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}
