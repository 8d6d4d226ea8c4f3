package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	FullName       string
	AvatarURL      *string
	CoverImageURL  *string
	HashedPassword string

	// Currently valid refresh token, nil when the user has no active
	// session. Exactly one session per user: issuing a new pair
	// overwrites this value and the previous token stops being honored.
	RefreshToken *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the projection that is safe to return to clients.
// Password hash and refresh token never leave the service layer.
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     *string   `json:"avatar"`
	CoverImage *string   `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.AvatarURL,
		CoverImage: u.CoverImageURL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
