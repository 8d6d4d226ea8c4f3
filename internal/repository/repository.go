package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/avoronkov/vidtube/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	AvatarURL      *string
	CoverImageURL  *string
}

// UpdateAccountParams is a partial update: nil fields are left untouched.
type UpdateAccountParams struct {
	FullName      *string
	Email         *string
	AvatarURL     *string
	CoverImageURL *string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If username or email is taken already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Get user matching either username or email (logical OR)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByLogin(ctx context.Context, username string, email string) (models.User, error)

	// Set the currently valid refresh token, nil clears it.
	// Overwrites unconditionally (login, logout). Must be idempotent.
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error

	// Replace-if-equals: set refresh token to next only if the stored value
	// still equals current. Has to return apperrors.ErrRefreshTokenUsed when
	// the stored value changed in between (concurrent rotation).
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, current string, next string) error

	// Persist a new password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Partial update of account fields, returns the updated user
	UpdateAccount(ctx context.Context, userID uuid.UUID, params UpdateAccountParams) (models.User, error)
}

// Channel repository interface: subscriptions, channel profile aggregates
// and watch history. Plain persistence glue around the auth core.
type ChannelRepo interface {
	// Subscribe is idempotent: repeated calls are not an error
	Subscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error
	Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error

	// Channel page for viewer: user + subscription aggregates
	// If channel username not found must return apperrors.ErrChannelNotFound
	GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error)

	// CreateVideo persists video metadata (upload itself is the media relay's job)
	CreateVideo(ctx context.Context, video models.Video) (models.Video, error)

	// Record that user watched video; re-watching bumps watched_at.
	// Must return apperrors.ErrVideoNotFound for an unknown video.
	RecordWatch(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) error

	// Watch history, most recently watched first
	ListWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error)
}

// Storage combines all repositories over a single connection source
type Storage interface {
	User() UserRepo
	Channel() ChannelRepo

	// InTx runs fn with a Storage bound to one transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
