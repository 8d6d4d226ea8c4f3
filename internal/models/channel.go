package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelProfile is the public channel page: a user plus subscription
// aggregates computed for the viewing user.
type ChannelProfile struct {
	User              PublicUser `json:"user"`
	SubscriberCount   int64      `json:"subscriberCount"`
	SubscribedToCount int64      `json:"subscribedToCount"`
	Subscribed        bool       `json:"subscribed"`
}

type Video struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"ownerId"`
	Title        string    `json:"title"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL *string   `json:"thumbnail"`
	Duration     int32     `json:"durationSeconds"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WatchEntry is one row of a user's watch history, newest first.
type WatchEntry struct {
	Video     Video     `json:"video"`
	WatchedAt time.Time `json:"watchedAt"`
}
