package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avoronkov/vidtube/internal/apperrors"
	"github.com/avoronkov/vidtube/internal/models"
)

type ChannelRepo struct {
	DB DBTX
}

const subscribe = `-- name: Subscribe
INSERT INTO subscriptions (subscriber_id, channel_id)
VALUES ($1, $2)
ON CONFLICT (subscriber_id, channel_id) DO NOTHING
`

func (r *ChannelRepo) Subscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, subscribe, subscriberID, channelID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrChannelNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const unsubscribe = `-- name: Unsubscribe
DELETE FROM subscriptions
WHERE subscriber_id = $1 AND channel_id = $2
`

// Unsubscribe is idempotent: removing a missing subscription is not an error
func (r *ChannelRepo) Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, unsubscribe, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const getChannelProfile = `-- name: GetChannelProfile
SELECT
    u.id, u.username, u.email, u.full_name, u.avatar_url, u.cover_image_url,
    u.created_at, u.updated_at,
    (SELECT count(*) FROM subscriptions WHERE channel_id = u.id)    AS subscriber_count,
    (SELECT count(*) FROM subscriptions WHERE subscriber_id = u.id) AS subscribed_to_count,
    EXISTS (
        SELECT 1 FROM subscriptions
        WHERE channel_id = u.id AND subscriber_id = $2
    ) AS subscribed
FROM users u
WHERE u.username = $1
`

func (r *ChannelRepo) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error) {
	rows, _ := r.DB.Query(ctx, getChannelProfile, username, viewerID)
	profile, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.ChannelProfile, error) {
		var p models.ChannelProfile
		err := row.Scan(
			&p.User.ID, &p.User.Username, &p.User.Email, &p.User.FullName,
			&p.User.Avatar, &p.User.CoverImage,
			&p.User.CreatedAt, &p.User.UpdatedAt,
			&p.SubscriberCount, &p.SubscribedToCount, &p.Subscribed,
		)
		return p, err
	})

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrChannelNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

const createVideo = `-- name: CreateVideo
INSERT INTO videos (id, owner_id, title, video_url, thumbnail_url, duration_seconds)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, owner_id, title, video_url, thumbnail_url, duration_seconds, views, created_at
`

func (r *ChannelRepo) CreateVideo(ctx context.Context, video models.Video) (models.Video, error) {
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createVideo,
		video.ID, video.OwnerID, video.Title, video.VideoURL, video.ThumbnailURL, video.Duration,
	)
	created, err := pgx.CollectOneRow(rows, rowToVideo)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

// clock_timestamp() instead of now(): several watches may land in one
// transaction and history ordering needs distinct timestamps
const recordWatch = `-- name: RecordWatch
INSERT INTO watch_history (user_id, video_id, watched_at)
VALUES ($1, $2, clock_timestamp())
ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = clock_timestamp()
`

const bumpViews = `-- name: BumpViews
UPDATE videos SET views = views + 1 WHERE id = $1
`

func (r *ChannelRepo) RecordWatch(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, recordWatch, userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrVideoNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	if _, err := r.DB.Exec(ctx, bumpViews, videoID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const listWatchHistory = `-- name: ListWatchHistory
SELECT v.id, v.owner_id, v.title, v.video_url, v.thumbnail_url, v.duration_seconds, v.views, v.created_at,
       h.watched_at
FROM watch_history h
JOIN videos v ON v.id = h.video_id
WHERE h.user_id = $1
ORDER BY h.watched_at DESC
`

func (r *ChannelRepo) ListWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error) {
	rows, _ := r.DB.Query(ctx, listWatchHistory, userID)
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.WatchEntry, error) {
		var e models.WatchEntry
		err := row.Scan(
			&e.Video.ID, &e.Video.OwnerID, &e.Video.Title, &e.Video.VideoURL,
			&e.Video.ThumbnailURL, &e.Video.Duration, &e.Video.Views, &e.Video.CreatedAt,
			&e.WatchedAt,
		)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

func rowToVideo(row pgx.CollectableRow) (models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.VideoURL,
		&v.ThumbnailURL, &v.Duration, &v.Views, &v.CreatedAt,
	)
	return v, err
}
