package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/avoronkov/vidtube/internal/apperrors"
	"github.com/avoronkov/vidtube/internal/models"
	"github.com/avoronkov/vidtube/internal/repository"
	"github.com/avoronkov/vidtube/internal/service/media"
)

// UserService covers everything about an account that is not a session:
// profile updates, avatar/cover uploads, channel pages and watch history.
type UserService struct {
	userRepo    repository.UserRepo
	channelRepo repository.ChannelRepo
	uploader    media.Uploader
}

func NewService(userRepo repository.UserRepo, channelRepo repository.ChannelRepo, uploader media.Uploader) (*UserService, error) {
	if userRepo == nil || channelRepo == nil || uploader == nil {
		return nil, errors.New("repos and uploader must not be nil")
	}

	return &UserService{
		userRepo:    userRepo,
		channelRepo: channelRepo,
		uploader:    uploader,
	}, nil
}

// UpdateAccount changes full name and/or email. Nil means keep as is.
func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, fullName *string, email *string) (models.User, error) {
	if fullName == nil && email == nil {
		return models.User{}, apperrors.ErrFieldsRequired
	}

	params := repository.UpdateAccountParams{}
	if fullName != nil {
		trimmed := strings.TrimSpace(*fullName)
		if trimmed == "" {
			return models.User{}, apperrors.ErrFieldsRequired
		}
		params.FullName = &trimmed
	}
	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		if normalized == "" {
			return models.User{}, apperrors.ErrFieldsRequired
		}
		params.Email = &normalized
	}

	return s.userRepo.UpdateAccount(ctx, userID, params)
}

// UpdateAvatar relays the file to the media store and persists its URL
func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, filename string, file io.Reader, contentType string) (models.User, error) {
	url, err := s.uploadFile(ctx, filename, file, contentType)
	if err != nil {
		return models.User{}, err
	}

	return s.userRepo.UpdateAccount(ctx, userID, repository.UpdateAccountParams{AvatarURL: &url})
}

// UpdateCoverImage relays the file to the media store and persists its URL
func (s *UserService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, filename string, file io.Reader, contentType string) (models.User, error) {
	url, err := s.uploadFile(ctx, filename, file, contentType)
	if err != nil {
		return models.User{}, err
	}

	return s.userRepo.UpdateAccount(ctx, userID, repository.UpdateAccountParams{CoverImageURL: &url})
}

func (s *UserService) uploadFile(ctx context.Context, filename string, file io.Reader, contentType string) (string, error) {
	if file == nil {
		return "", apperrors.ErrFileRequired
	}

	url, err := s.uploader.Upload(ctx, media.RandomKey(filename), file, contentType)
	if err != nil {
		return "", fmt.Errorf("media relay failed. Err: %w", err)
	}

	return url, nil
}

// GetChannelProfile returns the channel page as seen by viewer
func (s *UserService) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperrors.ErrFieldsRequired
	}

	return s.channelRepo.GetChannelProfile(ctx, username, viewerID)
}

func (s *UserService) Subscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error {
	channel, err := s.resolveChannel(ctx, channelUsername)
	if err != nil {
		return err
	}

	if channel.ID == subscriberID {
		return apperrors.ErrSelfSubscription
	}

	return s.channelRepo.Subscribe(ctx, subscriberID, channel.ID)
}

func (s *UserService) Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error {
	channel, err := s.resolveChannel(ctx, channelUsername)
	if err != nil {
		return err
	}

	return s.channelRepo.Unsubscribe(ctx, subscriberID, channel.ID)
}

func (s *UserService) resolveChannel(ctx context.Context, username string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	channel, err := s.userRepo.GetUserByLogin(ctx, username, "")
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.User{}, apperrors.ErrChannelNotFound
		}
		return models.User{}, err
	}

	return channel, nil
}

func (s *UserService) WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error) {
	return s.channelRepo.ListWatchHistory(ctx, userID)
}

func (s *UserService) RecordWatch(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) error {
	return s.channelRepo.RecordWatch(ctx, userID, videoID)
}
