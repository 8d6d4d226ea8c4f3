package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/avoronkov/vidtube/internal/handlers/middleware"
	"github.com/avoronkov/vidtube/internal/logger"
	"github.com/avoronkov/vidtube/internal/models"
	"github.com/avoronkov/vidtube/internal/service/auth"
	"github.com/avoronkov/vidtube/internal/service/media"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	uploader media.Uploader,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(authService, uploader, logger))
	api.Handle("POST /auth/login", handleLogin(authService, logger))
	api.Handle("POST /auth/refresh", handleTokenRefresh(authService, logger))
	api.Handle("POST /auth/logout", withAuth(handleLogout(authService, logger)))
	api.Handle("POST /auth/password", withAuth(handleChangePassword(authService, logger)))

	api.Handle("GET /users/me", withAuth(handleUserMe()))
	api.Handle("PATCH /users/me", withAuth(handleUpdateAccount(userService, logger)))
	api.Handle("PATCH /users/me/avatar", withAuth(handleUpdateAvatar(userService, logger)))
	api.Handle("PATCH /users/me/cover", withAuth(handleUpdateCover(userService, logger)))
	api.Handle("GET /users/me/history", withAuth(handleWatchHistory(userService, logger)))

	api.Handle("GET /channels/{username}", withAuth(handleChannelProfile(userService, logger)))
	api.Handle("POST /channels/{username}/subscription", withAuth(handleSubscribe(userService, logger)))
	api.Handle("DELETE /channels/{username}/subscription", withAuth(handleUnsubscribe(userService, logger)))

	api.Handle("POST /videos/{id}/watch", withAuth(handleRecordWatch(userService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register new account, no tokens issued
	// Has to return apperrors.ErrUserAlreadyExists if username or email is taken
	Register(ctx context.Context, params auth.RegisterParams) (models.User, error)

	// Login with username and/or email plus password
	// Has to return apperrors.ErrUserNotFound or apperrors.ErrInvalidCredentials
	Login(ctx context.Context, username string, email string, password string) (models.User, models.TokenPair, error)

	// Clear the stored refresh token, idempotent
	Logout(ctx context.Context, userID uuid.UUID) error

	// Rotate the token pair using a refresh token
	// Invalid, superseded or absent tokens come back as 401 typed errors
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Verify old password and store the new one
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error

	// Authenticate the request by its access token
	Auth(ctx context.Context, r *http.Request) (models.User, error)

	// Get refresh token from request cookie
	GetRefreshString(r *http.Request) (string, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Expire auth cookies on the response
	ClearTokensFromResponse(w http.ResponseWriter)
}

type imageUpdateFunc func(ctx context.Context, userID uuid.UUID, filename string, file io.Reader, contentType string) (models.User, error)

type userService interface {
	UpdateAccount(ctx context.Context, userID uuid.UUID, fullName *string, email *string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, filename string, file io.Reader, contentType string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, filename string, file io.Reader, contentType string) (models.User, error)
	GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error)
	Subscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error
	Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchEntry, error)
	RecordWatch(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) error
}
