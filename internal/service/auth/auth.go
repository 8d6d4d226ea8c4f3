package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/avoronkov/vidtube/internal/apperrors"
	"github.com/avoronkov/vidtube/internal/models"
	"github.com/avoronkov/vidtube/internal/repository"
	"github.com/avoronkov/vidtube/internal/service/auth/tokenmanager"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"
)

// Auth service config with sensible defaults
type Config struct {
	// Hasher to use during registration or login, bcrypt if not set
	Hasher PasswordHasher

	// Transport details for tokens. Defaults: "Authorization: Bearer"
	// header plus "accessToken"/"refreshToken" cookies.
	AccessHeaderName  string
	AccessAuthScheme  string
	AccessCookieName  string
	RefreshCookieName string
}

type RegisterParams struct {
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     *string
	CoverImageURL *string
}

// AuthService owns the session lifecycle: login, logout, refresh rotation,
// password changes and the request authorization gate.
type AuthService struct {
	token    *tokenmanager.TokenManager
	hasher   PasswordHasher
	userRepo repository.UserRepo

	accessHeaderName  string
	accessAuthScheme  string
	accessCookieName  string
	refreshCookieName string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	if token == nil || userRepo == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultString(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefaultString(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefaultString(&cfg.AccessCookieName, defaultAccessCookieName)
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &AuthService{
		token:             token,
		hasher:            hasher,
		userRepo:          userRepo,
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
	}, nil
}

// Register creates a new account. Hashing happens right here, before any
// write: a plaintext password never reaches the repository.
// The user is not logged in: no tokens are issued.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (models.User, error) {
	p.Username = strings.ToLower(strings.TrimSpace(p.Username))
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.FullName = strings.TrimSpace(p.FullName)

	if p.Username == "" || p.Email == "" || p.FullName == "" || strings.TrimSpace(p.Password) == "" {
		return models.User{}, apperrors.ErrFieldsRequired
	}

	// Reject duplicates before any write. The unique constraints still
	// back this up under concurrent registration.
	_, err := s.userRepo.GetUserByLogin(ctx, p.Username, p.Email)
	switch {
	case err == nil:
		return models.User{}, apperrors.ErrUserAlreadyExists
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, fmt.Errorf("can't check user existence. Err: %w", err)
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Username:       p.Username,
		Email:          p.Email,
		FullName:       p.FullName,
		HashedPassword: hash,
		AvatarURL:      p.AvatarURL,
		CoverImageURL:  p.CoverImageURL,
	})
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login authenticates by username or email: either one matching is enough.
func (s *AuthService) Login(ctx context.Context, username string, email string, password string) (models.User, models.TokenPair, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if (username == "" && email == "") || password == "" {
		return models.User{}, models.TokenPair{}, apperrors.ErrFieldsRequired
	}

	user, err := s.userRepo.GetUserByLogin(ctx, username, email)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, &user)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// Logout drops the current session. Idempotent: logging out twice is fine.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.SetRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("can't clear refresh token. Err: %w", err)
	}
	return nil
}

// RefreshPair rotates tokens: the inbound refresh token is honored only if
// it is exactly the one stored for the account, then both tokens are
// replaced. The replaced refresh token stops being recognized immediately.
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	if refresh == "" {
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	// Whatever went wrong cryptographically, the caller learns one thing
	claims, err := s.token.ParseRefresh(refresh)
	if err != nil {
		return models.TokenPair{}, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.TokenPair{}, apperrors.ErrInvalidRefreshToken
		}
		return models.TokenPair{}, err
	}

	// Byte-for-byte comparison against the persisted session state: a
	// superseded token has a valid signature but must be rejected.
	if user.RefreshToken == nil || *user.RefreshToken != refresh {
		return models.TokenPair{}, apperrors.ErrRefreshTokenUsed
	}

	pair, err := s.token.IssuePair(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	// Replace-if-equals: a concurrent refresh that won the race makes this
	// one fail instead of minting a second valid pair.
	err = s.userRepo.RotateRefreshToken(ctx, user.ID, refresh, pair.Refresh.Value)
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// ChangePassword verifies the old password and stores the hash of the new
// one. Reusing the old password as the new one is allowed.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.ErrFieldsRequired
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrInvalidOldPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("can't update password. Err: %w", err)
	}

	return nil
}

// Auth is the request gate: it resolves the caller identity from the access
// token or rejects. It never mutates state.
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	access := s.readAccessString(r)
	if access == "" {
		return models.User{}, apperrors.ErrUnauthorized
	}

	claims, err := s.token.ParseAccess(access)
	if err != nil {
		return models.User{}, apperrors.ErrInvalidAccessToken
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.User{}, apperrors.ErrInvalidAccessToken
		}
		return models.User{}, err
	}

	return user, nil
}

// issuePair mints a fresh pair and persists the refresh value as the one
// and only valid session, overwriting whatever was stored before.
func (s *AuthService) issuePair(ctx context.Context, user *models.User) (models.TokenPair, error) {
	pair, err := s.token.IssuePair(*user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &pair.Refresh.Value); err != nil {
		return models.TokenPair{}, fmt.Errorf("can't persist refresh token. Err: %w", err)
	}
	user.RefreshToken = &pair.Refresh.Value

	return pair, nil
}

// readAccessString extracts the access token: an explicit bearer header
// wins over the cookie.
func (s *AuthService) readAccessString(r *http.Request) string {
	header := r.Header.Get(s.accessHeaderName)
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, s.accessAuthScheme) {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if cookie, err := r.Cookie(s.accessCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// GetRefreshString extracts the refresh token from the request cookie.
// Handlers may pass an explicit body value instead; this is the fallback.
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrUnauthorized
	}
	return cookie.Value, nil
}

// SetTokenPairToResponse transmits the pair as secure http-only cookies and
// mirrors the access token in the auth header for non-cookie clients.
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     s.accessCookieName,
		Value:    pair.Access.Value,
		Path:     "/",
		Expires:  pair.Access.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		Expires:  pair.Refresh.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearTokensFromResponse expires both auth cookies (logout)
func (s *AuthService) ClearTokensFromResponse(w http.ResponseWriter) {
	for _, name := range []string{s.accessCookieName, s.refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// SetTokenPairToRequest attaches the pair to an outgoing request the same
// way a browser would send it back. Handy in tests.
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	r.AddCookie(&http.Cookie{Name: s.accessCookieName, Value: pair.Access.Value})
	r.AddCookie(&http.Cookie{Name: s.refreshCookieName, Value: pair.Refresh.Value})
}
