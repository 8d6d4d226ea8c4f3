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
	"github.com/avoronkov/vidtube/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at`

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, p repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(), p.Username, p.Email, p.FullName, p.AvatarURL, p.CoverImageURL, p.HashedPassword,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByLogin = `-- name: GetUserByLogin
SELECT ` + userColumns + `
FROM users
WHERE username = $1 OR email = $2
LIMIT 1
`

// GetUserByLogin matches by username or email: either one is sufficient.
// Empty strings never match because both columns are NOT NULL and trimmed.
func (r *UserRepo) GetUserByLogin(ctx context.Context, username string, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByLogin, username, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users
SET refresh_token = $2, updated_at = now()
WHERE id = $1
RETURNING id
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error {
	rows, _ := r.DB.Query(ctx, setRefreshToken, userID, token)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrUserNotFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

const rotateRefreshToken = `-- name: RotateRefreshToken
UPDATE users
SET refresh_token = $3, updated_at = now()
WHERE id = $1 AND refresh_token = $2
RETURNING id
`

// RotateRefreshToken replaces the stored refresh token only if it still
// equals current. Zero affected rows means another request rotated first or
// the session was cleared: the caller must treat the token as already used.
func (r *UserRepo) RotateRefreshToken(ctx context.Context, userID uuid.UUID, current string, next string) error {
	rows, _ := r.DB.Query(ctx, rotateRefreshToken, userID, current, next)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrRefreshTokenUsed
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2, updated_at = now()
WHERE id = $1
RETURNING id
`

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	rows, _ := r.DB.Query(ctx, updatePassword, userID, hashedPassword)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrUserNotFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

const updateAccount = `-- name: UpdateAccount
UPDATE users
SET full_name       = COALESCE($2, full_name),
    email           = COALESCE($3, email),
    avatar_url      = COALESCE($4, avatar_url),
    cover_image_url = COALESCE($5, cover_image_url),
    updated_at      = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateAccount(ctx context.Context, userID uuid.UUID, p repository.UpdateAccountParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateAccount, userID, p.FullName, p.Email, p.AvatarURL, p.CoverImageURL)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return user, apperrors.ErrUserNotFound
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return user, apperrors.ErrUserAlreadyExists
		default:
			return user, fmt.Errorf("db error: %w", err)
		}
	}

	return user, nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName,
		&u.AvatarURL, &u.CoverImageURL,
		&u.HashedPassword, &u.RefreshToken,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}
