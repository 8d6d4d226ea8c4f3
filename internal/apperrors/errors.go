package apperrors

import (
	"errors"
	"net/http"
)

// Error is a domain error that carries the HTTP status code it should be
// rendered with. Services return these (possibly wrapped), handlers unwrap
// them with errors.Is or AsError and never invent status codes themselves.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrUserAlreadyExists = New(http.StatusConflict, "User with email or username already exists")
	ErrUserNotFound      = New(http.StatusNotFound, "User does not exist")
	ErrChannelNotFound   = New(http.StatusNotFound, "Channel does not exist")
	ErrVideoNotFound     = New(http.StatusNotFound, "Video does not exist")

	ErrInvalidCredentials = New(http.StatusUnauthorized, "Invalid user credentials")
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized request")
	ErrInvalidAccessToken = New(http.StatusUnauthorized, "Invalid access token")

	// Any parse, signature or expiry failure on an inbound refresh token is
	// reported as this one error. Internal distinctions must not leak.
	ErrInvalidRefreshToken = New(http.StatusUnauthorized, "Invalid refresh token")

	// Inbound refresh token is well formed but superseded by a newer one,
	// or the account has no active session at all.
	ErrRefreshTokenUsed = New(http.StatusUnauthorized, "Refresh token is expired or used")

	ErrInvalidOldPassword = New(http.StatusBadRequest, "Invalid old password")
	ErrFieldsRequired     = New(http.StatusBadRequest, "All fields are required")
	ErrFileRequired       = New(http.StatusBadRequest, "File is required")
	ErrUploadFailed       = New(http.StatusBadRequest, "Upload failed")
	ErrSelfSubscription   = New(http.StatusBadRequest, "Can't subscribe to own channel")
)

// AsError returns the *Error inside err if there is one.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
