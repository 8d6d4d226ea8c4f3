package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/avoronkov/vidtube/internal/apperrors"
	"github.com/avoronkov/vidtube/internal/handlers/render"
	"github.com/avoronkov/vidtube/internal/handlers/userctx"
	"github.com/avoronkov/vidtube/internal/logger"
	"github.com/avoronkov/vidtube/internal/models"
	"github.com/avoronkov/vidtube/internal/service/auth"
	"github.com/avoronkov/vidtube/internal/service/media"
)

// maxUploadBytes caps multipart bodies (avatar and cover images)
const maxUploadBytes = 32 << 20

type tokenResponse struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

// handleRegister accepts JSON or multipart/form-data. The multipart form
// may carry optional avatar and coverImage files which are relayed to the
// media store before the account is created.
func handleRegister(as authService, uploader media.Uploader, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		FullName string `json:"fullName" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := auth.RegisterParams{}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				render.Error(w, http.StatusBadRequest, "Failed to parse multipart form")
				return
			}

			params.Username = r.FormValue("username")
			params.Email = r.FormValue("email")
			params.FullName = r.FormValue("fullName")
			params.Password = r.FormValue("password")

			for _, f := range []struct {
				field string
				dest  **string
			}{
				{"avatar", &params.AvatarURL},
				{"coverImage", &params.CoverImageURL},
			} {
				url, err := uploadFormFile(r, uploader, f.field)
				if err != nil {
					l.Error("Failed to relay registration file", "field", f.field, "error", err)
					render.AppError(w, err)
					return
				}
				*f.dest = url
			}
		} else {
			data, err := render.BindAndValidate[request](w, r)
			if err != nil {
				return
			}
			params.Username = data.Username
			params.Email = data.Email
			params.FullName = data.FullName
			params.Password = data.Password
		}

		user, err := as.Register(r.Context(), params)
		if err != nil {
			logUnexpected(l, "Failed to register user", err)
			render.AppError(w, err)
			return
		}

		render.JSON(w, http.StatusCreated, user.Public(), "User registered successfully")
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username"`
		Email    string `json:"email" validate:"omitempty,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if data.Username == "" && data.Email == "" {
			render.AppError(w, apperrors.ErrFieldsRequired)
			return
		}

		user, pair, err := as.Login(r.Context(), data.Username, data.Email, data.Password)
		if err != nil {
			logUnexpected(l, "Failed to login user", err)
			render.AppError(w, err)
			return
		}

		as.SetTokenPairToResponse(w, pair)
		render.OK(w, tokenResponse{
			User:         user.Public(),
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		}, "User logged in successfully")
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken"`
	}
	type response struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Body takes precedence, cookie is the fallback. Both may be
		// absent: the service rejects an empty token itself.
		var data request
		_ = json.NewDecoder(r.Body).Decode(&data)

		refresh := data.RefreshToken
		if refresh == "" {
			refresh, _ = as.GetRefreshString(r)
		}

		pair, err := as.RefreshPair(r.Context(), refresh)
		if err != nil {
			logUnexpected(l, "Failed to refresh tokens", err)
			render.AppError(w, err)
			return
		}

		as.SetTokenPairToResponse(w, pair)
		render.OK(w, response{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		}, "Tokens refreshed successfully")
	})
}

func handleLogout(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if err := as.Logout(r.Context(), user.ID); err != nil {
			logUnexpected(l, "Failed to logout user", err)
			render.AppError(w, err)
			return
		}

		as.ClearTokensFromResponse(w)
		render.OK(w, nil, "User logged out successfully")
	})
}

func handleChangePassword(as authService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := as.ChangePassword(r.Context(), user.ID, data.OldPassword, data.NewPassword); err != nil {
			logUnexpected(l, "Failed to change password", err)
			render.AppError(w, err)
			return
		}

		render.OK(w, nil, "Password changed successfully")
	})
}

// uploadFormFile relays an optional multipart file to the media store.
// A missing file is not an error: (nil, nil) is returned.
func uploadFormFile(r *http.Request, uploader media.Uploader, field string) (*string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.ErrFileRequired
	}
	defer file.Close() //nolint:errcheck

	url, err := uploader.Upload(r.Context(), media.RandomKey(header.Filename), file, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	return &url, nil
}

// logUnexpected logs errors that don't carry their own status code:
// anything typed is a client error the service already decided on.
func logUnexpected(l logger.Logger, msg string, err error) {
	if _, ok := apperrors.AsError(err); !ok {
		l.Error(msg, "error", err)
	}
}
