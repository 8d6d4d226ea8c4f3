package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/avoronkov/vidtube/internal/handlers/render"
	"github.com/avoronkov/vidtube/internal/handlers/userctx"
	"github.com/avoronkov/vidtube/internal/logger"
)

func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		render.OK(w, user.Public(), "Current user fetched successfully")
	})
}

func handleUpdateAccount(us userService, l logger.Logger) http.Handler {
	type request struct {
		FullName *string `json:"fullName"`
		Email    *string `json:"email" validate:"omitempty,email"`
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

		updated, err := us.UpdateAccount(r.Context(), user.ID, data.FullName, data.Email)
		if err != nil {
			logUnexpected(l, "Failed to update account", err)
			render.AppError(w, err)
			return
		}

		render.OK(w, updated.Public(), "Account details updated successfully")
	})
}

func handleUpdateAvatar(us userService, l logger.Logger) http.Handler {
	return handleImageUpdate("avatar", us.UpdateAvatar, "Avatar updated successfully", l)
}

func handleUpdateCover(us userService, l logger.Logger) http.Handler {
	return handleImageUpdate("coverImage", us.UpdateCoverImage, "Cover image updated successfully", l)
}

// handleImageUpdate is the shared multipart handler behind the avatar and
// cover image endpoints. The file in the named form field is required.
func handleImageUpdate(field string, update imageUpdateFunc, message string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile(field)
		if err != nil {
			render.Error(w, http.StatusBadRequest, "File is required")
			return
		}
		defer file.Close() //nolint:errcheck

		updated, err := update(r.Context(), user.ID, header.Filename, file, header.Header.Get("Content-Type"))
		if err != nil {
			logUnexpected(l, "Failed to update "+field, err)
			render.AppError(w, err)
			return
		}

		render.OK(w, updated.Public(), message)
	})
}

func handleWatchHistory(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		history, err := us.WatchHistory(r.Context(), user.ID)
		if err != nil {
			logUnexpected(l, "Failed to list watch history", err)
			render.AppError(w, err)
			return
		}

		render.OK(w, history, "Watch history fetched successfully")
	})
}

func handleRecordWatch(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		videoID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.Error(w, http.StatusNotFound, "Video does not exist")
			return
		}

		if err := us.RecordWatch(r.Context(), user.ID, videoID); err != nil {
			logUnexpected(l, "Failed to record watch", err)
			render.AppError(w, err)
			return
		}

		render.OK(w, nil, "Watch recorded successfully")
	})
}

func handleChannelProfile(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		profile, err := us.GetChannelProfile(r.Context(), r.PathValue("username"), user.ID)
		if err != nil {
			logUnexpected(l, "Failed to get channel profile", err)
			render.AppError(w, err)
			return
		}

		render.OK(w, profile, "Channel profile fetched successfully")
	})
}

func handleSubscribe(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if err := us.Subscribe(r.Context(), user.ID, r.PathValue("username")); err != nil {
			logUnexpected(l, "Failed to subscribe", err)
			render.AppError(w, err)
			return
		}

		render.OK(w, nil, "Subscribed successfully")
	})
}

func handleUnsubscribe(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if err := us.Unsubscribe(r.Context(), user.ID, r.PathValue("username")); err != nil {
			logUnexpected(l, "Failed to unsubscribe", err)
			render.AppError(w, err)
			return
		}

		render.OK(w, nil, "Unsubscribed successfully")
	})
}
