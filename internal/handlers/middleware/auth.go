package middleware

import (
	"context"
	"net/http"

	"github.com/avoronkov/vidtube/internal/handlers/render"
	"github.com/avoronkov/vidtube/internal/handlers/userctx"
	"github.com/avoronkov/vidtube/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware rejects requests without a valid access token and puts
// the authenticated user into the request context.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			if err != nil {
				render.AppError(w, err)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
