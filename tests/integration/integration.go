package integration

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/avoronkov/vidtube/internal/handlers"
	"github.com/avoronkov/vidtube/internal/logger"
	"github.com/avoronkov/vidtube/internal/repository/postgres"
	"github.com/avoronkov/vidtube/internal/service/auth"
	"github.com/avoronkov/vidtube/internal/service/auth/tokenmanager"
	"github.com/avoronkov/vidtube/internal/service/user"
	"github.com/avoronkov/vidtube/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	UserService *user.UserService
}

// discardUploader is the media relay for tests: nothing actually stored
type discardUploader struct{}

func (discardUploader) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	_, _ = io.Copy(io.Discard, body)
	return "https://media.test/" + key, nil
}

// RunTx runs the full http server wired to production services inside one
// db transaction. The transaction is rolled back when the test stops, so
// tests never see each other's rows.
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		userRepo := &postgres.UserRepo{DB: tx}
		channelRepo := &postgres.ChannelRepo{DB: tx}

		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "access-test-secret",
			RefreshSecret: "refresh-test-secret",
		})
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, userRepo)
		require.NoError(t, err, "auth service starting error")

		us, err := user.NewService(userRepo, channelRepo, discardUploader{})
		require.NoError(t, err, "user service starting error")

		router := handlers.NewRouter(as, us, discardUploader{}, logger.NewNoOp())

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{
			AuthService: as,
			UserService: us,
		})
	})
}
