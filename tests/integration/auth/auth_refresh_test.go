package auth

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronkov/vidtube/internal/models"
	"github.com/avoronkov/vidtube/internal/testutil"
	"github.com/avoronkov/vidtube/tests/integration"
)

const (
	RefreshURL = "/api/v1/auth/refresh"
	LogoutURL  = "/api/v1/auth/logout"
)

func Test_AuthRefresh(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	login := func(t *testing.T, s integration.Services, username string) models.TokenPair {
		t.Helper()
		_, err := s.AuthService.Register(t.Context(), registerParams(username))
		require.NoError(t, err)
		_, pair, err := s.AuthService.Login(t.Context(), username, "", "StrongEnoughPassword")
		require.NoError(t, err)
		return pair
	}

	t.Run("refresh token ok", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			pair := login(t, s, "nk")

			// Create request and set auth cookies. Save them to verify they are rolled later
			req, err := http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
			require.NoError(t, err)
			s.AuthService.SetTokenPairToRequest(req, pair)
			firstAccessHeader := req.Header.Get("Authorization")
			assert.NotEmpty(t, firstAccessHeader, "access token should not be empty")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), `"message":"Tokens refreshed successfully"`)

			require.Equal(t, 2, len(resp.Cookies()), "access and refresh cookies should be rolled")
			for _, cookie := range resp.Cookies() {
				require.NotEmpty(t, cookie.Value, "auth cookies should not be empty")
				if cookie.Name == "refreshToken" {
					require.NotEqual(t, pair.Refresh.Value, cookie.Value, "refresh token should be changed after refresh")
				}
			}

			secondAccessHeader := resp.Header.Get("Authorization")
			require.NotEmpty(t, secondAccessHeader, "access token should not be empty")
		})
	})

	t.Run("refresh twice fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			pair := login(t, s, "nk")

			createRequest := func(pair models.TokenPair) *http.Request {
				req, err := http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
				require.NoError(t, err)
				s.AuthService.SetTokenPairToRequest(req, pair)
				return req
			}

			resp1, err := http.DefaultClient.Do(createRequest(pair))
			require.NoError(t, err, "refresh request should always complete")
			body1, err := io.ReadAll(resp1.Body)
			require.NoError(t, err)
			defer resp1.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusOK, resp1.StatusCode, "not expected code. Body: %s", string(body1))

			resp2, err := http.DefaultClient.Do(createRequest(pair))
			require.NoError(t, err, "refresh request should always complete")
			body2, err := io.ReadAll(resp2.Body)
			require.NoError(t, err)
			defer resp2.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusUnauthorized, resp2.StatusCode, "not expected code. Body: %s", string(body2))
			require.JSONEq(t, `
				{
					"statusCode": 401,
					"message": "Refresh token is expired or used"
				}`, string(body2))
		})
	})

	t.Run("refresh without token fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, _ integration.Services) {
			resp, err := http.Post(srvURL+RefreshURL, "application/json", nil)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"statusCode": 401,
					"message": "Unauthorized request"
				}`, string(body))
		})
	})

	t.Run("refresh after logout fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			pair := login(t, s, "nk")

			logout, err := http.NewRequest(http.MethodPost, srvURL+LogoutURL, nil)
			require.NoError(t, err)
			s.AuthService.SetTokenPairToRequest(logout, pair)

			resp, err := http.DefaultClient.Do(logout)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))

			for _, cookie := range resp.Cookies() {
				require.Empty(t, cookie.Value, "auth cookies should be cleared on logout")
			}

			refresh, err := http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
			require.NoError(t, err)
			s.AuthService.SetTokenPairToRequest(refresh, pair)

			resp2, err := http.DefaultClient.Do(refresh)
			require.NoError(t, err)
			body2, err := io.ReadAll(resp2.Body)
			require.NoError(t, err)
			defer resp2.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusUnauthorized, resp2.StatusCode, "not expected code. Body: %s", string(body2))
			require.JSONEq(t, `
				{
					"statusCode": 401,
					"message": "Refresh token is expired or used"
				}`, string(body2))
		})
	})
}
