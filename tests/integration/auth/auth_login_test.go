package auth

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avoronkov/vidtube/internal/service/auth"
	"github.com/avoronkov/vidtube/internal/testutil"
	"github.com/avoronkov/vidtube/tests/integration"
)

const (
	LoginURL = "/api/v1/auth/login"
)

func registerParams(username string) auth.RegisterParams {
	return auth.RegisterParams{
		Username: username,
		Email:    username + "@x.io",
		FullName: "Full " + username,
		Password: "StrongEnoughPassword",
	}
}

func Test_Login(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("login ok", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, err := s.AuthService.Register(t.Context(), registerParams("nk"))
			require.NoError(t, err)

			data := `{"username": "nk", "password": "StrongEnoughPassword"}`
			resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), `"message":"User logged in successfully"`)
			require.Contains(t, string(body), `"accessToken"`)
			require.Contains(t, string(body), `"refreshToken"`)

			require.Equal(t, 2, len(resp.Cookies()), "access and refresh cookies should be set")
			for _, cookie := range resp.Cookies() {
				require.Contains(t, []string{"accessToken", "refreshToken"}, cookie.Name)
				require.Equal(t, cookie.HttpOnly, true, "auth cookies should be HttpOnly")
				require.Equal(t, "/", cookie.Path, "auth cookies should be available on / path")
				require.Equal(t, http.SameSiteStrictMode, cookie.SameSite, "auth cookies should be SameSite Strict")
				require.True(t, cookie.Expires.After(time.Now()), "auth cookies should not be expired already")
				require.NotEmpty(t, cookie.Value, "auth cookies should not be empty")
			}

			require.Contains(t, resp.Header, "Authorization")
			header := resp.Header.Get("Authorization")
			require.Contains(t, header, "Bearer")
		})
	})

	t.Run("login by email ok", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, err := s.AuthService.Register(t.Context(), registerParams("nk"))
			require.NoError(t, err)

			data := `{"email": "nk@x.io", "password": "StrongEnoughPassword"}`
			resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		})
	})

	t.Run("login unknown user", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, _ integration.Services) {
			data := `{"username": "nk", "password": "WrongPassword"}`

			resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"statusCode": 404,
					"message": "User does not exist"
				}`, string(body))

			require.Equal(t, 0, len(resp.Cookies()), "no cookies should be set on login error")
			require.NotContains(t, resp.Header, "Authorization", "Authorization header should not be set")
		})
	})

	t.Run("login wrong password", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, err := s.AuthService.Register(t.Context(), registerParams("nk"))
			require.NoError(t, err)

			data := `{"username": "nk", "password": "WrongPassword"}`
			resp, err := http.Post(srvURL+LoginURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"statusCode": 401,
					"message": "Invalid user credentials"
				}`, string(body))
		})
	})
}
