package render

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronkov/vidtube/internal/apperrors"
)

func TestRender_JSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		data := map[string]any{"key1": 1, "key2": "222"}
		JSON(w, http.StatusCreated, data, "created")
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{
			"statusCode": 201,
			"data": {"key1":1, "key2":"222"},
			"message": "created"
		}`,
		string(body),
	)
}

func TestRender_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		Error(w, http.StatusForbidden, "something terrible happened")
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{
			"statusCode": 403,
			"message": "something terrible happened"
		}`,
		string(body),
	)
}

func TestRender_AppError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "typed error carries its own code and message",
			err:            apperrors.ErrUserNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"statusCode": 404, "message": "User does not exist"}`,
		},
		{
			name:           "unknown error becomes 500",
			err:            io.EOF, // stands in for an unexpected internal failure
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"statusCode": 500, "message": "Internal server error"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				AppError(w, tc.err)
			}))
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/test")
			require.NoError(t, err)
			require.Equal(t, tc.expectedStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			assert.JSONEq(t, tc.expectedBody, string(body))
		})
	}
}

func TestRender_BindAndValidate(t *testing.T) {
	type User struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"omitempty,email"`
	}

	tests := []struct {
		name           string
		requestBody    string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "valid request",
			requestBody:    `{"username": "john"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"statusCode": 200, "data": {"success": true}, "message": "ok"}`,
		},
		{
			name:           "invalid json",
			requestBody:    `invalid-json`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"statusCode": 400,
				"message": "Failed to parse JSON: invalid character 'i' looking for beginning of value"
			}`,
		},
		{
			name:           "invalid field type",
			requestBody:    `{"username": 42}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"statusCode": 400,
				"message": "Invalid data type for field 'username'"
			}`,
		},
		{
			name:           "validation failed uses json field names",
			requestBody:    `{"email": "not-an-email"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"statusCode": 400,
				"message": "Request validation failed",
				"fields": {
					"username": "This field is required",
					"email": "Must be a valid email address"
				}
			}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, err := BindAndValidate[User](w, r)
				if err != nil {
					return // Error response already written
				}
				OK(w, map[string]bool{"success": true}, "ok")
			}))
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(tc.requestBody))
			require.NoError(t, err)
			require.Equal(t, tc.expectedStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			assert.JSONEq(t, tc.expectedBody, string(body))
		})
	}
}
