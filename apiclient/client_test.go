package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-booking-client/apiclient"
	"github.com/jrsteele09/go-booking-client/credentials"
	"github.com/jrsteele09/go-booking-client/credentials/memstore"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/stretchr/testify/require"
)

type seen struct {
	authorization string
	requestID     string
	contentType   string
	query         string
	body          map[string]any
}

func setupTestFixture(t *testing.T, status int, response string, header http.Header) (*apiclient.Client, *memstore.Store, *seen) {
	t.Helper()
	last := &seen{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.authorization = r.Header.Get("Authorization")
		last.requestID = r.Header.Get("X-Request-Id")
		last.contentType = r.Header.Get("Content-Type")
		last.query = r.URL.RawQuery
		last.body = nil
		_ = json.NewDecoder(r.Body).Decode(&last.body)
		for k, v := range header {
			w.Header()[k] = v
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	store := memstore.New()
	client, err := apiclient.New(server.URL+"/", store)
	require.NoError(t, err)
	return client, store, last
}

func TestNew(t *testing.T) {
	_, err := apiclient.New("", memstore.New())
	require.Error(t, err)
	_, err = apiclient.New("http://localhost:8000", nil)
	require.Error(t, err)

	client, err := apiclient.New("http://localhost:8000/", memstore.New())
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", client.BaseURL())
}

func TestBearerHeader(t *testing.T) {
	t.Run("required auth sends the stored access token", func(t *testing.T) {
		client, store, last := setupTestFixture(t, http.StatusOK, `{"id":1}`, nil)
		require.NoError(t, store.Save(credentials.Credential{AccessToken: "tok-1", RefreshToken: "ref-1"}))

		var out struct{ ID int }
		require.NoError(t, client.Get(context.Background(), apiclient.RouteUser, apiclient.AuthRequired, &out))
		require.Equal(t, "Bearer tok-1", last.authorization)
		require.Equal(t, 1, out.ID)
	})

	t.Run("required auth without credential fails before any request", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
		t.Cleanup(server.Close)
		client, err := apiclient.New(server.URL, memstore.New())
		require.NoError(t, err)

		err = client.Get(context.Background(), apiclient.RouteBookings, apiclient.AuthRequired, nil)
		require.Equal(t, apiclient.KindAuthentication, apiclient.KindOf(err))
		require.ErrorIs(t, err, apperrors.ErrNoCredential)
		require.Zero(t, hits.Load())
	})

	t.Run("optional auth without credential goes out bare", func(t *testing.T) {
		client, _, last := setupTestFixture(t, http.StatusOK, `[]`, nil)
		require.NoError(t, client.Get(context.Background(), apiclient.RouteTodos, apiclient.AuthOptional, nil))
		require.Empty(t, last.authorization)
	})

	t.Run("no auth never sends the credential", func(t *testing.T) {
		client, store, last := setupTestFixture(t, http.StatusOK, `{}`, nil)
		require.NoError(t, store.Save(credentials.Credential{AccessToken: "tok-1"}))
		require.NoError(t, client.Post(context.Background(), apiclient.RouteToken, apiclient.AuthNone, map[string]string{"username": "a"}, nil))
		require.Empty(t, last.authorization)
		require.Equal(t, "application/json", last.contentType)
		require.Equal(t, "a", last.body["username"])
	})
}

func TestRequestIDAndQuery(t *testing.T) {
	client, _, last := setupTestFixture(t, http.StatusOK, `{"logs":[]}`, nil)
	err := client.Do(context.Background(), apiclient.Request{
		Method: http.MethodGet,
		Path:   apiclient.RouteAdminActivityLogs,
		Query:  map[string][]string{"limit": {"100"}},
	}, nil)
	require.NoError(t, err)
	_, err = uuid.Parse(last.requestID)
	require.NoError(t, err)
	require.Equal(t, "limit=100", last.query)
}

func TestUnauthorizedHook(t *testing.T) {
	t.Run("fires when an authenticated request gets 401", func(t *testing.T) {
		client, store, _ := setupTestFixture(t, http.StatusUnauthorized, `{"detail":"Given token not valid for any token type"}`, nil)
		require.NoError(t, store.Save(credentials.Credential{AccessToken: "stale"}))
		var fired atomic.Int32
		client.SetUnauthorizedHandler(func() { fired.Add(1) })

		err := client.Get(context.Background(), apiclient.RouteUser, apiclient.AuthRequired, nil)
		require.Equal(t, apiclient.KindAuthentication, apiclient.KindOf(err))
		require.Equal(t, "Given token not valid for any token type", apiclient.Message(err, ""))
		require.EqualValues(t, 1, fired.Load())
	})

	t.Run("does not fire for a failed login", func(t *testing.T) {
		client, _, _ := setupTestFixture(t, http.StatusUnauthorized, `{"detail":"No active account found with the given credentials"}`, nil)
		var fired atomic.Int32
		client.SetUnauthorizedHandler(func() { fired.Add(1) })

		err := client.Post(context.Background(), apiclient.RouteToken, apiclient.AuthNone, map[string]string{}, nil)
		require.Equal(t, apiclient.KindAuthentication, apiclient.KindOf(err))
		require.Zero(t, fired.Load())
	})
}

func TestErrorParsing(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		header     http.Header
		kind       apiclient.Kind
		message    string
		retryAfter time.Duration
	}{
		{
			name:    "username field error",
			status:  http.StatusBadRequest,
			body:    `{"email":["Enter a valid email address."],"username":["A user with that username already exists."]}`,
			kind:    apiclient.KindValidation,
			message: "A user with that username already exists.",
		},
		{
			name:    "error key beats fields",
			status:  http.StatusBadRequest,
			body:    `{"error":"Username already exists","username":["taken"]}`,
			kind:    apiclient.KindValidation,
			message: "Username already exists",
		},
		{
			name:    "unknown field falls back alphabetically",
			status:  http.StatusBadRequest,
			body:    `{"service":["This field is required."],"booking_date":["This field is required."]}`,
			kind:    apiclient.KindValidation,
			message: "booking_date: This field is required.",
		},
		{
			name:       "rate limited body",
			status:     http.StatusTooManyRequests,
			body:       `{"error":"Too many password reset requests.","rate_limited":true,"seconds_remaining":570,"retry_message":"Please wait 9 minutes and 30 seconds before trying again."}`,
			kind:       apiclient.KindRateLimited,
			message:    "Too many password reset requests.",
			retryAfter: 570 * time.Second,
		},
		{
			name:       "rate limited header",
			status:     http.StatusTooManyRequests,
			body:       `{"detail":"Request was throttled."}`,
			header:     http.Header{"Retry-After": {"42"}},
			kind:       apiclient.KindRateLimited,
			message:    "Request was throttled.",
			retryAfter: 42 * time.Second,
		},
		{
			name:    "forbidden",
			status:  http.StatusForbidden,
			body:    `{"error":"Only super users can perform this action."}`,
			kind:    apiclient.KindAuthorization,
			message: "Only super users can perform this action.",
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"detail":"Not found."}`,
			kind:    apiclient.KindNotFound,
			message: "Not found.",
		},
		{
			name:    "server error without json uses fallback",
			status:  http.StatusInternalServerError,
			body:    `<html>oops</html>`,
			kind:    apiclient.KindServer,
			message: "Something went wrong",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _, _ := setupTestFixture(t, tc.status, tc.body, tc.header)
			err := client.Get(context.Background(), "/anything/", apiclient.AuthNone, nil)
			require.Error(t, err)

			var apiErr *apiclient.Error
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tc.kind, apiErr.Kind)
			require.Equal(t, tc.status, apiErr.StatusCode)
			require.Equal(t, tc.message, apiclient.Message(err, "Something went wrong"))
			require.Equal(t, tc.retryAfter, apiErr.RetryAfter)
		})
	}
}

func TestRateLimitRetryMessage(t *testing.T) {
	client, _, _ := setupTestFixture(t, http.StatusTooManyRequests, `{"error":"slow down","seconds_remaining":30,"retry_message":"Please wait 0 minutes and 30 seconds before trying again."}`, nil)
	err := client.Post(context.Background(), apiclient.RoutePasswordResetRequest, apiclient.AuthNone, map[string]string{"email": "a@b.c"}, nil)
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Please wait 0 minutes and 30 seconds before trying again.", apiErr.RetryMessage)
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client, err := apiclient.New(server.URL, memstore.New())
	require.NoError(t, err)

	err = client.Get(context.Background(), apiclient.RouteTodos, apiclient.AuthNone, nil)
	require.Equal(t, apiclient.KindTransport, apiclient.KindOf(err))
	require.Equal(t, "could not reach the server", apiclient.Message(err, ""))
}

func TestDecodeError(t *testing.T) {
	client, _, _ := setupTestFixture(t, http.StatusOK, `not json`, nil)
	var out []int
	err := client.Get(context.Background(), apiclient.RouteTodos, apiclient.AuthNone, &out)
	require.Equal(t, apiclient.KindDecode, apiclient.KindOf(err))
}

func TestEmptySuccessBody(t *testing.T) {
	client, _, _ := setupTestFixture(t, http.StatusNoContent, ``, nil)
	var out map[string]any
	require.NoError(t, client.Delete(context.Background(), apiclient.ItemPath(apiclient.RouteTodos, 3), apiclient.AuthNone))
	require.NoError(t, client.Get(context.Background(), apiclient.RouteTodos, apiclient.AuthNone, &out))
	require.Nil(t, out)
}

func TestItemPath(t *testing.T) {
	require.Equal(t, "/api/bookings/12/", apiclient.ItemPath(apiclient.RouteBookings, 12))
}
