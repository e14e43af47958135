package fakeapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-booking-client/fakeapi"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	api *fakeapi.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	api := fakeapi.New()
	api.AddUser(fakeapi.UserSeed{Username: "alice", Email: "alice@example.com", Password: "password123"})
	return &testFixture{api: api}
}

func (f *testFixture) do(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.api.ServeHTTP(rec, req)
	decoded := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func (f *testFixture) login(t *testing.T) string {
	t.Helper()
	rec, body := f.do(t, http.MethodPost, "/api/auth/token/", "", map[string]string{"username": "alice", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	access, _ := body["access"].(string)
	require.NotEmpty(t, access)
	return access
}

func TestToken_RejectsWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	rec, body := f.do(t, http.MethodPost, "/api/auth/token/", "", map[string]string{"username": "alice", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "No active account found with the given credentials", body["detail"])
}

func TestUserInfo_NeedsValidToken(t *testing.T) {
	f := setupTestFixture(t)
	rec, _ := f.do(t, http.MethodGet, "/api/auth/user/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	access := f.login(t)
	rec, body := f.do(t, http.MethodGet, "/api/auth/user/", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", body["username"])

	f.api.RotateSigningKey()
	rec, _ = f.do(t, http.MethodGet, "/api/auth/user/", access, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes_RefuseRegularUsers(t *testing.T) {
	f := setupTestFixture(t)
	rec, body := f.do(t, http.MethodGet, "/api/auth/admin/list/", f.login(t), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Only super users can perform this action.", body["error"])
}

func TestFailNext_AppliesOnce(t *testing.T) {
	f := setupTestFixture(t)
	f.api.FailNext(http.MethodGet, "/api/todos/*", http.StatusInternalServerError, map[string]string{"detail": "boom"})

	rec, body := f.do(t, http.MethodGet, "/api/todos/", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "boom", body["detail"])

	rec, _ = f.do(t, http.MethodGet, "/api/todos/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, f.api.CountRequests(http.MethodGet, "/api/todos/"))
}

func TestUnknownRoute(t *testing.T) {
	f := setupTestFixture(t)
	rec, body := f.do(t, http.MethodGet, "/api/nowhere/", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not found.", body["detail"])
}
