package passwordreset_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-booking-client/apiclient"
	"github.com/jrsteele09/go-booking-client/credentials/memstore"
	"github.com/jrsteele09/go-booking-client/fakeapi"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/passwordreset"
	"github.com/jrsteele09/go-booking-client/session"
	"github.com/stretchr/testify/require"
)

// clock is shared by the client and the fake backend.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	backend *fakeapi.Server
	client  *passwordreset.Client
	api     *apiclient.Client
	clock   *clock
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	clk := &clock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	passwordreset.NowTimeFunc = clk.Now
	t.Cleanup(func() { passwordreset.NowTimeFunc = time.Now })

	backend := fakeapi.New(fakeapi.WithNowTime(clk.Now))
	backend.AddUser(fakeapi.UserSeed{Username: "alice", Email: "alice@example.com", Password: "alice-pass"})
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	api, err := apiclient.New(server.URL, memstore.New())
	require.NoError(t, err)
	client, err := passwordreset.New(api)
	require.NoError(t, err)
	return &testFixture{backend: backend, client: client, api: api, clock: clk}
}

func TestRateLimitCooldown(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		msg, err := f.client.Request(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "Password reset email sent. Please check your inbox.", msg)
	}
	_, active := f.client.Cooldown()
	require.False(t, active)

	f.clock.Advance(30 * time.Second)
	_, err := f.client.Request(ctx, "alice@example.com")
	require.Equal(t, apiclient.KindRateLimited, apiclient.KindOf(err))

	cooldown, active := f.client.Cooldown()
	require.True(t, active)
	require.Equal(t, 570*time.Second, cooldown.Remaining(f.clock.Now()))
	require.Equal(t, "Please wait 9 minutes and 30 seconds before trying again.", cooldown.Message)

	before := f.backend.CountRequests(http.MethodPost, apiclient.RoutePasswordResetRequest)
	_, err = f.client.Request(ctx, "alice@example.com")
	require.ErrorIs(t, err, apperrors.ErrCoolingDown)
	require.Equal(t, before, f.backend.CountRequests(http.MethodPost, apiclient.RoutePasswordResetRequest))

	f.clock.Advance(570 * time.Second)
	_, active = f.client.Cooldown()
	require.False(t, active)
	_, err = f.client.Request(ctx, "alice@example.com")
	require.NoError(t, err)
}

func TestUnknownEmail(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.client.Request(context.Background(), "nobody@example.com")
	require.Equal(t, "No user found with this email address.", apiclient.Message(err, "Failed to send reset email"))

	_, err = f.client.Request(context.Background(), " ")
	require.ErrorIs(t, err, apperrors.ErrMissingField)
}

func TestValidateAndConfirm(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	_, err := f.client.Request(ctx, "alice@example.com")
	require.NoError(t, err)
	token := f.backend.ResetTokenFor("alice@example.com")
	require.NotEmpty(t, token)

	result, err := f.client.Validate(ctx, token)
	require.NoError(t, err)
	require.True(t, result.Valid)

	result, err = f.client.Validate(ctx, "bogus")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, "Invalid reset token.", result.Error)

	_, err = f.client.Confirm(ctx, token, "new-pass-1", "new-pass-2")
	require.ErrorIs(t, err, apperrors.ErrPasswordMismatch)
	_, err = f.client.Confirm(ctx, token, "short", "short")
	require.ErrorIs(t, err, apperrors.ErrPasswordTooShort)

	msg, err := f.client.Confirm(ctx, token, "brand-new-pass", "brand-new-pass")
	require.NoError(t, err)
	require.Equal(t, "Password has been reset successfully.", msg)

	result, err = f.client.Validate(ctx, token)
	require.NoError(t, err)
	require.False(t, result.Valid)

	store := memstore.New()
	api, err := apiclient.New(f.api.BaseURL(), store)
	require.NoError(t, err)
	manager, err := session.NewManager(api, store)
	require.NoError(t, err)
	require.NoError(t, manager.Login(ctx, "alice", "brand-new-pass"))
}

func TestExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	_, err := f.client.Request(ctx, "alice@example.com")
	require.NoError(t, err)
	token := f.backend.ResetTokenFor("alice@example.com")

	f.clock.Advance(2 * time.Hour)
	result, err := f.client.Validate(ctx, token)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, "This reset link has expired.", result.Error)
}
