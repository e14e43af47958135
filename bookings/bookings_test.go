package bookings_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-booking-client/apiclient"
	"github.com/jrsteele09/go-booking-client/bookings"
	"github.com/jrsteele09/go-booking-client/credentials/memstore"
	"github.com/jrsteele09/go-booking-client/fakeapi"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/internal/utils"
	"github.com/jrsteele09/go-booking-client/resource"
	"github.com/jrsteele09/go-booking-client/session"
	"github.com/jrsteele09/go-booking-client/users"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)

type testFixture struct {
	backend *fakeapi.Server
	url     string
	aliceID int
	rootID  int
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	bookings.NowTimeFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() { bookings.NowTimeFunc = time.Now })

	backend := fakeapi.New()
	aliceID := backend.AddUser(fakeapi.UserSeed{Username: "alice", Email: "alice@example.com", Password: "alice-pass", FirstName: "Alice", LastName: "Smith"})
	rootID := backend.AddUser(fakeapi.UserSeed{Username: "root", Email: "root@example.com", Password: "root-pass", Superuser: true})
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)
	return &testFixture{backend: backend, url: server.URL, aliceID: aliceID, rootID: rootID}
}

// signIn returns a booking collection acting as username.
func (f *testFixture) signIn(t *testing.T, username, password string) (*bookings.Bookings, *session.Manager) {
	t.Helper()
	store := memstore.New()
	api, err := apiclient.New(f.url, store)
	require.NoError(t, err)
	manager, err := session.NewManager(api, store)
	require.NoError(t, err)
	if username != "" {
		require.NoError(t, manager.Login(context.Background(), username, password))
	}
	list, err := bookings.New(api, manager)
	require.NoError(t, err)
	return list, manager
}

func validRequest(b *bookings.Bookings) bookings.Request {
	req := b.Prefill()
	req.Service = "Massage"
	req.BookingDate = "2026-01-12"
	req.BookingTime = "14:30"
	return req
}

func TestPrefill(t *testing.T) {
	require.Equal(t, bookings.Request{FullName: "Alice Smith", Email: "a@x.io"},
		bookings.Prefill(&users.UserProfile{Username: "alice", FullName: "Alice Smith", Email: "a@x.io"}))
	require.Equal(t, "bob", bookings.Prefill(&users.UserProfile{Username: "bob", FullName: " "}).FullName)
	require.Equal(t, bookings.Request{}, bookings.Prefill(nil))
}

func TestRequestValidate(t *testing.T) {
	base := bookings.Request{FullName: "Alice", Email: "alice@example.com", Service: "Facial", BookingDate: "2026-01-10", BookingTime: "09:15"}
	require.NoError(t, base.Validate(fixedNow))

	tests := []struct {
		name   string
		modify func(r *bookings.Request)
		want   error
	}{
		{"missing name", func(r *bookings.Request) { r.FullName = "" }, apperrors.ErrMissingField},
		{"bad email", func(r *bookings.Request) { r.Email = "not-an-email" }, apperrors.ErrInvalidField},
		{"unknown service", func(r *bookings.Request) { r.Service = "Tattoo" }, apperrors.ErrInvalidField},
		{"bad date", func(r *bookings.Request) { r.BookingDate = "10/01/2026" }, apperrors.ErrInvalidField},
		{"past date", func(r *bookings.Request) { r.BookingDate = "2026-01-09" }, apperrors.ErrDateInPast},
		{"bad time", func(r *bookings.Request) { r.BookingTime = "2pm" }, apperrors.ErrInvalidField},
		{"bad status", func(r *bookings.Request) { r.Status = "archived" }, apperrors.ErrInvalidField},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := base
			tc.modify(&r)
			require.ErrorIs(t, r.Validate(fixedNow), tc.want)
		})
	}
}

func TestRegularUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	alice, _ := f.signIn(t, "alice", "alice-pass")
	root, _ := f.signIn(t, "root", "root-pass")

	_, err := root.Create(ctx, validRequest(root))
	require.NoError(t, err)

	created, err := alice.Create(ctx, validRequest(alice))
	require.NoError(t, err)
	require.Equal(t, bookings.StatusPending, created.Status)
	require.Equal(t, f.aliceID, created.User)
	require.Equal(t, "alice", created.Username)
	require.Equal(t, "Alice Smith", created.FullName)

	require.NoError(t, alice.List(ctx))
	require.Len(t, alice.Items(), 1)

	t.Run("cannot book for others", func(t *testing.T) {
		req := validRequest(alice)
		req.UserID = utils.Ptr(f.rootID)
		before := len(f.backend.Requests())
		_, err := alice.Create(ctx, req)
		require.ErrorIs(t, err, apperrors.ErrAccessDenied)
		require.ErrorIs(t, alice.Err(), apperrors.ErrAccessDenied)
		require.Len(t, f.backend.Requests(), before)
	})

	t.Run("cannot change status", func(t *testing.T) {
		_, err := alice.SetStatus(ctx, created.ID, bookings.StatusConfirmed)
		require.ErrorIs(t, err, apperrors.ErrAccessDenied)
		_, err = alice.Edit(ctx, created.ID, bookings.Patch{Status: utils.Ptr(bookings.StatusCancelled)})
		require.ErrorIs(t, err, apperrors.ErrAccessDenied)
	})

	t.Run("edit keeps untouched fields", func(t *testing.T) {
		updated, err := alice.Edit(ctx, created.ID, bookings.Patch{Notes: utils.Ptr("Window seat")})
		require.NoError(t, err)
		require.Equal(t, "Window seat", updated.Notes)
		require.Equal(t, "Massage", updated.Service)
		require.NoError(t, alice.Err())
	})

	t.Run("empty edit is refused", func(t *testing.T) {
		_, err := alice.Edit(ctx, created.ID, bookings.Patch{})
		require.ErrorIs(t, err, apperrors.ErrMissingField)
	})

	t.Run("delete needs confirmation", func(t *testing.T) {
		require.ErrorIs(t, alice.Delete(ctx, created.ID, resource.ConfirmFunc(func(string) bool { return false })), apperrors.ErrNotConfirmed)
		require.NoError(t, alice.Delete(ctx, created.ID, resource.AlwaysConfirm))
		require.Empty(t, alice.Items())
	})
}

func TestSuperuser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	alice, _ := f.signIn(t, "alice", "alice-pass")
	root, _ := f.signIn(t, "root", "root-pass")

	_, err := alice.Create(ctx, validRequest(alice))
	require.NoError(t, err)

	req := validRequest(root)
	req.UserID = utils.Ptr(f.aliceID)
	req.FullName = "Alice Smith"
	onBehalf, err := root.Create(ctx, req)
	require.NoError(t, err)
	require.Equal(t, f.aliceID, onBehalf.User)

	require.NoError(t, root.List(ctx))
	require.Len(t, root.Items(), 2)

	confirmed, err := root.SetStatus(ctx, onBehalf.ID, bookings.StatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, bookings.StatusConfirmed, confirmed.Status)

	counts := root.Counts()
	require.Equal(t, 1, counts[bookings.StatusPending])
	require.Equal(t, 1, counts[bookings.StatusConfirmed])
	require.Zero(t, counts[bookings.StatusCancelled])
	require.Len(t, root.ByStatus(bookings.StatusConfirmed), 1)
	require.Len(t, root.ByStatus(""), 2)

	require.NoError(t, alice.List(ctx))
	require.Len(t, alice.Items(), 2)
}

func TestByStatusKeepsServerOrder(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	root, _ := f.signIn(t, "root", "root-pass")

	statuses := []bookings.Status{
		bookings.StatusPending,
		bookings.StatusConfirmed,
		bookings.StatusPending,
		bookings.StatusCancelled,
		bookings.StatusCompleted,
		bookings.StatusPending,
	}
	var pendingIDs []int
	for _, status := range statuses {
		req := validRequest(root)
		req.Status = status
		created, err := root.Create(ctx, req)
		require.NoError(t, err)
		if status == bookings.StatusPending {
			pendingIDs = append(pendingIDs, created.ID)
		}
	}
	require.NoError(t, root.List(ctx))
	before := root.Items()

	var got []int
	for _, b := range root.ByStatus(bookings.StatusPending) {
		require.Equal(t, bookings.StatusPending, b.Status)
		got = append(got, b.ID)
	}
	require.Equal(t, pendingIDs, got)
	require.Len(t, root.ByStatus(bookings.StatusCancelled), 1)
	require.Equal(t, before, root.Items())
	require.Equal(t, 3, root.Counts()[bookings.StatusPending])
}

func TestAnonymousNeedsLogin(t *testing.T) {
	f := setupTestFixture(t)
	anon, _ := f.signIn(t, "", "")
	err := anon.List(context.Background())
	require.Equal(t, apiclient.KindAuthentication, apiclient.KindOf(err))
	require.Zero(t, f.backend.CountRequests(http.MethodGet, apiclient.RouteBookings))
}

func TestStatusHelpers(t *testing.T) {
	s, err := bookings.ParseStatus(" Confirmed ")
	require.NoError(t, err)
	require.Equal(t, bookings.StatusConfirmed, s)
	require.Equal(t, "Confirmed", s.Label())
	_, err = bookings.ParseStatus("archived")
	require.ErrorIs(t, err, apperrors.ErrInvalidField)
}
