package resource_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-booking-client/apiclient"
	"github.com/jrsteele09/go-booking-client/credentials"
	"github.com/jrsteele09/go-booking-client/credentials/memstore"
	"github.com/jrsteele09/go-booking-client/fakeapi"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/resource"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

func (i item) GetID() int { return i.ID }

type testFixture struct {
	backend    *fakeapi.Server
	collection *resource.Collection[item]
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	backend := fakeapi.New()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	api, err := apiclient.New(server.URL, memstore.New())
	require.NoError(t, err)
	collection, err := resource.New[item](api, resource.Endpoint{
		Path: apiclient.RouteTodos,
		Auth: apiclient.AuthOptional,
		Noun: "todo",
	})
	require.NoError(t, err)
	return &testFixture{backend: backend, collection: collection}
}

func ids(items []item) []int {
	out := make([]int, 0, len(items))
	for _, i := range items {
		out = append(out, i.ID)
	}
	return out
}

func titles(items []item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Title)
	}
	return out
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := resource.New[item](nil, resource.Endpoint{Path: "/x/"})
	require.Error(t, err)

	api, err := apiclient.New("http://localhost:8000", memstore.New())
	require.NoError(t, err)
	_, err = resource.New[item](api, resource.Endpoint{})
	require.Error(t, err)
}

func TestSequenceMatchesServer(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	a, err := f.collection.Create(ctx, item{Title: "Buy milk"})
	require.NoError(t, err)
	b, err := f.collection.Create(ctx, item{Title: "Walk dog"})
	require.NoError(t, err)
	_, err = f.collection.Create(ctx, item{Title: "Call mum"})
	require.NoError(t, err)

	_, err = f.collection.Update(ctx, a.ID, map[string]any{"completed": true})
	require.NoError(t, err)
	_, err = f.collection.Update(ctx, b.ID, map[string]any{"title": "Walk the dog"})
	require.NoError(t, err)
	require.NoError(t, f.collection.Remove(ctx, a.ID, resource.AlwaysConfirm))

	require.Equal(t, f.backend.TodoIDs(), ids(f.collection.Items()))
	require.Equal(t, []string{"Walk the dog", "Call mum"}, titles(f.collection.Items()))
	require.NoError(t, f.collection.Err())

	require.NoError(t, f.collection.List(ctx))
	require.Equal(t, f.backend.TodoIDs(), ids(f.collection.Items()))
}

func TestListFailureKeepsItems(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	_, err := f.collection.Create(ctx, item{Title: "Buy milk"})
	require.NoError(t, err)

	f.backend.FailNext(http.MethodGet, apiclient.RouteTodos, http.StatusInternalServerError, map[string]string{"detail": "down"})
	err = f.collection.List(ctx)
	require.Error(t, err)
	require.Equal(t, err, f.collection.Err())
	require.Equal(t, []string{"Buy milk"}, titles(f.collection.Items()))

	require.NoError(t, f.collection.List(ctx))
	require.NoError(t, f.collection.Err())
}

func TestFailedMutationsLeaveCollectionUntouched(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	created, err := f.collection.Create(ctx, item{Title: "Buy milk"})
	require.NoError(t, err)
	path := apiclient.ItemPath(apiclient.RouteTodos, created.ID)

	t.Run("create", func(t *testing.T) {
		_, err := f.collection.Create(ctx, item{Title: ""})
		require.Equal(t, apiclient.KindValidation, apiclient.KindOf(err))
		require.Len(t, f.collection.Items(), 1)
	})

	t.Run("update", func(t *testing.T) {
		f.backend.FailNext(http.MethodPatch, path, http.StatusInternalServerError, map[string]string{"detail": "down"})
		_, err := f.collection.Update(ctx, created.ID, map[string]any{"title": "Changed"})
		require.Equal(t, apiclient.KindServer, apiclient.KindOf(err))
		require.Equal(t, []string{"Buy milk"}, titles(f.collection.Items()))
	})

	t.Run("remove", func(t *testing.T) {
		f.backend.FailNext(http.MethodDelete, path, http.StatusInternalServerError, map[string]string{"detail": "down"})
		err := f.collection.Remove(ctx, created.ID, resource.AlwaysConfirm)
		require.Equal(t, apiclient.KindServer, apiclient.KindOf(err))
		require.Equal(t, []int{created.ID}, ids(f.collection.Items()))
		require.Error(t, f.collection.Err())
	})
}

func TestEmptyMutationResponseIsRejected(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	created, err := f.collection.Create(ctx, item{Title: "Buy milk"})
	require.NoError(t, err)

	t.Run("create", func(t *testing.T) {
		f.backend.FailNext(http.MethodPost, apiclient.RouteTodos, http.StatusCreated, nil)
		_, err := f.collection.Create(ctx, item{Title: "Walk dog"})
		require.Equal(t, apiclient.KindDecode, apiclient.KindOf(err))
		require.Equal(t, []int{created.ID}, ids(f.collection.Items()))
		require.Equal(t, err, f.collection.Err())
	})

	t.Run("update", func(t *testing.T) {
		f.backend.FailNext(http.MethodPatch, apiclient.ItemPath(apiclient.RouteTodos, created.ID), http.StatusOK, map[string]any{})
		_, err := f.collection.Update(ctx, created.ID, map[string]any{"title": "Changed"})
		require.Equal(t, apiclient.KindDecode, apiclient.KindOf(err))
		require.Equal(t, []string{"Buy milk"}, titles(f.collection.Items()))
	})
}

func TestRemoveNeedsConfirmation(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	created, err := f.collection.Create(ctx, item{Title: "Buy milk"})
	require.NoError(t, err)

	var prompt string
	decline := resource.ConfirmFunc(func(p string) bool {
		prompt = p
		return false
	})
	require.ErrorIs(t, f.collection.Remove(ctx, created.ID, decline), apperrors.ErrNotConfirmed)
	require.Equal(t, "Are you sure you want to delete this todo?", prompt)
	require.ErrorIs(t, f.collection.Remove(ctx, created.ID, nil), apperrors.ErrNotConfirmed)

	require.Zero(t, f.backend.CountRequests(http.MethodDelete, apiclient.ItemPath(apiclient.RouteTodos, created.ID)))
	require.Len(t, f.collection.Items(), 1)
}

func TestLastResponseWins(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	created, err := f.collection.Create(ctx, item{Title: "Original"})
	require.NoError(t, err)
	path := apiclient.ItemPath(apiclient.RouteTodos, created.ID)

	arrived, release := f.backend.Hold(http.MethodPatch, path)
	slow := make(chan error, 1)
	go func() {
		_, err := f.collection.Update(ctx, created.ID, map[string]any{"title": "Slow"})
		slow <- err
	}()
	<-arrived

	_, err = f.collection.Update(ctx, created.ID, map[string]any{"title": "Fast"})
	require.NoError(t, err)
	require.Equal(t, []string{"Fast"}, titles(f.collection.Items()))

	release()
	require.NoError(t, <-slow)
	require.Equal(t, []string{"Slow"}, titles(f.collection.Items()))
}

func TestDetachDropsLateResponses(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	notified := 0
	f.collection.Subscribe(func() { notified++ })

	arrived, release := f.backend.Hold(http.MethodPost, apiclient.RouteTodos)
	done := make(chan error, 1)
	go func() {
		_, err := f.collection.Create(ctx, item{Title: "Late"})
		done <- err
	}()
	<-arrived
	f.collection.Detach()
	release()

	require.ErrorIs(t, <-done, apperrors.ErrDetached)
	require.Empty(t, f.collection.Items())
	require.Zero(t, notified)
}

func TestFilterAndCountArePure(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := f.collection.Create(ctx, item{Title: title})
		require.NoError(t, err)
	}
	first := f.collection.Items()[0]
	_, err := f.collection.Update(ctx, first.ID, map[string]any{"completed": true})
	require.NoError(t, err)

	done := func(i item) bool { return i.Completed }
	before := f.collection.Items()
	require.Len(t, f.collection.Filter(done), 1)
	require.Equal(t, 1, f.collection.Count(done))
	require.Len(t, f.collection.Filter(nil), 3)
	require.Equal(t, 3, f.collection.Count(nil))
	require.Equal(t, before, f.collection.Items())
}

func TestEnvelopeAndQuery(t *testing.T) {
	backend := fakeapi.New()
	backend.AddUser(fakeapi.UserSeed{Username: "root", Email: "root@example.com", Password: "password123", Superuser: true})
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	store := memstore.New()
	api, err := apiclient.New(server.URL, store)
	require.NoError(t, err)
	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, api.Post(context.Background(), apiclient.RouteToken, apiclient.AuthNone, map[string]string{"username": "root", "password": "password123"}, &pair))
	require.NoError(t, store.Save(credentialsFrom(pair.Access, pair.Refresh)))

	admins, err := resource.New[item](api, resource.Endpoint{
		Path:    apiclient.RouteAdminList,
		ListKey: "admins",
		Auth:    apiclient.AuthRequired,
	})
	require.NoError(t, err)
	require.NoError(t, admins.List(context.Background()))
	require.Len(t, admins.Items(), 1)

	wrongKey, err := resource.New[item](api, resource.Endpoint{
		Path:    apiclient.RouteAdminList,
		ListKey: "users",
		Auth:    apiclient.AuthRequired,
	})
	require.NoError(t, err)
	require.Equal(t, apiclient.KindDecode, apiclient.KindOf(wrongKey.List(context.Background())))
}

func credentialsFrom(access, refresh string) credentials.Credential {
	return credentials.Credential{AccessToken: access, RefreshToken: refresh}
}
