package todos_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-booking-client/apiclient"
	"github.com/jrsteele09/go-booking-client/credentials/memstore"
	"github.com/jrsteele09/go-booking-client/fakeapi"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/resource"
	"github.com/jrsteele09/go-booking-client/todos"
	"github.com/stretchr/testify/require"
)

func setupTestFixture(t *testing.T) (*todos.List, *fakeapi.Server) {
	t.Helper()
	backend := fakeapi.New()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	api, err := apiclient.New(server.URL, memstore.New())
	require.NoError(t, err)
	list, err := todos.New(api)
	require.NoError(t, err)
	return list, backend
}

func TestTaskList(t *testing.T) {
	list, backend := setupTestFixture(t)
	ctx := context.Background()

	eat, err := list.Add(ctx, "  Eat ", "")
	require.NoError(t, err)
	require.Equal(t, "Eat", eat.Title)
	require.False(t, eat.Completed)
	sleep, err := list.Add(ctx, "Sleep", "eight hours")
	require.NoError(t, err)
	_, err = list.Add(ctx, "Repeat", "")
	require.NoError(t, err)

	require.Equal(t, "3 tasks remaining", list.Heading(todos.FilterAll))

	toggled, err := list.Toggle(ctx, eat.ID)
	require.NoError(t, err)
	require.True(t, toggled.Completed)
	require.Equal(t, "1 task remaining", list.Heading(todos.FilterCompleted))
	require.Equal(t, "2 tasks remaining", list.Heading(todos.FilterActive))
	require.Len(t, list.Visible(todos.FilterAll), 3)

	_, err = list.Rename(ctx, sleep.ID, "Nap")
	require.NoError(t, err)
	found, ok := list.Find(sleep.ID)
	require.True(t, ok)
	require.Equal(t, "Nap", found.Title)
	require.Equal(t, "eight hours", found.Description)

	require.NoError(t, list.Delete(ctx, eat.ID, resource.AlwaysConfirm))
	require.Equal(t, backend.TodoIDs(), []int{list.Items()[0].ID, list.Items()[1].ID})
	require.Equal(t, "0 tasks remaining", list.Heading(todos.FilterCompleted))
}

func TestLocalRefusals(t *testing.T) {
	list, backend := setupTestFixture(t)
	ctx := context.Background()

	_, err := list.Add(ctx, "   ", "")
	require.ErrorIs(t, err, apperrors.ErrMissingField)
	_, err = list.Toggle(ctx, 99)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = list.Rename(ctx, 1, "")
	require.ErrorIs(t, err, apperrors.ErrMissingField)
	require.Empty(t, backend.Requests())
}

func TestListSendsNoCredentialWhenAnonymous(t *testing.T) {
	list, backend := setupTestFixture(t)
	require.NoError(t, list.List(context.Background()))
	requests := backend.Requests()
	require.Len(t, requests, 1)
	require.Equal(t, http.MethodGet, requests[0].Method)
	require.Empty(t, requests[0].Authorization)
}

func TestParseFilter(t *testing.T) {
	f, err := todos.ParseFilter("active")
	require.NoError(t, err)
	require.Equal(t, todos.FilterActive, f)

	_, err = todos.ParseFilter("done")
	require.Error(t, err)
}
