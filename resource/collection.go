// Package resource keeps a local, ordered copy of a server collection in sync
// through list, create, update and delete calls.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/jrsteele09/go-booking-client/apiclient"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// Identifiable is implemented by every item kept in a Collection.
type Identifiable interface {
	GetID() int
}

// Endpoint describes where a collection lives on the server.
type Endpoint struct {
	Path    string             // collection route, items live at Path + "{id}/"
	ListKey string             // envelope key of the list response; empty for a bare array
	Query   url.Values         // extra list query parameters
	Auth    apiclient.AuthMode // credential requirement for every call
	Noun    string             // item name used in confirmation prompts
}

// Collection is the local copy of a server collection plus its error slot.
type Collection[T Identifiable] struct {
	api      *apiclient.Client
	endpoint Endpoint

	mu           sync.RWMutex
	items        []T
	err          error
	detached     bool
	listeners    map[int]func()
	nextListener int
}

// New returns an empty collection bound to endpoint.
func New[T Identifiable](api *apiclient.Client, endpoint Endpoint) (*Collection[T], error) {
	if api == nil {
		return nil, errors.New("[resource.New] api client is required")
	}
	if endpoint.Path == "" {
		return nil, errors.New("[resource.New] endpoint path is required")
	}
	if endpoint.Noun == "" {
		endpoint.Noun = "item"
	}
	return &Collection[T]{
		api:       api,
		endpoint:  endpoint,
		listeners: make(map[int]func()),
	}, nil
}

// List replaces the collection with the server's, in server order.
func (c *Collection[T]) List(ctx context.Context) error {
	items, err := c.fetch(ctx)
	return c.apply(err, func() {
		c.items = items
	})
}

// Create posts fields and appends the item the server returned. A response
// without an item is a decode error and appends nothing.
func (c *Collection[T]) Create(ctx context.Context, fields any) (T, error) {
	var created T
	err := c.api.Post(ctx, c.endpoint.Path, c.endpoint.Auth, fields, &created)
	if err == nil && created.GetID() == 0 {
		err = missingItem()
	}
	err = c.apply(err, func() {
		c.items = append(c.items, created)
	})
	return created, err
}

// Update patches item id with partial and swaps in the server's version.
func (c *Collection[T]) Update(ctx context.Context, id int, partial any) (T, error) {
	var updated T
	err := c.api.Patch(ctx, apiclient.ItemPath(c.endpoint.Path, id), c.endpoint.Auth, partial, &updated)
	if err == nil && updated.GetID() != id {
		err = missingItem()
	}
	err = c.apply(err, func() {
		for i := range c.items {
			if c.items[i].GetID() == id {
				c.items[i] = updated
				return
			}
		}
	})
	return updated, err
}

// Remove deletes item id after confirmer approves. A declined or missing
// confirmation returns ErrNotConfirmed without contacting the server.
func (c *Collection[T]) Remove(ctx context.Context, id int, confirmer Confirmer) error {
	if !confirmed(confirmer, fmt.Sprintf("Are you sure you want to delete this %s?", c.endpoint.Noun)) {
		return apperrors.ErrNotConfirmed
	}
	err := c.api.Delete(ctx, apiclient.ItemPath(c.endpoint.Path, id), c.endpoint.Auth)
	return c.apply(err, func() {
		for i := range c.items {
			if c.items[i].GetID() == id {
				c.items = append(c.items[:i:i], c.items[i+1:]...)
				return
			}
		}
	})
}

// Items returns a copy of the collection.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Find returns the first item with id.
func (c *Collection[T]) Find(id int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Err returns the error slot: the failure of the last call, nil after a success.
func (c *Collection[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Filter returns the items matching pred. A nil pred matches everything.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if pred == nil || pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Count returns how many items match pred.
func (c *Collection[T]) Count(pred func(T) bool) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, item := range c.items {
		if pred == nil || pred(item) {
			n++
		}
	}
	return n
}

// Subscribe registers fn to run after every change and returns the
// unsubscribe func.
func (c *Collection[T]) Subscribe(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Detach marks the owning view as gone. Responses arriving afterwards are
// discarded and the call returns ErrDetached.
func (c *Collection[T]) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
	clear(c.listeners)
}

// Fail records err in the error slot without touching the items. Used for
// refusals decided before a request is made.
func (c *Collection[T]) Fail(err error) {
	_ = c.apply(err, nil)
}

func (c *Collection[T]) fetch(ctx context.Context) ([]T, error) {
	req := apiclient.Request{
		Method: http.MethodGet,
		Path:   c.endpoint.Path,
		Query:  c.endpoint.Query,
		Auth:   c.endpoint.Auth,
	}
	if c.endpoint.ListKey == "" {
		var items []T
		err := c.api.Do(ctx, req, &items)
		return items, err
	}

	var envelope map[string]json.RawMessage
	if err := c.api.Do(ctx, req, &envelope); err != nil {
		return nil, err
	}
	raw, ok := envelope[c.endpoint.ListKey]
	if !ok {
		return nil, &apiclient.Error{Kind: apiclient.KindDecode, StatusCode: http.StatusOK, Message: "unexpected response from the server"}
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &apiclient.Error{Kind: apiclient.KindDecode, StatusCode: http.StatusOK, Message: "unexpected response from the server", Err: err}
	}
	return items, nil
}

func missingItem() error {
	return &apiclient.Error{Kind: apiclient.KindDecode, StatusCode: http.StatusOK, Message: "the server did not return the saved item"}
}

// apply records the outcome of a call. On success mutate runs under the lock
// and the error slot is cleared; on failure only the error slot changes.
func (c *Collection[T]) apply(err error, mutate func()) error {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		log.Debug().Str("path", c.endpoint.Path).Msg("[resource] dropping response for detached collection")
		return apperrors.ErrDetached
	}
	if err != nil {
		c.err = err
	} else {
		c.err = nil
		if mutate != nil {
			mutate()
		}
	}
	listeners := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return err
}
