// Package session owns the authentication state of the client and is the only
// writer of the credential store.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jrsteele09/go-booking-client/apiclient"
	"github.com/jrsteele09/go-booking-client/credentials"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/users"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var _ users.CurrentUser = (*Manager)(nil)

// Manager runs the Unknown -> Anonymous | Authenticated state machine.
type Manager struct {
	api   *apiclient.Client
	store credentials.Store

	mu           sync.RWMutex
	state        State
	user         *users.UserProfile
	generation   uint64 // bumped by Logout, Invalidate and every new credential
	listeners    map[int]func(Session)
	nextListener int
}

// NewManager wires the manager to api and installs its invalidation hook.
func NewManager(api *apiclient.Client, store credentials.Store) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[session.NewManager] api client is required")
	}
	if store == nil {
		return nil, errors.New("[session.NewManager] credential store is required")
	}
	m := &Manager{
		api:       api,
		store:     store,
		state:     StateUnknown,
		listeners: make(map[int]func(Session)),
	}
	api.SetUnauthorizedHandler(m.Invalidate)
	return m, nil
}

// Start resolves the initial state from the stored credential. Any failure
// leaves the manager Anonymous with the store cleared; the cause is returned.
func (m *Manager) Start(ctx context.Context) error {
	generation := m.currentGeneration()
	_, ok, err := m.store.Load()
	if err != nil {
		log.Err(err).Msg("[session.Start] could not read stored credential")
		m.clearIfCurrent(generation)
		return apperrors.Wrapf(err, "read stored credential")
	}
	if !ok {
		m.transition(&generation, StateAnonymous, nil)
		return nil
	}

	profile, err := m.fetchProfile(ctx)
	if err != nil {
		log.Err(err).Msg("[session.Start] stored credential rejected")
		m.clearIfCurrent(generation)
		return err
	}
	return m.authenticateIfCurrent(generation, profile)
}

// Login exchanges username and password for a credential and loads the profile.
// A failure before Start has run leaves the manager Anonymous.
func (m *Manager) Login(ctx context.Context, username, password string) (err error) {
	defer func() {
		if err != nil {
			m.settleUnknown()
		}
	}()
	if strings.TrimSpace(username) == "" {
		return apperrors.Wrapf(apperrors.ErrMissingField, "username")
	}
	if password == "" {
		return apperrors.Wrapf(apperrors.ErrMissingField, "password")
	}

	var credential credentials.Credential
	if err := m.api.Post(ctx, apiclient.RouteToken, apiclient.AuthNone, loginRequest{Username: username, Password: password}, &credential); err != nil {
		return err
	}
	return m.establish(ctx, credential)
}

// Register validates the form locally, creates the account and signs in.
func (m *Manager) Register(ctx context.Context, registration users.Registration) (err error) {
	defer func() {
		if err != nil {
			m.settleUnknown()
		}
	}()
	if err := registration.Validate(); err != nil {
		return err
	}

	var credential credentials.Credential
	if err := m.api.Post(ctx, apiclient.RouteRegister, apiclient.AuthNone, registration, &credential); err != nil {
		return err
	}
	return m.establish(ctx, credential)
}

// establish persists credential, verifies it with a profile fetch and
// publishes the Authenticated state once.
func (m *Manager) establish(ctx context.Context, credential credentials.Credential) error {
	if credential.IsZero() {
		return &apiclient.Error{Kind: apiclient.KindDecode, Message: "server did not return tokens"}
	}
	generation := m.nextGeneration()
	if err := m.store.Save(credential); err != nil {
		return apperrors.Wrapf(err, "save credential")
	}

	profile, err := m.fetchProfile(ctx)
	if err != nil {
		m.clearIfCurrent(generation)
		return err
	}
	return m.authenticateIfCurrent(generation, profile)
}

// Logout clears the stored credential. No server call is made.
func (m *Manager) Logout() error {
	m.nextGeneration()
	err := m.store.Clear()
	m.setState(StateAnonymous, nil)
	if err != nil {
		return apperrors.Wrapf(err, "clear credential")
	}
	return nil
}

// RefreshProfile re-reads the profile of the signed in user. A profile that
// arrives after Logout or Invalidate is dropped with ErrNotAuthenticated.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	m.mu.RLock()
	authenticated, generation := m.state == StateAuthenticated, m.generation
	m.mu.RUnlock()
	if !authenticated {
		return apperrors.ErrNotAuthenticated
	}
	profile, err := m.fetchProfile(ctx)
	if err != nil {
		return err
	}
	return m.authenticateIfCurrent(generation, profile)
}

// Invalidate drops the session after the server rejected the credential.
func (m *Manager) Invalidate() {
	log.Debug().Msg("[session.Invalidate] credential rejected by server")
	m.nextGeneration()
	m.clearAndSetAnonymous()
}

// Session returns the current snapshot.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Session{State: m.state, User: copyProfile(m.user)}
}

// Subscribe registers fn for state changes and returns the unsubscribe func.
func (m *Manager) Subscribe(fn func(Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) fetchProfile(ctx context.Context) (*users.UserProfile, error) {
	var profile users.UserProfile
	if err := m.api.Get(ctx, apiclient.RouteUser, apiclient.AuthRequired, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (m *Manager) currentGeneration() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

func (m *Manager) nextGeneration() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	return m.generation
}

// authenticateIfCurrent publishes profile unless the credential it was fetched
// with has since been replaced or cleared.
func (m *Manager) authenticateIfCurrent(generation uint64, profile *users.UserProfile) error {
	if _, ok, err := m.store.Load(); err != nil || !ok {
		return apperrors.ErrNotAuthenticated
	}
	if !m.transition(&generation, StateAuthenticated, profile) {
		log.Debug().Msg("[session] dropping profile fetched for a superseded credential")
		return apperrors.ErrNotAuthenticated
	}
	return nil
}

// clearIfCurrent fails closed unless a newer credential took over meanwhile.
func (m *Manager) clearIfCurrent(generation uint64) {
	if m.currentGeneration() != generation {
		return
	}
	m.clearAndSetAnonymous()
}

// settleUnknown ends the loading state without touching the store.
func (m *Manager) settleUnknown() {
	m.mu.RLock()
	unknown := m.state == StateUnknown
	m.mu.RUnlock()
	if unknown {
		m.setState(StateAnonymous, nil)
	}
}

func (m *Manager) clearAndSetAnonymous() {
	if err := m.store.Clear(); err != nil {
		log.Err(err).Msg("[session] could not clear credential")
	}
	m.setState(StateAnonymous, nil)
}

func (m *Manager) setState(state State, user *users.UserProfile) {
	m.transition(nil, state, user)
}

// transition applies the state and notifies listeners outside the lock when
// anything observable changed. With a non-nil generation the transition is
// refused once the manager has moved on to a newer one.
func (m *Manager) transition(generation *uint64, state State, user *users.UserProfile) bool {
	m.mu.Lock()
	if generation != nil && *generation != m.generation {
		m.mu.Unlock()
		return false
	}
	if m.state == state && profilesEqual(m.user, user) {
		m.mu.Unlock()
		return true
	}
	m.state = state
	m.user = copyProfile(user)
	snapshot := Session{State: state, User: copyProfile(user)}
	listeners := make([]func(Session), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return true
}

func profilesEqual(a, b *users.UserProfile) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// CurrentUser returns the signed in profile, nil when not authenticated.
func (m *Manager) CurrentUser() *users.UserProfile {
	s := m.Session()
	if !s.IsAuthenticated() {
		return nil
	}
	return s.User
}
