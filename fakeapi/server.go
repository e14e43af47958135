// Package fakeapi is an in-memory stand-in for the booking backend. It speaks
// the same JSON wire format, issues real signed JWT pairs and supports failure
// injection so client behaviour can be exercised end to end.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetWindow      = 10 * time.Minute
	resetMaxAttempts = 3
	resetTokenTTL    = time.Hour
)

// Server implements http.Handler.
type Server struct {
	router *mux.Router
	env    string

	mu            sync.Mutex
	signer        signer
	now           func() time.Time
	accounts      map[int]*account
	todos         []*todo
	bookings      []*booking
	logs          []activityLog
	resetTokens   map[string]*resetToken
	resetAttempts map[string][]time.Time
	sentResets    []string
	nextID        map[string]int

	failures []failure
	holds    []*hold
	requests []RecordedRequest
}

// RecordedRequest is one request as seen by the server.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
}

// Option configures a Server.
type Option func(*Server)

// WithNowTime sets the clock used for tokens, timestamps and rate limiting.
func WithNowTime(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithEnv enables route logging when env is DEV.
func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = env
	}
}

// New returns an empty backend.
func New(options ...Option) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		signer:        newHMACSigner(),
		now:           time.Now,
		accounts:      make(map[int]*account),
		resetTokens:   make(map[string]*resetToken),
		resetAttempts: make(map[string][]time.Time),
		nextID:        make(map[string]int),
	}
	for _, opt := range options {
		opt(s)
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ChainMiddleware(s.router.ServeHTTP, s.RecoverMiddleware, s.LoggingMiddleware, s.CorsMiddleware, s.RecordMiddleware, s.FailureMiddleware)(w, r)
}

func (s *Server) initRoutes() {
	r := s.router

	r.HandleFunc("/api/auth/token/", s.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register/", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/user/", s.authenticated(s.handleUserInfo)).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/profile/picture/", s.authenticated(s.handleProfilePicture)).Methods(http.MethodPost)

	r.HandleFunc("/api/auth/password-reset/request/", s.handleResetRequest).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/password-reset/validate/", s.handleResetValidate).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/password-reset/confirm/", s.handleResetConfirm).Methods(http.MethodPost)

	r.HandleFunc("/api/todos/", s.handleTodoList).Methods(http.MethodGet)
	r.HandleFunc("/api/todos/", s.handleTodoCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/todos/{id:[0-9]+}/", s.handleTodoPatch).Methods(http.MethodPatch)
	r.HandleFunc("/api/todos/{id:[0-9]+}/", s.handleTodoDelete).Methods(http.MethodDelete)

	r.HandleFunc("/api/bookings/", s.authenticated(s.handleBookingList)).Methods(http.MethodGet)
	r.HandleFunc("/api/bookings/", s.authenticated(s.handleBookingCreate)).Methods(http.MethodPost)
	r.HandleFunc("/api/bookings/{id:[0-9]+}/", s.authenticated(s.handleBookingPatch)).Methods(http.MethodPatch)
	r.HandleFunc("/api/bookings/{id:[0-9]+}/", s.authenticated(s.handleBookingDelete)).Methods(http.MethodDelete)

	r.HandleFunc("/api/auth/admin/list/", s.superuser(s.handleAdminList)).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/admin/create/", s.superuser(s.handleAdminCreate)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/admin/revoke/", s.superuser(s.handleAdminRevoke)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/admin/activity-logs/", s.superuser(s.handleActivityLogs)).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/users/list/", s.superuser(s.handleUsersList)).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/users/create/", s.superuser(s.handleUsersCreate)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/users/change-password/", s.superuser(s.handleUsersChangePassword)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/users/send-reset-link/", s.superuser(s.handleUsersSendResetLink)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/users/toggle-active/", s.superuser(s.handleUsersToggleActive)).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, detail("Not found."))
	})
}

// UserSeed describes an account created directly in the store.
type UserSeed struct {
	Username        string
	Email           string
	Password        string
	FirstName       string
	LastName        string
	Superuser       bool
	CanRevokeAdmins bool
}

// AddUser creates an account and returns its id.
func (s *Server) AddUser(seed UserSeed) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccountLocked(seed).ID
}

func (s *Server) addAccountLocked(seed UserSeed) *account {
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.MinCost)
	if err != nil {
		panic("fakeapi: hash password: " + err.Error())
	}
	a := &account{
		ID:              s.next("user"),
		Username:        seed.Username,
		Email:           seed.Email,
		FirstName:       seed.FirstName,
		LastName:        seed.LastName,
		passwordHash:    hash,
		IsSuperuser:     seed.Superuser,
		CanRevokeAdmins: seed.CanRevokeAdmins,
		IsActive:        true,
		DateJoined:      s.now().UTC(),
	}
	s.accounts[a.ID] = a
	return a
}

// SetNowTime replaces the server clock.
func (s *Server) SetNowTime(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// RotateSigningKey replaces the signing key, invalidating every issued token.
func (s *Server) RotateSigningKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signer = newHMACSigner()
}

// Requests returns a copy of the request log.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// CountRequests counts logged requests matching method and path.
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// SentResetEmails lists the addresses reset links were sent to.
func (s *Server) SentResetEmails() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sentResets...)
}

// ResetTokenFor returns the newest unused reset token issued for email.
func (s *Server) ResetTokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest *resetToken
	for _, t := range s.resetTokens {
		if t.email == email && !t.used && (newest == nil || t.created.After(newest.created)) {
			newest = t
		}
	}
	if newest == nil {
		return ""
	}
	return newest.token
}

// TodoIDs returns the stored todo ids in order.
func (s *Server) TodoIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.todos))
	for _, t := range s.todos {
		ids = append(ids, t.ID)
	}
	return ids
}

func (s *Server) next(kind string) int {
	s.nextID[kind]++
	return s.nextID[kind]
}

func (s *Server) accountByUsername(username string) *account {
	for _, a := range s.sortedAccounts() {
		if strings.EqualFold(a.Username, username) {
			return a
		}
	}
	return nil
}

func (s *Server) accountByEmail(email string) *account {
	for _, a := range s.sortedAccounts() {
		if strings.EqualFold(a.Email, email) {
			return a
		}
	}
	return nil
}

func (s *Server) sortedAccounts() []*account {
	list := make([]*account, 0, len(s.accounts))
	for _, a := range s.accounts {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *Server) logActivity(actor *account, action string, target *account, details string) {
	entry := activityLog{
		ID:          s.next("log"),
		Action:      action,
		PerformedBy: actor.Username,
		Details:     details,
		Timestamp:   s.now().UTC(),
	}
	if target != nil {
		entry.TargetUser = target.Username
	}
	s.logs = append(s.logs, entry)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func detail(msg string) map[string]string {
	return map[string]string{"detail": msg}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func required(fields ...string) map[string][]string {
	errs := make(map[string][]string, len(fields))
	for _, f := range fields {
		errs[f] = []string{"This field is required."}
	}
	return errs
}
