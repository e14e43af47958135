package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-booking-client/credentials"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const requestIDHeader = "X-Request-Id"

// AuthMode states whether a request carries the stored bearer credential.
type AuthMode int

const (
	AuthNone     AuthMode = iota // never send the credential
	AuthOptional                 // send it when one is stored
	AuthRequired                 // fail locally when none is stored
)

// Request describes a single JSON API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Auth   AuthMode
}

// Client issues JSON requests against the booking API. It only ever reads the
// credential store; writes belong to the session manager.
type Client struct {
	baseURL string
	store   credentials.Store
	plain   *http.Client
	bearer  *http.Client

	mu             sync.RWMutex
	onUnauthorized func()
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying client; its transport is reused for
// bearer requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.plain = httpClient
	}
}

// New initializes a Client for baseURL reading credentials from store.
func New(baseURL string, store credentials.Store, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[apiclient.New] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[apiclient.New] credential store is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		plain:   &http.Client{},
	}
	for _, opt := range options {
		opt(c)
	}

	base := c.plain.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.bearer = &http.Client{
		Transport: &oauth2.Transport{Source: storeTokenSource{store: store}, Base: base},
		Jar:       c.plain.Jar,
	}
	return c, nil
}

// BaseURL returns the API base URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetUnauthorizedHandler installs the hook run when an authenticated request
// receives 401.
func (c *Client) SetUnauthorizedHandler(handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = handler
}

// storeTokenSource reads the store on every request.
type storeTokenSource struct {
	store credentials.Store
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	credential, ok, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrNoCredential
	}
	return credential.Token(), nil
}

func (c *Client) Get(ctx context.Context, path string, auth AuthMode, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Auth: auth}, out)
}

func (c *Client) Post(ctx context.Context, path string, auth AuthMode, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Auth: auth, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, auth AuthMode, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Auth: auth, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, auth AuthMode) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Auth: auth}, nil)
}

// Do sends req and decodes a successful JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	httpClient, authenticated, err := c.clientFor(req.Auth)
	if err != nil {
		return err
	}

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return &Error{Kind: KindTransport, Message: "could not build request", Err: err}
	}

	requestID := httpReq.Header.Get(requestIDHeader)
	started := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoCredential) {
			return &Error{Kind: KindAuthentication, Message: "not logged in", Err: err}
		}
		log.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Str("request_id", requestID).Msg("api request failed")
		return &Error{Kind: KindTransport, Message: "could not reach the server", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Message: "could not read the response", Err: err}
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(started)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newResponseError(resp, body)
		if apiErr.Kind == KindAuthentication && authenticated {
			c.unauthorized()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Message: "unexpected response from the server", Err: err}
	}
	return nil
}

func (c *Client) clientFor(auth AuthMode) (*http.Client, bool, error) {
	if auth == AuthNone {
		return c.plain, false, nil
	}
	_, ok, err := c.store.Load()
	if err != nil {
		return nil, false, &Error{Kind: KindAuthentication, Message: "could not read stored credential", Err: err}
	}
	if !ok {
		if auth == AuthRequired {
			return nil, false, &Error{Kind: KindAuthentication, Message: "not logged in", Err: apperrors.ErrNoCredential}
		}
		return c.plain, false, nil
	}
	return c.bearer, true, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, uuid.NewString())
	return httpReq, nil
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	handler := c.onUnauthorized
	c.mu.RUnlock()
	if handler != nil {
		handler()
	}
}
