// Package passwordreset drives the forgot-password flow: request a link,
// validate its token and set the new password.
package passwordreset

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-booking-client/apiclient"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Cooldown is the wait imposed by the server after too many requests.
type Cooldown struct {
	Until   time.Time
	Message string
}

// Remaining returns the time left at now, never negative.
func (c Cooldown) Remaining(now time.Time) time.Duration {
	if left := c.Until.Sub(now); left > 0 {
		return left
	}
	return 0
}

// Validation is the server's verdict on a reset token.
type Validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client runs the reset requests and remembers an active cooldown.
type Client struct {
	api *apiclient.Client

	mu       sync.Mutex
	cooldown Cooldown
}

func New(api *apiclient.Client) (*Client, error) {
	if api == nil {
		return nil, errors.New("[passwordreset.New] api client is required")
	}
	return &Client{api: api}, nil
}

// Cooldown returns the active cooldown, if any.
func (c *Client) Cooldown() (Cooldown, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cooldown.Remaining(NowTimeFunc()) == 0 {
		return Cooldown{}, false
	}
	return c.cooldown, true
}

type messageResponse struct {
	Message string `json:"message"`
}

// Request asks the server to email a reset link. While a cooldown is active
// the request is refused locally with ErrCoolingDown.
func (c *Client) Request(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperrors.Wrapf(apperrors.ErrMissingField, "email")
	}
	if cooldown, active := c.Cooldown(); active {
		return "", apperrors.Wrapf(apperrors.ErrCoolingDown, "%s", cooldown.Message)
	}

	var resp messageResponse
	err := c.api.Post(ctx, apiclient.RoutePasswordResetRequest, apiclient.AuthNone, map[string]string{"email": email}, &resp)
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindRateLimited && apiErr.RetryAfter > 0 {
			c.mu.Lock()
			c.cooldown = Cooldown{Until: NowTimeFunc().Add(apiErr.RetryAfter), Message: apiErr.RetryMessage}
			c.mu.Unlock()
		}
		return "", err
	}
	return resp.Message, nil
}

// Validate checks token. An invalid or expired token is a result, not an error.
func (c *Client) Validate(ctx context.Context, token string) (Validation, error) {
	if strings.TrimSpace(token) == "" {
		return Validation{}, apperrors.Wrapf(apperrors.ErrMissingField, "token")
	}
	var result Validation
	err := c.api.Post(ctx, apiclient.RoutePasswordResetValidate, apiclient.AuthNone, map[string]string{"token": token}, &result)
	if err != nil {
		if apiclient.KindOf(err) == apiclient.KindValidation {
			return Validation{Valid: false, Error: apiclient.Message(err, "Invalid or expired reset link")}, nil
		}
		return Validation{}, err
	}
	return result, nil
}

// Confirm sets the new password for the account token belongs to.
func (c *Client) Confirm(ctx context.Context, token, password, confirm string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", apperrors.Wrapf(apperrors.ErrMissingField, "token")
	}
	if err := users.ValidateNewPassword(password, confirm); err != nil {
		return "", err
	}
	var resp messageResponse
	body := map[string]string{"token": token, "new_password": password}
	if err := c.api.Post(ctx, apiclient.RoutePasswordResetConfirm, apiclient.AuthNone, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
