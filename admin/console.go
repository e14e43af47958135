// Package admin holds the superuser views: admin management, regular user
// management and the activity log. Every operation checks the signed in
// user's capabilities before any request is made.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-booking-client/apiclient"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/resource"
	"github.com/jrsteele09/go-booking-client/users"
	"github.com/rs/zerolog/log"
)

// DefaultActivityLogLimit is the number of log entries fetched per list.
const DefaultActivityLogLimit = 100

// Console bundles the three superuser collections.
type Console struct {
	api     *apiclient.Client
	current users.CurrentUser

	Admins *resource.Collection[Account]
	Users  *resource.Collection[Account]
	Logs   *resource.Collection[ActivityLog]
}

// ConsoleOption defines a function type to modify the Console instance.
type ConsoleOption func(*consoleSettings)

type consoleSettings struct {
	logLimit int
}

// WithActivityLogLimit sets the ?limit= sent with the activity log list.
func WithActivityLogLimit(limit int) ConsoleOption {
	return func(s *consoleSettings) {
		if limit > 0 {
			s.logLimit = limit
		}
	}
}

// New returns a Console with empty collections.
func New(api *apiclient.Client, current users.CurrentUser, options ...ConsoleOption) (*Console, error) {
	if api == nil {
		return nil, errors.New("[admin.New] api client is required")
	}
	if current == nil {
		return nil, errors.New("[admin.New] current user source is required")
	}
	settings := consoleSettings{logLimit: DefaultActivityLogLimit}
	for _, opt := range options {
		opt(&settings)
	}

	admins, err := resource.New[Account](api, resource.Endpoint{Path: apiclient.RouteAdminList, ListKey: "admins", Auth: apiclient.AuthRequired, Noun: "admin"})
	if err != nil {
		return nil, err
	}
	accounts, err := resource.New[Account](api, resource.Endpoint{Path: apiclient.RouteUsersList, ListKey: "users", Auth: apiclient.AuthRequired, Noun: "user"})
	if err != nil {
		return nil, err
	}
	logs, err := resource.New[ActivityLog](api, resource.Endpoint{
		Path:    apiclient.RouteAdminActivityLogs,
		ListKey: "logs",
		Query:   url.Values{"limit": {strconv.Itoa(settings.logLimit)}},
		Auth:    apiclient.AuthRequired,
	})
	if err != nil {
		return nil, err
	}
	return &Console{api: api, current: current, Admins: admins, Users: accounts, Logs: logs}, nil
}

// Detach drops late responses for every collection.
func (c *Console) Detach() {
	c.Admins.Detach()
	c.Users.Detach()
	c.Logs.Detach()
}

// LoadAdmins lists the admins and the activity log.
func (c *Console) LoadAdmins(ctx context.Context) error {
	if err := c.require(users.ManageAdmins, c.Admins.Fail); err != nil {
		return err
	}
	return errors.Join(c.Admins.List(ctx), c.loadLogs(ctx))
}

// LoadActivityLogs lists the newest activity log entries.
func (c *Console) LoadActivityLogs(ctx context.Context) error {
	if err := c.require(users.ViewActivityLogs, c.Logs.Fail); err != nil {
		return err
	}
	return c.Logs.List(ctx)
}

// LoadUsers lists the regular user accounts.
func (c *Console) LoadUsers(ctx context.Context) error {
	if err := c.require(users.ManageUsers, c.Users.Fail); err != nil {
		return err
	}
	return c.Users.List(ctx)
}

// CreateAdmin creates a superuser and re-lists admins and the activity log.
func (c *Console) CreateAdmin(ctx context.Context, form NewAdmin) (string, error) {
	if err := c.require(users.ManageAdmins, c.Admins.Fail); err != nil {
		return "", err
	}
	if err := form.Validate(); err != nil {
		return "", err
	}
	msg, err := c.post(ctx, apiclient.RouteAdminCreate, form, c.Admins.Fail)
	if err != nil {
		return "", err
	}
	c.refresh(ctx, c.Admins)
	return msg, nil
}

// RevokeAdmin removes admin rights from target after confirmation. Needs the
// revoke capability and never applies to the signed in user.
func (c *Console) RevokeAdmin(ctx context.Context, target Account, confirmer resource.Confirmer) (string, error) {
	profile := c.current.CurrentUser()
	if err := c.require(users.RevokeAdmins, c.Admins.Fail); err != nil {
		return "", err
	}
	if !users.CanRevoke(profile, target.ID) {
		c.Admins.Fail(apperrors.ErrSelfRevoke)
		return "", apperrors.ErrSelfRevoke
	}
	if confirmer == nil || !confirmer.Confirm(fmt.Sprintf("Are you sure you want to revoke admin privileges from %s?", target.Username)) {
		return "", apperrors.ErrNotConfirmed
	}
	msg, err := c.post(ctx, apiclient.RouteAdminRevoke, targetRequest{UserID: target.ID}, c.Admins.Fail)
	if err != nil {
		return "", err
	}
	c.refresh(ctx, c.Admins)
	return msg, nil
}

// CreateUser creates a regular account with optional memorable information.
func (c *Console) CreateUser(ctx context.Context, form NewAccount) (string, error) {
	if err := c.require(users.ManageUsers, c.Users.Fail); err != nil {
		return "", err
	}
	if err := form.Validate(); err != nil {
		return "", err
	}
	msg, err := c.post(ctx, apiclient.RouteUsersCreate, form.payload(), c.Users.Fail)
	if err != nil {
		return "", err
	}
	c.refresh(ctx, c.Users)
	return msg, nil
}

// ChangePassword sets a new password for userID.
func (c *Console) ChangePassword(ctx context.Context, userID int, password, confirm string) (string, error) {
	if err := c.require(users.ManageUsers, c.Users.Fail); err != nil {
		return "", err
	}
	if err := users.ValidateNewPassword(password, confirm); err != nil {
		return "", err
	}
	msg, err := c.post(ctx, apiclient.RouteUsersChangePass, targetRequest{UserID: userID, NewPassword: password}, c.Users.Fail)
	if err != nil {
		return "", err
	}
	c.refresh(ctx, c.Users)
	return msg, nil
}

// SendResetLink emails a password reset link to userID.
func (c *Console) SendResetLink(ctx context.Context, userID int) (string, error) {
	if err := c.require(users.ManageUsers, c.Users.Fail); err != nil {
		return "", err
	}
	msg, err := c.post(ctx, apiclient.RouteUsersSendResetLink, targetRequest{UserID: userID}, c.Users.Fail)
	if err != nil {
		return "", err
	}
	c.refresh(ctx, c.Users)
	return msg, nil
}

// ToggleActive activates or deactivates target after confirmation.
func (c *Console) ToggleActive(ctx context.Context, target Account, confirmer resource.Confirmer) (string, error) {
	if err := c.require(users.ManageUsers, c.Users.Fail); err != nil {
		return "", err
	}
	verb := "deactivate"
	if !target.IsActive {
		verb = "activate"
	}
	if confirmer == nil || !confirmer.Confirm(fmt.Sprintf("Are you sure you want to %s %s?", verb, target.Username)) {
		return "", apperrors.ErrNotConfirmed
	}
	msg, err := c.post(ctx, apiclient.RouteUsersToggleActive, targetRequest{UserID: target.ID}, c.Users.Fail)
	if err != nil {
		return "", err
	}
	c.refresh(ctx, c.Users)
	return msg, nil
}

func (c *Console) require(capability users.Capability, fail func(error)) error {
	if users.Can(c.current.CurrentUser(), capability) {
		return nil
	}
	fail(apperrors.ErrAccessDenied)
	return apperrors.ErrAccessDenied
}

func (c *Console) post(ctx context.Context, path string, body any, fail func(error)) (string, error) {
	var resp messageResponse
	if err := c.api.Post(ctx, path, apiclient.AuthRequired, body, &resp); err != nil {
		fail(err)
		return "", err
	}
	return resp.Message, nil
}

// refresh re-lists collection and the activity log after a mutation. Failures
// land in the collections' error slots.
func (c *Console) refresh(ctx context.Context, collection *resource.Collection[Account]) {
	if err := collection.List(ctx); err != nil {
		log.Err(err).Msg("[admin.Console] refresh after mutation failed")
	}
	if err := c.loadLogs(ctx); err != nil {
		log.Err(err).Msg("[admin.Console] activity log refresh failed")
	}
}

func (c *Console) loadLogs(ctx context.Context) error {
	if !users.Can(c.current.CurrentUser(), users.ViewActivityLogs) {
		return nil
	}
	return c.Logs.List(ctx)
}
