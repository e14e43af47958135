package users

import (
	"strings"

	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
)

// MinPasswordLength is the shortest password accepted by the forms.
const MinPasswordLength = 8

// UserProfile is the snapshot returned by the user-info endpoint.
type UserProfile struct {
	ID                int    `json:"id"`                          // Server assigned identifier
	Username          string `json:"username"`                    // Unique username
	Email             string `json:"email,omitempty"`             // User's email address
	FirstName         string `json:"first_name,omitempty"`        // First name of the user
	LastName          string `json:"last_name,omitempty"`         // Last name of the user
	FullName          string `json:"full_name,omitempty"`         // "first last", trimmed, computed by the server
	IsSuperuser       bool   `json:"is_superuser"`                // Superusers see the admin views
	CanRevokeAdmins   bool   `json:"can_revoke_admins,omitempty"` // Superusers allowed to revoke other admins
	ProfilePictureURL string `json:"profile_picture,omitempty"`   // Hosted image URL, empty when unset
}

// DisplayName prefers the full name and falls back to the username.
func (u *UserProfile) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

// Registration is the self-service sign up form.
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

// Validate runs the client-side checks performed before submitting.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return apperrors.Wrapf(apperrors.ErrMissingField, "username")
	}
	if strings.TrimSpace(r.Email) == "" {
		return apperrors.Wrapf(apperrors.ErrMissingField, "email")
	}
	return ValidateNewPassword(r.Password, r.ConfirmPassword)
}

// ValidateNewPassword checks the confirmation matches and the minimum length.
// Strength rules beyond length are left to the server.
func ValidateNewPassword(password, confirm string) error {
	if password != confirm {
		return apperrors.ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return apperrors.ErrPasswordTooShort
	}
	return nil
}
