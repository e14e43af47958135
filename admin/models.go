package admin

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/users"
)

// Account is a row of the admin or user management lists.
type Account struct {
	ID              int        `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	IsSuperuser     bool       `json:"is_superuser"`
	CanRevokeAdmins bool       `json:"can_revoke_admins"`
	IsActive        bool       `json:"is_active"`
	DateJoined      time.Time  `json:"date_joined"`
	LastLogin       *time.Time `json:"last_login"`
}

func (a Account) GetID() int {
	return a.ID
}

// ActivityLog records one administrative action.
type ActivityLog struct {
	ID          int       `json:"id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	TargetUser  string    `json:"target_user,omitempty"`
	Details     string    `json:"details"`
	Timestamp   time.Time `json:"timestamp"`
}

func (l ActivityLog) GetID() int {
	return l.ID
}

// MemorableQuestions are the security questions offered when creating a user.
var MemorableQuestions = []string{
	"Name of pet",
	"Country of origin",
	"Mother's maiden name",
}

// MemorableInformation is an optional security question and answer.
type MemorableInformation struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Encode returns the JSON string sent to the server, or "" unless both
// question and answer are set.
func (m MemorableInformation) Encode() string {
	if strings.TrimSpace(m.Question) == "" || strings.TrimSpace(m.Answer) == "" {
		return ""
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// NewAdmin is the create-admin form.
type NewAdmin struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	CanRevokeAdmins bool   `json:"can_revoke_admins"`
}

func (n NewAdmin) Validate() error {
	return validateAccount(n.Username, n.Email, n.Password, n.ConfirmPassword)
}

// NewAccount is the create-user form.
type NewAccount struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Memorable       MemorableInformation
}

func (n NewAccount) Validate() error {
	return validateAccount(n.Username, n.Email, n.Password, n.ConfirmPassword)
}

type newAccountPayload struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	MemorableInformation string `json:"memorable_information"`
}

func (n NewAccount) payload() newAccountPayload {
	return newAccountPayload{
		Username:             n.Username,
		Email:                n.Email,
		Password:             n.Password,
		FirstName:            n.FirstName,
		LastName:             n.LastName,
		MemorableInformation: n.Memorable.Encode(),
	}
}

func validateAccount(username, email, password, confirm string) error {
	if strings.TrimSpace(username) == "" {
		return apperrors.Wrapf(apperrors.ErrMissingField, "username")
	}
	if strings.TrimSpace(email) == "" {
		return apperrors.Wrapf(apperrors.ErrMissingField, "email")
	}
	return users.ValidateNewPassword(password, confirm)
}

type targetRequest struct {
	UserID      int    `json:"user_id"`
	NewPassword string `json:"new_password,omitempty"`
}

type messageResponse struct {
	Message  string `json:"message"`
	IsActive *bool  `json:"is_active,omitempty"`
}
