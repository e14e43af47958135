package fakeapi

import "time"

type account struct {
	ID                   int        `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	IsSuperuser          bool       `json:"is_superuser"`
	CanRevokeAdmins      bool       `json:"can_revoke_admins"`
	IsActive             bool       `json:"is_active"`
	ProfilePicture       string     `json:"profile_picture,omitempty"`
	DateJoined           time.Time  `json:"date_joined"`
	LastLogin            *time.Time `json:"last_login"`
	memorableInformation string
	passwordHash         []byte
}

func (a *account) fullName() string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	default:
		return a.LastName
	}
}

type profileResponse struct {
	ID              int    `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	FullName        string `json:"full_name"`
	IsSuperuser     bool   `json:"is_superuser"`
	CanRevokeAdmins bool   `json:"can_revoke_admins"`
	ProfilePicture  string `json:"profile_picture,omitempty"`
}

func (a *account) profile() profileResponse {
	return profileResponse{
		ID:              a.ID,
		Username:        a.Username,
		Email:           a.Email,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		FullName:        a.fullName(),
		IsSuperuser:     a.IsSuperuser,
		CanRevokeAdmins: a.CanRevokeAdmins,
		ProfilePicture:  a.ProfilePicture,
	}
}

type todo struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type booking struct {
	ID          int       `json:"id"`
	User        int       `json:"user"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Service     string    `json:"service"`
	BookingDate string    `json:"booking_date"`
	BookingTime string    `json:"booking_time"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type activityLog struct {
	ID          int       `json:"id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	TargetUser  string    `json:"target_user,omitempty"`
	Details     string    `json:"details"`
	Timestamp   time.Time `json:"timestamp"`
}

type resetToken struct {
	token   string
	email   string
	created time.Time
	used    bool
}

var bookingStatuses = map[string]bool{
	"pending":   true,
	"confirmed": true,
	"cancelled": true,
	"completed": true,
}
