package bookings

import (
	"net/mail"
	"slices"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/internal/utils"
	"github.com/jrsteele09/go-booking-client/users"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Label is the capitalised status name.
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ParseStatus accepts a status name in any case.
func ParseStatus(name string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", apperrors.Wrapf(apperrors.ErrInvalidField, "status %q", name)
	}
	return s, nil
}

// ServiceOptions is the service catalogue offered by the booking form.
var ServiceOptions = []string{
	"Haircut",
	"Hair Coloring",
	"Massage",
	"Facial",
	"Manicure",
	"Pedicure",
	"Spa Treatment",
	"Consultation",
	"Other",
}

const (
	dateLayout = time.DateOnly
	timeLayout = "15:04"
)

// Booking is an appointment as returned by the server.
type Booking struct {
	ID          int       `json:"id"`
	User        int       `json:"user"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Service     string    `json:"service"`
	BookingDate string    `json:"booking_date"`
	BookingTime string    `json:"booking_time"`
	Notes       string    `json:"notes"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (b Booking) GetID() int {
	return b.ID
}

// Request is the create form.
type Request struct {
	UserID      *int   `json:"user_id,omitempty"` // superusers only: book on behalf of this user
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Service     string `json:"service"`
	BookingDate string `json:"booking_date"` // YYYY-MM-DD
	BookingTime string `json:"booking_time"` // HH:MM
	Notes       string `json:"notes"`
	Status      Status `json:"status,omitempty"`
}

// Prefill returns a form with name and email taken from profile.
func Prefill(profile *users.UserProfile) Request {
	if profile == nil {
		return Request{}
	}
	return Request{
		FullName: utils.FirstNonEmpty(strings.TrimSpace(profile.FullName), profile.Username),
		Email:    profile.Email,
	}
}

// Validate runs the form checks. now decides which dates are in the past.
func (r Request) Validate(now time.Time) error {
	required := []struct{ name, value string }{
		{"full_name", r.FullName},
		{"email", r.Email},
		{"service", r.Service},
		{"booking_date", r.BookingDate},
		{"booking_time", r.BookingTime},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return apperrors.Wrapf(apperrors.ErrMissingField, "%s", field.name)
		}
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := validateService(r.Service); err != nil {
		return err
	}
	if err := validateDate(r.BookingDate, now); err != nil {
		return err
	}
	if err := validateTime(r.BookingTime); err != nil {
		return err
	}
	if r.Status != "" && !r.Status.Valid() {
		return apperrors.Wrapf(apperrors.ErrInvalidField, "status %q", r.Status)
	}
	return nil
}

// Patch is a partial edit; nil fields are left unchanged.
type Patch struct {
	FullName    *string `json:"full_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Service     *string `json:"service,omitempty"`
	BookingDate *string `json:"booking_date,omitempty"`
	BookingTime *string `json:"booking_time,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Validate checks the fields present in the patch.
func (p Patch) Validate(now time.Time) error {
	present := []struct {
		name  string
		value *string
	}{
		{"full_name", p.FullName},
		{"email", p.Email},
		{"service", p.Service},
		{"booking_date", p.BookingDate},
		{"booking_time", p.BookingTime},
	}
	for _, field := range present {
		if field.value != nil && strings.TrimSpace(*field.value) == "" {
			return apperrors.Wrapf(apperrors.ErrMissingField, "%s", field.name)
		}
	}
	if p.Email != nil {
		if err := validateEmail(*p.Email); err != nil {
			return err
		}
	}
	if p.Service != nil {
		if err := validateService(*p.Service); err != nil {
			return err
		}
	}
	if p.BookingDate != nil {
		if err := validateDate(*p.BookingDate, now); err != nil {
			return err
		}
	}
	if p.BookingTime != nil {
		if err := validateTime(*p.BookingTime); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperrors.Wrapf(apperrors.ErrInvalidField, "status %q", utils.Value(p.Status))
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidField, "email %q", email)
	}
	return nil
}

func validateService(service string) error {
	if !slices.Contains(ServiceOptions, service) {
		return apperrors.Wrapf(apperrors.ErrInvalidField, "service %q", service)
	}
	return nil
}

func validateDate(date string, now time.Time) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidField, "booking_date %q, use YYYY-MM-DD", date)
	}
	if date < now.Format(dateLayout) {
		return apperrors.ErrDateInPast
	}
	return nil
}

func validateTime(clock string) error {
	if _, err := time.Parse(timeLayout, clock); err != nil {
		if _, err := time.Parse(time.TimeOnly, clock); err != nil {
			return apperrors.Wrapf(apperrors.ErrInvalidField, "booking_time %q, use HH:MM", clock)
		}
	}
	return nil
}
