// Package bookings is the appointment feature. Regular users see and manage
// their own bookings; superusers see all of them, may book on behalf of other
// users and move bookings through their statuses.
package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-booking-client/apiclient"
	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/internal/utils"
	"github.com/jrsteele09/go-booking-client/resource"
	"github.com/jrsteele09/go-booking-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Bookings is the booking collection with the form operations.
type Bookings struct {
	*resource.Collection[Booking]
	current users.CurrentUser
}

// New returns an empty collection bound to the booking endpoint.
func New(api *apiclient.Client, current users.CurrentUser) (*Bookings, error) {
	if current == nil {
		return nil, errors.New("[bookings.New] current user source is required")
	}
	collection, err := resource.New[Booking](api, resource.Endpoint{
		Path: apiclient.RouteBookings,
		Auth: apiclient.AuthRequired,
		Noun: "booking",
	})
	if err != nil {
		return nil, err
	}
	return &Bookings{Collection: collection, current: current}, nil
}

// Prefill returns a create form seeded from the signed in profile.
func (b *Bookings) Prefill() Request {
	return Prefill(b.current.CurrentUser())
}

// Create validates req and books it. Booking for another user or with a
// status other than pending needs superuser capabilities.
func (b *Bookings) Create(ctx context.Context, req Request) (Booking, error) {
	profile := b.current.CurrentUser()
	if req.UserID != nil && !users.Can(profile, users.BookForOthers) {
		return Booking{}, b.refuse(apperrors.ErrAccessDenied)
	}
	if req.Status == "" {
		req.Status = StatusPending
	}
	if req.Status != StatusPending && !users.Can(profile, users.ChangeBookingStatus) {
		return Booking{}, b.refuse(apperrors.ErrAccessDenied)
	}
	if err := req.Validate(NowTimeFunc()); err != nil {
		return Booking{}, err
	}
	return b.Collection.Create(ctx, req)
}

// Edit applies a partial change to booking id.
func (b *Bookings) Edit(ctx context.Context, id int, patch Patch) (Booking, error) {
	if patch.IsEmpty() {
		return Booking{}, apperrors.Wrapf(apperrors.ErrMissingField, "nothing to change")
	}
	if patch.Status != nil && !users.Can(b.current.CurrentUser(), users.ChangeBookingStatus) {
		return Booking{}, b.refuse(apperrors.ErrAccessDenied)
	}
	if err := patch.Validate(NowTimeFunc()); err != nil {
		return Booking{}, err
	}
	return b.Update(ctx, id, patch)
}

// SetStatus moves booking id to status. Superusers only.
func (b *Bookings) SetStatus(ctx context.Context, id int, status Status) (Booking, error) {
	if !users.Can(b.current.CurrentUser(), users.ChangeBookingStatus) {
		return Booking{}, b.refuse(apperrors.ErrAccessDenied)
	}
	if !status.Valid() {
		return Booking{}, apperrors.Wrapf(apperrors.ErrInvalidField, "status %q", status)
	}
	return b.Update(ctx, id, Patch{Status: utils.Ptr(status)})
}

// Delete removes booking id once confirmer agrees.
func (b *Bookings) Delete(ctx context.Context, id int, confirmer resource.Confirmer) error {
	return b.Remove(ctx, id, confirmer)
}

// ByStatus returns the bookings in status; an empty status returns all.
func (b *Bookings) ByStatus(status Status) []Booking {
	if status == "" {
		return b.Items()
	}
	return b.Filter(func(bk Booking) bool { return bk.Status == status })
}

// Counts returns the number of bookings per status.
func (b *Bookings) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, status := range Statuses {
		counts[status] = b.Count(func(bk Booking) bool { return bk.Status == status })
	}
	return counts
}

func (b *Bookings) refuse(err error) error {
	b.Fail(err)
	return err
}
