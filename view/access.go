package view

import (
	"fmt"
	"io"

	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
	"github.com/jrsteele09/go-booking-client/session"
	"github.com/jrsteele09/go-booking-client/users"
)

// AccessDeniedMessage is shown instead of a gated view.
const AccessDeniedMessage = "Access denied. Only super users can access this page."

// Guard returns ErrAccessDenied unless s may open tab.
func Guard(s session.Session, tab Tab) error {
	if !s.IsAuthenticated() {
		return apperrors.ErrNotAuthenticated
	}
	if capability, gated := tabCapability[tab]; gated && !users.Can(s.User, capability) {
		return apperrors.ErrAccessDenied
	}
	return nil
}

// RenderAccessDenied writes the access denied notice.
func RenderAccessDenied(w io.Writer) error {
	_, err := fmt.Fprintln(w, AccessDeniedMessage)
	return err
}
