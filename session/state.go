package session

import "github.com/jrsteele09/go-booking-client/users"

// State is the authentication state of the client.
type State int

const (
	StateUnknown       State = iota // before Start completes
	StateAnonymous                  // no usable credential
	StateAuthenticated              // credential verified by a profile fetch
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the snapshot handed to dependents.
type Session struct {
	State State
	User  *users.UserProfile
}

func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}

// Loading reports whether the initial credential check is still running.
func (s Session) Loading() bool {
	return s.State == StateUnknown
}

func copyProfile(p *users.UserProfile) *users.UserProfile {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
