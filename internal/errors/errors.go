package errors

import (
	"errors"
	"fmt"
)

// Common error types for the booking client
var (
	// Session errors
	ErrNoCredential     = errors.New("no stored credential")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Authorization errors
	ErrAccessDenied = errors.New("access denied. Only super users can access this page")
	ErrSelfRevoke   = errors.New("cannot revoke your own admin privileges")

	// Form validation errors
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrMissingField     = errors.New("required field missing")
	ErrInvalidField     = errors.New("invalid field value")
	ErrDateInPast       = errors.New("booking date cannot be in the past")

	// Resource errors
	ErrNotConfirmed = errors.New("action not confirmed")
	ErrNotFound     = errors.New("not found")
	ErrDetached     = errors.New("collection detached")

	// Rate limiting
	ErrCoolingDown = errors.New("too many attempts, wait before retrying")

	// Upload errors
	ErrNotAnImage    = errors.New("please select an image file")
	ErrImageTooLarge = errors.New("image size must be less than 5MB")
	ErrNoSecureURL   = errors.New("upload service returned no secure_url")

	// General errors
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join wraps errors.Join so callers only import this package
func Join(errs ...error) error {
	return errors.Join(errs...)
}
