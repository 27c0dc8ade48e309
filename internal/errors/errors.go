package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console session client
var (
	// Session errors
	ErrSessionBlocked = errors.New("session expired")
	ErrNoSession      = errors.New("no session")
	ErrUnauthorized   = errors.New("unauthorized")

	// Renewal errors
	ErrRenewalRejected  = errors.New("refresh credential rejected")
	ErrRenewalTransient = errors.New("refresh failed")

	// Request errors
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")
	ErrTemporary  = errors.New("temporary failure")

	// Flag and locale errors
	ErrInvalidLocale = errors.New("invalid locale")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
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

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return errors.Join(errs...)
}
