// Package errors defines the sentinel errors the lead services return. The
// HTTP layer maps each sentinel onto a status code, so services wrap with
// the helpers below instead of choosing codes themselves.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable marks a failed downstream: database, object storage,
	// captcha provider.
	ErrUnavailable = errors.New("unavailable")
	ErrInternal    = errors.New("internal error")
)

// NotFoundError reports a missing lead, asset or token subject
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// InvalidInputError names the offending field
func InvalidInputError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrInvalidInput)
}

// UnauthorizedError is ErrUnauthorized with an optional reason
func UnauthorizedError(reason string) error {
	if reason == "" {
		return ErrUnauthorized
	}
	return fmt.Errorf("%s: %w", reason, ErrUnauthorized)
}

// UnavailableError keeps both ErrUnavailable and the cause in the chain
func UnavailableError(dependency string, err error) error {
	return fmt.Errorf("%s: %w: %w", dependency, ErrUnavailable, err)
}

func InternalError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}

// Is is errors.Is, re-exported so callers need only this package
func Is(err, target error) bool {
	return errors.Is(err, target)
}
