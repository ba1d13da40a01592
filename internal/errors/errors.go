package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session client
var (
	// Login errors
	ErrLoginFailed = errors.New("login failed")

	// Session errors
	ErrInvalidSessionData = errors.New("invalid session data")
	ErrSessionNotFound    = errors.New("session not found")

	// Token lifecycle errors, contained by the scheduler and gateway
	ErrRefreshFailed      = errors.New("token refresh failed")
	ErrLogoutNotifyFailed = errors.New("logout notification failed")

	// Role gate
	ErrAccessDenied = errors.New("access denied")

	// General errors
	ErrNotFound = errors.New("not found")
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

// MessageError carries a user-facing message while still matching a sentinel
// through errors.Is.
type MessageError struct {
	Kind    error
	Message string
	Cause   error
}

// NewMessageError builds a MessageError for kind with a display message and an
// optional underlying cause.
func NewMessageError(kind error, message string, cause error) *MessageError {
	return &MessageError{Kind: kind, Message: message, Cause: cause}
}

func (e *MessageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the sentinel kind and the cause to errors.Is / errors.As.
func (e *MessageError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}
