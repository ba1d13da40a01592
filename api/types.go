package api

import (
	"github.com/jrsteele09/go-session-client/users"
)

// LoginRequest is the body of the login exchange.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful login.
// All three fields are required; a response missing any of them is not a
// usable session.
type LoginResponse struct {
	// Access is the short-lived JWT sent with every API request.
	// Usage: "Authorization: Bearer <access>"
	Access *string `json:"access,omitempty"`

	// Refresh is the long-lived token only ever sent to the refresh and
	// logout endpoints.
	Refresh *string `json:"refresh,omitempty"`

	// User is the profile of the authenticated user. Role decides the
	// landing page and every role gate until the next login.
	User *users.User `json:"user,omitempty"`
}

// RefreshRequest is the body of both the refresh and the logout calls.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse carries the new access token. The refresh token is not
// rotated.
type RefreshResponse struct {
	Access *string `json:"access,omitempty"`
}

// ErrorResponse is the error body shape of the API. Depending on the view the
// message is in either field.
type ErrorResponse struct {
	Error  *string `json:"error,omitempty"`
	Detail *string `json:"detail,omitempty"`
}

// Message returns the first non-empty message field.
func (e *ErrorResponse) Message() string {
	if e == nil {
		return ""
	}
	if e.Error != nil && *e.Error != "" {
		return *e.Error
	}
	if e.Detail != nil && *e.Detail != "" {
		return *e.Detail
	}
	return ""
}
