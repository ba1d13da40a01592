package sessions

import (
	"github.com/jrsteele09/go-session-client/users"
)

// Session is the authenticated state bundle. It is either fully present or
// absent; the Store never hands out a partial one.
type Session struct {
	AccessToken  string     `json:"access"`  // Short-lived credential for API requests
	RefreshToken string     `json:"refresh"` // Long-lived credential, only used to mint access tokens
	User         users.User `json:"user"`    // Profile returned at login; Role is fixed for the session
}

// Keys names the three storage slots a session occupies.
type Keys struct {
	Access  string
	Refresh string
	User    string
}

// DefaultKeys returns the slot names used by the web client.
func DefaultKeys() Keys {
	return Keys{
		Access:  "ara_jwt_access",
		Refresh: "ara_jwt_refresh",
		User:    "ara_current_user",
	}
}

func (k Keys) all() []string {
	return []string{k.Access, k.Refresh, k.User}
}

func (k Keys) validate() bool {
	if k.Access == "" || k.Refresh == "" || k.User == "" {
		return false
	}
	return k.Access != k.Refresh && k.Access != k.User && k.Refresh != k.User
}
