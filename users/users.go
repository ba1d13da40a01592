package users

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RoleType represents the single role a user holds for the lifetime of a session
type RoleType string

const (
	RoleParent     RoleType = "PARENT"     // Guardian access to their own children
	RoleTeacher    RoleType = "TEACHER"    // Classroom staff
	RoleSpecialist RoleType = "SPECIALIST" // Assessment and IEP specialists
	RoleAdmin      RoleType = "ADMIN"      // School administrators
)

// Roles lists every recognised role
var Roles = []RoleType{RoleParent, RoleTeacher, RoleSpecialist, RoleAdmin}

// Valid reports whether r is one of the recognised roles.
func (r RoleType) Valid() bool {
	switch r {
	case RoleParent, RoleTeacher, RoleSpecialist, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r RoleType) String() string {
	return string(r)
}

// ParseRole normalises s and returns the matching role.
func ParseRole(s string) (RoleType, error) {
	role := RoleType(strings.ToUpper(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("unrecognised role %q", s)
	}
	return role, nil
}

// ParseRoles parses a comma separated role list, e.g. "TEACHER,ADMIN".
func ParseRoles(s string) ([]RoleType, error) {
	var roles []RoleType
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		role, err := ParseRole(part)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("no roles in %q", s)
	}
	return roles, nil
}

// User is the profile returned by the login endpoint. Fields the client does
// not use are kept in Extra so the profile survives a save/load unchanged.
type User struct {
	Username  string   `json:"username"`             // Unique username
	Role      RoleType `json:"role"`                 // Role, fixed until the next login
	Email     string   `json:"email,omitempty"`      // User's email address
	FirstName string   `json:"first_name,omitempty"` // First name of the user
	LastName  string   `json:"last_name,omitempty"`  // Last name of the user

	Extra map[string]json.RawMessage `json:"-"`
}

var knownUserFields = []string{"username", "role", "email", "first_name", "last_name"}

// Validate checks the fields a session depends on.
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("user is required")
	}
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("unrecognised role %q", u.Role)
	}
	return nil
}

func (u *User) HasRole(role RoleType) bool {
	return u != nil && u.Role == role
}

func (u *User) HasAnyRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u User) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(u.Extra)+len(knownUserFields))
	for k, v := range u.Extra {
		fields[k] = v
	}
	fields["username"] = u.Username
	fields["role"] = u.Role
	if u.Email != "" {
		fields["email"] = u.Email
	}
	if u.FirstName != "" {
		fields["first_name"] = u.FirstName
	}
	if u.LastName != "" {
		fields["last_name"] = u.LastName
	}
	return json.Marshal(fields)
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownUserFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}

	*u = User(p)
	return nil
}
