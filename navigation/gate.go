package navigation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-session-client/internal/utils"
	"github.com/jrsteele09/go-session-client/sessions"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/rs/zerolog/log"
)

// SessionReader is the part of the session store the gate needs.
type SessionReader interface {
	Current(ctx context.Context) (*sessions.Session, error)
}

// Decision is the outcome of a role check. When Allowed is false, Route is
// where the user should be sent and Message (if any) what they should be told.
type Decision struct {
	Allowed       bool
	Authenticated bool
	Role          users.RoleType
	Route         string
	Message       string
}

// Gate guards protected views by role.
type Gate struct {
	sessions SessionReader
	router   *Router
}

// NewGate creates a gate reading sessions and navigating through router.
func NewGate(sessionReader SessionReader, router *Router) (*Gate, error) {
	if sessionReader == nil {
		return nil, fmt.Errorf("[NewGate] session reader is required")
	}
	if router == nil {
		return nil, fmt.Errorf("[NewGate] router is required")
	}
	return &Gate{sessions: sessionReader, router: router}, nil
}

// RoleDeniedMessage is the alert for a page restricted to one role.
func RoleDeniedMessage(role users.RoleType) string {
	return fmt.Sprintf("Access denied. This page is for %ss only.", role)
}

// AnyRoleDeniedMessage is the alert for a page open to several roles.
func AnyRoleDeniedMessage(roles ...users.RoleType) string {
	return fmt.Sprintf("Access denied. This page is for %s only.", strings.Join(utils.ToStringSlice(roles), ", "))
}

// Check decides access for roles without any side effect.
func (g *Gate) Check(ctx context.Context, roles ...users.RoleType) Decision {
	return g.check(ctx, roles, AnyRoleDeniedMessage(roles...))
}

func (g *Gate) check(ctx context.Context, roles []users.RoleType, deniedMessage string) Decision {
	sess, err := g.sessions.Current(ctx)
	if err != nil {
		log.Err(err).Msg("Session lookup failed, treating as unauthenticated")
	}
	if err != nil || sess == nil {
		return Decision{Route: g.router.EntryRoute()}
	}

	decision := Decision{Authenticated: true, Role: sess.User.Role}
	if sess.User.HasAnyRole(roles...) {
		decision.Allowed = true
		return decision
	}
	decision.Route = g.router.DestinationFor(sess.User.Role)
	decision.Message = deniedMessage
	return decision
}

// RequireRole allows only role. On denial the user is alerted (if logged in)
// and sent to their own landing page, or to the entry page when logged out.
func (g *Gate) RequireRole(ctx context.Context, role users.RoleType) bool {
	return g.enforce(ctx, g.check(ctx, []users.RoleType{role}, RoleDeniedMessage(role)))
}

// RequireAnyRole allows any of roles, with the same denial behaviour as
// RequireRole.
func (g *Gate) RequireAnyRole(ctx context.Context, roles ...users.RoleType) bool {
	return g.enforce(ctx, g.Check(ctx, roles...))
}

func (g *Gate) enforce(ctx context.Context, d Decision) bool {
	if d.Allowed {
		return true
	}
	if d.Message != "" {
		log.Warn().Str("role", d.Role.String()).Str("route", d.Route).Msg("Role gate denied access")
		g.router.Alert(ctx, d.Message)
	}
	navigatorFrom(ctx, g.router.navigator).Navigate(ctx, d.Route)
	return false
}
