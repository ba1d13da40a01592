package navigation

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/rs/zerolog/log"
)

// Routes holds the landing page per role, the fallback page, and the entry
// (login) page.
type Routes struct {
	ByRole  map[users.RoleType]string
	Default string
	Entry   string
}

// DefaultRoutes returns the web client's page layout.
func DefaultRoutes() Routes {
	return Routes{
		ByRole: map[users.RoleType]string{
			users.RoleParent:     "/pages/parent.html",
			users.RoleTeacher:    "/pages/teacher.html",
			users.RoleSpecialist: "/pages/specialist.html",
			users.RoleAdmin:      "/pages/admin.html",
		},
		Default: "/pages/parent.html",
		Entry:   "/index.html",
	}
}

// RoutesFromConfig builds Routes from configuration. Entries for roles that do
// not exist are ignored.
func RoutesFromConfig(cfg config.RoutesConfig) Routes {
	routes := Routes{
		ByRole:  make(map[users.RoleType]string),
		Default: cfg.GetDefaultRoute(),
		Entry:   cfg.GetEntryRoute(),
	}
	for name, route := range cfg.GetRoleRoutes() {
		role, err := users.ParseRole(name)
		if err != nil {
			log.Warn().Str("role", name).Msg("Ignoring route for unknown role")
			continue
		}
		routes.ByRole[role] = route
	}
	return routes
}

// Router decides where each role lands and performs the navigation.
type Router struct {
	routes    Routes
	navigator Navigator
	alerter   Alerter
}

// RouterOption defines a function type to modify the Router instance.
type RouterOption func(*Router)

// WithDefaultNavigator sets the navigator used when the context carries none.
func WithDefaultNavigator(n Navigator) RouterOption {
	return func(r *Router) {
		if n != nil {
			r.navigator = n
		}
	}
}

// WithDefaultAlerter sets the alerter used when the context carries none.
func WithDefaultAlerter(a Alerter) RouterOption {
	return func(r *Router) {
		if a != nil {
			r.alerter = a
		}
	}
}

// NewRouter creates a router over routes.
func NewRouter(routes Routes, options ...RouterOption) (*Router, error) {
	if routes.Entry == "" {
		return nil, fmt.Errorf("[NewRouter] entry route is required")
	}
	if routes.Default == "" {
		return nil, fmt.Errorf("[NewRouter] default route is required")
	}

	byRole := make(map[users.RoleType]string, len(routes.ByRole))
	for role, route := range routes.ByRole {
		byRole[role] = route
	}
	routes.ByRole = byRole

	r := &Router{
		routes:    routes,
		navigator: LogNavigator{},
		alerter:   WriterAlerter{},
	}
	for _, option := range options {
		option(r)
	}
	return r, nil
}

// Routes returns a copy of the router's configuration.
func (r *Router) Routes() Routes {
	byRole := make(map[users.RoleType]string, len(r.routes.ByRole))
	for role, route := range r.routes.ByRole {
		byRole[role] = route
	}
	return Routes{ByRole: byRole, Default: r.routes.Default, Entry: r.routes.Entry}
}

// DestinationFor returns the landing page for role. Roles without a page, and
// any value outside the known set, get the default page.
func (r *Router) DestinationFor(role users.RoleType) string {
	switch role {
	case users.RoleParent, users.RoleTeacher, users.RoleSpecialist, users.RoleAdmin:
		if route := r.routes.ByRole[role]; route != "" {
			return route
		}
		return r.routes.Default
	default:
		return r.routes.Default
	}
}

// EntryRoute is the login page.
func (r *Router) EntryRoute() string {
	return r.routes.Entry
}

// Redirect navigates to role's landing page.
func (r *Router) Redirect(ctx context.Context, role users.RoleType) {
	route := r.DestinationFor(role)
	log.Debug().Str("role", role.String()).Str("route", route).Msg("Redirecting to role destination")
	navigatorFrom(ctx, r.navigator).Navigate(ctx, route)
}

// ToEntry navigates to the login page.
func (r *Router) ToEntry(ctx context.Context) {
	navigatorFrom(ctx, r.navigator).Navigate(ctx, r.routes.Entry)
}

// Alert shows message through the context's alerter or the default one.
func (r *Router) Alert(ctx context.Context, message string) {
	alerterFrom(ctx, r.alerter).Alert(ctx, message)
}
