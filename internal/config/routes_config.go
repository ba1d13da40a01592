package config

import "strings"

type RoutesConfig interface {
	GetRoleRoutes() map[string]string
	GetDefaultRoute() string
	GetEntryRoute() string
}

// Routes maps role names to landing pages. DefaultRoute falls back to the
// PARENT page, the least privileged landing page.
type Routes struct {
	RoleRoutes   map[string]string `env:"ROLE_ROUTES"   envDefault:"PARENT=/pages/parent.html,TEACHER=/pages/teacher.html,SPECIALIST=/pages/specialist.html,ADMIN=/pages/admin.html" envKeyValSeparator:"="`
	DefaultRoute string            `env:"DEFAULT_ROUTE"`
	EntryRoute   string            `env:"ENTRY_ROUTE"   envDefault:"/index.html"`
}

var _ RoutesConfig = Routes{}

func (r *Routes) sanitize() {
	normalised := make(map[string]string, len(r.RoleRoutes))
	for role, route := range r.RoleRoutes {
		normalised[strings.ToUpper(strings.TrimSpace(role))] = strings.TrimSpace(route)
	}
	r.RoleRoutes = normalised
	if r.DefaultRoute == "" {
		r.DefaultRoute = r.RoleRoutes["PARENT"]
	}
	if r.EntryRoute == "" {
		r.EntryRoute = "/index.html"
	}
}

func (r Routes) GetRoleRoutes() map[string]string {
	routes := make(map[string]string, len(r.RoleRoutes))
	for k, v := range r.RoleRoutes {
		routes[k] = v
	}
	return routes
}

func (r Routes) GetDefaultRoute() string {
	return r.DefaultRoute
}

func (r Routes) GetEntryRoute() string {
	return r.EntryRoute
}
