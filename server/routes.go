package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-client/users"
)

func (s *Server) initRoutes() {
	// ENTRY
	s.RegisterRouteHandler("GET "+RouteRoot+"{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// LOGIN / LOGOUT
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Role pages
	s.RegisterRouteHandler("GET "+RouteParentPage, ChainMiddleware(s.RolePageHandler("Parent"), s.HTMLMiddleWare(s.RequireRole(users.RoleParent))...))
	s.RegisterRouteHandler("GET "+RouteTeacherPage, ChainMiddleware(s.RolePageHandler("Teacher"), s.HTMLMiddleWare(s.RequireRole(users.RoleTeacher))...))
	s.RegisterRouteHandler("GET "+RouteSpecialistPage, ChainMiddleware(s.RolePageHandler("Specialist"), s.HTMLMiddleWare(s.RequireRole(users.RoleSpecialist))...))
	s.RegisterRouteHandler("GET "+RouteAdminPage, ChainMiddleware(s.RolePageHandler("Admin"), s.HTMLMiddleWare(s.RequireRole(users.RoleAdmin))...))
	s.RegisterRouteHandler("GET "+RouteStaffPage, ChainMiddleware(s.RolePageHandler("Staff"), s.HTMLMiddleWare(s.RequireAnyRole(users.RoleTeacher, users.RoleSpecialist, users.RoleAdmin))...))

	// API proxy
	s.RegisterRouteHandler("GET "+RouteAPIResource, ChainMiddleware(s.APIResourceHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
