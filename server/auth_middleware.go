package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-client/users"
)

// RequireRole is middleware for pages reserved to one role. A denied request
// is redirected where the gate navigates, with the denial message attached.
func (s *Server) RequireRole(role users.RoleType) func(http.HandlerFunc) http.HandlerFunc {
	return s.gated(func(r *http.Request) bool {
		return s.deps.Gate.RequireRole(r.Context(), role)
	})
}

// RequireAnyRole is middleware for pages shared by several roles.
func (s *Server) RequireAnyRole(roles ...users.RoleType) func(http.HandlerFunc) http.HandlerFunc {
	return s.gated(func(r *http.Request) bool {
		return s.deps.Gate.RequireAnyRole(r.Context(), roles...)
	})
}

func (s *Server) gated(allow func(*http.Request) bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			gr, recorder := withRedirectRecorder(r)
			if !allow(gr) {
				recorder.respond(w, gr, s.deps.Router.EntryRoute())
				return
			}
			next(w, r)
		}
	}
}
