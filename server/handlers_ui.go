package server

import (
	"net/http"
	"sort"

	"github.com/jrsteele09/go-session-client/users"
	"github.com/rs/zerolog/log"
)

type pageData struct {
	AppName   string
	Title     string
	Error     string
	User      *users.User
	Resources []string
}

// IndexHandler renders the login page, or sends a signed-in user to their
// landing page.
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		panic("Failed to parse index template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.deps.Sessions.Current(r.Context())
		if err != nil {
			log.Err(err).Msg("Index: session lookup failed")
		}
		if sess != nil {
			redirectSuccess(w, r, s.deps.Router.DestinationFor(sess.User.Role))
			return
		}

		data := pageData{
			AppName: s.appName,
			Title:   "Sign in",
			Error:   r.URL.Query().Get("error"),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
			log.Err(err).Msg("Index: template execution failed")
		}
	}
}

// RolePageHandler renders a protected page. The role gate runs before it.
func (s *Server) RolePageHandler(title string) http.HandlerFunc {
	tmpl, err := ParseTemplate("page.html")
	if err != nil {
		panic("Failed to parse page template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.deps.Sessions.Current(r.Context())
		if err != nil || sess == nil {
			// Session ended between the gate and the render.
			redirectSuccess(w, r, s.deps.Router.EntryRoute())
			return
		}

		resources := s.deps.Resources.Resources()
		sort.Strings(resources)

		data := pageData{
			AppName:   s.appName,
			Title:     title,
			Error:     r.URL.Query().Get("error"),
			User:      &sess.User,
			Resources: resources,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
			log.Err(err).Str("page", title).Msg("Template execution failed")
		}
	}
}
