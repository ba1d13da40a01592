package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-client/auth"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// LoginSubmissionHandler handles the login form POST.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := s.deps.Router.EntryRoute()

		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, entry, "Invalid form data")
			return
		}

		r, recorder := withRedirectRecorder(r)
		if _, err := s.deps.Gateway.Login(r.Context(), r.FormValue("username"), r.FormValue("password")); err != nil {
			message := auth.LoginFailedMessage
			var msgErr *errors.MessageError
			if errors.As(err, &msgErr) && msgErr.Message != "" {
				message = msgErr.Message
			}
			redirectWithError(w, r, entry, message)
			return
		}

		recorder.respond(w, r, entry)
	}
}

// LogoutHandler ends the session and returns to the entry page. It never
// fails from the user's point of view.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r, recorder := withRedirectRecorder(r)
		s.deps.Gateway.Logout(r.Context())
		log.Debug().Msg("Logout: redirecting to entry")
		recorder.respond(w, r, s.deps.Router.EntryRoute())
	}
}
