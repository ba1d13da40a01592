package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/rs/zerolog/log"
)

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// APIResourceHandler fetches a named API resource with the session's access
// token and relays the JSON.
func (s *Server) APIResourceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		name := r.PathValue("resource")

		if !s.deps.Sessions.IsAuthenticated(ctx) {
			writeJSONError(w, http.StatusUnauthorized, "Not signed in")
			return
		}

		body, err := s.deps.Resources.Resource(ctx, s.deps.Sessions.TokenSource(ctx), name)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				writeJSONError(w, http.StatusNotFound, "Unknown resource")
				return
			}
			log.Err(err).Str("resource", name).Msg("API resource fetch failed")
			writeJSONError(w, http.StatusBadGateway, "Upstream request failed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(body); err != nil {
			log.Err(err).Str("resource", name).Msg("Failed to write API response")
		}
	}
}
