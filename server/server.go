package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-client/auth"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/navigation"
	"github.com/jrsteele09/go-session-client/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// ResourceFetcher loads protected API resources on behalf of the session.
type ResourceFetcher interface {
	Resource(ctx context.Context, ts oauth2.TokenSource, name string) (json.RawMessage, error)
	Resources() []string
}

// Deps are the session components the dashboard drives. The dashboard is a
// single-user stand-in for the browser client: every request sees the one
// stored session.
type Deps struct {
	Gateway   *auth.Gateway
	Sessions  *sessions.Store
	Router    *navigation.Router
	Gate      *navigation.Gate
	Resources ResourceFetcher
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	appName string
	mux     *http.ServeMux
	routes  []string
	deps    Deps
}

func New(cfg config.EnvConfig, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}
	if deps.Gateway == nil || deps.Sessions == nil || deps.Router == nil || deps.Gate == nil || deps.Resources == nil {
		return nil, fmt.Errorf("[Server New] gateway, sessions, router, gate and resources are required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		appName: cfg.GetAppName(),
		mux:     http.NewServeMux(),
		deps:    deps,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func logError(method, path, message string) {
	log.Error().Msgf("[%-19s] %s %s", colouredMethod(method), path, Red+message+ResetColor)
}
