package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-session-client/navigation"
)

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	fullPath := path + "?error=" + url.QueryEscape(errorMsg)

	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", fullPath)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, fullPath, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirectRecorder captures the navigation and alert a session operation
// asks for, so the handler can turn them into one HTTP redirect.
type redirectRecorder struct {
	route   string
	message string
}

func (rr *redirectRecorder) Navigate(_ context.Context, route string) {
	rr.route = route
}

func (rr *redirectRecorder) Alert(_ context.Context, message string) {
	rr.message = message
}

// withRedirectRecorder routes navigation and alerts for r into a recorder.
func withRedirectRecorder(r *http.Request) (*http.Request, *redirectRecorder) {
	rr := &redirectRecorder{}
	ctx := navigation.WithNavigator(r.Context(), rr)
	ctx = navigation.WithAlerter(ctx, rr)
	return r.WithContext(ctx), rr
}

// respond redirects to the recorded route, or fallback when nothing navigated.
// A recorded alert travels as the error query parameter.
func (rr *redirectRecorder) respond(w http.ResponseWriter, r *http.Request, fallback string) {
	route := rr.route
	if route == "" {
		route = fallback
	}
	if rr.message != "" {
		redirectWithError(w, r, route, rr.message)
		return
	}
	redirectSuccess(w, r, route)
}
