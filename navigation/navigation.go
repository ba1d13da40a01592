package navigation

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=mocks/navigation_mock.go github.com/jrsteele09/go-session-client/navigation Navigator,Alerter

// Navigator moves the user to a route. In the dashboard server it issues a
// redirect; in the CLI it reports where the user would land.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(ctx context.Context, message string)
}

// NavigatorFunc adapts a function to a Navigator.
type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) Navigate(ctx context.Context, route string) {
	f(ctx, route)
}

// AlerterFunc adapts a function to an Alerter.
type AlerterFunc func(ctx context.Context, message string)

func (f AlerterFunc) Alert(ctx context.Context, message string) {
	f(ctx, message)
}

// LogNavigator records navigation in the log only.
type LogNavigator struct{}

func (LogNavigator) Navigate(_ context.Context, route string) {
	log.Info().Str("route", route).Msg("Navigate")
}

// WriterAlerter prints alerts on a line of their own.
type WriterAlerter struct {
	W io.Writer
}

func (wa WriterAlerter) Alert(_ context.Context, message string) {
	w := wa.W
	if w == nil {
		w = os.Stderr
	}
	if _, err := fmt.Fprintln(w, message); err != nil {
		log.Err(err).Msg("Failed to write alert")
	}
}

type navigatorKey struct{}
type alerterKey struct{}

// WithNavigator returns a context whose navigation goes to n instead of the
// router's default.
func WithNavigator(ctx context.Context, n Navigator) context.Context {
	return context.WithValue(ctx, navigatorKey{}, n)
}

// WithAlerter returns a context whose alerts go to a instead of the router's
// default.
func WithAlerter(ctx context.Context, a Alerter) context.Context {
	return context.WithValue(ctx, alerterKey{}, a)
}

func navigatorFrom(ctx context.Context, fallback Navigator) Navigator {
	if n, ok := ctx.Value(navigatorKey{}).(Navigator); ok && n != nil {
		return n
	}
	return fallback
}

func alerterFrom(ctx context.Context, fallback Alerter) Alerter {
	if a, ok := ctx.Value(alerterKey{}).(Alerter); ok && a != nil {
		return a
	}
	return fallback
}
