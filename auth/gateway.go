package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-session-client/api"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/internal/utils"
	"github.com/jrsteele09/go-session-client/navigation"
	"github.com/jrsteele09/go-session-client/sessions"
	"github.com/jrsteele09/go-session-client/token/refresh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultLogoutTimeout = 10 * time.Second

// APIClient is the wire side of login and logout.
type APIClient interface {
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

// Scheduler keeps the access token fresh while a session exists.
type Scheduler interface {
	Start(refreshToken string) error
	Stop()
}

type failureHooker interface {
	SetFailureHandler(h refresh.FailureHandler)
}

// Gateway owns the session lifecycle: login, logout, and resuming a
// persisted session.
type Gateway struct {
	client         APIClient
	sessions       *sessions.Store
	scheduler      Scheduler
	router         *navigation.Router
	refreshEnabled bool
	logoutTimeout  time.Duration
}

// GatewayOption defines a function type to modify the Gateway instance.
type GatewayOption func(*Gateway)

// WithRefreshEnabled turns the background token refresh on or off.
func WithRefreshEnabled(enabled bool) GatewayOption {
	return func(g *Gateway) {
		g.refreshEnabled = enabled
	}
}

// WithLogoutTimeout bounds the logout notification.
func WithLogoutTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.logoutTimeout = d
		}
	}
}

// NewGateway creates a gateway. When the scheduler accepts a failure handler
// it is wired to force a logout.
func NewGateway(
	client APIClient,
	store *sessions.Store,
	scheduler Scheduler,
	router *navigation.Router,
	options ...GatewayOption,
) (*Gateway, error) {
	if client == nil {
		return nil, errors.New("[NewGateway] API client is required")
	}
	if store == nil {
		return nil, errors.New("[NewGateway] session store is required")
	}
	if scheduler == nil {
		return nil, errors.New("[NewGateway] scheduler is required")
	}
	if router == nil {
		return nil, errors.New("[NewGateway] router is required")
	}

	g := &Gateway{
		client:         client,
		sessions:       store,
		scheduler:      scheduler,
		router:         router,
		refreshEnabled: true,
		logoutTimeout:  defaultLogoutTimeout,
	}
	for _, opt := range options {
		opt(g)
	}

	if hooker, ok := scheduler.(failureHooker); ok {
		hooker.SetFailureHandler(g.HandleRefreshFailure)
	}
	return g, nil
}

// Login exchanges credentials for a session, persists it, starts the refresh
// timer and navigates to the user's landing page. On any failure the stored
// session is left as it was and the error matches errors.ErrLoginFailed.
func (g *Gateway) Login(ctx context.Context, username, password string) (*sessions.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperrors.NewMessageError(apperrors.ErrLoginFailed, MissingCredentialsMessage, nil)
	}

	resp, err := g.client.Login(ctx, username, password)
	if err != nil {
		log.Err(err).Str("username", username).Msg("Login failed")
		if !apperrors.Is(err, apperrors.ErrLoginFailed) {
			err = apperrors.NewMessageError(apperrors.ErrLoginFailed, LoginFailedMessage, err)
		}
		return nil, err
	}

	if resp == nil || utils.Value(resp.Access) == "" || utils.Value(resp.Refresh) == "" || resp.User == nil {
		log.Error().Str("username", username).Msg("Login response is missing access, refresh or user")
		return nil, apperrors.NewMessageError(apperrors.ErrLoginFailed, InvalidResponseMessage, nil)
	}

	sess := &sessions.Session{
		AccessToken:  *resp.Access,
		RefreshToken: *resp.Refresh,
		User:         *resp.User,
	}
	if err := g.sessions.Save(ctx, sess.AccessToken, sess.RefreshToken, sess.User); err != nil {
		log.Err(err).Str("username", username).Msg("Failed to store session")
		message := LoginFailedMessage
		if apperrors.Is(err, apperrors.ErrInvalidSessionData) {
			message = InvalidResponseMessage
		}
		return nil, apperrors.NewMessageError(apperrors.ErrLoginFailed, message, errors.Wrap(err, "[Gateway.Login] sessions.Save"))
	}

	if g.refreshEnabled {
		if err := g.scheduler.Start(sess.RefreshToken); err != nil {
			log.Err(err).Msg("Failed to start token refresh")
		}
	}

	log.Info().Str("username", sess.User.Username).Str("role", sess.User.Role.String()).Msg("Logged in")
	g.router.Redirect(ctx, sess.User.Role)
	return sess, nil
}

// Logout ends the session. The server is told first on a best-effort basis;
// whatever happens there, the scheduler is stopped, the session cleared and
// the user sent to the entry page.
func (g *Gateway) Logout(ctx context.Context) {
	cleanupCtx := context.WithoutCancel(ctx)
	defer func() {
		g.scheduler.Stop()
		if err := g.sessions.Clear(cleanupCtx); err != nil {
			log.Err(err).Msg("Failed to clear session")
		}
		log.Info().Msg("Logged out")
		g.router.ToEntry(cleanupCtx)
	}()

	sess, err := g.sessions.Current(ctx)
	if err != nil {
		log.Err(err).Msg("Session lookup failed during logout")
		return
	}
	if sess == nil {
		return
	}
	g.notifyLogout(ctx, sess)
}

func (g *Gateway) notifyLogout(ctx context.Context, sess *sessions.Session) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Err(apperrors.ErrLogoutNotifyFailed).Interface("panic", r).Msg("Logout notification panicked")
		}
	}()

	notifyCtx, cancel := context.WithTimeout(ctx, g.logoutTimeout)
	defer cancel()

	if err := g.client.Logout(notifyCtx, sess.AccessToken, sess.RefreshToken); err != nil {
		log.Err(errors.Wrap(err, "[Gateway.Logout] "+apperrors.ErrLogoutNotifyFailed.Error())).
			Str("username", sess.User.Username).
			Msg("Server logout failed, clearing local session anyway")
	}
}

// Resume restarts background refresh for a session persisted by an earlier
// run. It returns nil when there is no session.
func (g *Gateway) Resume(ctx context.Context) (*sessions.Session, error) {
	sess, err := g.sessions.Current(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Gateway.Resume] sessions.Current")
	}
	if sess == nil {
		return nil, nil
	}

	if g.refreshEnabled {
		if err := g.scheduler.Start(sess.RefreshToken); err != nil {
			return nil, errors.Wrap(err, "[Gateway.Resume] scheduler.Start")
		}
	}
	log.Info().Str("username", sess.User.Username).Str("role", sess.User.Role.String()).Msg("Session resumed")
	return sess, nil
}

// HandleRefreshFailure is the scheduler's failure hook: a refresh that fails
// ends the session.
func (g *Gateway) HandleRefreshFailure(ctx context.Context, err error) {
	log.Warn().Err(err).Msg("Token refresh failed, logging out")
	g.Logout(ctx)
}
