package sessions

import (
	"context"

	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/token/jwt"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*storeTokenSource)(nil)

type storeTokenSource struct {
	ctx   context.Context
	store *Store
}

// TokenSource exposes the stored access token to oauth2 clients. Each call
// reads the store, so a refreshed token is picked up by the next request.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, store: s}
}

func (ts *storeTokenSource) Token() (*oauth2.Token, error) {
	sess, err := ts.store.Current(ts.ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errors.ErrSessionNotFound
	}

	token := &oauth2.Token{
		AccessToken: sess.AccessToken,
		TokenType:   "Bearer",
	}
	// Opaque tokens simply carry no expiry
	if exp, err := jwt.ExpiresAt(sess.AccessToken); err == nil {
		token.Expiry = exp
	}
	return token, nil
}
