package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-session-client/internal/utils"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("token has no exp claim")

// TokenIntrospection is what the client can read from an access token without
// the signing key. Nothing here is verified; it is for display and scheduling
// hints only, never for trust decisions.
type TokenIntrospection struct {
	Active    bool    `json:"active"`               // exp is still in the future by the local clock
	Exp       *int64  `json:"exp,omitempty"`        // Expiration
	Iat       *int64  `json:"iat,omitempty"`        // Issued at time
	Sub       *string `json:"sub,omitempty"`        // Subject, when present
	UserID    *string `json:"user_id,omitempty"`    // user_id claim issued by the API
	Jti       string  `json:"jti,omitempty"`        // Unique token ID
	TokenType string  `json:"token_type,omitempty"` // "access" or "refresh"
}

// Introspect decodes rawToken's claims without verifying its signature.
func Introspect(rawToken string) (*TokenIntrospection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return &TokenIntrospection{Active: false}, errors.New("empty token")
	}

	unverifiedToken, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return &TokenIntrospection{Active: false}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := unverifiedToken.Claims.(jwtlib.MapClaims)
	if !ok {
		return &TokenIntrospection{Active: false}, errors.New("error extracting claims")
	}

	ti := &TokenIntrospection{}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ti.Exp = utils.Ptr(exp.Unix())
		ti.Active = NowTimeFunc().Before(exp.Time)
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		ti.Iat = utils.Ptr(iat.Unix())
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		ti.Sub = utils.Ptr(sub)
	}
	// user_id may be numeric or a string depending on the API's user model
	switch v := claims["user_id"].(type) {
	case string:
		ti.UserID = utils.Ptr(v)
	case float64:
		ti.UserID = utils.Ptr(fmt.Sprintf("%.0f", v))
	}
	ti.Jti, _ = claims["jti"].(string)
	ti.TokenType, _ = claims["token_type"].(string)

	return ti, nil
}

// ExpiresAt returns the exp claim of rawToken without verifying it.
func ExpiresAt(rawToken string) (time.Time, error) {
	ti, err := Introspect(rawToken)
	if err != nil {
		return time.Time{}, err
	}
	if ti.Exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return time.Unix(utils.Value(ti.Exp), 0), nil
}
