package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/rs/zerolog/log"
)

// Store reads and writes the session through a storage.Repo.
type Store struct {
	repo storage.Repo
	keys Keys
	lock sync.Mutex
}

// NewStore creates a session store over repo using keys for the three slots.
func NewStore(repo storage.Repo, keys Keys) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("[sessions.NewStore] repo is required")
	}
	if !keys.validate() {
		return nil, fmt.Errorf("[sessions.NewStore] three distinct non-empty keys are required")
	}
	return &Store{repo: repo, keys: keys}, nil
}

// Save persists a complete session. Nothing is written unless all three parts
// are well-formed.
func (s *Store) Save(ctx context.Context, accessToken, refreshToken string, user users.User) error {
	if strings.TrimSpace(accessToken) == "" {
		return fmt.Errorf("%w: access token is required", errors.ErrInvalidSessionData)
	}
	if strings.TrimSpace(refreshToken) == "" {
		return fmt.Errorf("%w: refresh token is required", errors.ErrInvalidSessionData)
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidSessionData, err.Error())
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%w: encode user: %s", errors.ErrInvalidSessionData, err.Error())
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	entries := map[string]string{
		s.keys.Access:  accessToken,
		s.keys.Refresh: refreshToken,
		s.keys.User:    string(userJSON),
	}

	if batch, ok := s.repo.(storage.BatchRepo); ok {
		if err := batch.SetAll(ctx, entries); err != nil {
			return fmt.Errorf("[sessions.Store.Save] SetAll: %w", err)
		}
		return nil
	}

	// User goes last: a reader that races the writes sees no profile and
	// treats the slots as absent.
	for _, key := range s.keys.all() {
		if err := s.repo.Set(ctx, key, entries[key]); err != nil {
			if clearErr := s.clear(ctx); clearErr != nil {
				log.Err(clearErr).Msg("Failed to roll back partial session write")
			}
			return fmt.Errorf("[sessions.Store.Save] Set %s: %w", key, err)
		}
	}
	return nil
}

// Clear removes all three slots. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.clear(ctx)
}

func (s *Store) clear(ctx context.Context) error {
	if batch, ok := s.repo.(storage.BatchRepo); ok {
		if err := batch.RemoveAll(ctx, s.keys.all()...); err != nil {
			return fmt.Errorf("[sessions.Store.Clear] RemoveAll: %w", err)
		}
		return nil
	}

	var errs []error
	for _, key := range s.keys.all() {
		if err := s.repo.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("[sessions.Store.Clear] %w", errors.Join(errs...))
	}
	return nil
}

// Current rebuilds the session from storage. It returns nil when there is no
// complete session; partial remnants are removed so they cannot be mistaken
// for a session later.
func (s *Store) Current(ctx context.Context) (*Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current(ctx)
}

func (s *Store) current(ctx context.Context) (*Session, error) {
	values := make(map[string]string, 3)
	for _, key := range s.keys.all() {
		value, err := s.repo.Get(ctx, key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("[sessions.Store.Current] Get %s: %w", key, err)
		}
		values[key] = value
	}

	access, refresh, rawUser := values[s.keys.Access], values[s.keys.Refresh], values[s.keys.User]
	if access == "" && refresh == "" && rawUser == "" {
		return nil, nil
	}

	var reason string
	var user users.User
	switch {
	case access == "" || refresh == "" || rawUser == "":
		reason = "missing session field"
	default:
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			reason = "unparseable user profile"
		} else if err := user.Validate(); err != nil {
			reason = "invalid user profile: " + err.Error()
		}
	}

	if reason != "" {
		log.Warn().Str("reason", reason).Msg("Discarding partial session")
		if err := s.clear(ctx); err != nil {
			log.Err(err).Msg("Failed to discard partial session")
		}
		return nil, nil
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

// IsAuthenticated reports whether a complete session is stored.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	sess, err := s.Current(ctx)
	if err != nil {
		log.Err(err).Msg("Session lookup failed")
		return false
	}
	return sess != nil
}

// HasRole reports whether the session user holds role. False when unauthenticated.
func (s *Store) HasRole(ctx context.Context, role users.RoleType) bool {
	return s.HasAnyRole(ctx, role)
}

// HasAnyRole reports whether the session user holds one of roles.
func (s *Store) HasAnyRole(ctx context.Context, roles ...users.RoleType) bool {
	sess, err := s.Current(ctx)
	if err != nil {
		log.Err(err).Msg("Session lookup failed")
		return false
	}
	if sess == nil {
		return false
	}
	return sess.User.HasAnyRole(roles...)
}

// AccessToken returns the stored access token, or ErrSessionNotFound.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", errors.ErrSessionNotFound
	}
	return sess.AccessToken, nil
}

// RefreshToken returns the stored refresh token, or ErrSessionNotFound.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", errors.ErrSessionNotFound
	}
	return sess.RefreshToken, nil
}

// UpdateAccessToken replaces the access token of the session that was issued
// refreshToken. If that session is gone (logged out, or replaced by a new
// login) nothing is written and ErrSessionNotFound is returned.
func (s *Store) UpdateAccessToken(ctx context.Context, refreshToken, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return fmt.Errorf("%w: access token is required", errors.ErrInvalidSessionData)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	sess, err := s.current(ctx)
	if err != nil {
		return err
	}
	if sess == nil || sess.RefreshToken != refreshToken {
		return errors.ErrSessionNotFound
	}

	if err := s.repo.Set(ctx, s.keys.Access, accessToken); err != nil {
		return fmt.Errorf("[sessions.Store.UpdateAccessToken] Set: %w", err)
	}
	return nil
}
