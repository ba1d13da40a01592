package config

import "time"

type SessionConfig interface {
	GetRefreshInterval() time.Duration
	GetRefreshEnabled() bool
	GetAccessTokenKey() string
	GetRefreshTokenKey() string
	GetUserKey() string
}

type Session struct {
	// Refresh ahead of the server's 5 minute access token expiry.
	RefreshInterval time.Duration `env:"TOKEN_REFRESH_INTERVAL" envDefault:"4m"`
	RefreshEnabled  bool          `env:"REFRESH_TOKEN_ENABLED"  envDefault:"true"`
	AccessTokenKey  string        `env:"ACCESS_TOKEN_KEY"       envDefault:"ara_jwt_access"`
	RefreshTokenKey string        `env:"REFRESH_TOKEN_KEY"      envDefault:"ara_jwt_refresh"`
	UserKey         string        `env:"USER_KEY"               envDefault:"ara_current_user"`
}

var _ SessionConfig = Session{}

const DefaultRefreshInterval = 4 * time.Minute

func (s *Session) sanitize() {
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = DefaultRefreshInterval
	}
}

func (s Session) GetRefreshInterval() time.Duration {
	return s.RefreshInterval
}

func (s Session) GetRefreshEnabled() bool {
	return s.RefreshEnabled
}

func (s Session) GetAccessTokenKey() string {
	return s.AccessTokenKey
}

func (s Session) GetRefreshTokenKey() string {
	return s.RefreshTokenKey
}

func (s Session) GetUserKey() string {
	return s.UserKey
}
