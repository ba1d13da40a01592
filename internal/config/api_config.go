package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetLoginPath() string
	GetLogoutPath() string
	GetRefreshURL() string
	GetResourcePaths() map[string]string
	GetRequestTimeout() time.Duration
}

// API holds the remote endpoints. Paths are joined onto BaseURL; RefreshURL is
// absolute because deployments have pointed it at a different host.
type API struct {
	BaseURL        string            `env:"API_BASE_URL"        envDefault:"http://localhost:8000/api"`
	LoginPath      string            `env:"API_LOGIN_PATH"      envDefault:"/auth/login/"`
	LogoutPath     string            `env:"API_LOGOUT_PATH"     envDefault:"/auth/logout/"`
	RefreshURL     string            `env:"REFRESH_URL"`
	RequestTimeout time.Duration     `env:"API_REQUEST_TIMEOUT" envDefault:"15s"`
	Resources      map[string]string `env:"API_RESOURCES"       envDefault:"children=/children/,iep=/iep/,assessments=/assessments/,progress=/progress/,users=/users/" envKeyValSeparator:"="`
}

var _ APIConfig = API{}

const defaultRefreshPath = "/token/refresh/"

func (a *API) sanitize() {
	a.BaseURL = strings.TrimRight(a.BaseURL, "/")
	if a.RefreshURL == "" {
		a.RefreshURL = a.BaseURL + defaultRefreshPath
	}
	if a.RequestTimeout <= 0 {
		a.RequestTimeout = 15 * time.Second
	}
	if a.Resources == nil {
		a.Resources = map[string]string{}
	}
}

func (a API) GetAPIBaseURL() string {
	return a.BaseURL
}

func (a API) GetLoginPath() string {
	return a.LoginPath
}

func (a API) GetLogoutPath() string {
	return a.LogoutPath
}

func (a API) GetRefreshURL() string {
	return a.RefreshURL
}

func (a API) GetResourcePaths() map[string]string {
	paths := make(map[string]string, len(a.Resources))
	for k, v := range a.Resources {
		paths[k] = v
	}
	return paths
}

func (a API) GetRequestTimeout() time.Duration {
	return a.RequestTimeout
}
