package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/internal/utils"
	"golang.org/x/oauth2"
)

const (
	// LoginFailedMessage is shown when the server gives no reason.
	LoginFailedMessage = "Login failed"
	// InvalidLoginResponseMessage is shown when a 2xx login body is not a session.
	InvalidLoginResponseMessage = "Invalid login response from server"

	// RequestIDHeader correlates client log lines with server logs.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 1 << 20
)

// Client talks to the remote API. It holds no session state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	loginPath  string
	logoutPath string
	refreshURL string
	resources  map[string]string
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a client for the endpoints in cfg.
func NewClient(cfg config.APIConfig, options ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[api.NewClient] config is required")
	}
	if cfg.GetAPIBaseURL() == "" {
		return nil, fmt.Errorf("[api.NewClient] API base URL is required")
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.GetRequestTimeout()},
		baseURL:    strings.TrimRight(cfg.GetAPIBaseURL(), "/"),
		loginPath:  cfg.GetLoginPath(),
		logoutPath: cfg.GetLogoutPath(),
		refreshURL: cfg.GetRefreshURL(),
		resources:  cfg.GetResourcePaths(),
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Login exchanges credentials for a session. Every failure matches
// errors.ErrLoginFailed and carries a display message.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	status, body, err := c.postJSON(ctx, c.endpoint(c.loginPath), LoginRequest{Username: username, Password: password}, nil)
	if err != nil {
		return nil, errors.NewMessageError(errors.ErrLoginFailed, LoginFailedMessage, err)
	}

	if !isSuccess(status) {
		message := LoginFailedMessage
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message() != "" {
			message = errResp.Message()
		}
		return nil, errors.NewMessageError(errors.ErrLoginFailed, message, fmt.Errorf("status %d", status))
	}

	var resp LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewMessageError(errors.ErrLoginFailed, InvalidLoginResponseMessage, err)
	}
	return &resp, nil
}

// Logout tells the server to invalidate refreshToken. The caller decides what
// to do with a failure; the local session is not this client's concern.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	bearer := func(req *http.Request) {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	status, _, err := c.postJSON(ctx, c.endpoint(c.logoutPath), RefreshRequest{Refresh: refreshToken}, bearer)
	if err != nil {
		return errors.Wrapf(err, "[Client.Logout]")
	}
	if !isSuccess(status) {
		return fmt.Errorf("[Client.Logout] unexpected status %d", status)
	}
	return nil
}

// Refresh exchanges refreshToken for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	status, body, err := c.postJSON(ctx, c.refreshURL, RefreshRequest{Refresh: refreshToken}, nil)
	if err != nil {
		return "", errors.Wrapf(err, "[Client.Refresh]")
	}
	if !isSuccess(status) {
		return "", fmt.Errorf("[Client.Refresh] unexpected status %d", status)
	}

	var resp RefreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrapf(err, "[Client.Refresh] decode response")
	}
	access := utils.Value(resp.Access)
	if access == "" {
		return "", fmt.Errorf("[Client.Refresh] response has no access token")
	}
	return access, nil
}

// Resources lists the names accepted by Resource.
func (c *Client) Resources() []string {
	names := make([]string, 0, len(c.resources))
	for name := range c.resources {
		names = append(names, name)
	}
	return names
}

// Resource fetches a protected API resource by name, authorising the request
// with tokens from ts.
func (c *Client) Resource(ctx context.Context, ts oauth2.TokenSource, name string) (json.RawMessage, error) {
	path, ok := c.resources[name]
	if !ok {
		return nil, fmt.Errorf("[Client.Resource] %w: resource %q", errors.ErrNotFound, name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.Resource] build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), ts)
	resp, err := authed.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.Resource] %s", name)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.Resource] read body")
	}
	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("[Client.Resource] %s: unexpected status %d", name, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("[Client.Resource] %s: response is not JSON", name)
	}
	return json.RawMessage(body), nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any, decorate func(*http.Request)) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, errors.Wrapf(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if decorate != nil {
		decorate(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, errors.Wrapf(err, "read response")
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
