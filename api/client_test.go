package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/internal/config"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type recordedRequest struct {
	method        string
	path          string
	contentType   string
	authorization string
	requestID     string
	body          map[string]string
}

type testFixture struct {
	server   *httptest.Server
	client   *api.Client
	lock     sync.Mutex
	requests []recordedRequest
}

func setupTestFixture(t *testing.T, handler http.HandlerFunc) *testFixture {
	t.Helper()

	f := &testFixture{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method:        r.Method,
			path:          r.URL.Path,
			contentType:   r.Header.Get("Content-Type"),
			authorization: r.Header.Get("Authorization"),
			requestID:     r.Header.Get(api.RequestIDHeader),
		}
		if r.Body != nil && r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		f.lock.Lock()
		f.requests = append(f.requests, rec)
		f.lock.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)

	cfg := config.API{
		BaseURL:        f.server.URL + "/api",
		LoginPath:      "/auth/login/",
		LogoutPath:     "/auth/logout/",
		RefreshURL:     f.server.URL + "/api/token/refresh/",
		RequestTimeout: time.Second,
		Resources:      map[string]string{"children": "/children/"},
	}
	client, err := api.NewClient(cfg)
	require.NoError(t, err)
	f.client = client
	return f
}

func (f *testFixture) lastRequest(t *testing.T) recordedRequest {
	t.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func messageOf(t *testing.T, err error) string {
	t.Helper()
	var msgErr *apperrors.MessageError
	require.ErrorAs(t, err, &msgErr)
	return msgErr.Message
}

func TestNewClient(t *testing.T) {
	_, err := api.NewClient(nil)
	require.Error(t, err)
	_, err = api.NewClient(config.API{})
	require.Error(t, err)
}

func TestClient_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"access":"a1","refresh":"r1","user":{"username":"pat","role":"PARENT","id":7}}`)
		})

		resp, err := f.client.Login(ctx, "pat", "secret")
		require.NoError(t, err)
		require.Equal(t, "a1", *resp.Access)
		require.Equal(t, "r1", *resp.Refresh)
		require.Equal(t, "pat", resp.User.Username)
		require.Equal(t, users.RoleParent, resp.User.Role)
		require.JSONEq(t, `7`, string(resp.User.Extra["id"]))

		req := f.lastRequest(t)
		require.Equal(t, http.MethodPost, req.method)
		require.Equal(t, "/api/auth/login/", req.path)
		require.Equal(t, "application/json", req.contentType)
		require.Equal(t, map[string]string{"username": "pat", "password": "secret"}, req.body)
		_, err = uuid.Parse(req.requestID)
		require.NoError(t, err)
	})

	t.Run("server error message", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"error":"Invalid credentials"}`)
		})

		_, err := f.client.Login(ctx, "pat", "wrong")
		require.ErrorIs(t, err, apperrors.ErrLoginFailed)
		require.Equal(t, "Invalid credentials", messageOf(t, err))
	})

	t.Run("detail message", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"detail":"Account disabled"}`)
		})

		_, err := f.client.Login(ctx, "pat", "secret")
		require.Equal(t, "Account disabled", messageOf(t, err))
	})

	t.Run("no message", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("<html>oops</html>"))
		})

		_, err := f.client.Login(ctx, "pat", "secret")
		require.ErrorIs(t, err, apperrors.ErrLoginFailed)
		require.Equal(t, api.LoginFailedMessage, messageOf(t, err))
	})

	t.Run("malformed success body", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `not json`)
		})

		_, err := f.client.Login(ctx, "pat", "secret")
		require.ErrorIs(t, err, apperrors.ErrLoginFailed)
		require.Equal(t, api.InvalidLoginResponseMessage, messageOf(t, err))
	})

	t.Run("network fault", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})
		f.server.Close()

		_, err := f.client.Login(ctx, "pat", "secret")
		require.ErrorIs(t, err, apperrors.ErrLoginFailed)
		require.Equal(t, api.LoginFailedMessage, messageOf(t, err))
	})
}

func TestClient_Logout(t *testing.T) {
	ctx := context.Background()

	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, f.client.Logout(ctx, "a1", "r1"))

	req := f.lastRequest(t)
	require.Equal(t, "/api/auth/logout/", req.path)
	require.Equal(t, "Bearer a1", req.authorization)
	require.Equal(t, map[string]string{"refresh": "r1"}, req.body)

	failing := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	require.Error(t, failing.client.Logout(ctx, "a1", "r1"))
}

func TestClient_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"access":"a2"}`)
		})

		access, err := f.client.Refresh(ctx, "r1")
		require.NoError(t, err)
		require.Equal(t, "a2", access)

		req := f.lastRequest(t)
		require.Equal(t, "/api/token/refresh/", req.path)
		require.Empty(t, req.authorization)
		require.Equal(t, map[string]string{"refresh": "r1"}, req.body)
	})

	failures := map[string]http.HandlerFunc{
		"unauthorised": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Token is invalid or expired"}`)
		},
		"empty access": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"access":""}`)
		},
		"bad body": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{`)
		},
	}
	for name, handler := range failures {
		t.Run(name, func(t *testing.T) {
			f := setupTestFixture(t, handler)
			_, err := f.client.Refresh(ctx, "r1")
			require.Error(t, err)
		})
	}
}

func TestClient_Resource(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a1" {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"no"}`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"id":1,"name":"Sam"}]`)
	})

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "a1", TokenType: "Bearer"})
	body, err := f.client.Resource(ctx, ts, "children")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":1,"name":"Sam"}]`, string(body))

	req := f.lastRequest(t)
	require.Equal(t, http.MethodGet, req.method)
	require.Equal(t, "/api/children/", req.path)
	require.NotEmpty(t, req.requestID)

	_, err = f.client.Resource(ctx, ts, "grades")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	bad := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "expired", TokenType: "Bearer"})
	_, err = f.client.Resource(ctx, bad, "children")
	require.Error(t, err)

	require.Equal(t, []string{"children"}, f.client.Resources())
}
