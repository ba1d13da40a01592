package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access":"access-1","refresh":"refresh-1","user":{"username":"` + req.Username + `","role":"TEACHER","first_name":"Tess"}}`))
	})
	mux.HandleFunc("POST /api/auth/logout/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"access-2"}`))
	})
	mux.HandleFunc("GET /api/children/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1}]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cliResult struct {
	code int
	out  string
	err  string
}

func run(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return cliResult{code: code, out: out.String(), err: errOut.String()}
}

func setupEnv(t *testing.T) {
	t.Helper()
	backend := fakeBackend(t)
	t.Setenv("ENV", "TEST")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("API_BASE_URL", backend.URL+"/api")
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("STORAGE_FILE", filepath.Join(t.TempDir(), "session.json"))
}

func TestExecute_Usage(t *testing.T) {
	setupEnv(t)

	res := run(t, "")
	require.Equal(t, 2, res.code)
	require.Contains(t, res.err, "Available commands")

	res = run(t, "", "frobnicate")
	require.Equal(t, 2, res.code)
	require.Contains(t, res.err, `unknown command "frobnicate"`)

	res = run(t, "", "login")
	require.Equal(t, 2, res.code)
	require.Contains(t, res.err, "-u is required")

	res = run(t, "", "check")
	require.Equal(t, 2, res.code)

	res = run(t, "", "check", "-role", "OWNER")
	require.Equal(t, 2, res.code)

	res = run(t, "", "get")
	require.Equal(t, 2, res.code)

	res = run(t, "", "whoami", "extra")
	require.Equal(t, 2, res.code)
}

func TestExecute_SessionLifecycle(t *testing.T) {
	setupEnv(t)

	res := run(t, "", "whoami")
	require.Equal(t, 1, res.code)

	res = run(t, "wrong\n", "login", "-u", "tess")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.err, "Invalid credentials")

	res = run(t, "", "login", "-u", "tess", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	require.Contains(t, res.out, "-> /pages/teacher.html")
	require.Contains(t, res.out, "Signed in as tess (TEACHER)")

	res = run(t, "", "whoami")
	require.Equal(t, 0, res.code, res.err)
	require.Contains(t, res.out, "TEACHER")
	require.Contains(t, res.out, "Tess")

	res = run(t, "", "check", "-role", "ADMIN")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.err, "Access denied. This page is for ADMINs only.")
	require.Contains(t, res.out, "-> /pages/teacher.html")

	res = run(t, "", "check", "-any", "teacher,admin")
	require.Equal(t, 0, res.code, res.err)
	require.Contains(t, res.out, "Access granted")

	res = run(t, "", "get", "children")
	require.Equal(t, 0, res.code, res.err)
	require.JSONEq(t, `[{"id":1}]`, res.out)

	res = run(t, "", "get", "grades")
	require.Equal(t, 2, res.code)

	res = run(t, "", "refresh")
	require.Equal(t, 0, res.code, res.err)
	require.Contains(t, res.out, "Access token refreshed")

	res = run(t, "", "logout")
	require.Equal(t, 0, res.code, res.err)
	require.Contains(t, res.out, "-> /index.html")

	res = run(t, "", "whoami")
	require.Equal(t, 1, res.code)

	res = run(t, "", "check", "-role", "TEACHER")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.out, "-> /index.html")
}

func TestExecute_RefreshDisabled(t *testing.T) {
	setupEnv(t)
	t.Setenv("REFRESH_TOKEN_ENABLED", "false")

	res := run(t, "", "refresh")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.err, "disabled")
}
