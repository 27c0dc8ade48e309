package gateway_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/go-admin-console/apiclient"
	"github.com/jrsteele09/go-admin-console/devbackend"
	"github.com/jrsteele09/go-admin-console/gateway"
	"github.com/jrsteele09/go-admin-console/internal/config"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	config.Config
	baseURL string
}

func (c testConfig) GetAPIBaseURL() string { return c.baseURL }
func (c testConfig) GetEnv() string { return "TEST" }
func (c testConfig) GetLoginRatePerMinute() int { return 1 }
func (c testConfig) GetLoginBurst() int { return 3 }
func (c testConfig) GetAdminEmail() string { return "admin@example.com" }
func (c testConfig) GetAdminPassword() string { return "Admin1234" }
func (c testConfig) GetAllowedOrigins() config.AllowedOrigins {
	return config.AllowedOrigins{"http://console.test": {}}
}

func newGateway(t *testing.T, upstream http.Handler) (*gateway.Gateway, testConfig) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)
	cfg := testConfig{Config: config.New(), baseURL: srv.URL}
	g, err := gateway.New(cfg)
	require.NoError(t, err)
	return g, cfg
}

func newBackendGateway(t *testing.T) *gateway.Gateway {
	t.Helper()
	backend, err := devbackend.New(testConfig{Config: config.New()})
	require.NoError(t, err)
	g, _ := newGateway(t, backend)
	return g
}

func serve(g http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func login(t *testing.T, g http.Handler) (string, *http.Cookie) {
	t.Helper()
	rec := serve(g, postJSON(t, "/api/auth/login", apiclient.LoginRequest{Email: "admin@example.com", Password: "Admin1234"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env apiclient.Envelope[apiclient.AuthResponseData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	for _, c := range rec.Result().Cookies() {
		if c.Name == apiclient.RefreshCookieName {
			return env.Data.AccessToken, c
		}
	}
	t.Fatal("login did not relay the refresh cookie")
	return "", nil
}

func TestForward_AuthFlow(t *testing.T) {
	g := newBackendGateway(t)
	token, cookie := login(t, g)

	t.Run("me", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(g, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "admin@example.com")
	})

	t.Run("generic api path with query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users?search=admin&limit=5", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(g, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var env apiclient.Envelope[[]apiclient.ManagedUser]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.Len(t, env.Data, 1)
		require.NotNil(t, env.Pagination)
		require.Equal(t, 5, env.Pagination.Limit)
	})

	t.Run("refresh relays the rotated cookie", func(t *testing.T) {
		req := postJSON(t, "/api/auth/refresh", struct{}{})
		req.AddCookie(cookie)
		rec := serve(g, req)
		require.Equal(t, http.StatusOK, rec.Code)

		rotated := rec.Result().Cookies()
		require.Len(t, rotated, 1)
		require.NotEqual(t, cookie.Value, rotated[0].Value)
	})

	t.Run("backend errors pass through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		rec := serve(g, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), `"error":true`)
	})
}

func TestForward_SplitsCombinedSetCookie(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "refresh_token=abc; Path=/; Expires=Wed, 21 Oct 2037 07:28:00 GMT; HttpOnly, theme=dark; Path=/")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"access_token":"x"}}`)
	})
	g, _ := newGateway(t, upstream)

	rec := serve(g, postJSON(t, "/api/auth/refresh", struct{}{}))
	require.Equal(t, http.StatusOK, rec.Code)
	values := rec.Header().Values("Set-Cookie")
	require.Len(t, values, 2)
	require.True(t, strings.HasPrefix(values[0], "refresh_token=abc"))
	require.Contains(t, values[0], "2037")
	require.Equal(t, "theme=dark; Path=/", values[1])
}

func TestForward_BackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := testConfig{Config: config.New(), baseURL: srv.URL}
	srv.Close()
	g, err := gateway.New(cfg)
	require.NoError(t, err)

	rec := serve(g, postJSON(t, "/api/auth/refresh", struct{}{}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"message":"Unable to connect to server"}`, rec.Body.String())
}

func TestLoginRateLimit(t *testing.T) {
	g := newBackendGateway(t)

	for i := 0; i < 3; i++ {
		req := postJSON(t, "/api/auth/login", apiclient.LoginRequest{Email: "admin@example.com", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, serve(g, req).Code)
	}
	req := postJSON(t, "/api/auth/login", apiclient.LoginRequest{Email: "admin@example.com", Password: "Admin1234"})
	rec := serve(g, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	other := postJSON(t, "/api/auth/login", apiclient.LoginRequest{Email: "admin@example.com", Password: "Admin1234"})
	other.Header.Set("X-Forwarded-For", "203.0.113.9")
	require.Equal(t, http.StatusOK, serve(g, other).Code)

	metrics := serve(g, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, metrics.Body.String(), "console_gateway_login_rate_limited_total 1")
}

func TestRouteGuard(t *testing.T) {
	g := newBackendGateway(t)
	session := &http.Cookie{Name: apiclient.RefreshCookieName, Value: "rt"}

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		status   int
		location string
	}{
		{"guarded without cookie", "/dashboard", nil, http.StatusTemporaryRedirect, "/login"},
		{"nested guarded without cookie", "/management/users", nil, http.StatusTemporaryRedirect, "/login"},
		{"guarded with cookie", "/dashboard", session, http.StatusOK, ""},
		{"public with cookie", "/login", session, http.StatusTemporaryRedirect, "/dashboard"},
		{"public without cookie", "/register", nil, http.StatusOK, ""},
		{"forced sign-in", "/login?force=true", session, http.StatusTemporaryRedirect, "/login"},
		{"unguarded", "/about", nil, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := serve(g, req)
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}

	t.Run("forced sign-in clears the cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard?force=true", nil)
		req.AddCookie(session)
		rec := serve(g, req)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, apiclient.RefreshCookieName, cookies[0].Name)
		require.Empty(t, cookies[0].Value)
		require.Negative(t, cookies[0].MaxAge)
	})
}

func TestCors(t *testing.T) {
	g := newBackendGateway(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://console.test")
	rec := serve(g, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://console.test", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = serve(g, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	g := newBackendGateway(t)
	serve(g, httptest.NewRequest(http.MethodGet, "/about", nil))

	rec := serve(g, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `console_gateway_requests_total{route="/*",status="200"} 1`)
}
