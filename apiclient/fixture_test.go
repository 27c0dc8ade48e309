package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	flagsrepofake "github.com/jrsteele09/go-admin-console/flags/repofake"
	"github.com/jrsteele09/go-admin-console/locale"
	"github.com/jrsteele09/go-admin-console/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// stubBackend accepts exactly one access token at a time and issues a new
// one on every refresh.
type stubBackend struct {
	server *httptest.Server

	mu            sync.Mutex
	validToken    string
	refreshStatus int
	issued        int
	lastHeaders   http.Header
	refreshGate   chan struct{}

	refreshes     atomic.Int64
	protectedHits atomic.Int64
	rejectAll     atomic.Bool
}

func newStubBackend(t *testing.T) *stubBackend {
	t.Helper()
	b := &stubBackend{validToken: "tok-0", refreshStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", b.refresh)
	mux.HandleFunc("POST /auth/login", b.login)
	mux.HandleFunc("POST /auth/logout", b.logout)
	mux.HandleFunc("/", b.protected)
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *stubBackend) URL() string {
	return b.server.URL
}

// holdRefreshes blocks refresh requests until the returned func is called
func (b *stubBackend) holdRefreshes() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.refreshGate = gate
	b.mu.Unlock()
	return func() { close(gate) }
}

func (b *stubBackend) setRefreshStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
}

func (b *stubBackend) headers() http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastHeaders.Clone()
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (b *stubBackend) refresh(w http.ResponseWriter, r *http.Request) {
	b.refreshes.Add(1)
	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refreshStatus != http.StatusOK {
		writeEnvelope(w, b.refreshStatus, map[string]any{"error": true, "code": b.refreshStatus, "message": "refresh refused"})
		return
	}
	if c, err := r.Cookie(RefreshCookieName); err != nil || c.Value == "" {
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{"error": true, "message": "no refresh cookie"})
		return
	}
	b.issued++
	b.validToken = "tok-" + string(rune('0'+b.issued))
	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "rt-" + b.validToken, Path: "/"})
	writeEnvelope(w, http.StatusOK, map[string]any{"data": map[string]string{"access_token": b.validToken}})
}

func (b *stubBackend) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Password != "secret" {
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{"error": true, "code": 401, "message": "Invalid email or password"})
		return
	}
	b.mu.Lock()
	tok := b.validToken
	b.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "rt-login", Path: "/"})
	writeEnvelope(w, http.StatusOK, map[string]any{"data": map[string]any{
		"access_token": tok,
		"user":         map[string]string{"id": "u1", "email": req.Email, "name": "Ada"},
	}})
}

func (b *stubBackend) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "", Path: "/", MaxAge: -1})
	writeEnvelope(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

func (b *stubBackend) protected(w http.ResponseWriter, r *http.Request) {
	b.protectedHits.Add(1)
	b.mu.Lock()
	b.lastHeaders = r.Header.Clone()
	valid := b.validToken
	b.mu.Unlock()

	if b.rejectAll.Load() || strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") != valid {
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{"error": true, "code": 401, "message": "Unauthorized"})
		return
	}
	switch r.URL.Path {
	case PathMe:
		writeEnvelope(w, http.StatusOK, map[string]any{"data": map[string]string{"id": "u1", "email": "ada@example.com", "name": "Ada"}})
	default:
		writeEnvelope(w, http.StatusOK, map[string]any{"data": map[string]int{"totalUsers": 3}})
	}
}

type recordingNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (n *recordingNavigator) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *recordingNavigator) Targets() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

type clientFixture struct {
	backend   *stubBackend
	repo      *flagsrepofake.FakeFlagsRepo
	jar       *Jar
	store     *session.Store
	manager   *session.Manager
	metrics   *session.Metrics
	navigator *recordingNavigator
	locale    *locale.Locale
	client    *Client
	auth      *AuthAPI
}

func setupClient(t *testing.T) *clientFixture {
	t.Helper()
	f := &clientFixture{
		backend:   newStubBackend(t),
		repo:      flagsrepofake.NewFakeFlagsRepo(),
		navigator: &recordingNavigator{},
		metrics:   session.NewMetrics(prometheus.NewRegistry()),
	}
	f.build(t)
	return f
}

// build wires the pipeline over the fixture's repo, keeping any durable state
func (f *clientFixture) build(t *testing.T) {
	t.Helper()
	var err error
	f.jar, err = NewJar(f.backend.URL(), f.repo)
	require.NoError(t, err)

	refresher, err := NewRefresher(f.backend.URL(), WithCookieJar(f.jar))
	require.NoError(t, err)

	f.store, err = session.NewStore(f.repo, session.WithRefreshCookieProbe(f.jar.HasRefreshCookie))
	require.NoError(t, err)

	f.manager, err = session.NewManager(f.store, refresher,
		session.WithNavigator(f.navigator),
		session.WithMetrics(f.metrics),
	)
	require.NoError(t, err)

	f.locale = locale.New(f.repo, "en")
	f.client, err = New(f.backend.URL(), f.manager, f.locale, WithCookieJar(f.jar))
	require.NoError(t, err)
	f.auth = NewAuthAPI(f.client, f.jar.ClearRefreshCookie)
}

// signIn stores a credential and a refresh cookie as a login would
func (f *clientFixture) signIn(t *testing.T, accessToken string) {
	t.Helper()
	f.manager.CompleteLogin(session.NewToken(accessToken))
	u, err := parseBaseURL(f.backend.URL())
	require.NoError(t, err)
	f.jar.SetCookies(u, []*http.Cookie{{Name: RefreshCookieName, Value: "rt-initial", Path: "/"}})
}
