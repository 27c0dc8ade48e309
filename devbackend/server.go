// Package devbackend is an in-process implementation of the console's backend
// API, for local development and integration tests.
package devbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-admin-console/apiclient"
	"github.com/jrsteele09/go-admin-console/internal/config"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// RefreshCookieName is the cookie the refresh token travels in
	RefreshCookieName = apiclient.RefreshCookieName

	defaultPage  = 1
	defaultLimit = 10
)

type contextKey struct{}

// Server serves the backend API
type Server struct {
	router  chi.Router
	store   *store
	access  *issuer
	refresh *refreshTokens
	log     zerolog.Logger

	refreshTTL   time.Duration
	refreshCalls atomic.Int64
}

// Option configures a Server
type Option func(*Server)

// WithAccessTokenTTL overrides the configured access token lifetime
func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.access.ttl = ttl
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

// New creates a Server seeded with the admin account from cfg
func New(cfg config.DevBackendConfig, opts ...Option) (*Server, error) {
	s := &Server{
		store:      newStore(),
		access:     newIssuer(cfg.GetSigningSecret(), cfg.GetAccessTokenExpiry()),
		refresh:    newRefreshTokens(cfg.GetRefreshTokenLength(), cfg.GetRefreshTokenExpiry()),
		log:        log.Logger,
		refreshTTL: cfg.GetRefreshTokenExpiry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.store.seed(cfg.GetAdminEmail(), cfg.GetAdminPassword()); err != nil {
		return nil, errors.Wrapf(err, "[devbackend New] seeding")
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/login", s.Login)
	r.Post("/auth/refresh", s.Refresh)
	r.Post("/auth/logout", s.Logout)
	r.With(s.AuthMiddleware).Post("/auth/logout/all", s.LogoutAll)
	r.With(s.AuthMiddleware).Get("/auth/me", s.Me)

	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Get("/users", s.ListUsers)
		r.Post("/users", s.CreateUser)
		r.Get("/users/{userID}", s.GetUser)
		r.Patch("/users/{userID}", s.UpdateUser)
		r.Delete("/users/{userID}", s.DeleteUser)

		r.Get("/rbac/roles", s.ListRoles)
		r.Post("/rbac/roles", s.CreateRole)
		r.Get("/rbac/roles/options", s.RoleOptions)
		r.Get("/rbac/roles/me", s.MyPermissions)
		r.Get("/rbac/roles/{roleID}", s.GetRole)
		r.Patch("/rbac/roles/{roleID}", s.UpdateRole)
		r.Delete("/rbac/roles/{roleID}", s.DeleteRole)
		r.Get("/rbac/features", s.ListFeatures)

		r.Get("/dashboard", s.Dashboard)
	})

	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ExpireAccessTokens invalidates every access token issued so far, as if they
// had all reached their expiry. Refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.access.expireAll()
}

// RevokeRefreshTokens ends every session of the account with email
func (s *Server) RevokeRefreshTokens(email string) error {
	account, err := s.store.accountByEmail(email)
	if err != nil {
		return err
	}
	s.refresh.revokeUser(account.ID)
	return nil
}

// RefreshCalls returns how many refresh requests have been served
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// AuthMiddleware requires a valid bearer access token
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Missing access token")
			return
		}
		claims, err := s.access.verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Access token is invalid or expired")
			return
		}
		account, err := s.store.accountByID(claims.Subject)
		if err != nil || !account.IsActive {
			writeError(w, http.StatusUnauthorized, "Account is not available")
			return
		}
		ctx := context.WithValue(r.Context(), contextKey{}, authContext{account: account, claims: claims})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type authContext struct {
	account *Account
	claims  *accessClaims
}

func authFrom(ctx context.Context) authContext {
	ac, _ := ctx.Value(contextKey{}).(authContext)
	return ac
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
		return "", false
	}
	return h[len(prefix):], true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData[T any](w http.ResponseWriter, status int, message string, data T) {
	writeJSON(w, status, apiclient.Envelope[T]{Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiclient.Envelope[struct{}]{Error: true, Code: status, Message: message})
}

func writeIssues(w http.ResponseWriter, issues []apiclient.Issue) {
	writeJSON(w, http.StatusBadRequest, apiclient.Envelope[struct{}]{
		Error:   true,
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Issues:  issues,
	})
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, errors.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errors.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Request body is not valid JSON")
		return false
	}
	return true
}

// paginate slices items by the page and limit query parameters
func paginate[T any](r *http.Request, items []T) apiclient.Envelope[[]T] {
	page := queryInt(r, "page", defaultPage)
	limit := queryInt(r, "limit", defaultLimit)

	total := len(items)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	data := append([]T{}, items[start:end]...)
	return apiclient.Envelope[[]T]{
		Data: data,
		Pagination: &apiclient.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	}
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
