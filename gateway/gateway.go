// Package gateway is the console's backend-for-frontend: it forwards the auth
// and API calls of a browser session to the backend, relaying the refresh
// cookie, and guards the console's page routes on that cookie.
package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-admin-console/internal/config"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type gatewayMetrics struct {
	requests         *prometheus.CounterVec
	upstreamFailures prometheus.Counter
	rateLimited      prometheus.Counter
}

func newGatewayMetrics(reg prometheus.Registerer) gatewayMetrics {
	factory := promauto.With(reg)
	return gatewayMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Gateway requests by route pattern and status.",
		}, []string{"route", "status"}),
		upstreamFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "gateway",
			Name:      "upstream_failures_total",
			Help:      "Forwarded requests that could not reach the backend.",
		}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "gateway",
			Name:      "login_rate_limited_total",
			Help:      "Login attempts refused by the rate limiter.",
		}),
	}
}

// Gateway serves the console's browser-facing routes
type Gateway struct {
	env      string
	cfg      config.Config
	backend  *url.URL
	client   *http.Client
	limiter  *loginLimiter
	registry *prometheus.Registry
	metrics  gatewayMetrics
	pages    http.Handler
	log      zerolog.Logger
	router   chi.Router
	routes   []string
}

type Option func(*Gateway)

// WithHTTPClient sets the client used to reach the backend
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

// WithRegistry collects the gateway metrics, and serves them on /metrics,
// from reg
func WithRegistry(reg *prometheus.Registry) Option {
	return func(g *Gateway) {
		g.registry = reg
	}
}

// WithPages serves the guarded page routes. The default answers with the
// page path only.
func WithPages(pages http.Handler) Option {
	return func(g *Gateway) {
		g.pages = pages
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.log = logger
	}
}

// New creates a Gateway forwarding to cfg's API base URL
func New(cfg config.Config, opts ...Option) (*Gateway, error) {
	backend, err := url.Parse(strings.TrimRight(cfg.GetAPIBaseURL(), "/"))
	if err != nil || backend.Scheme == "" || backend.Host == "" {
		return nil, pkgerrors.Errorf("[gateway New] invalid API base url %q", cfg.GetAPIBaseURL())
	}

	g := &Gateway{
		env:     cfg.GetEnv(),
		cfg:     cfg,
		backend: backend,
		client:  &http.Client{Timeout: cfg.GetRequestTimeout()},
		limiter: newLoginLimiter(cfg.GetLoginRatePerMinute(), cfg.GetLoginBurst()),
		log:     log.Logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.registry == nil {
		g.registry = prometheus.NewRegistry()
	}
	if g.pages == nil {
		g.pages = http.HandlerFunc(placeholderPage)
	}
	g.metrics = newGatewayMetrics(g.registry)
	g.router = g.initRoutes()
	g.logRoutes()
	return g, nil
}

func (g *Gateway) initRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(g.LoggingMiddleware, g.RecoverMiddleware, g.FrameSecurityMiddleware)

	r.Handle("/metrics", promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(g.CorsMiddleware)
		r.With(g.RateLimitMiddleware).Post("/auth/login", g.forwarder("/auth/login", true))
		r.Post("/auth/refresh", g.forwarder("/auth/refresh", true))
		r.Post("/auth/logout", g.forwarder("/auth/logout", true))
		r.Post("/auth/logout/all", g.forwarder("/auth/logout/all", true))
		r.Get("/auth/me", g.forwarder("/auth/me", true))
		r.HandleFunc("/*", g.forwardAPI)
	})

	r.With(g.RouteGuard).Handle("/*", g.pages)

	g.routes = nil
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		g.routes = append(g.routes, method+" "+route)
		return nil
	})
	return r
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}

// Registry returns the registry behind /metrics
func (g *Gateway) Registry() *prometheus.Registry {
	return g.registry
}

func (g *Gateway) logRoutes() {
	if g.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range g.routes {
		method, path, _ := strings.Cut(route, " ")
		g.log.Debug().Msgf("[%-19s] %s", " "+colouredMethod(method), path)
	}
}

func placeholderPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, r.URL.Path)
}
