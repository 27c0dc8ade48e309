// Package apiclient is the console's request pipeline to the backend API.
//
// Every call goes through Client.Do, which refuses protected calls while the
// session is logged out, attaches the access credential and the locale, and on
// an unauthorized response renews the credential through the session.Manager
// before replaying the call once.
package apiclient

import (
	"context"
	"net/http"
	"net/http/cookiejar"

	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/locale"
	"github.com/jrsteele09/go-admin-console/session"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxAttempts is the first try plus the single replay after a renewal
const maxAttempts = 2

// Client sends API calls on behalf of one session.
type Client struct {
	transport
	session *session.Manager
}

// Option configures a Client or a Refresher
type Option func(*options)

type options struct {
	httpClient *http.Client
	jar        http.CookieJar
	logger     zerolog.Logger
}

// WithHTTPClient sets the client whose transport and timeout are used for every
// request. Its cookie jar is ignored; use WithCookieJar.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithCookieJar sets the jar used by credentialed requests
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *options) {
		o.jar = jar
	}
}

// WithLogger overrides the default global logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newTransport(baseURL string, loc *locale.Locale, opts []Option) (transport, error) {
	o := options{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return transport{}, pkgerrors.Wrap(err, "creating cookie jar")
		}
		o.jar = jar
	}

	u, err := parseBaseURL(baseURL)
	if err != nil {
		return transport{}, err
	}

	plain := *o.httpClient
	plain.Jar = nil
	credentialed := *o.httpClient
	credentialed.Jar = o.jar

	return transport{
		baseURL:      u,
		plain:        &plain,
		credentialed: &credentialed,
		locale:       loc,
		log:          o.logger,
	}, nil
}

// New creates a Client for the API at baseURL.
func New(baseURL string, manager *session.Manager, loc *locale.Locale, opts ...Option) (*Client, error) {
	if manager == nil {
		return nil, pkgerrors.New("[apiclient New] session manager is required")
	}
	if loc == nil {
		return nil, pkgerrors.New("[apiclient New] locale is required")
	}
	t, err := newTransport(baseURL, loc, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[apiclient New]")
	}
	t.credential = manager.Store().Credential
	return &Client{transport: t, session: manager}, nil
}

// Session returns the manager the client renews through
func (c *Client) Session() *session.Manager {
	return c.session
}

// Do sends req and decodes a successful body into out (which may be nil).
//
// Protected calls fail with errors.ErrSessionBlocked, without a request, while
// logged out. A protected call answered with 401 renews the credential and is
// replayed once with the new one; a second 401 is returned as is.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	for attempt := 0; ; attempt++ {
		if req.Intent == IntentProtected {
			if err := c.session.Admit(); err != nil {
				return err
			}
		}

		err := c.send(ctx, req, out)
		if !c.shouldRenew(req, err, attempt) {
			return err
		}

		c.log.Debug().Str("path", req.Path).Msg("Unauthorized, renewing access credential")
		if _, renewErr := c.session.Renew(ctx); renewErr != nil {
			return renewErr
		}
	}
}

func (c *Client) shouldRenew(req Request, err error, attempt int) bool {
	if err == nil || req.Intent != IntentProtected || attempt+1 >= maxAttempts {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return false
	}
	return !c.session.Store().LoggedOut()
}

// call is Do for enveloped responses
func call[T any](ctx context.Context, c *Client, req Request) (*Envelope[T], error) {
	var env Envelope[T]
	if err := c.Do(ctx, req, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
