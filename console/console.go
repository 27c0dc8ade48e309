// Package console assembles the session client: durable flags, the refresh
// cookie jar, the session manager, the locale and the typed API clients.
package console

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/jrsteele09/go-admin-console/apiclient"
	"github.com/jrsteele09/go-admin-console/flags"
	"github.com/jrsteele09/go-admin-console/flags/boltrepo"
	"github.com/jrsteele09/go-admin-console/internal/config"
	"github.com/jrsteele09/go-admin-console/locale"
	"github.com/jrsteele09/go-admin-console/rbac"
	"github.com/jrsteele09/go-admin-console/session"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// dataFolderMode keeps the flags file, and the refresh cookie in it, owner only
const dataFolderMode os.FileMode = 0o700

// Console is one signed-in (or signed-out) console profile
type Console struct {
	Config    config.Config
	Flags     flags.Repo
	Jar       *apiclient.Jar
	Store     *session.Store
	Manager   *session.Manager
	Metrics   *session.Metrics
	Locale    *locale.Locale
	Client    *apiclient.Client
	Auth      *apiclient.AuthAPI
	Users     *apiclient.UsersAPI
	Roles     *apiclient.RolesAPI
	Dashboard *apiclient.DashboardAPI

	closer io.Closer
}

type options struct {
	repo       flags.Repo
	registry   prometheus.Registerer
	navigator  session.Navigator
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Console
type Option func(*options)

// WithFlagsRepo uses repo instead of the bbolt file in the data folder
func WithFlagsRepo(repo flags.Repo) Option {
	return func(o *options) {
		o.repo = repo
	}
}

// WithRegistry registers the session metrics with reg
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithNavigator is told where to send the user after a forced sign-out
func WithNavigator(navigator session.Navigator) Option {
	return func(o *options) {
		o.navigator = navigator
	}
}

// WithHTTPClient sets the client used for every API and refresh request
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger overrides the default global logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New wires a Console from cfg
func New(cfg config.Config, opts ...Option) (*Console, error) {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.GetRequestTimeout()}
	}

	c := &Console{Config: cfg, Flags: o.repo}
	if c.Flags == nil {
		if err := os.MkdirAll(cfg.GetDataFolder(), dataFolderMode); err != nil {
			return nil, pkgerrors.Wrap(err, "[console New] creating data folder")
		}
		if err := os.Chmod(cfg.GetDataFolder(), dataFolderMode); err != nil {
			return nil, pkgerrors.Wrap(err, "[console New] restricting data folder")
		}
		repo, err := boltrepo.NewInFolder(cfg.GetDataFolder())
		if err != nil {
			return nil, pkgerrors.Wrap(err, "[console New] opening flags")
		}
		c.Flags = repo
		c.closer = repo
	}

	if err := c.wire(cfg, o); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Console) wire(cfg config.Config, o options) error {
	var err error
	baseURL := cfg.GetAPIBaseURL()
	transportOpts := []apiclient.Option{
		apiclient.WithHTTPClient(o.httpClient),
		apiclient.WithLogger(o.logger),
	}

	if c.Jar, err = apiclient.NewJar(baseURL, c.Flags); err != nil {
		return pkgerrors.Wrap(err, "[console New]")
	}
	transportOpts = append(transportOpts, apiclient.WithCookieJar(c.Jar))

	refresher, err := apiclient.NewRefresher(baseURL, transportOpts...)
	if err != nil {
		return pkgerrors.Wrap(err, "[console New]")
	}

	c.Store, err = session.NewStore(c.Flags,
		session.WithRefreshCookieProbe(c.Jar.HasRefreshCookie),
		session.WithStoreLogger(o.logger),
	)
	if err != nil {
		return pkgerrors.Wrap(err, "[console New]")
	}

	c.Metrics = session.NewMetrics(o.registry)
	c.Manager, err = session.NewManager(c.Store, refresher,
		session.WithConfig(cfg),
		session.WithNavigator(c.forcedSignOutNavigator(o)),
		session.WithMetrics(c.Metrics),
		session.WithLogger(o.logger),
	)
	if err != nil {
		return pkgerrors.Wrap(err, "[console New]")
	}

	c.Locale = locale.New(c.Flags, cfg.GetDefaultLocale(), locale.WithLogger(o.logger))

	c.Client, err = apiclient.New(baseURL, c.Manager, c.Locale, transportOpts...)
	if err != nil {
		return pkgerrors.Wrap(err, "[console New]")
	}
	c.Auth = apiclient.NewAuthAPI(c.Client, c.Jar.ClearRefreshCookie)
	c.Users = apiclient.NewUsersAPI(c.Client)
	c.Roles = apiclient.NewRolesAPI(c.Client)
	c.Dashboard = apiclient.NewDashboardAPI(c.Client)
	return nil
}

// forcedSignOutNavigator drops the refresh cookie, as the sign-in screen
// does for a forced visit, before handing over to the configured navigator.
func (c *Console) forcedSignOutNavigator(o options) session.Navigator {
	return session.NavigatorFunc(func(target string) {
		c.Jar.ClearRefreshCookie()
		if o.navigator != nil {
			o.navigator.Navigate(target)
			return
		}
		o.logger.Warn().Str("target", target).Msg("Session expired, sign in again")
	})
}

// Close releases the durable flags file when the Console opened it
func (c *Console) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Permissions loads the signed-in user's permissions
func (c *Console) Permissions(ctx context.Context) (rbac.Permissions, error) {
	mine, err := c.Roles.MyPermissions(ctx)
	if err != nil {
		return rbac.Permissions{}, err
	}
	return rbac.NewPermissions(mine), nil
}

// Sidebar returns the navigation the signed-in user may see
func (c *Console) Sidebar(ctx context.Context) ([]rbac.NavItem, error) {
	perms, err := c.Permissions(ctx)
	if err != nil {
		return nil, err
	}
	return rbac.Visible(rbac.Sidebar, perms), nil
}
