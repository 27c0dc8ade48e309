package console_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jrsteele09/go-admin-console/apiclient"
	"github.com/jrsteele09/go-admin-console/console"
	"github.com/jrsteele09/go-admin-console/devbackend"
	"github.com/jrsteele09/go-admin-console/flags"
	"github.com/jrsteele09/go-admin-console/flags/boltrepo"
	"github.com/jrsteele09/go-admin-console/internal/config"
	apperrors "github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/rbac"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	config.Config
	baseURL string
	folder  string
}

func (c testConfig) GetAPIBaseURL() string { return c.baseURL }
func (c testConfig) GetDataFolder() string { return c.folder }
func (c testConfig) GetDefaultLocale() string { return "en" }
func (c testConfig) GetAdminEmail() string { return "admin@example.com" }
func (c testConfig) GetAdminPassword() string { return "Admin1234" }

type navigations struct {
	mu      sync.Mutex
	targets []string
}

func (n *navigations) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *navigations) Targets() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

type fixture struct {
	backend *devbackend.Server
	cfg     testConfig
	nav     *navigations
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{cfg: testConfig{Config: config.New(), folder: t.TempDir()}, nav: &navigations{}}

	backend, err := devbackend.New(f.cfg)
	require.NoError(t, err)
	f.backend = backend
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	f.cfg.baseURL = srv.URL
	return f
}

// open starts a console process over the fixture's data folder
func (f *fixture) open(t *testing.T) *console.Console {
	t.Helper()
	c, err := console.New(f.cfg,
		console.WithNavigator(f.nav),
		console.WithRegistry(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConsole_LoginSurvivesAccessExpiry(t *testing.T) {
	f := setup(t)
	c := f.open(t)
	ctx := context.Background()

	_, err := c.Auth.CurrentUser(ctx)
	require.ErrorIs(t, err, apperrors.ErrNoSession)

	_, err = c.Auth.Login(ctx, "admin@example.com", "Admin1234")
	require.NoError(t, err)

	me, err := c.Auth.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "Admin", me.RoleName)

	f.backend.ExpireAccessTokens()
	stats, err := c.Dashboard.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalUsers)
	require.Equal(t, 1, f.backend.RefreshCalls())
	require.Empty(t, f.nav.Targets())
}

func TestConsole_ConcurrentExpiryRefreshesOnce(t *testing.T) {
	f := setup(t)
	c := f.open(t)
	ctx := context.Background()
	_, err := c.Auth.Login(ctx, "admin@example.com", "Admin1234")
	require.NoError(t, err)

	f.backend.ExpireAccessTokens()
	const callers = 6
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Users.List(ctx, apiclient.UserFilters{Role: apiclient.RoleAll})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	// a 401 that lands after the renewal completed starts a new one
	require.GreaterOrEqual(t, f.backend.RefreshCalls(), 1)
	require.LessOrEqual(t, f.backend.RefreshCalls(), callers)
}

func TestConsole_RevokedSessionForcesSignOut(t *testing.T) {
	f := setup(t)
	c := f.open(t)
	ctx := context.Background()
	_, err := c.Auth.Login(ctx, "admin@example.com", "Admin1234")
	require.NoError(t, err)

	require.NoError(t, f.backend.RevokeRefreshTokens("admin@example.com"))
	f.backend.ExpireAccessTokens()

	_, err = c.Dashboard.Stats(ctx)
	require.ErrorIs(t, err, apperrors.ErrRenewalRejected)
	require.Equal(t, []string{"/login?force=true"}, f.nav.Targets())
	require.True(t, c.Store.LoggedOut())
	require.False(t, c.Jar.HasRefreshCookie())

	_, err = c.Roles.List(ctx, apiclient.ListParams{})
	require.ErrorIs(t, err, apperrors.ErrSessionBlocked)
	require.Equal(t, 1, f.backend.RefreshCalls())

	_, err = c.Auth.Login(ctx, "admin@example.com", "Admin1234")
	require.NoError(t, err)
	_, err = c.Roles.List(ctx, apiclient.ListParams{})
	require.NoError(t, err)
}

func TestConsole_SessionPersistsAcrossProcesses(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.open(t)
	_, err := first.Auth.Login(ctx, "admin@example.com", "Admin1234")
	require.NoError(t, err)
	require.NoError(t, first.Locale.Set("id"))
	require.NoError(t, first.Close())

	second := f.open(t)
	require.Equal(t, "id-ID", second.Locale.Header())
	require.Nil(t, second.Store.Credential())
	require.True(t, second.Jar.HasRefreshCookie())
	require.Equal(t, "true", mustFlag(t, second.Flags, flags.KeyWasLoggedIn))

	me, err := second.Auth.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", me.Email)
	require.Equal(t, 1, f.backend.RefreshCalls())

	require.NoError(t, second.Auth.Logout(ctx))
	require.NoError(t, second.Close())

	third := f.open(t)
	require.True(t, third.Store.LoggedOut())
	_, err = third.Auth.CurrentUser(ctx)
	require.ErrorIs(t, err, apperrors.ErrNoSession)
}

func TestConsole_Sidebar(t *testing.T) {
	f := setup(t)
	c := f.open(t)
	ctx := context.Background()
	_, err := c.Auth.Login(ctx, "admin@example.com", "Admin1234")
	require.NoError(t, err)

	items, err := c.Sidebar(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Len(t, items[1].Children, 2)

	perms, err := c.Permissions(ctx)
	require.NoError(t, err)
	require.Equal(t, rbac.Flags{CanCreate: true, CanRead: true, CanUpdate: true, CanDelete: true, CanPrint: true},
		perms.FeaturePermissions(rbac.FeatureRBACManagement))
}

func mustFlag(t *testing.T, repo flags.Repo, key string) string {
	t.Helper()
	v, err := repo.Get(key)
	require.NoError(t, err)
	return v
}

func TestConsole_DataFolderIsOwnerOnly(t *testing.T) {
	f := setup(t)
	f.cfg.folder = filepath.Join(t.TempDir(), "profile")
	c := f.open(t)

	_, err := c.Auth.Login(context.Background(), "admin@example.com", "Admin1234")
	require.NoError(t, err)
	require.NotEmpty(t, flags.String(c.Flags, flags.KeyRefreshCookie, ""))

	folder, err := os.Stat(f.cfg.folder)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o700), folder.Mode().Perm())

	file, err := os.Stat(filepath.Join(f.cfg.folder, boltrepo.FileName))
	require.NoError(t, err)
	require.Equal(t, boltrepo.FileMode, file.Mode().Perm())
}
