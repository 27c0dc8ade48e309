package session_test

import (
	"testing"

	"github.com/jrsteele09/go-admin-console/flags"
	flagsrepofake "github.com/jrsteele09/go-admin-console/flags/repofake"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/session"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestStore(t *testing.T, options ...session.StoreOption) (*session.Store, *flagsrepofake.FakeFlagsRepo) {
	t.Helper()
	repo := flagsrepofake.NewFakeFlagsRepo()
	store, err := session.NewStore(repo, options...)
	require.NoError(t, err)
	return store, repo
}

func TestNewStore_RequiresRepo(t *testing.T) {
	_, err := session.NewStore(nil)
	require.Error(t, err)
}

func TestStore_SetCredentialClearsLoggedOut(t *testing.T) {
	store, repo := newTestStore(t)

	require.True(t, store.ForceLogout())
	require.True(t, store.LoggedOut())
	require.True(t, flags.Bool(repo, flags.KeyLoggedOut))

	store.SetCredential(session.NewToken("token-1"))

	require.False(t, store.LoggedOut())
	require.False(t, flags.Bool(repo, flags.KeyLoggedOut))
	require.Equal(t, "token-1", store.Credential().AccessToken)
}

func TestStore_SetNilClearsOnlyCredential(t *testing.T) {
	store, _ := newTestStore(t)
	store.SetCredential(session.NewToken("token-1"))

	store.SetCredential(nil)
	require.Nil(t, store.Credential())
	require.False(t, store.LoggedOut(), "clearing the credential is not a logout")

	store.SetCredential(&oauth2.Token{})
	require.Nil(t, store.Credential(), "empty token counts as nil")
}

func TestStore_CredentialOverwritten(t *testing.T) {
	store, _ := newTestStore(t)
	store.SetCredential(session.NewToken("token-1"))
	store.SetCredential(session.NewToken("token-2"))

	tok, err := store.Token()
	require.NoError(t, err)
	require.Equal(t, "token-2", tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)
}

func TestStore_TokenSourceWithoutCredential(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Token()
	require.ErrorIs(t, err, errors.ErrNoSession)
}

func TestStore_ForceLogoutIdempotent(t *testing.T) {
	store, repo := newTestStore(t)
	store.SetCredential(session.NewToken("token-1"))

	require.True(t, store.ForceLogout())
	writes := repo.Writes()
	require.False(t, store.ForceLogout())
	require.False(t, store.ForceLogout())

	require.True(t, store.LoggedOut(), "flag stays set, never toggles")
	require.Nil(t, store.Credential())
	require.Equal(t, writes, repo.Writes(), "repeat calls do not rewrite the durable flag")
}

func TestStore_LoggedOutStartsFromDurableFlag(t *testing.T) {
	repo := flagsrepofake.NewFakeFlagsRepo()
	require.NoError(t, flags.SetBool(repo, flags.KeyLoggedOut, true))

	store, err := session.NewStore(repo)
	require.NoError(t, err)
	require.True(t, store.LoggedOut())
	require.False(t, store.ForceLogout())
}

func TestStore_LoggedOutSeesOtherWriters(t *testing.T) {
	store, repo := newTestStore(t)
	require.False(t, store.LoggedOut())

	require.NoError(t, flags.SetBool(repo, flags.KeyLoggedOut, true))
	require.True(t, store.LoggedOut())
}

func TestStore_AuthenticatedMark(t *testing.T) {
	store, repo := newTestStore(t)

	store.MarkAuthenticated()
	require.True(t, store.WasAuthenticated())
	require.True(t, flags.Bool(repo, flags.KeyWasLoggedIn))

	store.ClearAuthenticatedMark()
	require.False(t, store.WasAuthenticated())
}

func TestStore_HasPlausibleSession(t *testing.T) {
	t.Run("never authenticated", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.False(t, store.HasPlausibleSession())
	})

	t.Run("refresh cookie present", func(t *testing.T) {
		store, _ := newTestStore(t, session.WithRefreshCookieProbe(func() bool { return true }))
		require.True(t, store.HasPlausibleSession())
	})

	t.Run("credential in memory", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.SetCredential(session.NewToken("token-1"))
		require.True(t, store.HasPlausibleSession())
	})

	t.Run("previously authenticated", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.MarkAuthenticated()
		require.True(t, store.HasPlausibleSession())
	})

	t.Run("logged out beats every signal", func(t *testing.T) {
		store, _ := newTestStore(t, session.WithRefreshCookieProbe(func() bool { return true }))
		store.MarkAuthenticated()
		store.ForceLogout()
		require.False(t, store.HasPlausibleSession())
	})
}

func TestStore_ClearLoggedOut(t *testing.T) {
	store, repo := newTestStore(t)
	store.ForceLogout()

	store.ClearLoggedOut()
	require.False(t, store.LoggedOut())
	require.False(t, flags.Bool(repo, flags.KeyLoggedOut))
}

func TestStore_Subscribe(t *testing.T) {
	store, _ := newTestStore(t)

	var first, second []string
	unsubscribe := store.Subscribe(func(tok *oauth2.Token) { first = append(first, tok.AccessToken) })
	store.Subscribe(func(tok *oauth2.Token) { second = append(second, tok.AccessToken) })

	store.SetCredential(session.NewToken("token-1"))
	store.SetCredential(nil)
	unsubscribe()
	store.SetCredential(session.NewToken("token-2"))

	require.Equal(t, []string{"token-1"}, first)
	require.Equal(t, []string{"token-1", "token-2"}, second, "a later subscriber does not replace an earlier one")
}

func TestStore_SetCredentialForGeneration(t *testing.T) {
	store, repo := newTestStore(t)
	store.StartSession(session.NewToken("token-1"))
	gen := store.Generation()

	require.True(t, store.SetCredentialFor(gen, session.NewToken("token-2")))
	require.Equal(t, "token-2", store.Credential().AccessToken)

	store.ForceLogout()
	require.NotEqual(t, gen, store.Generation())
	require.False(t, store.SetCredentialFor(gen, session.NewToken("stale")))
	require.False(t, store.SetCredentialFor(store.Generation(), session.NewToken("stale")), "logged out sessions stay logged out")
	require.Nil(t, store.Credential())
	require.True(t, flags.Bool(repo, flags.KeyLoggedOut))

	store.StartSession(session.NewToken("token-3"))
	require.False(t, store.LoggedOut())
	require.True(t, store.SetCredentialFor(store.Generation(), session.NewToken("token-4")))
}
