package session_test

import (
	"testing"

	"github.com/jrsteele09/go-admin-console/session"
	"github.com/stretchr/testify/require"
)

func TestProbe_ShouldLoadUser(t *testing.T) {
	t.Run("fresh visitor skips the request", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.False(t, session.NewProbe(store).ShouldLoadUser())
	})

	t.Run("reload after login", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.MarkAuthenticated()
		require.True(t, session.NewProbe(store).ShouldLoadUser(), "no credential yet but worth a renewal")
	})

	t.Run("logged out", func(t *testing.T) {
		store, _ := newTestStore(t, session.WithRefreshCookieProbe(func() bool { return true }))
		store.ForceLogout()
		require.False(t, session.NewProbe(store).ShouldLoadUser())
	})
}

func TestProbe_Confirm(t *testing.T) {
	store, _ := newTestStore(t)
	store.MarkAuthenticated()
	store.ForceLogout()

	probe := session.NewProbe(store)
	require.False(t, probe.ShouldLoadUser())

	probe.Confirm()
	require.True(t, probe.ShouldLoadUser())
}
