package boltrepo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-admin-console/flags"
	"github.com/jrsteele09/go-admin-console/flags/boltrepo"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestRepo_GetSetRemove(t *testing.T) {
	repo, err := boltrepo.NewInFolder(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.Get(flags.KeyLocale)
	require.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, repo.Set(flags.KeyLocale, "es"))
	v, err := repo.Get(flags.KeyLocale)
	require.NoError(t, err)
	require.Equal(t, "es", v)

	require.NoError(t, repo.Remove(flags.KeyLocale))
	require.NoError(t, repo.Remove(flags.KeyLocale), "removing an absent key is not an error")
	_, err = repo.Get(flags.KeyLocale)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRepo_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), boltrepo.FileName)

	repo, err := boltrepo.NewFromFile(path)
	require.NoError(t, err)
	require.NoError(t, flags.SetBool(repo, flags.KeyWasLoggedIn, true))
	require.NoError(t, flags.SetBool(repo, flags.KeyLoggedOut, false))
	require.NoError(t, repo.Close())

	reopened, err := boltrepo.NewFromFile(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.True(t, flags.Bool(reopened, flags.KeyWasLoggedIn))
	require.False(t, flags.Bool(reopened, flags.KeyLoggedOut))
}

func TestRepo_FileIsOwnerOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), boltrepo.FileName)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	repo, err := boltrepo.NewFromFile(path)
	require.NoError(t, err)
	defer repo.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, boltrepo.FileMode, info.Mode().Perm())
}
