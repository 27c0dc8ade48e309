// Package boltrepo persists session flags in a BBolt file so they survive
// process restarts.
package boltrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-admin-console/flags"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	"go.etcd.io/bbolt"
)

const (
	// FileName is the flags database name inside the data folder
	FileName = "session.db"

	// FileMode keeps the file, which holds the refresh cookie, owner only
	FileMode os.FileMode = 0o600

	bucketName  = "session_flags"
	openTimeout = time.Second
)

// Repo implements flags.Repo backed by a BBolt database.
type Repo struct {
	db *bbolt.DB
}

var _ flags.Repo = (*Repo)(nil)

// New returns a Repo backed by the given BBolt database.
func New(db *bbolt.DB) (*Repo, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s bucket: %w", bucketName, err)
	}
	return &Repo{db: db}, nil
}

// NewFromFile opens (or creates) the BBolt database at path with FileMode,
// tightening an existing file to it. The open waits at most one second for
// another process holding the file lock.
func NewFromFile(path string) (*Repo, error) {
	db, err := bbolt.Open(path, FileMode, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	if err := os.Chmod(path, FileMode); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("restricting bbolt db: %w", err)
	}
	repo, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewInFolder opens FileName inside folder.
func NewInFolder(folder string) (*Repo, error) {
	return NewFromFile(filepath.Join(folder, FileName))
}

// Close closes the underlying BBolt database.
func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) Get(key string) (string, error) {
	var value string
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, errors.ErrNotFound)
		}
		value = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *Repo) Set(key, value string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), []byte(value))
	})
}

func (r *Repo) Remove(key string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
}
