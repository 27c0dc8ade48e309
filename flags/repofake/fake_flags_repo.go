package flagsrepofake

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/go-admin-console/flags"
	"github.com/jrsteele09/go-admin-console/internal/errors"
)

var _ flags.Repo = (*FakeFlagsRepo)(nil)

type FakeFlagsRepo struct {
	values map[string]string
	writes int
	lock   sync.RWMutex
}

func NewFakeFlagsRepo() *FakeFlagsRepo {
	return &FakeFlagsRepo{
		values: make(map[string]string),
	}
}

func (fr *FakeFlagsRepo) Get(key string) (string, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()
	v, ok := fr.values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, errors.ErrNotFound)
	}
	return v, nil
}

func (fr *FakeFlagsRepo) Set(key, value string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	fr.values[key] = value
	fr.writes++
	return nil
}

func (fr *FakeFlagsRepo) Remove(key string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	delete(fr.values, key)
	fr.writes++
	return nil
}

// Writes returns the number of Set and Remove calls seen so far
func (fr *FakeFlagsRepo) Writes() int {
	fr.lock.RLock()
	defer fr.lock.RUnlock()
	return fr.writes
}
