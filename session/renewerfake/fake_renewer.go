package renewerfake

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-admin-console/session"
	"golang.org/x/oauth2"
)

var _ session.Renewer = (*FakeRenewer)(nil)

// StatusError is a renewal failure carrying an HTTP status
type StatusError int

func (e StatusError) Error() string {
	return fmt.Sprintf("refresh returned status %d", int(e))
}

func (e StatusError) StatusCode() int {
	return int(e)
}

// FakeRenewer returns a fixed outcome and can be held to keep a renewal in flight.
type FakeRenewer struct {
	lock  sync.Mutex
	calls int
	token *oauth2.Token
	err   error
	gate  chan struct{}
}

func NewFakeRenewer(token *oauth2.Token, err error) *FakeRenewer {
	return &FakeRenewer{token: token, err: err}
}

func (fr *FakeRenewer) Renew(ctx context.Context) (*oauth2.Token, error) {
	fr.lock.Lock()
	fr.calls++
	gate, token, err := fr.gate, fr.token, fr.err
	fr.lock.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return token, err
}

// Set changes the outcome of later calls
func (fr *FakeRenewer) Set(token *oauth2.Token, err error) {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	fr.token, fr.err = token, err
}

// Hold makes later calls block until Release or their context ends
func (fr *FakeRenewer) Hold() {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	fr.gate = make(chan struct{})
}

// Release unblocks held calls
func (fr *FakeRenewer) Release() {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	if fr.gate != nil {
		close(fr.gate)
		fr.gate = nil
	}
}

func (fr *FakeRenewer) Calls() int {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	return fr.calls
}
