package apiclient

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-admin-console/session"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	PathLogin     = "/auth/login"
	PathLogout    = "/auth/logout"
	PathLogoutAll = "/auth/logout/all"
	PathRefresh   = "/auth/refresh"
	PathMe        = "/auth/me"
)

// RefreshData is the data of a refresh response
type RefreshData struct {
	AccessToken string `json:"access_token"`
}

// Refresher calls the refresh endpoint with the refresh cookie attached.
// It has its own transport without the Authorization header, so the refresh
// call can never re-enter the renewal protocol.
type Refresher struct {
	transport
}

var _ session.Renewer = (*Refresher)(nil)

// NewRefresher creates the renewer for the API at baseURL. Pass the same
// WithCookieJar as the Client so the refresh cookie set at login is sent.
func NewRefresher(baseURL string, opts ...Option) (*Refresher, error) {
	t, err := newTransport(baseURL, nil, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[NewRefresher]")
	}
	return &Refresher{transport: t}, nil
}

// Renew implements session.Renewer. Failures are *APIError (with a status)
// or transport errors.
func (r *Refresher) Renew(ctx context.Context) (*oauth2.Token, error) {
	var env Envelope[RefreshData]
	err := r.send(ctx, Request{
		Method:          http.MethodPost,
		Path:            PathRefresh,
		Body:            struct{}{},
		Intent:          IntentRenewal,
		WithCredentials: true,
	}, &env)
	if err != nil {
		return nil, err
	}
	return session.NewToken(env.Data.AccessToken), nil
}
