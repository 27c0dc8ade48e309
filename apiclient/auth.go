package apiclient

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/session"
	"golang.org/x/oauth2"
)

// User is the signed-in account as returned by login and /auth/me
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	RoleName string `json:"roleName,omitempty"`
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponseData is the data of a login response. The refresh token also
// arrives as a cookie, which is the copy that is used.
type AuthResponseData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         User   `json:"user"`
}

// AuthAPI wraps the /auth endpoints and keeps the session state in step.
type AuthAPI struct {
	client *Client
	// onSignOut runs after local state is cleared on logout
	onSignOut func()
}

// NewAuthAPI creates the auth endpoints over client. onSignOut may be nil.
func NewAuthAPI(client *Client, onSignOut func()) *AuthAPI {
	return &AuthAPI{client: client, onSignOut: onSignOut}
}

// Login signs in and stores the new access credential.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*AuthResponseData, error) {
	env, err := call[AuthResponseData](ctx, a.client, Request{
		Method:          http.MethodPost,
		Path:            PathLogin,
		Body:            LoginRequest{Email: email, Password: password},
		Intent:          IntentPublic,
		WithCredentials: true,
	})
	if err != nil {
		return nil, err
	}
	tok := session.NewToken(env.Data.AccessToken)
	if tok == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "login response carried no access token")
	}
	a.client.session.CompleteLogin(tok)
	a.client.log.Info().Str("user_id", env.Data.User.ID).Msg("Logged in")
	return &env.Data, nil
}

// Logout ends the server session. Local state is cleared whatever the backend
// answers; its error is still returned.
func (a *AuthAPI) Logout(ctx context.Context) error {
	return a.logout(ctx, PathLogout)
}

// LogoutAll ends every session of the user
func (a *AuthAPI) LogoutAll(ctx context.Context) error {
	return a.logout(ctx, PathLogoutAll)
}

func (a *AuthAPI) logout(ctx context.Context, path string) error {
	err := a.client.Do(ctx, Request{
		Method:          http.MethodPost,
		Path:            path,
		Body:            struct{}{},
		Intent:          IntentPublic,
		WithCredentials: true,
	}, nil)
	if err != nil {
		a.client.log.Warn().Err(err).Msg("Logout request failed, clearing local session anyway")
	}
	a.client.session.SignOut()
	if a.onSignOut != nil {
		a.onSignOut()
	}
	return err
}

// CurrentUser loads the signed-in user when the probe says a session is
// plausible. errors.ErrNoSession means there is no session: either the request
// was skipped or it was still unauthorized after one renewal attempt.
func (a *AuthAPI) CurrentUser(ctx context.Context) (*User, error) {
	probe := a.client.session.Probe()
	if !probe.ShouldLoadUser() {
		return nil, errors.ErrNoSession
	}

	env, err := call[User](ctx, a.client, Request{
		Method:          http.MethodGet,
		Path:            PathMe,
		Intent:          IntentProtected,
		WithCredentials: true,
	})
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) || errors.Is(err, errors.ErrSessionBlocked) {
			return nil, errors.Join(errors.ErrNoSession, err)
		}
		return nil, err
	}
	probe.Confirm()
	return &env.Data, nil
}

// KeepAlive renews the access credential now, sharing any renewal in flight
func (a *AuthAPI) KeepAlive(ctx context.Context) (*oauth2.Token, error) {
	return a.client.session.Renew(ctx)
}
