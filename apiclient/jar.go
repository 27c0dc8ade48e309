package apiclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/go-admin-console/flags"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RefreshCookieName is the cookie holding the refresh credential
const RefreshCookieName = "refresh_token"

// Jar is a cookie jar that mirrors the refresh cookie into the durable flags,
// so separate console processes share one refresh credential. The value is
// only ever handed back to the backend; the session core just checks presence.
type Jar struct {
	mu   sync.Mutex
	jar  *cookiejar.Jar
	base *url.URL
	repo flags.Repo
	log  zerolog.Logger
}

var _ http.CookieJar = (*Jar)(nil)

// NewJar creates a Jar for the API at baseURL and restores a persisted
// refresh cookie.
func NewJar(baseURL string, repo flags.Repo) (*Jar, error) {
	if repo == nil {
		return nil, pkgerrors.New("[NewJar] flags repo is required")
	}
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[NewJar]")
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[NewJar] creating cookie jar")
	}

	j := &Jar{jar: inner, base: base, repo: repo, log: log.Logger}
	if value := flags.String(repo, flags.KeyRefreshCookie, ""); value != "" {
		inner.SetCookies(base, []*http.Cookie{{Name: RefreshCookieName, Value: value, Path: "/"}})
	}
	return j, nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)
	for _, c := range cookies {
		if c.Name != RefreshCookieName {
			continue
		}
		var err error
		if isExpired(c) {
			err = j.repo.Remove(flags.KeyRefreshCookie)
		} else {
			err = j.repo.Set(flags.KeyRefreshCookie, c.Value)
		}
		if err != nil {
			j.log.Err(err).Msg("Failed to persist refresh cookie")
		}
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// HasRefreshCookie reports whether a refresh cookie would be sent to the API
func (j *Jar) HasRefreshCookie() bool {
	for _, c := range j.Cookies(j.base) {
		if c.Name == RefreshCookieName && c.Value != "" {
			return true
		}
	}
	return false
}

// ClearRefreshCookie drops the refresh cookie locally and durably
func (j *Jar) ClearRefreshCookie() {
	j.SetCookies(j.base, []*http.Cookie{{Name: RefreshCookieName, Value: "", Path: "/", MaxAge: -1}})
}

func isExpired(c *http.Cookie) bool {
	if c.Value == "" || c.MaxAge < 0 {
		return true
	}
	return !c.Expires.IsZero() && c.Expires.Before(time.Now())
}
