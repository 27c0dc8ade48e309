package gateway

import (
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/go-admin-console/session"
)

const refreshCookieName = "refresh_token"

func hasRefreshCookie(r *http.Request) bool {
	c, err := r.Cookie(refreshCookieName)
	return err == nil && c.Value != ""
}

func (g *Gateway) isGuarded(path string) bool {
	for _, prefix := range g.cfg.GetGuardedPrefixes() {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// RouteGuard redirects page requests on the refresh cookie. A forced sign-in
// visit drops the cookie first, signed-in users skip the public pages, and
// guarded pages need the cookie. Other paths pass through.
func (g *Gateway) RouteGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		public := slices.Contains(g.cfg.GetPublicPaths(), path)
		if !public && !g.isGuarded(path) {
			next.ServeHTTP(w, r)
			return
		}

		signIn := g.cfg.GetSignInPath()
		authenticated := hasRefreshCookie(r)

		switch {
		case r.URL.Query().Get(session.ForceQueryParam) == "true":
			http.SetCookie(w, &http.Cookie{Name: refreshCookieName, Value: "", Path: "/", MaxAge: -1})
			http.Redirect(w, r, signIn, http.StatusTemporaryRedirect)
		case public && authenticated:
			http.Redirect(w, r, g.cfg.GetHomePath(), http.StatusTemporaryRedirect)
		case !public && !authenticated:
			http.Redirect(w, r, signIn, http.StatusTemporaryRedirect)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
