package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const unreachableMessage = "Unable to connect to server"

// forwarded request headers; Cookie is added only for cookie relaying routes
var forwardedHeaders = []string{"Authorization", "Content-Type", "Accept", "Accept-Language", "X-Request-ID"}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// forwarder relays a request to path on the backend. With relayCookies the
// browser's cookies go upstream and the backend's Set-Cookie comes back.
func (g *Gateway) forwarder(path string, relayCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.forward(w, r, path, relayCookies)
	}
}

// forwardAPI relays any other /api call with its path under the backend root
func (g *Gateway) forwardAPI(w http.ResponseWriter, r *http.Request) {
	g.forward(w, r, "/"+chi.URLParam(r, "*"), false)
}

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, path string, relayCookies bool) {
	target := g.backend.JoinPath(path)
	target.RawQuery = r.URL.RawQuery

	upstream, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		g.log.Err(err).Str("path", path).Msg("Building upstream request")
		writeMessage(w, http.StatusInternalServerError, unreachableMessage)
		return
	}
	for _, h := range forwardedHeaders {
		if v := r.Header.Get(h); v != "" {
			upstream.Header.Set(h, v)
		}
	}
	if relayCookies {
		if cookie := r.Header.Get("Cookie"); cookie != "" {
			upstream.Header.Set("Cookie", cookie)
		}
	}

	resp, err := g.client.Do(upstream)
	if err != nil {
		g.metrics.upstreamFailures.Inc()
		g.log.Err(err).Str("path", path).Msg("Backend unreachable")
		writeMessage(w, http.StatusInternalServerError, unreachableMessage)
		return
	}
	defer resp.Body.Close()

	if relayCookies {
		for _, value := range resp.Header.Values("Set-Cookie") {
			for _, cookie := range splitSetCookie(value) {
				w.Header().Add("Set-Cookie", cookie)
			}
		}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		g.log.Debug().Err(err).Str("path", path).Msg("Copying upstream body")
	}
}
