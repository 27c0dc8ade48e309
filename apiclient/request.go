package apiclient

import (
	"net/url"
	"strconv"
)

// Intent tells the pipeline how a request relates to the session.
type Intent int

const (
	// IntentProtected requests need a live session and may trigger a renewal
	IntentProtected Intent = iota
	// IntentPublic requests (login, registration) are never blocked or renewed
	IntentPublic
	// IntentRenewal is the refresh call itself
	IntentRenewal
)

func (i Intent) String() string {
	switch i {
	case IntentProtected:
		return "protected"
	case IntentPublic:
		return "public"
	case IntentRenewal:
		return "renewal"
	}
	return "unknown"
}

// Request describes one API call. It is never mutated by the pipeline, so a
// replay sends exactly what the first attempt sent apart from the headers.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Intent Intent

	// WithCredentials sends the request through the cookie carrying client
	WithCredentials bool
}

// ListParams are the common list filters. Zero values are omitted.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}
