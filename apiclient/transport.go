package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/jrsteele09/go-admin-console/locale"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	contentTypeJSON = "application/json"

	headerAcceptLanguage = "accept-language"
	headerRequestID      = "X-Request-ID"

	maxResponseBytes   = 10 << 20
	defaultHTTPTimeout = 30 * time.Second
)

// transport builds and sends single attempts. It knows nothing about renewal.
type transport struct {
	baseURL      *url.URL
	plain        *http.Client
	credentialed *http.Client
	locale       *locale.Locale
	credential   func() *oauth2.Token
	log          zerolog.Logger
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}
	return u, nil
}

// send performs one attempt and decodes a 2xx body into out.
// Non-2xx responses become *APIError; transport failures wrap errors.ErrTemporary.
func (t *transport) send(ctx context.Context, req Request, out any) error {
	httpReq, requestID, err := t.newHTTPRequest(ctx, req)
	if err != nil {
		return err
	}

	client := t.plain
	if req.WithCredentials {
		client = t.credentialed
	}

	started := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		t.log.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Str("request_id", requestID).Msg("Request failed")
		return fmt.Errorf("%w: %s %s: %w", errors.ErrTemporary, req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	t.log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("intent", req.Intent.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Str("request_id", requestID).
		Msg("API request")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading %s response: %w", errors.ErrTemporary, req.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, body, req, requestID)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.Path, err)
	}
	return nil
}

func (t *transport) newHTTPRequest(ctx context.Context, req Request) (*http.Request, string, error) {
	u := t.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encoding %s body: %w", req.Path, err)
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, "", fmt.Errorf("building %s request: %w", req.Path, err)
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set(headerRequestID, requestID)
	if t.locale != nil {
		httpReq.Header.Set(headerAcceptLanguage, t.locale.Header())
	}
	if t.credential != nil {
		if tok := t.credential(); tok != nil {
			tok.SetAuthHeader(httpReq)
		}
	}
	return httpReq, requestID, nil
}

func decodeAPIError(status int, body []byte, req Request, requestID string) error {
	apiErr := &APIError{
		Status:    status,
		Method:    req.Method,
		Path:      req.Path,
		RequestID: requestID,
	}
	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Code = env.Code
		apiErr.Message = env.Message
		apiErr.Issues = env.Issues
	}
	return apiErr
}
