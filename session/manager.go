package session

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/go-admin-console/internal/config"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	defaultRenewalTimeout = 10 * time.Second
	defaultSignInPath     = "/login"

	// ForceQueryParam marks a sign-in navigation as involuntary
	ForceQueryParam = "force"
)

// Renewer exchanges the refresh credential for a new access credential.
// Implementations must not route through the renewal protocol themselves.
type Renewer interface {
	Renew(ctx context.Context) (*oauth2.Token, error)
}

// Navigator sends the user to another screen
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(target string)

// Navigate calls f(target)
func (f NavigatorFunc) Navigate(target string) {
	f(target)
}

// StatusCoder is implemented by errors that carry an HTTP status
type StatusCoder interface {
	StatusCode() int
}

type renewalResult struct {
	token *oauth2.Token
	err   error
}

// Manager is the single owner of the renewal state: whether a renewal is in
// flight and the queue of callers waiting for it.
type Manager struct {
	store     *Store
	renewer   Renewer
	navigator Navigator
	metrics   *Metrics
	log       zerolog.Logger

	signInPath      string
	renewalTimeout  time.Duration
	invalidStatuses map[int]struct{}

	mu       sync.Mutex
	renewing bool
	queue    []chan renewalResult
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithConfig applies the session settings from cfg
func WithConfig(cfg config.SessionConfig) ManagerOption {
	return func(m *Manager) {
		m.signInPath = cfg.GetSignInPath()
		m.renewalTimeout = cfg.GetRenewalTimeout()
		m.invalidStatuses = statusSet(cfg.GetInvalidCredentialStatuses())
	}
}

// WithNavigator sets where forced sign-outs send the user
func WithNavigator(navigator Navigator) ManagerOption {
	return func(m *Manager) {
		m.navigator = navigator
	}
}

// WithRenewalTimeout bounds a single refresh call
func WithRenewalTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.renewalTimeout = timeout
	}
}

// WithMetrics records lifecycle counters into metrics
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithLogger overrides the default global logger
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = logger
	}
}

// NewManager creates a Manager renewing through renewer.
func NewManager(store *Store, renewer Renewer, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, pkgerrors.New("[NewManager] store is required")
	}
	if renewer == nil {
		return nil, pkgerrors.New("[NewManager] renewer is required")
	}

	m := &Manager{
		store:           store,
		renewer:         renewer,
		log:             log.Logger,
		signInPath:      defaultSignInPath,
		renewalTimeout:  defaultRenewalTimeout,
		invalidStatuses: statusSet([]int{400, 401}),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	return m, nil
}

// Store returns the credential store
func (m *Manager) Store() *Store {
	return m.store
}

// Probe returns the session probe over the manager's store
func (m *Manager) Probe() *Probe {
	return NewProbe(m.store)
}

// Metrics returns the lifecycle counters
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// Admit refuses protected requests while logged out.
func (m *Manager) Admit() error {
	if m.store.LoggedOut() {
		m.metrics.Blocked.Inc()
		return errors.ErrSessionBlocked
	}
	return nil
}

// Renew obtains a fresh access credential after an unauthorized response.
//
// The first caller while idle becomes the leader and issues the only refresh
// call; callers arriving while it is in flight wait for its outcome. On success
// the credential is stored before any waiter is released. On failure every
// waiter receives the error, and a rejected refresh credential forces a
// sign-out. Returned errors wrap errors.ErrRenewalRejected or
// errors.ErrRenewalTransient, or are errors.ErrSessionBlocked when the session
// is logged out before or during the renewal. Nothing is sent while logged out.
func (m *Manager) Renew(ctx context.Context) (*oauth2.Token, error) {
	if err := m.Admit(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.renewing {
		wait := make(chan renewalResult, 1)
		m.queue = append(m.queue, wait)
		m.mu.Unlock()
		m.metrics.QueuedCallers.Inc()

		select {
		case res := <-wait:
			return res.token, res.err
		case <-ctx.Done():
			return nil, errors.Wrapf(errors.ErrRenewalTransient, "waiting for renewal: %v", ctx.Err())
		}
	}
	m.renewing = true
	m.mu.Unlock()

	gen := m.store.Generation()
	tok, err := m.renewOnce(ctx)
	if err == nil && !m.store.SetCredentialFor(gen, tok) {
		m.log.Debug().Msg("Session ended during renewal, discarding credential")
		tok, err = nil, errors.Wrapf(errors.ErrSessionBlocked, "session ended during renewal")
	}

	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.renewing = false
	m.mu.Unlock()

	for _, wait := range queue {
		wait <- renewalResult{token: tok, err: err}
	}

	if errors.Is(err, errors.ErrRenewalRejected) {
		m.ForceSignOut()
	}
	return tok, err
}

// renewOnce calls the renewer with a deadline that the leader's own
// cancellation cannot cut short, since waiters depend on the outcome.
func (m *Manager) renewOnce(ctx context.Context) (*oauth2.Token, error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.renewalTimeout)
	defer cancel()

	tok, err := m.renewer.Renew(rctx)
	if err == nil && (tok == nil || tok.AccessToken == "") {
		err = pkgerrors.New("refresh response carried no access token")
	}
	if err != nil {
		err = m.classify(err)
		if errors.Is(err, errors.ErrRenewalRejected) {
			m.metrics.Renewals.WithLabelValues(OutcomeRejected).Inc()
			m.log.Warn().Err(err).Msg("Refresh credential rejected")
		} else {
			m.metrics.Renewals.WithLabelValues(OutcomeTransient).Inc()
			m.log.Err(err).Msg("Renewal failed")
		}
		return nil, err
	}

	m.metrics.Renewals.WithLabelValues(OutcomeSuccess).Inc()
	m.log.Debug().Time("expiry", tok.Expiry).Msg("Access credential renewed")
	return tok, nil
}

func (m *Manager) classify(err error) error {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if _, ok := m.invalidStatuses[sc.StatusCode()]; ok {
			return fmt.Errorf("%w: %w", errors.ErrRenewalRejected, err)
		}
	}
	return fmt.Errorf("%w: %w", errors.ErrRenewalTransient, err)
}

// Renewing reports whether a renewal is in flight
func (m *Manager) Renewing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renewing
}

// Waiting returns the number of callers queued on the in-flight renewal
func (m *Manager) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// ForceSignOut ends the session involuntarily and navigates to the sign-in
// screen with the force marker. Only the first call after a live session does
// anything; it reports whether this call was that one.
func (m *Manager) ForceSignOut() bool {
	if !m.store.ForceLogout() {
		return false
	}
	m.metrics.ForcedSignOuts.Inc()
	target := m.SignInURL(true)
	m.log.Warn().Str("target", target).Msg("Session ended, redirecting to sign-in")
	if m.navigator != nil {
		m.navigator.Navigate(target)
	}
	return true
}

// SignInURL returns the sign-in path, marked as involuntary when forced
func (m *Manager) SignInURL(forced bool) string {
	if !forced {
		return m.signInPath
	}
	return m.signInPath + "?" + url.Values{ForceQueryParam: {"true"}}.Encode()
}

// CompleteLogin stores the credential from a successful login and records
// durably that this profile has authenticated.
func (m *Manager) CompleteLogin(tok *oauth2.Token) {
	m.store.StartSession(tok)
	m.store.MarkAuthenticated()
}

// SignOut clears local state after an explicit logout, whatever the backend
// answered: the credential and authenticated mark go, and further protected
// requests are blocked until the next login.
func (m *Manager) SignOut() {
	m.store.SetCredential(nil)
	m.store.ClearAuthenticatedMark()
	m.store.ForceLogout()
}

func statusSet(statuses []int) map[int]struct{} {
	set := make(map[int]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}
