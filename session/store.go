package session

import (
	"strings"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/jrsteele09/go-admin-console/flags"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Store holds the access credential and the session flags.
// The credential lives in memory only, sealed in a memguard enclave; the
// loggedOut and wasAuthenticated flags are mirrored to a flags.Repo.
// Store methods never fail: persistence errors are logged.
type Store struct {
	mu         sync.Mutex
	credential *memguard.Enclave
	tokenType  string
	expiry     time.Time
	loggedOut  bool
	generation uint64

	repo        flags.Repo
	cookieProbe func() bool
	log         zerolog.Logger

	subscribers    map[int]func(*oauth2.Token)
	nextSubscriber int
}

var _ oauth2.TokenSource = (*Store)(nil)

// StoreOption configures a Store
type StoreOption func(*Store)

// WithRefreshCookieProbe sets the function reporting whether a refresh cookie
// appears to be present. Without it the cookie never counts as evidence.
func WithRefreshCookieProbe(probe func() bool) StoreOption {
	return func(s *Store) {
		s.cookieProbe = probe
	}
}

// WithStoreLogger overrides the default global logger
func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = logger
	}
}

// NewStore creates a Store over the durable flags in repo.
// The in-memory loggedOut flag starts from the durable one.
func NewStore(repo flags.Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, pkgerrors.New("[NewStore] flags repo is required")
	}
	s := &Store{
		repo:        repo,
		log:         log.Logger,
		subscribers: make(map[int]func(*oauth2.Token)),
	}
	for _, opt := range options {
		opt(s)
	}
	s.loggedOut = flags.Bool(repo, flags.KeyLoggedOut)
	return s, nil
}

// SetCredential replaces the access credential. A nil or empty token clears it.
// A non-empty token also clears the logged out flag, in memory and durably,
// and is announced to subscribers.
func (s *Store) SetCredential(tok *oauth2.Token) {
	s.setCredential(tok, nil)
}

// SetCredentialFor stores tok only if the session is still generation gen and
// has not been logged out meanwhile, here or by another process. It reports
// whether tok was stored.
func (s *Store) SetCredentialFor(gen uint64, tok *oauth2.Token) bool {
	return s.setCredential(tok, &gen)
}

// StartSession begins a new session generation holding tok
func (s *Store) StartSession(tok *oauth2.Token) {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
	s.SetCredential(tok)
}

// Generation identifies the current session. It changes on every login and
// logout, so work started in one session can tell that it has ended.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Store) setCredential(tok *oauth2.Token, gen *uint64) bool {
	s.mu.Lock()
	if gen != nil && (*gen != s.generation || s.loggedOut || flags.Bool(s.repo, flags.KeyLoggedOut)) {
		s.mu.Unlock()
		return false
	}
	if tok == nil || tok.AccessToken == "" {
		s.clearCredentialLocked()
		s.mu.Unlock()
		return true
	}

	s.credential = memguard.NewEnclave([]byte(tok.AccessToken))
	s.tokenType = tok.Type()
	s.expiry = tok.Expiry
	s.loggedOut = false
	s.persistBool(flags.KeyLoggedOut, false)

	subscribers := make([]func(*oauth2.Token), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(tok)
	}
	return true
}

// Credential returns a copy of the current access credential, or nil.
func (s *Store) Credential() *oauth2.Token {
	s.mu.Lock()
	enclave, tokenType, expiry := s.credential, s.tokenType, s.expiry
	s.mu.Unlock()

	if enclave == nil {
		return nil
	}
	buf, err := enclave.Open()
	if err != nil {
		s.log.Err(err).Msg("Failed to open credential enclave")
		return nil
	}
	defer buf.Destroy()

	return &oauth2.Token{
		AccessToken: strings.Clone(buf.String()),
		TokenType:   tokenType,
		Expiry:      expiry,
	}
}

// Token implements oauth2.TokenSource over the in-memory credential.
func (s *Store) Token() (*oauth2.Token, error) {
	tok := s.Credential()
	if tok == nil {
		return nil, errors.ErrNoSession
	}
	return tok, nil
}

// MarkAuthenticated records durably that a login has succeeded
func (s *Store) MarkAuthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistBool(flags.KeyWasLoggedIn, true)
}

// ClearAuthenticatedMark forgets that a login has ever succeeded
func (s *Store) ClearAuthenticatedMark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistBool(flags.KeyWasLoggedIn, false)
}

// WasAuthenticated reports the durable "was logged in" flag
func (s *Store) WasAuthenticated() bool {
	return flags.Bool(s.repo, flags.KeyWasLoggedIn)
}

// LoggedOut reports whether authenticated requests are suppressed.
// The durable flag is consulted too since another process may have set it.
func (s *Store) LoggedOut() bool {
	s.mu.Lock()
	loggedOut := s.loggedOut
	s.mu.Unlock()
	return loggedOut || flags.Bool(s.repo, flags.KeyLoggedOut)
}

// ClearLoggedOut clears the logged out flag without touching the credential.
// Used once the backend has confirmed the session is genuine.
func (s *Store) ClearLoggedOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedOut = false
	s.persistBool(flags.KeyLoggedOut, false)
}

// HasPlausibleSession reports whether there is any evidence of a session worth
// asking the backend about: not logged out, and a refresh cookie, an access
// credential or a previous successful login.
func (s *Store) HasPlausibleSession() bool {
	if s.LoggedOut() {
		return false
	}
	if s.cookieProbe != nil && s.cookieProbe() {
		return true
	}
	s.mu.Lock()
	hasCredential := s.credential != nil
	s.mu.Unlock()
	return hasCredential || s.WasAuthenticated()
}

// ForceLogout sets the logged out flag, clears the credential and ends the
// session generation.
// It returns false when the session was already logged out, so callers can
// act only on the first transition.
func (s *Store) ForceLogout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.loggedOut || flags.Bool(s.repo, flags.KeyLoggedOut) {
		s.loggedOut = true
		s.clearCredentialLocked()
		return false
	}
	s.loggedOut = true
	s.persistBool(flags.KeyLoggedOut, true)
	s.clearCredentialLocked()
	return true
}

// Subscribe registers fn to receive every newly stored credential.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(*oauth2.Token)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubscriber
	s.nextSubscriber++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) clearCredentialLocked() {
	s.credential = nil
	s.tokenType = ""
	s.expiry = time.Time{}
}

func (s *Store) persistBool(key string, v bool) {
	if err := flags.SetBool(s.repo, key, v); err != nil {
		s.log.Err(err).Str("flag", key).Msg("Failed to persist session flag")
	}
}
