// Package locale tracks the console's current UI language and renders it as the
// accept-language header sent with every API request.
package locale

import (
	"strings"
	"sync"

	"github.com/jrsteele09/go-admin-console/flags"
	"github.com/jrsteele09/go-admin-console/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// Supported lists the languages the console ships translations for.
var Supported = []language.Tag{
	language.English,
	language.Spanish,
	language.Indonesian,
}

var fullTags = map[string]language.Tag{
	"en": language.AmericanEnglish,
	"es": language.EuropeanSpanish,
	"id": language.MustParse("id-ID"),
}

var matcher = language.NewMatcher(Supported)

// FullTag maps a short language code to the region tag sent to the backend
// (en -> en-US). Codes without a mapping are returned unchanged.
func FullTag(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if full, ok := fullTags[tag.String()]; ok {
		return full.String()
	}
	return code
}

// Match picks the supported language code that best fits an Accept-Language
// header value, falling back to the first supported language.
func Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return baseCode(Supported[0])
	}
	_, index, _ := matcher.Match(tags...)
	return baseCode(Supported[index])
}

func baseCode(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Locale is the process wide language code. Changes apply to the next request.
type Locale struct {
	mu   sync.RWMutex
	code string
	repo flags.Repo
	log  zerolog.Logger
}

// Option configures a Locale
type Option func(*Locale)

// WithLogger overrides the default global logger
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Locale) {
		l.log = logger
	}
}

// New loads the durable locale flag from repo, using defaultCode when unset.
// A nil repo keeps the locale in memory only.
func New(repo flags.Repo, defaultCode string, options ...Option) *Locale {
	l := &Locale{
		code: defaultCode,
		repo: repo,
		log:  log.Logger,
	}
	for _, opt := range options {
		opt(l)
	}
	if repo != nil {
		l.code = flags.String(repo, flags.KeyLocale, defaultCode)
	}
	return l
}

// Set validates and stores code, persisting it when a repo is configured.
func (l *Locale) Set(code string) error {
	code = strings.TrimSpace(code)
	if _, err := language.Parse(code); err != nil {
		return errors.Wrapf(errors.ErrInvalidLocale, "%q", code)
	}

	l.mu.Lock()
	l.code = code
	l.mu.Unlock()

	if l.repo != nil {
		if err := l.repo.Set(flags.KeyLocale, code); err != nil {
			l.log.Err(err).Str("locale", code).Msg("Failed to persist locale")
		}
	}
	return nil
}

// Code returns the short language code (e.g. "en")
func (l *Locale) Code() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.code
}

// Header returns the accept-language header value for the current code
func (l *Locale) Header() string {
	return FullTag(l.Code())
}
