package devbackend

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-admin-console/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// accessClaims are the claims of an issued access token
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Epoch int64  `json:"epoch"`
	jwtlib.RegisteredClaims
}

// issuer signs and verifies HS256 access tokens
type issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string

	mu      sync.RWMutex
	epoch   int64
	revoked map[string]time.Time // jti to token expiry
}

func newIssuer(secret string, ttl time.Duration) *issuer {
	return &issuer{
		secret:  []byte(secret),
		ttl:     ttl,
		issuer:  "devbackend",
		revoked: make(map[string]time.Time),
	}
}

func (i *issuer) issue(account *Account) (string, error) {
	now := NowTimeFunc()
	i.mu.RLock()
	epoch := i.epoch
	i.mu.RUnlock()

	claims := accessClaims{
		Email: account.Email,
		Role:  account.RoleID,
		Epoch: epoch,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   account.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// verify returns the claims of a valid, unrevoked token from the current epoch
func (i *issuer) verify(raw string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		return i.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(i.issuer),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "access token: %v", err)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if claims.Epoch != i.epoch {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "access token from an earlier epoch")
	}
	if _, ok := i.revoked[claims.ID]; ok {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "access token revoked")
	}
	return claims, nil
}

// revoke rejects the token with this jti until it would have expired anyway
func (i *issuer) revoke(claims *accessClaims) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cleanup()
	if claims.ExpiresAt != nil {
		i.revoked[claims.ID] = claims.ExpiresAt.Time
	}
}

func (i *issuer) cleanup() {
	now := NowTimeFunc()
	for jti, exp := range i.revoked {
		if now.After(exp) {
			delete(i.revoked, jti)
		}
	}
}

// expireAll invalidates every access token issued so far
func (i *issuer) expireAll() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.epoch++
}

type storedRefreshToken struct {
	Token  string
	UserID string
	Iat    time.Time
}

// refreshTokens issues opaque refresh tokens and rotates them on use
type refreshTokens struct {
	mu      sync.Mutex
	length  int
	ttl     time.Duration
	byToken map[string]*storedRefreshToken
}

func newRefreshTokens(length int, ttl time.Duration) *refreshTokens {
	return &refreshTokens{
		length:  length,
		ttl:     ttl,
		byToken: make(map[string]*storedRefreshToken),
	}
}

// create issues a refresh token for userID. A user may hold several, one per
// signed-in device.
func (r *refreshTokens) create(userID string) (string, error) {
	tokenBytes := make([]byte, r.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[token] = &storedRefreshToken{Token: token, UserID: userID, Iat: NowTimeFunc()}
	return token, nil
}

// rotate consumes token and issues its replacement
func (r *refreshTokens) rotate(token string) (newToken, userID string, err error) {
	r.mu.Lock()
	stored, ok := r.byToken[token]
	if ok {
		delete(r.byToken, token)
	}
	r.mu.Unlock()

	if !ok {
		return "", "", errors.Wrapf(errors.ErrUnauthorized, "unknown refresh token")
	}
	if NowTimeFunc().Sub(stored.Iat) > r.ttl {
		return "", "", errors.Wrapf(errors.ErrUnauthorized, "refresh token expired")
	}
	newToken, err = r.create(stored.UserID)
	if err != nil {
		return "", "", err
	}
	return newToken, stored.UserID, nil
}

func (r *refreshTokens) revoke(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byToken, token)
}

func (r *refreshTokens) revokeUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, stored := range r.byToken {
		if stored.UserID == userID {
			delete(r.byToken, token)
		}
	}
}

func (r *refreshTokens) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}
