package config

import (
	"net/http"
	"time"
)

type SessionConfig interface {
	GetRenewalTimeout() time.Duration
	GetRequestTimeout() time.Duration
	GetSignInPath() string
	GetInvalidCredentialStatuses() []int
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetRenewalTimeout() time.Duration {
	return GetEnvDuration("RENEWAL_TIMEOUT", 10*time.Second)
}

func (Session) GetRequestTimeout() time.Duration {
	return GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
}

func (Session) GetSignInPath() string {
	return GetEnv("SIGN_IN_PATH", "/login")
}

// GetInvalidCredentialStatuses lists the refresh endpoint statuses that mean the
// refresh credential itself is invalid or revoked. Anything else is transient.
func (Session) GetInvalidCredentialStatuses() []int {
	return []int{http.StatusUnauthorized, http.StatusBadRequest}
}
