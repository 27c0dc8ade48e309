package config

import "time"

// DevBackendConfig configures the in-process development backend
type DevBackendConfig interface {
	GetSigningSecret() string
	GetRefreshTokenLength() int
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetAdminEmail() string
	GetAdminPassword() string
}

type DevBackend struct{}

var _ DevBackendConfig = DevBackend{}

func (DevBackend) GetSigningSecret() string {
	return GetEnv("DEV_SIGNING_SECRET", "dev-only-signing-secret")
}

func (DevBackend) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (DevBackend) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration("DEV_ACCESS_TOKEN_TTL", 15*time.Minute)
}

func (DevBackend) GetRefreshTokenExpiry() time.Duration {
	return GetEnvDuration("DEV_REFRESH_TOKEN_TTL", 7*24*time.Hour)
}

func (DevBackend) GetAdminEmail() string {
	return GetEnv("DEV_ADMIN_EMAIL", "admin@example.com")
}

func (DevBackend) GetAdminPassword() string {
	return GetEnv("DEV_ADMIN_PASSWORD", "Admin1234")
}
