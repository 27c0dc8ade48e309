package config

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	GatewayConfig
	DevBackendConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetAPIBaseURL() string
	GetLogLevel() string
	GetDefaultLocale() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Gateway
	DevBackend
}

func New() Config {
	return mainConfig{}
}
