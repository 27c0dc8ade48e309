package config

type GatewayConfig interface {
	GetLoginRatePerMinute() int
	GetLoginBurst() int
	GetPublicPaths() []string
	GetGuardedPrefixes() []string
	GetHomePath() string
}

type Gateway struct{}

var _ GatewayConfig = Gateway{}

func (Gateway) GetLoginRatePerMinute() int {
	return GetEnvInt("LOGIN_RATE_PER_MINUTE", 10)
}

func (Gateway) GetLoginBurst() int {
	return GetEnvInt("LOGIN_BURST", 5)
}

func (Gateway) GetPublicPaths() []string {
	return []string{"/login", "/register"}
}

func (Gateway) GetGuardedPrefixes() []string {
	return []string{"/dashboard", "/management", "/profile"}
}

func (Gateway) GetHomePath() string {
	return "/dashboard"
}
