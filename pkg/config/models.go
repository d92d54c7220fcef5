package config

import "time"

type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Transport TransportConfig
}

type ServerConfig struct {
	Address         string
	AllowedOrigins  []string              `mapstructure:"allowedOrigins"`
	ConnectionLimit ConnectionLimitConfig `mapstructure:"connectionLimit"`
}

// BackendConfig points at the storefront backend used for token verification.
type BackendConfig struct {
	BaseURL       string        `mapstructure:"baseURL"`
	VerifyTimeout time.Duration `mapstructure:"verifyTimeout"`
}

type ConnectionLimitConfig struct {
	MaxPerUser int    `mapstructure:"maxPerUser"` // 0 disables limiting
	Mode       string `mapstructure:"mode"`       // "reject" or "cycle"
}

type TransportConfig struct {
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}
