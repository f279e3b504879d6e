package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// APIBaseURL is the inventory API the transport client talks to.
	APIBaseURL string `env:"API_BASE_URL, default=http://localhost:9000"`
	// RefreshURL is the identity service's token refresh endpoint.
	RefreshURL string `env:"REFRESH_URL, default=http://localhost:9100/auth/refresh"`
	// LandingPath is where the gate sends an authenticated visit to the
	// login surface.
	LandingPath string `env:"LANDING_PATH, default=/dashboard"`

	Store StoreConfig
	Redis RedisConfig
}

type StoreConfig struct {
	// Backend selects the credential store adapter: "file" or "redis".
	Backend string `env:"STORE_BACKEND, default=file"`
	// File is the credential file path for the file backend.
	File string `env:"CREDENTIAL_FILE, default=./data/credentials.json"`
	// Profile scopes the redis backend's keys, one per browser profile
	// equivalent.
	Profile string `env:"SESSION_PROFILE, default=default"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
