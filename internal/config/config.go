// Package config loads the gateway's process configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/gsarma/socialgate/internal/platform"
)

// Credentials are the OAuth client credentials of one platform.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Config holds all application configuration.
type Config struct {
	// HTTP server
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration

	// Outbound provider calls
	HTTPClientTimeout time.Duration

	// OAuth
	TwitterCodeVerifier string
	StateSecret         string // hex-encoded 32 bytes; random per process when empty
	StateTTL            time.Duration
	Platforms           map[platform.Name]Credentials

	// Instagram video containers
	InstagramPollInterval time.Duration
	InstagramPollAttempts int

	// Audit store, disabled when DatabaseURL is empty
	DatabaseURL    string
	AuditQueueSize int
	AuditWorkers   int
	AdminAPIKey    string

	// Logging
	LogLevel  string
	LogFormat string
}

// DefaultTwitterCodeVerifier is the verifier used when a twitter exchange
// request carries neither a verifier nor a sealed state.
const DefaultTwitterCodeVerifier = "challenge"

// Load reads configuration from environment variables.
// It loads a .env file first if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		GinMode:             getEnv("GIN_MODE", "release"),
		TwitterCodeVerifier: getEnv("TWITTER_CODE_VERIFIER", DefaultTwitterCodeVerifier),
		StateSecret:         getEnv("STATE_SECRET", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		AdminAPIKey:         getEnv("ADMIN_API_KEY", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		Platforms:           make(map[platform.Name]Credentials),
	}

	var err error
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.HTTPClientTimeout, err = getDuration("HTTP_CLIENT_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.StateTTL, err = getDuration("STATE_TTL", "10m"); err != nil {
		return nil, err
	}
	if cfg.InstagramPollInterval, err = getDuration("INSTAGRAM_POLL_INTERVAL", "2s"); err != nil {
		return nil, err
	}
	if cfg.InstagramPollAttempts, err = getInt("INSTAGRAM_POLL_ATTEMPTS", "10"); err != nil {
		return nil, err
	}

	if cfg.AuditQueueSize, err = getInt("AUDIT_QUEUE_SIZE", "256"); err != nil {
		return nil, err
	}
	if cfg.AuditWorkers, err = getInt("AUDIT_WORKERS", "2"); err != nil {
		return nil, err
	}

	for _, name := range platform.Names() {
		prefix := name.EnvPrefix()
		clientID := getEnv(prefix+"_CLIENT_ID", "")
		if clientID == "" {
			clientID = getEnv("VITE_"+prefix+"_CLIENT_ID", "")
		}
		cfg.Platforms[name] = Credentials{
			ClientID:     clientID,
			ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		}
	}

	return cfg, nil
}

// PlatformConfigs returns the production platform table with the loaded
// credentials applied.
func (c *Config) PlatformConfigs() []platform.Config {
	out := make([]platform.Config, 0, len(c.Platforms))
	for _, name := range platform.Names() {
		creds := c.Platforms[name]
		out = append(out, platform.Default(name, creds.ClientID, creds.ClientSecret))
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key, defaultValue string) (int, error) {
	n, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func getDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
