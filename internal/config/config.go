package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ignission/soloday-sub001/internal/crypto"
)

type Config struct {
	DatabasePath       string
	MasterKey          string
	MasterPassphrase   string
	MasterKeySalt      string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	ICSFeedURL         string
	ICSFeedName        string
	RequestTimeout     time.Duration
	TokenSkew          time.Duration
	LogLevel           string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabasePath:       getenvDefault("SOLODAY_DB_PATH", "soloday.db"),
		MasterKey:          strings.TrimSpace(os.Getenv("SOLODAY_MASTER_KEY")),
		MasterPassphrase:   os.Getenv("SOLODAY_MASTER_PASSPHRASE"),
		MasterKeySalt:      strings.TrimSpace(os.Getenv("SOLODAY_MASTER_KEY_SALT")),
		GoogleClientID:     strings.TrimSpace(os.Getenv("SOLODAY_GOOGLE_CLIENT_ID")),
		GoogleClientSecret: strings.TrimSpace(os.Getenv("SOLODAY_GOOGLE_CLIENT_SECRET")),
		GoogleRedirectURL:  getenvDefault("SOLODAY_GOOGLE_REDIRECT_URL", "http://localhost:8080/oauth/callback"),
		ICSFeedURL:         strings.TrimSpace(os.Getenv("SOLODAY_ICS_URL")),
		ICSFeedName:        strings.TrimSpace(os.Getenv("SOLODAY_ICS_NAME")),
		RequestTimeout:     getenvDuration("SOLODAY_REQUEST_TIMEOUT", 15*time.Second),
		TokenSkew:          getenvDuration("SOLODAY_TOKEN_SKEW", 5*time.Minute),
		LogLevel:           getenvDefault("SOLODAY_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("SOLODAY_DB_PATH is required")
	}
	if c.MasterKey == "" && c.MasterPassphrase == "" {
		return errors.New("either SOLODAY_MASTER_KEY or SOLODAY_MASTER_PASSPHRASE is required")
	}
	if c.MasterKey != "" && c.MasterPassphrase != "" {
		return errors.New("SOLODAY_MASTER_KEY and SOLODAY_MASTER_PASSPHRASE are mutually exclusive")
	}
	if c.MasterPassphrase != "" && c.MasterKeySalt == "" {
		return errors.New("SOLODAY_MASTER_KEY_SALT is required when a passphrase is used")
	}
	if c.MasterKey != "" {
		if _, err := crypto.ImportKey(c.MasterKey); err != nil {
			return fmt.Errorf("SOLODAY_MASTER_KEY: %w", err)
		}
	}
	if c.RequestTimeout < 10*time.Second || c.RequestTimeout > 30*time.Second {
		return errors.New("request timeout must be between 10s and 30s")
	}
	if c.TokenSkew <= 0 {
		return errors.New("token skew must be > 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

// MasterKeyBytes resolves the configured key material: the hex key verbatim,
// or a key derived from the passphrase and salt.
func (c Config) MasterKeyBytes() ([]byte, error) {
	if c.MasterKey != "" {
		return crypto.ImportKey(c.MasterKey)
	}
	return crypto.KeyFromPassphrase(c.MasterPassphrase, c.MasterKeySalt), nil
}

func getenvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
