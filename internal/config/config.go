package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/storage"
)

// minSecretLength is the shortest SESSION_SECRET accepted for HS256 signing.
const minSecretLength = 32

type Config struct {
	// HTTP Server
	Port string

	// Database. DatabaseURL wins over SQLiteDBPath when both are set.
	DatabaseURL  string
	SQLiteDBPath string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool

	// AMQP, optional. Events are disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", storage.DefaultPath),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectURL:   getEnv("OAUTH_REDIRECT_URI", ""),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		SecureCookies: getEnvBool("COOKIE_SECURE", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DSN is the storage location handed to the gateway.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.SQLiteDBPath
}

// OAuthConfigured reports whether every Google OAuth setting is present.
func (c *Config) OAuthConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.OAuthRedirectURL != ""
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DSN() == "" {
		errors = append(errors, "database location cannot be empty: set DATABASE_URL or SQLITE_DB_PATH")
	} else if dir := filepath.Dir(storage.ResolvePath(c.DSN())); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	}

	if c.OAuthRedirectURL != "" {
		if u, err := url.Parse(c.OAuthRedirectURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid OAuth redirect URI '%s': %v", c.OAuthRedirectURL, err))
		} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid OAuth redirect URI '%s': must be an absolute http(s) URL", c.OAuthRedirectURL))
		}
	}

	if len(c.SessionSecret) < minSecretLength {
		errors = append(errors, fmt.Sprintf("SESSION_SECRET must be at least %d characters", minSecretLength))
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 90*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 90 days", c.SessionTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
