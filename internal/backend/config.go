package backend

import (
	"fmt"
	"time"

	"fintrack/internal/config"
)

const (
	defaultMaxPendingLogins = 1000
	defaultCleanupInterval  = 5 * time.Minute
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	return Config{
		DSN: appConfig.DSN(),

		GoogleClientID:     appConfig.GoogleClientID,
		GoogleClientSecret: appConfig.GoogleClientSecret,
		OAuthRedirectURL:   appConfig.OAuthRedirectURL,

		SessionSecret: appConfig.SessionSecret,
		SessionTTL:    appConfig.SessionTTL,
		SecureCookies: appConfig.SecureCookies,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		MaxPendingLogins: defaultMaxPendingLogins,
		CleanupInterval:  defaultCleanupInterval,
	}, nil
}

// Validate checks the settings a Backend cannot be built without.
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database location is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("session secret is required")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}
