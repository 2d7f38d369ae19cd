// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the symmetric secret for HS256 session tokens.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTMaxAgeSeconds is the session token lifetime in seconds. The token
	// and workspace cookies carry the same max-age.
	JWTMaxAgeSeconds int `mapstructure:"JWT_MAXAGE"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// FrontendBaseURL is the web app origin used in mail links and CORS.
	FrontendBaseURL string `mapstructure:"FRONTEND_BASE_URL"`
	// BackendBaseURL is this API's public base URL, used in verification links.
	BackendBaseURL string `mapstructure:"BACKEND_BASE_URL"`

	// MailFromAddress is the From address for outgoing mail. Empty disables
	// delivery (mail is logged instead, for local development).
	MailFromAddress string `mapstructure:"MAIL_FROM_ADDRESS"`
	// MailAWSRegion is the SES region (e.g. eu-central-1).
	MailAWSRegion string `mapstructure:"MAIL_AWS_REGION"`
	// MailAWSAccessKey / MailAWSSecretKey are optional static SES credentials;
	// when empty the default AWS credential chain is used.
	MailAWSAccessKey string `mapstructure:"MAIL_AWS_ACCESS_KEY"`
	MailAWSSecretKey string `mapstructure:"MAIL_AWS_SECRET_KEY"`

	// OTLPEndpoint enables OpenTelemetry export when set (host:port of an
	// OTLP gRPC collector). Empty means no-op telemetry.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext OTLP connection for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored (e.g. in CI). Env vars
// override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_MAXAGE", 3600)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("MAIL_FROM_ADDRESS", "")
	v.SetDefault("MAIL_AWS_REGION", "eu-central-1")
	v.SetDefault("MAIL_AWS_ACCESS_KEY", "")
	v.SetDefault("MAIL_AWS_SECRET_KEY", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}
	if cfg.JWTMaxAgeSeconds <= 0 {
		return nil, errors.New("config: JWT_MAXAGE must be a positive number of seconds")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// TokenTTL returns the session token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTMaxAgeSeconds) * time.Second
}
