package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`

	// Transactional email provider configuration
	Email EmailConfig `env:",prefix=RESEND_"`

	// Reconciliation sweep configuration
	Reconcile ReconcileConfig `env:",prefix=RECONCILE_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=textclaim"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=25"`
	MinConns int    `env:"MIN_CONNS,default=5"`
	Migrate  bool   `env:"MIGRATE,default=false"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	Debug       bool   `env:"DEBUG,default=false"`
}

// EmailConfig holds the transactional email provider settings.
// An empty APIKey disables delivery.
type EmailConfig struct {
	APIKey    string `env:"API_KEY"`
	APIURL    string `env:"API_URL,default=https://api.resend.com/emails"`
	FromEmail string `env:"FROM_EMAIL,default=notifications@example.com"`
	ToEmail   string `env:"TO_EMAIL"`
	Timeout   int    `env:"TIMEOUT,default=10"` // seconds
}

// ReconcileConfig holds settings for the reconciliation sweep
type ReconcileConfig struct {
	ClaimGrace          int  `env:"CLAIM_GRACE,default=300"` // seconds
	ResendNotifications bool `env:"RESEND_NOTIFICATIONS,default=true"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith loads configuration from the given lookuper
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Recipient returns the administrator address, falling back to the sender
func (c *EmailConfig) Recipient() string {
	if c.ToEmail != "" {
		return c.ToEmail
	}
	return c.FromEmail
}

// RequestTimeout returns the outbound request timeout
func (c *EmailConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GracePeriod returns how long a claimed text may stay unlinked before the
// sweep releases it
func (c *ReconcileConfig) GracePeriod() time.Duration {
	return time.Duration(c.ClaimGrace) * time.Second
}
