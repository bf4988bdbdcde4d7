package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Stripe   StripeConfig
	Webhook  WebhookConfig
	CORS     CORSConfig
	Redis    RedisConfig
	Catalog  CatalogConfig
	S3       S3Config
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
	// PublicBaseURL is the externally visible origin used for redirect and image URLs.
	// When empty it is derived from each request.
	PublicBaseURL string
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	QueryTimeout    time.Duration
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration for the admin endpoints.
type AuthConfig struct {
	AdminAPIKey string
}

// StripeConfig holds payment provider configuration.
type StripeConfig struct {
	SecretKey       string
	APIURL          string
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

// WebhookConfig holds completion event handling configuration.
type WebhookConfig struct {
	// SigningSecret is optional. Without it events are parsed unauthenticated.
	SigningSecret string
	Tolerance     time.Duration
	// AckOnRecordFailure acknowledges an event even when the order could not be persisted,
	// trading a possibly lost order for no redelivery storm.
	AckOnRecordFailure bool
	// Deduplicate records each provider event id at most once.
	Deduplicate bool
}

// CORSConfig holds the cross-origin allow-list.
type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig holds the optional catalogue cache configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// CatalogConfig holds the seed catalogue source configuration.
type CatalogConfig struct {
	SeedFile string
}

// S3Config holds AWS S3 configuration for the seed catalogue.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "catalog/")
}

// Load loads configuration from environment variables, reading a .env file first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Host:          v.GetString("SERVER_HOST"),
			Port:          v.GetInt("SERVER_PORT"),
			PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			MaxConnections:  v.GetInt("DB_MAX_CONNECTIONS"),
			MinConnections:  v.GetInt("DB_MIN_CONNECTIONS"),
			MaxConnLifetime: v.GetInt("DB_MAX_CONN_LIFETIME"),
			QueryTimeout:    v.GetDuration("DB_QUERY_TIMEOUT"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: AuthConfig{
			AdminAPIKey: v.GetString("ADMIN_API_KEY"),
		},
		Stripe: StripeConfig{
			SecretKey:       v.GetString("STRIPE_SECRET_KEY"),
			APIURL:          v.GetString("STRIPE_API_URL"),
			Timeout:         v.GetDuration("STRIPE_TIMEOUT"),
			BreakerFailures: v.GetInt("STRIPE_BREAKER_FAILURES"),
			BreakerCooldown: v.GetDuration("STRIPE_BREAKER_COOLDOWN"),
		},
		Webhook: WebhookConfig{
			SigningSecret:      v.GetString("STRIPE_WEBHOOK_SECRET"),
			Tolerance:          v.GetDuration("WEBHOOK_TOLERANCE"),
			AckOnRecordFailure: v.GetBool("WEBHOOK_ACK_ON_RECORD_FAILURE"),
			Deduplicate:        v.GetBool("WEBHOOK_DEDUPLICATE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CLIENT_ORIGINS")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("CATALOG_CACHE_TTL"),
		},
		Catalog: CatalogConfig{
			SeedFile: v.GetString("CATALOG_SEED_FILE"),
		},
		S3: S3Config{
			Enabled: v.GetBool("S3_ENABLED"),
			Bucket:  v.GetString("S3_BUCKET"),
			Region:  v.GetString("S3_REGION"),
			Prefix:  v.GetString("S3_PREFIX"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 3000)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "storefront")
	v.SetDefault("DB_MAX_CONNECTIONS", 25)
	v.SetDefault("DB_MIN_CONNECTIONS", 5)
	v.SetDefault("DB_MAX_CONN_LIFETIME", 300)
	v.SetDefault("DB_QUERY_TIMEOUT", 5*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STRIPE_TIMEOUT", 10*time.Second)
	v.SetDefault("STRIPE_BREAKER_FAILURES", 5)
	v.SetDefault("STRIPE_BREAKER_COOLDOWN", 30*time.Second)
	v.SetDefault("WEBHOOK_TOLERANCE", 5*time.Minute)
	v.SetDefault("WEBHOOK_ACK_ON_RECORD_FAILURE", true)
	v.SetDefault("WEBHOOK_DEDUPLICATE", false)
	v.SetDefault("CLIENT_ORIGINS", "http://localhost:5173")
	v.SetDefault("CATALOG_CACHE_TTL", 5*time.Minute)
	v.SetDefault("S3_ENABLED", false)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_PREFIX", "catalog/")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database query timeout must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Stripe.Timeout <= 0 {
		return fmt.Errorf("stripe timeout must be positive")
	}

	if c.Stripe.BreakerFailures < 1 {
		return fmt.Errorf("stripe breaker failures must be at least 1")
	}

	if c.Stripe.BreakerCooldown <= 0 {
		return fmt.Errorf("stripe breaker cooldown must be positive")
	}

	if c.Webhook.Tolerance <= 0 {
		return fmt.Errorf("webhook tolerance must be positive")
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one client origin is required")
	}

	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		return fmt.Errorf("catalog cache TTL must be positive when Redis is enabled")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
