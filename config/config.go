package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth modes select how sessions are resolved.
const (
	AuthModeRemote = "remote"
	AuthModeJWT    = "jwt"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	AuditDatabase *DatabaseConfig // Optional: separate DB for audit logs. When nil, audit uses main DB.
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
	FrontendURL   string
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds identity provider settings
type AuthConfig struct {
	Mode      string        // remote or jwt
	BaseURL   string        // identity provider origin, remote mode
	Timeout   time.Duration // per session lookup
	JWTSecret string        // HS256 key, jwt mode
	JWTIssuer string        // expected iss claim; empty skips the check
}

// RateLimitConfig holds the per-IP request budget
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// AuditConfig sizes the asynchronous audit pipeline
type AuditConfig struct {
	BufferSize  int
	WorkerCount int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnvironment(),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database:      loadDatabaseConfig(),
		AuditDatabase: loadAuditDatabaseConfig(),
		Auth: AuthConfig{
			Mode:      strings.ToLower(getEnv("AUTH_MODE", AuthModeRemote)),
			BaseURL:   strings.TrimRight(getEnv("AUTH_BASE_URL", ""), "/"),
			Timeout:   getEnvAsDuration("AUTH_TIMEOUT", 5*time.Second),
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer: getEnv("AUTH_JWT_ISSUER", ""),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Audit: AuditConfig{
			BufferSize:  getEnvAsInt("AUDIT_BUFFER_SIZE", 10000),
			WorkerCount: getEnvAsInt("AUDIT_WORKERS", 5),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	switch c.Auth.Mode {
	case AuthModeRemote:
		if c.Auth.BaseURL == "" {
			return fmt.Errorf("AUTH_BASE_URL is required when AUTH_MODE=%s", AuthModeRemote)
		}
		if _, err := url.ParseRequestURI(c.Auth.BaseURL); err != nil {
			return fmt.Errorf("invalid AUTH_BASE_URL: %w", err)
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=%s", AuthModeJWT)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q: expected %s or %s", c.Auth.Mode, AuthModeRemote, AuthModeJWT)
	}
	if c.Auth.Timeout <= 0 {
		return fmt.Errorf("AUTH_TIMEOUT must be positive")
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}

	if c.Audit.BufferSize <= 0 || c.Audit.WorkerCount <= 0 {
		return fmt.Errorf("audit buffer size and worker count must be positive")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

func loadDatabaseConfig() DatabaseConfig {
	pool := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		pool.ConnectionString = dbURL
		return pool
	}
	pool.Host = getEnv("DB_HOST", "")
	pool.Port = getEnvAsInt("DB_PORT", 5432)
	pool.User = getEnv("DB_USER", "")
	pool.Password = getEnv("DB_PASSWORD", "")
	pool.Database = getEnv("DB_NAME", "")
	pool.SSLMode = getEnv("DB_SSLMODE", "disable")
	return pool
}

// loadAuditDatabaseConfig loads audit DB config from DATABASE_URL_AUDIT.
// Returns nil when not set (audit uses main DB).
func loadAuditDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL_AUDIT", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getEnvironment reads ENVIRONMENT, falling back to NODE_ENV for
// deployments shared with the identity provider.
func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return getEnv("NODE_ENV", "development")
}

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 3000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 3000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
