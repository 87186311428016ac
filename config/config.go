package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string
	LoginURL       string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Media storage configuration
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	MediaBaseURL string

	// DraftTTL bounds how long an unsaved editor session is kept.
	DraftTTL time.Duration
}

// Database drivers understood by database.New
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// sensitiveKeys never come from plain environment variables outside CI.
var sensitiveKeys = map[string]bool{
	"db_password":    true,
	"jwt_secret":     true,
	"redis_password": true,
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Environment: env}

	// Load configuration based on environment
	switch env {
	case CI:
		populate(cfg, envValue)
	case Development, Test:
		populate(cfg, func(key string) string {
			if v := envValue(key); v != "" {
				return v
			}
			return readSecret(key)
		})
	case Production:
		populate(cfg, func(key string) string {
			if v := readSecret(key); v != "" || sensitiveKeys[key] {
				return v
			}
			return envValue(key)
		})
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}
	applyDefaults(cfg)

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// populate fills cfg from a lookup keyed by lower-case secret names.
func populate(cfg *Config, get func(key string) string) {
	cfg.ServerPort = get("server_port")
	cfg.ServerHost = get("server_host")
	cfg.AllowedOrigins = splitList(get("allowed_origins"))
	cfg.LoginURL = get("login_url")

	cfg.DBDriver = strings.ToLower(get("db_driver"))
	cfg.DBHost = get("db_host")
	cfg.DBPort = get("db_port")
	cfg.DBUser = get("db_user")
	cfg.DBPassword = get("db_password")
	cfg.DBName = get("db_name")
	cfg.DBSSLMode = get("db_ssl_mode")
	cfg.SQLitePath = get("sqlite_path")

	cfg.RedisHost = get("redis_host")
	cfg.RedisPort = get("redis_port")
	cfg.RedisPassword = get("redis_password")
	cfg.RedisURL = get("redis_url")
	if db, err := strconv.Atoi(get("redis_db")); err == nil {
		cfg.RedisDB = db
	}

	cfg.JWTSecret = get("jwt_secret")

	cfg.S3Bucket = get("s3_bucket_name")
	cfg.S3Region = get("aws_region")
	cfg.S3Endpoint = get("s3_endpoint")
	cfg.MediaBaseURL = strings.TrimRight(get("media_base_url"), "/")

	if ttl, err := time.ParseDuration(get("draft_ttl")); err == nil {
		cfg.DraftTTL = ttl
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.ServerHost == "" {
		cfg.ServerHost = "0.0.0.0"
	}
	if cfg.LoginURL == "" {
		cfg.LoginURL = "/login"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = DriverPostgres
	}
	if cfg.DBPort == "" {
		cfg.DBPort = "5432"
	}
	if cfg.DBSSLMode == "" {
		cfg.DBSSLMode = "disable"
	}
	if cfg.DBDriver == DriverSQLite && cfg.SQLitePath == "" {
		cfg.SQLitePath = "thorn.db"
	}
	if cfg.RedisPort == "" {
		cfg.RedisPort = "6379"
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	if cfg.MediaBaseURL == "" && cfg.S3Bucket != "" {
		cfg.MediaBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = 24 * time.Hour
	}
}

// MediaEnabled reports whether a media bucket is configured. Without one
// the upload route is not mounted.
func (c *Config) MediaEnabled() bool {
	return c.S3Bucket != ""
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// envValue reads the upper-case environment variable for a secret name
func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(strings.ToUpper(key)))
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
