package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "configuration validation failed:\n" + strings.Join(msgs, "\n")
}

// requirements lists required settings per environment, by secret name.
var requirements = map[Environment][]string{
	Development: {"jwt_secret"},
	Test:        {"jwt_secret"},
	CI:          {"jwt_secret", "redis_url"},
	Production:  {"jwt_secret", "redis_password", "s3_bucket_name", "media_base_url"},
}

var postgresRequirements = []string{"db_host", "db_port", "db_user", "db_password", "db_name"}

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	values := map[string]string{
		"jwt_secret":     cfg.JWTSecret,
		"redis_url":      cfg.RedisURL,
		"redis_password": cfg.RedisPassword,
		"s3_bucket_name": cfg.S3Bucket,
		"media_base_url": cfg.MediaBaseURL,
		"db_host":        cfg.DBHost,
		"db_port":        cfg.DBPort,
		"db_user":        cfg.DBUser,
		"db_password":    cfg.DBPassword,
		"db_name":        cfg.DBName,
		"sqlite_path":    cfg.SQLitePath,
	}

	required := append([]string{}, requirements[cfg.Environment]...)
	switch cfg.DBDriver {
	case DriverPostgres:
		required = append(required, postgresRequirements...)
	case DriverSQLite:
		if cfg.Environment == Production {
			errs = append(errs, ValidationError{Field: "db_driver", Message: "sqlite is not supported in production"})
		}
		required = append(required, "sqlite_path")
	default:
		errs = append(errs, ValidationError{Field: "db_driver", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	for _, key := range required {
		if values[key] == "" {
			errs = append(errs, ValidationError{Field: key, Message: "required setting is not set"})
		}
	}

	if cfg.DraftTTL <= 0 {
		errs = append(errs, ValidationError{Field: "draft_ttl", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
