package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the configuration for values the server cannot start with
func ValidateConfig(cfg *Config) error {
	var errs []error

	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		errs = append(errs, ValidationError{Field: "SERVER_PORT", Message: "must be numeric"})
	}

	if u, err := url.Parse(cfg.MealDBURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{Field: "MEALDB_URL", Message: "must be an absolute URL"})
	}
	if cfg.MealDBTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "MEALDB_TIMEOUT", Message: "must be positive"})
	}
	if cfg.MealDBRPS <= 0 {
		errs = append(errs, ValidationError{Field: "MEALDB_RPS", Message: "must be positive"})
	}
	if cfg.MealDBBurst < 1 {
		errs = append(errs, ValidationError{Field: "MEALDB_BURST", Message: "must be at least 1"})
	}
	if cfg.RateLimitPerMinute < 1 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT_PER_MINUTE", Message: "must be at least 1"})
	}

	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DBPath == "" {
			errs = append(errs, ValidationError{Field: "DB_PATH", Message: "is required for the sqlite driver"})
		}
	case "postgres":
		if cfg.DBHost == "" || cfg.DBName == "" || cfg.DBUser == "" {
			errs = append(errs, ValidationError{Field: "DB_HOST", Message: "DB_HOST, DB_NAME and DB_USER are required for the postgres driver"})
		}
		// In production the password must come from the secret store
		if IsProduction() && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{Field: "db_password", Message: "secret is required in production"})
		}
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	return errors.Join(errs...)
}
