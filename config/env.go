package config

import (
	"os"
	"strings"
)

// Environment is the deployment the server runs in
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads ENV. CI=true wins over it.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}
	return ParseEnvironment(os.Getenv("ENV"))
}

// ParseEnvironment maps an ENV value to an Environment. Unknown and empty
// values are development.
func ParseEnvironment(value string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(value))); env {
	case Test, CI, Production:
		return env
	case "prod":
		return Production
	default:
		return Development
	}
}

// IsProduction reports whether the server runs in production
func IsProduction() bool {
	return GetEnvironment() == Production
}
