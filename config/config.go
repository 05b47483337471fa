package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultMealDBURL is the public TheMealDB v1 endpoint with the test API key.
const DefaultMealDBURL = "https://www.themealdb.com/api/json/v1/1/"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string `yaml:"server_port"`
	ServerHost string `yaml:"server_host"`

	// Upstream API configuration
	MealDBURL         string        `yaml:"mealdb_url"`
	MealDBTimeout     time.Duration `yaml:"mealdb_timeout"`
	MealDBRPS         float64       `yaml:"mealdb_rps"`
	MealDBBurst       int           `yaml:"mealdb_burst"`
	ReferenceCacheTTL time.Duration `yaml:"reference_cache_ttl"`

	// Redis configuration, optional. Empty host and URL disable Redis.
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"redis_db"`
	RedisURL      string `yaml:"redis_url"`

	// Search history database
	DBDriver   string `yaml:"db_driver"`
	DBPath     string `yaml:"db_path"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"-"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_ssl_mode"`

	// Origins allowed to call the JSON API, empty allows all
	CORSOrigins []string `yaml:"cors_origins"`

	RateLimitPerMinute int  `yaml:"rate_limit_per_minute"`
	Debug              bool `yaml:"debug"`
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() *Config {
	return &Config{
		ServerPort:         "8080",
		ServerHost:         "0.0.0.0",
		MealDBURL:          DefaultMealDBURL,
		MealDBTimeout:      10 * time.Second,
		MealDBRPS:          5,
		MealDBBurst:        10,
		ReferenceCacheTTL:  6 * time.Hour,
		RedisPort:          "6379",
		DBDriver:           "sqlite",
		DBPath:             "mealbrowser.db",
		DBPort:             "5432",
		DBSSLMode:          "disable",
		RateLimitPerMinute: 120,
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// a .env file in development, environment variables and Docker secrets, in
// that order of precedence (later wins).
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := Defaults()

	if path := os.Getenv("MEALBROWSER_CONFIG"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if env == Development {
		// .env is optional, a missing file is not an error
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}
	loadSecrets(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return c.ServerHost + ":" + c.ServerPort
}

// RedisEnabled reports whether a Redis endpoint was configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// PostgresDSN builds the connection string for the postgres driver
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.ServerHost, "SERVER_HOST")
	setString(&cfg.MealDBURL, "MEALDB_URL")
	setString(&cfg.RedisHost, "REDIS_HOST")
	setString(&cfg.RedisPort, "REDIS_PORT")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.DBDriver, "DB_DRIVER")
	setString(&cfg.DBPath, "DB_PATH")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.DBSSLMode, "DB_SSL_MODE")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	if err := setDuration(&cfg.MealDBTimeout, "MEALDB_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.ReferenceCacheTTL, "REFERENCE_CACHE_TTL"); err != nil {
		return err
	}
	if v := os.Getenv("MEALDB_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MEALDB_RPS %q: %w", v, err)
		}
		cfg.MealDBRPS = rps
	}
	if err := setInt(&cfg.MealDBBurst, "MEALDB_BURST"); err != nil {
		return err
	}
	if err := setInt(&cfg.RedisDB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&cfg.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE"); err != nil {
		return err
	}
	if v := os.Getenv("DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}
	return nil
}

// loadSecrets fills the sensitive values from Docker secrets when they were
// not provided through the environment
func loadSecrets(cfg *Config) {
	if cfg.RedisPassword == "" {
		cfg.RedisPassword = readSecret("redis_password")
	}
	if cfg.DBPassword == "" {
		cfg.DBPassword = readSecret("db_password")
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
