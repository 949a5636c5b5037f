package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Registry backends
const (
	RegistryNone     = "none"
	RegistryPostgres = "postgres"
	RegistryRedis    = "redis"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Flights backend configuration
	FlightsAPI FlightsAPIConfig

	// Client identity cookie configuration
	Cookie CookieConfig

	// Search session configuration
	Session SessionConfig

	// Client registry configuration
	Registry RegistryConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// CORS configuration
	CORS CORSConfig

	// Tracing configuration
	Tracing TracingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// FlightsAPIConfig holds the flights backend settings
type FlightsAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CookieConfig holds the identity cookie settings
type CookieConfig struct {
	Secret string // HMAC key for signing the client id cookie
	Domain string
	Secure bool
}

// SessionConfig holds search form session settings
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	MountWait     time.Duration // how long GET airports waits for the catalog
	MaxPerClient  int           // open sessions kept per client; 0 disables the cap
}

// RegistryConfig selects where minted client ids are recorded
type RegistryConfig struct {
	Backend    string // none, postgres, redis
	IPHashSalt string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	Driver             string // postgres (lib/pq) or pgx
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// RedisConfig holds redis-related configuration
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	ClientTTL time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	OTLPEndpoint string // empty disables export
	ServiceName  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		FlightsAPI: FlightsAPIConfig{
			BaseURL: getEnv("FLIGHTS_API_URL", getEnv("NEXT_PUBLIC_FLIGHTS_API", "")),
			Timeout: time.Duration(getEnvAsInt("FLIGHTS_API_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Cookie: CookieConfig{
			Secret: getEnv("COOKIE_SECRET", ""),
			Domain: getEnv("COOKIE_DOMAIN", ""),
			Secure: getEnvAsBool("COOKIE_SECURE", false),
		},
		Session: SessionConfig{
			IdleTTL:       time.Duration(getEnvAsInt("SESSION_IDLE_TTL_MINUTES", 30)) * time.Minute,
			SweepInterval: time.Duration(getEnvAsInt("SESSION_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
			MountWait:     time.Duration(getEnvAsInt("SESSION_MOUNT_WAIT_MS", 3000)) * time.Millisecond,
			MaxPerClient:  getEnvAsInt("SESSION_MAX_PER_CLIENT", 5),
		},
		Registry: RegistryConfig{
			Backend:    strings.ToLower(getEnv("REGISTRY_BACKEND", RegistryNone)),
			IPHashSalt: getEnv("IP_HASH_SALT", ""),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Driver:             getEnv("DATABASE_DRIVER", "postgres"),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			ClientTTL: time.Duration(getEnvAsInt("REDIS_CLIENT_TTL_HOURS", 24*365)) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "flight-search-web"),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.FlightsAPI.BaseURL == "" {
		return fmt.Errorf("FLIGHTS_API_URL is required")
	}

	if c.Cookie.Secret == "" {
		return fmt.Errorf("COOKIE_SECRET is required")
	}

	if c.Session.IdleTTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session idle TTL and sweep interval must be positive")
	}

	if c.Session.MaxPerClient < 0 {
		return fmt.Errorf("SESSION_MAX_PER_CLIENT must not be negative")
	}

	switch c.Registry.Backend {
	case RegistryNone:
	case RegistryPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres registry")
		}
		if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
			return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'postgres' or 'pgx')", c.Database.Driver)
		}
	case RegistryRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis registry")
		}
	default:
		return fmt.Errorf("invalid REGISTRY_BACKEND: %s (must be 'none', 'postgres' or 'redis')", c.Registry.Backend)
	}

	return nil
}

// LoadFlightsAPI loads only the flights backend settings, for tools that
// do not run the HTTP service
func LoadFlightsAPI() (FlightsAPIConfig, error) {
	_ = godotenv.Load()

	cfg := FlightsAPIConfig{
		BaseURL: getEnv("FLIGHTS_API_URL", getEnv("NEXT_PUBLIC_FLIGHTS_API", "")),
		Timeout: time.Duration(getEnvAsInt("FLIGHTS_API_TIMEOUT_SECONDS", 10)) * time.Second,
	}
	if cfg.BaseURL == "" {
		return cfg, fmt.Errorf("FLIGHTS_API_URL is required")
	}
	return cfg, nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
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
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
