package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port             string
	StoreDriver      string
	PostgresDSN      string
	PostgresMaxConns int32
	MigrateOnStart   bool
	RedisAddr        string
	RedisPassword    string
	JWTSecret        string
	JWTIssuer        string
	AccessTokenTTL   time.Duration
	BcryptCost       int
	LogLevel         string
	LogFormat        string
	AllowedOrigins   []string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	return &Config{
		Port:             getenv("PORT", "8080"),
		StoreDriver:      getenv("STORE_DRIVER", DriverPostgres),
		PostgresDSN:      getenv("POSTGRES_DSN", ""),
		PostgresMaxConns: int32(getint("POSTGRES_MAX_CONNS", 8)),
		MigrateOnStart:   getenv("MIGRATE_ON_START", "true") == "true",
		RedisAddr:        getenv("REDIS_ADDR", ""),
		RedisPassword:    getenv("REDIS_PASSWORD", ""),
		JWTSecret:        getenv("JWT_SECRET", ""),
		JWTIssuer:        getenv("JWT_ISSUER", "library-api"),
		AccessTokenTTL:   getduration("JWT_ACCESS_TTL", 15*time.Minute),
		BcryptCost:       getint("BCRYPT_COST", bcrypt.DefaultCost),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		LogFormat:        getenv("LOG_FORMAT", "json"),
		AllowedOrigins:   splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}
}

// Validate reports configuration that would prevent the server from starting.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
