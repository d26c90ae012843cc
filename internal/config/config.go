package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Inventory InventoryConfig
	Auth      AuthConfig
	Session   SessionConfig
	Catalog   CatalogConfig
	Booking   BookingConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode,
	)
}

// InventoryConfig points at the Inventory & Booking Service.
type InventoryConfig struct {
	URL     string
	Timeout time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type SessionConfig struct {
	TTL          time.Duration
	SecureCookie bool
}

type CatalogConfig struct {
	TTL time.Duration
}

type BookingConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := envOr("SERVER_HOST", "localhost")

	serverPort, err := strconv.Atoi(envOr("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host:        serverHost,
		Port:        serverPort,
		CORSOrigins: splitList(envOr("CORS_ORIGINS", "http://localhost:3000")),
	}

	postgresPort, err := strconv.Atoi(envOr("POSTGRES_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid POSTGRES_PORT: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     envOr("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  envOr("POSTGRES_SSLMODE", "disable"),
	}

	redisDB, err := strconv.Atoi(envOr("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid REDIS_DB: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     envOr("REDIS_ADDR", "localhost:6380"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	inventoryTimeout, err := time.ParseDuration(envOr("INVENTORY_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid INVENTORY_TIMEOUT: %w", op, err)
	}

	inventoryCfg := InventoryConfig{
		URL:     strings.TrimRight(envOr("INVENTORY_URL", "http://localhost:5000/api"), "/"),
		Timeout: inventoryTimeout,
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("%s: missing JWT_SECRET", op)
	}

	sessionTTL, err := time.ParseDuration(envOr("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SESSION_TTL: %w", op, err)
	}

	secureCookie, err := strconv.ParseBool(envOr("SESSION_SECURE_COOKIE", "false"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SESSION_SECURE_COOKIE: %w", op, err)
	}

	catalogTTL, err := time.ParseDuration(envOr("CATALOG_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid CATALOG_TTL: %w", op, err)
	}

	rateLimit, err := strconv.Atoi(envOr("BOOKING_RATE_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid BOOKING_RATE_LIMIT: %w", op, err)
	}

	rateWindow, err := time.ParseDuration(envOr("BOOKING_RATE_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid BOOKING_RATE_WINDOW: %w", op, err)
	}

	return &Config{
		Server:    serverCfg,
		Postgres:  postgresCfg,
		Redis:     redisCfg,
		Inventory: inventoryCfg,
		Auth:      AuthConfig{JWTSecret: jwtSecret},
		Session:   SessionConfig{TTL: sessionTTL, SecureCookie: secureCookie},
		Catalog:   CatalogConfig{TTL: catalogTTL},
		Booking:   BookingConfig{RateLimit: rateLimit, RateWindow: rateWindow},
	}, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
