package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=textile port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
	minSecretLength    = 32
)

type Config struct {
	AppEnv      string
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	LogLevel    string

	Embedded EmbeddedConfig
}

// EmbeddedConfig controls the local PostgreSQL started in place of
// DATABASE_DSN for development.
type EmbeddedConfig struct {
	Enabled bool
	Port    uint32
	DataDir string
}

// Load reads the environment, after loading a .env file if one exists. It
// never exits; callers decide what an incomplete config means for them.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:      strings.ToLower(getEnv("APP_ENV", "development")),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Embedded: EmbeddedConfig{
			Enabled: getBool("DB_EMBEDDED", false),
			Port:    uint32(getInt("DB_EMBEDDED_PORT", 5433)),
			DataDir: getEnv("DB_EMBEDDED_DATA", "./db_data"),
		},
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CORSOriginList splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) CORSOriginList() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ValidateServer returns an error when the config is not safe to serve
// requests with, and a list of warnings for defaults that only suit local
// development.
func (c *Config) ValidateServer() (warnings []string, err error) {
	if c.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if c.IsProduction() && c.Embedded.Enabled {
		return nil, errors.New("DB_EMBEDDED cannot be used with APP_ENV=production")
	}

	if !c.Embedded.Enabled && c.DatabaseDSN == defaultDSN {
		warnings = append(warnings, "DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		warnings = append(warnings, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	return warnings, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
