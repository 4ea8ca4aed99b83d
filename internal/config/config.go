package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string   `env:"SERVER_PORT" envDefault:"4000"`
	DBDriver    string   `env:"DB_DRIVER" envDefault:"mysql"`
	DatabaseDSN string   `env:"DATABASE_DSN" envDefault:"user:password@tcp(localhost:3306)/apptracker?charset=utf8mb4&parseTime=True&loc=UTC"`
	ResetDB     bool     `env:"RESET_DB" envDefault:"false"`
	RedisAddr   string   `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass   string   `env:"REDIS_PASSWORD"`
	RedisDB     int      `env:"REDIS_DB" envDefault:"0"`
	JWTSecret   string   `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT" envDefault:"json"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	SwaggerHost string   `env:"SWAGGER_HOST"`
}

// Load builds Config from the environment, reading a .env file first when one
// exists in the working directory.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or postgres, got %q", c.DBDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}
