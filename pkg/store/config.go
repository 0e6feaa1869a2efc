package store

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadConfigFromEnv loads Postgres configuration from CONDUCTOR_DB_*
// environment variables, matching the teacher's DB_* LoadConfigFromEnv
// shape with this project's variable prefix.
func LoadConfigFromEnv() (Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("CONDUCTOR_DB_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CONDUCTOR_DB_PORT: %w", err)
	}

	maxOpen, _ := strconv.Atoi(getEnvOrDefault("CONDUCTOR_DB_MAX_OPEN_CONNS", "25"))
	maxIdle, _ := strconv.Atoi(getEnvOrDefault("CONDUCTOR_DB_MAX_IDLE_CONNS", "10"))

	maxLifetime, err := time.ParseDuration(getEnvOrDefault("CONDUCTOR_DB_CONN_MAX_LIFETIME", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CONDUCTOR_DB_CONN_MAX_LIFETIME: %w", err)
	}
	maxIdleTime, err := time.ParseDuration(getEnvOrDefault("CONDUCTOR_DB_CONN_MAX_IDLE_TIME", "15m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CONDUCTOR_DB_CONN_MAX_IDLE_TIME: %w", err)
	}

	cfg := Config{
		Host:            getEnvOrDefault("CONDUCTOR_DB_HOST", "localhost"),
		Port:            port,
		User:            getEnvOrDefault("CONDUCTOR_DB_USER", "conductor"),
		Password:        os.Getenv("CONDUCTOR_DB_PASSWORD"),
		Database:        getEnvOrDefault("CONDUCTOR_DB_NAME", "conductor"),
		SSLMode:         getEnvOrDefault("CONDUCTOR_DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: maxLifetime,
		ConnMaxIdleTime: maxIdleTime,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks structural invariants on Config.
func (c Config) Validate() error {
	if c.Password == "" {
		return fmt.Errorf("CONDUCTOR_DB_PASSWORD is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("CONDUCTOR_DB_MAX_IDLE_CONNS (%d) cannot exceed CONDUCTOR_DB_MAX_OPEN_CONNS (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("CONDUCTOR_DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("CONDUCTOR_DB_MAX_IDLE_CONNS cannot be negative")
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
