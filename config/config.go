package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds everything both binaries read from the environment.
type Config struct {
	Port     string
	LogLevel string

	Database struct {
		User     string
		Password string
		Host     string
		Port     string
		Name     string
		SSLMode  string
	}

	// JWTSecret signs and verifies the public store key.
	JWTSecret string

	// StoreURL and AnonKey are what the visitor client uses to reach the backend.
	StoreURL string
	AnonKey  string

	// AdminPassword unlocks the authoring UI in the visitor client. It is a
	// UI gate only; the backend never checks it.
	AdminPassword string

	// LocalDB is the SQLite file backing the visitor's local storage.
	LocalDB string

	// LogFile receives the visitor client's logs so they stay off the screen.
	LogFile string
}

// Load reads the configuration from the environment. Call godotenv.Load first
// if a .env file should take part.
func Load() *Config {
	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// Supabase-style connection variables.
	cfg.Database.User = getEnv("user", "postgres")
	cfg.Database.Password = getEnv("password", "")
	cfg.Database.Host = getEnv("host", "localhost")
	cfg.Database.Port = getEnv("port", "5432")
	cfg.Database.Name = getEnv("dbname", "postgres")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "require")

	cfg.JWTSecret = getEnv("SITE_JWT_SECRET", "")
	cfg.StoreURL = strings.TrimRight(getEnv("SITE_STORE_URL", "http://localhost:8080"), "/")
	cfg.AnonKey = getEnv("SITE_ANON_KEY", "")
	cfg.AdminPassword = getEnv("SITE_ADMIN_PASSWORD", "")
	cfg.LocalDB = getEnv("SITE_LOCAL_DB", "bbs.db")
	cfg.LogFile = getEnv("SITE_LOG_FILE", "bbs.log")

	return cfg
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name, c.Database.SSLMode)
}

// ValidateServer reports settings the backend cannot start without.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("SITE_JWT_SECRET is not set")
	}
	return nil
}

// ValidateClient reports settings the visitor client cannot start without.
func (c *Config) ValidateClient() error {
	if c.StoreURL == "" {
		return fmt.Errorf("SITE_STORE_URL is not set")
	}
	if c.AnonKey == "" {
		return fmt.Errorf("SITE_ANON_KEY is not set")
	}
	return nil
}

// getEnv returns the trimmed value of key, or fallback when it is unset or blank.
func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
