package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Device    DeviceConfig
	Reconcile ReconcileConfig
}

type DatabaseConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	AutoSchema bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone string
}

// DeviceConfig points the sync adapter at the time-and-attendance device database
type DeviceConfig struct {
	DBPath   string
	DeviceID string
	SyncCron string
}

// ReconcileConfig holds batch reconciliation settings
type ReconcileConfig struct {
	Cron        string
	Workers     int
	WindowFile  string
	SystemActor string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
		slog.Debug("No .env file found, using process environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	autoSchema, err := strconv.ParseBool(getEnv("DB_AUTO_SCHEMA", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_SCHEMA: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       dbPort,
		User:       getEnv("DB_USER", "postgres"),
		Password:   getEnv("DB_PASSWORD", ""),
		Name:       getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:    getEnv("DB_SSL_MODE", "disable"),
		AutoSchema: autoSchema,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "Asia/Jakarta"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Device configuration
	config.Device = DeviceConfig{
		DBPath:   getEnv("DEVICE_DB_PATH", ""),
		DeviceID: getEnv("DEVICE_ID", "device-1"),
		SyncCron: getEnv("SYNC_CRON", "*/10 * * * *"),
	}

	// Reconciliation configuration
	workers, err := strconv.Atoi(getEnv("RECONCILE_WORKERS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_WORKERS: %w", err)
	}

	config.Reconcile = ReconcileConfig{
		Cron:        getEnv("RECONCILE_CRON", "30 1 * * *"),
		Workers:     workers,
		WindowFile:  getEnv("PUNCH_WINDOW_FILE", ""),
		SystemActor: getEnv("SYSTEM_ACTOR", "system"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Device.DeviceID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	if err := cron.ValidateSpec(c.Device.SyncCron); err != nil {
		return fmt.Errorf("invalid SYNC_CRON: %w", err)
	}
	if err := cron.ValidateSpec(c.Reconcile.Cron); err != nil {
		return fmt.Errorf("invalid RECONCILE_CRON: %w", err)
	}
	if c.Reconcile.Workers < 1 {
		return fmt.Errorf("RECONCILE_WORKERS must be at least 1")
	}
	if c.Reconcile.SystemActor == "" {
		return fmt.Errorf("SYSTEM_ACTOR is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the device-local time zone punches are recorded in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
