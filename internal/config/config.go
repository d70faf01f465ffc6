package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries all runtime settings. Values come from the environment;
// main loads a .env file first via godotenv so local runs need no exports.
type Config struct {
	GinMode string
	Port    string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	KafkaBrokers string
}

func Load() (Config, error) {
	c := Config{
		GinMode:       os.Getenv("GIN_MODE"),
		Port:          getEnvOr("APP_PORT", "8080"),
		DBUser:        os.Getenv("POSTGRES_USER"),
		DBPassword:    os.Getenv("POSTGRES_PASSWORD"),
		DBHost:        getEnvOr("POSTGRES_HOST", "localhost"),
		DBPort:        getEnvOr("POSTGRES_PORT", "5432"),
		DBName:        os.Getenv("POSTGRES_DB"),
		DBSSLMode:     getEnvOr("POSTGRES_SSLMODE", "disable"),
		AccessSecret:  os.Getenv("JWT_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		AccessTTL:     time.Hour,
		RefreshTTL:    14 * 24 * time.Hour,
		KafkaBrokers:  getEnvOr("KAFKA_BROKERS", "localhost:9092"),
	}

	if c.DBUser == "" || c.DBName == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER and POSTGRES_DB must be set")
	}
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return Config{}, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")
	}

	if v := os.Getenv("JWT_ACCESS_TTL_MINUTES"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m <= 0 {
			return Config{}, fmt.Errorf("invalid JWT_ACCESS_TTL_MINUTES: %q", v)
		}
		c.AccessTTL = time.Duration(m) * time.Minute
	}
	if v := os.Getenv("JWT_REFRESH_TTL_DAYS"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid JWT_REFRESH_TTL_DAYS: %q", v)
		}
		c.RefreshTTL = time.Duration(d) * 24 * time.Hour
	}

	return c, nil
}

// DSN assembles the postgres connection string for the pgx stdlib driver.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
