// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	License     LicenseConfig
	Email       EmailConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type LicenseConfig struct {
	// APISecret is the pre-shared secret accepted by the create-license
	// endpoint for webhook-triggered issuance.
	APISecret string
	// WebhookSecret signs Shopify webhook payloads.
	WebhookSecret string
	// ValidityDays is the license validity window from issuance.
	ValidityDays int
	// StoreTimeout bounds every store call made by the services, in seconds.
	StoreTimeout int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	SiteURL      string
	AdminEmail   string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "themelock"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		License: LicenseConfig{
			APISecret:     getEnv("LICENSE_API_SECRET", "your-secret-key-here"),
			WebhookSecret: getEnv("SHOPIFY_WEBHOOK_SECRET", "your-shopify-webhook-secret"),
			ValidityDays:  getEnvAsInt("LICENSE_VALIDITY_DAYS", 365),
			StoreTimeout:  getEnvAsInt("STORE_TIMEOUT_SECONDS", 5),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@themelock.example.com"),
			FromName:     getEnv("FROM_NAME", "ThemeLock"),
			SiteURL:      getEnv("SITE_URL", "https://themelock.example.com"),
			AdminEmail:   getEnv("ADMIN_EMAIL", ""),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Environment != "production" {
		return nil
	}

	if c.JWT.SecretKey == "your-secret-key-change-in-production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}
	if c.License.APISecret == "your-secret-key-here" {
		return fmt.Errorf("license API secret must be changed in production")
	}
	if c.License.WebhookSecret == "your-shopify-webhook-secret" {
		return fmt.Errorf("webhook secret must be changed in production")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("database password is required in production")
	}

	return nil
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
