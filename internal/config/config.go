package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string
	FrontendURL string
}

type PostgresConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Timeout       time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Auth     AuthConfig
	Razorpay RazorpayConfig
	SMTP     SMTPConfig
}

// Load reads configuration from the environment. An optional .env file at path
// is merged in first; required variables missing from the result are an error.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to load .env: %w", err)
		}
	}

	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")

	cfg.Postgres.Host = os.Getenv("DB_HOST")
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.TokenTTL = 24 * time.Hour

	cfg.Razorpay.KeyID = os.Getenv("RAZORPAY_KEY")
	cfg.Razorpay.KeySecret = os.Getenv("RAZORPAY_KEY_SECRET")
	cfg.Razorpay.WebhookSecret = os.Getenv("RAZORPAY_WEBHOOK_SECRET")
	cfg.Razorpay.Timeout = 10 * time.Second

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	cfg.SMTP.Port = 587
	cfg.SMTP.User = os.Getenv("SMTP_USER")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.User)

	required := map[string]string{
		"DB_HOST":                 cfg.Postgres.Host,
		"DB_USER":                 cfg.Postgres.User,
		"DB_PASSWORD":             cfg.Postgres.Password,
		"DB_NAME":                 cfg.Postgres.DBName,
		"JWT_SECRET":              cfg.Auth.JWTSecret,
		"RAZORPAY_KEY":            cfg.Razorpay.KeyID,
		"RAZORPAY_KEY_SECRET":     cfg.Razorpay.KeySecret,
		"RAZORPAY_WEBHOOK_SECRET": cfg.Razorpay.WebhookSecret,
	}
	for name, value := range required {
		if value == "" {
			return nil, fmt.Errorf("config: %s is required", name)
		}
	}

	return cfg, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
