package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port        int
	Environment string
	DataDir     string
	LogDir      string
	JWTSecret   string
	CORSOrigins []string

	AdminUsername     string
	AdminPasswordHash string // bcrypt

	Monitoring MonitoringConfig
	ScrapeAPI  ScrapeAPIConfig
	SMTP       SMTPConfig
	SMS        SMSConfig
}

// MonitoringConfig tunes the scheduler and fetch chain.
type MonitoringConfig struct {
	ScanInterval   time.Duration // how often the scheduler re-scans all profiles
	MaxConcurrent  int           // in-flight check bound
	FetchTimeout   time.Duration // per-strategy timeout
	BrowserEnabled bool          // allow the headless-browser fetch strategy
}

// ScrapeAPIConfig holds credentials for the anti-bot-bypassing scraping API.
type ScrapeAPIConfig struct {
	APIKey  string
	BaseURL string
}

// SMTPConfig holds the email transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMSConfig holds the carrier API settings (Twilio-compatible REST contract).
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

// Load loads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "production")

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: env,
		DataDir:     getEnv("DATA_DIR", "data/monitoring"),
		LogDir:      getEnv("LOG_DIR", "logs"),
		JWTSecret:   loadJWTSecret(env),
		CORSOrigins: loadCORSOrigins(env),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		Monitoring: MonitoringConfig{
			ScanInterval:   time.Duration(getEnvInt("MONITOR_SCAN_INTERVAL_MINUTES", 2)) * time.Minute,
			MaxConcurrent:  getEnvInt("MONITOR_MAX_CONCURRENT", 5),
			FetchTimeout:   time.Duration(getEnvInt("MONITOR_FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
			BrowserEnabled: getEnvBool("MONITOR_BROWSER_ENABLED", true),
		},
		ScrapeAPI: ScrapeAPIConfig{
			APIKey:  os.Getenv("SCRAPINGDOG_API_KEY"),
			BaseURL: getEnv("SCRAPINGDOG_BASE_URL", "https://api.scrapingdog.com/scrape"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     getEnv("SMTP_FROM", "DealerWatch Alerts <alerts@localhost>"),
		},
		SMS: SMSConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
			BaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		},
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Monitoring.MaxConcurrent <= 0 {
		return fmt.Errorf("MONITOR_MAX_CONCURRENT must be positive")
	}
	if c.Monitoring.ScanInterval <= 0 {
		return fmt.Errorf("MONITOR_SCAN_INTERVAL_MINUTES must be positive")
	}
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is required in production")
		}
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be configured")
	}
	return nil
}

func loadJWTSecret(env string) string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if env == "production" {
			log.Fatal("FATAL: JWT_SECRET environment variable is required in production")
		}
		log.Println("WARNING: JWT_SECRET not set. Generating random secret for development.")
		log.Println("WARNING: This secret will change on restart. Set JWT_SECRET in production!")
		return generateRandomSecret()
	}
	if len(secret) < 16 {
		log.Fatal("FATAL: JWT_SECRET must be at least 16 characters long")
	}
	return secret
}

func loadCORSOrigins(env string) []string {
	if appURL := os.Getenv("APP_URL"); appURL != "" {
		return []string{appURL}
	}
	if env != "development" {
		log.Println("WARNING: APP_URL not set. Using default localhost origins.")
	}
	return []string{"http://localhost:3000", "http://localhost:8080"}
}

func generateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate random secret:", err)
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
