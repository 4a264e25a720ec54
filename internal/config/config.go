package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Background schedules. Relative cadence must hold:
	// sweep (daily) < budget check (6h) < monthly report.
	SweepInterval       time.Duration
	BudgetCheckInterval time.Duration
	ReportCheckInterval time.Duration

	// Dispatcher
	DispatchWorkers      int
	DispatchMaxAttempts  int
	DispatchBackoffBase  time.Duration
	DispatchPerUserLimit int
	DispatchWindow       time.Duration

	// Insight generation (Gemini)
	GeminiAPIKey string
	GeminiModel  string

	// Outbound email
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "drachma"),
		DBPassword: getEnv("DB_PASSWORD", "drachma"),
		DBName:     getEnv("DB_NAME", "drachma"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", 24*time.Hour),
		BudgetCheckInterval: getEnvDuration("BUDGET_CHECK_INTERVAL", 6*time.Hour),
		ReportCheckInterval: getEnvDuration("REPORT_CHECK_INTERVAL", 24*time.Hour),

		DispatchWorkers:      getEnvInt("DISPATCH_WORKERS", 4),
		DispatchMaxAttempts:  getEnvInt("DISPATCH_MAX_ATTEMPTS", 3),
		DispatchBackoffBase:  getEnvDuration("DISPATCH_BACKOFF_BASE", time.Second),
		DispatchPerUserLimit: getEnvInt("DISPATCH_PER_USER_LIMIT", 10),
		DispatchWindow:       getEnvDuration("DISPATCH_WINDOW", time.Minute),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "reports@drachma.local"),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}
