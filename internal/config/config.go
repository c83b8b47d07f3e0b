package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	AppVersion   string
	LogLevel     string

	StoreDriver string
	DBDSN       string
	AutoMigrate bool

	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	JobOperators      []string

	BookingFlow    string
	RequireAdvance bool
	PendingTTL     time.Duration
	VenueTimezone  *time.Location

	ExpirySchedule   string
	ReminderSchedule string

	RedisAddr     string
	RedisPassword string

	RabbitURL      string
	RabbitExchange string

	FCMProjectID       string
	FCMCredentialsFile string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	return FromEnv()
}

// FromEnv builds a Config from the current process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	var err error

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING
	if cfg.IsProduction && strings.TrimSpace(cfg.ProdOrigins) == "" {
		return nil, fmt.Errorf("PROD_ORIGINS is required when APP_ENV=%s", PROD_STRING)
	}

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.AppVersion = getEnv("APP_VERSION", "1.0.0")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", StorePostgres))
	switch cfg.StoreDriver {
	case StorePostgres:
		// Database DSN is required for the postgres driver
		cfg.DBDSN = os.Getenv("DB_DSN")
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be %q or %q", cfg.StoreDriver, StorePostgres, StoreMemory)
	}

	cfg.AutoMigrate, err = getEnvAsBool("AUTO_MIGRATE", true)
	if err != nil {
		return nil, err
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	// User IDs allowed to run jobs by hand (comma separated, default: none)
	cfg.JobOperators = getEnvAsList("JOB_OPERATORS")

	cfg.BookingFlow = strings.ToLower(getEnv("BOOKING_FLOW", "owner"))
	if cfg.BookingFlow != "owner" && cfg.BookingFlow != "customer" {
		return nil, fmt.Errorf("invalid BOOKING_FLOW %q: must be \"owner\" or \"customer\"", cfg.BookingFlow)
	}

	cfg.RequireAdvance, err = getEnvAsBool("REQUIRE_ADVANCE", true)
	if err != nil {
		return nil, err
	}

	cfg.PendingTTL, err = getEnvAsDuration("PENDING_TTL", 48*time.Hour)
	if err != nil {
		return nil, err
	}
	if cfg.PendingTTL <= 0 {
		return nil, fmt.Errorf("PENDING_TTL must be positive")
	}

	tz := getEnv("VENUE_TIMEZONE", "Asia/Kolkata")
	cfg.VenueTimezone, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid VENUE_TIMEZONE %q: %w", tz, err)
	}

	cfg.ExpirySchedule = getEnv("EXPIRY_SCHEDULE", "0 0 * * *")
	cfg.ReminderSchedule = getEnv("REMINDER_SCHEDULE", "0 9 * * *")

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "booking.events")

	cfg.FCMProjectID = getEnv("FCM_PROJECT_ID", "")
	cfg.FCMCredentialsFile = getEnv("FCM_CREDENTIALS_FILE", "")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration accepts Go durations ("15m", "48h") or a bare number of hours.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	if hours, err := getEnvAsInt(key, 0); err == nil {
		return time.Duration(hours) * time.Hour, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}
