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

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	Database  DatabaseConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	Payments  PaymentsConfig
	Analytics AnalyticsConfig
	Invites   InviteConfig
	Jobs      JobsConfig
	Offline   OfflineConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// PaymentsConfig holds the environment payment credentials. Per-user keys
// stored in the database take precedence over these.
type PaymentsConfig struct {
	SecretKey           string
	PublishableKey      string
	Currency            string
	ReaderPollInterval  time.Duration
	ReaderActionTimeout time.Duration
}

// AnalyticsConfig holds the language-model and cache settings
type AnalyticsConfig struct {
	OpenAIKey string
	Model     string
	RedisURL  string
	CacheTTL  time.Duration
}

// InviteConfig holds invite defaults
type InviteConfig struct {
	DefaultTTLHours int
}

// JobsConfig holds cron schedules
type JobsConfig struct {
	StockScanSchedule    string
	ReminderSchedule     string
	TokenCleanupSchedule string
}

// OfflineConfig holds the embedded mirror location
type OfflineConfig struct {
	DBPath string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using environment variables")
	}

	// trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:   appMode,
		Port:      getEnv("PORT", "3000"),
		Database:  loadDatabaseConfig(appMode),
		JWT:       loadJWTConfig(appMode),
		Cookie:    loadCookieConfig(appMode),
		Payments:  loadPaymentsConfig(),
		Analytics: loadAnalyticsConfig(),
		Invites: InviteConfig{
			DefaultTTLHours: getInt("INVITE_TTL_HOURS", 72),
		},
		Jobs: JobsConfig{
			StockScanSchedule:    getEnv("STOCK_SCAN_SCHEDULE", "@every 15m"),
			ReminderSchedule:     getEnv("REMINDER_SCHEDULE", "@every 1m"),
			TokenCleanupSchedule: getEnv("TOKEN_CLEANUP_SCHEDULE", "0 3 * * *"),
		},
		Offline: OfflineConfig{
			DBPath: getEnv("OFFLINE_DB_PATH", "./barstock-offline.db"),
		},
	}

	if config.IsProd() && config.JWT.Secret == "default_secret" {
		return nil, fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	if !config.Payments.Configured() {
		log.Println("⚠️ STRIPE_SECRET_KEY not set: card payments need per-user keys")
	}
	if config.Analytics.OpenAIKey == "" {
		log.Println("⚠️ OPENAI_API_KEY not set: analytics will return computed statistics only")
	}
	return config, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "barstock"),

		MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 50),
		ConnMaxLifetime: time.Duration(getInt("DB_CONN_MAX_LIFETIME_MIN", 60)) * time.Minute,
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadPaymentsConfig() PaymentsConfig {
	return PaymentsConfig{
		SecretKey:           getEnv("STRIPE_SECRET_KEY", ""),
		PublishableKey:      getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		Currency:            strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		ReaderPollInterval:  time.Duration(getInt("READER_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		ReaderActionTimeout: time.Duration(getInt("READER_ACTION_TIMEOUT_SECONDS", 120)) * time.Second,
	}
}

func loadAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		OpenAIKey: getEnv("OPENAI_API_KEY", ""),
		Model:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		RedisURL:  getEnv("REDIS_URL", ""),
		CacheTTL:  time.Duration(getInt("ANALYTICS_CACHE_MINUTES", 30)) * time.Minute,
	}
}

// Configured reports whether environment credentials exist
func (p PaymentsConfig) Configured() bool {
	return p.SecretKey != ""
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://app.barstock.local"
	}
	return origins
}
