package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	Odoo      OdooConfig
	Session   SessionConfig
	Layout    LayoutConfig
	Dashboard DashboardConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string

	// bundled server, used for a loopback host without a password
	DataPath     string
	EmbeddedPort int

	LogSQL bool // trace every statement
}

// OdooConfig holds the ERP connection settings
type OdooConfig struct {
	URL             string
	Database        string
	Username        string
	Password        string
	RefreshInterval time.Duration // catalog refresh
	SupplierID      string        // default vendor for conversion orders
}

// Enabled reports whether an ERP is configured
func (c OdooConfig) Enabled() bool {
	return c.URL != ""
}

// Session store backends
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
	SessionStoreMemory   = "memory"
)

// SessionConfig holds planner session persistence settings
type SessionConfig struct {
	Store     string // postgres, redis or memory
	RedisAddr string
	TTL       time.Duration
}

// LayoutConfig holds list layout settings
type LayoutConfig struct {
	SettleDelay time.Duration
}

// DashboardConfig holds production dashboard settings
type DashboardConfig struct {
	CriticalPlanLimit int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	store := getEnv("SESSION_STORE", SessionStorePostgres)
	switch store {
	case SessionStorePostgres, SessionStoreRedis, SessionStoreMemory:
	default:
		return nil, fmt.Errorf("SESSION_STORE must be postgres, redis or memory, got %q", store)
	}
	if store == SessionStoreRedis && os.Getenv("REDIS_ADDR") == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required when SESSION_STORE=redis")
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3001"),
		JWTSecret: jwtSecret,
		Database: DatabaseConfig{
			Host:         getEnv("PG_HOST", "localhost"),
			Port:         getEnv("PG_PORT", "5432"),
			Username:     getEnv("PG_USERNAME", "postgres"),
			Password:     os.Getenv("PG_PASSWORD"),
			Database:     getEnv("PG_DATABASE", "alloyplan"),
			DataPath:     getEnv("PG_DATA_PATH", "./db_data"),
			EmbeddedPort: getPositiveIntEnv("PG_EMBEDDED_PORT", 5433),
			LogSQL:       getBoolEnv("DB_LOG_SQL", false),
		},
		Odoo: OdooConfig{
			URL:             os.Getenv("ODOO_URL"),
			Database:        os.Getenv("ODOO_DB"),
			Username:        os.Getenv("ODOO_USERNAME"),
			Password:        os.Getenv("ODOO_PASSWORD"),
			RefreshInterval: time.Duration(getPositiveIntEnv("CATALOG_REFRESH_MINUTES", 15)) * time.Minute,
			SupplierID:      os.Getenv("SUPPLIER_ID"),
		},
		Session: SessionConfig{
			Store:     store,
			RedisAddr: os.Getenv("REDIS_ADDR"),
			TTL:       time.Duration(getPositiveIntEnv("SESSION_TTL_HOURS", 24)) * time.Hour,
		},
		Layout: LayoutConfig{
			SettleDelay: time.Duration(getPositiveIntEnv("LAYOUT_SETTLE_MS", 16)) * time.Millisecond,
		},
		Dashboard: DashboardConfig{
			CriticalPlanLimit: getIntEnv("CRITICAL_PLAN_LIMIT", 10),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getPositiveIntEnv is getIntEnv for durations and ports, where zero or a
// negative value would disable the feature. Those fall back to the default.
func getPositiveIntEnv(key string, defaultValue int) int {
	if n := getIntEnv(key, defaultValue); n > 0 {
		return n
	}
	return defaultValue
}
