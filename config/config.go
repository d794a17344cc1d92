package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV:
//
//	SERVER_PORT=8080
//	STORE_DRIVER=postgres
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=stockstreamdb
//	REDIS_ADDR=localhost:6379
//	WATCHLIST=AAPL,MSFT,GOOG
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Postgres  PostgresConfig
	SQLite    SQLiteConfig
	Fetcher   FetcherConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	RateLimit      int           // requests per client IP per minute
	RequestTimeout time.Duration // per-request deadline
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string // postgres | sqlite | memory
}

// PostgresConfig defines connection details for PostgreSQL.
//
// URL is the computed DSN used by database/sql.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// SQLiteConfig points at the database file used when STORE_DRIVER=sqlite.
type SQLiteConfig struct {
	Path string
}

// FetcherConfig controls the upstream provider client and its retry policy.
type FetcherConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// CacheConfig configures the Redis response cache. An empty Addr disables it.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// SchedulerConfig drives the periodic watchlist refresh.
type SchedulerConfig struct {
	Spec      string
	Watchlist []string
	Period    string
	Parallel  int
}

// AppConfig is the globally accessible configuration instance, populated once by LoadConfig().
var AppConfig Config

// LoadConfig initializes the global AppConfig.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// validateConfig() terminates the process when required values are missing.
func LoadConfig() {
	setDefaults()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = fromViper()
	validateConfig()
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("REQUEST_TIMEOUT", "10s")

	viper.SetDefault("STORE_DRIVER", DriverPostgres)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "stockstreamdb")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("SQLITE_PATH", "stockstreamdb.sqlite")

	viper.SetDefault("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com")
	viper.SetDefault("PROVIDER_TIMEOUT", "15s")
	viper.SetDefault("FETCH_MAX_ATTEMPTS", 3)
	viper.SetDefault("FETCH_RETRY_DELAY", "2s")

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL", "5m")

	viper.SetDefault("SCHEDULE_CRON", "30 22 * * 1-5")
	viper.SetDefault("WATCHLIST", "")
	viper.SetDefault("WATCHLIST_PERIOD", "5d")
	viper.SetDefault("SCHEDULE_PARALLEL", 4)
}

func fromViper() Config {
	cfg := Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RateLimit:      viper.GetInt("RATE_LIMIT_PER_MINUTE"),
			RequestTimeout: viper.GetDuration("REQUEST_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(strings.TrimSpace(viper.GetString("STORE_DRIVER"))),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("SQLITE_PATH"),
		},
		Fetcher: FetcherConfig{
			BaseURL:     viper.GetString("PROVIDER_BASE_URL"),
			Timeout:     viper.GetDuration("PROVIDER_TIMEOUT"),
			MaxAttempts: viper.GetInt("FETCH_MAX_ATTEMPTS"),
			RetryDelay:  viper.GetDuration("FETCH_RETRY_DELAY"),
		},
		Cache: CacheConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			TTL:      viper.GetDuration("CACHE_TTL"),
		},
		Scheduler: SchedulerConfig{
			Spec:      viper.GetString("SCHEDULE_CRON"),
			Watchlist: SplitList(viper.GetString("WATCHLIST")),
			Period:    viper.GetString("WATCHLIST_PERIOD"),
			Parallel:  viper.GetInt("SCHEDULE_PARALLEL"),
		},
	}
	cfg.Postgres.URL = cfg.Postgres.DSN()
	return cfg
}

// DSN builds the lib/pq connection URL.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// SplitList turns "AAPL, msft,,GOOG" into ["AAPL" "MSFT" "GOOG"].
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateConfig terminates the application with log.Fatalf when problems() reports anything.
func validateConfig() {
	if missing := problems(AppConfig); len(missing) > 0 {
		log.Fatalf("❌ Missing or invalid configuration: %v\n", missing)
	}
}

// problems lists the missing or invalid keys of cfg. Postgres keys are only
// required for the postgres driver, SQLITE_PATH only for sqlite.
func problems(cfg Config) []string {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}

	switch cfg.Store.Driver {
	case DriverPostgres:
		if cfg.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if cfg.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if cfg.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if cfg.Postgres.Password == "" {
			missing = append(missing, "POSTGRES_PASSWORD")
		}
		if cfg.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	case DriverSQLite:
		if cfg.SQLite.Path == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	case DriverMemory:
	default:
		missing = append(missing, "STORE_DRIVER")
	}

	if cfg.Fetcher.BaseURL == "" {
		missing = append(missing, "PROVIDER_BASE_URL")
	}
	if cfg.Fetcher.MaxAttempts < 1 {
		missing = append(missing, "FETCH_MAX_ATTEMPTS")
	}
	if cfg.Fetcher.RetryDelay <= 0 {
		missing = append(missing, "FETCH_RETRY_DELAY")
	}

	return missing
}
