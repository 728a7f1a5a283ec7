package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	DBDriver    string
	MySQLHost   string
	MySQLPort   string
	MySQLDB     string
	MySQLUser   string
	MySQLPass   string
	DatabaseURL string
	SQLitePath  string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	JWTSecret string

	IdentityCacheBackend string
	IdentityCacheTTLSecs int
	IdentityCacheSize    int

	SigningBaseURL       string
	SigningAPIKey        string
	SigningWebhookSecret string

	NotifyGatewayURL string
	NotifyRatePerSec float64

	TaskMaxAttempts int
	TaskBatchSize   int
	TaskPollSpec    string
	TaskLeaseSecs   int
	TaskConcurrency int

	SystemUserExternalID    string
	OfferLetterValidityDays int

	LogLevel  string
	LogFormat string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getfloat(k string, d float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

// Load reads an optional .env file, then the environment. Variables that
// are already set win over the file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort: getenv("APP_PORT", "8080"),

		DBDriver:    getenv("DB_DRIVER", "mysql"),
		MySQLHost:   getenv("MYSQL_HOST", "mysql"),
		MySQLPort:   getenv("MYSQL_PORT", "3306"),
		MySQLDB:     getenv("MYSQL_DB", "loans"),
		MySQLUser:   getenv("MYSQL_USER", "loans"),
		MySQLPass:   getenv("MYSQL_PASS", "loans"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		SQLitePath:  getenv("SQLITE_PATH", "loans.db"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getint("REDIS_DB", 0),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		JWTSecret: getenv("JWT_SECRET", ""),

		IdentityCacheBackend: getenv("IDENTITY_CACHE_BACKEND", "memory"),
		IdentityCacheTTLSecs: getint("IDENTITY_CACHE_TTL_SECONDS", 300),
		IdentityCacheSize:    getint("IDENTITY_CACHE_SIZE", 1024),

		SigningBaseURL:       getenv("SIGNING_BASE_URL", ""),
		SigningAPIKey:        getenv("SIGNING_API_KEY", ""),
		SigningWebhookSecret: getenv("SIGNING_WEBHOOK_SECRET", ""),

		NotifyGatewayURL: getenv("NOTIFY_GATEWAY_URL", ""),
		NotifyRatePerSec: getfloat("NOTIFY_RATE_PER_SEC", 10),

		TaskMaxAttempts: getint("TASK_MAX_ATTEMPTS", 5),
		TaskBatchSize:   getint("TASK_BATCH_SIZE", 20),
		TaskPollSpec:    getenv("TASK_POLL_SPEC", "@every 5s"),
		TaskLeaseSecs:   getint("TASK_LEASE_SECONDS", 120),
		TaskConcurrency: getint("TASK_CONCURRENCY", 4),

		SystemUserExternalID:    getenv("SYSTEM_USER_EXTERNAL_ID", "system"),
		OfferLetterValidityDays: getint("OFFER_LETTER_VALIDITY_DAYS", 30),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
	}
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("missing DATABASE_URL for postgres driver")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH for sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	switch c.IdentityCacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported IDENTITY_CACHE_BACKEND %q", c.IdentityCacheBackend)
	}
	if c.TaskMaxAttempts < 1 {
		return errors.New("TASK_MAX_ATTEMPTS must be >= 1")
	}
	if c.TaskBatchSize < 1 {
		return errors.New("TASK_BATCH_SIZE must be >= 1")
	}
	if c.TaskLeaseSecs < 1 {
		return errors.New("TASK_LEASE_SECONDS must be >= 1")
	}
	if c.TaskConcurrency < 1 {
		return errors.New("TASK_CONCURRENCY must be >= 1")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return c.DatabaseURL
	case "sqlite":
		return "file:" + c.SQLitePath + "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	}
	return c.MySQLDSN()
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) IdentityCacheTTL() time.Duration {
	return time.Duration(c.IdentityCacheTTLSecs) * time.Second
}

func (c *Config) TaskLease() time.Duration {
	return time.Duration(c.TaskLeaseSecs) * time.Second
}

func (c *Config) OfferLetterValidity() time.Duration {
	return time.Duration(c.OfferLetterValidityDays) * 24 * time.Hour
}
