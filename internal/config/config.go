// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment constants
const (
	EnvProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	RateLimit  RateLimitConfig
	GVM        GVMConfig
	DefectDojo DefectDojoConfig
	TheHive    TheHiveConfig
	Wazuh      WazuhConfig
	Reconciler ReconcilerConfig
	Worker     WorkerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name  string
	Env   string
	Debug bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig holds HTTP rate limiting configuration.
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerSec float64
	Burst          int
}

// GVMConfig holds scanner engine client configuration.
type GVMConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DefectDojoConfig holds findings platform client configuration.
type DefectDojoConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// ProductID is the findings-platform product engagements are created
	// under when a scan is submitted.
	ProductID int
}

// TheHiveConfig holds case platform client configuration.
type TheHiveConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// DefaultOwner is the analyst account new cases are assigned to.
	DefaultOwner string

	// DefaultTLP is the traffic light protocol level for new cases and
	// observables (2 = amber).
	DefaultTLP int
}

// WazuhConfig holds alert source (Elasticsearch) configuration.
type WazuhConfig struct {
	ElasticURL  string
	Username    string
	Password    string
	IndexPrefix string
	Timeout     time.Duration
	SkipVerify  bool
}

// ReconcilerConfig holds reconciliation pass configuration.
type ReconcilerConfig struct {
	// Enabled turns the periodic scheduler on. On-demand HTTP/CLI
	// triggers work either way.
	Enabled bool

	// Interval between passes when no cron expression is set.
	Interval time.Duration

	// CronSpec optionally overrides Interval with a cron expression.
	CronSpec string

	// AlertWindow is the recent-alert lookback used in step 5 of the
	// pipeline.
	AlertWindow time.Duration

	// ExternalCallTimeout bounds every single external system call so one
	// slow upstream cannot stall a whole pass.
	ExternalCallTimeout time.Duration

	// DedupCacheTTL is how long known vulnerability ids stay in the
	// redis fast path. The database unique constraint does not depend
	// on it.
	DedupCacheTTL time.Duration
}

// WorkerConfig holds background job worker configuration.
type WorkerConfig struct {
	Enabled     bool
	Concurrency int
}

// Load loads configuration from environment variables. A .env file in
// the working directory is applied first when present.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("APP_NAME", "openvoc"),
			Env:   getEnv("APP_ENV", "development"),
			Debug: getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxBodySize:     getEnvInt64("SERVER_MAX_BODY_SIZE", 1<<20),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "openvoc"),
			Password:        getEnv("DB_PASSWORD", "secret"),
			Name:            getEnv("DB_NAME", "openvoc"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSec: getEnvFloat("RATE_LIMIT_RPS", 50),
			Burst:          getEnvInt("RATE_LIMIT_BURST", 100),
		},
		GVM: GVMConfig{
			BaseURL: getEnv("GVM_BASE_URL", "http://127.0.0.1:8000"),
			Timeout: getEnvDuration("GVM_TIMEOUT", 30*time.Second),
		},
		DefectDojo: DefectDojoConfig{
			BaseURL:   strings.TrimSuffix(getEnv("DEFECT_DOJO_URL", ""), "/"),
			APIKey:    getEnv("DEFECT_DOJO_API_KEY", ""),
			Timeout:   getEnvDuration("DEFECT_DOJO_TIMEOUT", 30*time.Second),
			ProductID: getEnvInt("DEFECT_DOJO_PRODUCT_ID", 1),
		},
		TheHive: TheHiveConfig{
			BaseURL:      strings.TrimSuffix(getEnv("THE_HIVE_URL", ""), "/"),
			APIKey:       getEnv("THE_HIVE_API_KEY", ""),
			Timeout:      getEnvDuration("THE_HIVE_TIMEOUT", 30*time.Second),
			DefaultOwner: getEnv("THE_HIVE_OWNER", "admin"),
			DefaultTLP:   getEnvInt("THE_HIVE_TLP", 2),
		},
		Wazuh: WazuhConfig{
			ElasticURL:  strings.TrimSuffix(getEnv("ELASTICSEARCH_URL", ""), "/"),
			Username:    getEnv("ELASTICSEARCH_USER", ""),
			Password:    getEnv("ELASTICSEARCH_PASSWORD", ""),
			IndexPrefix: getEnv("WAZUH_INDEX_PREFIX", "wazuh-alerts-*"),
			Timeout:     getEnvDuration("WAZUH_TIMEOUT", 30*time.Second),
			SkipVerify:  getEnvBool("WAZUH_TLS_SKIP_VERIFY", false),
		},
		Reconciler: ReconcilerConfig{
			Enabled:             getEnvBool("RECONCILER_ENABLED", true),
			Interval:            getEnvDuration("RECONCILER_INTERVAL", 5*time.Minute),
			CronSpec:            getEnv("RECONCILER_CRON", ""),
			AlertWindow:         getEnvDuration("RECONCILER_ALERT_WINDOW", 24*time.Hour),
			ExternalCallTimeout: getEnvDuration("RECONCILER_CALL_TIMEOUT", 60*time.Second),
			DedupCacheTTL:       getEnvDuration("RECONCILER_DEDUP_CACHE_TTL", 24*time.Hour),
		},
		Worker: WorkerConfig{
			Enabled:     getEnvBool("WORKER_ENABLED", true),
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be debug, info, warn, or error)", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s (must be json or text)", c.Log.Format)
	}

	if c.App.Env == EnvProduction {
		if c.DefectDojo.BaseURL == "" || c.DefectDojo.APIKey == "" {
			return fmt.Errorf("DefectDojo URL and API key must be configured")
		}
		if c.TheHive.BaseURL == "" || c.TheHive.APIKey == "" {
			return fmt.Errorf("TheHive URL and API key must be configured")
		}
	}
	return nil
}

// IsProduction returns true when running in the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr returns the Redis address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the HTTP server address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
