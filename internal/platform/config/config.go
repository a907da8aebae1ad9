package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	platformstrings "consentflow/pkg/platform/strings"
)

// Store backends for counters and progress.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	APIURL          string
	RequestTimeout  time.Duration
	RefreshInterval time.Duration
	RetryPolicyFile string
	StoreBackend    string
	SessionTTL      time.Duration
	SessionCookie   string
	Redis           RedisConfig
	Postgres        PostgresConfig
	Audit           AuditConfig
	Log             LogConfig
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

// PostgresConfig holds the counter database settings.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// AuditConfig selects the audit sink. Without brokers events go to the log.
type AuditConfig struct {
	Brokers   []string
	Topic     string
	QueueSize int
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string
	Format string
}

// MockAPI captures configuration for the local downstream stand-in.
type MockAPI struct {
	Addr            string
	RetryPolicyFile string
	UsersFile       string
	PollCountdown   int
	MinimumAge      int
	Log             LogConfig
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:            getEnvOrDefault("CONSENTFLOW_ADDR", ":8080"),
		APIURL:          getEnvOrDefault("API_URL", "http://localhost:5001/"),
		RetryPolicyFile: os.Getenv("RETRY_POLICY_FILE"),
		StoreBackend:    getEnvOrDefault("STORE_BACKEND", BackendMemory),
		SessionCookie:   getEnvOrDefault("SESSION_COOKIE", "session_id_nojs"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Audit: AuditConfig{
			Brokers:   platformstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			Topic:     getEnvOrDefault("AUDIT_TOPIC", "consentflow.audit"),
			QueueSize: 256,
		},
		Log: logFromEnv(),
	}

	var err error
	if cfg.RequestTimeout, err = durationFromEnv("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.RefreshInterval, err = durationFromEnv("META_REFRESH_INTERVAL", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.SessionTTL, err = durationFromEnv("SESSION_TTL", 59*time.Minute); err != nil {
		return Server{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c Server) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("CONSENTFLOW_ADDR must not be empty"))
	}
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_URL %q is not an absolute URL", c.APIURL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, errors.New("META_REFRESH_INTERVAL must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SessionCookie == "" {
		errs = append(errs, errors.New("SESSION_COOKIE must not be empty"))
	}
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis backend"))
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for progress with the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND %q is not one of memory, redis, postgres", c.StoreBackend))
	}
	if len(c.Audit.Brokers) > 0 && c.Audit.Topic == "" {
		errs = append(errs, errors.New("AUDIT_TOPIC is required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

// MockAPIFromEnv builds the mock API config.
func MockAPIFromEnv() (MockAPI, error) {
	cfg := MockAPI{
		Addr:            getEnvOrDefault("MOCK_API_ADDR", ":5001"),
		RetryPolicyFile: os.Getenv("RETRY_POLICY_FILE"),
		UsersFile:       os.Getenv("MOCK_USERS_FILE"),
		Log:             logFromEnv(),
	}
	var err error
	if cfg.PollCountdown, err = intFromEnv("MOCK_POLL_COUNTDOWN", 2); err != nil {
		return MockAPI{}, err
	}
	if cfg.MinimumAge, err = intFromEnv("MOCK_MINIMUM_AGE", 13); err != nil {
		return MockAPI{}, err
	}
	if cfg.PollCountdown < 0 {
		return MockAPI{}, errors.New("MOCK_POLL_COUNTDOWN must not be negative")
	}
	return cfg, nil
}

func logFromEnv() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func durationFromEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
