// Package config loads tarka's runtime configuration from environment
// variables (optionally seeded from a .env file via godotenv), with
// production-ready defaults and go-playground/validator struct validation,
// matching the env-var-driven loading idiom the teacher uses for its
// database and queue settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// StorageConfig configures the object-store backend.
type StorageConfig struct {
	Backend   string `validate:"required,oneof=local s3"`
	LocalDir  string
	S3Bucket  string
	KeyPrefix string
}

// DatabaseConfig configures the Postgres connection backing the durable
// queue and the case index, mirroring the teacher's database.Config shape.
type DatabaseConfig struct {
	Host            string `validate:"required"`
	Port            int    `validate:"required,min=1,max=65535"`
	User            string `validate:"required"`
	Password        string
	Database        string `validate:"required"`
	SSLMode         string `validate:"required"`
	MaxOpenConns    int    `validate:"min=1"`
	MaxIdleConns    int    `validate:"min=0"`
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN renders the libpq connection string pgx expects.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// QueueConfig configures the durable-queue worker's claim and retry
// behavior — the Postgres-backed reinterpretation of the JetStream-shaped
// contract (max_deliver, ack_wait, fetch batching).
type QueueConfig struct {
	Concurrency       int           `validate:"min=1"`
	FetchBatch        int           `validate:"min=1"`
	FetchInterval     time.Duration `validate:"min=0"`
	InProgressTimeout time.Duration `validate:"min=0"`
	MaxDeliver        int           `validate:"min=1"`
	HeartbeatInterval time.Duration `validate:"min=0"`
}

// InvestigationConfig configures the per-run evidence window and
// diagnostic-engine policy knobs.
type InvestigationConfig struct {
	Window            time.Duration `validate:"min=0"`
	MemoryCalibration bool
}

// FreshnessConfig resolves the per-alert freshness TTL open question: the
// default gate window, and a longer one for alerts collapsed via the
// rollout-workload dedup key (those legitimately recur across pod churn
// over a longer span than a single-fingerprint repeat).
type FreshnessConfig struct {
	DefaultTTL time.Duration `validate:"min=0"`
	RolloutTTL time.Duration `validate:"min=0"`
}

// RetentionConfig configures the background job that prunes old case and
// queue rows, mirroring the teacher's RetentionConfig (session/event TTLs)
// reinterpreted for case records and alert jobs.
type RetentionConfig struct {
	CaseRetention time.Duration `validate:"min=0"`
	JobRetention  time.Duration `validate:"min=0"`
	Interval      time.Duration `validate:"min=0"`
}

// ProviderConfig configures the upstream data-source endpoints.
type ProviderConfig struct {
	PrometheusURL    string
	LokiURL          string
	AlertmanagerURL  string
	AWSRegion        string
	GitHubToken      string
	KubeconfigPath   string
	InClusterK8s     bool
}

// Config is the umbrella object returned by Load, analogous to the
// teacher's pkg/config.Config registry aggregate.
type Config struct {
	ClusterName      string `validate:"required"`
	AlertnameAllow   []string
	ListenAddr       string `validate:"required"`
	LogLevel         string `validate:"required,oneof=debug info warn error"`
	LogFormat        string `validate:"required,oneof=json text"`
	Storage          StorageConfig
	Database         DatabaseConfig
	Queue            QueueConfig
	Freshness        FreshnessConfig
	Providers        ProviderConfig
	Investigation    InvestigationConfig
	Retention        RetentionConfig
}

// Load reads configuration from the process environment, optionally
// seeded by a .env file if one is present in the working directory, and
// validates the result before returning it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxOpen, err := strconv.Atoi(getEnvOrDefault("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := strconv.Atoi(getEnvOrDefault("DB_MAX_IDLE_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	maxLifetime, err := time.ParseDuration(getEnvOrDefault("DB_CONN_MAX_LIFETIME", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	maxIdleTime, err := time.ParseDuration(getEnvOrDefault("DB_CONN_MAX_IDLE_TIME", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_IDLE_TIME: %w", err)
	}

	concurrency, err := strconv.Atoi(getEnvOrDefault("WORKER_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}
	fetchBatch, err := strconv.Atoi(getEnvOrDefault("WORKER_FETCH_BATCH", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_FETCH_BATCH: %w", err)
	}
	fetchIntervalSec, err := strconv.Atoi(getEnvOrDefault("WORKER_FETCH_INTERVAL_SECONDS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_FETCH_INTERVAL_SECONDS: %w", err)
	}
	inProgressSec, err := strconv.Atoi(getEnvOrDefault("WORKER_IN_PROGRESS_SECONDS", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_IN_PROGRESS_SECONDS: %w", err)
	}
	maxDeliver, err := strconv.Atoi(getEnvOrDefault("WORKER_MAX_DELIVER", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_MAX_DELIVER: %w", err)
	}
	heartbeatSec, err := strconv.Atoi(getEnvOrDefault("WORKER_HEARTBEAT_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_HEARTBEAT_SECONDS: %w", err)
	}

	defaultTTL, err := time.ParseDuration(getEnvOrDefault("FRESHNESS_DEFAULT_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid FRESHNESS_DEFAULT_TTL: %w", err)
	}
	rolloutTTL, err := time.ParseDuration(getEnvOrDefault("FRESHNESS_ROLLOUT_TTL", "4h"))
	if err != nil {
		return nil, fmt.Errorf("invalid FRESHNESS_ROLLOUT_TTL: %w", err)
	}

	investigationWindow, err := time.ParseDuration(getEnvOrDefault("INVESTIGATION_WINDOW", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid INVESTIGATION_WINDOW: %w", err)
	}

	caseRetention, err := time.ParseDuration(getEnvOrDefault("RETENTION_CASE_AGE", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETENTION_CASE_AGE: %w", err)
	}
	jobRetention, err := time.ParseDuration(getEnvOrDefault("RETENTION_JOB_AGE", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETENTION_JOB_AGE: %w", err)
	}
	retentionInterval, err := time.ParseDuration(getEnvOrDefault("RETENTION_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETENTION_INTERVAL: %w", err)
	}

	cfg := &Config{
		ClusterName:    os.Getenv("CLUSTER_NAME"),
		AlertnameAllow: splitCSV(os.Getenv("ALERTNAME_ALLOWLIST")),
		ListenAddr:     getEnvOrDefault("LISTEN_ADDR", ":8080"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "json"),
		Storage: StorageConfig{
			Backend:   getEnvOrDefault("STORAGE_BACKEND", "local"),
			LocalDir:  getEnvOrDefault("LOCAL_STORAGE_DIR", "./data/reports"),
			S3Bucket:  os.Getenv("S3_BUCKET"),
			KeyPrefix: getEnvOrDefault("S3_PREFIX", os.Getenv("CLUSTER_NAME")),
		},
		Database: DatabaseConfig{
			Host:            getEnvOrDefault("DB_HOST", "localhost"),
			Port:            port,
			User:            getEnvOrDefault("DB_USER", "tarka"),
			Password:        os.Getenv("DB_PASSWORD"),
			Database:        getEnvOrDefault("DB_NAME", "tarka"),
			SSLMode:         getEnvOrDefault("DB_SSLMODE", "disable"),
			MaxOpenConns:    maxOpen,
			MaxIdleConns:    maxIdle,
			ConnMaxLifetime: maxLifetime,
			ConnMaxIdleTime: maxIdleTime,
		},
		Queue: QueueConfig{
			Concurrency:       concurrency,
			FetchBatch:        fetchBatch,
			FetchInterval:     time.Duration(fetchIntervalSec) * time.Second,
			InProgressTimeout: time.Duration(inProgressSec) * time.Second,
			MaxDeliver:        maxDeliver,
			HeartbeatInterval: time.Duration(heartbeatSec) * time.Second,
		},
		Freshness: FreshnessConfig{
			DefaultTTL: defaultTTL,
			RolloutTTL: rolloutTTL,
		},
		Providers: ProviderConfig{
			PrometheusURL:   os.Getenv("PROMETHEUS_URL"),
			LokiURL:         os.Getenv("LOKI_URL"),
			AlertmanagerURL: os.Getenv("ALERTMANAGER_URL"),
			AWSRegion:       os.Getenv("AWS_REGION"),
			GitHubToken:     os.Getenv("GITHUB_TOKEN"),
			KubeconfigPath:  os.Getenv("KUBECONFIG"),
			InClusterK8s:    os.Getenv("K8S_IN_CLUSTER") == "true",
		},
		Investigation: InvestigationConfig{
			Window:            investigationWindow,
			MemoryCalibration: os.Getenv("MEMORY_CALIBRATION_ENABLED") == "true",
		},
		Retention: RetentionConfig{
			CaseRetention: caseRetention,
			JobRetention:  jobRetention,
			Interval:      retentionInterval,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation plus the cross-field checks the
// teacher applies by hand in database.Config.Validate.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := v.Struct(c.Storage); err != nil {
		return fmt.Errorf("invalid storage configuration: %w", err)
	}
	if c.Storage.Backend == "s3" && c.Storage.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
	}
	if err := v.Struct(c.Database); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if err := v.Struct(c.Queue); err != nil {
		return fmt.Errorf("invalid queue configuration: %w", err)
	}
	if err := v.Struct(c.Freshness); err != nil {
		return fmt.Errorf("invalid freshness configuration: %w", err)
	}
	if err := v.Struct(c.Investigation); err != nil {
		return fmt.Errorf("invalid investigation configuration: %w", err)
	}
	if err := v.Struct(c.Retention); err != nil {
		return fmt.Errorf("invalid retention configuration: %w", err)
	}
	return nil
}

// Allowed reports whether alertname passes the allowlist, or true if no
// allowlist is configured (allow-all is the default).
func (c *Config) Allowed(alertname string) bool {
	if len(c.AlertnameAllow) == 0 {
		return true
	}
	for _, a := range c.AlertnameAllow {
		if a == alertname {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
