package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Ledger        LedgerConfig
	Notifications NotificationsConfig
	Firebase      FirebaseConfig
	Telemetry     TelemetryConfig
	TLS           TLSConfig
	Log           LogConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowedHosts []string
	UserHeader   string
}

type DatabaseConfig struct {
	Driver           string // "postgres" or "memory"
	Host             string
	Port             int
	User             string
	Password         string
	DBName           string
	SSLMode          string
	MigrateOnStartup bool
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LedgerConfig tunes the unit-of-work boundary and the follow-ups of
// money-moving operations.
type LedgerConfig struct {
	UnitTimeout          time.Duration
	LockTimeout          time.Duration
	IdempotencyTTL       time.Duration
	BillRewardProgram    string
	BillRewardPoints     int
	BudgetAlertThreshold float64
}

type NotificationsConfig struct {
	Workers      int
	QueueSize    int
	MessagesFile string
}

type FirebaseConfig struct {
	CredentialsFile string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
}

type TLSConfig struct {
	Enabled  bool
	CertPath string
	KeyPath  string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	unitTimeout, err := getDurationEnv("LEDGER_UNIT_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	lockTimeout, err := getDurationEnv("LEDGER_LOCK_TIMEOUT", 2*time.Second)
	if err != nil {
		return nil, err
	}
	idempotencyTTL, err := getDurationEnv("LEDGER_IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	rewardPoints, err := strconv.Atoi(getEnv("BILL_REWARD_POINTS", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILL_REWARD_POINTS: %w", err)
	}

	alertThreshold, err := strconv.ParseFloat(getEnv("BUDGET_ALERT_THRESHOLD", "0.8"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid BUDGET_ALERT_THRESHOLD: %w", err)
	}

	notifyWorkers, err := strconv.Atoi(getEnv("NOTIFY_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_WORKERS: %w", err)
	}
	notifyQueue, err := strconv.Atoi(getEnv("NOTIFY_QUEUE_SIZE", "256"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_QUEUE_SIZE: %w", err)
	}

	// Parse allowed hosts (comma-separated list)
	var allowedHosts []string
	for _, host := range strings.Split(getEnv("ALLOWED_HOSTS", ""), ",") {
		host = strings.TrimSpace(host)
		if host != "" {
			allowedHosts = append(allowedHosts, host)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowedHosts: allowedHosts,
			UserHeader:   getEnv("USER_ID_HEADER", "X-User-ID"),
		},
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             dbPort,
			User:             getEnv("DB_USER", "bankdash"),
			Password:         getEnv("DB_PASSWORD", ""),
			DBName:           getEnv("DB_NAME", "bankdash"),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
			MigrateOnStartup: getBoolEnv("DB_MIGRATE_ON_STARTUP", false),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Ledger: LedgerConfig{
			UnitTimeout:          unitTimeout,
			LockTimeout:          lockTimeout,
			IdempotencyTTL:       idempotencyTTL,
			BillRewardProgram:    getEnv("BILL_REWARD_PROGRAM", "Bill Payment Rewards"),
			BillRewardPoints:     rewardPoints,
			BudgetAlertThreshold: alertThreshold,
		},
		Notifications: NotificationsConfig{
			Workers:      notifyWorkers,
			QueueSize:    notifyQueue,
			MessagesFile: getEnv("NOTIFY_MESSAGES_FILE", ""),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "bankdash-api"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", "9464"),
		},
		TLS: TLSConfig{
			Enabled:  getBoolEnv("TLS_ENABLED", false),
			CertPath: getEnv("TLS_CERT_PATH", ""),
			KeyPath:  getEnv("TLS_KEY_PATH", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.Database.Driver)
	}

	if c.Ledger.UnitTimeout <= 0 {
		return fmt.Errorf("LEDGER_UNIT_TIMEOUT must be positive")
	}
	if c.Ledger.LockTimeout <= 0 || c.Ledger.LockTimeout > c.Ledger.UnitTimeout {
		return fmt.Errorf("LEDGER_LOCK_TIMEOUT must be positive and not exceed LEDGER_UNIT_TIMEOUT")
	}
	if c.Ledger.BillRewardPoints < 0 {
		return fmt.Errorf("BILL_REWARD_POINTS cannot be negative")
	}
	if c.Ledger.BudgetAlertThreshold <= 0 || c.Ledger.BudgetAlertThreshold > 1 {
		return fmt.Errorf("BUDGET_ALERT_THRESHOLD must be in (0, 1]")
	}
	if c.Notifications.Workers <= 0 {
		return fmt.Errorf("NOTIFY_WORKERS must be positive")
	}
	if c.Notifications.QueueSize <= 0 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be positive")
	}
	if c.Server.UserHeader == "" {
		return fmt.Errorf("USER_ID_HEADER cannot be empty")
	}

	// Validate TLS configuration
	if c.TLS.Enabled {
		if c.TLS.CertPath == "" {
			return fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if c.TLS.KeyPath == "" {
			return fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the postgres:// form used by the migration driver.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
