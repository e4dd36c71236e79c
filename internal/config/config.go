package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RedisConfig holds the idempotency store connection. An empty address disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	KeyTTL   time.Duration `mapstructure:"keyTTL"`
}

// NATSConfig holds the notification bus connection
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subjectPrefix"`
}

// NotifierConfig selects the notification backend: log, nats or webhook
type NotifierConfig struct {
	Provider   string        `mapstructure:"provider"`
	WebhookURL string        `mapstructure:"webhookURL"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"maxRetries"`
}

// OutboxConfig holds outbox processor tuning
type OutboxConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	BatchSize  int           `mapstructure:"batchSize"`
	MaxRetries int           `mapstructure:"maxRetries"`
}

// LedgerConfig holds settlement and withdrawal rules
type LedgerConfig struct {
	MaxRetries     int              `mapstructure:"maxRetries"`
	LockTimeout    time.Duration    `mapstructure:"lockTimeout"`
	ResumeInterval time.Duration    `mapstructure:"resumeInterval"`
	Withdrawal     WithdrawalConfig `mapstructure:"withdrawal"`
}

// WithdrawalConfig holds the daily withdrawal window
type WithdrawalConfig struct {
	DailyCap     int64 `mapstructure:"dailyCap"`
	Minimum      int64 `mapstructure:"minimum"`
	ResetHourUTC int   `mapstructure:"resetHourUTC"`
}

// AuditConfig holds ledger reconciliation settings
type AuditConfig struct {
	Tolerance     int64         `mapstructure:"tolerance"`
	SweepInterval time.Duration `mapstructure:"sweepInterval"`
	SweepPageSize int           `mapstructure:"sweepPageSize"`
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetMigrationURL returns the database URL understood by golang-migrate
func (c *Config) GetMigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the server address for binding
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// ApplyDefaults fills unset values with the platform defaults
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.JWT.Expiry == 0 {
		c.JWT.Expiry = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Redis.KeyTTL == 0 {
		c.Redis.KeyTTL = 24 * time.Hour
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "tourney"
	}
	if c.Notifier.Provider == "" {
		c.Notifier.Provider = "log"
	}
	if c.Notifier.Timeout == 0 {
		c.Notifier.Timeout = 5 * time.Second
	}
	if c.Notifier.MaxRetries == 0 {
		c.Notifier.MaxRetries = 3
	}
	if c.Outbox.Interval == 0 {
		c.Outbox.Interval = 5 * time.Second
	}
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.MaxRetries == 0 {
		c.Outbox.MaxRetries = 5
	}
	if c.Ledger.MaxRetries == 0 {
		c.Ledger.MaxRetries = 3
	}
	if c.Ledger.LockTimeout == 0 {
		c.Ledger.LockTimeout = 5 * time.Second
	}
	if c.Ledger.ResumeInterval == 0 {
		c.Ledger.ResumeInterval = time.Minute
	}
	if c.Ledger.Withdrawal.DailyCap == 0 {
		c.Ledger.Withdrawal.DailyCap = 1000
	}
	if c.Ledger.Withdrawal.Minimum == 0 {
		c.Ledger.Withdrawal.Minimum = 50
	}
	if c.Audit.Tolerance == 0 {
		c.Audit.Tolerance = 1
	}
	if c.Audit.SweepInterval == 0 {
		c.Audit.SweepInterval = 24 * time.Hour
	}
	if c.Audit.SweepPageSize == 0 {
		c.Audit.SweepPageSize = 200
	}
}

// GetEnvironment returns the current environment
func GetEnvironment() string {
	if env := os.Getenv("TOURNEY_LEDGER_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "development"
}
