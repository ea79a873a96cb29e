package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Mail providers
const (
	MailProviderSMTP     = "smtp"
	MailProviderSendGrid = "sendgrid"
	MailProviderLog      = "log"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
	Reminders ReminderConfig
	Mail      MailConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Sentry    SentryConfig
	Health    HealthConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

type SchedulerConfig struct {
	Spec     string
	Timezone string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// ReminderConfig carries the delivery sweep policy.
type ReminderConfig struct {
	DailyCapPerInvoice int
	BatchSize          int
	SendRatePerSecond  float64
	LockTTL            time.Duration
}

type MailConfig struct {
	Provider       string
	FromEmail      string
	FromName       string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SendGridAPIKey string
}

type AuthConfig struct {
	JWTSecret  string
	CronSecret string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type SentryConfig struct {
	DSN string
}

type HealthConfig struct {
	Timeout time.Duration
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DATABASE_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			URL:      v.GetString("REDIS_URL"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Scheduler: SchedulerConfig{
			Spec:     v.GetString("SCHEDULER_SPEC"),
			Timezone: v.GetString("SCHEDULER_TIMEZONE"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Reminders: ReminderConfig{
			DailyCapPerInvoice: v.GetInt("REMINDER_DAILY_CAP_PER_INVOICE"),
			BatchSize:          v.GetInt("SWEEP_BATCH_SIZE"),
			SendRatePerSecond:  v.GetFloat64("SWEEP_SEND_RATE"),
			LockTTL:            v.GetDuration("SWEEP_LOCK_TTL"),
		},
		Mail: MailConfig{
			Provider:       v.GetString("MAIL_PROVIDER"),
			FromEmail:      v.GetString("MAIL_FROM_EMAIL"),
			FromName:       v.GetString("MAIL_FROM_NAME"),
			SMTPHost:       v.GetString("SMTP_HOST"),
			SMTPPort:       v.GetInt("SMTP_PORT"),
			SMTPUsername:   v.GetString("SMTP_USERNAME"),
			SMTPPassword:   v.GetString("SMTP_PASSWORD"),
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("JWT_SECRET"),
			CronSecret: v.GetString("CRON_SECRET"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: v.GetInt("API_RATE_LIMIT_PER_MINUTE"),
		},
		Sentry: SentryConfig{
			DSN: v.GetString("SENTRY_DSN"),
		},
		Health: HealthConfig{
			Timeout: v.GetDuration("HEALTH_CHECK_TIMEOUT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DATABASE_AUTO_MIGRATE", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SCHEDULER_SPEC", "0 0 8 * * *")
	v.SetDefault("SCHEDULER_TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("REMINDER_DAILY_CAP_PER_INVOICE", 1)
	v.SetDefault("SWEEP_BATCH_SIZE", 100)
	v.SetDefault("SWEEP_SEND_RATE", 5)
	v.SetDefault("SWEEP_LOCK_TTL", "10m")
	v.SetDefault("MAIL_PROVIDER", MailProviderLog)
	v.SetDefault("MAIL_FROM_EMAIL", "reminders@example.com")
	v.SetDefault("MAIL_FROM_NAME", "Invoice Reminders")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("API_RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Auth.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET is required")
	}

	if c.Reminders.DailyCapPerInvoice <= 0 {
		return fmt.Errorf("REMINDER_DAILY_CAP_PER_INVOICE must be greater than 0")
	}

	if c.Reminders.BatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be greater than 0")
	}

	if c.Reminders.SendRatePerSecond < 0 {
		return fmt.Errorf("SWEEP_SEND_RATE must not be negative")
	}

	if c.Reminders.LockTTL <= 0 {
		return fmt.Errorf("SWEEP_LOCK_TTL must be a positive duration")
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a positive duration")
	}

	switch c.Mail.Provider {
	case MailProviderLog:
	case MailProviderSMTP:
		if c.Mail.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required for the smtp mail provider")
		}
	case MailProviderSendGrid:
		if c.Mail.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid mail provider")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.Mail.Provider)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// DSN returns the Postgres connection string
func (d DatabaseConfig) DSN() string {
	return d.URL
}

// Addr returns host:port for the redis server
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// SchedulerLocation returns the scheduler timezone
func (c *Config) SchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
