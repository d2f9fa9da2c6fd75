package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fleetrent-backend/internal/domain"
)

// Config represents the scheduler process configuration
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Email         EmailConfig         `yaml:"email"`
	Log           LogConfig           `yaml:"log"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // "postgres" (lib/pq) or "pgx"
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// EmailConfig selects and configures the outbound email provider
type EmailConfig struct {
	Provider string         `yaml:"provider"` // "smtp", "sendgrid" or "log"
	From     string         `yaml:"from"`
	FromName string         `yaml:"from_name"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type SendGridConfig struct {
	APIKey string `yaml:"api_key"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings (seconds precision, UTC)
type SchedulerConfig struct {
	TransitionRents          string `yaml:"transition_rents"`
	DetectOverdue            string `yaml:"detect_overdue"`
	SendReturnReminders      string `yaml:"send_return_reminders"`
	CheckInsuranceExpiry     string `yaml:"check_insurance_expiry"`
	SweepNotifications       string `yaml:"sweep_notifications"`
	TransitionTimeoutSeconds int    `yaml:"transition_timeout_seconds"`
	JobTimeoutSeconds        int    `yaml:"job_timeout_seconds"`
}

// NotificationsConfig contains the thresholds and policies the jobs apply
type NotificationsConfig struct {
	DefaultLocale        string `yaml:"default_locale"`
	AppBaseURL           string `yaml:"app_base_url"`
	RetentionDays        int    `yaml:"retention_days"`
	ReminderHorizonsDays []int  `yaml:"reminder_horizons_days"`
	ExpiryWindowDays     int    `yaml:"expiry_window_days"`
	ExpiryUrgentDays     int    `yaml:"expiry_urgent_days"`
	ExpiryHighDays       int    `yaml:"expiry_high_days"`
	OverdueRepeat        string `yaml:"overdue_repeat"`
	ReminderRepeat       string `yaml:"reminder_repeat"`
	ExpiryRepeat         string `yaml:"expiry_repeat"`
	OverlapCheck         *bool  `yaml:"overlap_check"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration holding only defaults. Database settings
// are left empty.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Email
	if val := os.Getenv("EMAIL_PROVIDER"); val != "" {
		c.Email.Provider = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		c.Email.From = val
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.Email.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Email.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.Email.SMTP.User = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.Email.SMTP.Password = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGrid.APIKey = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Scheduler / notifications
	if val := os.Getenv("JOB_TIMEOUT_SECONDS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Scheduler.JobTimeoutSeconds)
	}
	if val := os.Getenv("DEFAULT_LOCALE"); val != "" {
		c.Notifications.DefaultLocale = val
	}
	if val := os.Getenv("APP_BASE_URL"); val != "" {
		c.Notifications.AppBaseURL = val
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}

	if c.Email.Provider == "" {
		c.Email.Provider = "log"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "FleetRent"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Scheduler.TransitionRents == "" {
		c.Scheduler.TransitionRents = "0 * * * * *" // Every minute
	}
	if c.Scheduler.DetectOverdue == "" {
		c.Scheduler.DetectOverdue = "0 0 * * * *" // Hourly
	}
	if c.Scheduler.SendReturnReminders == "" {
		c.Scheduler.SendReturnReminders = "0 0 9 * * *" // 9 AM UTC
	}
	if c.Scheduler.CheckInsuranceExpiry == "" {
		c.Scheduler.CheckInsuranceExpiry = "0 0 8 * * *" // 8 AM UTC
	}
	if c.Scheduler.SweepNotifications == "" {
		c.Scheduler.SweepNotifications = "0 0 0 * * *" // Midnight UTC
	}
	if c.Scheduler.TransitionTimeoutSeconds == 0 {
		c.Scheduler.TransitionTimeoutSeconds = 50
	}
	if c.Scheduler.JobTimeoutSeconds == 0 {
		c.Scheduler.JobTimeoutSeconds = 600
	}

	n := &c.Notifications
	if n.DefaultLocale == "" {
		n.DefaultLocale = "en"
	}
	if n.RetentionDays == 0 {
		n.RetentionDays = 30
	}
	if len(n.ReminderHorizonsDays) == 0 {
		n.ReminderHorizonsDays = []int{3, 2, 1}
	}
	if n.ExpiryWindowDays == 0 {
		n.ExpiryWindowDays = 30
	}
	if n.ExpiryUrgentDays == 0 {
		n.ExpiryUrgentDays = 3
	}
	if n.ExpiryHighDays == 0 {
		n.ExpiryHighDays = 7
	}
	if n.OverdueRepeat == "" {
		n.OverdueRepeat = string(domain.RepeatDaily)
	}
	if n.ReminderRepeat == "" {
		n.ReminderRepeat = string(domain.RepeatOnce)
	}
	if n.ExpiryRepeat == "" {
		n.ExpiryRepeat = string(domain.RepeatOnce)
	}
	if n.OverlapCheck == nil {
		enabled := true
		n.OverlapCheck = &enabled
	}
	n.AppBaseURL = strings.TrimRight(n.AppBaseURL, "/")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Database validation
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// Email validation
	switch c.Email.Provider {
	case "smtp":
		if c.Email.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.Email.SMTP.Port <= 0 || c.Email.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.Email.SMTP.Port)
		}
	case "sendgrid":
		if c.Email.SendGrid.APIKey == "" {
			return fmt.Errorf("SendGrid API key is required")
		}
	case "log":
	default:
		return fmt.Errorf("unsupported email provider: %s", c.Email.Provider)
	}
	if c.Email.Provider != "log" && c.Email.From == "" {
		return fmt.Errorf("email sender address is required")
	}

	if c.Scheduler.TransitionTimeoutSeconds <= 0 {
		return fmt.Errorf("transition timeout must be positive: %d", c.Scheduler.TransitionTimeoutSeconds)
	}
	if c.Scheduler.JobTimeoutSeconds <= 0 {
		return fmt.Errorf("job timeout must be positive: %d", c.Scheduler.JobTimeoutSeconds)
	}

	return c.Notifications.validate()
}

func (n *NotificationsConfig) validate() error {
	if n.RetentionDays < 1 {
		return fmt.Errorf("retention days must be positive: %d", n.RetentionDays)
	}

	seen := make(map[int]bool, len(n.ReminderHorizonsDays))
	for _, h := range n.ReminderHorizonsDays {
		if h < 1 {
			return fmt.Errorf("reminder horizon must be at least one day: %d", h)
		}
		if seen[h] {
			return fmt.Errorf("duplicate reminder horizon: %d", h)
		}
		seen[h] = true
	}

	if n.ExpiryUrgentDays < 1 || n.ExpiryUrgentDays >= n.ExpiryHighDays || n.ExpiryHighDays > n.ExpiryWindowDays {
		return fmt.Errorf("expiry tiers must satisfy 0 < urgent (%d) < high (%d) <= window (%d)",
			n.ExpiryUrgentDays, n.ExpiryHighDays, n.ExpiryWindowDays)
	}

	for name, policy := range map[string]string{
		"overdue_repeat":  n.OverdueRepeat,
		"reminder_repeat": n.ReminderRepeat,
		"expiry_repeat":   n.ExpiryRepeat,
	} {
		if _, err := domain.ParseRepeatPolicy(policy); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

func (c *SchedulerConfig) TransitionTimeout() time.Duration {
	return time.Duration(c.TransitionTimeoutSeconds) * time.Second
}

func (c *SchedulerConfig) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// Repeat policies are validated by Load, so the parse errors are ignored here.

func (n *NotificationsConfig) OverdueRepeatPolicy() domain.RepeatPolicy {
	p, _ := domain.ParseRepeatPolicy(n.OverdueRepeat)
	return p
}

func (n *NotificationsConfig) ReminderRepeatPolicy() domain.RepeatPolicy {
	p, _ := domain.ParseRepeatPolicy(n.ReminderRepeat)
	return p
}

func (n *NotificationsConfig) ExpiryRepeatPolicy() domain.RepeatPolicy {
	p, _ := domain.ParseRepeatPolicy(n.ExpiryRepeat)
	return p
}

func (n *NotificationsConfig) OverlapCheckEnabled() bool {
	return n.OverlapCheck != nil && *n.OverlapCheck
}
