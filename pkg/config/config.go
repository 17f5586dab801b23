package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the config file read by Load.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-procure.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr     string        `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"PORT" env-default:"5000"`
	Env          string        `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL      string        `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	CORSOrigins  string        `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"*"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" env-default:"120s"`
	LogLevel     string        `yaml:"log_level" env:"LOG_LEVEL" env-default:""` // Empty uses the environment's default
	Version      string        `yaml:"-"` // Set at load time, not from config

	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	IMAP     IMAPConfig     `yaml:"imap"`
}

// Database types.
const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	Type     string `yaml:"type" env:"DB_TYPE" env-default:"postgres"`
	Host     string `yaml:"host" env:"PGHOST,DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"PGPORT,DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER,DB_USER" env-default:"postgres"`
	Password string `yaml:"-" env:"PGPASSWORD,DB_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"PGDATABASE,DB_NAME" env-default:"procurement_db"`
	SSLMode  string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`

	// SQLitePath is the database file used when Type is "sqlite".
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"procurement.db"`

	MaxConnections int32         `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"20"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"DB_IDLE_TIMEOUT" env-default:"30s"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT" env-default:"2s"`
	AutoMigrate    bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// LLM providers.
const (
	LLMProviderOpenAI    = "openai"
	LLMProviderAnthropic = "anthropic"
	LLMProviderHeuristic = "heuristic"
)

// LLMConfig configures the structured-extraction model.
type LLMConfig struct {
	Provider string        `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string        `yaml:"endpoint" env:"LLM_BASE_URL" env-default:""`
	Model    string        `yaml:"model" env:"LLM_MODEL" env-default:""`
	APIKey   string        `yaml:"-" env:"LLM_API_KEY,OPENAI_API_KEY"` // Secret - not in YAML
	Timeout  time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"60s"`

	// Consecutive failures before extraction skips the model and uses the local heuristic.
	BreakerThreshold int           `yaml:"breaker_threshold" env:"LLM_BREAKER_THRESHOLD" env-default:"5"`
	BreakerReset     time.Duration `yaml:"breaker_reset" env:"LLM_BREAKER_RESET" env-default:"30s"`
}

// IsConfigured returns true if a model provider can be called.
func (c *LLMConfig) IsConfigured() bool {
	return c.Provider != LLMProviderHeuristic && c.APIKey != ""
}

// SMTPConfig configures outbound RFP email.
type SMTPConfig struct {
	Host       string `yaml:"host" env:"SMTP_HOST" env-default:""`
	Port       int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Secure     bool   `yaml:"secure" env:"SMTP_SECURE" env-default:"false"` // implicit TLS (port 465)
	User       string `yaml:"user" env:"SMTP_USER" env-default:""`
	Password   string `yaml:"-" env:"SMTP_PASSWORD,SMTP_PASS"` // Secret - not in YAML
	From       string `yaml:"from" env:"SMTP_FROM" env-default:""`
	SenderName string `yaml:"sender_name" env:"SMTP_SENDER_NAME" env-default:"Procurement Team"`
}

// IsConfigured returns true if outbound mail can be attempted.
func (c *SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

// FromAddress returns the envelope sender, defaulting to the SMTP user.
func (c *SMTPConfig) FromAddress() string {
	if c.From != "" {
		return c.From
	}
	return c.User
}

// IMAPConfig configures the mailbox polled for vendor replies.
type IMAPConfig struct {
	Host     string        `yaml:"host" env:"IMAP_HOST" env-default:""`
	Port     int           `yaml:"port" env:"IMAP_PORT" env-default:"993"`
	TLS      bool          `yaml:"tls" env:"IMAP_TLS" env-default:"true"`
	User     string        `yaml:"user" env:"IMAP_USER" env-default:""`
	Password string        `yaml:"-" env:"IMAP_PASSWORD,IMAP_PASS"` // Secret - not in YAML
	Mailbox  string        `yaml:"mailbox" env:"IMAP_MAILBOX" env-default:"INBOX"`
	Timeout  time.Duration `yaml:"timeout" env:"IMAP_TIMEOUT" env-default:"10s"`
}

// IsConfigured returns true if the mailbox can be polled.
func (c *IMAPConfig) IsConfigured() bool {
	return c.Host != "" && c.User != "" && c.Password != ""
}

// Load reads configuration from config.yaml with environment variable overrides.
// A missing config.yaml is not an error; the environment alone is used.
func Load(version string) (*Config, error) {
	return LoadFile(DefaultPath, version)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Database.Host = ResolveHostForDocker(cfg.Database.Host)

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	switch c.Database.Type {
	case DatabasePostgres, DatabaseSQLite:
	default:
		return fmt.Errorf("database.type must be %q or %q, got %q", DatabasePostgres, DatabaseSQLite, c.Database.Type)
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case LLMProviderOpenAI, LLMProviderAnthropic, LLMProviderHeuristic:
	default:
		return fmt.Errorf("llm.provider must be one of openai, anthropic, heuristic, got %q", c.LLM.Provider)
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database.max_connections must be positive")
	}
	return nil
}

// Warnings lists configuration gaps that degrade functionality without
// preventing startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Database.Type == DatabasePostgres && c.Database.Password == "" {
		warnings = append(warnings, "PGPASSWORD is not set; PostgreSQL connection may fail")
	}
	if c.LLM.Provider != LLMProviderHeuristic && c.LLM.APIKey == "" {
		warnings = append(warnings, "LLM_API_KEY is not set; extraction will use the local heuristic")
	}
	if !c.SMTP.IsConfigured() {
		warnings = append(warnings, "SMTP is not configured; RFP emails will be recorded but not sent")
	}
	if !c.IMAP.IsConfigured() {
		warnings = append(warnings, "IMAP is not configured; mailbox polling is disabled")
	}
	return warnings
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL form, as golang-migrate expects.
func (c *DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether /.dockerenv exists. Cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps loopback hosts to host.docker.internal inside a
// container so a database running on the host stays reachable.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}
