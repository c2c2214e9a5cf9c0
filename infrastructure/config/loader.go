package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"drive-distribution/domain/distribution"
)

// DefaultPath is where the CLI looks for its configuration
const DefaultPath = "config/config.yaml"

// Environment variables that override secrets in the file
const (
	EnvDatabaseDSN   = "DRIVE_DISTRIBUTION_DATABASE_DSN"
	EnvRedisPassword = "DRIVE_DISTRIBUTION_REDIS_PASSWORD"
)

// Config represents the complete application configuration
type Config struct {
	Google       GoogleConfig       `yaml:"google"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Distribution DistributionConfig `yaml:"distribution"`
	Server       ServerConfig       `yaml:"server"`
	Tracing      TracingConfig      `yaml:"tracing"`
	Logging      LoggingConfig      `yaml:"logging"`
	Email        EmailConfig        `yaml:"email"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	SiteFolderName  string `yaml:"site_folder_name"`
	RootFolderID    string `yaml:"root_folder_id"`
	// ServiceAccount selects service account credentials instead of the
	// OAuth consent flow. Run summaries need OAuth.
	ServiceAccount bool `yaml:"service_account"`
}

// DatabaseConfig contains the Postgres connection settings
type DatabaseConfig struct {
	DSN            string        `yaml:"dsn"`
	MaxOpenConns   int           `yaml:"max_open_conns"`
	RosterCacheTTL time.Duration `yaml:"roster_cache_ttl"`
}

// RedisConfig contains the run lock settings. An empty Addr selects the
// in-process lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

// DistributionConfig tunes distribution runs
type DistributionConfig struct {
	BatchTimeout        time.Duration `yaml:"batch_timeout"`
	MaxConcurrency      int           `yaml:"max_concurrency"`
	SharePolicy         string        `yaml:"share_failure_policy"`
	NotificationMessage string        `yaml:"notification_message"`
}

// ServerConfig contains the HTTP server settings
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// TracingConfig contains the OpenTelemetry exporter settings
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// LoggingConfig selects the log format and level
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EmailConfig contains run summary settings
type EmailConfig struct {
	FromName    string                     `yaml:"from_name"`
	FromAddress string                     `yaml:"from_address"`
	DefaultCC   []RecipientConfig          `yaml:"default_cc"`
	Recipients  map[string]RecipientConfig `yaml:"recipients"`
}

// RecipientConfig represents an email recipient
type RecipientConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their defaults
func (c *Config) ApplyDefaults() {
	setDefault(&c.Google.CredentialsFile, "credentials.json")
	setDefault(&c.Google.TokenFile, "token.json")
	setDefault(&c.Google.SiteFolderName, "Drive distributions")
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.RosterCacheTTL <= 0 {
		c.Database.RosterCacheTTL = time.Minute
	}
	if c.Redis.LockTTL <= 0 {
		c.Redis.LockTTL = 10 * time.Minute
	}
	if c.Distribution.BatchTimeout <= 0 {
		c.Distribution.BatchTimeout = 2 * time.Minute
	}
	if c.Distribution.MaxConcurrency <= 0 {
		c.Distribution.MaxConcurrency = 8
	}
	setDefault(&c.Distribution.SharePolicy, string(distribution.SharePolicyStrict))
	setDefault(&c.Server.Addr, ":8080")
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Minute
	}
	setDefault(&c.Tracing.ServiceName, "drive-distribution")
	setDefault(&c.Logging.Level, "info")
	setDefault(&c.Logging.Format, "text")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if _, err := distribution.ParseSharePolicy(c.Distribution.SharePolicy); err != nil {
		return fmt.Errorf("distribution.share_failure_policy: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}
	return nil
}

// SharePolicy returns the parsed share failure policy
func (c *Config) SharePolicy() distribution.SharePolicy {
	p, err := distribution.ParseSharePolicy(c.Distribution.SharePolicy)
	if err != nil {
		return distribution.SharePolicyStrict
	}
	return p
}

// Load reads and parses the configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if dsn := os.Getenv(EnvDatabaseDSN); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if pw := os.Getenv(EnvRedisPassword); pw != "" {
		cfg.Redis.Password = pw
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
