// Package config provides configuration loading for the sync service.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvRemoteToken is the environment variable holding the remote CRM API
	// token when no token file is configured.
	EnvRemoteToken = "ALFA_REMOTE_TOKEN"

	// EnvDatabasePassword is the environment variable holding the database
	// password when no password file is configured.
	EnvDatabasePassword = "ALFA_DATABASE_PASSWORD"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Remote   RemoteConfig    `yaml:"remote"`
	Sync     SyncConfig      `yaml:"sync,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
}

// RemoteConfig defines the external CRM API connection settings
type RemoteConfig struct {
	// Endpoint is the base API URL, without a trailing path.
	// Example: "https://crm.example.com/api/v2"
	Endpoint string `yaml:"endpoint"`

	// TokenFile is the path to a file containing the API token.
	// This is the recommended approach for production deployments.
	TokenFile string `yaml:"tokenFile,omitempty"`

	// MaxRetries bounds retry attempts for transient fetch failures.
	MaxRetries int `yaml:"maxRetries,omitempty"`
}

// SyncConfig defines the reconciliation schedule and pagination settings
type SyncConfig struct {
	// Interval is the scheduler period (e.g. "15m", "1h").
	// Defaults to 1h when unset.
	Interval string `yaml:"interval,omitempty"`

	// RunOnStart triggers a pass as soon as the scheduler starts.
	RunOnStart bool `yaml:"runOnStart,omitempty"`

	// PageSize is the per-page record count requested from the remote.
	PageSize int `yaml:"pageSize,omitempty"`

	// MaxPages bounds pagination per record kind per run.
	MaxPages int `yaml:"maxPages,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing
	// whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum number of pooled connections
	MaxConns int32 `yaml:"maxConns,omitempty"`
}

// DefaultInterval returns the scheduler period, using 1h if not specified or
// unparseable.
func (s *SyncConfig) DefaultInterval() time.Duration {
	if s.Interval == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return time.Hour
	}
	return d
}

// GetToken returns the remote API token using the following priority:
// 1. Read from TokenFile if specified
// 2. Read from the ALFA_REMOTE_TOKEN environment variable
//
// The token from file will have leading/trailing whitespace trimmed.
func (r *RemoteConfig) GetToken() (string, error) {
	if r.TokenFile != "" {
		cleanPath := filepath.Clean(r.TokenFile)
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read token from file %s: %w", r.TokenFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envToken := os.Getenv(EnvRemoteToken); envToken != "" {
		return envToken, nil
	}

	return "", fmt.Errorf(
		"no remote API token configured: set tokenFile or the %s environment variable",
		EnvRemoteToken,
	)
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from the ALFA_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvDatabasePassword); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or the %s environment variable",
		EnvDatabasePassword,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper
// password handling. The password is URL-escaped to handle special characters
// safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)
	if d.MaxConns > 0 {
		connString += fmt.Sprintf("&pool_max_conns=%d", d.MaxConns)
	}

	return connString, nil
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// A missing file is not an error; an unreadable or malformed one is.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateRemote(&c.Remote); err != nil {
		return err
	}
	if err := validateSync(&c.Sync); err != nil {
		return err
	}
	return validateDatabase(c.Database)
}

func validateRemote(r *RemoteConfig) error {
	if r.Endpoint == "" {
		return fmt.Errorf("remote.endpoint is required")
	}
	u, err := url.Parse(r.Endpoint)
	if err != nil {
		return fmt.Errorf("remote.endpoint is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("remote.endpoint must use http or https, got %q", u.Scheme)
	}
	if r.MaxRetries < 0 {
		return fmt.Errorf("remote.maxRetries must not be negative")
	}
	return nil
}

func validateSync(s *SyncConfig) error {
	if s.Interval != "" {
		if _, err := time.ParseDuration(s.Interval); err != nil {
			return fmt.Errorf("sync.interval must be a valid duration (e.g. '15m', '1h'): %w", err)
		}
	}
	if s.PageSize < 0 {
		return fmt.Errorf("sync.pageSize must not be negative")
	}
	if s.MaxPages < 0 {
		return fmt.Errorf("sync.maxPages must not be negative")
	}
	return nil
}

func validateDatabase(d *DatabaseConfig) error {
	if d == nil {
		return fmt.Errorf("database configuration is required")
	}
	if d.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if d.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if d.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	return nil
}
