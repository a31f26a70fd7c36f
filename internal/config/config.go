// ABOUTME: Configuration loading and parsing for voyager-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete voyager-gateway configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	Database    DatabaseConfig    `yaml:"database"`
	Session     SessionConfig     `yaml:"session"`
	Retry       RetryConfig       `yaml:"retry"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// AuthConfig holds authentication configuration.
// An empty jwt_secret disables bearer-token auth on the HTTP API.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// DatabaseConfig holds the optional durable conversation store.
// An empty path keeps sessions purely in memory.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig holds session lifecycle configuration
type SessionConfig struct {
	TTL          time.Duration `yaml:"-"`
	TurnDeadline time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TTLRaw          string `yaml:"ttl"`
	TurnDeadlineRaw string `yaml:"turn_deadline"`
}

// RetryConfig holds outbound-call retry policy
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseBackoff time.Duration `yaml:"-"`
	CallTimeout time.Duration `yaml:"-"`

	BaseBackoffRaw string `yaml:"base_backoff"`
	CallTimeoutRaw string `yaml:"call_timeout"`
}

// InterpreterConfig holds the LLM interpreter endpoint configuration
type InterpreterConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// ProvidersConfig holds backing API configuration for each capability
type ProvidersConfig struct {
	Flights     ProviderConfig `yaml:"flights"`
	Hotels      ProviderConfig `yaml:"hotels"`
	Restaurants ProviderConfig `yaml:"restaurants"`
	Excursions  ProviderConfig `yaml:"excursions"`
}

// ProviderConfig holds one backing API's location and credentials
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values the file may omit
func (c *Config) applyDefaults() {
	if c.Session.TTL == 0 {
		c.Session.TTL = 30 * time.Minute
	}
	if c.Session.TurnDeadline == 0 {
		c.Session.TurnDeadline = 30 * time.Second
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseBackoff == 0 {
		c.Retry.BaseBackoff = time.Second
	}
	if c.Retry.CallTimeout == 0 {
		c.Retry.CallTimeout = 10 * time.Second
	}
	if c.Interpreter.Model == "" {
		c.Interpreter.Model = "gpt-4"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Interpreter.Endpoint == "" {
		return fmt.Errorf("interpreter.endpoint is required")
	}

	for name, p := range map[string]ProviderConfig{
		"flights":     c.Providers.Flights,
		"hotels":      c.Providers.Hotels,
		"restaurants": c.Providers.Restaurants,
		"excursions":  c.Providers.Excursions,
	} {
		if p.BaseURL == "" {
			return fmt.Errorf("providers.%s.base_url is required", name)
		}
	}

	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Session.TTLRaw != "" {
		cfg.Session.TTL, err = time.ParseDuration(cfg.Session.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session.ttl %q: %w", cfg.Session.TTLRaw, err)
		}
	}

	if cfg.Session.TurnDeadlineRaw != "" {
		cfg.Session.TurnDeadline, err = time.ParseDuration(cfg.Session.TurnDeadlineRaw)
		if err != nil {
			return fmt.Errorf("parsing session.turn_deadline %q: %w", cfg.Session.TurnDeadlineRaw, err)
		}
	}

	if cfg.Retry.BaseBackoffRaw != "" {
		cfg.Retry.BaseBackoff, err = time.ParseDuration(cfg.Retry.BaseBackoffRaw)
		if err != nil {
			return fmt.Errorf("parsing retry.base_backoff %q: %w", cfg.Retry.BaseBackoffRaw, err)
		}
	}

	if cfg.Retry.CallTimeoutRaw != "" {
		cfg.Retry.CallTimeout, err = time.ParseDuration(cfg.Retry.CallTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing retry.call_timeout %q: %w", cfg.Retry.CallTimeoutRaw, err)
		}
	}

	return nil
}
