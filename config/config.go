package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mailsonar/mailsonar/ai"
	"github.com/mailsonar/mailsonar/mailstore"
	"github.com/mailsonar/mailsonar/search"
)

// Config holds the mailsonar configuration.
type Config struct {
	IMAP    IMAPConfig    `yaml:"imap"`
	AI      AIConfig      `yaml:"ai"`
	HTTP    HTTPConfig    `yaml:"http"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// IMAPConfig holds mailbox connection settings. Credentials normally come
// from the environment rather than the file.
type IMAPConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Folder   string `yaml:"folder"`
}

// AIConfig holds embedding provider settings.
type AIConfig struct {
	Host   string   `yaml:"host"`
	Models []string `yaml:"models"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig holds ranking settings.
type SearchConfig struct {
	Threshold float64 `yaml:"threshold"`
	TopK      int     `yaml:"top_k"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Environment variables consulted for IMAP credentials. They override the
// corresponding file values when set.
const (
	EnvIMAPHost = "IMAP_HOST"
	EnvUser     = "EMAIL_USER"
	EnvPassword = "EMAIL_PASS"
)

// Load reads configuration from a YAML file. An empty path yields the
// defaults plus environment overrides, so running without a config file
// works.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}

		// Substitute env variables of the form ${VAR}
		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvIMAPHost); v != "" {
		c.IMAP.Host = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		c.IMAP.User = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.IMAP.Password = v
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	aiDefaults := ai.DefaultConfig()
	if c.AI.Host == "" {
		c.AI.Host = aiDefaults.Host
	}
	if len(c.AI.Models) == 0 {
		c.AI.Models = aiDefaults.Models
	}
	if c.IMAP.Folder == "" {
		c.IMAP.Folder = mailstore.DefaultFolder
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Embedding a large folder takes a while.
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.Threshold == 0 {
		c.Search.Threshold = search.DefaultThreshold
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = search.DefaultTopK
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = defaultCacheDir()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be between 0 and 1, got %g", c.Search.Threshold)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// ValidateCredentials checks that the mailbox settings needed for a live
// IMAP connection are present, naming the missing environment variables.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.IMAP.Host == "" {
		missing = append(missing, EnvIMAPHost)
	}
	if c.IMAP.User == "" {
		missing = append(missing, EnvUser)
	}
	if c.IMAP.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing IMAP credentials, set %s", strings.Join(missing, ", "))
	}
	return nil
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return "mailsonar-cache"
	}
	return filepath.Join(base, "mailsonar")
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
