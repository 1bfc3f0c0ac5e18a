package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
)

// Config holds the kwharvest configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Harvest   HarvestConfig   `yaml:"harvest"`
	Providers ProvidersConfig `yaml:"providers"`
	Cache     CacheConfig     `yaml:"cache"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, memory (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// HarvestConfig holds scheduler and run lifecycle settings.
type HarvestConfig struct {
	BatchSize      int `yaml:"batch_size"`
	PacingMs       int `yaml:"pacing_ms"`
	SettleMs       int `yaml:"settle_ms"`
	DeepLimit      int `yaml:"deep_limit"`
	MaxRuns        int `yaml:"max_runs"`
	SnapshotTTLHrs int `yaml:"snapshot_ttl_hours"`
}

// ProvidersConfig holds suggestion provider transport settings.
type ProvidersConfig struct {
	CompletionTimeoutMs int               `yaml:"completion_timeout_ms"`
	HTTPTimeoutSec      int               `yaml:"http_timeout_sec"`
	RelayURL            string            `yaml:"relay_url"`
	UserAgent           string            `yaml:"user_agent"`
	Endpoints           map[string]string `yaml:"endpoints"` // provider id -> base URL override
}

// CacheConfig holds suggestion cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLMin  int  `yaml:"ttl_minutes"`
}

// AnalyzerConfig holds the language model used for keyword analysis.
type AnalyzerConfig struct {
	Provider    string `yaml:"provider"` // openai, gemini; empty disables analysis
	APIKey      string `yaml:"api_key"`  // empty disables analysis at startup
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	MaxKeywords int    `yaml:"max_keywords"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Harvest.BatchSize <= 0 {
		c.Harvest.BatchSize = 3
	}
	if c.Harvest.PacingMs <= 0 {
		c.Harvest.PacingMs = 200
	}
	if c.Harvest.SettleMs <= 0 {
		c.Harvest.SettleMs = 1000
	}
	if c.Harvest.DeepLimit <= 0 {
		c.Harvest.DeepLimit = 20
	}
	if c.Harvest.MaxRuns <= 0 {
		c.Harvest.MaxRuns = 32
	}
	if c.Harvest.SnapshotTTLHrs <= 0 {
		c.Harvest.SnapshotTTLHrs = 168
	}
	if c.Providers.CompletionTimeoutMs <= 0 {
		c.Providers.CompletionTimeoutMs = 5000
	}
	if c.Providers.HTTPTimeoutSec <= 0 {
		c.Providers.HTTPTimeoutSec = 15
	}
	if c.Cache.TTLMin <= 0 {
		c.Cache.TTLMin = 360
	}
	if c.Analyzer.MaxKeywords <= 0 {
		c.Analyzer.MaxKeywords = 100
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "kwharvest:"
	}
}

// Database drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// Analyzer providers.
const (
	AnalyzerOpenAI = "openai"
	AnalyzerGemini = "gemini"
)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be \"memory\", \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	for id := range c.Providers.Endpoints {
		if !provider.ID(id).IsValid() {
			return fmt.Errorf("providers.endpoints: unknown provider %q", id)
		}
	}
	switch c.Analyzer.Provider {
	case "", AnalyzerOpenAI, AnalyzerGemini:
	default:
		return fmt.Errorf("analyzer.provider must be \"openai\" or \"gemini\", got %q", c.Analyzer.Provider)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
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
