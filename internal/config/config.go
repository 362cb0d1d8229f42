// Package config loads the flat Config value spec.md §6 says is injected
// into the core rather than resolved by it. It exists for the cmd/
// binaries and tests; no library package in this module opens a config
// file itself, grounded on spec.md's "Out of scope" note that
// configuration-file loading is an external collaborator's concern.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/loglens/loglens/pkg/apperr"
)

// AppConfig names the running process, mirroring the teacher's
// internal/config App block.
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// StoreConfig locates the single SQLite database shared by all projects
// (DataDir/loglens.db) and the global registry file (spec.md §4.F/§4.G).
type StoreConfig struct {
	DataDir      string `yaml:"data_dir"`
	RegistryPath string `yaml:"registry_path"`
}

// ProviderConfig carries one AI provider's credentials/endpoint override.
// Resolution order for APIKey is explicit parameter -> environment ->
// this value -> absent (provider rejected), per spec.md §6.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// AIConfig selects the default provider and carries per-provider overrides.
type AIConfig struct {
	DefaultProvider string         `yaml:"default_provider"`
	OpenRouter      ProviderConfig `yaml:"openrouter"`
	OpenAI          ProviderConfig `yaml:"openai"`
	Claude          ProviderConfig `yaml:"claude"`
	Gemini          ProviderConfig `yaml:"gemini"`
}

// MCPConfig controls the MCP tool server's transports.
type MCPConfig struct {
	Stdio       bool   `yaml:"stdio"`
	HTTPEnabled bool   `yaml:"http_enabled"`
	HTTPAddr    string `yaml:"http_addr"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig controls the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Endpoint     string  `yaml:"endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// StreamingConfig bounds the Streaming Source Manager's shared resources.
type StreamingConfig struct {
	HTTPSinkAddr     string `yaml:"http_sink_addr"`
	RingBufferSize   int    `yaml:"ring_buffer_size"`
}

// Config is the flat value every LogLens binary loads once at startup and
// injects into its collaborators; no core package reads it directly.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Store     StoreConfig     `yaml:"store"`
	AI        AIConfig        `yaml:"ai"`
	MCP       MCPConfig       `yaml:"mcp"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Streaming StreamingConfig `yaml:"streaming"`
}

// LoadConfig loads configFile (if non-empty) then applies defaults and
// environment overrides, in that order, matching the teacher's
// internal/config.LoadConfig layering.
func LoadConfig(configFile string) (*Config, error) {
	cfg := &Config{}

	if configFile != "" {
		if err := loadConfigFile(configFile, cfg); err != nil {
			return nil, apperr.New(apperr.IO, "config", "LoadConfig", "load config file").Wrap(err)
		}
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "loglens"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "0.1.0"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "production"
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.LogFormat == "" {
		cfg.App.LogFormat = "json"
	}

	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = defaultConfigHome()
	}
	if cfg.Store.RegistryPath == "" {
		cfg.Store.RegistryPath = cfg.Store.DataDir + "/projects.json"
	}

	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "mock"
	}

	cfg.MCP.Stdio = true // stdio transport is always available, per spec.md §4.J
	if cfg.MCP.HTTPAddr == "" {
		cfg.MCP.HTTPAddr = ":8402"
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":8001"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "loglens"
	}

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "loglens"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1.0
	}

	if cfg.Streaming.RingBufferSize == 0 {
		cfg.Streaming.RingBufferSize = 10000
	}
	if cfg.Streaming.HTTPSinkAddr == "" {
		cfg.Streaming.HTTPSinkAddr = ":8403"
	}
}

func defaultConfigHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.config/loglens"
	}
	return "./.loglens"
}

func applyEnvironmentOverrides(cfg *Config) {
	cfg.App.Name = getEnvString("LOGLENS_APP_NAME", cfg.App.Name)
	cfg.App.Environment = getEnvString("LOGLENS_ENVIRONMENT", cfg.App.Environment)
	cfg.App.LogLevel = getEnvString("LOGLENS_LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.LogFormat = getEnvString("LOGLENS_LOG_FORMAT", cfg.App.LogFormat)

	cfg.Store.DataDir = getEnvString("LOGLENS_DATA_DIR", cfg.Store.DataDir)
	cfg.Store.RegistryPath = getEnvString("LOGLENS_REGISTRY_PATH", cfg.Store.RegistryPath)

	cfg.AI.DefaultProvider = getEnvString("LOGLENS_AI_PROVIDER", cfg.AI.DefaultProvider)
	cfg.AI.OpenRouter.APIKey = getEnvString("OPENROUTER_API_KEY", cfg.AI.OpenRouter.APIKey)
	cfg.AI.OpenAI.APIKey = getEnvString("OPENAI_API_KEY", cfg.AI.OpenAI.APIKey)
	cfg.AI.Claude.APIKey = getEnvString("ANTHROPIC_API_KEY", cfg.AI.Claude.APIKey)
	cfg.AI.Gemini.APIKey = getEnvString("GEMINI_API_KEY", cfg.AI.Gemini.APIKey)

	cfg.MCP.HTTPEnabled = getEnvBool("LOGLENS_MCP_HTTP_ENABLED", cfg.MCP.HTTPEnabled)
	cfg.MCP.HTTPAddr = getEnvString("LOGLENS_MCP_HTTP_ADDR", cfg.MCP.HTTPAddr)

	cfg.Metrics.Enabled = getEnvBool("LOGLENS_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Addr = getEnvString("LOGLENS_METRICS_ADDR", cfg.Metrics.Addr)

	cfg.Tracing.Enabled = getEnvBool("LOGLENS_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = getEnvString("LOGLENS_TRACING_ENDPOINT", cfg.Tracing.Endpoint)

	cfg.Streaming.HTTPSinkAddr = getEnvString("LOGLENS_STREAMING_HTTP_ADDR", cfg.Streaming.HTTPSinkAddr)
	cfg.Streaming.RingBufferSize = getEnvInt("LOGLENS_STREAMING_RING_BUFFER_SIZE", cfg.Streaming.RingBufferSize)
}

func getEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// ValidateConfig checks the loaded configuration for internally
// inconsistent or out-of-range values, aggregating every violation found
// rather than stopping at the first, matching the teacher's
// ConfigValidator shape.
func ValidateConfig(cfg *Config) error {
	var problems []string

	validLogLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true}
	if !validLogLevels[cfg.App.LogLevel] {
		problems = append(problems, fmt.Sprintf("app.log_level: invalid value %q", cfg.App.LogLevel))
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[cfg.App.LogFormat] {
		problems = append(problems, fmt.Sprintf("app.log_format: invalid value %q", cfg.App.LogFormat))
	}

	if cfg.Store.DataDir == "" {
		problems = append(problems, "store.data_dir: must not be empty")
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Addr == "" {
			problems = append(problems, "metrics.addr: must not be empty when enabled")
		}
		if cfg.Metrics.Addr == cfg.MCP.HTTPAddr && cfg.MCP.HTTPEnabled {
			problems = append(problems, "metrics.addr: conflicts with mcp.http_addr")
		}
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		problems = append(problems, "tracing.sample_ratio: must be in [0,1]")
	}

	if cfg.Streaming.RingBufferSize <= 0 {
		problems = append(problems, "streaming.ring_buffer_size: must be positive")
	}

	if len(problems) == 0 {
		return nil
	}
	return apperr.New(apperr.InvalidInput, "config", "ValidateConfig", strings.Join(problems, "; "))
}
