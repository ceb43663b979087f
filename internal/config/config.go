// ABOUTME: Configuration loading and parsing for chat-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gptstir/chat-gateway/internal/provider"
)

// Config represents the complete chat-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" validate:"required,hostname_port"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"required,min=16"`
}

// CORSConfig holds cross-origin configuration for browser clients
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// ProvidersConfig holds per-backend provider configuration.
// A provider with an empty api_key is simply not registered.
type ProvidersConfig struct {
	OpenAI   ProviderConfig `yaml:"openai"`
	Claude   ProviderConfig `yaml:"claude"`
	Deepseek ProviderConfig `yaml:"deepseek"`
	Grok     ProviderConfig `yaml:"grok"`
}

// ProviderConfig holds the settings for one LLM backend
type ProviderConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	MaxTokens int    `yaml:"max_tokens" validate:"omitempty,min=1"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

var validate = newValidator()

// newValidator reports failures by yaml key, not Go field name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
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

// Validate checks that all required configuration fields are present and valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("field %s failed %q validation", e.Namespace(), e.Tag())
		}
		return err
	}

	return nil
}

// ClientConfigs maps the configured providers to per-kind client settings.
// Kinds without an API key are omitted.
func (c *Config) ClientConfigs() map[provider.Kind]provider.ClientConfig {
	all := map[provider.Kind]ProviderConfig{
		provider.KindOpenAI:   c.Providers.OpenAI,
		provider.KindClaude:   c.Providers.Claude,
		provider.KindDeepseek: c.Providers.Deepseek,
		provider.KindGrok:     c.Providers.Grok,
	}

	configs := make(map[provider.Kind]provider.ClientConfig)
	for kind, pc := range all {
		if pc.APIKey == "" {
			continue
		}
		configs[kind] = provider.ClientConfig{
			APIKey:    pc.APIKey,
			BaseURL:   pc.BaseURL,
			Timeout:   pc.Timeout,
			MaxTokens: pc.MaxTokens,
		}
	}
	return configs
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	for name, pc := range map[string]*ProviderConfig{
		"openai":   &cfg.Providers.OpenAI,
		"claude":   &cfg.Providers.Claude,
		"deepseek": &cfg.Providers.Deepseek,
		"grok":     &cfg.Providers.Grok,
	} {
		if pc.TimeoutRaw == "" {
			continue
		}
		d, err := time.ParseDuration(pc.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing providers.%s.timeout %q: %w", name, pc.TimeoutRaw, err)
		}
		pc.Timeout = d
	}
	return nil
}
