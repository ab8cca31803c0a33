package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jackzampolin/oicmap/internal/providers"
)

// Config holds oicmap configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	StyleGuide   []string                  `mapstructure:"style_guide" yaml:"style_guide"`
	Prompts      PromptsCfg                `mapstructure:"prompts" yaml:"prompts"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Log          LogCfg                    `mapstructure:"log" yaml:"log"`
}

// LLMProviderCfg configures a chat-completion provider.
type LLMProviderCfg struct {
	Type       string `mapstructure:"type" yaml:"type"`               // "azure", "openai"
	Endpoint   string `mapstructure:"endpoint" yaml:"endpoint"`       // supports ${ENV_VAR} syntax
	Deployment string `mapstructure:"deployment" yaml:"deployment"`   // Azure deployment or model name
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`         // supports ${ENV_VAR} syntax
	APIVersion string `mapstructure:"api_version" yaml:"api_version"` // Azure only

	MaxOutputTokens  int      `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
	Temperature      *float64 `mapstructure:"temperature" yaml:"temperature"` // nil uses the client default
	TopP             *float64 `mapstructure:"top_p" yaml:"top_p"`             // nil uses the client default
	FrequencyPenalty float64  `mapstructure:"frequency_penalty" yaml:"frequency_penalty"`
	PresencePenalty  float64  `mapstructure:"presence_penalty" yaml:"presence_penalty"`

	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxAttempts    int `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryDelayMS   int `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`
	RateLimit      int `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute

	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Default LLM provider
	Strict      bool   `mapstructure:"strict" yaml:"strict"`             // Validate extracted XSLT
}

// PromptsCfg holds prompt overrides. The nesting follows the prompt key:
// overrides.xsltmap.system overrides the "xsltmap.system" prompt.
type PromptsCfg struct {
	Overrides map[string]map[string]string `mapstructure:"overrides" yaml:"overrides"`
}

// OverrideMap flattens the overrides into prompt keys.
func (p PromptsCfg) OverrideMap() map[string]string {
	out := make(map[string]string)
	for group, prompts := range p.Overrides {
		for name, text := range prompts {
			out[group+"."+name] = text
		}
	}
	return out
}

// ServerCfg configures the HTTP API.
type ServerCfg struct {
	Host                  string `mapstructure:"host" yaml:"host"`
	Port                  int    `mapstructure:"port" yaml:"port"`
	MaxUploadBytes        int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns configuration with sensible defaults.
// It is decoded from the same entries that seed viper.
func DefaultConfig() *Config {
	v := viper.New()
	seedDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("config: invalid default entries: %v", err))
	}
	return cfg
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// Validate checks values that would otherwise fail late. Missing
// credentials are not an error here: such providers are skipped when the
// registry is built.
func (c *Config) Validate() error {
	var errs []error
	for name, p := range c.LLMProviders {
		switch p.Type {
		case "", providers.TypeAzure, providers.TypeOpenAI:
		default:
			errs = append(errs, fmt.Errorf("llm_providers.%s.type: unknown type %q", name, p.Type))
		}
		if p.MaxOutputTokens < 0 {
			errs = append(errs, fmt.Errorf("llm_providers.%s.max_output_tokens must be > 0", name))
		}
		if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
			errs = append(errs, fmt.Errorf("llm_providers.%s.temperature must be within [0, 2]", name))
		}
		if p.TopP != nil && (*p.TopP < 0 || *p.TopP > 1) {
			errs = append(errs, fmt.Errorf("llm_providers.%s.top_p must be within [0, 1]", name))
		}
		if p.TimeoutSeconds < 0 || p.MaxAttempts < 0 || p.RetryDelayMS < 0 || p.RateLimit < 0 {
			errs = append(errs, fmt.Errorf("llm_providers.%s: timeouts, attempts and limits must not be negative", name))
		}
	}
	if c.Defaults.LLMProvider != "" {
		if _, ok := c.LLMProviders[c.Defaults.LLMProvider]; !ok {
			errs = append(errs, fmt.Errorf("defaults.llm_provider: unknown provider %q", c.Defaults.LLMProvider))
		}
	}
	for key := range c.Prompts.OverrideMap() {
		if err := ValidateKey(key); err != nil {
			errs = append(errs, fmt.Errorf("prompts.overrides: %w", err))
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be > 0"))
	}
	return errors.Join(errs...)
}

// ChatClientConfig converts a provider entry, resolving ${ENV_VAR}
// references in the endpoint, deployment and API key.
func (p LLMProviderCfg) ChatClientConfig() providers.ChatClientConfig {
	cfg := providers.ChatClientConfig{
		Type:             p.Type,
		Endpoint:         ResolveEnvVars(p.Endpoint),
		Deployment:       ResolveEnvVars(p.Deployment),
		APIKey:           ResolveEnvVars(p.APIKey),
		APIVersion:       p.APIVersion,
		MaxOutputTokens:  p.MaxOutputTokens,
		Temperature:      providers.DefaultTemperature,
		TopP:             providers.DefaultTopP,
		FrequencyPenalty: p.FrequencyPenalty,
		PresencePenalty:  p.PresencePenalty,
		Timeout:          time.Duration(p.TimeoutSeconds) * time.Second,
		MaxAttempts:      p.MaxAttempts,
		RetryDelay:       time.Duration(p.RetryDelayMS) * time.Millisecond,
		RateLimit:        p.RateLimit,
	}
	if p.Temperature != nil {
		cfg.Temperature = *p.Temperature
	}
	if p.TopP != nil {
		cfg.TopP = *p.TopP
	}
	return cfg
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		Default:      c.Defaults.LLMProvider,
		LLMProviders: make(map[string]providers.LLMProviderConfig, len(c.LLMProviders)),
	}
	for name, llm := range c.LLMProviders {
		cfg.LLMProviders[name] = providers.LLMProviderConfig{
			Client:  llm.ChatClientConfig(),
			Enabled: llm.Enabled,
		}
	}
	return cfg
}

// RequestTimeout returns the server-side deadline for one mapping request.
func (s ServerCfg) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// Addr returns host:port.
func (s ServerCfg) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Redacted returns a copy safe to print: literal API keys are masked,
// ${ENV_VAR} references are kept as written.
func (c *Config) Redacted() *Config {
	out := *c
	out.LLMProviders = make(map[string]LLMProviderCfg, len(c.LLMProviders))
	for name, p := range c.LLMProviders {
		if p.APIKey != "" && !envVarPattern.MatchString(p.APIKey) {
			p.APIKey = "****"
		}
		out.LLMProviders[name] = p
	}
	return &out
}
