package config

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/spf13/viper"

	"github.com/jackzampolin/oicmap/internal/prompts/xsltmap"
	"github.com/jackzampolin/oicmap/internal/providers"
)

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry is one documented configuration key with its default value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns the default configuration entries, one per leaf
// key. Every entry is seeded into viper so it can be overridden from the
// environment (OICMAP_ prefix, dots become underscores).
func DefaultEntries() []Entry {
	return []Entry{
		// ===================
		// LLM Providers
		// ===================

		// LLM Providers - Azure OpenAI
		{
			Key:         "llm_providers.azure.type",
			Value:       providers.TypeAzure,
			Description: "Provider type: azure or openai",
		},
		{
			Key:         "llm_providers.azure.endpoint",
			Value:       "${AZURE_OPENAI_ENDPOINT}",
			Description: "Azure OpenAI resource URL (uses environment variable)",
		},
		{
			Key:         "llm_providers.azure.deployment",
			Value:       "gpt-4",
			Description: "Deployment name the request is routed to",
		},
		{
			Key:         "llm_providers.azure.api_key",
			Value:       "${AZURE_OPENAI_API_KEY}",
			Description: "Azure OpenAI API key (uses environment variable)",
		},
		{
			Key:         "llm_providers.azure.api_version",
			Value:       providers.DefaultAPIVersion,
			Description: "Azure OpenAI API version",
		},
		{
			Key:         "llm_providers.azure.max_output_tokens",
			Value:       providers.DefaultMaxOutputTokens,
			Description: "Maximum tokens in the generated reply",
		},
		{
			Key:         "llm_providers.azure.temperature",
			Value:       providers.DefaultTemperature,
			Description: "Sampling temperature (0-2)",
		},
		{
			Key:         "llm_providers.azure.top_p",
			Value:       providers.DefaultTopP,
			Description: "Nucleus sampling (0-1)",
		},
		{
			Key:         "llm_providers.azure.frequency_penalty",
			Value:       0.0,
			Description: "Frequency penalty",
		},
		{
			Key:         "llm_providers.azure.presence_penalty",
			Value:       0.0,
			Description: "Presence penalty",
		},
		{
			Key:         "llm_providers.azure.timeout_seconds",
			Value:       int(providers.DefaultTimeout.Seconds()),
			Description: "Per-attempt HTTP timeout in seconds",
		},
		{
			Key:         "llm_providers.azure.max_attempts",
			Value:       providers.DefaultMaxAttempts,
			Description: "Total attempts for rate-limited, failed or timed out requests",
		},
		{
			Key:         "llm_providers.azure.retry_delay_ms",
			Value:       int(providers.DefaultRetryDelay.Milliseconds()),
			Description: "Base backoff delay between attempts in milliseconds",
		},
		{
			Key:         "llm_providers.azure.rate_limit",
			Value:       providers.DefaultRateLimit,
			Description: "Client-side rate limit in requests per minute",
		},
		{
			Key:         "llm_providers.azure.enabled",
			Value:       true,
			Description: "Whether the Azure provider is enabled",
		},

		// ===================
		// Mapping Defaults
		// ===================
		{
			Key:         "defaults.llm_provider",
			Value:       "azure",
			Description: "Default LLM provider used for mapping requests",
		},
		{
			Key:         "defaults.strict",
			Value:       false,
			Description: "Reject generated stylesheets that are not well-formed",
		},
		{
			Key:         "style_guide",
			Value:       xsltmap.DefaultStyleGuide(),
			Description: "House-style constraints rendered into the prompt",
		},
		{
			Key:         "prompts.overrides",
			Value:       map[string]map[string]string{},
			Description: "Prompt text overrides, nested by prompt key (see `oicmap prompt list`)",
		},

		// ===================
		// Server
		// ===================
		{
			Key:         "server.host",
			Value:       "127.0.0.1",
			Description: "HTTP listen host",
		},
		{
			Key:         "server.port",
			Value:       8080,
			Description: "HTTP listen port",
		},
		{
			Key:         "server.max_upload_bytes",
			Value:       int64(10 << 20),
			Description: "Maximum size of one multipart upload",
		},
		{
			Key:         "server.request_timeout_seconds",
			Value:       300,
			Description: "Deadline for one mapping request, retries included",
		},

		{
			Key:         "log.level",
			Value:       "info",
			Description: "Log level: debug, info, warn, error",
		},
	}
}

// GetDefault returns the default value for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// seedDefaults registers every default entry with v.
func seedDefaults(v *viper.Viper) {
	for _, entry := range DefaultEntries() {
		v.SetDefault(entry.Key, entry.Value)
	}
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
// This protects against typos and malformed keys.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}
