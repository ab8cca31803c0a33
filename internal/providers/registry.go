package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds named LLM clients.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu          sync.RWMutex
	llmClients  map[string]LLMClient
	defaultName string
	logger      *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients: make(map[string]LLMClient),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// UnregisterLLM removes an LLM client by name.
func (r *Registry) UnregisterLLM(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.llmClients, name)
	if r.logger != nil {
		r.logger.Info("unregistered LLM client", "name", name)
	}
}

// SetDefault names the client returned by GetLLM("").
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultName = name
}

// GetLLM returns an LLM client by name. An empty name selects the default,
// or the only registered client when no default is set.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultName
	}
	if name == "" && len(r.llmClients) == 1 {
		for _, client := range r.llmClients {
			return client, nil
		}
	}
	if name == "" {
		return nil, fmt.Errorf("no default LLM provider configured")
	}
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// ListLLM returns all registered LLM client names, sorted.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasLLM checks if an LLM client is registered.
func (r *Registry) HasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llmClients[name]
	return ok
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	// Default names the provider used when none is requested
	Default string

	// LLMProviders maps provider names to their config
	LLMProviders map[string]LLMProviderConfig
}

// LLMProviderConfig is one configured provider with its API key resolved.
type LLMProviderConfig struct {
	Client  ChatClientConfig
	Enabled bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with valid settings are registered.
func NewRegistryFromConfig(cfg RegistryConfig, logger *slog.Logger) *Registry {
	r := NewRegistry()
	if logger != nil {
		r.logger = logger
	}
	r.Reload(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured are unregistered and providers
// with changed settings are rebuilt. Unchanged clients are kept, along
// with their rate limiter state.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.Enabled {
			continue
		}
		clientCfg := provCfg.Client
		if clientCfg.Name == "" {
			clientCfg.Name = name
		}
		if clientCfg.Logger == nil {
			clientCfg.Logger = r.logger.With("llm_provider", name)
		}

		existing, hasExisting := r.llmClients[name]
		if hasExisting && !needsLLMUpdate(existing, clientCfg) {
			want[name] = true
			continue
		}

		client, err := NewChatClient(clientCfg)
		if err != nil {
			r.logger.Warn("skipping LLM provider", "name", name, "error", err)
			continue
		}
		want[name] = true
		r.llmClients[name] = client
		if hasExisting {
			r.logger.Info("updated LLM client", "name", name, "type", client.Config().Type)
		} else {
			r.logger.Info("registered LLM client", "name", name, "type", client.Config().Type)
		}
	}

	// Remove providers that are no longer configured
	for name := range r.llmClients {
		if !want[name] {
			delete(r.llmClients, name)
			r.logger.Info("unregistered LLM client", "name", name)
		}
	}

	r.defaultName = cfg.Default
}

// needsLLMUpdate checks if an LLM client needs to be recreated.
func needsLLMUpdate(client LLMClient, cfg ChatClientConfig) bool {
	c, ok := client.(*ChatClient)
	if !ok {
		return true
	}
	next := cfg.withDefaults()
	next.Logger = c.cfg.Logger
	return c.cfg != next
}
