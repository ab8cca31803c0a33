package prompts

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"text/template"
)

// Resolver resolves prompts by key.
// Resolution order: config override > Embedded default
type Resolver struct {
	embedded  map[string]EmbeddedPrompt
	overrides map[string]string
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewResolver creates a new prompt resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		embedded:  make(map[string]EmbeddedPrompt),
		overrides: make(map[string]string),
		logger:    logger,
	}
}

// Register registers an embedded prompt.
// This should be called during initialization by each prompt package.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Compute hash if not provided
	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}

	// Extract variables if not provided
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// SetOverrides replaces all overrides. Every override must name a
// registered key and parse as a template; on error nothing is changed.
func (r *Resolver) SetOverrides(overrides map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]string, len(overrides))
	for key, text := range overrides {
		if text == "" {
			continue
		}
		if _, ok := r.embedded[key]; !ok {
			return fmt.Errorf("override for unknown prompt %q", key)
		}
		if _, err := template.New(key).Parse(text); err != nil {
			return fmt.Errorf("override for %q: %w", key, err)
		}
		next[key] = text
	}
	r.overrides = next
	if len(next) > 0 {
		r.logger.Info("applied prompt overrides", "count", len(next))
	}
	return nil
}

// Resolve returns the override for key if one is set, otherwise the
// embedded default.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if text, ok := r.overrides[key]; ok {
		return &ResolvedPrompt{
			Key:        key,
			Text:       text,
			Variables:  ExtractVariables(text),
			Hash:       HashText(text),
			IsOverride: true,
		}, nil
	}

	embedded, ok := r.embedded[key]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}
	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
	}, nil
}

// GetEmbedded returns the embedded default for a key (no override resolution).
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// All resolves every registered prompt, sorted by key.
func (r *Resolver) All() []ResolvedPrompt {
	r.mu.RLock()
	keys := make([]string, 0, len(r.embedded))
	for k := range r.embedded {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)

	out := make([]ResolvedPrompt, 0, len(keys))
	for _, k := range keys {
		if p, err := r.Resolve(k); err == nil {
			out = append(out, *p)
		}
	}
	return out
}
