package config

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultEntries(t *testing.T) {
	entries := DefaultEntries()

	if len(entries) == 0 {
		t.Fatal("DefaultEntries() returned empty slice")
	}

	// Verify required keys exist
	requiredKeys := []string{
		"llm_providers.azure.type",
		"llm_providers.azure.endpoint",
		"llm_providers.azure.api_key",
		"llm_providers.azure.max_attempts",
		"defaults.llm_provider",
		"style_guide",
		"server.port",
	}

	keys := make(map[string]bool)
	for _, e := range entries {
		if keys[e.Key] {
			t.Errorf("duplicate key %s", e.Key)
		}
		keys[e.Key] = true
		if e.Description == "" {
			t.Errorf("%s has no description", e.Key)
		}
		if err := ValidateKey(e.Key); err != nil {
			t.Errorf("%s: %v", e.Key, err)
		}
	}

	for _, key := range requiredKeys {
		if !keys[key] {
			t.Errorf("DefaultEntries() missing required key: %s", key)
		}
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("llm_providers.azure.type")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != "azure" {
			t.Errorf("GetDefault() Value = %v, want %q", entry.Value, "azure")
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		entry := GetDefault("does.not.exist")
		if entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr string
	}{
		{"xsltmap.system", ""},
		{"a-b_c.d1", ""},
		{"", "empty"},
		{"has space", "invalid character"},
		{".leading", "start or end"},
		{"trailing.", "start or end"},
	}
	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("ValidateKey(%q) error = %v", tt.key, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidKey) || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("ValidateKey(%q) error = %v, want %q", tt.key, err, tt.wantErr)
		}
	}
}
