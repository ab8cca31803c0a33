package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-oicmap")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-oicmap" {
			t.Errorf("expected path /tmp/test-oicmap, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-oicmap")

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-oicmap/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})

	t.Run("MappingsPath", func(t *testing.T) {
		expected := "/tmp/test-oicmap/mappings"
		if dir.MappingsPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.MappingsPath())
		}
	})

	t.Run("MappingPath strips directories", func(t *testing.T) {
		expected := "/tmp/test-oicmap/mappings/a_to_b.xslt"
		if got := dir.MappingPath("../../a_to_b.xslt"); got != expected {
			t.Errorf("expected %s, got %s", expected, got)
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	dir, _ := New(filepath.Join(t.TempDir(), "home"))

	if dir.Exists() {
		t.Fatal("home should not exist yet")
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	if !dir.Exists() {
		t.Error("home should exist")
	}
	if _, err := os.Stat(dir.MappingsPath()); err != nil {
		t.Errorf("mappings dir missing: %v", err)
	}
	if dir.ConfigExists() {
		t.Error("config should not exist")
	}
	if err := os.WriteFile(dir.ConfigPath(), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !dir.ConfigExists() {
		t.Error("config should exist")
	}
}
