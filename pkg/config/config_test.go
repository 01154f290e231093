package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

const testConfig = `
[int]
project = "acme-int-1234"

[stg]
project = "acme-stg-1234"

[prd]
project = "acme-prd-1234"
`

func TestLoad_Habitat(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	tests := []struct {
		habitat string
		project string
	}{
		{"int", "acme-int-1234"},
		{"stg", "acme-stg-1234"},
		{"prd", "acme-prd-1234"},
	}

	for _, tt := range tests {
		t.Run(tt.habitat, func(t *testing.T) {
			h, err := cfg.Habitat(tt.habitat)
			if err != nil {
				t.Fatalf("Habitat(%q) failed: %v", tt.habitat, err)
			}
			if h.Project != tt.project {
				t.Errorf("Project = %q, want %q", h.Project, tt.project)
			}
		})
	}
}

func TestLoad_UnknownHabitat(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	_, err = cfg.Habitat("qa")
	if !errors.Is(err, ErrUnknownHabitat) {
		t.Errorf("Expected ErrUnknownHabitat, got %v", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BCLS_INT_PROJECT", "override-int")
	t.Setenv("BCLS_DEV_PROJECT", "env-only-dev")

	cfg, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	h, err := cfg.Habitat("int")
	if err != nil {
		t.Fatalf("Habitat(int) failed: %v", err)
	}
	if h.Project != "override-int" {
		t.Errorf("Project = %q, want env override %q", h.Project, "override-int")
	}

	// A habitat absent from the file can come entirely from env
	h, err = cfg.Habitat("dev")
	if err != nil {
		t.Fatalf("Habitat(dev) failed: %v", err)
	}
	if h.Project != "env-only-dev" {
		t.Errorf("Project = %q, want %q", h.Project, "env-only-dev")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "[int\nproject="))
	if err == nil {
		t.Fatal("Expected error for malformed TOML")
	}
}

func TestHabitats(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	got := cfg.Habitats()
	want := []string{"int", "prd", "stg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Habitats() = %v, want %v", got, want)
	}
}
