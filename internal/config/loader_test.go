package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.v == nil {
		t.Error("Loader viper instance is nil")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }() // Ignore error in cleanup

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	loader := NewLoaderWith(viper.New())
	cfg, err := loader.Load()
	if err != nil {
		t.Errorf("Load() unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	// Should get default values
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Pipeline.Options.MaxRetries != 2 {
		t.Errorf("Expected default max_retries 2, got %d", cfg.Pipeline.Options.MaxRetries)
	}
}

// TestLoadWithValidYAMLFile tests loading from a valid YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "scanbill.yaml")

	yamlContent := `
log_level: debug
verbose: true
server:
  host: 0.0.0.0
  port: 9090
pipeline:
  engine:
    languages: [eng, deu]
  options:
    max_retries: 4
    timeout_ms: 30000
  preprocess:
    profile: fast
`

	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewLoaderWith(viper.New())
	cfg, err := loader.LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() error: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got %s", cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to be true")
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host '0.0.0.0', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Pipeline.Engine.Languages) != 2 {
		t.Errorf("Expected 2 languages, got %v", cfg.Pipeline.Engine.Languages)
	}
	if cfg.Pipeline.Options.MaxRetries != 4 {
		t.Errorf("Expected max_retries 4, got %d", cfg.Pipeline.Options.MaxRetries)
	}
	if cfg.Pipeline.Options.TimeoutMs != 30000 {
		t.Errorf("Expected timeout_ms 30000, got %d", cfg.Pipeline.Options.TimeoutMs)
	}
	if cfg.Pipeline.Preprocess.Profile != "fast" {
		t.Errorf("Expected profile 'fast', got %s", cfg.Pipeline.Preprocess.Profile)
	}

	// Unspecified keys keep their defaults
	if cfg.Pipeline.PDF.RenderScale != 2.5 {
		t.Errorf("Expected default render_scale 2.5, got %f", cfg.Pipeline.PDF.RenderScale)
	}
}

// TestLoadWithFileRejectsInvalidValues tests that file values are validated.
func TestLoadWithFileRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "scanbill.yaml")

	yamlContent := `
log_level: shouting
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewLoaderWith(viper.New())
	if _, err := loader.LoadWithFile(configFile); err == nil {
		t.Error("Expected validation error for bad log level")
	}
}

// TestLoadWithMissingFile tests error for nonexistent explicit file.
func TestLoadWithMissingFile(t *testing.T) {
	loader := NewLoaderWith(viper.New())
	if _, err := loader.LoadWithFile("/nonexistent/scanbill.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

// TestLoadWithMalformedYAML tests error for a broken YAML file.
func TestLoadWithMalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "scanbill.yaml")

	if err := os.WriteFile(configFile, []byte("log_level: [unclosed"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := NewLoaderWith(viper.New())
	if _, err := loader.LoadWithFile(configFile); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

// TestEnvironmentVariableOverride tests SCANBILL_ env var binding.
func TestEnvironmentVariableOverride(t *testing.T) {
	t.Setenv("SCANBILL_LOG_LEVEL", "warn")
	t.Setenv("SCANBILL_SERVER_PORT", "9999")

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }() // Ignore error in cleanup

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	loader := NewLoaderWith(viper.New())
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level 'warn' from env, got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from env, got %d", cfg.Server.Port)
	}
}

// TestGenerateDefaultConfigFile tests config file generation.
func TestGenerateDefaultConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "scanbill.yaml")

	if err := GenerateDefaultConfigFile(target); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("Generated config file missing: %v", err)
	}

	// The generated file must load back cleanly
	loader := NewLoaderWith(viper.New())
	cfg, err := loader.LoadWithFile(target)
	if err != nil {
		t.Fatalf("Generated config failed to load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected round-tripped port 8080, got %d", cfg.Server.Port)
	}
}

// TestGetConfigSearchPaths tests the search path list.
func TestGetConfigSearchPaths(t *testing.T) {
	paths := GetConfigSearchPaths()
	if len(paths) == 0 {
		t.Fatal("Expected at least one search path")
	}
	if paths[0] != "." {
		t.Errorf("Expected first search path '.', got %s", paths[0])
	}
	found := false
	for _, p := range paths {
		if p == "/etc/scanbill" {
			found = true
		}
	}
	if !found {
		t.Error("Expected /etc/scanbill in search paths")
	}
}
