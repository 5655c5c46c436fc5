package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"CONFIG_FILE", "HTTP_PORT", "BEARER_TOKEN", "RAW_PORT", "RAW_ENABLED",
		"ENGINE", "ENGINE_COMMAND", "DEFAULT_VOICE", "MAX_TEXT_LENGTH",
		"LOG_LEVEL", "LOG_FORMAT",
	}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 7123 {
		t.Errorf("HTTPPort = %d, want 7123", cfg.HTTPPort)
	}
	if cfg.RawPort != 7124 {
		t.Errorf("RawPort = %d, want 7124", cfg.RawPort)
	}
	if !cfg.RawEnabled {
		t.Error("RawEnabled = false, want true")
	}
	if cfg.Engine != EnginePocket {
		t.Errorf("Engine = %q, want %q", cfg.Engine, EnginePocket)
	}
	if cfg.DefaultVoice != "alba" {
		t.Errorf("DefaultVoice = %q, want alba", cfg.DefaultVoice)
	}
	if cfg.MaxTextLength != 1000 {
		t.Errorf("MaxTextLength = %d, want 1000", cfg.MaxTextLength)
	}
	if !cfg.AuthDisabled() {
		t.Error("AuthDisabled() = false with no token")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("RAW_ENABLED", "false")
	t.Setenv("ENGINE", "mock")
	t.Setenv("DEFAULT_VOICE", "marius")
	t.Setenv("BEARER_TOKEN", "secret")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 9000 {
		t.Errorf("HTTPPort = %d, want 9000", cfg.HTTPPort)
	}
	if cfg.RawEnabled {
		t.Error("RawEnabled = true, want false")
	}
	if cfg.Engine != EngineMock {
		t.Errorf("Engine = %q, want mock", cfg.Engine)
	}
	if cfg.DefaultVoice != "marius" {
		t.Errorf("DefaultVoice = %q, want marius", cfg.DefaultVoice)
	}
	if cfg.AuthDisabled() {
		t.Error("AuthDisabled() = true with token set")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := strings.Join([]string{
		"http_port: 8200",
		"engine: mock",
		"default_voice: cosette",
		"max_text_length: 500",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	// Env still wins over the file.
	t.Setenv("HTTP_PORT", "8300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 8300 {
		t.Errorf("HTTPPort = %d, want env override 8300", cfg.HTTPPort)
	}
	if cfg.Engine != EngineMock {
		t.Errorf("Engine = %q, want mock", cfg.Engine)
	}
	if cfg.DefaultVoice != "cosette" {
		t.Errorf("DefaultVoice = %q, want cosette", cfg.DefaultVoice)
	}
	if cfg.MaxTextLength != 500 {
		t.Errorf("MaxTextLength = %d, want 500", cfg.MaxTextLength)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:      7123,
			RawPort:       7124,
			RawEnabled:    true,
			Engine:        EngineMock,
			DefaultVoice:  "alba",
			MaxTextLength: 1000,
			LogLevel:      "info",
			LogFormat:     "text",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad http port", func(c *Config) { c.HTTPPort = 0 }},
		{"bad raw port", func(c *Config) { c.RawPort = 70000 }},
		{"bad engine", func(c *Config) { c.Engine = "espeak" }},
		{"bad default voice", func(c *Config) { c.DefaultVoice = "nonexistent" }},
		{"bad max text length", func(c *Config) { c.MaxTextLength = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("baseline config invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateRawPortIgnoredWhenDisabled(t *testing.T) {
	cfg := &Config{
		HTTPPort:      7123,
		RawPort:       0,
		RawEnabled:    false,
		Engine:        EngineMock,
		DefaultVoice:  "alba",
		MaxTextLength: 1000,
		LogLevel:      "info",
		LogFormat:     "text",
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed with raw transport disabled: %v", err)
	}
}
