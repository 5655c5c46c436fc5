// Package config loads daemon configuration from the environment, with an
// optional YAML file overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/EmZod/Speak-Turbo/internal/voice"
)

// Engine kinds.
const (
	// EnginePocket runs the pocket-tts worker subprocess.
	EnginePocket = "pocket"
	// EngineMock runs the built-in deterministic engine.
	EngineMock = "mock"
)

// Config holds all daemon configuration.
type Config struct {
	// HTTP settings
	HTTPPort    int    `yaml:"http_port"`
	BearerToken string `yaml:"bearer_token"`

	// Raw socket settings
	RawPort    int  `yaml:"raw_port"`
	RawEnabled bool `yaml:"raw_enabled"`

	// Engine settings
	Engine        string `yaml:"engine"`
	EngineCommand string `yaml:"engine_command"`
	DefaultVoice  string `yaml:"default_voice"`

	// Behavior settings
	MaxTextLength int `yaml:"max_text_length"`

	// Logging settings
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration with sane defaults, applying a YAML file first
// (if CONFIG_FILE names one) and environment variables on top.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:      7123,
		RawPort:       7124,
		RawEnabled:    true,
		Engine:        EnginePocket,
		DefaultVoice:  voice.Default,
		MaxTextLength: 1000,
		LogLevel:      "info",
		LogFormat:     "text",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BearerToken = getEnvString("BEARER_TOKEN", cfg.BearerToken)
	cfg.RawPort = getEnvInt("RAW_PORT", cfg.RawPort)
	cfg.RawEnabled = getEnvBool("RAW_ENABLED", cfg.RawEnabled)
	cfg.Engine = getEnvString("ENGINE", cfg.Engine)
	cfg.EngineCommand = getEnvString("ENGINE_COMMAND", cfg.EngineCommand)
	cfg.DefaultVoice = getEnvString("DEFAULT_VOICE", cfg.DefaultVoice)
	cfg.MaxTextLength = getEnvInt("MAX_TEXT_LENGTH", cfg.MaxTextLength)
	cfg.LogLevel = getEnvString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvString("LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AuthDisabled returns true if bearer token authentication is disabled.
func (c *Config) AuthDisabled() bool {
	return c.BearerToken == ""
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return errors.New("HTTP_PORT must be between 1 and 65535")
	}

	if c.RawEnabled && (c.RawPort < 1 || c.RawPort > 65535) {
		return errors.New("RAW_PORT must be between 1 and 65535")
	}

	if c.Engine != EnginePocket && c.Engine != EngineMock {
		return errors.New("ENGINE must be one of: pocket, mock")
	}

	if !voice.Valid(c.DefaultVoice) {
		return fmt.Errorf("DEFAULT_VOICE must be one of: %v", voice.All)
	}

	if c.MaxTextLength < 1 {
		return errors.New("MAX_TEXT_LENGTH must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		return errors.New("LOG_FORMAT must be one of: text, json")
	}

	return nil
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as a bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
