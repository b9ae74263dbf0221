// Package config loads and validates the application's YAML
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Model    ModelConfig  `yaml:"model"`
	DataDir  string       `yaml:"data_dir"`
	Hotkey   HotkeyConfig `yaml:"hotkey"`
	Audio    AudioConfig  `yaml:"audio"`
	Inject   InjectConfig `yaml:"inject"`
	Export   ExportConfig `yaml:"export"`
	LogLevel string       `yaml:"log_level"`
}

// ModelConfig holds hosted-model settings. An empty APIKey falls back
// to the OPENAI_API_KEY environment variable.
type ModelConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Chat       string `yaml:"chat"`
	Transcribe string `yaml:"transcribe"`
}

// HotkeyConfig holds hotkey-related settings.
type HotkeyConfig struct {
	Keys []string `yaml:"keys"`
	Mode string   `yaml:"mode"` // "hold" or "toggle"
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate   uint32 `yaml:"sample_rate"`
	Channels     uint32 `yaml:"channels"`
	ChunkSeconds int    `yaml:"chunk_seconds"`
}

// InjectConfig holds settings for typing generated notes at the cursor.
type InjectConfig struct {
	Method string `yaml:"method"` // "off", "type" or "paste"
}

// ExportConfig controls automatic note export after generation.
// An empty Format disables it.
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // "", "txt" or "md"
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "scribe")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultDataDir returns the default location for the database,
// recordings and exported notes.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "scribe")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Chat:       "gpt-4o-mini",
			Transcribe: "whisper-1",
		},
		DataDir: DefaultDataDir(),
		Hotkey: HotkeyConfig{
			Keys: []string{"ctrl", "shift", "r"},
			Mode: "toggle",
		},
		Audio: AudioConfig{
			SampleRate:   16000,
			Channels:     1,
			ChunkSeconds: 5,
		},
		Inject: InjectConfig{
			Method: "off",
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. A leading ~ in paths is expanded to the home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.DataDir = expandTilde(cfg.DataDir)
	cfg.Export.Dir = expandTilde(cfg.Export.Dir)

	return cfg, nil
}

// APIKey returns the configured key, falling back to OPENAI_API_KEY.
func (c *Config) APIKey() string {
	if c.Model.APIKey != "" {
		return c.Model.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// ExportDir returns the note export directory, defaulting to
// <data_dir>/notes.
func (c *Config) ExportDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	return filepath.Join(c.DataDir, "notes")
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}

	if c.Model.Chat == "" {
		return fmt.Errorf("model.chat must not be empty")
	}
	if c.Model.Transcribe == "" {
		return fmt.Errorf("model.transcribe must not be empty")
	}

	if len(c.Hotkey.Keys) == 0 {
		return fmt.Errorf("hotkey.keys must not be empty")
	}
	switch c.Hotkey.Mode {
	case "hold", "toggle":
	default:
		return fmt.Errorf("hotkey.mode must be \"hold\" or \"toggle\", got %q", c.Hotkey.Mode)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}
	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}
	if c.Audio.ChunkSeconds <= 0 {
		return fmt.Errorf("audio.chunk_seconds must be > 0")
	}

	switch c.Inject.Method {
	case "off", "type", "paste":
	default:
		return fmt.Errorf("inject.method must be \"off\", \"type\" or \"paste\", got %q", c.Inject.Method)
	}

	switch c.Export.Format {
	case "", "txt", "md":
	default:
		return fmt.Errorf("export.format must be \"txt\" or \"md\", got %q", c.Export.Format)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
