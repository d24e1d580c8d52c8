package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the config directory
const HomeEnv = "GO_CHIPTODO_HOME"

// AudioConfig stores audio preferences
type AudioConfig struct {
	Muted      bool    `json:"muted"`
	BGMEnabled bool    `json:"bgmEnabled"`
	Volume     float64 `json:"volume"`
	Tempo      float64 `json:"tempo,omitempty"`
	SampleRate int     `json:"sampleRate,omitempty"`
}

// MIDIConfig defines the optional MIDI mirror output and play-along input
type MIDIConfig struct {
	OutPort string `json:"outPort,omitempty"`
	Mirror  bool   `json:"mirror,omitempty"`
	InPort  string `json:"inPort,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette    string `json:"palette,omitempty"`
	LastFilter string `json:"lastFilter,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Audio AudioConfig `json:"audio"`
	MIDI  MIDIConfig  `json:"midi,omitempty"`
	UI    UIConfig    `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			BGMEnabled: true,
			Volume:     1,
			Tempo:      85,
			SampleRate: 44100,
		},
		UI: UIConfig{
			LastFilter: "all",
		},
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-chiptodo"), nil
}

// Path returns the full path to config.json
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Fields missing from the file keep their defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Audio.Volume < 0 {
		c.Audio.Volume = 0
	}
	if c.Audio.Volume > 1 {
		c.Audio.Volume = 1
	}
	if c.Audio.Tempo <= 0 || c.Audio.Tempo > 300 {
		c.Audio.Tempo = 85
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 44100
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// TodosPath returns the todo list file path
func TodosPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "todos.json"), nil
}
