package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const appName = "recordnote"

type Config struct {
	LogLevel      string              `json:"log_level"`
	Title         string              `json:"title"` // default minutes title
	Audio         AudioConfig         `json:"audio"`
	Transcription TranscriptionConfig `json:"transcription"`
	Output        OutputConfig        `json:"output"`

	path string
}

type AudioConfig struct {
	DeviceID   string `json:"device_id"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type TranscriptionConfig struct {
	Backend  string   `json:"backend"`  // "whispercpp", "exec" or "http"
	Model    string   `json:"model"`    // "base", "small", etc.
	Language string   `json:"language"` // "ja", "en", "auto"
	Threads  int      `json:"threads"`
	Timeout  Duration `json:"timeout"`
	Command  string   `json:"command"` // exec backend
	URL      string   `json:"url"`     // http backend
}

type OutputConfig struct {
	Dir       string `json:"dir"`
	KeepAudio bool   `json:"keep_audio"`
}

// Duration is a time.Duration stored as a string such as "5m".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"5m\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

const (
	BackendWhisperCpp = "whispercpp"
	BackendExec       = "exec"
	BackendHTTP       = "http"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Title:    "会議録",
		Audio: AudioConfig{
			DeviceID:   "",
			SampleRate: 44100,
			Channels:   1,
		},
		Transcription: TranscriptionConfig{
			Backend:  BackendWhisperCpp,
			Model:    "base",
			Language: "ja",
			Threads:  0, // Auto-detect
			Timeout:  Duration{5 * time.Minute},
		},
		Output: OutputConfig{
			Dir:       defaultOutputDir(),
			KeepAudio: false,
		},
	}
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom reads the config at path over the defaults. A missing file is not
// an error. Environment overrides are applied last.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.path = path
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RECORDNOTE_LANGUAGE"); v != "" {
		c.Transcription.Language = v
	}
	if v := os.Getenv("RECORDNOTE_MODEL"); v != "" {
		c.Transcription.Model = v
	}
	if v := os.Getenv("RECORDNOTE_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("RECORDNOTE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels <= 0 {
		return fmt.Errorf("audio.channels must be positive, got %d", c.Audio.Channels)
	}
	if c.Transcription.Timeout.Duration < 0 {
		return fmt.Errorf("transcription.timeout must not be negative")
	}
	if strings.TrimSpace(c.Transcription.Language) == "" {
		return errors.New("transcription.language is required")
	}
	switch c.Transcription.Backend {
	case BackendWhisperCpp:
		if c.Transcription.Model == "" {
			return errors.New("transcription.model is required for the whispercpp backend")
		}
	case BackendExec:
		if strings.TrimSpace(c.Transcription.Command) == "" {
			return errors.New("transcription.command is required for the exec backend")
		}
	case BackendHTTP:
	default:
		return fmt.Errorf("unknown transcription.backend %q", c.Transcription.Backend)
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}
	return nil
}

// Save writes the config back to the file it was loaded from, or to the
// default location.
func (c *Config) Save() error {
	if c.path != "" {
		return c.SaveTo(c.path)
	}
	return c.SaveTo(configPath())
}

func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Path returns the config file location.
func Path() string {
	return configPath()
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, appName, "config.json")
}

// ModelsPath returns the platform-specific models directory path
func ModelsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, appName, "models")
}

// defaultOutputDir is where minutes land unless configured otherwise.
func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Documents", appName)
}
