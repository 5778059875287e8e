// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toasty/internal/model"
)

// Default configuration values.
const (
	DefaultLifetime   = 4000 * time.Millisecond
	DefaultExitDelay  = 300 * time.Millisecond
	DefaultMaxVisible = 5
	DefaultInterval   = 3000 * time.Millisecond
	DefaultPalette    = 1
	DefaultListen     = "127.0.0.1:7878"
	DefaultAppName    = "toasty"
	DefaultVolume     = 80
)

// DefaultSlides are the gallery captions shown when none are configured.
var DefaultSlides = []string{
	"/images/gallery-1.jpg",
	"/images/gallery-2.jpg",
	"/images/gallery-3.jpg",
	"/images/gallery-4.jpg",
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the toasty configuration.
type Config struct {
	Toasts   ToastsConfig   `toml:"toasts"`
	Carousel CarouselConfig `toml:"carousel"`
	Theme    ThemeConfig    `toml:"theme"`
	Server   ServerConfig   `toml:"server"`
	Desktop  DesktopConfig  `toml:"desktop"`
	Audio    AudioConfig    `toml:"audio"`
}

// ToastsConfig controls toast timing.
type ToastsConfig struct {
	Lifetime   Duration `toml:"lifetime"`    // Store expiry, e.g. "4s"
	ExitDelay  Duration `toml:"exit_delay"`  // Closing transition, e.g. "300ms"
	Display    Duration `toml:"display"`     // 0 = lifetime - exit_delay
	MaxVisible int      `toml:"max_visible"` // Toasts rendered at once in the TUI
}

// CarouselConfig controls the gallery.
type CarouselConfig struct {
	Interval Duration `toml:"interval"`
	Slides   []string `toml:"slides"`
}

// ThemeConfig selects the palette.
type ThemeConfig struct {
	Palette int `toml:"palette"` // 1-4, anything else falls back to 1
}

// ServerConfig controls the HTTP/websocket server.
type ServerConfig struct {
	Listen         string   `toml:"listen"`
	AllowedOrigins []string `toml:"allowed_origins"`
	Metrics        bool     `toml:"metrics"`
}

// DesktopConfig controls the D-Bus notification mirror.
type DesktopConfig struct {
	Enabled bool   `toml:"enabled"`
	AppName string `toml:"app_name"`
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-kind sound file paths.
type SoundConfig struct {
	Success string `toml:"success"`
	Error   string `toml:"error"`
	Info    string `toml:"info"`
	Warning string `toml:"warning"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	slides := make([]string, len(DefaultSlides))
	copy(slides, DefaultSlides)

	return &Config{
		Toasts: ToastsConfig{
			Lifetime:   Duration(DefaultLifetime),
			ExitDelay:  Duration(DefaultExitDelay),
			Display:    0,
			MaxVisible: DefaultMaxVisible,
		},
		Carousel: CarouselConfig{
			Interval: Duration(DefaultInterval),
			Slides:   slides,
		},
		Theme: ThemeConfig{
			Palette: DefaultPalette,
		},
		Server: ServerConfig{
			Listen:         DefaultListen,
			AllowedOrigins: []string{"localhost:*", "127.0.0.1:*"},
			Metrics:        true,
		},
		Desktop: DesktopConfig{
			Enabled: false,
			AppName: DefaultAppName,
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  DefaultVolume,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// ConfigDir returns the toasty configuration directory.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "toasty")
}

// PalettesDir returns the directory holding palette overrides.
func PalettesDir() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "palettes")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Toasts.Lifetime <= 0 {
		return fmt.Errorf("%w: toasts.lifetime must be positive, got %s", ErrInvalidConfig, c.Toasts.Lifetime.Duration())
	}
	if c.Toasts.ExitDelay < 0 {
		return fmt.Errorf("%w: toasts.exit_delay must not be negative", ErrInvalidConfig)
	}
	if c.Toasts.ExitDelay >= c.Toasts.Lifetime {
		return fmt.Errorf("%w: toasts.exit_delay must be shorter than toasts.lifetime", ErrInvalidConfig)
	}
	if c.Toasts.Display < 0 {
		return fmt.Errorf("%w: toasts.display must not be negative", ErrInvalidConfig)
	}
	if c.Toasts.MaxVisible < 1 || c.Toasts.MaxVisible > 20 {
		return fmt.Errorf("%w: toasts.max_visible must be between 1 and 20, got %d", ErrInvalidConfig, c.Toasts.MaxVisible)
	}

	if c.Carousel.Interval <= 0 {
		return fmt.Errorf("%w: carousel.interval must be positive", ErrInvalidConfig)
	}
	if len(c.Carousel.Slides) == 0 {
		return fmt.Errorf("%w: carousel.slides must not be empty", ErrInvalidConfig)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("%w: audio.volume must be between 0 and 100, got %d", ErrInvalidConfig, c.Audio.Volume)
	}

	if c.Server.Listen == "" {
		return fmt.Errorf("%w: server.listen must not be empty", ErrInvalidConfig)
	}

	return nil
}

// DisplayDuration returns how long a toast is shown before it starts
// closing. A zero display setting means lifetime minus exit delay.
func (c *Config) DisplayDuration() time.Duration {
	if c.Toasts.Display > 0 {
		return c.Toasts.Display.Duration()
	}
	return c.Toasts.Lifetime.Duration() - c.Toasts.ExitDelay.Duration()
}

// SoundForKind returns the sound file path for the given kind.
// Expands ~ to home directory.
func (c *Config) SoundForKind(k model.Kind) string {
	var path string
	switch k {
	case model.KindSuccess:
		path = c.Audio.Sounds.Success
	case model.KindError:
		path = c.Audio.Sounds.Error
	case model.KindWarning:
		path = c.Audio.Sounds.Warning
	default:
		path = c.Audio.Sounds.Info
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
