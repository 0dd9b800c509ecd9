// Package config loads reel's settings from defaults, an optional YAML file,
// REEL_* environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Display modes.
const (
	DisplayTerminal = "terminal"
	DisplayHeadless = "headless"
)

// Log formats.
const (
	LogText = "text"
	LogJSON = "json"
)

// Config is the effective configuration.
type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// PipelineConfig sizes the pipeline and picks the conversion path.
type PipelineConfig struct {
	PacketQueueSize int `mapstructure:"packet_queue_size" yaml:"packet_queue_size"`
	// Convert is "cpu" or "gpu".
	Convert string `mapstructure:"convert" yaml:"convert"`
}

// DisplayConfig selects and sizes the window.
type DisplayConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
	// Width and Height size the headless surface. The terminal window
	// follows the terminal size.
	Width      int    `mapstructure:"width" yaml:"width"`
	Height     int    `mapstructure:"height" yaml:"height"`
	Background string `mapstructure:"background" yaml:"background"`
	Snapshot   string `mapstructure:"snapshot" yaml:"snapshot"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// File receives log records instead of stderr when set.
	File string `mapstructure:"file" yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			PacketQueueSize: 32,
			Convert:         "cpu",
		},
		Display: DisplayConfig{
			Mode:       DisplayTerminal,
			Width:      640,
			Height:     360,
			Background: "#000000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: LogText,
		},
	}
}

// normalize lowercases enumerated values so that "GPU" and "gpu" are equal.
func (c *Config) normalize() {
	c.Pipeline.Convert = strings.ToLower(strings.TrimSpace(c.Pipeline.Convert))
	c.Display.Mode = strings.ToLower(strings.TrimSpace(c.Display.Mode))
	c.Display.Background = strings.TrimSpace(c.Display.Background)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// Validate reports every invalid value, naming the offending key.
func (c *Config) Validate() error {
	var errs []error
	if c.Pipeline.PacketQueueSize < 1 {
		errs = append(errs, fmt.Errorf("pipeline.packet_queue_size must be at least 1, got %d", c.Pipeline.PacketQueueSize))
	}
	switch c.Pipeline.Convert {
	case "cpu", "gpu":
	default:
		errs = append(errs, fmt.Errorf("pipeline.convert must be cpu or gpu, got %q", c.Pipeline.Convert))
	}
	switch c.Display.Mode {
	case DisplayTerminal, DisplayHeadless:
	default:
		errs = append(errs, fmt.Errorf("display.mode must be %s or %s, got %q", DisplayTerminal, DisplayHeadless, c.Display.Mode))
	}
	if c.Display.Width < 1 || c.Display.Height < 1 {
		errs = append(errs, fmt.Errorf("display.width and display.height must be positive, got %dx%d", c.Display.Width, c.Display.Height))
	}
	if _, err := ParseColor(c.Display.Background); err != nil {
		errs = append(errs, fmt.Errorf("display.background: %w", err))
	}
	if c.Display.Snapshot != "" && c.Display.Mode != DisplayHeadless {
		errs = append(errs, errors.New("display.snapshot requires display.mode headless"))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case LogText, LogJSON:
	default:
		errs = append(errs, fmt.Errorf("logging.format must be %s or %s, got %q", LogText, LogJSON, c.Logging.Format))
	}
	return errors.Join(errs...)
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa". The leading '#' is
// optional.
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Dir returns reel's configuration directory: $XDG_CONFIG_HOME/reel, or
// ~/.config/reel.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "reel"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: locating home directory: %w", err)
	}
	return filepath.Join(home, ".config", "reel"), nil
}

// SearchPaths lists the config files tried, in order, when none is given
// explicitly.
func SearchPaths() []string {
	var paths []string
	if dir, err := Dir(); err == nil {
		paths = append(paths, filepath.Join(dir, "config.yaml"))
	}
	return append(paths, "reel.yaml")
}
