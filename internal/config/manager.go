package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: display.mode is REEL_DISPLAY_MODE.
const EnvPrefix = "REEL"

// Manager loads the configuration and keeps it current while the config
// file is watched.
type Manager struct {
	viper *viper.Viper
	log   *slog.Logger

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	watching  bool
}

// NewManager returns a manager holding the defaults. If log is nil,
// slog.Default() is used.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		viper:  viper.New(),
		log:    log.With("component", "config"),
		config: Default(),
	}
	m.setDefaults()
	m.viper.SetConfigType("yaml")
	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
	return m
}

func (m *Manager) setDefaults() {
	d := Default()
	m.viper.SetDefault("pipeline.packet_queue_size", d.Pipeline.PacketQueueSize)
	m.viper.SetDefault("pipeline.convert", d.Pipeline.Convert)
	m.viper.SetDefault("display.mode", d.Display.Mode)
	m.viper.SetDefault("display.width", d.Display.Width)
	m.viper.SetDefault("display.height", d.Display.Height)
	m.viper.SetDefault("display.background", d.Display.Background)
	m.viper.SetDefault("display.snapshot", d.Display.Snapshot)
	m.viper.SetDefault("logging.level", d.Logging.Level)
	m.viper.SetDefault("logging.format", d.Logging.Format)
	m.viper.SetDefault("logging.file", d.Logging.File)
}

// SetConfigFile makes path the config file. It must exist when Load runs.
func (m *Manager) SetConfigFile(path string) {
	m.viper.SetConfigFile(path)
}

// BindFlag lets a command line flag override key when the flag is set.
func (m *Manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("config: no flag for %s", key)
	}
	return m.viper.BindPFlag(key, flag)
}

// Load reads the config file, if any, applies overrides and validates the
// result. Without an explicit file the first existing entry of SearchPaths
// is used; finding none is not an error.
func (m *Manager) Load() error {
	if err := m.readConfigFile(); err != nil {
		return err
	}
	cfg, err := m.unmarshal()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	if f := m.viper.ConfigFileUsed(); f != "" {
		m.log.Debug("configuration loaded", "file", f)
	}
	return nil
}

func (m *Manager) readConfigFile() error {
	if m.viper.ConfigFileUsed() == "" {
		for _, p := range SearchPaths() {
			if _, err := os.Stat(p); err == nil {
				m.viper.SetConfigFile(p)
				break
			}
		}
	}
	if m.viper.ConfigFileUsed() == "" {
		return nil
	}
	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", m.viper.ConfigFileUsed(), err)
	}
	return nil
}

func (m *Manager) unmarshal() (*Config, error) {
	cfg := Default()
	if err := m.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := *m.config
	return &c
}

// ConfigFileUsed returns the loaded config file, or "".
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}
