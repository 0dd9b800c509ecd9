package config

import (
	"github.com/fsnotify/fsnotify"
)

// OnChange registers fn to receive every configuration that a config file
// change produces. Callbacks run on the watcher's goroutine.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Watch starts watching the loaded config file. It is a no-op without a
// config file or when already watching. Edits that fail to decode or
// validate are logged and the previous configuration is kept.
func (m *Manager) Watch() {
	if m.viper.ConfigFileUsed() == "" {
		m.log.Debug("no config file, not watching")
		return
	}

	m.mu.Lock()
	if m.watching {
		m.mu.Unlock()
		return
	}
	m.watching = true
	m.mu.Unlock()

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		m.reload(e.Name)
	})
	m.viper.WatchConfig()
	m.log.Debug("watching config file", "file", m.viper.ConfigFileUsed())
}

func (m *Manager) reload(file string) {
	cfg, err := m.unmarshal()
	if err != nil {
		m.log.Warn("ignoring config change", "file", file, "error", err)
		return
	}

	m.mu.Lock()
	m.config = cfg
	callbacks := append(([]func(*Config))(nil), m.callbacks...)
	m.mu.Unlock()

	m.log.Info("configuration reloaded", "file", file)
	for _, fn := range callbacks {
		c := *cfg
		fn(&c)
	}
}
