// Package logging builds the process logger from the logging configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/zsiec/reel/internal/config"
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logging: unknown level %q", s)
}

// New returns a logger writing to w in cfg.Format at cfg.Level. A non-empty
// DEBUG environment variable forces debug level. Every record carries a
// session attribute unique to this logger.
func New(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", config.LogText:
		h = slog.NewTextHandler(w, opts)
	case config.LogJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	return slog.New(h).With("session", uuid.NewString()), nil
}

// Open is New writing to cfg.File, or to fallback when no file is
// configured. The returned closer closes the file and is never nil.
func Open(cfg config.LoggingConfig, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg.File == "" {
		log, err := New(cfg, fallback)
		return log, io.NopCloser(nil), err
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	log, err := New(cfg, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return log, f, nil
}
