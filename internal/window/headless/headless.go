// Package headless is an offscreen window. It redraws on request into a
// software surface of fixed size and can save the last presented image as a
// PNG when it closes.
package headless

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"github.com/zsiec/reel/internal/gpu"
	"github.com/zsiec/reel/internal/gpu/soft"
	"github.com/zsiec/reel/internal/window"
)

// Config sizes the window.
type Config struct {
	Width  int
	Height int
	// Snapshot, when set, is the PNG path the last presented image is
	// written to when Run returns.
	Snapshot string
	Log      *slog.Logger
}

// Window implements window.Window without a display.
type Window struct {
	cfg     Config
	surface *soft.Surface
	signal  *window.Signal
	log     *slog.Logger
}

// New returns a window with a cfg.Width×cfg.Height surface.
func New(cfg Config) *Window {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Window{
		cfg:     cfg,
		surface: soft.NewSurface(),
		signal:  window.NewSignal(),
		log:     log.With("component", "headless"),
	}
}

func (w *Window) Instance() gpu.Instance    { return soft.Instance{} }
func (w *Window) Surface() gpu.Surface      { return w.surface }
func (w *Window) Notifier() window.Notifier { return w.signal }

// Frame returns the last presented image, or nil.
func (w *Window) Frame() *image.RGBA { return w.surface.Frame() }

// Run implements window.Window.
func (w *Window) Run(ctx context.Context, h window.Handler) error {
	err := w.loop(ctx, h)
	if errors.Is(err, window.ErrQuit) {
		err = nil
	}
	if w.cfg.Snapshot != "" {
		if serr := w.writeSnapshot(); serr != nil && err == nil {
			err = serr
		}
	}
	h.Closed()
	return err
}

func (w *Window) loop(ctx context.Context, h window.Handler) error {
	if err := h.Resized(w.cfg.Width, w.cfg.Height); err != nil {
		return err
	}
	if err := h.Redraw(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.signal.C():
			if err := h.Redraw(); err != nil {
				return err
			}
		}
	}
}

func (w *Window) writeSnapshot() error {
	img := w.surface.Frame()
	if img == nil {
		w.log.Warn("no frame presented, snapshot skipped", "path", w.cfg.Snapshot)
		return nil
	}
	if err := WritePNG(w.cfg.Snapshot, img); err != nil {
		return err
	}
	w.log.Info("snapshot written", "path", w.cfg.Snapshot,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("headless: snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("headless: snapshot: %w", cerr)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("headless: encoding snapshot: %w", err)
	}
	return nil
}
