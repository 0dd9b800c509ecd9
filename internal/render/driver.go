// Package render drives presentation from the window's redraw callbacks. It
// never blocks: each redraw takes at most one new frame from the pipeline,
// refreshes the frame texture, and redraws the latest texture whether or not
// a new frame arrived.
package render

import (
	"fmt"
	"log/slog"

	"github.com/zsiec/reel/internal/gpu"
	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/present"
	"github.com/zsiec/reel/internal/queue"
	"github.com/zsiec/reel/internal/texture"
)

// Converter writes a frame into a texture of the same size. convert.GPU
// implements it.
type Converter interface {
	Convert(src *media.Frame, dst gpu.Texture) error
}

// Stats counts driver activity.
type Stats struct {
	Redraws     int
	Frames      int
	LastPTS     int64
	Textures    texture.Stats
	Presenter   present.Stats
	InputClosed bool
}

// Config wires a Driver.
type Config struct {
	Frames    *queue.Queue[*media.Frame]
	Cache     *texture.Cache
	Presenter *present.Presenter
	// Converter handles planar frames. When nil only packed RGBA frames are
	// accepted and they are uploaded directly.
	Converter Converter
	Log       *slog.Logger
}

// Driver runs on the goroutine that owns the gpu.Context.
type Driver struct {
	ctx       *gpu.Context
	frames    *queue.Queue[*media.Frame]
	cache     *texture.Cache
	presenter *present.Presenter
	converter Converter
	log       *slog.Logger

	stats Stats
}

// New returns a driver presenting frames from cfg.Frames.
func New(ctx *gpu.Context, cfg Config) *Driver {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Driver{
		ctx:       ctx,
		frames:    cfg.Frames,
		cache:     cfg.Cache,
		presenter: cfg.Presenter,
		converter: cfg.Converter,
		log:       log.With("component", "render"),
	}
}

// Redraw shows the next frame if one is ready, then draws. An empty or
// closed frame queue is not an error; the previous texture is drawn again.
func (d *Driver) Redraw() error {
	d.stats.Redraws++
	if f, ok := d.frames.TryPop(); ok {
		if err := d.show(f); err != nil {
			return err
		}
	} else if !d.stats.InputClosed && d.frames.Drained() {
		d.stats.InputClosed = true
		d.log.Debug("frame queue closed", "frames", d.stats.Frames)
	}
	return d.presenter.Draw(d.cache.Current())
}

func (d *Driver) show(f *media.Frame) error {
	tex, err := d.cache.Ensure(f.Width, f.Height)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	switch {
	case d.converter != nil:
		err = d.converter.Convert(f, tex)
	case f.Format == media.PixelFormatRGBA:
		p := f.Planes[0]
		err = d.ctx.WriteTexture(tex, p.Data, p.Stride, f.Width, f.Height)
	default:
		err = &media.UnsupportedPixelFormatError{Format: f.Format}
	}
	if err != nil {
		return fmt.Errorf("render: frame pts=%d: %w", f.PTS, err)
	}
	d.stats.Frames++
	d.stats.LastPTS = f.PTS
	return nil
}

// Resize reconfigures the surface.
func (d *Driver) Resize(width, height int) error {
	return d.presenter.Configure(width, height)
}

// Stats returns a snapshot of the driver and its collaborators' counters.
func (d *Driver) Stats() Stats {
	s := d.stats
	s.Textures = d.cache.Stats()
	s.Presenter = d.presenter.Stats()
	return s
}

// Close releases the frame texture.
func (d *Driver) Close() {
	d.cache.Release()
}
