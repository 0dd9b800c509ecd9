package soft

import (
	"errors"
	"fmt"
	"image"

	"github.com/zsiec/reel/internal/gpu"
)

// Instance opens software devices for software surfaces.
type Instance struct {
	// Fail, when set, is returned by RequestDevice.
	Fail error
}

// RequestDevice implements gpu.Instance.
func (i Instance) RequestDevice(surface gpu.Surface) (gpu.Device, error) {
	if i.Fail != nil {
		return nil, i.Fail
	}
	if _, ok := surface.(*Surface); surface != nil && !ok {
		return nil, errors.New("soft: no adapter compatible with surface")
	}
	return NewDevice(), nil
}

// Surface is an offscreen presentation target. Every presented image is kept
// as the latest frame and passed to OnPresent.
type Surface struct {
	// OnPresent is called with a copy of each presented image.
	OnPresent func(*image.RGBA)

	cfg        gpu.SurfaceConfiguration
	tex        *Texture
	lost       bool
	last       *image.RGBA
	presents   int
	configures int
}

// NewSurface returns an unconfigured surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Configure implements gpu.Surface.
func (s *Surface) Configure(dev gpu.Device, cfg gpu.SurfaceConfiguration) error {
	d, ok := dev.(*Device)
	if !ok {
		return errors.New("soft: surface requires a soft device")
	}
	if cfg.Format != gpu.TextureFormatRGBA8Unorm && cfg.Format != gpu.TextureFormatBGRA8Unorm {
		return fmt.Errorf("soft: unsupported surface format %s", cfg.Format)
	}
	if s.tex == nil || s.tex.dev != d || s.tex.desc.Width != cfg.Width ||
		s.tex.desc.Height != cfg.Height || s.tex.desc.Format != cfg.Format {
		tex, err := d.newTexture(gpu.TextureDescriptor{
			Label:  "surface",
			Format: cfg.Format,
			Usage:  cfg.Usage | gpu.TextureUsageRenderAttachment,
			Width:  cfg.Width,
			Height: cfg.Height,
		}, false)
		if err != nil {
			return err
		}
		if s.tex != nil {
			s.tex.Destroy()
		}
		s.tex = tex
	}
	s.cfg = cfg
	s.lost = false
	s.configures++
	return nil
}

// CurrentTexture implements gpu.Surface.
func (s *Surface) CurrentTexture() (gpu.SurfaceTexture, error) {
	if s.tex == nil {
		return nil, gpu.ErrSurfaceOutdated
	}
	if s.lost {
		return nil, gpu.ErrSurfaceLost
	}
	return surfaceTexture{s}, nil
}

// Lose makes acquisition fail with gpu.ErrSurfaceLost until the next
// Configure.
func (s *Surface) Lose() { s.lost = true }

// Config returns the active configuration.
func (s *Surface) Config() gpu.SurfaceConfiguration { return s.cfg }

// Configures returns how many times Configure succeeded.
func (s *Surface) Configures() int { return s.configures }

// Presents returns the number of presented images.
func (s *Surface) Presents() int { return s.presents }

// Frame returns the most recently presented image, or nil.
func (s *Surface) Frame() *image.RGBA { return s.last }

type surfaceTexture struct {
	s *Surface
}

func (st surfaceTexture) Texture() gpu.Texture { return st.s.tex }

func (st surfaceTexture) Present() error {
	s := st.s
	if s.tex == nil || s.tex.destroyed {
		return gpu.ErrSurfaceOutdated
	}
	s.last = s.tex.Image()
	s.presents++
	if s.OnPresent != nil {
		s.OnPresent(s.last)
	}
	return nil
}
