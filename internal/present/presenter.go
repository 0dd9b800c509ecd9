// Package present draws the current frame texture onto a window surface,
// centered and letterboxed to keep its aspect ratio.
package present

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"github.com/zsiec/reel/internal/gpu"
	"github.com/zsiec/reel/internal/media"
)

// SurfaceFormat is the format every surface is configured with.
const SurfaceFormat = gpu.TextureFormatRGBA8Unorm

// Stats counts presenter activity.
type Stats struct {
	Draws      int
	Skipped    int
	Configures int
}

// Presenter owns the present pipeline and the surface configuration. Draw
// and Configure must be called from the goroutine that owns the gpu.Context;
// SetBackground may be called from any goroutine.
type Presenter struct {
	ctx     *gpu.Context
	surface gpu.Surface
	log     *slog.Logger

	layout   gpu.BindGroupLayout
	pipeline gpu.RenderPipeline
	sampler  gpu.Sampler
	quad     *gpu.Quad

	size       Size
	configured bool
	viewport   Rect
	stats      Stats

	mu         sync.Mutex
	background gpu.Color
}

// New builds the present pipeline on ctx for surface. The surface is
// configured on the first Configure or Draw. If log is nil, slog.Default()
// is used.
func New(ctx *gpu.Context, surface gpu.Surface, log *slog.Logger) (*Presenter, error) {
	if log == nil {
		log = slog.Default()
	}
	p := &Presenter{
		ctx:        ctx,
		surface:    surface,
		log:        log.With("component", "presenter"),
		size:       Size{1, 1},
		background: gpu.Black,
	}
	dev := ctx.Device

	mod, err := dev.CreateShaderModule(gpu.PresentShader())
	if err != nil {
		return nil, fmt.Errorf("present: compiling shader: %w", err)
	}
	p.layout, err = dev.CreateBindGroupLayout(gpu.BindGroupLayoutDescriptor{
		Label: "present",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: gpu.PresentBindingTexture, Type: gpu.BindingTexture},
			{Binding: gpu.PresentBindingSampler, Type: gpu.BindingSampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("present: bind group layout: %w", err)
	}
	p.pipeline, err = dev.CreateRenderPipeline(gpu.RenderPipelineDescriptor{
		Label:         "present",
		Layout:        p.layout,
		Module:        mod,
		VertexEntry:   gpu.VertexEntry,
		FragmentEntry: gpu.FragmentEntry,
		Buffers:       []gpu.VertexBufferLayout{gpu.QuadLayout},
		TargetFormat:  SurfaceFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("present: render pipeline: %w", err)
	}
	p.sampler, err = dev.CreateSampler(gpu.SamplerDescriptor{
		Label:       "present",
		AddressMode: gpu.AddressClampToEdge,
		MagFilter:   gpu.FilterLinear,
		MinFilter:   gpu.FilterLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("present: sampler: %w", err)
	}
	p.quad, err = gpu.NewQuad(dev, "present-quad")
	if err != nil {
		return nil, fmt.Errorf("present: quad: %w", err)
	}
	return p, nil
}

// Configure sizes the surface to width×height, each clamped to at least 1.
func (p *Presenter) Configure(width, height int) error {
	size := Size{max(width, 1), max(height, 1)}
	err := p.surface.Configure(p.ctx.Device, gpu.SurfaceConfiguration{
		Format: SurfaceFormat,
		Usage:  gpu.TextureUsageRenderAttachment,
		Width:  size.Width,
		Height: size.Height,
	})
	if err != nil {
		return fmt.Errorf("present: configuring surface %dx%d: %w", size.Width, size.Height, err)
	}
	p.size = size
	p.configured = true
	p.stats.Configures++
	p.log.Debug("surface configured", "width", size.Width, "height", size.Height)
	return nil
}

// SetBackground changes the color the surface is cleared to.
func (p *Presenter) SetBackground(c color.Color) {
	r, g, b, a := c.RGBA()
	p.mu.Lock()
	p.background = gpu.Color{
		R: float64(r) / 0xffff,
		G: float64(g) / 0xffff,
		B: float64(b) / 0xffff,
		A: float64(a) / 0xffff,
	}
	p.mu.Unlock()
}

// Background returns the clear color.
func (p *Presenter) Background() gpu.Color {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.background
}

// Draw clears the surface and draws tex into the letterboxed viewport, then
// presents. A nil tex only clears. When the surface image cannot be acquired
// the surface is reconfigured and the draw is skipped without error.
func (p *Presenter) Draw(tex gpu.Texture) error {
	if !p.configured {
		if err := p.Configure(p.size.Width, p.size.Height); err != nil {
			return err
		}
	}

	st, err := p.surface.CurrentTexture()
	if errors.Is(err, media.ErrSurfaceAcquire) {
		p.stats.Skipped++
		p.log.Debug("surface acquire failed, reconfiguring", "error", err)
		return p.Configure(p.size.Width, p.size.Height)
	}
	if err != nil {
		return fmt.Errorf("present: acquiring surface: %w", err)
	}
	target := st.Texture()

	var group gpu.BindGroup
	if tex != nil {
		group, err = p.ctx.Device.CreateBindGroup(gpu.BindGroupDescriptor{
			Label:  "present",
			Layout: p.layout,
			Entries: []gpu.BindGroupEntry{
				{Binding: gpu.PresentBindingTexture, Texture: tex},
				{Binding: gpu.PresentBindingSampler, Sampler: p.sampler},
			},
		})
		if err != nil {
			return fmt.Errorf("present: bind group: %w", err)
		}
	}

	enc := p.ctx.Device.CreateCommandEncoder("present")
	pass := enc.BeginRenderPass(gpu.RenderPassDescriptor{
		Label:  "present",
		Target: target,
		Clear:  p.Background(),
	})
	if tex != nil {
		vp := Viewport(Size{tex.Width(), tex.Height()}, Size{target.Width(), target.Height()})
		p.viewport = vp
		pass.SetPipeline(p.pipeline)
		pass.SetBindGroup(0, group)
		pass.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, 0, 1)
		p.quad.Draw(pass)
	}
	pass.End()

	cmd, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("present: encoding: %w", err)
	}
	if err := p.ctx.Queue.Submit(cmd); err != nil {
		return fmt.Errorf("present: submit: %w", err)
	}
	if err := st.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	p.stats.Draws++
	return nil
}

// Size returns the configured surface size.
func (p *Presenter) Size() Size { return p.size }

// LastViewport returns the viewport of the most recent textured draw.
func (p *Presenter) LastViewport() Rect { return p.viewport }

// Stats returns the presenter counters.
func (p *Presenter) Stats() Stats { return p.stats }

// Close releases the quad geometry.
func (p *Presenter) Close() {
	p.quad.Destroy()
}
