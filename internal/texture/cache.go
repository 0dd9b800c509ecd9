// Package texture keeps the single presentable texture the render driver
// draws from, reallocating it only when frame dimensions change.
package texture

import (
	"fmt"
	"log/slog"

	"github.com/zsiec/reel/internal/gpu"
)

// Stats counts allocations and releases over the cache's lifetime.
type Stats struct {
	Allocations int
	Releases    int
}

// Cache owns at most one RGBA texture. It must be used from the goroutine
// that owns the gpu.Context.
type Cache struct {
	ctx   *gpu.Context
	usage gpu.TextureUsage
	log   *slog.Logger

	tex   gpu.Texture
	stats Stats
}

// NewCache returns an empty cache whose textures get usage. If log is nil,
// slog.Default() is used.
func NewCache(ctx *gpu.Context, usage gpu.TextureUsage, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{ctx: ctx, usage: usage, log: log.With("component", "texture-cache")}
}

// Ensure returns a texture of exactly width×height. The current texture is
// returned unchanged when its size matches; otherwise it is destroyed and
// replaced.
func (c *Cache) Ensure(width, height int) (gpu.Texture, error) {
	if c.tex != nil && c.tex.Width() == width && c.tex.Height() == height {
		return c.tex, nil
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("texture: invalid size %dx%d", width, height)
	}
	c.Release()
	tex, err := c.ctx.Device.CreateTexture(gpu.TextureDescriptor{
		Label:  "frame",
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  c.usage,
		Width:  width,
		Height: height,
	})
	if err != nil {
		return nil, fmt.Errorf("texture: allocating %dx%d: %w", width, height, err)
	}
	c.tex = tex
	c.stats.Allocations++
	c.log.Debug("texture allocated", "width", width, "height", height)
	return tex, nil
}

// Current returns the cached texture, or nil.
func (c *Cache) Current() gpu.Texture {
	return c.tex
}

// Release destroys the cached texture, if any.
func (c *Cache) Release() {
	if c.tex == nil {
		return
	}
	c.tex.Destroy()
	c.tex = nil
	c.stats.Releases++
}

// Stats returns the allocation counters.
func (c *Cache) Stats() Stats {
	return c.stats
}
