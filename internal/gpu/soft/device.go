// Package soft is a gpu.Device that executes command buffers on the CPU.
// Textures are byte slices, draws are rasterized triangle by triangle, and
// shader modules resolve to built-in Go fragment programs selected by label.
// It backs the terminal and headless windows and every GPU-path test.
package soft

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/zsiec/reel/internal/gpu"
)

var errDeviceDestroyed = errors.New("soft: device destroyed")

// Stats counts texture allocations made through CreateTexture, bind groups,
// and GPU work executed by the queue.
type Stats struct {
	TexturesCreated   int
	TexturesDestroyed int
	TexturesLive      int
	BindGroups        int
	Submits           int
	Draws             int
	Uploads           int
}

// Device is a software gpu.Device. Surface textures are not counted in Stats.
type Device struct {
	mu        sync.Mutex
	stats     Stats
	destroyed bool
	queue     *Queue
	programs  map[string]Program
}

// NewDevice returns a device with the built-in programs registered.
func NewDevice() *Device {
	d := &Device{programs: builtinPrograms()}
	d.queue = &Queue{dev: d}
	return d
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.TexturesLive = s.TexturesCreated - s.TexturesDestroyed
	return s
}

func (d *Device) alive() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return errDeviceDestroyed
	}
	return nil
}

func (d *Device) count(fn func(*Stats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	t, err := d.newTexture(desc, true)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Device) newTexture(desc gpu.TextureDescriptor, counted bool) (*Texture, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	bpp := desc.Format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("soft: texture %q: unsupported format %s", desc.Label, desc.Format)
	}
	if desc.Width < 1 || desc.Height < 1 {
		return nil, fmt.Errorf("soft: texture %q: invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	if counted {
		d.count(func(s *Stats) { s.TexturesCreated++ })
	}
	return &Texture{
		dev:     d,
		desc:    desc,
		stride:  desc.Width * bpp,
		pix:     make([]byte, desc.Width*bpp*desc.Height),
		counted: counted,
	}, nil
}

// CreateSampler implements gpu.Device.
func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	return &sampler{desc: desc}, nil
}

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	size := desc.Size
	if desc.Contents != nil {
		size = len(desc.Contents)
	}
	if size <= 0 {
		return nil, fmt.Errorf("soft: buffer %q: empty", desc.Label)
	}
	b := &buffer{desc: desc, data: make([]byte, size)}
	copy(b.data, desc.Contents)
	return b, nil
}

// CreateShaderModule implements gpu.Device. The module's label selects the
// program that runs in place of its WGSL.
func (d *Device) CreateShaderModule(desc gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if desc.Code == "" {
		return nil, fmt.Errorf("soft: shader %q: empty source", desc.Label)
	}
	prog, ok := d.programs[desc.Label]
	if !ok {
		return nil, fmt.Errorf("soft: shader %q: no built-in program", desc.Label)
	}
	return &shaderModule{label: desc.Label, program: prog}, nil
}

// CreateBindGroupLayout implements gpu.Device.
func (d *Device) CreateBindGroupLayout(desc gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	return &bindGroupLayout{desc: desc}, nil
}

// CreateBindGroup implements gpu.Device. Every slot of the layout must be
// filled with a resource of the declared type.
func (d *Device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	layout, ok := desc.Layout.(*bindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("soft: bind group %q: foreign layout", desc.Label)
	}
	g := &bindGroup{label: desc.Label, entries: make(map[int]gpu.BindGroupEntry, len(desc.Entries))}
	for _, e := range desc.Entries {
		g.entries[e.Binding] = e
	}
	for _, le := range layout.desc.Entries {
		e, ok := g.entries[le.Binding]
		if !ok {
			return nil, fmt.Errorf("soft: bind group %q: binding %d missing", desc.Label, le.Binding)
		}
		switch le.Type {
		case gpu.BindingTexture:
			ok = e.Texture != nil
		case gpu.BindingSampler:
			ok = e.Sampler != nil
		case gpu.BindingUniform:
			ok = e.Buffer != nil
		}
		if !ok {
			return nil, fmt.Errorf("soft: bind group %q: binding %d has wrong resource type", desc.Label, le.Binding)
		}
	}
	d.count(func(s *Stats) { s.BindGroups++ })
	return g, nil
}

// CreateRenderPipeline implements gpu.Device.
func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	mod, ok := desc.Module.(*shaderModule)
	if !ok {
		return nil, fmt.Errorf("soft: pipeline %q: foreign shader module", desc.Label)
	}
	if len(desc.Buffers) != 1 {
		return nil, fmt.Errorf("soft: pipeline %q: want one vertex buffer layout, got %d", desc.Label, len(desc.Buffers))
	}
	if desc.TargetFormat.BytesPerPixel() == 0 {
		return nil, fmt.Errorf("soft: pipeline %q: unsupported target format %s", desc.Label, desc.TargetFormat)
	}
	p := &renderPipeline{desc: desc, program: mod.program, pos: -1, uv: -1}
	for _, a := range desc.Buffers[0].Attributes {
		switch a.ShaderLocation {
		case gpu.LocationPosition:
			p.pos = a.Offset
		case gpu.LocationTexCoord:
			p.uv = a.Offset
		}
	}
	if p.pos < 0 || p.uv < 0 {
		return nil, fmt.Errorf("soft: pipeline %q: vertex layout lacks position or texcoord", desc.Label)
	}
	return p, nil
}

// CreateCommandEncoder implements gpu.Device.
func (d *Device) CreateCommandEncoder(label string) gpu.CommandEncoder {
	return &commandEncoder{label: label}
}

// Queue implements gpu.Device.
func (d *Device) Queue() gpu.Queue {
	return d.queue
}

// Destroy implements gpu.Device. Later calls fail with an error.
func (d *Device) Destroy() {
	d.mu.Lock()
	d.destroyed = true
	d.mu.Unlock()
}

// Texture is a software texture with tightly packed rows.
type Texture struct {
	dev       *Device
	desc      gpu.TextureDescriptor
	pix       []byte
	stride    int
	destroyed bool
	counted   bool
}

func (t *Texture) Label() string             { return t.desc.Label }
func (t *Texture) Format() gpu.TextureFormat { return t.desc.Format }
func (t *Texture) Usage() gpu.TextureUsage   { return t.desc.Usage }
func (t *Texture) Width() int                { return t.desc.Width }
func (t *Texture) Height() int               { return t.desc.Height }

// Destroy releases the texture. Repeated calls are no-ops.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.pix = nil
	if t.counted {
		t.dev.count(func(s *Stats) { s.TexturesDestroyed++ })
	}
}

// Destroyed reports whether Destroy has been called.
func (t *Texture) Destroyed() bool { return t.destroyed }

// Image returns a copy of the texture contents as RGBA. Single-channel
// textures are expanded to gray.
func (t *Texture) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.desc.Width, t.desc.Height))
	if t.destroyed {
		return img
	}
	switch t.desc.Format {
	case gpu.TextureFormatR8Unorm:
		for i, v := range t.pix {
			img.Pix[i*4], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3] = v, v, v, 0xff
		}
	case gpu.TextureFormatBGRA8Unorm:
		for i := 0; i+3 < len(t.pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = t.pix[i+2], t.pix[i+1], t.pix[i], t.pix[i+3]
		}
	default:
		copy(img.Pix, t.pix)
	}
	return img
}

type sampler struct {
	desc gpu.SamplerDescriptor
}

func (s *sampler) Label() string { return s.desc.Label }

type buffer struct {
	desc      gpu.BufferDescriptor
	data      []byte
	destroyed bool
}

func (b *buffer) Label() string { return b.desc.Label }
func (b *buffer) Size() int     { return len(b.data) }
func (b *buffer) Destroy()      { b.destroyed = true }

type shaderModule struct {
	label   string
	program Program
}

func (m *shaderModule) Label() string { return m.label }

type bindGroupLayout struct {
	desc gpu.BindGroupLayoutDescriptor
}

func (l *bindGroupLayout) Label() string { return l.desc.Label }

type bindGroup struct {
	label   string
	entries map[int]gpu.BindGroupEntry
}

func (g *bindGroup) Label() string { return g.label }

type renderPipeline struct {
	desc    gpu.RenderPipelineDescriptor
	program Program
	pos, uv int
}

func (p *renderPipeline) Label() string { return p.desc.Label }
