package convert

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/zsiec/reel/internal/gpu"
	"github.com/zsiec/reel/internal/media"
)

// TargetUsage is the usage a texture needs to receive GPU conversions as
// well as direct RGBA uploads and be sampled by the presenter.
const TargetUsage = gpu.TextureUsageTextureBinding | gpu.TextureUsageRenderAttachment | gpu.TextureUsageCopyDst

// GPU converts planar frames with a fragment shader. Each plane is uploaded
// to its own single-channel texture as-is; all pixel math happens on the
// device. Plane textures are kept between frames and replaced only when a
// plane's size changes.
//
// A GPU must be used from the goroutine that owns its gpu.Context.
type GPU struct {
	ctx       *gpu.Context
	log       *slog.Logger
	layout    gpu.BindGroupLayout
	pipeline  gpu.RenderPipeline
	sampler   gpu.Sampler
	params    gpu.Buffer
	quad      *gpu.Quad
	planes    [3]gpu.Texture
	fullRange int
}

// NewGPU compiles the conversion pipeline on ctx. If log is nil,
// slog.Default() is used.
func NewGPU(ctx *gpu.Context, log *slog.Logger) (*GPU, error) {
	if log == nil {
		log = slog.Default()
	}
	g := &GPU{ctx: ctx, log: log.With("component", "convert-gpu"), fullRange: -1}
	dev := ctx.Device

	mod, err := dev.CreateShaderModule(gpu.YUVToRGBAShader())
	if err != nil {
		return nil, fmt.Errorf("convert: compiling shader: %w", err)
	}
	g.layout, err = dev.CreateBindGroupLayout(gpu.BindGroupLayoutDescriptor{
		Label: "yuv-planes",
		Entries: []gpu.BindGroupLayoutEntry{
			{Binding: gpu.YUVBindingY, Type: gpu.BindingTexture},
			{Binding: gpu.YUVBindingU, Type: gpu.BindingTexture},
			{Binding: gpu.YUVBindingV, Type: gpu.BindingTexture},
			{Binding: gpu.YUVBindingSampler, Type: gpu.BindingSampler},
			{Binding: gpu.YUVBindingParams, Type: gpu.BindingUniform},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("convert: bind group layout: %w", err)
	}
	g.pipeline, err = dev.CreateRenderPipeline(gpu.RenderPipelineDescriptor{
		Label:         "yuv-to-rgba",
		Layout:        g.layout,
		Module:        mod,
		VertexEntry:   gpu.VertexEntry,
		FragmentEntry: gpu.FragmentEntry,
		Buffers:       []gpu.VertexBufferLayout{gpu.QuadLayout},
		TargetFormat:  gpu.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		return nil, fmt.Errorf("convert: render pipeline: %w", err)
	}
	g.sampler, err = dev.CreateSampler(gpu.SamplerDescriptor{
		Label:       "yuv-planes",
		AddressMode: gpu.AddressClampToEdge,
		MagFilter:   gpu.FilterLinear,
		MinFilter:   gpu.FilterLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("convert: sampler: %w", err)
	}
	g.params, err = dev.CreateBuffer(gpu.BufferDescriptor{
		Label: "yuv-params",
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
		Size:  gpu.YUVParamsSize,
	})
	if err != nil {
		return nil, fmt.Errorf("convert: params buffer: %w", err)
	}
	g.quad, err = gpu.NewQuad(dev, "yuv-quad")
	if err != nil {
		return nil, fmt.Errorf("convert: quad: %w", err)
	}
	return g, nil
}

// Convert writes src into dst, which must have src's dimensions, an RGBA8
// format and TargetUsage. RGBA frames are uploaded directly; planar frames
// are converted by a draw into dst.
func (g *GPU) Convert(src *media.Frame, dst gpu.Texture) error {
	kind, err := Classify(src.Format)
	if err != nil {
		return err
	}
	if err := src.Validate(); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	if kind == Presentable {
		return g.ctx.WriteTexture(dst, src.Planes[0].Data, src.Planes[0].Stride, src.Width, src.Height)
	}
	if dst.Width() != src.Width || dst.Height() != src.Height {
		return fmt.Errorf("convert: %dx%d frame into %dx%d texture", src.Width, src.Height, dst.Width(), dst.Height())
	}

	for i := range g.planes {
		if err := g.upload(i, src); err != nil {
			return err
		}
	}
	if err := g.setRange(src.Format.FullRange()); err != nil {
		return err
	}

	group, err := g.ctx.Device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:  "yuv-planes",
		Layout: g.layout,
		Entries: []gpu.BindGroupEntry{
			{Binding: gpu.YUVBindingY, Texture: g.planes[0]},
			{Binding: gpu.YUVBindingU, Texture: g.planes[1]},
			{Binding: gpu.YUVBindingV, Texture: g.planes[2]},
			{Binding: gpu.YUVBindingSampler, Sampler: g.sampler},
			{Binding: gpu.YUVBindingParams, Buffer: g.params},
		},
	})
	if err != nil {
		return fmt.Errorf("convert: bind group: %w", err)
	}

	enc := g.ctx.Device.CreateCommandEncoder("yuv-to-rgba")
	pass := enc.BeginRenderPass(gpu.RenderPassDescriptor{Label: "yuv-to-rgba", Target: dst, Clear: gpu.Black})
	pass.SetPipeline(g.pipeline)
	pass.SetBindGroup(0, group)
	g.quad.Draw(pass)
	pass.End()
	cmd, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("convert: encoding: %w", err)
	}
	return g.ctx.Queue.Submit(cmd)
}

func (g *GPU) upload(i int, src *media.Frame) error {
	w, h := src.PlaneSize(i)
	tex := g.planes[i]
	if tex == nil || tex.Width() != w || tex.Height() != h {
		if tex != nil {
			tex.Destroy()
			g.planes[i] = nil
		}
		var err error
		tex, err = g.ctx.Device.CreateTexture(gpu.TextureDescriptor{
			Label:  fmt.Sprintf("yuv-plane-%d", i),
			Format: gpu.TextureFormatR8Unorm,
			Usage:  gpu.TextureUsageCopyDst | gpu.TextureUsageTextureBinding,
			Width:  w,
			Height: h,
		})
		if err != nil {
			return fmt.Errorf("convert: plane %d texture: %w", i, err)
		}
		g.planes[i] = tex
		g.log.Debug("plane texture allocated", "plane", i, "width", w, "height", h)
	}
	p := src.Planes[i]
	return g.ctx.WriteTexture(tex, p.Data, p.Stride, w, h)
}

func (g *GPU) setRange(full bool) error {
	v := 0
	if full {
		v = 1
	}
	if v == g.fullRange {
		return nil
	}
	buf := binary.LittleEndian.AppendUint32(make([]byte, 0, gpu.YUVParamsSize), uint32(v))
	buf = buf[:gpu.YUVParamsSize]
	if err := g.ctx.Queue.WriteBuffer(g.params, 0, buf); err != nil {
		return fmt.Errorf("convert: params: %w", err)
	}
	g.fullRange = v
	return nil
}

// Close releases the plane textures and pipeline buffers.
func (g *GPU) Close() {
	for i, t := range g.planes {
		if t != nil {
			t.Destroy()
			g.planes[i] = nil
		}
	}
	g.params.Destroy()
	g.quad.Destroy()
}
