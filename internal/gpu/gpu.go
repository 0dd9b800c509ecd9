// Package gpu is the slice of a WebGPU-style rendering API that reel
// consumes: textures, samplers, buffers, shader modules, bind groups, render
// pipelines, command encoding, a submission queue, and a presentation
// surface. Implementations wrap a real device or, as internal/gpu/soft does,
// execute the same commands on the CPU.
//
// Every object is used from one goroutine, the one that owns the Context.
package gpu

import (
	"fmt"

	"github.com/zsiec/reel/internal/media"
)

// Surface acquisition failures. All of them wrap media.ErrSurfaceAcquire and
// are recovered by reconfiguring the surface.
var (
	ErrSurfaceLost     = fmt.Errorf("%w: surface lost", media.ErrSurfaceAcquire)
	ErrSurfaceOutdated = fmt.Errorf("%w: surface outdated", media.ErrSurfaceAcquire)
	ErrSurfaceTimeout  = fmt.Errorf("%w: surface timeout", media.ErrSurfaceAcquire)
)

// TextureFormat is the texel layout of a texture.
type TextureFormat int

// Texture formats in use.
const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatR8Unorm
	TextureFormatRGBA8Unorm
	TextureFormatRGBA8UnormSrgb
	TextureFormatBGRA8Unorm
)

// BytesPerPixel returns the texel size of f.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatR8Unorm:
		return 1
	case TextureFormatRGBA8Unorm, TextureFormatRGBA8UnormSrgb, TextureFormatBGRA8Unorm:
		return 4
	}
	return 0
}

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatR8Unorm:
		return "r8unorm"
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	case TextureFormatRGBA8UnormSrgb:
		return "rgba8unorm-srgb"
	case TextureFormatBGRA8Unorm:
		return "bgra8unorm"
	}
	return "undefined"
}

// TextureUsage is a set of permitted texture operations.
type TextureUsage uint32

// Texture usage flags.
const (
	TextureUsageCopySrc TextureUsage = 1 << iota
	TextureUsageCopyDst
	TextureUsageTextureBinding
	TextureUsageStorageBinding
	TextureUsageRenderAttachment
)

// Has reports whether every flag in f is set in u.
func (u TextureUsage) Has(f TextureUsage) bool {
	return u&f == f
}

// BufferUsage is a set of permitted buffer operations.
type BufferUsage uint32

// Buffer usage flags.
const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageCopyDst
)

// FilterMode selects texel filtering.
type FilterMode int

// Filter modes.
const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// AddressMode selects how out-of-range coordinates are resolved.
type AddressMode int

// Address modes.
const (
	AddressClampToEdge AddressMode = iota
	AddressRepeat
)

// IndexFormat is the element type of an index buffer.
type IndexFormat int

// Index formats.
const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

// VertexFormat is the type of one vertex attribute.
type VertexFormat int

// Vertex formats.
const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
)

// BindingType is the kind of resource a bind group slot holds.
type BindingType int

// Binding types.
const (
	BindingTexture BindingType = iota
	BindingSampler
	BindingUniform
)

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Black is opaque black.
var Black = Color{A: 1}

// TextureDescriptor describes a 2D texture with one mip level.
type TextureDescriptor struct {
	Label  string
	Format TextureFormat
	Usage  TextureUsage
	Width  int
	Height int
}

// Texture is a GPU-resident image.
type Texture interface {
	Label() string
	Format() TextureFormat
	Usage() TextureUsage
	Width() int
	Height() int
	Destroy()
}

// SamplerDescriptor describes texture sampling.
type SamplerDescriptor struct {
	Label       string
	AddressMode AddressMode
	MagFilter   FilterMode
	MinFilter   FilterMode
}

// Sampler is an immutable sampling state object.
type Sampler interface {
	Label() string
}

// BufferDescriptor describes a buffer. Contents, when set, initializes the
// buffer and fixes its size.
type BufferDescriptor struct {
	Label    string
	Usage    BufferUsage
	Size     int
	Contents []byte
}

// Buffer is GPU memory holding vertices, indices or uniforms.
type Buffer interface {
	Label() string
	Size() int
	Destroy()
}

// ShaderModuleDescriptor carries WGSL source code.
type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// ShaderModule is a compiled shader program.
type ShaderModule interface {
	Label() string
}

// BindGroupLayoutEntry declares one binding slot.
type BindGroupLayoutEntry struct {
	Binding int
	Type    BindingType
}

// BindGroupLayoutDescriptor describes the slots of a bind group.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupLayout is the shape of a bind group expected by a pipeline.
type BindGroupLayout interface {
	Label() string
}

// BindGroupEntry fills one slot. Exactly one of the resource fields is set.
type BindGroupEntry struct {
	Binding int
	Texture Texture
	Sampler Sampler
	Buffer  Buffer
}

// BindGroupDescriptor describes a set of resources matching a layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// BindGroup binds concrete resources to a pipeline's slots.
type BindGroup interface {
	Label() string
}

// VertexAttribute locates one attribute within a vertex.
type VertexAttribute struct {
	Offset         int
	ShaderLocation int
	Format         VertexFormat
}

// VertexBufferLayout describes the vertices of one vertex buffer slot.
type VertexBufferLayout struct {
	ArrayStride int
	Attributes  []VertexAttribute
}

// RenderPipelineDescriptor describes a triangle-list pipeline with one bind
// group, one vertex buffer and one color target using replace blending.
type RenderPipelineDescriptor struct {
	Label         string
	Layout        BindGroupLayout
	Module        ShaderModule
	VertexEntry   string
	FragmentEntry string
	Buffers       []VertexBufferLayout
	TargetFormat  TextureFormat
}

// RenderPipeline is compiled render state.
type RenderPipeline interface {
	Label() string
}

// RenderPassDescriptor describes a pass with one color attachment that is
// cleared to Clear and stored.
type RenderPassDescriptor struct {
	Label  string
	Target Texture
	Clear  Color
}

// RenderPassEncoder records draw commands into a pass.
type RenderPassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index int, g BindGroup)
	SetVertexBuffer(slot int, b Buffer)
	SetIndexBuffer(b Buffer, format IndexFormat)
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
	DrawIndexed(indexCount, instanceCount int)
	End()
}

// CommandBuffer is a finished, submittable recording.
type CommandBuffer interface{}

// CommandEncoder records render passes.
type CommandEncoder interface {
	BeginRenderPass(desc RenderPassDescriptor) RenderPassEncoder
	Finish() (CommandBuffer, error)
}

// Queue executes uploads and command buffers in submission order.
type Queue interface {
	WriteTexture(dst Texture, data []byte, bytesPerRow, width, height int) error
	WriteBuffer(dst Buffer, offset int, data []byte) error
	Submit(cmds ...CommandBuffer) error
}

// Device creates GPU objects.
type Device interface {
	CreateTexture(desc TextureDescriptor) (Texture, error)
	CreateSampler(desc SamplerDescriptor) (Sampler, error)
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModule, error)
	CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)
	CreateCommandEncoder(label string) CommandEncoder
	Queue() Queue
	Destroy()
}

// SurfaceConfiguration sets the size and format of presented images.
type SurfaceConfiguration struct {
	Format TextureFormat
	Usage  TextureUsage
	Width  int
	Height int
}

// Surface is the presentation target of a window.
type Surface interface {
	Configure(dev Device, cfg SurfaceConfiguration) error
	CurrentTexture() (SurfaceTexture, error)
}

// SurfaceTexture is one acquired presentation image.
type SurfaceTexture interface {
	Texture() Texture
	Present() error
}

// Instance selects an adapter compatible with a surface and opens a device
// on it.
type Instance interface {
	RequestDevice(surface Surface) (Device, error)
}
