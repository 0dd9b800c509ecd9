// Package media defines the packet and frame types that flow through the reel
// delivery pipeline, from the media source through conversion to presentation.
package media

import "fmt"

// Queue capacities between pipeline stages. The packet queue absorbs source
// read jitter; frame queues hold exactly one frame so that decode and convert
// throttle to the presenter's pace instead of buffering decoded images.
const (
	PacketQueueSize = 32
	FrameQueueSize  = 1
)

// MaxDimension is the largest frame width or height accepted anywhere in
// the pipeline. It keeps plane sizes well inside int range.
const MaxDimension = 16384

// Packet is one compressed unit read from a source, tagged with the index of
// the stream it belongs to. It is consumed exactly once by a decoder.
type Packet struct {
	StreamIndex int
	PTS         int64
	Data        []byte
}

// Plane is one rectangular byte buffer of a frame.
type Plane struct {
	Stride int
	Data   []byte
}

// Frame is one decoded image. Packed formats carry a single plane, planar YUV
// formats carry luma followed by the two chroma planes.
type Frame struct {
	Format PixelFormat
	Width  int
	Height int
	Planes []Plane
	PTS    int64
}

// NewFrame allocates a frame with tightly packed planes for format.
func NewFrame(format PixelFormat, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("media: invalid frame size %dx%d", width, height)
	}
	n := format.PlaneCount()
	if n == 0 {
		return nil, &UnsupportedPixelFormatError{Format: format}
	}
	f := &Frame{
		Format: format,
		Width:  width,
		Height: height,
		Planes: make([]Plane, n),
	}
	for i := range f.Planes {
		w, h := f.PlaneSize(i)
		stride := w * format.BytesPerPixel()
		f.Planes[i] = Plane{Stride: stride, Data: make([]byte, stride*h)}
	}
	return f, nil
}

// Empty reports whether the frame has no pixels. Decoders emit such frames
// while flushing and they are never forwarded.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0
}

// PlaneSize returns the width and height in pixels of plane i. Chroma plane
// sizes round up, so odd luma sizes keep their last chroma column and row.
func (f *Frame) PlaneSize(i int) (width, height int) {
	if i == 0 {
		return f.Width, f.Height
	}
	c, ok := f.Format.Chroma()
	if !ok {
		return f.Width, f.Height
	}
	return ceilDiv(f.Width, c.HDiv), ceilDiv(f.Height, c.VDiv)
}

// Validate checks the frame against the plane layout its format requires.
func (f *Frame) Validate() error {
	if f.Empty() {
		return fmt.Errorf("media: empty frame")
	}
	n := f.Format.PlaneCount()
	if n == 0 {
		return &UnsupportedPixelFormatError{Format: f.Format}
	}
	if len(f.Planes) < n {
		return fmt.Errorf("media: %s frame has %d planes, want %d", f.Format, len(f.Planes), n)
	}
	bpp := f.Format.BytesPerPixel()
	for i := 0; i < n; i++ {
		w, h := f.PlaneSize(i)
		p := f.Planes[i]
		if p.Stride < w*bpp {
			return fmt.Errorf("media: plane %d stride %d shorter than row (%d bytes)", i, p.Stride, w*bpp)
		}
		if need := p.Stride*(h-1) + w*bpp; len(p.Data) < need {
			return fmt.Errorf("media: plane %d has %d bytes, need %d", i, len(p.Data), need)
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
