package soft

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/zsiec/reel/internal/gpu"
)

// Queue executes uploads and command buffers synchronously.
type Queue struct {
	dev *Device
}

// WriteTexture implements gpu.Queue.
func (q *Queue) WriteTexture(dst gpu.Texture, data []byte, bytesPerRow, width, height int) error {
	if err := q.dev.alive(); err != nil {
		return err
	}
	t, err := q.texture(dst)
	if err != nil {
		return err
	}
	if !t.desc.Usage.Has(gpu.TextureUsageCopyDst) {
		return fmt.Errorf("soft: texture %q lacks copy-dst usage", t.desc.Label)
	}
	if width != t.desc.Width || height != t.desc.Height {
		return fmt.Errorf("soft: write %dx%d into %dx%d texture %q", width, height, t.desc.Width, t.desc.Height, t.desc.Label)
	}
	row := width * t.desc.Format.BytesPerPixel()
	if bytesPerRow < row {
		return fmt.Errorf("soft: row pitch %d below row size %d", bytesPerRow, row)
	}
	if need := bytesPerRow*(height-1) + row; len(data) < need {
		return fmt.Errorf("soft: write needs %d bytes, have %d", need, len(data))
	}
	for y := 0; y < height; y++ {
		copy(t.pix[y*t.stride:y*t.stride+row], data[y*bytesPerRow:])
	}
	q.dev.count(func(s *Stats) { s.Uploads++ })
	return nil
}

// WriteBuffer implements gpu.Queue.
func (q *Queue) WriteBuffer(dst gpu.Buffer, offset int, data []byte) error {
	b, ok := dst.(*buffer)
	if !ok {
		return errors.New("soft: foreign buffer")
	}
	if b.destroyed {
		return fmt.Errorf("soft: buffer %q destroyed", b.desc.Label)
	}
	if offset < 0 || offset+len(data) > len(b.data) {
		return fmt.Errorf("soft: write of %d bytes at %d overflows buffer %q", len(data), offset, b.desc.Label)
	}
	copy(b.data[offset:], data)
	return nil
}

// Submit implements gpu.Queue. Each command buffer may be submitted once.
func (q *Queue) Submit(cmds ...gpu.CommandBuffer) error {
	if err := q.dev.alive(); err != nil {
		return err
	}
	for _, c := range cmds {
		cb, ok := c.(*commandBuffer)
		if !ok {
			return errors.New("soft: foreign command buffer")
		}
		if cb.submitted {
			return fmt.Errorf("soft: command buffer %q already submitted", cb.label)
		}
		cb.submitted = true
		for _, p := range cb.passes {
			if err := q.execute(p); err != nil {
				return err
			}
		}
		q.dev.count(func(s *Stats) { s.Submits++ })
	}
	return nil
}

func (q *Queue) texture(t gpu.Texture) (*Texture, error) {
	st, ok := t.(*Texture)
	if !ok {
		return nil, errors.New("soft: foreign texture")
	}
	if st.destroyed {
		return nil, fmt.Errorf("soft: texture %q destroyed", st.desc.Label)
	}
	return st, nil
}

func (q *Queue) execute(p *renderPass) error {
	target, err := q.texture(p.desc.Target)
	if err != nil {
		return err
	}
	if !target.desc.Usage.Has(gpu.TextureUsageRenderAttachment) {
		return fmt.Errorf("soft: texture %q lacks render-attachment usage", target.desc.Label)
	}
	c := p.desc.Clear
	bg := [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
	bpp := target.desc.Format.BytesPerPixel()
	for i := 0; i < len(target.pix); i += bpp {
		store(target, i, bg)
	}
	for _, d := range p.draws {
		if err := q.draw(target, d); err != nil {
			return fmt.Errorf("soft: pass %q: %w", p.desc.Label, err)
		}
	}
	q.dev.count(func(s *Stats) { s.Draws += len(p.draws) })
	return nil
}

type vertex struct {
	x, y float32
	u, v float32
}

func (q *Queue) draw(target *Texture, d drawCall) error {
	if d.pipeline.desc.TargetFormat != target.desc.Format {
		return fmt.Errorf("pipeline %q targets %s, pass target is %s",
			d.pipeline.desc.Label, d.pipeline.desc.TargetFormat, target.desc.Format)
	}
	for _, e := range d.group.entries {
		if t, ok := e.Texture.(*Texture); ok && t.destroyed {
			return fmt.Errorf("bound texture %q destroyed", t.desc.Label)
		}
	}

	vp := d.viewport
	if !vp.set {
		vp = viewport{w: float32(target.desc.Width), h: float32(target.desc.Height)}
	}

	idx, err := readIndices(d.indices, d.format, d.count)
	if err != nil {
		return err
	}
	stride := d.pipeline.desc.Buffers[0].ArrayStride
	verts := make([]vertex, 0, len(idx))
	for _, i := range idx {
		off := int(i) * stride
		if off+d.pipeline.pos+12 > len(d.vertices.data) || off+d.pipeline.uv+8 > len(d.vertices.data) {
			return fmt.Errorf("vertex %d out of range", i)
		}
		x, y := f32(d.vertices.data, off+d.pipeline.pos), f32(d.vertices.data, off+d.pipeline.pos+4)
		verts = append(verts, vertex{
			x: vp.x + (x+1)*0.5*vp.w,
			y: vp.y + (1-y)*0.5*vp.h,
			u: f32(d.vertices.data, off+d.pipeline.uv),
			v: f32(d.vertices.data, off+d.pipeline.uv+4),
		})
	}

	in := &Bindings{group: d.group}
	for t := 0; t+2 < len(verts); t += 3 {
		rasterize(target, vp, verts[t], verts[t+1], verts[t+2], func(u, v float32) [4]float32 {
			return d.pipeline.program(in, u, v)
		})
	}
	return nil
}

func readIndices(b *buffer, format gpu.IndexFormat, count int) ([]uint32, error) {
	size := 2
	if format == gpu.IndexFormatUint32 {
		size = 4
	}
	if count*size > len(b.data) {
		return nil, fmt.Errorf("%d indices overflow index buffer %q", count, b.desc.Label)
	}
	out := make([]uint32, count)
	for i := range out {
		if size == 2 {
			out[i] = uint32(binary.LittleEndian.Uint16(b.data[i*2:]))
		} else {
			out[i] = binary.LittleEndian.Uint32(b.data[i*4:])
		}
	}
	return out, nil
}

func f32(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func edge(a, b vertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// rasterize fills the pixels whose centers lie inside triangle abc and inside
// the viewport, interpolating texture coordinates across the triangle.
func rasterize(t *Texture, vp viewport, a, b, c vertex, shade func(u, v float32) [4]float32) {
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return
	}
	minX := max(0, int(math.Floor(float64(min(a.x, b.x, c.x)))))
	maxX := min(t.desc.Width, int(math.Ceil(float64(max(a.x, b.x, c.x)))))
	minY := max(0, int(math.Floor(float64(min(a.y, b.y, c.y)))))
	maxY := min(t.desc.Height, int(math.Ceil(float64(max(a.y, b.y, c.y)))))
	bpp := t.desc.Format.BytesPerPixel()

	for py := minY; py < maxY; py++ {
		cy := float32(py) + 0.5
		if cy < vp.y || cy >= vp.y+vp.h {
			continue
		}
		for px := minX; px < maxX; px++ {
			cx := float32(px) + 0.5
			if cx < vp.x || cx >= vp.x+vp.w {
				continue
			}
			w0, w1, w2 := edge(b, c, cx, cy), edge(c, a, cx, cy), edge(a, b, cx, cy)
			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			sum := w0 + w1 + w2
			u := (w0*a.u + w1*b.u + w2*c.u) / sum
			v := (w0*a.v + w1*b.v + w2*c.v) / sum
			store(t, py*t.stride+px*bpp, shade(u, v))
		}
	}
}

func store(t *Texture, off int, c [4]float32) {
	switch t.desc.Format {
	case gpu.TextureFormatR8Unorm:
		t.pix[off] = unorm8(c[0])
	case gpu.TextureFormatBGRA8Unorm:
		t.pix[off], t.pix[off+1], t.pix[off+2], t.pix[off+3] = unorm8(c[2]), unorm8(c[1]), unorm8(c[0]), unorm8(c[3])
	default:
		t.pix[off], t.pix[off+1], t.pix[off+2], t.pix[off+3] = unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3])
	}
}

func unorm8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
