package soft

import (
	"encoding/binary"
	"math"

	"github.com/zsiec/reel/internal/gpu"
)

// Program is a fragment stage: it returns the RGBA color of the fragment at
// the interpolated texture coordinate (u, v).
type Program func(in *Bindings, u, v float32) [4]float32

// Bindings resolves the resources of the bound group for a Program.
type Bindings struct {
	group *bindGroup
}

// Sample filters the texture at binding tex with the sampler at binding smp.
// Single-channel textures return (r, 0, 0, 1).
func (b *Bindings) Sample(tex, smp int, u, v float32) [4]float32 {
	t, _ := b.group.entries[tex].Texture.(*Texture)
	s, _ := b.group.entries[smp].Sampler.(*sampler)
	if t == nil || s == nil || t.destroyed {
		return [4]float32{0, 0, 0, 1}
	}
	w, h := t.desc.Width, t.desc.Height
	if s.desc.MagFilter == gpu.FilterNearest {
		x := address(int(math.Floor(float64(u)*float64(w))), w, s.desc.AddressMode)
		y := address(int(math.Floor(float64(v)*float64(h))), h, s.desc.AddressMode)
		return texel(t, x, y)
	}

	fx := float64(u)*float64(w) - 0.5
	fy := float64(v)*float64(h) - 0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	ax, ay := float32(fx-x0), float32(fy-y0)
	ix0 := address(int(x0), w, s.desc.AddressMode)
	ix1 := address(int(x0)+1, w, s.desc.AddressMode)
	iy0 := address(int(y0), h, s.desc.AddressMode)
	iy1 := address(int(y0)+1, h, s.desc.AddressMode)

	c00, c10 := texel(t, ix0, iy0), texel(t, ix1, iy0)
	c01, c11 := texel(t, ix0, iy1), texel(t, ix1, iy1)
	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*ax
		bottom := c01[i] + (c11[i]-c01[i])*ax
		out[i] = top + (bottom-top)*ay
	}
	return out
}

// Uniform returns the contents of the buffer at binding, or nil.
func (b *Bindings) Uniform(binding int) []byte {
	buf, _ := b.group.entries[binding].Buffer.(*buffer)
	if buf == nil {
		return nil
	}
	return buf.data
}

func address(i, n int, mode gpu.AddressMode) int {
	if mode == gpu.AddressRepeat {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return min(max(i, 0), n-1)
}

func texel(t *Texture, x, y int) [4]float32 {
	const k = 1.0 / 255
	switch t.desc.Format {
	case gpu.TextureFormatR8Unorm:
		return [4]float32{float32(t.pix[y*t.stride+x]) * k, 0, 0, 1}
	case gpu.TextureFormatBGRA8Unorm:
		p := t.pix[y*t.stride+x*4:]
		return [4]float32{float32(p[2]) * k, float32(p[1]) * k, float32(p[0]) * k, float32(p[3]) * k}
	}
	p := t.pix[y*t.stride+x*4:]
	return [4]float32{float32(p[0]) * k, float32(p[1]) * k, float32(p[2]) * k, float32(p[3]) * k}
}

func builtinPrograms() map[string]Program {
	return map[string]Program{
		gpu.ShaderPresent:   present,
		gpu.ShaderYUVToRGBA: yuvToRGBA,
	}
}

func present(in *Bindings, u, v float32) [4]float32 {
	return in.Sample(gpu.PresentBindingTexture, gpu.PresentBindingSampler, u, v)
}

func yuvToRGBA(in *Bindings, u, v float32) [4]float32 {
	y := in.Sample(gpu.YUVBindingY, gpu.YUVBindingSampler, u, v)[0]
	cb := in.Sample(gpu.YUVBindingU, gpu.YUVBindingSampler, u, v)[0] - 0.5
	cr := in.Sample(gpu.YUVBindingV, gpu.YUVBindingSampler, u, v)[0] - 0.5

	params := in.Uniform(gpu.YUVBindingParams)
	if len(params) < 4 || binary.LittleEndian.Uint32(params) == 0 {
		y = (y - 16.0/255) * (255.0 / 219)
		cb *= 255.0 / 224
		cr *= 255.0 / 224
	}
	return [4]float32{
		y + 1.402*cr,
		y - 0.344136*cb - 0.714136*cr,
		y + 1.772*cb,
		1,
	}
}
