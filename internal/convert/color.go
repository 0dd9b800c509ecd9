package convert

import (
	"image/color"
	"math"

	"github.com/zsiec/reel/internal/media"
)

// BT.601 studio range bounds.
const (
	lumaMin    = 16
	lumaRange  = 219
	chromaSpan = 224
)

// lumaToFull and chromaToFull expand BT.601 studio range samples to the full
// 0-255 range, after which the JFIF equations apply unchanged.
var (
	lumaToFull   [256]uint8
	chromaToFull [256]uint8
	identity     [256]uint8
)

func init() {
	for v := 0; v < 256; v++ {
		lumaToFull[v] = clamp8(float64(v-lumaMin) * 255 / lumaRange)
		chromaToFull[v] = clamp8(float64(v-128)*255/chromaSpan + 128)
		identity[v] = uint8(v)
	}
}

// RGBToYUV converts an sRGB color to BT.601 Y, Cb, Cr samples in full or
// studio range.
func RGBToYUV(c color.RGBA, fullRange bool) (y, cb, cr uint8) {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	yf := 0.299*r + 0.587*g + 0.114*b
	cbf := -0.168736*r - 0.331264*g + 0.5*b
	crf := 0.5*r - 0.418688*g - 0.081312*b
	if fullRange {
		return clamp8(yf), clamp8(cbf + 128), clamp8(crf + 128)
	}
	return clamp8(lumaMin + yf*lumaRange/255),
		clamp8(128 + cbf*chromaSpan/255),
		clamp8(128 + crf*chromaSpan/255)
}

// SolidFrame allocates a frame of format filled with c. Packed RGBA frames are
// filled directly; planar frames get the BT.601 encoding of c.
func SolidFrame(format media.PixelFormat, width, height int, c color.RGBA) (*media.Frame, error) {
	f, err := media.NewFrame(format, width, height)
	if err != nil {
		return nil, err
	}
	if format == media.PixelFormatRGBA {
		px := f.Planes[0].Data
		for i := 0; i+3 < len(px); i += 4 {
			px[i], px[i+1], px[i+2], px[i+3] = c.R, c.G, c.B, c.A
		}
		return f, nil
	}
	y, cb, cr := RGBToYUV(c, format.FullRange())
	fill(f.Planes[0].Data, y)
	if len(f.Planes) == 3 {
		fill(f.Planes[1].Data, cb)
		fill(f.Planes[2].Data, cr)
	}
	return f, nil
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
