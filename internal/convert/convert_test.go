package convert

import (
	"errors"
	"image/color"
	"testing"

	"github.com/zsiec/reel/internal/media"
)

const tolerance = 2

var solidColors = map[string]color.RGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"red":   {255, 0, 0, 255},
	"green": {0, 255, 0, 255},
	"blue":  {0, 0, 255, 255},
	"gray":  {128, 128, 128, 255},
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -tolerance && d <= tolerance
}

func checkSolid(t *testing.T, pix []byte, stride, w, h int, want color.RGBA) {
	t.Helper()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := pix[y*stride+x*4:]
			if !near(p[0], want.R) || !near(p[1], want.G) || !near(p[2], want.B) || p[3] != 255 {
				t.Fatalf("pixel (%d,%d): got %v, want %v ± %d", x, y, p[:4], want, tolerance)
			}
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format media.PixelFormat
		want   Kind
	}{
		{media.PixelFormatRGBA, Presentable},
		{media.PixelFormatYUV420P, Planar},
		{media.PixelFormatYUVJ444P, Planar},
		{media.PixelFormatYUV410P, Planar},
		{media.PixelFormatGray8, Unsupported},
		{media.PixelFormatNV12, Unsupported},
		{media.PixelFormatNone, Unsupported},
	}
	for _, tt := range tests {
		got, err := Classify(tt.format)
		if got != tt.want {
			t.Errorf("Classify(%s): got %s, want %s", tt.format, got, tt.want)
		}
		if (tt.want == Unsupported) != errors.Is(err, media.ErrUnsupportedPixelFormat) {
			t.Errorf("Classify(%s): error %v", tt.format, err)
		}
	}
}

func TestCPUConvertsEveryPlanarFormat(t *testing.T) {
	t.Parallel()

	for _, format := range media.PlanarFormats() {
		for name, c := range solidColors {
			t.Run(format.String()+"/"+name, func(t *testing.T) {
				t.Parallel()

				src, err := SolidFrame(format, 17, 9, c)
				if err != nil {
					t.Fatalf("SolidFrame: %v", err)
				}
				src.PTS = 42
				out, err := CPU{}.Convert(src)
				if err != nil {
					t.Fatalf("Convert: %v", err)
				}
				if out.Format != media.PixelFormatRGBA {
					t.Fatalf("format: got %s, want rgba", out.Format)
				}
				if out.Width != 17 || out.Height != 9 {
					t.Fatalf("size: got %dx%d, want 17x9", out.Width, out.Height)
				}
				if out.PTS != 42 {
					t.Errorf("pts: got %d, want 42", out.PTS)
				}
				checkSolid(t, out.Planes[0].Data, out.Planes[0].Stride, 17, 9, c)
			})
		}
	}
}

func TestCPUBlue420(t *testing.T) {
	t.Parallel()

	src, err := SolidFrame(media.PixelFormatYUV420P, 64, 64, color.RGBA{0, 0, 255, 255})
	if err != nil {
		t.Fatal(err)
	}
	out, err := CPU{}.Convert(src)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	checkSolid(t, out.Planes[0].Data, out.Planes[0].Stride, 64, 64, color.RGBA{0, 0, 255, 255})
}

func TestCPUPaddedStrides(t *testing.T) {
	t.Parallel()

	src, err := SolidFrame(media.PixelFormatYUVJ420P, 6, 4, color.RGBA{255, 0, 0, 255})
	if err != nil {
		t.Fatal(err)
	}
	// Re-lay the planes with row padding and distinct chroma strides.
	for i, extra := range []int{10, 3, 7} {
		w, h := src.PlaneSize(i)
		stride := w + extra
		data := make([]byte, stride*h)
		for y := 0; y < h; y++ {
			copy(data[y*stride:y*stride+w], src.Planes[i].Data[y*src.Planes[i].Stride:])
		}
		src.Planes[i] = media.Plane{Stride: stride, Data: data}
	}
	out, err := CPU{}.Convert(src)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	checkSolid(t, out.Planes[0].Data, out.Planes[0].Stride, 6, 4, color.RGBA{255, 0, 0, 255})
}

func TestCPUPassesRGBAThrough(t *testing.T) {
	t.Parallel()

	src, err := SolidFrame(media.PixelFormatRGBA, 4, 4, color.RGBA{1, 2, 3, 255})
	if err != nil {
		t.Fatal(err)
	}
	out, err := CPU{}.Convert(src)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if out != src {
		t.Error("RGBA frame was copied")
	}
}

func TestCPURejectsUnsupported(t *testing.T) {
	t.Parallel()

	for _, format := range []media.PixelFormat{media.PixelFormatGray8, media.PixelFormatNV12} {
		_, err := CPU{}.Convert(&media.Frame{Format: format, Width: 2, Height: 2})
		if !errors.Is(err, media.ErrUnsupportedPixelFormat) {
			t.Errorf("%s: got %v, want ErrUnsupportedPixelFormat", format, err)
		}
	}
}

func TestCPURejectsShortPlane(t *testing.T) {
	t.Parallel()

	src, err := SolidFrame(media.PixelFormatYUV420P, 8, 8, color.RGBA{A: 255})
	if err != nil {
		t.Fatal(err)
	}
	src.Planes[2].Data = src.Planes[2].Data[:3]
	if _, err := (CPU{}).Convert(src); err == nil {
		t.Error("short plane converted")
	}
}

func TestRGBToYUV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c         color.RGBA
		full      bool
		y, cb, cr uint8
	}{
		{color.RGBA{0, 0, 0, 255}, false, 16, 128, 128},
		{color.RGBA{255, 255, 255, 255}, false, 235, 128, 128},
		{color.RGBA{0, 0, 0, 255}, true, 0, 128, 128},
		{color.RGBA{255, 255, 255, 255}, true, 255, 128, 128},
		{color.RGBA{0, 0, 255, 255}, false, 41, 240, 110},
	}
	for _, tt := range tests {
		y, cb, cr := RGBToYUV(tt.c, tt.full)
		if y != tt.y || cb != tt.cb || cr != tt.cr {
			t.Errorf("RGBToYUV(%v, %v): got (%d,%d,%d), want (%d,%d,%d)", tt.c, tt.full, y, cb, cr, tt.y, tt.cb, tt.cr)
		}
	}
}
