package convert

import (
	"errors"
	"image/color"
	"testing"

	"github.com/zsiec/reel/internal/gpu"
	"github.com/zsiec/reel/internal/gpu/soft"
	"github.com/zsiec/reel/internal/media"
)

func newGPUConverter(t *testing.T) (*GPU, *gpu.Context, *soft.Device) {
	t.Helper()
	ctx, err := gpu.NewContext(soft.Instance{}, soft.NewSurface(), nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	g, err := NewGPU(ctx, nil)
	if err != nil {
		t.Fatalf("NewGPU: %v", err)
	}
	t.Cleanup(g.Close)
	return g, ctx, ctx.Device.(*soft.Device)
}

func target(t *testing.T, ctx *gpu.Context, w, h int) *soft.Texture {
	t.Helper()
	tex, err := ctx.Device.CreateTexture(gpu.TextureDescriptor{
		Label:  "target",
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  TargetUsage,
		Width:  w,
		Height: h,
	})
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	return tex.(*soft.Texture)
}

func TestGPUBlue420(t *testing.T) {
	t.Parallel()

	g, ctx, _ := newGPUConverter(t)
	src, err := SolidFrame(media.PixelFormatYUV420P, 64, 64, color.RGBA{0, 0, 255, 255})
	if err != nil {
		t.Fatal(err)
	}
	dst := target(t, ctx, 64, 64)
	if err := g.Convert(src, dst); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	img := dst.Image()
	checkSolid(t, img.Pix, img.Stride, 64, 64, color.RGBA{0, 0, 255, 255})
}

func TestGPUConvertsEveryPlanarFormat(t *testing.T) {
	t.Parallel()

	g, ctx, _ := newGPUConverter(t)
	for _, format := range media.PlanarFormats() {
		for name, c := range solidColors {
			src, err := SolidFrame(format, 12, 8, c)
			if err != nil {
				t.Fatalf("%s/%s: %v", format, name, err)
			}
			dst := target(t, ctx, 12, 8)
			if err := g.Convert(src, dst); err != nil {
				t.Fatalf("%s/%s: Convert: %v", format, name, err)
			}
			img := dst.Image()
			checkSolid(t, img.Pix, img.Stride, 12, 8, c)
			dst.Destroy()
		}
	}
}

func TestGPUReusesPlaneTextures(t *testing.T) {
	t.Parallel()

	g, ctx, dev := newGPUConverter(t)
	dst := target(t, ctx, 32, 32)
	before := dev.Stats().TexturesCreated

	for i := 0; i < 5; i++ {
		src, _ := SolidFrame(media.PixelFormatYUV420P, 32, 32, color.RGBA{A: 255})
		if err := g.Convert(src, dst); err != nil {
			t.Fatalf("Convert: %v", err)
		}
	}
	if got := dev.Stats().TexturesCreated - before; got != 3 {
		t.Errorf("plane textures created: got %d, want 3", got)
	}

	dst2 := target(t, ctx, 16, 16)
	src, _ := SolidFrame(media.PixelFormatYUV420P, 16, 16, color.RGBA{A: 255})
	if err := g.Convert(src, dst2); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	s := dev.Stats()
	if got := s.TexturesCreated - before; got != 1+3+3 {
		t.Errorf("textures created after resize: got %d, want 7", got)
	}
	if s.TexturesDestroyed != 3 {
		t.Errorf("plane textures destroyed: got %d, want 3", s.TexturesDestroyed)
	}
}

func TestGPUUploadsRGBA(t *testing.T) {
	t.Parallel()

	g, ctx, _ := newGPUConverter(t)
	src, _ := SolidFrame(media.PixelFormatRGBA, 3, 2, color.RGBA{9, 8, 7, 255})
	dst := target(t, ctx, 3, 2)
	if err := g.Convert(src, dst); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if c := dst.Image().RGBAAt(2, 1); c != (color.RGBA{9, 8, 7, 255}) {
		t.Errorf("got %v, want {9 8 7 255}", c)
	}
}

func TestGPURejectsUnsupported(t *testing.T) {
	t.Parallel()

	g, ctx, _ := newGPUConverter(t)
	dst := target(t, ctx, 2, 2)
	err := g.Convert(&media.Frame{Format: media.PixelFormatNV12, Width: 2, Height: 2}, dst)
	if !errors.Is(err, media.ErrUnsupportedPixelFormat) {
		t.Errorf("got %v, want ErrUnsupportedPixelFormat", err)
	}
}

func TestGPURejectsSizeMismatch(t *testing.T) {
	t.Parallel()

	g, ctx, _ := newGPUConverter(t)
	src, _ := SolidFrame(media.PixelFormatYUV444P, 4, 4, color.RGBA{A: 255})
	if err := g.Convert(src, target(t, ctx, 8, 4)); err == nil {
		t.Error("mismatched target accepted")
	}
}

func TestNewContextWrapsDeviceError(t *testing.T) {
	t.Parallel()

	_, err := gpu.NewContext(soft.Instance{Fail: errors.New("no adapter")}, soft.NewSurface(), nil)
	if !errors.Is(err, media.ErrGPUDevice) {
		t.Errorf("got %v, want ErrGPUDevice", err)
	}
}
