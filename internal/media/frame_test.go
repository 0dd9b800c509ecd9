package media

import (
	"errors"
	"testing"
)

func TestNewFramePlaneSizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format       PixelFormat
		width        int
		height       int
		chromaWidth  int
		chromaHeight int
	}{
		{PixelFormatYUV420P, 64, 48, 32, 24},
		{PixelFormatYUV420P, 65, 49, 33, 25},
		{PixelFormatYUV422P, 64, 48, 32, 48},
		{PixelFormatYUV440P, 64, 48, 64, 24},
		{PixelFormatYUV444P, 64, 48, 64, 48},
		{PixelFormatYUV411P, 64, 48, 16, 48},
		{PixelFormatYUV410P, 64, 48, 16, 24},
		{PixelFormatYUV410P, 66, 47, 17, 24},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			f, err := NewFrame(tt.format, tt.width, tt.height)
			if err != nil {
				t.Fatalf("NewFrame: %v", err)
			}
			if len(f.Planes) != 3 {
				t.Fatalf("planes: got %d, want 3", len(f.Planes))
			}
			for i := 1; i < 3; i++ {
				w, h := f.PlaneSize(i)
				if w != tt.chromaWidth || h != tt.chromaHeight {
					t.Errorf("plane %d: got %dx%d, want %dx%d", i, w, h, tt.chromaWidth, tt.chromaHeight)
				}
				if got := len(f.Planes[i].Data); got != w*h {
					t.Errorf("plane %d bytes: got %d, want %d", i, got, w*h)
				}
			}
			if err := f.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestNewFrameRGBA(t *testing.T) {
	t.Parallel()

	f, err := NewFrame(PixelFormatRGBA, 10, 4)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if len(f.Planes) != 1 {
		t.Fatalf("planes: got %d, want 1", len(f.Planes))
	}
	if f.Planes[0].Stride != 40 {
		t.Errorf("stride: got %d, want 40", f.Planes[0].Stride)
	}
}

func TestNewFrameRejectsInvalid(t *testing.T) {
	t.Parallel()

	if _, err := NewFrame(PixelFormatYUV420P, 0, 10); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := NewFrame(PixelFormatYUV420P, 16, MaxDimension+1); err == nil {
		t.Error("expected error for height beyond MaxDimension")
	}
	_, err := NewFrame(PixelFormatNV12, 16, 16)
	if !errors.Is(err, ErrUnsupportedPixelFormat) {
		t.Errorf("NV12: got %v, want ErrUnsupportedPixelFormat", err)
	}
}

func TestValidateShortPlane(t *testing.T) {
	t.Parallel()

	f, _ := NewFrame(PixelFormatYUV420P, 16, 16)
	f.Planes[2].Data = f.Planes[2].Data[:10]
	if err := f.Validate(); err == nil {
		t.Error("expected error for truncated chroma plane")
	}

	f.Planes = f.Planes[:2]
	if err := f.Validate(); err == nil {
		t.Error("expected error for missing plane")
	}
}

func TestEmptyFrame(t *testing.T) {
	t.Parallel()

	var nilFrame *Frame
	if !nilFrame.Empty() {
		t.Error("nil frame should be empty")
	}
	if !(&Frame{Format: PixelFormatRGBA}).Empty() {
		t.Error("zero-size frame should be empty")
	}
}

func TestParsePixelFormat(t *testing.T) {
	t.Parallel()

	for _, f := range append(PlanarFormats(), PixelFormatRGBA) {
		got, err := ParsePixelFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParsePixelFormat(%q): got %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParsePixelFormat("yuv999p"); err == nil {
		t.Error("expected error for unknown name")
	}
}

func TestPlanarFormat(t *testing.T) {
	t.Parallel()

	f, ok := PlanarFormat(ChromaLayout{2, 2}, true)
	if !ok || f != PixelFormatYUVJ420P {
		t.Errorf("got %v %v, want yuvj420p", f, ok)
	}
	if _, ok := PlanarFormat(ChromaLayout{4, 2}, true); ok {
		t.Error("no full-range 4:1:0 format exists")
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	err := &SourceError{Path: "x.y4m", Err: errors.New("boom")}
	if !errors.Is(err, ErrSourceOpen) {
		t.Error("SourceError should match ErrSourceOpen")
	}
	var fe error = &UnsupportedPixelFormatError{Format: PixelFormatGray8}
	if !errors.Is(fe, ErrUnsupportedPixelFormat) {
		t.Error("UnsupportedPixelFormatError should match ErrUnsupportedPixelFormat")
	}
}
