package rawvideo

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/source"
)

func TestDecodeOneFrame(t *testing.T) {
	t.Parallel()

	info := media.StreamInfo{Codec: Codec, Format: media.PixelFormatYUV420P, Width: 4, Height: 2}
	dec, err := New(info)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 4x2 luma + two 2x1 chroma planes.
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 10, 11, 20, 21}
	if err := dec.Send(&media.Packet{Data: data, PTS: 9}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	f, err := dec.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if f.PTS != 9 {
		t.Errorf("PTS: got %d, want 9", f.PTS)
	}
	if got := f.Planes[1].Data; len(got) != 2 || got[0] != 10 {
		t.Errorf("U plane: got %v", got)
	}
	if got := f.Planes[2].Data; len(got) != 2 || got[1] != 21 {
		t.Errorf("V plane: got %v", got)
	}
	if _, err := dec.Receive(); !errors.Is(err, source.ErrWouldBlock) {
		t.Errorf("second Receive: got %v, want ErrWouldBlock", err)
	}

	if err := dec.Flush(); err != nil {
		t.Fatal(err)
	}
	if _, err := dec.Receive(); !errors.Is(err, io.EOF) {
		t.Errorf("Receive after flush: got %v, want EOF", err)
	}
}

func TestDecodeRejectsShortPacket(t *testing.T) {
	t.Parallel()

	dec, _ := New(media.StreamInfo{Format: media.PixelFormatYUV444P, Width: 2, Height: 2})
	err := dec.Send(&media.Packet{Data: make([]byte, 5)})
	if !errors.Is(err, media.ErrDecode) {
		t.Errorf("got %v, want ErrDecode", err)
	}
}

func TestRejectsOversizedFrames(t *testing.T) {
	t.Parallel()

	sizes := [][2]int{{media.MaxDimension + 1, 16}, {16, media.MaxDimension + 1}, {math.MaxInt32, math.MaxInt32}}
	for _, sz := range sizes {
		info := media.StreamInfo{Format: media.PixelFormatYUV444P, Width: sz[0], Height: sz[1]}
		if _, err := New(info); err == nil {
			t.Errorf("New(%dx%d): expected error", sz[0], sz[1])
		}
		if n, err := FrameSize(info.Format, sz[0], sz[1]); err == nil {
			t.Errorf("FrameSize(%dx%d): got %d, want error", sz[0], sz[1], n)
		}
	}

	n, err := FrameSize(media.PixelFormatRGBA, media.MaxDimension, media.MaxDimension)
	if err != nil || n != media.MaxDimension*media.MaxDimension*4 {
		t.Errorf("largest frame: got %d, %v", n, err)
	}
}

func TestFrameSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format media.PixelFormat
		w, h   int
		want   int
	}{
		{media.PixelFormatYUV420P, 64, 64, 64*64 + 2*32*32},
		{media.PixelFormatYUV422P, 64, 64, 64*64 + 2*32*64},
		{media.PixelFormatYUV410P, 64, 64, 64*64 + 2*16*32},
		{media.PixelFormatRGBA, 3, 3, 36},
		{media.PixelFormatGray8, 3, 3, 9},
	}
	for _, tt := range tests {
		got, err := FrameSize(tt.format, tt.w, tt.h)
		if err != nil || got != tt.want {
			t.Errorf("FrameSize(%s): got %d, %v, want %d", tt.format, got, err, tt.want)
		}
	}
}
