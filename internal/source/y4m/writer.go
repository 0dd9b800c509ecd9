package y4m

import (
	"fmt"
	"io"

	"github.com/zsiec/reel/internal/media"
)

// Writer emits a y4m stream. The header is written before the first frame.
type Writer struct {
	w       io.Writer
	header  Header
	started bool
}

// NewWriter creates a writer for frames described by h.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if !h.Format.Planar() && h.Format != media.PixelFormatGray8 {
		return nil, &media.UnsupportedPixelFormatError{Format: h.Format}
	}
	if h.RateNum == 0 || h.RateDen == 0 {
		h.RateNum, h.RateDen = 25, 1
	}
	if h.Interlace == 0 {
		h.Interlace = 'p'
	}
	return &Writer{w: w, header: h}, nil
}

// WriteFrame writes f, which must match the header's format and size. Row
// padding in f is stripped.
func (w *Writer) WriteFrame(f *media.Frame) error {
	if f.Format != w.header.Format || f.Width != w.header.Width || f.Height != w.header.Height {
		return fmt.Errorf("y4m: frame %s %dx%d does not match stream %s %dx%d",
			f.Format, f.Width, f.Height, w.header.Format, w.header.Width, w.header.Height)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if !w.started {
		if _, err := w.w.Write(w.header.Marshal()); err != nil {
			return err
		}
		w.started = true
	}
	if _, err := io.WriteString(w.w, frameMarker+"\n"); err != nil {
		return err
	}
	for i := 0; i < f.Format.PlaneCount(); i++ {
		pw, ph := f.PlaneSize(i)
		p := f.Planes[i]
		for row := 0; row < ph; row++ {
			if _, err := w.w.Write(p.Data[row*p.Stride : row*p.Stride+pw]); err != nil {
				return err
			}
		}
	}
	return nil
}
