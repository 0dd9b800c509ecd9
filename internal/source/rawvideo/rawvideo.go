// Package rawvideo decodes packets that carry uncompressed planar or packed
// frames, laid out plane after plane with tightly packed rows.
package rawvideo

import (
	"fmt"
	"io"

	"github.com/zsiec/reel/internal/media"
	"github.com/zsiec/reel/internal/source"
)

// Codec is the codec name rawvideo streams declare.
const Codec = "rawvideo"

// Decoder slices each packet into the planes of one frame. It holds at most
// one pending frame, so every Send is followed by exactly one frame.
type Decoder struct {
	format  media.PixelFormat
	width   int
	height  int
	size    int
	pending *media.Frame
	flushed bool
}

// New creates a decoder for a stream with a declared format and size. Frames
// of formats the pipeline cannot present are still decoded; rejecting them
// is the converter's job.
func New(info media.StreamInfo) (source.Decoder, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("rawvideo: stream has no dimensions")
	}
	size, err := FrameSize(info.Format, info.Width, info.Height)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		format: info.Format,
		width:  info.Width,
		height: info.Height,
		size:   size,
	}, nil
}

// FrameSize returns the number of bytes one packed frame occupies. Sizes
// beyond media.MaxDimension on either axis are rejected.
func FrameSize(format media.PixelFormat, width, height int) (int, error) {
	if width <= 0 || height <= 0 || width > media.MaxDimension || height > media.MaxDimension {
		return 0, fmt.Errorf("rawvideo: invalid frame size %dx%d", width, height)
	}
	f := media.Frame{Format: format, Width: width, Height: height}
	n := format.PlaneCount()
	if n == 0 {
		return 0, &media.UnsupportedPixelFormatError{Format: format}
	}
	total := 0
	for i := 0; i < n; i++ {
		w, h := f.PlaneSize(i)
		total += w * h * format.BytesPerPixel()
	}
	return total, nil
}

// Send slices pkt into a frame. The frame aliases the packet's buffer.
func (d *Decoder) Send(pkt *media.Packet) error {
	if d.flushed {
		return fmt.Errorf("%w: send after flush", media.ErrDecode)
	}
	if d.pending != nil {
		return fmt.Errorf("%w: previous frame not received", media.ErrDecode)
	}
	if len(pkt.Data) != d.size {
		return fmt.Errorf("%w: packet is %d bytes, %s %dx%d frame needs %d",
			media.ErrDecode, len(pkt.Data), d.format, d.width, d.height, d.size)
	}

	f := &media.Frame{
		Format: d.format,
		Width:  d.width,
		Height: d.height,
		Planes: make([]media.Plane, d.format.PlaneCount()),
		PTS:    pkt.PTS,
	}
	off := 0
	for i := range f.Planes {
		w, h := f.PlaneSize(i)
		stride := w * d.format.BytesPerPixel()
		f.Planes[i] = media.Plane{Stride: stride, Data: pkt.Data[off : off+stride*h]}
		off += stride * h
	}
	d.pending = f
	return nil
}

// Receive returns the frame produced by the last Send.
func (d *Decoder) Receive() (*media.Frame, error) {
	if d.pending != nil {
		f := d.pending
		d.pending = nil
		return f, nil
	}
	if d.flushed {
		return nil, io.EOF
	}
	return nil, source.ErrWouldBlock
}

// Flush signals end of input.
func (d *Decoder) Flush() error {
	d.flushed = true
	return nil
}

// Close releases nothing; rawvideo keeps no state beyond the pending frame.
func (d *Decoder) Close() error {
	d.pending = nil
	return nil
}
