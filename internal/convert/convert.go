// Package convert turns decoded frames into packed RGBA images the presenter
// can sample. Two strategies are provided: CPU converts on the calling
// goroutine into a new RGBA frame of the same size, GPU uploads the planes and
// converts in a fragment shader straight into a texture.
package convert

import (
	"github.com/zsiec/reel/internal/media"
)

// Kind says what the pipeline has to do with a frame of a given format.
type Kind int

const (
	// Unsupported formats are fatal for the frame.
	Unsupported Kind = iota
	// Presentable frames are packed RGBA and need no conversion.
	Presentable
	// Planar frames belong to one of the planar YUV families.
	Planar
)

func (k Kind) String() string {
	switch k {
	case Presentable:
		return "presentable"
	case Planar:
		return "planar"
	}
	return "unsupported"
}

// Classify inspects format. Unsupported formats come back with a
// *media.UnsupportedPixelFormatError.
func Classify(format media.PixelFormat) (Kind, error) {
	if format == media.PixelFormatRGBA {
		return Presentable, nil
	}
	if _, ok := format.Chroma(); ok {
		return Planar, nil
	}
	return Unsupported, &media.UnsupportedPixelFormatError{Format: format}
}
