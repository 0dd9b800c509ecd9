package media

import (
	"fmt"
	"strings"
)

// PixelFormat identifies the memory layout of a frame.
type PixelFormat int

// Pixel formats known to the pipeline. Only RGBA is directly presentable;
// the planar YUV families are converted. Gray8 and NV12 are recognized so that
// sources can describe them, but nothing downstream accepts them.
const (
	PixelFormatNone PixelFormat = iota
	PixelFormatRGBA
	PixelFormatYUV410P
	PixelFormatYUV411P
	PixelFormatYUVJ411P
	PixelFormatYUV420P
	PixelFormatYUVJ420P
	PixelFormatYUV422P
	PixelFormatYUVJ422P
	PixelFormatYUV440P
	PixelFormatYUVJ440P
	PixelFormatYUV444P
	PixelFormatYUVJ444P
	PixelFormatGray8
	PixelFormatNV12
)

// ChromaLayout gives the horizontal and vertical divisors applied to the
// second and third planes of a planar YUV format.
type ChromaLayout struct {
	HDiv int
	VDiv int
}

// Name returns the conventional J:a:b label of the layout, e.g. "420".
func (c ChromaLayout) Name() string {
	switch c {
	case ChromaLayout{4, 2}:
		return "410"
	case ChromaLayout{4, 1}:
		return "411"
	case ChromaLayout{2, 2}:
		return "420"
	case ChromaLayout{2, 1}:
		return "422"
	case ChromaLayout{1, 2}:
		return "440"
	case ChromaLayout{1, 1}:
		return "444"
	}
	return fmt.Sprintf("%dx%d", c.HDiv, c.VDiv)
}

type formatInfo struct {
	name      string
	chroma    ChromaLayout
	planar    bool
	fullRange bool
	planes    int
	bpp       int
}

var formats = map[PixelFormat]formatInfo{
	PixelFormatRGBA:     {name: "rgba", planes: 1, bpp: 4, fullRange: true},
	PixelFormatYUV410P:  {name: "yuv410p", chroma: ChromaLayout{4, 2}, planar: true, planes: 3, bpp: 1},
	PixelFormatYUV411P:  {name: "yuv411p", chroma: ChromaLayout{4, 1}, planar: true, planes: 3, bpp: 1},
	PixelFormatYUVJ411P: {name: "yuvj411p", chroma: ChromaLayout{4, 1}, planar: true, fullRange: true, planes: 3, bpp: 1},
	PixelFormatYUV420P:  {name: "yuv420p", chroma: ChromaLayout{2, 2}, planar: true, planes: 3, bpp: 1},
	PixelFormatYUVJ420P: {name: "yuvj420p", chroma: ChromaLayout{2, 2}, planar: true, fullRange: true, planes: 3, bpp: 1},
	PixelFormatYUV422P:  {name: "yuv422p", chroma: ChromaLayout{2, 1}, planar: true, planes: 3, bpp: 1},
	PixelFormatYUVJ422P: {name: "yuvj422p", chroma: ChromaLayout{2, 1}, planar: true, fullRange: true, planes: 3, bpp: 1},
	PixelFormatYUV440P:  {name: "yuv440p", chroma: ChromaLayout{1, 2}, planar: true, planes: 3, bpp: 1},
	PixelFormatYUVJ440P: {name: "yuvj440p", chroma: ChromaLayout{1, 2}, planar: true, fullRange: true, planes: 3, bpp: 1},
	PixelFormatYUV444P:  {name: "yuv444p", chroma: ChromaLayout{1, 1}, planar: true, planes: 3, bpp: 1},
	PixelFormatYUVJ444P: {name: "yuvj444p", chroma: ChromaLayout{1, 1}, planar: true, fullRange: true, planes: 3, bpp: 1},
	PixelFormatGray8:    {name: "gray", planes: 1, bpp: 1, fullRange: true},
	PixelFormatNV12:     {name: "nv12"},
}

// String returns the ffmpeg-style name of the format.
func (f PixelFormat) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	if f == PixelFormatNone {
		return "none"
	}
	return fmt.Sprintf("pixfmt(%d)", int(f))
}

// Chroma returns the subsampling layout of a planar YUV format. The boolean
// is false for packed and unknown formats.
func (f PixelFormat) Chroma() (ChromaLayout, bool) {
	info, ok := formats[f]
	if !ok || !info.planar {
		return ChromaLayout{}, false
	}
	return info.chroma, true
}

// Planar reports whether the format is one of the three-plane YUV families.
func (f PixelFormat) Planar() bool {
	return formats[f].planar
}

// FullRange reports whether sample values span 0-255 (JPEG range) rather
// than the BT.601 studio range of 16-235 luma and 16-240 chroma.
func (f PixelFormat) FullRange() bool {
	return formats[f].fullRange
}

// PlaneCount returns the number of planes a frame of this format carries, or
// zero when the layout is not modelled.
func (f PixelFormat) PlaneCount() int {
	return formats[f].planes
}

// BytesPerPixel returns the size of one sample in every plane of the format.
func (f PixelFormat) BytesPerPixel() int {
	return formats[f].bpp
}

// PlanarFormats returns every planar YUV format the pipeline converts.
func PlanarFormats() []PixelFormat {
	return []PixelFormat{
		PixelFormatYUV410P,
		PixelFormatYUV411P, PixelFormatYUVJ411P,
		PixelFormatYUV420P, PixelFormatYUVJ420P,
		PixelFormatYUV422P, PixelFormatYUVJ422P,
		PixelFormatYUV440P, PixelFormatYUVJ440P,
		PixelFormatYUV444P, PixelFormatYUVJ444P,
	}
}

// ParsePixelFormat looks up a format by its String name.
func ParsePixelFormat(name string) (PixelFormat, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, info := range formats {
		if info.name == name {
			return f, nil
		}
	}
	return PixelFormatNone, fmt.Errorf("media: unknown pixel format %q", name)
}

// PlanarFormat returns the planar YUV format with the given chroma layout and
// range, if one exists.
func PlanarFormat(c ChromaLayout, fullRange bool) (PixelFormat, bool) {
	for _, f := range PlanarFormats() {
		info := formats[f]
		if info.chroma == c && info.fullRange == fullRange {
			return f, true
		}
	}
	return PixelFormatNone, false
}
